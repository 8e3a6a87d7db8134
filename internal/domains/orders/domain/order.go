package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyID           = errors.New("order id is required")
	ErrEmptyItems        = errors.New("order needs at least one line item")
	ErrEmptyAddress      = errors.New("delivery address is required")
	ErrInvalidQuantity   = errors.New("line item quantity must be greater than zero")
	ErrInvalidUnitPrice  = errors.New("line item unit price must be zero or greater")
	ErrUnknownMethod     = errors.New("unknown payment method")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrNotWalletOrder    = errors.New("order was not placed with a wallet payment")
	ErrRefAlreadySet     = errors.New("transaction reference already set")
	ErrAlreadyPaid       = errors.New("payment already settled")
)

// Status enumerates the fulfillment progression.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions is the fulfillment table. Delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// ParseStatus validates an externally supplied status value.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.TrimSpace(strings.ToLower(raw)))
	switch status {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanTransition reports whether the fulfillment table allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the provider-side outcome. Paid is terminal; a failed
// verification may still settle later when the provider eventually reports
// the session as completed.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

// Method enumerates the supported payment methods.
type Method string

const (
	MethodCashOnDelivery Method = "cod"
	MethodKhalti         Method = "khalti"
)

// ParseMethod validates an externally supplied payment method.
func ParseMethod(raw string) (Method, error) {
	method := Method(strings.TrimSpace(strings.ToLower(raw)))
	switch method {
	case MethodCashOnDelivery, MethodKhalti:
		return method, nil
	default:
		return "", ErrUnknownMethod
	}
}

// Payment is the tagged variant over payment method: wallet payments carry
// the provider transaction reference, cash payments cannot.
type Payment interface {
	Method() Method
}

// CashPayment marks a cash-on-delivery order. No provider state exists.
type CashPayment struct{}

func (CashPayment) Method() Method { return MethodCashOnDelivery }

// WalletPayment carries the provider session for an external wallet order.
// TransactionRef is empty until initiation succeeds and set exactly once.
type WalletPayment struct {
	TransactionRef string
}

func (WalletPayment) Method() Method { return MethodKhalti }

// LineItem captures a book purchase at a point in time. UnitPrice is the
// snapshot taken at checkout; later catalog price changes never touch it.
type LineItem struct {
	BookID    int64
	Title     string
	Quantity  int
	UnitPrice int64
}

// Subtotal is the line contribution to the order total, in paisa.
func (li LineItem) Subtotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// Order is the ledger aggregate. Line items and TotalAmount are immutable
// after construction; status fields move only through the methods below.
type Order struct {
	ID              string
	UserID          int64
	Items           []LineItem
	DeliveryAddress string
	TotalAmount     int64
	Status          Status
	PaymentStatus   PaymentStatus
	Payment         Payment
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrder validates the checkout input and computes the total once.
func NewOrder(id string, userID int64, items []LineItem, deliveryAddress string, method Method) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyID
	}
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	deliveryAddress = strings.TrimSpace(deliveryAddress)
	if deliveryAddress == "" {
		return nil, ErrEmptyAddress
	}

	var total int64
	copied := make([]LineItem, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if item.UnitPrice < 0 {
			return nil, ErrInvalidUnitPrice
		}
		copied[i] = item
		total += item.Subtotal()
	}

	var payment Payment
	switch method {
	case MethodCashOnDelivery:
		payment = CashPayment{}
	case MethodKhalti:
		payment = WalletPayment{}
	default:
		return nil, ErrUnknownMethod
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		UserID:          userID,
		Items:           copied,
		DeliveryAddress: deliveryAddress,
		TotalAmount:     total,
		Status:          StatusPending,
		PaymentStatus:   PaymentUnpaid,
		Payment:         payment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// TransitionTo applies a fulfillment transition, rejecting moves outside the
// table.
func (o *Order) TransitionTo(next Status) error {
	if _, err := ParseStatus(string(next)); err != nil {
		return err
	}
	if o.Status == next {
		return nil
	}
	if !CanTransition(o.Status, next) {
		return ErrInvalidTransition
	}
	o.Status = next
	o.touch()
	return nil
}

// MarkConfirmed moves a pending order to confirmed.
func (o *Order) MarkConfirmed() error {
	return o.TransitionTo(StatusConfirmed)
}

// MarkPaid settles the payment. Paid is terminal.
func (o *Order) MarkPaid() error {
	if o.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	o.PaymentStatus = PaymentPaid
	o.touch()
	return nil
}

// MarkPaymentFailed records a failed verification unless already settled.
func (o *Order) MarkPaymentFailed() error {
	if o.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	o.PaymentStatus = PaymentFailed
	o.touch()
	return nil
}

// AttachTransactionRef stores the provider reference issued at initiation.
// Only valid once, and only for wallet orders.
func (o *Order) AttachTransactionRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return errors.New("transaction reference is required")
	}
	wallet, ok := o.Payment.(WalletPayment)
	if !ok {
		return ErrNotWalletOrder
	}
	if wallet.TransactionRef != "" {
		return ErrRefAlreadySet
	}
	o.Payment = WalletPayment{TransactionRef: ref}
	o.touch()
	return nil
}

// TransactionRef returns the provider reference when present.
func (o *Order) TransactionRef() (string, bool) {
	wallet, ok := o.Payment.(WalletPayment)
	if !ok || wallet.TransactionRef == "" {
		return "", false
	}
	return wallet.TransactionRef, true
}

// Clone returns a deep copy safe to hand across goroutines.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
