package mapper

import (
	"strings"
	"time"

	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
)

// Wire payment method values. The domain uses lowercase identifiers; the
// public API keeps the historical uppercase spelling.
const (
	WireMethodCOD    = "COD"
	WireMethodKhalti = "KHALTI"
)

// CheckoutItem is one requested line of an inbound checkout payload.
type CheckoutItem struct {
	BookID   int64 `json:"book"`
	Quantity int   `json:"quantity"`
}

// CheckoutRequest is the inbound order creation payload.
type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items"`
	DeliveryAddress string         `json:"deliveryAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
}

// CheckoutResponse reports the created order. PaymentURL is present only for
// wallet checkouts; the buyer must be redirected there to complete payment.
type CheckoutResponse struct {
	Order      Order  `json:"order"`
	PaymentURL string `json:"payment_url,omitempty"`
}

// VerifyPaymentRequest carries the provider transaction reference posted back
// after the buyer returns from the payment page.
type VerifyPaymentRequest struct {
	TransactionRef string `json:"pidx"`
}

// StatusUpdateRequest is the admin fulfillment transition payload.
type StatusUpdateRequest struct {
	OrderStatus string `json:"orderStatus"`
}

// OrderItem is the HTTP representation of an order line. Price is the unit
// price snapshot taken at checkout, in paisa.
type OrderItem struct {
	BookID   int64  `json:"book"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// Order is the HTTP representation of the ledger aggregate.
type Order struct {
	ID              string      `json:"id"`
	UserID          int64       `json:"userId"`
	Items           []OrderItem `json:"items"`
	DeliveryAddress string      `json:"deliveryAddress"`
	TotalAmount     int64       `json:"totalAmount"`
	PaymentMethod   string      `json:"paymentMethod"`
	OrderStatus     string      `json:"orderStatus"`
	PaymentStatus   string      `json:"paymentStatus"`
	TransactionRef  string      `json:"pidx,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ToCheckoutInput converts an inbound payload into the application input.
func ToCheckoutInput(userID int64, req CheckoutRequest) (ports.CheckoutInput, error) {
	method, err := domain.ParseMethod(req.PaymentMethod)
	if err != nil {
		return ports.CheckoutInput{}, err
	}
	items := make([]ports.CheckoutItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ports.CheckoutItemInput{BookID: item.BookID, Quantity: item.Quantity})
	}
	return ports.CheckoutInput{
		UserID:          userID,
		Items:           items,
		DeliveryAddress: req.DeliveryAddress,
		Method:          method,
	}, nil
}

// ToStatus validates an inbound fulfillment status value.
func ToStatus(req StatusUpdateRequest) (domain.Status, error) {
	return domain.ParseStatus(req.OrderStatus)
}

// FromDomainOrder maps a domain aggregate into a transport Order.
func FromDomainOrder(o *domain.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItem{
			BookID:   item.BookID,
			Title:    item.Title,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
		})
	}
	ref, _ := o.TransactionRef()
	return Order{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		DeliveryAddress: o.DeliveryAddress,
		TotalAmount:     o.TotalAmount,
		PaymentMethod:   methodToWire(o.Payment.Method()),
		OrderStatus:     string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		TransactionRef:  ref,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// FromDomainOrderList maps a slice of domain aggregates to transport Orders.
func FromDomainOrderList(list []*domain.Order) []Order {
	resp := make([]Order, 0, len(list))
	for _, o := range list {
		resp = append(resp, FromDomainOrder(o))
	}
	return resp
}

// FromCheckoutResult maps the application checkout result to the response
// payload.
func FromCheckoutResult(result *ports.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		Order:      FromDomainOrder(result.Order),
		PaymentURL: result.PaymentURL,
	}
}

func methodToWire(method domain.Method) string {
	switch method {
	case domain.MethodKhalti:
		return WireMethodKhalti
	default:
		return WireMethodCOD
	}
}

// NormalizeRef trims an externally supplied transaction reference.
func NormalizeRef(ref string) string {
	return strings.TrimSpace(ref)
}
