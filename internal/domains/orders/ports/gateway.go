package ports

import (
	"context"
	"errors"
)

// ErrGateway wraps any failure talking to the payment provider so callers
// can distinguish provider trouble from local invariant violations.
var ErrGateway = errors.New("payment gateway error")

// VerifyState is the provider's view of a transaction. Only StateCompleted
// settles an order; every other state records a failed payment.
type VerifyState string

const (
	StateCompleted VerifyState = "Completed"
	StatePending   VerifyState = "Pending"
	StateExpired   VerifyState = "Expired"
	StateCanceled  VerifyState = "User canceled"
	StateRefunded  VerifyState = "Refunded"
)

// InitiateRequest asks the provider to open a payment session for an order.
// Amount is in paisa.
type InitiateRequest struct {
	OrderID   string
	OrderName string
	Amount    int64
	ReturnURL string
}

type InitiateResult struct {
	TransactionRef string
	PaymentURL     string
}

type VerifyResult struct {
	State VerifyState
	// AmountPaid is in paisa as reported by the provider.
	AmountPaid int64
}

// PaymentGateway abstracts the wallet provider. Implementations must not
// mutate local state; settlement is the caller's job.
type PaymentGateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Verify(ctx context.Context, transactionRef string) (*VerifyResult, error)
}
