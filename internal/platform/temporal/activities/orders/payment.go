package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	ordersports "github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
)

const (
	// VerifyPaymentActivityName settles a wallet payment against the provider.
	VerifyPaymentActivityName = "orders.activities.VerifyPayment"
)

// SettlementResult is the workflow-serializable outcome of a settlement run.
type SettlementResult struct {
	OrderID       string
	Status        string
	PaymentStatus string
}

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ordersports.Service
}

// NewActivities wires the orders service into the Temporal activities bundle.
func NewActivities(service ordersports.Service) *Activities {
	return &Activities{service: service}
}

// VerifyPayment runs the settlement use case for one transaction reference.
// The use case is idempotent, so activity retries are safe.
func (a *Activities) VerifyPayment(ctx context.Context, transactionRef string) (*SettlementResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("payment verification activity not initialized", "transactionRef", transactionRef)
		return nil, errors.New("payment verification activity not initialized")
	}
	logger.Info("VerifyPayment activity started", "transactionRef", transactionRef)
	order, err := a.service.VerifyPayment(ctx, transactionRef)
	if err != nil {
		logger.Error("VerifyPayment activity failed", "transactionRef", transactionRef, "error", err)
		return nil, err
	}
	logger.Info("VerifyPayment activity completed",
		"orderId", order.ID, "paymentStatus", string(order.PaymentStatus))
	return &SettlementResult{
		OrderID:       order.ID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
	}, nil
}
