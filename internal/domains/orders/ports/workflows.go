package ports

import (
	"context"

	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
)

// WorkflowOrchestrator exposes durable workflow operations required by the
// orders bounded context.
type WorkflowOrchestrator interface {
	// SettlePayment runs the verification/settlement sequence for the wallet
	// transaction reference and returns the resulting order.
	SettlePayment(ctx context.Context, transactionRef string) (*domain.Order, error)
}
