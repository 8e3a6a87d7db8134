package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderactivities "github.com/hamrobooks/bookstore-api/internal/platform/temporal/activities/orders"
)

// RunPaymentSettlementSequence executes the ordered set of activities needed
// to verify a wallet payment and settle its order. Provider lookups are
// retried with backoff; the settlement activity itself is idempotent.
func RunPaymentSettlementSequence(ctx workflow.Context, transactionRef string) (*orderactivities.SettlementResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("payment settlement sequence started", "transactionRef", transactionRef)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var result orderactivities.SettlementResult
	err := workflow.ExecuteActivity(ctx, orderactivities.VerifyPaymentActivityName, transactionRef).Get(ctx, &result)
	if err != nil {
		logger.Error("payment settlement sequence failed", "transactionRef", transactionRef, "error", err)
		return nil, err
	}
	logger.Info("payment settlement sequence completed",
		"transactionRef", transactionRef, "orderId", result.OrderID, "paymentStatus", result.PaymentStatus)
	return &result, nil
}
