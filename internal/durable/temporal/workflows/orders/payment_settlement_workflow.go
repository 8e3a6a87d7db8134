package orders

import (
	"go.temporal.io/sdk/workflow"

	"github.com/hamrobooks/bookstore-api/internal/durable/temporal/sequences"
	orderactivities "github.com/hamrobooks/bookstore-api/internal/platform/temporal/activities/orders"
)

const (
	// PaymentSettlementWorkflowName is the public identifier for registering the workflow.
	PaymentSettlementWorkflowName = "orders.workflows.PaymentSettlement"
	// PaymentSettlementTaskQueue is the queue consumed by the worker processing order workflows.
	PaymentSettlementTaskQueue = "PAYMENT_SETTLEMENT"
)

// PaymentSettlementWorkflowInput captures the payload required to settle a
// wallet payment.
type PaymentSettlementWorkflowInput struct {
	TransactionRef string
	TraceID        string
}

// PaymentSettlementWorkflow orchestrates the activities needed to verify a
// wallet payment at the provider and settle the matching order.
func PaymentSettlementWorkflow(ctx workflow.Context, input PaymentSettlementWorkflowInput) (*orderactivities.SettlementResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("PaymentSettlementWorkflow started", withTraceID(input.TraceID, "transactionRef", input.TransactionRef)...)
	result, err := sequences.RunPaymentSettlementSequence(ctx, input.TransactionRef)
	if err != nil {
		logger.Error("PaymentSettlementWorkflow failed", withTraceID(input.TraceID, "transactionRef", input.TransactionRef, "error", err)...)
		return nil, err
	}
	logger.Info("PaymentSettlementWorkflow completed",
		withTraceID(input.TraceID, "orderId", result.OrderID, "paymentStatus", result.PaymentStatus)...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
