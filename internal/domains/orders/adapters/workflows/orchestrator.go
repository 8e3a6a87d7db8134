package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
	orderworkflows "github.com/hamrobooks/bookstore-api/internal/durable/temporal/workflows/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalPaymentWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlinePaymentWorkflows)(nil)
)

// TemporalPaymentWorkflows starts payment settlement workflows on a Temporal
// cluster. The workflow ID is derived from the transaction reference, so
// concurrent verifications of the same payment collapse onto one run.
type TemporalPaymentWorkflows struct {
	client    client.Client
	repo      ports.Repository
	taskQueue string
}

// NewTemporalPaymentWorkflows wires a Temporal client into the orchestrator.
// The repository is used to reload the settled order after the run completes.
func NewTemporalPaymentWorkflows(c client.Client, repo ports.Repository) *TemporalPaymentWorkflows {
	return &TemporalPaymentWorkflows{client: c, repo: repo, taskQueue: orderworkflows.PaymentSettlementTaskQueue}
}

// SettlePayment runs the durable settlement workflow for a transaction reference.
func (o *TemporalPaymentWorkflows) SettlePayment(ctx context.Context, transactionRef string) (*domain.Order, error) {
	if o == nil || o.client == nil || o.repo == nil {
		return nil, errors.New("temporal payment workflows not configured")
	}
	workflowID := fmt.Sprintf("payment-settlement-%s", transactionRef)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	input := orderworkflows.PaymentSettlementWorkflowInput{
		TransactionRef: transactionRef,
		TraceID:        workflowTraceComponent(ctx),
	}
	run, err := o.client.ExecuteWorkflow(ctx, options, orderworkflows.PaymentSettlementWorkflow, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			if err := existingRun.Get(ctx, nil); err != nil {
				return nil, err
			}
			return o.repo.FindByTransactionRef(ctx, transactionRef)
		}
		return nil, err
	}
	if err := run.Get(ctx, nil); err != nil {
		return nil, err
	}
	return o.repo.FindByTransactionRef(ctx, transactionRef)
}

// InlinePaymentWorkflows executes the service directly without Temporal,
// useful for tests or dev fallbacks.
type InlinePaymentWorkflows struct {
	service ports.Service
}

// NewInlinePaymentWorkflows wraps the orders service for synchronous execution.
func NewInlinePaymentWorkflows(service ports.Service) *InlinePaymentWorkflows {
	return &InlinePaymentWorkflows{service: service}
}

// SettlePayment delegates to the application service without durable orchestration.
func (o *InlinePaymentWorkflows) SettlePayment(ctx context.Context, transactionRef string) (*domain.Order, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline payment workflows not configured")
	}
	return o.service.VerifyPayment(ctx, transactionRef)
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
