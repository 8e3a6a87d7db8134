package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
)

const tracerName = "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Checkout places an order with instrumentation.
func (s *Service) Checkout(ctx context.Context, input ports.CheckoutInput) (*ports.CheckoutResult, error) {
	ctx, span := s.startSpan(ctx, "Service.Checkout",
		attribute.Int64("order.user_id", input.UserID),
		attribute.String("order.method", string(input.Method)),
		attribute.Int("order.lines", len(input.Items)),
	)
	defer span.End()

	s.logInfo(ctx, "checkout started", slog.Int64("user_id", input.UserID), slog.String("method", string(input.Method)))
	result, err := s.inner.Checkout(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "checkout failed", slog.Int64("user_id", input.UserID))
	}
	if result != nil && result.Order != nil {
		span.SetAttributes(
			attribute.String("order.id", result.Order.ID),
			attribute.Int64("order.total_amount", result.Order.TotalAmount),
		)
		s.metrics.recordCheckout(ctx, result.Order.Payment.Method())
		s.logInfo(ctx, "checkout completed",
			slog.String("order_id", result.Order.ID),
			slog.String("status", string(result.Order.Status)),
			slog.Int64("total_amount", result.Order.TotalAmount))
	}
	return result, nil
}

// VerifyPayment settles a wallet payment with instrumentation.
func (s *Service) VerifyPayment(ctx context.Context, transactionRef string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.VerifyPayment", attribute.String("payment.transaction_ref", transactionRef))
	defer span.End()

	s.logInfo(ctx, "verifying payment", slog.String("transaction_ref", transactionRef))
	order, err := s.inner.VerifyPayment(ctx, transactionRef)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "payment verification failed", slog.String("transaction_ref", transactionRef))
	}
	if order != nil {
		span.SetAttributes(
			attribute.String("order.id", order.ID),
			attribute.String("order.payment_status", string(order.PaymentStatus)),
		)
		s.metrics.recordVerification(ctx, order.PaymentStatus)
		s.logInfo(ctx, "payment verified",
			slog.String("order_id", order.ID),
			slog.String("payment_status", string(order.PaymentStatus)),
			slog.String("status", string(order.Status)))
	}
	return order, nil
}

// UpdateOrderStatus applies a fulfillment transition with instrumentation.
func (s *Service) UpdateOrderStatus(ctx context.Context, input ports.StatusUpdateInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateOrderStatus",
		attribute.String("order.id", input.OrderID),
		attribute.String("order.status.requested", string(input.Status)),
	)
	defer span.End()

	s.logInfo(ctx, "updating order status", slog.String("order_id", input.OrderID), slog.String("status", string(input.Status)))
	order, err := s.inner.UpdateOrderStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order status update failed", slog.String("order_id", input.OrderID))
	}
	if order != nil {
		s.metrics.recordTransition(ctx, order.Status)
		s.logInfo(ctx, "order status updated", slog.String("order_id", order.ID), slog.String("status", string(order.Status)))
	}
	return order, nil
}

// GetByID loads a single order.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.GetByID", attribute.String("order.id", id))
	defer span.End()

	order, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order_id", id))
	}
	return order, nil
}

// MyOrders lists the caller's orders.
func (s *Service) MyOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.MyOrders", attribute.Int64("order.user_id", userID))
	defer span.End()

	result, err := s.inner.MyOrders(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list user orders", slog.Int64("user_id", userID))
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

// ListOrders exposes all orders for admin use cases.
func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrders")
	defer span.End()

	result, err := s.inner.ListOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	checkouts     metric.Int64Counter
	verifications metric.Int64Counter
	transitions   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	checkouts, _ := m.Int64Counter("orders.service.checkouts", metric.WithDescription("Number of orders placed"))
	verifications, _ := m.Int64Counter("orders.service.verifications", metric.WithDescription("Number of payment verifications processed"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of fulfillment transitions applied"))
	return serviceMetrics{
		checkouts:     checkouts,
		verifications: verifications,
		transitions:   transitions,
	}
}

func (m serviceMetrics) recordCheckout(ctx context.Context, method domain.Method) {
	addCounter(ctx, m.checkouts, 1, attribute.String("order.method", string(method)))
}

func (m serviceMetrics) recordVerification(ctx context.Context, status domain.PaymentStatus) {
	addCounter(ctx, m.verifications, 1, attribute.String("order.payment_status", string(status)))
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.transitions, 1, attribute.String("order.status", string(status)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
