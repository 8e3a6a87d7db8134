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

	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
)

const tracerName = "github.com/hamrobooks/bookstore-api/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog application port with tracing, logging, and metrics.
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

// CreateBook adds a catalog entry with instrumentation.
func (s *Service) CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateBook")
	defer span.End()

	saved, err := s.inner.CreateBook(ctx, book)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "book creation failed")
	}
	if saved != nil {
		span.SetAttributes(attribute.Int64("book.id", saved.ID))
		s.metrics.recordMutation(ctx, "create")
		s.logInfo(ctx, "book created", slog.Int64("book_id", saved.ID), slog.String("title", saved.Title))
	}
	return saved, nil
}

// UpdateBook replaces a catalog entry with instrumentation.
func (s *Service) UpdateBook(ctx context.Context, id int64, book *domain.Book) (*domain.Book, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateBook", attribute.Int64("book.id", id))
	defer span.End()

	updated, err := s.inner.UpdateBook(ctx, id, book)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "book update failed", slog.Int64("book_id", id))
	}
	s.metrics.recordMutation(ctx, "update")
	s.logInfo(ctx, "book updated", slog.Int64("book_id", id))
	return updated, nil
}

// GetByID loads a single book.
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	ctx, span := s.startSpan(ctx, "Service.GetByID", attribute.Int64("book.id", id))
	defer span.End()

	book, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load book", slog.Int64("book_id", id))
	}
	return book, nil
}

// Delete removes a book unless orders still reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "Service.Delete", attribute.Int64("book.id", id))
	defer span.End()

	if err := s.inner.Delete(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "book deletion failed", slog.Int64("book_id", id))
	}
	s.metrics.recordMutation(ctx, "delete")
	s.logInfo(ctx, "book deleted", slog.Int64("book_id", id))
	return nil
}

// List returns the catalog.
func (s *Service) List(ctx context.Context) ([]*domain.Book, error) {
	ctx, span := s.startSpan(ctx, "Service.List")
	defer span.End()

	result, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list books")
	}
	span.SetAttributes(attribute.Int("book.result.count", len(result)))
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
	mutations metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	mutations, _ := m.Int64Counter("catalog.service.mutations", metric.WithDescription("Number of catalog mutations applied"))
	return serviceMetrics{mutations: mutations}
}

func (m serviceMetrics) recordMutation(ctx context.Context, operation string) {
	if m.mutations == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("catalog.operation", operation)))
}

var _ ports.Service = (*Service)(nil)
