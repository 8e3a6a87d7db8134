package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"gorm.io/gorm"

	khalticlient "github.com/hamrobooks/bookstore-api/internal/clients/http/khalti"
	catalogmemory "github.com/hamrobooks/bookstore-api/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/hamrobooks/bookstore-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
	khaltigateway "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/external/khalti"
	ordersmemory "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/hamrobooks/bookstore-api/internal/domains/orders/application"
	ordersports "github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
	orderworkflows "github.com/hamrobooks/bookstore-api/internal/durable/temporal/workflows/orders"
	"github.com/hamrobooks/bookstore-api/internal/platform/migrations"
	platformobservability "github.com/hamrobooks/bookstore-api/internal/platform/observability"
	platformpostgres "github.com/hamrobooks/bookstore-api/internal/platform/postgres"
	orderactivities "github.com/hamrobooks/bookstore-api/internal/platform/temporal/activities/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "bookstore-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db != nil {
		if err := migrations.Run(db); err != nil {
			logger.Error("schema migration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	bookRepo, orderRepo := buildRepositories(db, logger)

	orderService := ordersobs.New(
		ordersapp.NewService(orderRepo, bookRepo, buildPaymentGateway(logger), paymentReturnURL(), logger),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	activities := orderactivities.NewActivities(orderService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.PaymentSettlementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.PaymentSettlementWorkflow, workflow.RegisterOptions{Name: orderworkflows.PaymentSettlementWorkflowName})
	w.RegisterActivityWithOptions(activities.VerifyPayment, activity.RegisterOptions{Name: orderactivities.VerifyPaymentActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.PaymentSettlementTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildRepositories(db *gorm.DB, logger *slog.Logger) (catalogports.Repository, ordersports.Repository) {
	if db == nil {
		logger.Warn("worker running with in-memory repositories")
		return catalogmemory.NewRepository(), ordersmemory.NewRepository()
	}
	logger.Info("worker repositories configured with postgres")
	return catalogpostgres.NewRepository(db), orderspostgres.NewRepository(db)
}

func buildPaymentGateway(logger *slog.Logger) ordersports.PaymentGateway {
	secretKey := os.Getenv("KHALTI_SECRET_KEY")
	if secretKey == "" {
		logger.Warn("KHALTI_SECRET_KEY not set, wallet verification will fail")
		return nil
	}
	khalti, err := khalticlient.NewClient(
		envOrDefault("KHALTI_BASE_URL", "https://dev.khalti.com/api/v2"),
		secretKey,
		os.Getenv("KHALTI_WEBSITE_URL"),
		nil,
	)
	if err != nil {
		logger.Warn("failed to configure Khalti client", slog.String("error", err.Error()))
		return nil
	}
	gateway, err := khaltigateway.NewGateway(khalti)
	if err != nil {
		logger.Warn("failed to configure payment gateway", slog.String("error", err.Error()))
		return nil
	}
	return gateway
}

func paymentReturnURL() string {
	return envOrDefault("PAYMENT_RETURN_URL", "http://localhost:5173/payment/success")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
