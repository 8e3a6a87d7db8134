package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	bookstoreserver "github.com/hamrobooks/bookstore-api/go"

	khalticlient "github.com/hamrobooks/bookstore-api/internal/clients/http/khalti"
	catalogmemory "github.com/hamrobooks/bookstore-api/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/hamrobooks/bookstore-api/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/hamrobooks/bookstore-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/hamrobooks/bookstore-api/internal/domains/catalog/application"
	catalogports "github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
	khaltigateway "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/external/khalti"
	ordersmemory "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/hamrobooks/bookstore-api/internal/domains/orders/application"
	ordersports "github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
	usersmemory "github.com/hamrobooks/bookstore-api/internal/domains/users/adapters/memory"
	usersobs "github.com/hamrobooks/bookstore-api/internal/domains/users/adapters/observability"
	userspostgres "github.com/hamrobooks/bookstore-api/internal/domains/users/adapters/persistence/postgres"
	usersapp "github.com/hamrobooks/bookstore-api/internal/domains/users/application"
	usersports "github.com/hamrobooks/bookstore-api/internal/domains/users/ports"
	"github.com/hamrobooks/bookstore-api/internal/platform/migrations"
	platformobservability "github.com/hamrobooks/bookstore-api/internal/platform/observability"
	platformpostgres "github.com/hamrobooks/bookstore-api/internal/platform/postgres"
)

// Run boots the bookstore HTTP API with observability, repositories, the
// payment gateway, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "bookstore-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := connectDatabase(ctx, cfg, logger)
	defer cleanupDB()

	repos := buildRepositories(db, logger)

	catalogService := catalogobs.New(
		catalogapp.NewService(repos.books, repos.orders),
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)

	gateway := buildPaymentGateway(cfg, logger)
	orderService := ordersobs.New(
		ordersapp.NewService(repos.orders, repos.books, gateway, cfg.PaymentReturnURL, logger),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	var paymentWorkflows ordersports.WorkflowOrchestrator = ordersworkflows.NewInlinePaymentWorkflows(orderService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, settling payments inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		paymentWorkflows = ordersworkflows.NewTemporalPaymentWorkflows(temporalClient, repos.orders)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	userService := usersobs.New(
		usersapp.NewService(repos.users, repos.sessions, cfg.SessionTTL),
		usersobs.WithLogger(logger),
		usersobs.WithTracer(instruments.Tracer("internal.users.application")),
		usersobs.WithMeter(instruments.Meter("internal.users.application")),
	)

	handlers := bookstoreserver.ApiHandleFunctions{
		BooksAPI:  bookstoreserver.NewBooksAPI(catalogService),
		OrdersAPI: bookstoreserver.NewOrdersAPI(orderService, paymentWorkflows),
		UsersAPI:  bookstoreserver.NewUsersAPI(userService),
		Auth:      userService,
	}

	router := bookstoreserver.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("bookstore API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("bookstore API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// repositories groups the persistence ports all contexts are wired with.
type repositories struct {
	books    catalogports.Repository
	orders   ordersports.Repository
	users    usersports.Repository
	sessions usersports.SessionStore
}

func connectDatabase(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return nil, func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	if err := migrations.Run(db); err != nil {
		logger.Error("schema migration failed", slog.String("error", err.Error()))
		_ = sqlDB.Close()
		return nil, func() {}
	}
	logger.Info("postgres connection established")
	return db, func() { _ = sqlDB.Close() }
}

func buildRepositories(db *gorm.DB, logger *slog.Logger) repositories {
	if db == nil {
		return repositories{
			books:    catalogmemory.NewRepository(),
			orders:   ordersmemory.NewRepository(),
			users:    usersmemory.NewRepository(),
			sessions: usersmemory.NewSessionStore(),
		}
	}
	logger.Info("repositories configured with postgres")
	return repositories{
		books:    catalogpostgres.NewRepository(db),
		orders:   orderspostgres.NewRepository(db),
		users:    userspostgres.NewRepository(db),
		sessions: userspostgres.NewSessionStore(db),
	}
}

func buildPaymentGateway(cfg Config, logger *slog.Logger) ordersports.PaymentGateway {
	if cfg.KhaltiSecretKey == "" {
		logger.Warn("KHALTI_SECRET_KEY not set, wallet payments disabled")
		return nil
	}
	khalti, err := khalticlient.NewClient(cfg.KhaltiBaseURL, cfg.KhaltiSecretKey, cfg.KhaltiWebsiteURL, nil)
	if err != nil {
		logger.Warn("failed to configure Khalti client, wallet payments disabled", slog.String("error", err.Error()))
		return nil
	}
	gateway, err := khaltigateway.NewGateway(khalti)
	if err != nil {
		logger.Warn("failed to configure payment gateway, wallet payments disabled", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("Khalti payment gateway configured", slog.String("base_url", cfg.KhaltiBaseURL))
	return gateway
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	logger := workerlog.NewStructuredLogger(effectiveLogger(instruments))
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
