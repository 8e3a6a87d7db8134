package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	orderspostgres "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/persistence/postgres"
	userspostgres "github.com/hamrobooks/bookstore-api/internal/domains/users/adapters/persistence/postgres"
	platformpostgres "github.com/hamrobooks/bookstore-api/internal/platform/postgres"
)

// DefaultStaleAfter is how long a wallet order may stay pending and unpaid
// before the sweep cancels it and marks its payment failed.
const DefaultStaleAfter = 2 * time.Hour

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot sweep")
	}

	now := time.Now().UTC()

	orders := orderspostgres.NewRepository(db)
	expired, err := orders.ExpireStaleWallet(ctx, now.Add(-staleAfterFromEnv()))
	if err != nil {
		log.Fatalf("failed to expire stale wallet orders: %v", err)
	}

	sessions := userspostgres.NewSessionStore(db)
	purged, err := sessions.PurgeExpired(ctx, now)
	if err != nil {
		log.Fatalf("failed to purge sessions: %v", err)
	}

	log.Printf("sweep completed: %d wallet orders expired, %d sessions purged", expired, purged)
}

func staleAfterFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("ORDER_STALE_AFTER_MINUTES"))
	if raw == "" {
		return DefaultStaleAfter
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return DefaultStaleAfter
	}
	return time.Duration(minutes) * time.Minute
}
