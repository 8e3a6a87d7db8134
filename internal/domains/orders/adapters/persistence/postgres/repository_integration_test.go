//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
	"github.com/hamrobooks/bookstore-api/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("bookstore_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newTestOrder(t *testing.T, method domain.Method) *domain.Order {
	t.Helper()
	items := []domain.LineItem{
		{BookID: 1, Title: "Palpasa Cafe", Quantity: 2, UnitPrice: 45000},
		{BookID: 2, Title: "Seto Dharti", Quantity: 1, UnitPrice: 52000},
	}
	order, err := domain.NewOrder(uuid.NewString(), 7, items, "Patan, Lalitpur", method)
	require.NoError(t, err)
	return order
}

func TestPostgresRepository_CreateAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(t, domain.MethodCashOnDelivery)
	require.NoError(t, repo.Create(ctx, order))

	retrieved, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, retrieved.ID)
	assert.Equal(t, int64(7), retrieved.UserID)
	assert.Equal(t, int64(142000), retrieved.TotalAmount)
	assert.Equal(t, domain.StatusPending, retrieved.Status)
	assert.Equal(t, domain.PaymentUnpaid, retrieved.PaymentStatus)
	require.Len(t, retrieved.Items, 2)
	assert.Equal(t, "Palpasa Cafe", retrieved.Items[0].Title)
	assert.Equal(t, int64(45000), retrieved.Items[0].UnitPrice)

	err = repo.Create(ctx, order)
	assert.ErrorIs(t, err, ports.ErrConflict)
}

func TestPostgresRepository_FindByTransactionRef(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(t, domain.MethodKhalti)
	require.NoError(t, order.AttachTransactionRef("pidx-abc123"))
	require.NoError(t, repo.Create(ctx, order))

	retrieved, err := repo.FindByTransactionRef(ctx, "pidx-abc123")
	require.NoError(t, err)
	assert.Equal(t, order.ID, retrieved.ID)
	ref, ok := retrieved.TransactionRef()
	require.True(t, ok)
	assert.Equal(t, "pidx-abc123", ref)

	_, err = repo.FindByTransactionRef(ctx, "pidx-missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_UpdateStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(t, domain.MethodCashOnDelivery)
	require.NoError(t, repo.Create(ctx, order))

	confirmed := domain.StatusConfirmed
	updated, err := repo.UpdateStatus(ctx, order.ID, ports.StatusPatch{OrderStatus: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Equal(t, domain.PaymentUnpaid, updated.PaymentStatus)

	paid := domain.PaymentPaid
	updated, err = repo.UpdateStatus(ctx, order.ID, ports.StatusPatch{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)

	_, err = repo.UpdateStatus(ctx, uuid.NewString(), ports.StatusPatch{OrderStatus: &confirmed})
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_SettlePayment_WinnerOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(t, domain.MethodKhalti)
	require.NoError(t, repo.Create(ctx, order))

	won, err := repo.SettlePayment(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.SettlePayment(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, won)

	_, err = repo.SettlePayment(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_FailPayment_SkipsPaid(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(t, domain.MethodKhalti)
	require.NoError(t, repo.Create(ctx, order))

	wrote, err := repo.FailPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, wrote)

	retrieved, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, retrieved.PaymentStatus)

	won, err := repo.SettlePayment(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, won)

	wrote, err = repo.FailPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, wrote, "paid is terminal")

	retrieved, err = repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, retrieved.PaymentStatus)

	_, err = repo.FailPayment(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_SettlePayment_ConcurrentVerifiers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(t, domain.MethodKhalti)
	require.NoError(t, repo.Create(ctx, order))

	const verifiers = 12

	var wg sync.WaitGroup
	wins := make(chan bool, verifiers)
	for i := 0; i < verifiers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.SettlePayment(ctx, order.ID)
			assert.NoError(t, err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestPostgresRepository_ExpireStaleWallet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	stale := newTestOrder(t, domain.MethodKhalti)
	require.NoError(t, repo.Create(ctx, stale))

	settled := newTestOrder(t, domain.MethodKhalti)
	require.NoError(t, repo.Create(ctx, settled))
	_, err := repo.SettlePayment(ctx, settled.ID)
	require.NoError(t, err)

	cash := newTestOrder(t, domain.MethodCashOnDelivery)
	require.NoError(t, repo.Create(ctx, cash))

	// A cutoff in the future makes every unpaid wallet order stale.
	swept, err := repo.ExpireStaleWallet(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	expired, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, expired.Status)
	assert.Equal(t, domain.PaymentFailed, expired.PaymentStatus)

	kept, err := repo.GetByID(ctx, settled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, kept.Status)
	assert.Equal(t, domain.PaymentPaid, kept.PaymentStatus)

	untouched, err := repo.GetByID(ctx, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, untouched.Status)
}

func TestPostgresRepository_ListByUserAndInUse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	mine := newTestOrder(t, domain.MethodCashOnDelivery)
	require.NoError(t, repo.Create(ctx, mine))

	other, err := domain.NewOrder(uuid.NewString(), 99,
		[]domain.LineItem{{BookID: 3, Title: "Summer Love", Quantity: 1, UnitPrice: 30000}},
		"Biratnagar", domain.MethodCashOnDelivery)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, other))

	orders, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	inUse, err := repo.InUse(ctx, 1)
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = repo.InUse(ctx, 42)
	require.NoError(t, err)
	assert.False(t, inUse)
}
