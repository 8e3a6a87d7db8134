package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
)

func seedBook(t *testing.T, repo *Repository, quantity int) *domain.Book {
	t.Helper()
	book, err := domain.NewBook(0, "Concurrency in Go", "Katherine Cox-Buday", "Patterns for Go concurrency", "computer-science", 120000, quantity)
	require.NoError(t, err)
	saved, err := repo.Save(context.Background(), book)
	require.NoError(t, err)
	return saved
}

func TestReserveStock_DecrementsQuantity(t *testing.T) {
	repo := NewRepository()
	book := seedBook(t, repo, 3)

	require.NoError(t, repo.ReserveStock(context.Background(), book.ID, 2))

	got, err := repo.GetByID(context.Background(), book.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Quantity)
}

func TestReserveStock_InsufficientLeavesQuantityUnchanged(t *testing.T) {
	repo := NewRepository()
	book := seedBook(t, repo, 1)

	err := repo.ReserveStock(context.Background(), book.ID, 2)
	require.ErrorIs(t, err, ports.ErrInsufficientStock)

	got, err := repo.GetByID(context.Background(), book.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Quantity)
}

func TestReserveStock_MissingBook(t *testing.T) {
	repo := NewRepository()
	err := repo.ReserveStock(context.Background(), 99, 1)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

// Concurrent reservations for the same book must never oversell: with N
// callers competing for limited stock, exactly `available` single-unit
// reservations succeed and quantity never goes negative.
func TestReserveStock_ConcurrentNoOversell(t *testing.T) {
	const available = 20
	const callers = 50

	repo := NewRepository()
	book := seedBook(t, repo, available)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.ReserveStock(context.Background(), book.ID, 1); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(available), successCount.Load())

	got, err := repo.GetByID(context.Background(), book.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Quantity)
}

func TestRestoreStock_CompensatesReservation(t *testing.T) {
	repo := NewRepository()
	book := seedBook(t, repo, 5)

	require.NoError(t, repo.ReserveStock(context.Background(), book.ID, 4))
	require.NoError(t, repo.RestoreStock(context.Background(), book.ID, 4))

	got, err := repo.GetByID(context.Background(), book.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Quantity)
}
