package ports

import (
	"context"
	"errors"

	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
)

var (
	ErrNotFound          = errors.New("book not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository persists books and exposes the atomic stock operations the order
// workflow depends on.
type Repository interface {
	Save(ctx context.Context, book *domain.Book) (*domain.Book, error)
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Book, error)

	// ReserveStock decrements quantity-on-hand iff at least qty is available.
	// The check and the decrement are a single indivisible operation; two
	// concurrent reservations can never both succeed when their combined
	// quantity exceeds availability. Returns ErrInsufficientStock or
	// ErrNotFound.
	ReserveStock(ctx context.Context, id int64, qty int) error

	// RestoreStock is the compensating increment for a failed workflow.
	RestoreStock(ctx context.Context, id int64, qty int) error
}
