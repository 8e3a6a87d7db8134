package ports

import (
	"context"

	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
)

// OrderReferences reports whether any order line item references a book.
// Implemented by the orders context; consulted before a book is deleted.
type OrderReferences interface {
	InUse(ctx context.Context, bookID int64) (bool, error)
}

// Service defines the catalog use cases exposed to adapters.
type Service interface {
	CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error)
	UpdateBook(ctx context.Context, id int64, book *domain.Book) (*domain.Book, error)
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Book, error)
}
