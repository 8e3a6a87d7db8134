package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory book persistence adapter. Stock checks and
// decrements happen under a single mutex hold, which gives the same
// indivisibility as the conditional UPDATE in the Postgres adapter.
type Repository struct {
	mu     sync.RWMutex
	books  map[int64]*domain.Book
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{books: map[int64]*domain.Book{}}
}

func (r *Repository) Save(_ context.Context, book *domain.Book) (*domain.Book, error) {
	if book == nil {
		return nil, errors.New("book is nil")
	}
	clone := *book
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	r.books[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	book, ok := r.books[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *book
	return &clone, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Book, 0, len(r.books))
	for _, book := range r.books {
		clone := *book
		list = append(list, &clone)
	}
	return list, nil
}

func (r *Repository) ReserveStock(_ context.Context, id int64, qty int) error {
	if qty <= 0 {
		return domain.ErrNegativeQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[id]
	if !ok {
		return ports.ErrNotFound
	}
	if book.Quantity < qty {
		return ports.ErrInsufficientStock
	}
	book.Quantity -= qty
	return nil
}

func (r *Repository) RestoreStock(_ context.Context, id int64, qty int) error {
	if qty <= 0 {
		return domain.ErrNegativeQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[id]
	if !ok {
		return ports.ErrNotFound
	}
	book.Quantity += qty
	return nil
}
