package application

import (
	"context"
	"errors"

	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
)

// Service orchestrates catalog use cases.
type Service struct {
	repo      ports.Repository
	orderRefs ports.OrderReferences
}

// NewService wires the catalog service. orderRefs may be nil when the orders
// context is not deployed alongside (deletion is then unchecked).
func NewService(repo ports.Repository, orderRefs ports.OrderReferences) *Service {
	return &Service{repo: repo, orderRefs: orderRefs}
}

func (s *Service) CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if book == nil {
		return nil, errors.New("book is nil")
	}
	if err := book.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, book)
}

func (s *Service) UpdateBook(ctx context.Context, id int64, book *domain.Book) (*domain.Book, error) {
	if book == nil {
		return nil, errors.New("book is nil")
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	book.ID = existing.ID
	if err := book.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, book)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes a book unless an order still references it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if s.orderRefs != nil {
		inUse, err := s.orderRefs.InUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return ErrBookInUse
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*domain.Book, error) {
	return s.repo.List(ctx)
}

var _ ports.Service = (*Service)(nil)
