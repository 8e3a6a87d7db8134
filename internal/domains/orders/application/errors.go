package application

import (
	"errors"
	"fmt"

	catalogports "github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the checkout request violated an order invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrBookNotFound signals a line item references a book that does not exist.
	ErrBookNotFound = errors.New("ordered book not found")
	// ErrInsufficientStock signals a line item asked for more than is on hand.
	ErrInsufficientStock = errors.New("insufficient stock for ordered book")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrEmptyItems),
		errors.Is(err, domain.ErrEmptyAddress),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidUnitPrice),
		errors.Is(err, domain.ErrUnknownMethod),
		errors.Is(err, domain.ErrInvalidStatus):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, catalogports.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrBookNotFound, err)
	case errors.Is(err, catalogports.ErrInsufficientStock):
		return fmt.Errorf("%w: %w", ErrInsufficientStock, err)
	}
	return err
}
