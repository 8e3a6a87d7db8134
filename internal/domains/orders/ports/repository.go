package ports

import (
	"context"
	"errors"
	"time"

	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	ErrConflict = errors.New("order already exists")
)

// StatusPatch is a partial update applied by UpdateStatus. Nil fields are
// left untouched; the write itself is atomic, last-writer-wins.
type StatusPatch struct {
	OrderStatus    *domain.Status
	PaymentStatus  *domain.PaymentStatus
	TransactionRef *string
}

// Repository is the append/update order ledger. Orders are never deleted.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// FindByTransactionRef recovers the order targeted by a provider
	// callback. Only wallet orders that completed initiation are reachable.
	FindByTransactionRef(ctx context.Context, ref string) (*domain.Order, error)

	UpdateStatus(ctx context.Context, id string, patch StatusPatch) (*domain.Order, error)

	// SettlePayment is the single idempotency gate for verification: it sets
	// paymentStatus to paid iff the current value is not already paid, as one
	// conditional write. The boolean reports whether this caller won the
	// gate; exactly one concurrent verifier does, and only that caller may
	// commit stock.
	SettlePayment(ctx context.Context, id string) (bool, error)

	// FailPayment records a failed verification as one conditional write: it
	// sets paymentStatus to failed iff the current value is not paid. Paid is
	// terminal, so a late non-completed lookup landing after a concurrent
	// settlement must not regress the order. The boolean reports whether the
	// write happened.
	FailPayment(ctx context.Context, id string) (bool, error)

	// ExpireStaleWallet cancels wallet orders still pending/unpaid that were
	// created before the cutoff, returning how many were swept.
	ExpireStaleWallet(ctx context.Context, olderThan time.Time) (int64, error)

	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)

	// InUse reports whether any line item references the book; consulted by
	// the catalog context before deleting a book.
	InUse(ctx context.Context, bookID int64) (bool, error)
}
