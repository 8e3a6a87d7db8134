package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order ledger. The payment settlement gate runs
// its check and its write under one mutex hold, matching the conditional
// UPDATE the Postgres adapter issues.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	byRef  map[string]string
}

func NewRepository() *Repository {
	return &Repository{
		orders: map[string]*domain.Order{},
		byRef:  map[string]string{},
	}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; ok {
		return ports.ErrConflict
	}
	clone := order.Clone()
	r.orders[clone.ID] = clone
	if ref, ok := clone.TransactionRef(); ok && ref != "" {
		r.byRef[ref] = clone.ID
	}
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) FindByTransactionRef(_ context.Context, ref string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byRef[ref]
	if !ok {
		return nil, ports.ErrNotFound
	}
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) UpdateStatus(_ context.Context, id string, patch ports.StatusPatch) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if patch.OrderStatus != nil {
		order.Status = *patch.OrderStatus
	}
	if patch.PaymentStatus != nil {
		order.PaymentStatus = *patch.PaymentStatus
	}
	if patch.TransactionRef != nil {
		order.Payment = domain.WalletPayment{TransactionRef: *patch.TransactionRef}
		r.byRef[*patch.TransactionRef] = order.ID
	}
	order.UpdatedAt = time.Now().UTC()
	return order.Clone(), nil
}

func (r *Repository) SettlePayment(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return false, ports.ErrNotFound
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return false, nil
	}
	order.PaymentStatus = domain.PaymentPaid
	order.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *Repository) FailPayment(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return false, ports.ErrNotFound
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return false, nil
	}
	order.PaymentStatus = domain.PaymentFailed
	order.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *Repository) ExpireStaleWallet(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for _, order := range r.orders {
		if order.Payment.Method() != domain.MethodKhalti {
			continue
		}
		if order.Status != domain.StatusPending || order.PaymentStatus != domain.PaymentUnpaid {
			continue
		}
		if !order.CreatedAt.Before(olderThan) {
			continue
		}
		order.Status = domain.StatusCancelled
		order.PaymentStatus = domain.PaymentFailed
		order.UpdatedAt = time.Now().UTC()
		swept++
	}
	return swept, nil
}

func (r *Repository) ListByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			list = append(list, order.Clone())
		}
	}
	sortByCreation(list)
	return list, nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		list = append(list, order.Clone())
	}
	sortByCreation(list)
	return list, nil
}

func (r *Repository) InUse(_ context.Context, bookID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, order := range r.orders {
		for _, item := range order.Items {
			if item.BookID == bookID {
				return true, nil
			}
		}
	}
	return false, nil
}

// Newest first, stable across calls.
func sortByCreation(list []*domain.Order) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
