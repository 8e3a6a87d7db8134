package ports

import (
	"context"

	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
)

// CheckoutItemInput is one requested line of a checkout. Quantity must be
// positive; price is never accepted from the caller.
type CheckoutItemInput struct {
	BookID   int64
	Quantity int
}

// CheckoutInput carries everything required to place an order.
type CheckoutInput struct {
	UserID          int64
	Items           []CheckoutItemInput
	DeliveryAddress string
	Method          domain.Method
}

// CheckoutResult reports the created order plus, for wallet checkouts, the
// provider URL the buyer must be redirected to.
type CheckoutResult struct {
	Order      *domain.Order
	PaymentURL string
}

// StatusUpdateInput is an admin-driven fulfillment transition.
type StatusUpdateInput struct {
	OrderID string
	Status  domain.Status
}

// Service exposes the order use cases to adapters (inbound/driving port).
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)

	// VerifyPayment settles the wallet order identified by the provider
	// transaction reference. Safe to call any number of times.
	VerifyPayment(ctx context.Context, transactionRef string) (*domain.Order, error)

	UpdateOrderStatus(ctx context.Context, input StatusUpdateInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	MyOrders(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}
