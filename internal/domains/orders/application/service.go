package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	catalogports "github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
)

// Service orchestrates the order lifecycle: checkout, payment settlement and
// fulfillment transitions.
type Service struct {
	repo      ports.Repository
	books     catalogports.Repository
	gateway   ports.PaymentGateway
	returnURL string
	logger    *slog.Logger
}

// NewService wires the orders service. returnURL is where the wallet provider
// sends the buyer back after payment.
func NewService(repo ports.Repository, books catalogports.Repository, gateway ports.PaymentGateway, returnURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, books: books, gateway: gateway, returnURL: returnURL, logger: logger}
}

// Checkout places an order. Cash orders reserve stock immediately and come
// back confirmed; wallet orders are recorded pending and the buyer is handed
// the provider's payment URL. Wallet stock is only committed once the
// provider confirms payment.
func (s *Service) Checkout(ctx context.Context, input ports.CheckoutInput) (*ports.CheckoutResult, error) {
	items, err := s.snapshotItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	order, err := domain.NewOrder(uuid.NewString(), input.UserID, items, input.DeliveryAddress, input.Method)
	if err != nil {
		return nil, mapError(err)
	}

	switch input.Method {
	case domain.MethodCashOnDelivery:
		return s.checkoutCash(ctx, order)
	case domain.MethodKhalti:
		return s.checkoutWallet(ctx, order)
	default:
		return nil, mapError(domain.ErrUnknownMethod)
	}
}

// snapshotItems resolves every requested book, checks availability, and
// freezes the current title and price into line items. Prices are never taken
// from the caller. The availability check runs for both payment methods, so a
// wallet buyer is never sent to pay for stock that does not exist; cash
// checkout still re-checks atomically when it reserves.
func (s *Service) snapshotItems(ctx context.Context, requested []ports.CheckoutItemInput) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, 0, len(requested))
	for _, req := range requested {
		book, err := s.books.GetByID(ctx, req.BookID)
		if err != nil {
			return nil, mapError(fmt.Errorf("book %d: %w", req.BookID, err))
		}
		if book.Quantity < req.Quantity {
			return nil, mapError(fmt.Errorf("book %d: %w", req.BookID, catalogports.ErrInsufficientStock))
		}
		items = append(items, domain.LineItem{
			BookID:    book.ID,
			Title:     book.Title,
			Quantity:  req.Quantity,
			UnitPrice: book.Price,
		})
	}
	return items, nil
}

// checkoutCash reserves all stock up front; if any line falls short the
// already-reserved lines are restored and nothing is recorded.
func (s *Service) checkoutCash(ctx context.Context, order *domain.Order) (*ports.CheckoutResult, error) {
	reserved := make([]domain.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		if err := s.books.ReserveStock(ctx, item.BookID, item.Quantity); err != nil {
			s.restoreItems(ctx, reserved)
			return nil, mapError(fmt.Errorf("book %d: %w", item.BookID, err))
		}
		reserved = append(reserved, item)
	}
	if err := order.MarkConfirmed(); err != nil {
		s.restoreItems(ctx, reserved)
		return nil, mapError(err)
	}
	if err := s.repo.Create(ctx, order); err != nil {
		s.restoreItems(ctx, reserved)
		return nil, err
	}
	return &ports.CheckoutResult{Order: order}, nil
}

// checkoutWallet records the order first so a provider reference always has a
// local anchor, then opens the payment session. If initiation fails the
// pending order remains for the sweeper to expire.
func (s *Service) checkoutWallet(ctx context.Context, order *domain.Order) (*ports.CheckoutResult, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: wallet payments are not configured", ports.ErrGateway)
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	initiated, err := s.gateway.Initiate(ctx, ports.InitiateRequest{
		OrderID:   order.ID,
		OrderName: fmt.Sprintf("Bookstore order %s", order.ID),
		Amount:    order.TotalAmount,
		ReturnURL: s.returnURL,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "payment initiation failed, order left pending",
			slog.String("order_id", order.ID), slog.String("error", err.Error()))
		return nil, err
	}
	if err := order.AttachTransactionRef(initiated.TransactionRef); err != nil {
		return nil, mapError(err)
	}
	updated, err := s.repo.UpdateStatus(ctx, order.ID, ports.StatusPatch{TransactionRef: &initiated.TransactionRef})
	if err != nil {
		return nil, err
	}
	return &ports.CheckoutResult{Order: updated, PaymentURL: initiated.PaymentURL}, nil
}

func (s *Service) restoreItems(ctx context.Context, items []domain.LineItem) {
	for _, item := range items {
		if err := s.books.RestoreStock(ctx, item.BookID, item.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "stock restore failed",
				slog.Int64("book_id", item.BookID), slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()))
		}
	}
}

// VerifyPayment settles the wallet order bound to the provider transaction
// reference. The call is idempotent: the first verifier to observe a
// completed payment wins the settlement gate and commits stock, every later
// or concurrent call returns the already-settled order untouched. A
// non-completed provider state records a failed payment unless the order is
// already paid.
func (s *Service) VerifyPayment(ctx context.Context, transactionRef string) (*domain.Order, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: wallet payments are not configured", ports.ErrGateway)
	}
	order, err := s.repo.FindByTransactionRef(ctx, transactionRef)
	if err != nil {
		return nil, err
	}
	verified, err := s.gateway.Verify(ctx, transactionRef)
	if err != nil {
		return nil, err
	}

	if verified.State != ports.StateCompleted {
		// FailPayment is conditional at the store: a late non-completed
		// lookup racing a concurrent settlement never regresses paid.
		if _, err := s.repo.FailPayment(ctx, order.ID); err != nil {
			return nil, err
		}
		return s.repo.GetByID(ctx, order.ID)
	}

	won, err := s.repo.SettlePayment(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return s.repo.GetByID(ctx, order.ID)
	}

	s.commitStock(ctx, order)
	confirmed := domain.StatusConfirmed
	return s.repo.UpdateStatus(ctx, order.ID, ports.StatusPatch{OrderStatus: &confirmed})
}

// commitStock decrements inventory for a settled wallet order. The money has
// already changed hands, so a shortfall on one line must not void the rest:
// every line is attempted and shortfalls are logged for manual follow-up.
func (s *Service) commitStock(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		err := s.books.ReserveStock(ctx, item.BookID, item.Quantity)
		if err == nil {
			continue
		}
		s.logger.WarnContext(ctx, "stock commit shortfall on settled order",
			slog.String("order_id", order.ID),
			slog.Int64("book_id", item.BookID),
			slog.Int("quantity", item.Quantity),
			slog.String("error", err.Error()))
	}
}

// UpdateOrderStatus applies an admin fulfillment transition. Cancelling a
// confirmed order releases its reserved stock.
func (s *Service) UpdateOrderStatus(ctx context.Context, input ports.StatusUpdateInput) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if input.Status == order.Status {
		return order, nil
	}
	if !domain.CanTransition(order.Status, input.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, input.Status)
	}
	releaseStock := input.Status == domain.StatusCancelled && order.Status == domain.StatusConfirmed
	updated, err := s.repo.UpdateStatus(ctx, order.ID, ports.StatusPatch{OrderStatus: &input.Status})
	if err != nil {
		return nil, err
	}
	if releaseStock {
		s.restoreItems(ctx, updated.Items)
	}
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) MyOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.List(ctx)
}

var _ ports.Service = (*Service)(nil)
