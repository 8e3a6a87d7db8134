package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists the order ledger in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed order ledger. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&orderRecord{}, &orderItemRecord{})
	}
	return repo
}

// orderRecord maps the order aggregate header. TransactionRef is nullable:
// only wallet orders that completed initiation carry one.
type orderRecord struct {
	ID              string            `gorm:"primaryKey;column:id;type:varchar(64)"`
	UserID          int64             `gorm:"column:user_id;index"`
	DeliveryAddress string            `gorm:"column:delivery_address;type:text"`
	TotalAmount     int64             `gorm:"column:total_amount"`
	Status          string            `gorm:"column:status;type:varchar(20);index"`
	PaymentStatus   string            `gorm:"column:payment_status;type:varchar(20);index"`
	PaymentMethod   string            `gorm:"column:payment_method;type:varchar(20)"`
	TransactionRef  *string           `gorm:"column:transaction_ref;type:varchar(128);uniqueIndex"`
	Items           []orderItemRecord `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt       time.Time         `gorm:"column:created_at;index"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// orderItemRecord maps one line with its price snapshot in paisa.
type orderItemRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   string `gorm:"column:order_id;type:varchar(64);index"`
	BookID    int64  `gorm:"column:book_id;index"`
	Title     string `gorm:"column:title"`
	Quantity  int    `gorm:"column:quantity"`
	UnitPrice int64  `gorm:"column:unit_price"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Create inserts the order header plus its lines in one transaction.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if order == nil {
		return errors.New("order is nil")
	}
	record := toRecord(order)
	err := r.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	err := r.db.WithContext(ctx).Preload("Items").First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) FindByTransactionRef(ctx context.Context, ref string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	err := r.db.WithContext(ctx).Preload("Items").First(&record, "transaction_ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// UpdateStatus applies a partial patch atomically, last-writer-wins.
func (r *Repository) UpdateStatus(ctx context.Context, id string, patch ports.StatusPatch) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	assignments := map[string]any{"updated_at": gorm.Expr("NOW()")}
	if patch.OrderStatus != nil {
		assignments["status"] = string(*patch.OrderStatus)
	}
	if patch.PaymentStatus != nil {
		assignments["payment_status"] = string(*patch.PaymentStatus)
	}
	if patch.TransactionRef != nil {
		assignments["transaction_ref"] = *patch.TransactionRef
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ?", id).
		Updates(assignments)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// SettlePayment is the verification idempotency gate: a single conditional
// UPDATE flips payment_status to paid only while it is not paid yet, so the
// database picks exactly one winner among concurrent verifiers.
func (r *Repository) SettlePayment(ctx context.Context, id string) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND payment_status <> ?", id, string(domain.PaymentPaid)).
		Updates(map[string]any{
			"payment_status": string(domain.PaymentPaid),
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// FailPayment is the mirror of SettlePayment for non-completed lookups: one
// conditional UPDATE that records failed only while the payment is not paid,
// so a write racing a concurrent settlement loses cleanly.
func (r *Repository) FailPayment(ctx context.Context, id string) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND payment_status <> ?", id, string(domain.PaymentPaid)).
		Updates(map[string]any{
			"payment_status": string(domain.PaymentFailed),
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// ExpireStaleWallet cancels wallet orders that never saw a completed payment.
func (r *Repository) ExpireStaleWallet(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("payment_method = ? AND status = ? AND payment_status = ? AND created_at < ?",
			string(domain.MethodKhalti), string(domain.StatusPending), string(domain.PaymentUnpaid), olderThan).
		Updates(map[string]any{
			"status":         string(domain.StatusCancelled),
			"payment_status": string(domain.PaymentFailed),
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	err := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

// InUse backs the catalog referential check before a book is deleted.
func (r *Repository) InUse(ctx context.Context, bookID int64) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&orderItemRecord{}).
		Where("book_id = ?", bookID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	record := orderRecord{
		ID:              order.ID,
		UserID:          order.UserID,
		DeliveryAddress: order.DeliveryAddress,
		TotalAmount:     order.TotalAmount,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		PaymentMethod:   string(order.Payment.Method()),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if ref, ok := order.TransactionRef(); ok && ref != "" {
		record.TransactionRef = &ref
	}
	for _, item := range order.Items {
		record.Items = append(record.Items, orderItemRecord{
			OrderID:   order.ID,
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return record
}

func (r orderRecord) toDomain() *domain.Order {
	items := make([]domain.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.LineItem{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return &domain.Order{
		ID:              r.ID,
		UserID:          r.UserID,
		Items:           items,
		DeliveryAddress: r.DeliveryAddress,
		TotalAmount:     r.TotalAmount,
		Status:          domain.Status(r.Status),
		PaymentStatus:   domain.PaymentStatus(r.PaymentStatus),
		Payment:         paymentFor(r.PaymentMethod, r.TransactionRef),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// paymentFor rebuilds the payment variant from its stored columns.
func paymentFor(method string, ref *string) domain.Payment {
	if domain.Method(method) == domain.MethodKhalti {
		wallet := domain.WalletPayment{}
		if ref != nil {
			wallet.TransactionRef = *ref
		}
		return wallet
	}
	return domain.CashPayment{}
}

func toDomainList(records []orderRecord) []*domain.Order {
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders
}
