package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists books in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&bookRecord{})
	}
	return repo
}

// bookRecord maps the book aggregate to a relational table.
type bookRecord struct {
	ID          int64          `gorm:"primaryKey;column:id"`
	Title       string         `gorm:"column:title;index"`
	Author      string         `gorm:"column:author;index"`
	Description string         `gorm:"column:description;type:text"`
	Category    string         `gorm:"column:category;type:varchar(100);index"`
	ISBN        string         `gorm:"column:isbn;type:varchar(20)"`
	ImageURL    string         `gorm:"column:image_url"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]"`
	Price       int64          `gorm:"column:price"`
	Quantity    int            `gorm:"column:quantity"`
	CreatedAt   time.Time      `gorm:"column:created_at;index"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (bookRecord) TableName() string { return "books" }

// Save inserts or updates a book.
func (r *Repository) Save(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errors.New("book is nil")
	}
	record := toRecord(book)
	if record.ID == 0 {
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			return nil, err
		}
		return r.GetByID(ctx, record.ID)
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"title":       record.Title,
				"author":      record.Author,
				"description": record.Description,
				"category":    record.Category,
				"isbn":        record.ISBN,
				"image_url":   record.ImageURL,
				"price":       record.Price,
				"quantity":    record.Quantity,
				"updated_at":  gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a book by identifier.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record bookRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Delete removes a book by identifier.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&bookRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns all books.
func (r *Repository) List(ctx context.Context) ([]*domain.Book, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []bookRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	books := make([]*domain.Book, 0, len(records))
	for i := range records {
		books = append(books, records[i].toDomain())
	}
	return books, nil
}

// ReserveStock performs the check-and-decrement as one conditional UPDATE so
// the database serializes concurrent reservations for the same book. A zero
// RowsAffected result means either the book is missing or stock was short;
// the follow-up read disambiguates.
func (r *Repository) ReserveStock(ctx context.Context, id int64, qty int) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if qty <= 0 {
		return domain.ErrNegativeQuantity
	}
	result := r.db.WithContext(ctx).
		Model(&bookRecord{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ports.ErrInsufficientStock
	}
	return nil
}

// RestoreStock is the compensating increment for rolled-back reservations.
func (r *Repository) RestoreStock(ctx context.Context, id int64, qty int) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if qty <= 0 {
		return domain.ErrNegativeQuantity
	}
	result := r.db.WithContext(ctx).
		Model(&bookRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres book repository not configured")
	}
	return nil
}

func toRecord(book *domain.Book) bookRecord {
	return bookRecord{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Category:    book.Category,
		ISBN:        book.ISBN,
		ImageURL:    book.ImageURL,
		Tags:        pq.StringArray(book.Tags),
		Price:       book.Price,
		Quantity:    book.Quantity,
	}
}

func (r bookRecord) toDomain() *domain.Book {
	return &domain.Book{
		ID:          r.ID,
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		Category:    r.Category,
		ISBN:        r.ISBN,
		ImageURL:    r.ImageURL,
		Tags:        []string(r.Tags),
		Price:       r.Price,
		Quantity:    r.Quantity,
	}
}
