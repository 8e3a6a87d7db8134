package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&bookRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&userRecord{},
		&sessionRecord{},
	)
}

// Book schema mirrors the catalog Postgres adapter.
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

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID              string    `gorm:"primaryKey;column:id;type:varchar(64)"`
	UserID          int64     `gorm:"column:user_id;index"`
	DeliveryAddress string    `gorm:"column:delivery_address;type:text"`
	TotalAmount     int64     `gorm:"column:total_amount"`
	Status          string    `gorm:"column:status;type:varchar(20);index"`
	PaymentStatus   string    `gorm:"column:payment_status;type:varchar(20);index"`
	PaymentMethod   string    `gorm:"column:payment_method;type:varchar(20)"`
	TransactionRef  *string   `gorm:"column:transaction_ref;type:varchar(128);uniqueIndex"`
	CreatedAt       time.Time `gorm:"column:created_at;index"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Order line schema keeps the unit price snapshot taken at checkout.
type orderItemRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   string `gorm:"column:order_id;type:varchar(64);index"`
	BookID    int64  `gorm:"column:book_id;index"`
	Title     string `gorm:"column:title"`
	Quantity  int    `gorm:"column:quantity"`
	UnitPrice int64  `gorm:"column:unit_price"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// User schema mirrors the users Postgres adapter.
type userRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Name         string    `gorm:"column:name"`
	Email        string    `gorm:"column:email;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role;type:varchar(20);index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

// Session schema mirrors the session store.
type sessionRecord struct {
	Token     string    `gorm:"primaryKey;column:token;size:512"`
	UserID    int64     `gorm:"column:user_id;index"`
	Role      string    `gorm:"column:role;type:varchar(20)"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "user_sessions" }
