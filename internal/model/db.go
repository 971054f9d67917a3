package model

import "time"

// All money fields are integer minor currency units (cents).

type Store struct {
	ID     string `gorm:"primaryKey;size:64;not null"`
	UserID string `gorm:"size:64;index;not null"` // owning merchant
	Name   string `gorm:"size:128;not null"`
	Slug   string `gorm:"size:128;uniqueIndex;not null"` // routing key

	CommissionRate  float64 `gorm:"not null;default:10"` // percent kept by the platform
	StripeAccountID string  `gorm:"size:64;index"`
	StripeOnboarded bool    `gorm:"not null;default:false"` // gates checkout
	IsActive        bool    `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID          string `gorm:"primaryKey;size:64;not null"`
	StoreID     string `gorm:"size:64;index:idx_store_slug,unique;not null"`
	Slug        string `gorm:"size:128;index:idx_store_slug,unique;not null"`
	Title       string `gorm:"size:256;not null"`
	Description string
	Price       int64 `gorm:"not null"`
	Stock       int64 `gorm:"not null"` // may go negative on oversell
	IsActive    bool  `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

type Order struct {
	ID          string `gorm:"primaryKey;size:64;not null"`
	OrderNumber string `gorm:"size:64;uniqueIndex;not null"`
	StoreID     string `gorm:"size:64;index;not null"`

	CustomerEmail string `gorm:"size:256;not null"`
	CustomerName  string `gorm:"size:256;not null"`

	// shipping address, validated at the boundary
	ShipLine1      string `gorm:"size:256"`
	ShipCity       string `gorm:"size:128"`
	ShipState      string `gorm:"size:128"`
	ShipPostalCode string `gorm:"size:32"`
	ShipCountry    string `gorm:"size:2"`

	Subtotal    int64 `gorm:"not null"`
	Tax         int64 `gorm:"not null;default:0"`
	Discount    int64 `gorm:"not null;default:0"`
	PlatformFee int64 `gorm:"not null"`
	Total       int64 `gorm:"not null"`

	Status        OrderStatus   `gorm:"size:32;index;not null"`
	PaymentStatus PaymentStatus `gorm:"size:32;index;not null"`

	// assigned by the processor, empty until then
	StripeSessionID       string `gorm:"size:128;index"`
	StripePaymentIntentID string `gorm:"size:128;index"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem snapshots unit price and title at order time; immutable after
// creation so historical orders survive product edits and deletions.
type OrderItem struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   string `gorm:"size:64;index;not null"`
	ProductID string `gorm:"size:64;index;not null"`
	Title     string `gorm:"size:256;not null"`
	Quantity  int64  `gorm:"not null"`
	UnitPrice int64  `gorm:"not null"`

	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
