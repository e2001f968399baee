package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses: pending → processing → shipped → delivered, with
	// cancelled/refunded as terminal side branches.
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Address is stored denormalized on the order as JSON, so later edits to a
// user's profile never alter order history.
type Address struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	Address1  string `json:"address_1" binding:"required"`
	Address2  string `json:"address_2"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Postcode  string `json:"postcode" binding:"required"`
	Country   string `json:"country" binding:"required,len=2"`
}

func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported address column type %T", value)
	}
}

// Order is an immutable snapshot of a completed checkout. The money columns
// satisfy total = subtotal + tax_amount + shipping_amount - discount_amount
// at creation time and are never recomputed afterwards; status and payment
// transitions touch only their own columns.
type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	User            User            `json:"user,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	ShippingAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"shipping_amount"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount_amount"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Currency        string          `gorm:"type:varchar(3);not null" json:"currency"`
	BillingAddress  Address         `gorm:"type:jsonb;not null" json:"billing_address"`
	ShippingAddress Address         `gorm:"type:jsonb" json:"shipping_address"`
	Notes           string          `gorm:"type:text" json:"notes"`
	ShippedAt       *time.Time      `json:"shipped_at"`
	DeliveredAt     *time.Time      `json:"delivered_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is an immutable line snapshot. Name, SKU and price are copied
// from the product at commit time so catalog edits never rewrite history.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order_id"`
	ProductID   uint            `gorm:"index;not null" json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	ProductSKU  string          `gorm:"not null" json:"product_sku"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}
