package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID               uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string              `gorm:"not null" json:"name"`
	Slug             string              `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string              `gorm:"type:text" json:"description"`
	ShortDescription string              `gorm:"type:text" json:"short_description"`
	SKU              string              `gorm:"uniqueIndex;not null" json:"sku"`
	Price            decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"price"`
	SalePrice        decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"sale_price"`
	StockQuantity    int                 `gorm:"not null;default:0" json:"stock_quantity"`
	ManageStock      bool                `gorm:"not null;default:true" json:"manage_stock"`
	Weight           float64             `json:"weight"`
	Image            string              `json:"image"`
	BrandID          *uint               `gorm:"index" json:"brand_id"`
	Brand            *Brand              `json:"brand,omitempty"`
	CategoryID       uint                `gorm:"index" json:"category_id"`
	Category         *Category           `json:"category,omitempty"`
	IsFeatured       bool                `gorm:"not null;default:false" json:"is_featured"`
	IsActive         bool                `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	DeletedAt        gorm.DeletedAt      `gorm:"index" json:"-"`
}

// CurrentPrice returns the effective selling price: the sale price when one
// is set, otherwise the regular price.
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// IsInStock reports whether the product can be added to a cart at all.
// Products with untracked stock are always available.
func (p *Product) IsInStock() bool {
	if !p.ManageStock {
		return true
	}
	return p.StockQuantity > 0
}

// CanFulfill reports whether the requested total quantity (not the delta)
// can be satisfied from current stock.
func (p *Product) CanFulfill(quantity int) bool {
	if !p.ManageStock {
		return true
	}
	return quantity <= p.StockQuantity
}
