package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopstack-dev/storefront-api/apperr"
)

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

// Coupon validity failures, in evaluation order. An unknown code reports the
// same "coupon_invalid" reason as an inactive one so codes cannot be probed.
var (
	ErrCouponInvalid    = &apperr.Error{Code: apperr.EREJECTED, Reason: "coupon_invalid", Message: "Invalid or expired coupon code"}
	ErrCouponNotStarted = &apperr.Error{Code: apperr.EREJECTED, Reason: "coupon_not_started", Message: "This coupon is not active yet"}
	ErrCouponExpired    = &apperr.Error{Code: apperr.EREJECTED, Reason: "coupon_expired", Message: "This coupon has expired"}
	ErrCouponExhausted  = &apperr.Error{Code: apperr.EREJECTED, Reason: "coupon_exhausted", Message: "This coupon has reached its usage limit"}
)

type Coupon struct {
	ID              uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	Code            string              `gorm:"uniqueIndex;not null" json:"code"`
	Name            string              `json:"name"`
	Description     string              `gorm:"type:text" json:"description"`
	Type            DiscountType        `gorm:"type:varchar(20);not null" json:"type"`
	Value           decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"value"`
	MinimumAmount   decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"minimum_amount"`
	MaximumDiscount decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"maximum_discount"`
	UsageLimit      *int                `json:"usage_limit"`
	UsageCount      int                 `gorm:"not null;default:0" json:"usage_count"`
	// UsageLimitPerUser is stored for admin tooling but nothing enforces it
	// yet. TODO: enforcing it needs an order→coupon link to count per-user
	// redemptions; confirm intended semantics before wiring that in.
	UsageLimitPerUser *int       `json:"usage_limit_per_user"`
	StartsAt          *time.Time `json:"starts_at"`
	ExpiresAt         *time.Time `json:"expires_at"`
	IsActive          bool       `gorm:"not null;default:true" json:"is_active"`
	Products          []Product  `gorm:"many2many:coupon_products;" json:"products,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Validate runs the validity state machine against the supplied clock
// reading. It is re-evaluated on every use; validity is never cached.
func (c *Coupon) Validate(now time.Time) error {
	if !c.IsActive {
		return ErrCouponInvalid
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return ErrCouponNotStarted
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return ErrCouponExhausted
	}
	return nil
}

func (c *Coupon) IsValid(now time.Time) bool {
	return c.Validate(now) == nil
}

// CalculateDiscount computes the discount the coupon grants against base,
// which is the subtotal of the cart lines the coupon applies to. The result
// is capped at MaximumDiscount when set and always clamped to base, so a
// coupon can never push a total negative. Invalid coupons and bases below
// the minimum-amount threshold yield zero.
func (c *Coupon) CalculateDiscount(base decimal.Decimal, now time.Time) decimal.Decimal {
	if !c.IsValid(now) {
		return decimal.Zero
	}
	if c.MinimumAmount.Valid && base.LessThan(c.MinimumAmount.Decimal) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.Type {
	case DiscountFixed:
		discount = c.Value
	case DiscountPercentage:
		discount = base.Mul(c.Value).Div(decimal.NewFromInt(100))
	}

	if c.MaximumDiscount.Valid && discount.GreaterThan(c.MaximumDiscount.Decimal) {
		discount = c.MaximumDiscount.Decimal
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	return discount
}
