// Package pricing computes the money amounts behind cart display, coupon
// preview and order placement. All three call sites go through the same
// functions so a cart can never show one total and commit another.
//
// Amounts are decimal values; rounding to two places (half-up) happens once,
// when a quote is assembled, because quotes hold the values that get
// persisted.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/shopstack-dev/storefront-api/models"
)

// Tax is a flat rate applied to the discounted subtotal; shipping is a flat
// charge per order.
var (
	TaxRate      = decimal.RequireFromString("0.10")
	FlatShipping = decimal.RequireFromString("15.00")
)

func LineTotal(product *models.Product, quantity int) decimal.Decimal {
	return product.CurrentPrice().Mul(decimal.NewFromInt(int64(quantity)))
}

func Subtotal(items []models.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(LineTotal(&items[i].Product, items[i].Quantity))
	}
	return subtotal
}

// Quote is the money breakdown of a checkout.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	Total          decimal.Decimal `json:"total"`
}

// NewQuote derives tax, shipping and total from a subtotal and a discount.
// The discount is applied before tax, never after. Discount and tax are
// rounded to two places before the total is formed, so the persisted
// identity total = subtotal + tax + shipping - discount holds exactly on
// the rounded values.
func NewQuote(subtotal, discount decimal.Decimal) Quote {
	subtotal = subtotal.Round(2)
	discount = discount.Round(2)
	tax := subtotal.Sub(discount).Mul(TaxRate).Round(2)
	return Quote{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		ShippingAmount: FlatShipping,
		Total:          subtotal.Add(tax).Add(FlatShipping).Sub(discount),
	}
}
