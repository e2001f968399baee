package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/shopstack-dev/storefront-api/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(price string, salePrice string) models.Product {
	p := models.Product{Price: dec(price)}
	if salePrice != "" {
		p.SalePrice = decimal.NullDecimal{Decimal: dec(salePrice), Valid: true}
	}
	return p
}

func TestCurrentPrice(t *testing.T) {
	regular := product("100.00", "")
	assert.True(t, regular.CurrentPrice().Equal(dec("100.00")))

	onSale := product("100.00", "79.99")
	assert.True(t, onSale.CurrentPrice().Equal(dec("79.99")))
}

func TestLineTotal(t *testing.T) {
	p := product("19.99", "")
	assert.True(t, LineTotal(&p, 3).Equal(dec("59.97")))

	onSale := product("19.99", "15.00")
	assert.True(t, LineTotal(&onSale, 2).Equal(dec("30.00")))
}

func TestSubtotalOrderIndependent(t *testing.T) {
	a := models.CartItem{Product: product("10.50", ""), Quantity: 2}
	b := models.CartItem{Product: product("99.99", "89.99"), Quantity: 1}
	c := models.CartItem{Product: product("5.00", ""), Quantity: 10}

	want := dec("10.50").Mul(decimal.NewFromInt(2)).
		Add(dec("89.99")).
		Add(dec("50.00"))

	assert.True(t, Subtotal([]models.CartItem{a, b, c}).Equal(want))
	assert.True(t, Subtotal([]models.CartItem{c, a, b}).Equal(want))
	assert.True(t, Subtotal(nil).Equal(decimal.Zero))
}

func TestQuoteWithoutDiscount(t *testing.T) {
	// Cart of one item, price 100.00, qty 2.
	q := NewQuote(dec("200.00"), decimal.Zero)

	assert.True(t, q.Subtotal.Equal(dec("200.00")))
	assert.True(t, q.TaxAmount.Equal(dec("20.00")))
	assert.True(t, q.ShippingAmount.Equal(dec("15.00")))
	assert.True(t, q.Total.Equal(dec("235.00")))
}

func TestQuoteWithDiscountTaxesDiscountedSubtotal(t *testing.T) {
	// Same cart with a 10% coupon: tax is computed on 180.00, not 200.00.
	q := NewQuote(dec("200.00"), dec("20.00"))

	assert.True(t, q.DiscountAmount.Equal(dec("20.00")))
	assert.True(t, q.TaxAmount.Equal(dec("18.00")))
	assert.True(t, q.Total.Equal(dec("213.00")))
}

func TestQuoteIdentity(t *testing.T) {
	cases := []struct{ subtotal, discount string }{
		{"0", "0"},
		{"0.01", "0"},
		{"33.33", "3.333"},
		{"199.99", "199.99"},
		{"1234.56", "41.20"},
		{"58.97", "5.897"},
	}
	for _, tc := range cases {
		q := NewQuote(dec(tc.subtotal), dec(tc.discount))
		identity := q.Subtotal.Add(q.TaxAmount).Add(q.ShippingAmount).Sub(q.DiscountAmount)
		assert.True(t, q.Total.Equal(identity),
			"subtotal=%s discount=%s: total %s != %s", tc.subtotal, tc.discount, q.Total, identity)
	}
}

func TestQuoteRoundsHalfUp(t *testing.T) {
	// 10% of 58.97 - 5.90 = 5.307 → tax 5.31, not 5.30.
	q := NewQuote(dec("58.97"), dec("5.90"))
	assert.True(t, q.TaxAmount.Equal(dec("5.31")), "got %s", q.TaxAmount)

	// The fractional discount itself rounds before entering the total.
	q = NewQuote(dec("100.00"), dec("3.335"))
	assert.True(t, q.DiscountAmount.Equal(dec("3.34")), "got %s", q.DiscountAmount)
}
