package checkoutControllers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shopstack-dev/storefront-api/apperr"
	cartControllers "github.com/shopstack-dev/storefront-api/controllers/cart"
	"github.com/shopstack-dev/storefront-api/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every pooled connection to :memory: would otherwise get its own
	// empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Brand{},
		&models.Category{},
		&models.Product{},
		&models.Coupon{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

var seq int

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	seq++
	u := &models.User{Name: fmt.Sprintf("User %d", seq), Email: fmt.Sprintf("user%d@example.com", seq)}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, price string, stock int) *models.Product {
	t.Helper()
	seq++
	p := &models.Product{
		Name:          fmt.Sprintf("Product %d", seq),
		Slug:          fmt.Sprintf("product-%d", seq),
		SKU:           fmt.Sprintf("SKU-%04d", seq),
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		ManageStock:   true,
		IsActive:      true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedCoupon(t *testing.T, db *gorm.DB, code string, mutate func(*models.Coupon)) *models.Coupon {
	t.Helper()
	c := &models.Coupon{
		Code:     code,
		Type:     models.DiscountPercentage,
		Value:    decimal.RequireFromString("10"),
		IsActive: true,
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func addLine(t *testing.T, db *gorm.DB, userID uint, p *models.Product, qty int) {
	t.Helper()
	_, err := cartControllers.AddToCart(db, userID, p.ID, qty)
	require.NoError(t, err)
}

func testAddress() models.Address {
	return models.Address{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+6281234567890",
		Address1:  "1 Analytical Way",
		City:      "Jakarta",
		State:     "DKI Jakarta",
		Postcode:  "10110",
		Country:   "ID",
	}
}

func placeOrderReq(couponCode string) PlaceOrderRequest {
	return PlaceOrderRequest{
		BillingAddress: testAddress(),
		PaymentMethod:  "bank_transfer",
		CouponCode:     couponCode,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPlaceOrderEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	p := seedProduct(t, db, "100.00", 10)
	addLine(t, db, user.ID, p, 2)

	order, err := PlaceOrder(db, user.ID, placeOrderReq(""))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	require.True(t, order.Subtotal.Equal(dec("200.00")), "subtotal %s", order.Subtotal)
	require.True(t, order.TaxAmount.Equal(dec("20.00")), "tax %s", order.TaxAmount)
	require.True(t, order.ShippingAmount.Equal(dec("15.00")))
	require.True(t, order.DiscountAmount.IsZero())
	require.True(t, order.Total.Equal(dec("235.00")), "total %s", order.Total)

	// Line snapshot carries denormalized name, SKU and resolved price.
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	require.Equal(t, p.ID, item.ProductID)
	require.Equal(t, p.Name, item.ProductName)
	require.Equal(t, p.SKU, item.ProductSKU)
	require.True(t, item.Price.Equal(dec("100.00")))
	require.Equal(t, 2, item.Quantity)
	require.True(t, item.Total.Equal(dec("200.00")))

	// Stock decremented, cart cleared.
	var fresh models.Product
	require.NoError(t, db.First(&fresh, p.ID).Error)
	require.Equal(t, 8, fresh.StockQuantity)

	items, err := cartControllers.CartItems(db, user.ID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestPlaceOrderSnapshotsSalePrice(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	p := seedProduct(t, db, "100.00", 10)
	require.NoError(t, db.Model(p).Update("sale_price", "79.99").Error)
	addLine(t, db, user.ID, p, 1)

	order, err := PlaceOrder(db, user.ID, placeOrderReq(""))
	require.NoError(t, err)
	require.True(t, order.Items[0].Price.Equal(dec("79.99")))
	require.True(t, order.Subtotal.Equal(dec("79.99")))
}

func TestPlaceOrderWithPercentageCoupon(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	p := seedProduct(t, db, "100.00", 10)
	addLine(t, db, user.ID, p, 2)
	coupon := seedCoupon(t, db, "SAVE10", nil)

	order, err := PlaceOrder(db, user.ID, placeOrderReq("save10")) // codes are case-insensitive
	require.NoError(t, err)

	require.True(t, order.DiscountAmount.Equal(dec("20.00")))
	require.True(t, order.TaxAmount.Equal(dec("18.00")), "tax computed on discounted subtotal, got %s", order.TaxAmount)
	require.True(t, order.Total.Equal(dec("213.00")), "total %s", order.Total)

	var fresh models.Coupon
	require.NoError(t, db.First(&fresh, coupon.ID).Error)
	require.Equal(t, 1, fresh.UsageCount)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)

	_, err := PlaceOrder(db, user.ID, placeOrderReq(""))
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderScopedCouponDiscountsMatchingLinesOnly(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	a := seedProduct(t, db, "50.00", 10)
	b := seedProduct(t, db, "150.00", 10)
	addLine(t, db, user.ID, a, 1)
	addLine(t, db, user.ID, b, 1)

	coupon := seedCoupon(t, db, "ONLYA", nil)
	require.NoError(t, db.Model(coupon).Association("Products").Append(a))

	order, err := PlaceOrder(db, user.ID, placeOrderReq("ONLYA"))
	require.NoError(t, err)

	// 10% of the matching 50.00 line, not of the 200.00 cart.
	require.True(t, order.DiscountAmount.Equal(dec("5.00")), "discount %s", order.DiscountAmount)
	require.True(t, order.Subtotal.Equal(dec("200.00")))
	require.True(t, order.TaxAmount.Equal(dec("19.50")))
	require.True(t, order.Total.Equal(dec("229.50")), "total %s", order.Total)
}

func TestPlaceOrderScopedCouponNotApplicableRollsBack(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	a := seedProduct(t, db, "50.00", 10)
	b := seedProduct(t, db, "150.00", 10)
	addLine(t, db, user.ID, b, 1)

	coupon := seedCoupon(t, db, "ONLYA", nil)
	require.NoError(t, db.Model(coupon).Association("Products").Append(a))

	_, err := PlaceOrder(db, user.ID, placeOrderReq("ONLYA"))
	require.ErrorIs(t, err, ErrCouponNotApplicable)

	// Nothing committed: no order, cart intact, usage untouched.
	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	require.Zero(t, orderCount)

	items, _ := cartControllers.CartItems(db, user.ID)
	require.Len(t, items, 1)

	var fresh models.Coupon
	require.NoError(t, db.First(&fresh, coupon.ID).Error)
	require.Zero(t, fresh.UsageCount)
}

func TestPlaceOrderStockConflictRollsBackEverything(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	plenty := seedProduct(t, db, "10.00", 100)
	scarce := seedProduct(t, db, "10.00", 5)
	addLine(t, db, user.ID, plenty, 2)
	addLine(t, db, user.ID, scarce, 2)
	coupon := seedCoupon(t, db, "SAVE10", nil)

	// Stock drops after the cart was validated — a concurrent checkout
	// took it.
	require.NoError(t, db.Model(scarce).Update("stock_quantity", 1).Error)

	_, err := PlaceOrder(db, user.ID, placeOrderReq("SAVE10"))
	require.Error(t, err)
	require.Equal(t, apperr.ECONFLICT, apperr.ErrorCode(err))
	require.Equal(t, "insufficient_stock", apperr.ErrorReason(err))

	// All-or-nothing: no order rows, no partial decrement of the first
	// product, coupon usage rolled back, cart intact.
	var orderCount, itemCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	db.Model(&models.OrderItem{}).Count(&itemCount)
	require.Zero(t, orderCount)
	require.Zero(t, itemCount)

	var freshPlenty, freshScarce models.Product
	require.NoError(t, db.First(&freshPlenty, plenty.ID).Error)
	require.NoError(t, db.First(&freshScarce, scarce.ID).Error)
	require.Equal(t, 100, freshPlenty.StockQuantity)
	require.Equal(t, 1, freshScarce.StockQuantity)

	var freshCoupon models.Coupon
	require.NoError(t, db.First(&freshCoupon, coupon.ID).Error)
	require.Zero(t, freshCoupon.UsageCount)

	items, _ := cartControllers.CartItems(db, user.ID)
	require.Len(t, items, 2)
}

func TestPlaceOrderLastUnitOnlyOneWinner(t *testing.T) {
	db := setupTestDB(t)
	first := seedUser(t, db)
	second := seedUser(t, db)
	p := seedProduct(t, db, "100.00", 1)

	addLine(t, db, first.ID, p, 1)
	// Second user's line is written directly: AddToCart would already
	// reject it once the winner drains the stock.
	require.NoError(t, db.Create(&models.CartItem{UserID: second.ID, ProductID: p.ID, Quantity: 1}).Error)

	_, err := PlaceOrder(db, first.ID, placeOrderReq(""))
	require.NoError(t, err)

	_, err = PlaceOrder(db, second.ID, placeOrderReq(""))
	require.Error(t, err)
	require.Equal(t, apperr.ECONFLICT, apperr.ErrorCode(err))

	var fresh models.Product
	require.NoError(t, db.First(&fresh, p.ID).Error)
	require.Zero(t, fresh.StockQuantity, "stock must never go negative")

	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	require.EqualValues(t, 1, orderCount)
}

func TestPlaceOrderUntrackedStockNeverDecrements(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	p := seedProduct(t, db, "25.00", 0)
	require.NoError(t, db.Model(p).Update("manage_stock", false).Error)
	addLine(t, db, user.ID, p, 3)

	_, err := PlaceOrder(db, user.ID, placeOrderReq(""))
	require.NoError(t, err)

	var fresh models.Product
	require.NoError(t, db.First(&fresh, p.ID).Error)
	require.Zero(t, fresh.StockQuantity)
}

func TestPlaceOrderGeneratesDistinctOrderNumbers(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	p := seedProduct(t, db, "10.00", 10)

	addLine(t, db, user.ID, p, 1)
	first, err := PlaceOrder(db, user.ID, placeOrderReq(""))
	require.NoError(t, err)

	addLine(t, db, user.ID, p, 1)
	second, err := PlaceOrder(db, user.ID, placeOrderReq(""))
	require.NoError(t, err)

	require.NotEqual(t, first.OrderNumber, second.OrderNumber)
}

func TestPlaceOrderShippingDefaultsToBilling(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	p := seedProduct(t, db, "10.00", 10)
	addLine(t, db, user.ID, p, 1)

	order, err := PlaceOrder(db, user.ID, placeOrderReq(""))
	require.NoError(t, err)
	require.Equal(t, order.BillingAddress, order.ShippingAddress)
}

func TestPreviewCouponDoesNotCommitAnything(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	p := seedProduct(t, db, "100.00", 10)
	addLine(t, db, user.ID, p, 2)
	coupon := seedCoupon(t, db, "SAVE10", nil)

	preview, err := PreviewCoupon(db, user.ID, "SAVE10")
	require.NoError(t, err)
	require.True(t, preview.DiscountAmount.Equal(dec("20.00")))
	require.True(t, preview.Quote.Total.Equal(dec("213.00")))

	var fresh models.Coupon
	require.NoError(t, db.First(&fresh, coupon.ID).Error)
	require.Zero(t, fresh.UsageCount, "preview must not consume a use")

	items, _ := cartControllers.CartItems(db, user.ID)
	require.Len(t, items, 1)
}

func TestPreviewCouponRejections(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	p := seedProduct(t, db, "100.00", 10)
	addLine(t, db, user.ID, p, 1)

	_, err := PreviewCoupon(db, user.ID, "NOPE")
	require.ErrorIs(t, err, models.ErrCouponInvalid)

	seedCoupon(t, db, "DEAD", func(c *models.Coupon) { c.IsActive = false })
	_, err = PreviewCoupon(db, user.ID, "DEAD")
	require.ErrorIs(t, err, models.ErrCouponInvalid)

	limit := 3
	seedCoupon(t, db, "USED", func(c *models.Coupon) {
		c.UsageLimit = &limit
		c.UsageCount = 3
	})
	_, err = PreviewCoupon(db, user.ID, "USED")
	require.ErrorIs(t, err, models.ErrCouponExhausted)
}

// Two users can both preview the last valid use of a coupon; only the first
// to commit gets it. There is deliberately no reservation between preview
// and commit.
func TestCouponExhaustionBetweenPreviewAndCommit(t *testing.T) {
	db := setupTestDB(t)
	first := seedUser(t, db)
	second := seedUser(t, db)
	p := seedProduct(t, db, "100.00", 10)
	addLine(t, db, first.ID, p, 1)
	addLine(t, db, second.ID, p, 1)

	limit := 1
	seedCoupon(t, db, "LAST", func(c *models.Coupon) { c.UsageLimit = &limit })

	_, err := PreviewCoupon(db, first.ID, "LAST")
	require.NoError(t, err)
	_, err = PreviewCoupon(db, second.ID, "LAST")
	require.NoError(t, err)

	_, err = PlaceOrder(db, first.ID, placeOrderReq("LAST"))
	require.NoError(t, err)

	_, err = PlaceOrder(db, second.ID, placeOrderReq("LAST"))
	require.Error(t, err)
	require.Equal(t, "coupon_exhausted", apperr.ErrorReason(err))

	items, _ := cartControllers.CartItems(db, second.ID)
	require.Len(t, items, 1, "loser keeps their cart and can retry without the coupon")
}

func TestCheckoutSummary(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)
	p := seedProduct(t, db, "100.00", 10)
	addLine(t, db, user.ID, p, 2)

	summary, err := CheckoutSummary(db, user.ID)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	require.True(t, summary.Quote.Subtotal.Equal(dec("200.00")))
	require.True(t, summary.Quote.Total.Equal(dec("235.00")))

	other := seedUser(t, db)
	_, err = CheckoutSummary(db, other.ID)
	require.ErrorIs(t, err, ErrEmptyCart)
}
