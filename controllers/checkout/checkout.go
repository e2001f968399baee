package checkoutControllers

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopstack-dev/storefront-api/apperr"
	cartControllers "github.com/shopstack-dev/storefront-api/controllers/cart"
	"github.com/shopstack-dev/storefront-api/models"
	"github.com/shopstack-dev/storefront-api/pricing"
)

const defaultCurrency = "IDR"

var (
	ErrEmptyCart           = &apperr.Error{Code: apperr.EREJECTED, Reason: "empty_cart", Message: "Your cart is empty"}
	ErrCouponNotApplicable = &apperr.Error{Code: apperr.EREJECTED, Reason: "coupon_not_applicable", Message: "This coupon is not applicable to any items in your cart"}
)

// Commit-time failures are conflicts: the caller should re-fetch cart and
// stock state before retrying the whole checkout.
func stockConflict(productName string) error {
	return &apperr.Error{Code: apperr.ECONFLICT, Reason: "insufficient_stock", Message: "Insufficient stock for " + productName}
}

var errCouponExhaustedConflict = &apperr.Error{Code: apperr.ECONFLICT, Reason: "coupon_exhausted", Message: "This coupon has reached its usage limit"}

// Summary is what the checkout page renders: the live cart lines and the
// money breakdown without any coupon applied.
type Summary struct {
	Items []models.CartItem `json:"items"`
	Quote pricing.Quote     `json:"quote"`
}

// CouponPreview is the non-committing evaluation of a coupon against the
// current cart. Nothing is reserved: the coupon can still flip to exhausted
// between preview and commit, in which case the commit reports a conflict.
type CouponPreview struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Quote          pricing.Quote   `json:"quote"`
}

type PlaceOrderRequest struct {
	BillingAddress  models.Address  `json:"billing_address" binding:"required"`
	ShippingAddress *models.Address `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method" binding:"required"`
	CouponCode      string          `json:"coupon_code"`
	Notes           string          `json:"notes"`
}

// CheckoutSummary prices the user's current cart.
func CheckoutSummary(db *gorm.DB, userID uint) (*Summary, error) {
	items, err := cartControllers.CartItems(db, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	return &Summary{
		Items: items,
		Quote: pricing.NewQuote(pricing.Subtotal(items), decimal.Zero),
	}, nil
}

// PreviewCoupon re-resolves and re-validates a coupon against the live cart
// and returns the totals the order would be committed with.
func PreviewCoupon(db *gorm.DB, userID uint, code string) (*CouponPreview, error) {
	items, err := cartControllers.CartItems(db, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	coupon, err := findCoupon(db, code)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := coupon.Validate(now); err != nil {
		return nil, err
	}
	base, err := couponBase(coupon, items)
	if err != nil {
		return nil, err
	}

	quote := pricing.NewQuote(pricing.Subtotal(items), coupon.CalculateDiscount(base, now))
	return &CouponPreview{
		Code:           coupon.Code,
		DiscountAmount: quote.DiscountAmount,
		Quote:          quote,
	}, nil
}

// PlaceOrder turns the user's cart into a persisted order. Everything runs
// in one transaction: the subtotal is recomputed from the live cart (a total
// cached at preview time is never trusted), the coupon is re-validated and
// its usage counted, the order and its line snapshots are written, stock is
// decremented per line, and the cart is cleared. Any failure rolls the whole
// pipeline back and leaves the cart intact.
func PlaceOrder(db *gorm.DB, userID uint, req PlaceOrderRequest) (*models.Order, error) {
	var order models.Order

	err := db.Transaction(func(tx *gorm.DB) error {
		items, err := cartControllers.CartItems(tx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		now := time.Now()
		subtotal := pricing.Subtotal(items)
		discount := decimal.Zero

		if req.CouponCode != "" {
			coupon, err := findCoupon(tx, req.CouponCode)
			if err != nil {
				return err
			}
			if err := coupon.Validate(now); err != nil {
				return err
			}
			base, err := couponBase(coupon, items)
			if err != nil {
				return err
			}
			discount = coupon.CalculateDiscount(base, now)

			// Guarded increment: a racing checkout taking the last
			// permitted use makes this touch zero rows, which aborts
			// the transaction.
			res := tx.Model(&models.Coupon{}).
				Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", coupon.ID).
				UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errCouponExhaustedConflict
			}
		}

		quote := pricing.NewQuote(subtotal, discount)

		shippingAddress := req.BillingAddress
		if req.ShippingAddress != nil {
			shippingAddress = *req.ShippingAddress
		}

		orderItems := make([]models.OrderItem, 0, len(items))
		for i := range items {
			product := &items[i].Product
			orderItems = append(orderItems, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				ProductSKU:  product.SKU,
				Price:       product.CurrentPrice().Round(2),
				Quantity:    items[i].Quantity,
				Total:       pricing.LineTotal(product, items[i].Quantity).Round(2),
			})
		}

		order = models.Order{
			OrderNumber:     generateOrderNumber(now),
			UserID:          userID,
			Items:           orderItems,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			PaymentMethod:   req.PaymentMethod,
			Subtotal:        quote.Subtotal,
			TaxAmount:       quote.TaxAmount,
			ShippingAmount:  quote.ShippingAmount,
			DiscountAmount:  quote.DiscountAmount,
			Total:           quote.Total,
			Currency:        defaultCurrency,
			BillingAddress:  req.BillingAddress,
			ShippingAddress: shippingAddress,
			Notes:           req.Notes,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// The decrement is the commit-time stock guard: the floor check in
		// the WHERE clause means two checkouts racing for the last unit
		// cannot both succeed.
		for i := range items {
			product := &items[i].Product
			if !product.ManageStock {
				continue
			}
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", product.ID, items[i].Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", items[i].Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return stockConflict(product.Name)
			}
		}

		return cartControllers.ClearCart(tx, userID)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// findCoupon resolves a code (case-insensitive, stored uppercase) with its
// linked products loaded. Unknown codes report the generic invalid-coupon
// rejection.
func findCoupon(db *gorm.DB, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := db.Preload("Products").
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrCouponInvalid
		}
		return nil, err
	}
	return &coupon, nil
}

// couponBase returns the portion of the cart's subtotal the coupon may
// discount. A coupon linked to specific products only sees matching lines;
// if none match, the coupon is rejected as not applicable rather than
// silently granting zero. A coupon with no linked products sees the whole
// cart.
func couponBase(coupon *models.Coupon, items []models.CartItem) (decimal.Decimal, error) {
	if len(coupon.Products) == 0 {
		return pricing.Subtotal(items), nil
	}

	linked := make(map[uint]struct{}, len(coupon.Products))
	for i := range coupon.Products {
		linked[coupon.Products[i].ID] = struct{}{}
	}

	base := decimal.Zero
	matched := false
	for i := range items {
		if _, ok := linked[items[i].ProductID]; !ok {
			continue
		}
		matched = true
		base = base.Add(pricing.LineTotal(&items[i].Product, items[i].Quantity))
	}
	if !matched {
		return decimal.Zero, ErrCouponNotApplicable
	}
	return base, nil
}

// generateOrderNumber returns a human-shareable reference such as
// ORD-20240831-1C9A4F2B. The unique index on orders.order_number backstops
// the vanishingly unlikely collision, and numbers from rolled-back attempts
// are simply discarded, never reused.
func generateOrderNumber(now time.Time) string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "ORD-" + now.UTC().Format("20060102") + "-" + entropy
}
