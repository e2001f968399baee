package cartControllers

import (
	"errors"

	"gorm.io/gorm"

	"github.com/shopstack-dev/storefront-api/apperr"
	"github.com/shopstack-dev/storefront-api/models"
)

// Each cart line holds between 1 and 10 units, regardless of how much stock
// the product has. Larger orders go through sales.
const (
	MinQuantityPerLine = 1
	MaxQuantityPerLine = 10
)

var (
	ErrQuantityRange = &apperr.Error{Code: apperr.EINVALID, Reason: "quantity_out_of_range", Message: "Quantity must be between 1 and 10"}

	ErrProductNotFound    = &apperr.Error{Code: apperr.ENOTFOUND, Reason: "product_not_found", Message: "Product does not exist"}
	ErrCartItemNotFound   = &apperr.Error{Code: apperr.ENOTFOUND, Reason: "cart_item_not_found", Message: "Cart item not found"}
	ErrNotCartOwner       = &apperr.Error{Code: apperr.EFORBIDDEN, Reason: "not_cart_owner", Message: "Cart item belongs to another user"}
	ErrProductUnavailable = &apperr.Error{Code: apperr.EREJECTED, Reason: "product_unavailable", Message: "This product is not available"}
	ErrInsufficientStock  = &apperr.Error{Code: apperr.EREJECTED, Reason: "insufficient_stock", Message: "Not enough stock available"}
)

func validQuantity(quantity int) bool {
	return quantity >= MinQuantityPerLine && quantity <= MaxQuantityPerLine
}

// CartItems returns the user's cart lines with their products loaded.
func CartItems(db *gorm.DB, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := db.Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart puts quantity units of a product into the user's cart. If the
// user already has a line for the product, the quantities merge and the
// stock guard re-runs against the summed total. Nothing is written when the
// product is inactive, out of stock, or the guard rejects.
func AddToCart(db *gorm.DB, userID, productID uint, quantity int) (*models.CartItem, error) {
	if !validQuantity(quantity) {
		return nil, ErrQuantityRange
	}

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive || !product.IsInStock() {
		return nil, ErrProductUnavailable
	}

	var item models.CartItem
	// Read-merge-write inside one transaction so two quick taps on "add"
	// serialize instead of losing an update.
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
		switch {
		case err == nil:
			merged := item.Quantity + quantity
			if merged > MaxQuantityPerLine {
				return ErrQuantityRange
			}
			if !product.CanFulfill(merged) {
				return ErrInsufficientStock
			}
			item.Quantity = merged
			return tx.Save(&item).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !product.CanFulfill(quantity) {
				return ErrInsufficientStock
			}
			item = models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
			return tx.Create(&item).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	item.Product = product
	return &item, nil
}

// UpdateCartItem sets a cart line to an absolute quantity. The line must
// belong to the requesting user and the new quantity must pass the stock
// guard.
func UpdateCartItem(db *gorm.DB, userID, itemID uint, quantity int) (*models.CartItem, error) {
	if !validQuantity(quantity) {
		return nil, ErrQuantityRange
	}

	var item models.CartItem
	if err := db.Preload("Product").First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrNotCartOwner
	}
	if !item.Product.CanFulfill(quantity) {
		return nil, ErrInsufficientStock
	}

	item.Quantity = quantity
	if err := db.Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveCartItem deletes one cart line after an ownership check. Removing an
// already-removed line reports not-found and touches nothing else.
func RemoveCartItem(db *gorm.DB, userID, itemID uint) error {
	var item models.CartItem
	if err := db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}
	if item.UserID != userID {
		return ErrNotCartOwner
	}
	return db.Delete(&item).Error
}

// ClearCart deletes every cart line for the user. Only the order commit
// pipeline calls this, inside its transaction.
func ClearCart(tx *gorm.DB, userID uint) error {
	return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
