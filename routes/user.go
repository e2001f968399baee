package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/shopstack-dev/storefront-api/controllers/cart"
	checkoutControllers "github.com/shopstack-dev/storefront-api/controllers/checkout"
	orderControllers "github.com/shopstack-dev/storefront-api/controllers/order"
	"github.com/shopstack-dev/storefront-api/middleware"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("/", cartControllers.GetCartHandler(db))                   // GET /user/cart
			cartGroup.POST("/", cartControllers.AddToCartHandler(db))                // POST /user/cart
			cartGroup.PATCH("/:item_id", cartControllers.UpdateCartItemHandler(db))  // PATCH /user/cart/:item_id
			cartGroup.DELETE("/:item_id", cartControllers.RemoveCartItemHandler(db)) // DELETE /user/cart/:item_id
		}

		// ──────────────── Checkout ────────────────
		checkoutGroup := userGroup.Group("/checkout")
		{
			checkoutGroup.GET("/", checkoutControllers.CheckoutSummaryHandler(db))     // GET /user/checkout
			checkoutGroup.GET("/coupon", checkoutControllers.PreviewCouponHandler(db)) // GET /user/checkout/coupon?code=
			checkoutGroup.POST("/", checkoutControllers.PlaceOrderHandler(db))         // POST /user/checkout
		}

		// ──────────────── Orders ────────────────
		userGroup.GET("/orders", orderControllers.GetUserOrdersHandler(db))      // GET /user/orders
		userGroup.GET("/orders/:order_id", orderControllers.GetOrderHandler(db)) // GET /user/orders/:order_id
	}
}
