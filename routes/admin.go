package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	adminController "github.com/shopstack-dev/storefront-api/controllers/admin"
	orderControllers "github.com/shopstack-dev/storefront-api/controllers/order"
	"github.com/shopstack-dev/storefront-api/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints, protected by the
// X-API-KEY middleware.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey)
	{
		adminGroup.GET("/dashboard", adminController.Dashboard(db))

		orders := adminGroup.Group("/orders")
		{
			orders.GET("/", orderControllers.GetAllOrdersHandler(db))
			orders.GET("/export", adminController.ExportOrdersToExcel(db))
			orders.GET("/ws", orderControllers.OrderFeedHandler)
			orders.PUT("/:order_id/status", orderControllers.UpdateOrderStatusHandler(db))
			orders.PUT("/:order_id/payment-status", orderControllers.UpdatePaymentStatusHandler(db))
		}
	}
}
