package adminController

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopstack-dev/storefront-api/models"
)

const lowStockThreshold = 5

type topProduct struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	TotalSold   int64  `json:"total_sold"`
}

type monthlySales struct {
	Month       time.Time       `json:"month"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalOrders int64           `json:"total_orders"`
}

// Dashboard returns the storefront's aggregate statistics: entity counts,
// paid revenue, recent orders, best sellers and a twelve month sales series.
func Dashboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			totalProducts   int64
			totalOrders     int64
			totalCustomers  int64
			totalCategories int64
			totalBrands     int64
			pendingOrders   int64
			lowStock        int64
		)
		db.Model(&models.Product{}).Count(&totalProducts)
		db.Model(&models.Order{}).Count(&totalOrders)
		db.Model(&models.User{}).Count(&totalCustomers)
		db.Model(&models.Category{}).Count(&totalCategories)
		db.Model(&models.Brand{}).Count(&totalBrands)
		db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).Count(&pendingOrders)
		db.Model(&models.Product{}).
			Where("manage_stock = ? AND stock_quantity <= ?", true, lowStockThreshold).
			Count(&lowStock)

		var totalRevenue decimal.Decimal
		if err := db.Model(&models.Order{}).
			Where("payment_status = ?", models.PaymentStatusPaid).
			Select("COALESCE(SUM(total), 0)").
			Scan(&totalRevenue).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
			return
		}

		var recentOrders []models.Order
		if err := db.
			Preload("User").
			Preload("Items").
			Order("created_at DESC").
			Limit(5).
			Find(&recentOrders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent orders"})
			return
		}

		var topProducts []topProduct
		if err := db.Model(&models.OrderItem{}).
			Select("order_items.product_id, order_items.product_name, SUM(order_items.quantity) AS total_sold").
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("orders.payment_status = ?", models.PaymentStatusPaid).
			Group("order_items.product_id, order_items.product_name").
			Order("total_sold DESC").
			Limit(5).
			Scan(&topProducts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch top products"})
			return
		}

		var sales []monthlySales
		if err := db.Model(&models.Order{}).
			Select("date_trunc('month', created_at) AS month, SUM(total) AS total_sales, COUNT(*) AS total_orders").
			Where("payment_status = ? AND created_at >= ?", models.PaymentStatusPaid, time.Now().AddDate(-1, 0, 0)).
			Group("month").
			Order("month DESC").
			Limit(12).
			Scan(&sales).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch monthly sales"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"stats": gin.H{
				"total_products":     totalProducts,
				"total_orders":       totalOrders,
				"total_customers":    totalCustomers,
				"total_categories":   totalCategories,
				"total_brands":       totalBrands,
				"total_revenue":      totalRevenue,
				"pending_orders":     pendingOrders,
				"low_stock_products": lowStock,
			},
			"recent_orders": recentOrders,
			"top_products":  topProducts,
			"monthly_sales": sales,
		})
	}
}
