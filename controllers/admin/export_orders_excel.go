package adminController

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/shopstack-dev/storefront-api/models"
)

// ExportOrdersToExcel streams every order as an xlsx download, one row per
// order with the money breakdown and one sheet of line items.
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("User").Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		orderSheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}
		itemSheet, err := file.AddSheet("Order Items")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"OrderNumber", "Customer", "Status", "PaymentStatus", "PaymentMethod",
			"Subtotal", "Tax", "Shipping", "Discount", "Total", "Currency", "CreatedAt",
		}
		headerRow := orderSheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		itemHeaders := []string{"OrderNumber", "ProductSKU", "ProductName", "Price", "Quantity", "LineTotal"}
		itemHeaderRow := itemSheet.AddRow()
		for _, h := range itemHeaders {
			itemHeaderRow.AddCell().SetValue(h)
		}

		for _, o := range orders {
			row := orderSheet.AddRow()
			row.AddCell().SetValue(o.OrderNumber)
			row.AddCell().SetValue(o.User.Email)
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(string(o.PaymentStatus))
			row.AddCell().SetValue(o.PaymentMethod)
			row.AddCell().SetValue(o.Subtotal.String())
			row.AddCell().SetValue(o.TaxAmount.String())
			row.AddCell().SetValue(o.ShippingAmount.String())
			row.AddCell().SetValue(o.DiscountAmount.String())
			row.AddCell().SetValue(o.Total.String())
			row.AddCell().SetValue(o.Currency)
			row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))

			for _, item := range o.Items {
				itemRow := itemSheet.AddRow()
				itemRow.AddCell().SetValue(o.OrderNumber)
				itemRow.AddCell().SetValue(item.ProductSKU)
				itemRow.AddCell().SetValue(item.ProductName)
				itemRow.AddCell().SetValue(item.Price.String())
				itemRow.AddCell().SetValue(item.Quantity)
				itemRow.AddCell().SetValue(item.Total.String())
			}
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		}
	}
}
