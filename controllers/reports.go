package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ahmed-mouatassim/saleflow/config"
	"github.com/ahmed-mouatassim/saleflow/models"
	"github.com/ahmed-mouatassim/saleflow/utils"
)

func GetDashboardReport(c *gin.Context) {
	var productCount, lowStock int64
	if err := config.DB.Model(&models.Product{}).
		Where("is_active = ?", true).Count(&productCount).Error; err != nil {
		utils.ServerError(c, "reports", "GetDashboardReport", err)
		return
	}
	if err := config.DB.Model(&models.Product{}).
		Where("is_active = ? AND quantity <= min_stock", true).
		Count(&lowStock).Error; err != nil {
		utils.ServerError(c, "reports", "GetDashboardReport", err)
		return
	}

	var todaySales struct {
		Orders int64           `json:"orders"`
		Total  decimal.Decimal `json:"total"`
	}
	if err := config.DB.Model(&models.SalesOrder{}).
		Where("DATE(created_at) = CURDATE() AND status != ?", models.SalesCancelled).
		Select("COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS total").
		Scan(&todaySales).Error; err != nil {
		utils.ServerError(c, "reports", "GetDashboardReport", err)
		return
	}

	var clientCount, debtors int64
	if err := config.DB.Model(&models.Client{}).
		Where("is_active = ?", true).Count(&clientCount).Error; err != nil {
		utils.ServerError(c, "reports", "GetDashboardReport", err)
		return
	}
	if err := config.DB.Model(&models.Client{}).
		Where("is_active = ? AND total_purchases > total_paid", true).
		Count(&debtors).Error; err != nil {
		utils.ServerError(c, "reports", "GetDashboardReport", err)
		return
	}

	var pendingSupply int64
	if err := config.DB.Model(&models.SupplyOrder{}).
		Where("status IN ?", []models.SupplyOrderStatus{
			models.SupplyDraft, models.SupplyApproved, models.SupplyPartiallyReceived,
		}).Count(&pendingSupply).Error; err != nil {
		utils.ServerError(c, "reports", "GetDashboardReport", err)
		return
	}

	utils.Success(c, "Dashboard retrieved", gin.H{
		"products": gin.H{
			"total":     productCount,
			"low_stock": lowStock,
		},
		"sales_today": todaySales,
		"clients": gin.H{
			"total":   clientCount,
			"debtors": debtors,
		},
		"pending_supply_orders": pendingSupply,
	})
}

type categoryValueRow struct {
	Category string          `json:"category"`
	Products int64           `json:"products"`
	Units    int64           `json:"units"`
	Value    decimal.Decimal `json:"value"`
}

func GetInventoryReport(c *gin.Context) {
	var totals struct {
		Products      int64           `json:"products"`
		Units         int64           `json:"units"`
		PurchaseValue decimal.Decimal `json:"purchase_value"`
		SellingValue  decimal.Decimal `json:"selling_value"`
	}
	if err := config.DB.Model(&models.Product{}).Where("is_active = ?", true).
		Select("COUNT(*) AS products, COALESCE(SUM(quantity), 0) AS units, COALESCE(SUM(quantity * purchase_price), 0) AS purchase_value, COALESCE(SUM(quantity * selling_price), 0) AS selling_value").
		Scan(&totals).Error; err != nil {
		utils.ServerError(c, "reports", "GetInventoryReport", err)
		return
	}

	var byCategory []categoryValueRow
	if err := config.DB.Model(&models.Product{}).
		Where("is_active = ?", true).
		Select("COALESCE(category, 'uncategorized') AS category, COUNT(*) AS products, COALESCE(SUM(quantity), 0) AS units, COALESCE(SUM(quantity * purchase_price), 0) AS value").
		Group("category").Order("value DESC").Scan(&byCategory).Error; err != nil {
		utils.ServerError(c, "reports", "GetInventoryReport", err)
		return
	}

	var lowStock []models.Product
	if err := config.DB.Where("is_active = ? AND quantity <= min_stock", true).
		Order("quantity ASC").Find(&lowStock).Error; err != nil {
		utils.ServerError(c, "reports", "GetInventoryReport", err)
		return
	}

	utils.Success(c, "Inventory report retrieved", gin.H{
		"totals":      totals,
		"by_category": byCategory,
		"low_stock":   lowStock,
	})
}

func GetFinancialReport(c *gin.Context) {
	const layout = "2006-01-02"
	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		to = t.AddDate(0, 0, 1)
	}

	var sales struct {
		Orders int64           `json:"orders"`
		Total  decimal.Decimal `json:"total"`
		Paid   decimal.Decimal `json:"paid"`
	}
	if err := config.DB.Model(&models.SalesOrder{}).
		Where("created_at >= ? AND created_at < ? AND status != ?", from, to, models.SalesCancelled).
		Select("COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS total, COALESCE(SUM(paid_amount), 0) AS paid").
		Scan(&sales).Error; err != nil {
		utils.ServerError(c, "reports", "GetFinancialReport", err)
		return
	}

	var payments struct {
		Total decimal.Decimal `json:"total"`
	}
	if err := config.DB.Model(&models.ClientTransaction{}).
		Where("created_at >= ? AND created_at < ? AND type = ?", from, to, models.ClientTxPayment).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&payments).Error; err != nil {
		utils.ServerError(c, "reports", "GetFinancialReport", err)
		return
	}

	var debt struct {
		Outstanding decimal.Decimal `json:"outstanding"`
	}
	if err := config.DB.Model(&models.Client{}).
		Where("is_active = ? AND total_purchases > total_paid", true).
		Select("COALESCE(SUM(total_purchases - total_paid), 0) AS outstanding").
		Scan(&debt).Error; err != nil {
		utils.ServerError(c, "reports", "GetFinancialReport", err)
		return
	}

	var owedToSuppliers struct {
		Total decimal.Decimal `json:"total"`
	}
	if err := config.DB.Model(&models.Supplier{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(current_balance), 0) AS total").
		Scan(&owedToSuppliers).Error; err != nil {
		utils.ServerError(c, "reports", "GetFinancialReport", err)
		return
	}

	utils.Success(c, "Financial report retrieved", gin.H{
		"from":              from.Format(layout),
		"to":                to.Format(layout),
		"sales":             sales,
		"payments_received": payments.Total,
		"outstanding_debt":  debt.Outstanding,
		"owed_to_suppliers": owedToSuppliers.Total,
	})
}

func GetDailySummaryReport(c *gin.Context) {
	day := time.Now().Format("2006-01-02")
	if s := c.Query("date"); s != "" {
		if _, err := time.Parse("2006-01-02", s); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = s
	}

	var orders []models.SalesOrder
	if err := config.DB.Where("DATE(created_at) = ?", day).
		Order("created_at ASC").Find(&orders).Error; err != nil {
		utils.ServerError(c, "reports", "GetDailySummaryReport", err)
		return
	}

	var movements []models.StockTransaction
	if err := config.DB.Where("DATE(created_at) = ?", day).
		Order("created_at ASC").Find(&movements).Error; err != nil {
		utils.ServerError(c, "reports", "GetDailySummaryReport", err)
		return
	}

	total := decimal.Zero
	for _, o := range orders {
		if o.Status != models.SalesCancelled {
			total = total.Add(o.TotalAmount)
		}
	}

	utils.Success(c, "Daily summary retrieved", gin.H{
		"date":            day,
		"sales_orders":    orders,
		"sales_total":     total,
		"stock_movements": movements,
	})
}
