package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ahmed-mouatassim/saleflow/config"
	"github.com/ahmed-mouatassim/saleflow/models"
	"github.com/ahmed-mouatassim/saleflow/utils"
)

type StockTransactionInput struct {
	ProductID        uint                        `json:"product_id" binding:"required"`
	Type             models.StockTransactionType `json:"type" binding:"required,stocktxtype"`
	Quantity         int                         `json:"quantity" binding:"required,gt=0"`
	UnitPrice        *decimal.Decimal            `json:"unit_price"`
	WarehouseID      *uint                       `json:"warehouse_id"`
	ToWarehouseID    *uint                       `json:"to_warehouse_id"`
	ReferenceID      *uint                       `json:"reference_id"`
	Reason           *string                     `json:"reason"`
	Notes            *string                     `json:"notes"`
	RequiresApproval bool                        `json:"requires_approval"`
}

type StockTransactionUpdateInput struct {
	Reason *string `json:"reason"`
	Notes  *string `json:"notes"`
}

func GetStockTransactions(c *gin.Context) {
	limit := getInt(c, "limit", 100)

	var entries []models.StockTransaction
	if err := config.DB.Order("created_at DESC").
		Limit(limit).Find(&entries).Error; err != nil {
		utils.ServerError(c, "transactions", "GetStockTransactions", err)
		return
	}
	utils.Success(c, "Transactions retrieved", entries)
}

func GetStockTransaction(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var entry models.StockTransaction
	if err := config.DB.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Transaction not found")
			return
		}
		utils.ServerError(c, "transactions", "GetStockTransaction", err)
		return
	}
	utils.Success(c, "Transaction retrieved", entry)
}

func CreateStockTransaction(c *gin.Context) {
	var in StockTransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sign, ok := models.StockDelta(in.Type)
	if !ok {
		utils.Error(c, http.StatusBadRequest, "Unknown transaction type")
		return
	}

	unitPrice := decimal.Zero
	if in.UnitPrice != nil {
		unitPrice = *in.UnitPrice
	}

	var entry *models.StockTransaction
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applyStockDelta(tx, in.ProductID, sign*in.Quantity, stockLogOptions{
			Type:             in.Type,
			UnitPrice:        unitPrice,
			WarehouseID:      in.WarehouseID,
			ToWarehouseID:    in.ToWarehouseID,
			ReferenceID:      in.ReferenceID,
			Reason:           in.Reason,
			Notes:            in.Notes,
			PerformedBy:      performedBy(c),
			RequiresApproval: in.RequiresApproval,
		})
		return txErr
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Product not found")
			return
		}
		if errors.Is(err, models.ErrInsufficientStock) {
			utils.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		utils.ServerError(c, "transactions", "CreateStockTransaction", err)
		return
	}
	utils.Success(c, "Transaction created", entry)
}

func ApproveStockTransaction(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	approver := performedBy(c)
	res := config.DB.Model(&models.StockTransaction{}).
		Where("id = ? AND is_approved = ?", id, false).
		Updates(map[string]interface{}{"is_approved": true, "approved_by": approver})
	if res.Error != nil {
		utils.ServerError(c, "transactions", "ApproveStockTransaction", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, http.StatusNotFound, "Transaction not found or already approved")
		return
	}

	var entry models.StockTransaction
	if err := config.DB.First(&entry, id).Error; err != nil {
		utils.ServerError(c, "transactions", "ApproveStockTransaction", err)
		return
	}
	utils.Success(c, "Transaction approved", entry)
}

// UpdateStockTransaction only touches annotations. Quantities and types on a
// ledger row are immutable after insert.
func UpdateStockTransaction(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var in StockTransactionUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if in.Reason != nil {
		updates["reason"] = *in.Reason
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) == 0 {
		utils.Error(c, http.StatusBadRequest, "Nothing to update")
		return
	}

	res := config.DB.Model(&models.StockTransaction{}).
		Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		utils.ServerError(c, "transactions", "UpdateStockTransaction", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, http.StatusNotFound, "Transaction not found")
		return
	}

	var entry models.StockTransaction
	if err := config.DB.First(&entry, id).Error; err != nil {
		utils.ServerError(c, "transactions", "UpdateStockTransaction", err)
		return
	}
	utils.Success(c, "Transaction updated", entry)
}

// DeleteStockTransaction removes a row only when it was created today and is
// still unapproved. The quantity effect is not reversed; corrections go
// through a compensating transaction.
func DeleteStockTransaction(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	res := config.DB.
		Where("id = ? AND DATE(created_at) = CURDATE() AND is_approved = ?", id, false).
		Delete(&models.StockTransaction{})
	if res.Error != nil {
		utils.ServerError(c, "transactions", "DeleteStockTransaction", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, http.StatusNotFound, "Transaction not found, already approved, or not from today")
		return
	}
	utils.Success(c, "Transaction deleted", nil)
}

func GetTransactionsByProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid product id")
		return
	}
	limit := getInt(c, "limit", 100)

	var entries []models.StockTransaction
	if err := config.DB.Where("product_id = ?", id).
		Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		utils.ServerError(c, "transactions", "GetTransactionsByProduct", err)
		return
	}
	utils.Success(c, "Transactions retrieved", entries)
}

func GetTransactionsByType(c *gin.Context) {
	txType := models.StockTransactionType(c.Param("type"))
	if _, ok := models.StockDelta(txType); !ok {
		utils.Error(c, http.StatusBadRequest, "Unknown transaction type")
		return
	}
	limit := getInt(c, "limit", 100)

	var entries []models.StockTransaction
	if err := config.DB.Where("type = ?", txType).
		Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		utils.ServerError(c, "transactions", "GetTransactionsByType", err)
		return
	}
	utils.Success(c, "Transactions retrieved", entries)
}

func GetTransactionsByDate(c *gin.Context) {
	const layout = "2006-01-02"
	now := time.Now()

	from := now.AddDate(0, 0, -30)
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

	var entries []models.StockTransaction
	if err := config.DB.Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at DESC").Find(&entries).Error; err != nil {
		utils.ServerError(c, "transactions", "GetTransactionsByDate", err)
		return
	}
	utils.Success(c, "Transactions retrieved", entries)
}

func GetPendingApprovalTransactions(c *gin.Context) {
	var entries []models.StockTransaction
	if err := config.DB.Where("requires_approval = ? AND is_approved = ?", true, false).
		Order("created_at ASC").Find(&entries).Error; err != nil {
		utils.ServerError(c, "transactions", "GetPendingApprovalTransactions", err)
		return
	}
	utils.Success(c, "Pending transactions retrieved", entries)
}

type transactionTypeCount struct {
	Type  models.StockTransactionType `json:"type"`
	Count int64                       `json:"count"`
	Total int64                       `json:"total_quantity"`
}

func GetTransactionStats(c *gin.Context) {
	var today, month []transactionTypeCount

	if err := config.DB.Model(&models.StockTransaction{}).
		Select("type, COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS total").
		Where("DATE(created_at) = CURDATE()").
		Group("type").Scan(&today).Error; err != nil {
		utils.ServerError(c, "transactions", "GetTransactionStats", err)
		return
	}
	if err := config.DB.Model(&models.StockTransaction{}).
		Select("type, COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS total").
		Where("YEAR(created_at) = YEAR(CURDATE()) AND MONTH(created_at) = MONTH(CURDATE())").
		Group("type").Scan(&month).Error; err != nil {
		utils.ServerError(c, "transactions", "GetTransactionStats", err)
		return
	}

	var recent []models.StockTransaction
	if err := config.DB.Order("created_at DESC").Limit(10).Find(&recent).Error; err != nil {
		utils.ServerError(c, "transactions", "GetTransactionStats", err)
		return
	}

	utils.Success(c, "Transaction stats retrieved", gin.H{
		"today":      today,
		"this_month": month,
		"recent":     recent,
	})
}
