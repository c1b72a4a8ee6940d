package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmed-mouatassim/saleflow/config"
	"github.com/ahmed-mouatassim/saleflow/models"
	"github.com/ahmed-mouatassim/saleflow/utils"
)

type SupplyOrderItemInput struct {
	ProductID uint             `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type SupplyOrderCreateInput struct {
	SupplierID       *uint                  `json:"supplier_id"`
	SupplierName     *string                `json:"supplier_name"`
	ExpectedDelivery *string                `json:"expected_delivery"`
	Notes            *string                `json:"notes"`
	Items            []SupplyOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

type SupplyOrderUpdateInput struct {
	SupplierName     *string `json:"supplier_name"`
	ExpectedDelivery *string `json:"expected_delivery"`
	Notes            *string `json:"notes"`
}

type ReceiveItemInput struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

func GetSupplyOrders(c *gin.Context) {
	limit := getInt(c, "limit", 100)

	var orders []models.SupplyOrder
	q := config.DB.Preload("Items").Order("created_at DESC").Limit(limit)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&orders).Error; err != nil {
		utils.ServerError(c, "supply", "GetSupplyOrders", err)
		return
	}
	utils.Success(c, "Supply orders retrieved", orders)
}

func GetSupplyOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	var order models.SupplyOrder
	if err := config.DB.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Supply order not found")
			return
		}
		utils.ServerError(c, "supply", "GetSupplyOrder", err)
		return
	}
	utils.Success(c, "Supply order retrieved", order)
}

func CreateSupplyOrder(c *gin.Context) {
	var in SupplyOrderCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var expected *time.Time
	if in.ExpectedDelivery != nil {
		t, err := time.Parse("2006-01-02", *in.ExpectedDelivery)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid expected_delivery, expected YYYY-MM-DD")
			return
		}
		expected = &t
	}

	creator := performedBy(c)
	var order models.SupplyOrder
	var err error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		err = config.DB.Transaction(func(tx *gorm.DB) error {
			items := make([]models.SupplyOrderItem, 0, len(in.Items))
			total := decimal.Zero
			for _, it := range in.Items {
				var product models.Product
				if err := tx.First(&product, it.ProductID).Error; err != nil {
					return err
				}
				unitPrice := product.PurchasePrice
				if it.UnitPrice != nil {
					unitPrice = *it.UnitPrice
				}
				lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
				items = append(items, models.SupplyOrderItem{
					ProductID:        product.ID,
					ProductReference: product.Reference,
					ProductName:      product.Name,
					QuantityOrdered:  it.Quantity,
					UnitPrice:        unitPrice,
					LineTotal:        lineTotal,
				})
				total = total.Add(lineTotal)
			}

			number, numErr := utils.NextOrderNumber(tx, "supply_orders", "PO", time.Now())
			if numErr != nil {
				return numErr
			}

			order = models.SupplyOrder{
				OrderNumber:      number,
				SupplierID:       in.SupplierID,
				SupplierName:     in.SupplierName,
				Status:           models.SupplyDraft,
				TotalAmount:      total,
				ExpectedDelivery: expected,
				Notes:            in.Notes,
				CreatedBy:        &creator,
				Items:            items,
			}
			return tx.Create(&order).Error
		})
		if err == nil || !utils.IsDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusBadRequest, "One or more products do not exist")
			return
		}
		utils.ServerError(c, "supply", "CreateSupplyOrder", err)
		return
	}

	var created models.SupplyOrder
	if err := config.DB.Preload("Items").First(&created, order.ID).Error; err != nil {
		utils.ServerError(c, "supply", "CreateSupplyOrder", err)
		return
	}
	utils.Success(c, "Supply order created", created)
}

func ApproveSupplyOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	res := config.DB.Model(&models.SupplyOrder{}).
		Where("id = ? AND status = ?", id, models.SupplyDraft).
		Update("status", models.SupplyApproved)
	if res.Error != nil {
		utils.ServerError(c, "supply", "ApproveSupplyOrder", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, http.StatusBadRequest, "Order not found or not in draft status")
		return
	}

	var order models.SupplyOrder
	if err := config.DB.Preload("Items").First(&order, id).Error; err != nil {
		utils.ServerError(c, "supply", "ApproveSupplyOrder", err)
		return
	}
	utils.Success(c, "Supply order approved", order)
}

// ReceiveSupplyOrder receives everything still outstanding: each item's
// remaining quantity goes into stock with a purchase ledger row, the order
// flips to received, and the supplier's balance rises by the order total.
func ReceiveSupplyOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var order models.SupplyOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").First(&order, id).Error; err != nil {
			return err
		}
		if order.Status == models.SupplyReceived || order.Status == models.SupplyCancelled {
			return models.ErrOrderClosed
		}

		actor := performedBy(c)
		for _, item := range order.Items {
			remaining := item.QuantityOrdered - item.QuantityReceived
			if remaining <= 0 {
				continue
			}
			refID := order.ID
			if _, err := applyStockDelta(tx, item.ProductID, remaining, stockLogOptions{
				Type:        models.TxPurchase,
				UnitPrice:   item.UnitPrice,
				ReferenceID: &refID,
				PerformedBy: actor,
			}); err != nil {
				return err
			}
			if err := tx.Model(&models.SupplyOrderItem{}).
				Where("id = ?", item.ID).
				Update("quantity_received", item.QuantityOrdered).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":      models.SupplyReceived,
			"received_at": now,
		}).Error; err != nil {
			return err
		}

		if order.SupplierID != nil {
			refID := order.ID
			if _, err := applySupplierLedger(tx, *order.SupplierID, models.SupplierTxSupply,
				order.TotalAmount, &refID, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.Error(c, http.StatusNotFound, "Supply order not found")
		case errors.Is(err, models.ErrOrderClosed):
			utils.Error(c, http.StatusBadRequest, "Order already received or cancelled")
		default:
			utils.ServerError(c, "supply", "ReceiveSupplyOrder", err)
		}
		return
	}

	var received models.SupplyOrder
	if err := config.DB.Preload("Items").First(&received, id).Error; err != nil {
		utils.ServerError(c, "supply", "ReceiveSupplyOrder", err)
		return
	}
	utils.Success(c, "Supply order received", received)
}

// ReceiveSupplyOrderItem receives a partial quantity on one line, capped at
// what is still outstanding, and recomputes the order status from the item
// totals.
func ReceiveSupplyOrderItem(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid item id")
		return
	}

	var in ReceiveItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var item models.SupplyOrderItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&item, id).Error; err != nil {
			return err
		}

		var order models.SupplyOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, item.OrderID).Error; err != nil {
			return err
		}
		if order.Status == models.SupplyReceived || order.Status == models.SupplyCancelled {
			return models.ErrOrderClosed
		}

		remaining := item.QuantityOrdered - item.QuantityReceived
		if remaining <= 0 {
			return models.ErrAlreadyReceived
		}
		received := in.Quantity
		if received > remaining {
			received = remaining
		}

		refID := order.ID
		if _, err := applyStockDelta(tx, item.ProductID, received, stockLogOptions{
			Type:        models.TxPurchase,
			UnitPrice:   item.UnitPrice,
			ReferenceID: &refID,
			PerformedBy: performedBy(c),
		}); err != nil {
			return err
		}
		if err := tx.Model(&item).
			Update("quantity_received", item.QuantityReceived+received).Error; err != nil {
			return err
		}

		var totals struct {
			Ordered  int64
			Received int64
		}
		if err := tx.Model(&models.SupplyOrderItem{}).
			Where("order_id = ?", order.ID).
			Select("COALESCE(SUM(quantity_ordered), 0) AS ordered, COALESCE(SUM(quantity_received), 0) AS received").
			Scan(&totals).Error; err != nil {
			return err
		}

		status := models.SupplyPartiallyReceived
		updates := map[string]interface{}{}
		if totals.Received >= totals.Ordered {
			status = models.SupplyReceived
			now := time.Now()
			updates["received_at"] = now
			if order.SupplierID != nil {
				if _, err := applySupplierLedger(tx, *order.SupplierID, models.SupplierTxSupply,
					order.TotalAmount, &refID, nil); err != nil {
					return err
				}
			}
		}
		updates["status"] = status
		return tx.Model(&order).Updates(updates).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.Error(c, http.StatusNotFound, "Supply order item not found")
		case errors.Is(err, models.ErrOrderClosed):
			utils.Error(c, http.StatusBadRequest, "Order already received or cancelled")
		case errors.Is(err, models.ErrAlreadyReceived):
			utils.Error(c, http.StatusBadRequest, "Item already fully received")
		default:
			utils.ServerError(c, "supply", "ReceiveSupplyOrderItem", err)
		}
		return
	}

	var item models.SupplyOrderItem
	if err := config.DB.First(&item, id).Error; err != nil {
		utils.ServerError(c, "supply", "ReceiveSupplyOrderItem", err)
		return
	}
	utils.Success(c, "Item received", item)
}

func CancelSupplyOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	res := config.DB.Model(&models.SupplyOrder{}).
		Where("id = ? AND status IN ?", id,
			[]models.SupplyOrderStatus{models.SupplyDraft, models.SupplyApproved}).
		Update("status", models.SupplyCancelled)
	if res.Error != nil {
		utils.ServerError(c, "supply", "CancelSupplyOrder", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, http.StatusBadRequest, "Order not found or cannot be cancelled")
		return
	}

	var order models.SupplyOrder
	if err := config.DB.Preload("Items").First(&order, id).Error; err != nil {
		utils.ServerError(c, "supply", "CancelSupplyOrder", err)
		return
	}
	utils.Success(c, "Supply order cancelled", order)
}

func UpdateSupplyOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	var in SupplyOrderUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var order models.SupplyOrder
	if err := config.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Supply order not found")
			return
		}
		utils.ServerError(c, "supply", "UpdateSupplyOrder", err)
		return
	}

	updates := map[string]interface{}{}
	if in.SupplierName != nil {
		updates["supplier_name"] = *in.SupplierName
	}
	if in.ExpectedDelivery != nil {
		t, err := time.Parse("2006-01-02", *in.ExpectedDelivery)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid expected_delivery, expected YYYY-MM-DD")
			return
		}
		updates["expected_delivery"] = t
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) == 0 {
		utils.Success(c, "Nothing to update", order)
		return
	}

	if err := config.DB.Model(&order).Updates(updates).Error; err != nil {
		utils.ServerError(c, "supply", "UpdateSupplyOrder", err)
		return
	}

	var updated models.SupplyOrder
	if err := config.DB.Preload("Items").First(&updated, id).Error; err != nil {
		utils.ServerError(c, "supply", "UpdateSupplyOrder", err)
		return
	}
	utils.Success(c, "Supply order updated", updated)
}

func DeleteSupplyOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var order models.SupplyOrder
		if err := tx.First(&order, id).Error; err != nil {
			return err
		}
		if order.Status != models.SupplyDraft {
			return models.ErrOrderNotDraft
		}
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&models.SupplyOrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.Error(c, http.StatusNotFound, "Supply order not found")
		case errors.Is(err, models.ErrOrderNotDraft):
			utils.Error(c, http.StatusBadRequest, "Only draft orders can be deleted")
		default:
			utils.ServerError(c, "supply", "DeleteSupplyOrder", err)
		}
		return
	}
	utils.Success(c, "Supply order deleted", nil)
}

func GetPendingSupplyOrders(c *gin.Context) {
	var orders []models.SupplyOrder
	if err := config.DB.Preload("Items").
		Where("status IN ?", []models.SupplyOrderStatus{
			models.SupplyDraft, models.SupplyApproved, models.SupplyPartiallyReceived,
		}).
		Order("created_at ASC").Find(&orders).Error; err != nil {
		utils.ServerError(c, "supply", "GetPendingSupplyOrders", err)
		return
	}
	utils.Success(c, "Pending supply orders retrieved", orders)
}

func GetSupplyOrdersBySupplier(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid supplier id")
		return
	}
	limit := getInt(c, "limit", 100)

	var orders []models.SupplyOrder
	if err := config.DB.Preload("Items").
		Where("supplier_id = ?", id).
		Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		utils.ServerError(c, "supply", "GetSupplyOrdersBySupplier", err)
		return
	}
	utils.Success(c, "Supply orders retrieved", orders)
}

func GetSupplyStats(c *gin.Context) {
	var counts []struct {
		Status models.SupplyOrderStatus `json:"status"`
		Count  int64                    `json:"count"`
	}
	if err := config.DB.Model(&models.SupplyOrder{}).
		Select("status, COUNT(*) AS count").
		Group("status").Scan(&counts).Error; err != nil {
		utils.ServerError(c, "supply", "GetSupplyStats", err)
		return
	}

	var monthTotal struct {
		Total decimal.Decimal `json:"total"`
	}
	if err := config.DB.Model(&models.SupplyOrder{}).
		Where("YEAR(created_at) = YEAR(CURDATE()) AND MONTH(created_at) = MONTH(CURDATE()) AND status != ?", models.SupplyCancelled).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Scan(&monthTotal).Error; err != nil {
		utils.ServerError(c, "supply", "GetSupplyStats", err)
		return
	}

	utils.Success(c, "Supply stats retrieved", gin.H{
		"by_status":        counts,
		"this_month_total": monthTotal.Total,
	})
}
