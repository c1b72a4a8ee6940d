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

type SalesOrderItemInput struct {
	ProductID          uint             `json:"product_id" binding:"required"`
	Quantity           int              `json:"quantity" binding:"required,gt=0"`
	UnitPrice          *decimal.Decimal `json:"unit_price"`
	Discount           *decimal.Decimal `json:"discount"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
}

type SalesOrderCreateInput struct {
	CustomerID         *uint                 `json:"customer_id"`
	CustomerName       *string               `json:"customer_name"`
	CustomerPhone      *string               `json:"customer_phone"`
	InvoiceNumber      *string               `json:"invoice_number"`
	PaymentMethod      *string               `json:"payment_method"`
	Discount           *decimal.Decimal      `json:"discount"`
	DiscountPercentage *decimal.Decimal      `json:"discount_percentage"`
	PaidAmount         *decimal.Decimal      `json:"paid_amount"`
	Notes              *string               `json:"notes"`
	Items              []SalesOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

type SalesOrderUpdateInput struct {
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	InvoiceNumber *string `json:"invoice_number"`
	PaymentMethod *string `json:"payment_method"`
	Notes         *string `json:"notes"`
}

type SalesPaymentInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func GetSalesOrders(c *gin.Context) {
	limit := getInt(c, "limit", 100)

	var orders []models.SalesOrder
	q := config.DB.Preload("Items").Order("created_at DESC").Limit(limit)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&orders).Error; err != nil {
		utils.ServerError(c, "sales", "GetSalesOrders", err)
		return
	}
	utils.Success(c, "Sales orders retrieved", orders)
}

func GetSalesOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	var order models.SalesOrder
	if err := config.DB.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Sales order not found")
			return
		}
		utils.ServerError(c, "sales", "GetSalesOrder", err)
		return
	}
	utils.Success(c, "Sales order retrieved", order)
}

func CreateSalesOrder(c *gin.Context) {
	var in SalesOrderCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sellerName := performedBy(c)
	var sellerID *uint
	if uid, err := currentUserID(c); err == nil {
		sellerID = &uid
	}

	var order models.SalesOrder
	var err error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		err = config.DB.Transaction(func(tx *gorm.DB) error {
			items := make([]models.SalesOrderItem, 0, len(in.Items))
			subtotal := decimal.Zero
			for _, it := range in.Items {
				var product models.Product
				if err := tx.First(&product, it.ProductID).Error; err != nil {
					return err
				}
				unitPrice := product.SellingPrice
				if it.UnitPrice != nil {
					unitPrice = *it.UnitPrice
				}
				lineTotal := models.SalesLineTotal(it.Quantity, unitPrice, it.Discount, it.DiscountPercentage)
				items = append(items, models.SalesOrderItem{
					ProductID:          product.ID,
					ProductReference:   product.Reference,
					ProductName:        product.Name,
					Quantity:           it.Quantity,
					UnitPrice:          unitPrice,
					PurchasePrice:      product.PurchasePrice,
					Discount:           it.Discount,
					DiscountPercentage: it.DiscountPercentage,
					LineTotal:          lineTotal,
				})
				subtotal = subtotal.Add(lineTotal)
			}

			discount := decimal.Zero
			discountPct := decimal.Zero
			total := subtotal
			if in.Discount != nil {
				discount = *in.Discount
				total = total.Sub(discount)
			} else if in.DiscountPercentage != nil {
				discountPct = *in.DiscountPercentage
				discount = subtotal.Mul(discountPct).Div(decimal.NewFromInt(100)).Round(2)
				total = total.Sub(discount)
			}
			paid := decimal.Zero
			if in.PaidAmount != nil {
				paid = *in.PaidAmount
			}
			paymentMethod := "cash"
			if in.PaymentMethod != nil {
				paymentMethod = *in.PaymentMethod
			}

			number, numErr := utils.NextOrderNumber(tx, "sales_orders", "SO", time.Now())
			if numErr != nil {
				return numErr
			}

			order = models.SalesOrder{
				OrderNumber:        number,
				InvoiceNumber:      in.InvoiceNumber,
				CustomerID:         in.CustomerID,
				CustomerName:       in.CustomerName,
				CustomerPhone:      in.CustomerPhone,
				SellerID:           sellerID,
				SellerName:         &sellerName,
				Status:             models.SalesDraft,
				PaymentMethod:      paymentMethod,
				Subtotal:           subtotal,
				Discount:           discount,
				DiscountPercentage: discountPct,
				TotalAmount:        total,
				PaidAmount:         paid,
				Notes:              in.Notes,
				Items:              items,
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
		utils.ServerError(c, "sales", "CreateSalesOrder", err)
		return
	}

	var created models.SalesOrder
	if err := config.DB.Preload("Items").First(&created, order.ID).Error; err != nil {
		utils.ServerError(c, "sales", "CreateSalesOrder", err)
		return
	}
	utils.Success(c, "Sales order created", created)
}

// CompleteSalesOrder fulfills a draft: decrements stock per item with a
// conditional update so a concurrent completion cannot oversell, appends the
// sale ledger rows, stamps the status by payment coverage, and credits the
// client's ledger. Any item failing the stock guard rolls the whole order
// back. An order left confirmed becomes completed through RecordSalesPayment
// once the balance is covered.
func CompleteSalesOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	var in struct {
		PaidAmount *decimal.Decimal `json:"paid_amount"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var order models.SalesOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").First(&order, id).Error; err != nil {
			return err
		}
		// Confirmed orders have already run fulfillment; only drafts may
		// decrement stock and credit the purchase.
		if order.Status != models.SalesDraft {
			return models.ErrOrderNotDraft
		}

		actor := performedBy(c)
		for _, item := range order.Items {
			refID := order.ID
			if _, err := applyConditionalStockDecrement(tx, item.ProductID, item.Quantity, stockLogOptions{
				Type:        models.TxSale,
				UnitPrice:   item.UnitPrice,
				ReferenceID: &refID,
				PerformedBy: actor,
			}); err != nil {
				return err
			}
		}

		newPaid := order.PaidAmount
		if in.PaidAmount != nil {
			newPaid = newPaid.Add(*in.PaidAmount)
		}
		status := models.SalesConfirmed
		var completedAt *time.Time
		if newPaid.GreaterThanOrEqual(order.TotalAmount) {
			status = models.SalesCompleted
		}
		now := time.Now()
		completedAt = &now

		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":       status,
			"paid_amount":  newPaid,
			"completed_at": completedAt,
		}).Error; err != nil {
			return err
		}

		if order.CustomerID != nil {
			refID := order.ID
			if _, err := applyClientLedger(tx, *order.CustomerID, models.ClientTxPurchase,
				order.TotalAmount, order.InvoiceNumber, &refID, nil); err != nil {
				return err
			}
			// Payments recorded on the draft already carry their own ledger
			// rows; credit only the portion never ledgered for this order.
			var ledgered struct {
				Total decimal.Decimal
			}
			if err := tx.Model(&models.ClientTransaction{}).
				Where("client_id = ? AND reference_id = ? AND type = ?",
					*order.CustomerID, order.ID, models.ClientTxPayment).
				Select("COALESCE(SUM(amount), 0) AS total").
				Scan(&ledgered).Error; err != nil {
				return err
			}
			if unledgered := newPaid.Sub(ledgered.Total); unledgered.GreaterThan(decimal.Zero) {
				if _, err := applyClientLedger(tx, *order.CustomerID, models.ClientTxPayment,
					unledgered, order.InvoiceNumber, &refID, nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.Error(c, http.StatusNotFound, "Sales order not found")
		case errors.Is(err, models.ErrOrderNotDraft):
			utils.Error(c, http.StatusBadRequest, "Only draft orders can be completed")
		case errors.Is(err, models.ErrInsufficientStock):
			utils.Error(c, http.StatusBadRequest, err.Error())
		default:
			utils.ServerError(c, "sales", "CompleteSalesOrder", err)
		}
		return
	}

	var completed models.SalesOrder
	if err := config.DB.Preload("Items").First(&completed, id).Error; err != nil {
		utils.ServerError(c, "sales", "CompleteSalesOrder", err)
		return
	}
	utils.Success(c, "Sales order completed", completed)
}

func RecordSalesPayment(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	var in SalesPaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if !in.Amount.GreaterThan(decimal.Zero) {
		utils.Error(c, http.StatusBadRequest, "Amount must be positive")
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var order models.SalesOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, id).Error; err != nil {
			return err
		}
		if order.Status == models.SalesCancelled {
			return models.ErrOrderClosed
		}

		newPaid := order.PaidAmount.Add(in.Amount)
		updates := map[string]interface{}{"paid_amount": newPaid}
		if order.Status == models.SalesConfirmed && newPaid.GreaterThanOrEqual(order.TotalAmount) {
			updates["status"] = models.SalesCompleted
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		if order.CustomerID != nil {
			refID := order.ID
			if _, err := applyClientLedger(tx, *order.CustomerID, models.ClientTxPayment,
				in.Amount, order.InvoiceNumber, &refID, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.Error(c, http.StatusNotFound, "Sales order not found")
		case errors.Is(err, models.ErrOrderClosed):
			utils.Error(c, http.StatusBadRequest, "Order is cancelled")
		default:
			utils.ServerError(c, "sales", "RecordSalesPayment", err)
		}
		return
	}

	var updated models.SalesOrder
	if err := config.DB.Preload("Items").First(&updated, id).Error; err != nil {
		utils.ServerError(c, "sales", "RecordSalesPayment", err)
		return
	}
	utils.Success(c, "Payment recorded", updated)
}

// CancelSalesOrder restores stock when fulfillment has already run, which is
// the case for both completed and confirmed orders; drafts just flip status.
func CancelSalesOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var order models.SalesOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").First(&order, id).Error; err != nil {
			return err
		}
		if order.Status == models.SalesCancelled {
			return models.ErrOrderClosed
		}

		if order.Status == models.SalesCompleted || order.Status == models.SalesConfirmed {
			actor := performedBy(c)
			reason := "order cancelled"
			for _, item := range order.Items {
				refID := order.ID
				if _, err := applyStockDelta(tx, item.ProductID, item.Quantity, stockLogOptions{
					Type:        models.TxReturnCustomer,
					UnitPrice:   item.UnitPrice,
					ReferenceID: &refID,
					Reason:      &reason,
					PerformedBy: actor,
				}); err != nil {
					return err
				}
			}
		}

		return tx.Model(&order).Update("status", models.SalesCancelled).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.Error(c, http.StatusNotFound, "Sales order not found")
		case errors.Is(err, models.ErrOrderClosed):
			utils.Error(c, http.StatusBadRequest, "Order already cancelled")
		default:
			utils.ServerError(c, "sales", "CancelSalesOrder", err)
		}
		return
	}

	var cancelled models.SalesOrder
	if err := config.DB.Preload("Items").First(&cancelled, id).Error; err != nil {
		utils.ServerError(c, "sales", "CancelSalesOrder", err)
		return
	}
	utils.Success(c, "Sales order cancelled", cancelled)
}

func UpdateSalesOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	var in SalesOrderUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var order models.SalesOrder
	if err := config.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Sales order not found")
			return
		}
		utils.ServerError(c, "sales", "UpdateSalesOrder", err)
		return
	}

	updates := map[string]interface{}{}
	if in.CustomerName != nil {
		updates["customer_name"] = *in.CustomerName
	}
	if in.CustomerPhone != nil {
		updates["customer_phone"] = *in.CustomerPhone
	}
	if in.InvoiceNumber != nil {
		updates["invoice_number"] = *in.InvoiceNumber
	}
	if in.PaymentMethod != nil {
		updates["payment_method"] = *in.PaymentMethod
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) == 0 {
		utils.Success(c, "Nothing to update", order)
		return
	}

	if err := config.DB.Model(&order).Updates(updates).Error; err != nil {
		utils.ServerError(c, "sales", "UpdateSalesOrder", err)
		return
	}

	var updated models.SalesOrder
	if err := config.DB.Preload("Items").First(&updated, id).Error; err != nil {
		utils.ServerError(c, "sales", "UpdateSalesOrder", err)
		return
	}
	utils.Success(c, "Sales order updated", updated)
}

func DeleteSalesOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var order models.SalesOrder
		if err := tx.First(&order, id).Error; err != nil {
			return err
		}
		if order.Status != models.SalesDraft {
			return models.ErrOrderNotDraft
		}
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&models.SalesOrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.Error(c, http.StatusNotFound, "Sales order not found")
		case errors.Is(err, models.ErrOrderNotDraft):
			utils.Error(c, http.StatusBadRequest, "Only draft orders can be deleted")
		default:
			utils.ServerError(c, "sales", "DeleteSalesOrder", err)
		}
		return
	}
	utils.Success(c, "Sales order deleted", nil)
}

func GetSalesStats(c *gin.Context) {
	var todayCount, monthCount int64
	var todaySum, monthSum struct {
		Total decimal.Decimal `json:"total"`
		Paid  decimal.Decimal `json:"paid"`
	}

	todayQ := config.DB.Model(&models.SalesOrder{}).
		Where("DATE(created_at) = CURDATE() AND status != ?", models.SalesCancelled)
	if err := todayQ.Session(&gorm.Session{}).Count(&todayCount).Error; err != nil {
		utils.ServerError(c, "sales", "GetSalesStats", err)
		return
	}
	if err := todayQ.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COALESCE(SUM(paid_amount), 0) AS paid").
		Scan(&todaySum).Error; err != nil {
		utils.ServerError(c, "sales", "GetSalesStats", err)
		return
	}

	monthQ := config.DB.Model(&models.SalesOrder{}).
		Where("YEAR(created_at) = YEAR(CURDATE()) AND MONTH(created_at) = MONTH(CURDATE()) AND status != ?", models.SalesCancelled)
	if err := monthQ.Session(&gorm.Session{}).Count(&monthCount).Error; err != nil {
		utils.ServerError(c, "sales", "GetSalesStats", err)
		return
	}
	if err := monthQ.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COALESCE(SUM(paid_amount), 0) AS paid").
		Scan(&monthSum).Error; err != nil {
		utils.ServerError(c, "sales", "GetSalesStats", err)
		return
	}

	utils.Success(c, "Sales stats retrieved", gin.H{
		"today": gin.H{
			"orders": todayCount,
			"total":  todaySum.Total,
			"paid":   todaySum.Paid,
		},
		"this_month": gin.H{
			"orders": monthCount,
			"total":  monthSum.Total,
			"paid":   monthSum.Paid,
		},
	})
}

func GetDailySalesReport(c *gin.Context) {
	day := time.Now().Format("2006-01-02")
	if s := c.Query("date"); s != "" {
		if _, err := time.Parse("2006-01-02", s); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = s
	}

	var orders []models.SalesOrder
	if err := config.DB.Preload("Items").
		Where("DATE(created_at) = ?", day).
		Order("created_at ASC").Find(&orders).Error; err != nil {
		utils.ServerError(c, "sales", "GetDailySalesReport", err)
		return
	}

	total := decimal.Zero
	paid := decimal.Zero
	itemsSold := 0
	for _, o := range orders {
		if o.Status == models.SalesCancelled {
			continue
		}
		total = total.Add(o.TotalAmount)
		paid = paid.Add(o.PaidAmount)
		for _, it := range o.Items {
			itemsSold += it.Quantity
		}
	}

	utils.Success(c, "Daily report retrieved", gin.H{
		"date":       day,
		"orders":     orders,
		"total":      total,
		"paid":       paid,
		"items_sold": itemsSold,
	})
}

type topProductRow struct {
	ProductID        uint            `json:"product_id"`
	ProductReference string          `json:"product_reference"`
	ProductName      string          `json:"product_name"`
	QuantitySold     int64           `json:"quantity_sold"`
	Revenue          decimal.Decimal `json:"revenue"`
}

func GetTopSellingProducts(c *gin.Context) {
	limit := getInt(c, "limit", 10)

	var rows []topProductRow
	if err := config.DB.Model(&models.SalesOrderItem{}).
		Select("sales_order_items.product_id, sales_order_items.product_reference, sales_order_items.product_name, SUM(sales_order_items.quantity) AS quantity_sold, SUM(sales_order_items.line_total) AS revenue").
		Joins("JOIN sales_orders ON sales_orders.id = sales_order_items.order_id").
		Where("sales_orders.status IN ?", []models.SalesOrderStatus{models.SalesConfirmed, models.SalesCompleted}).
		Group("sales_order_items.product_id, sales_order_items.product_reference, sales_order_items.product_name").
		Order("quantity_sold DESC").Limit(limit).Scan(&rows).Error; err != nil {
		utils.ServerError(c, "sales", "GetTopSellingProducts", err)
		return
	}
	utils.Success(c, "Top products retrieved", rows)
}

func GetSalesByCustomer(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid customer id")
		return
	}
	limit := getInt(c, "limit", 100)

	var orders []models.SalesOrder
	if err := config.DB.Preload("Items").
		Where("customer_id = ?", id).
		Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		utils.ServerError(c, "sales", "GetSalesByCustomer", err)
		return
	}
	utils.Success(c, "Sales orders retrieved", orders)
}
