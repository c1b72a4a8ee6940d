package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmed-mouatassim/saleflow/config"
	"github.com/ahmed-mouatassim/saleflow/models"
	"github.com/ahmed-mouatassim/saleflow/utils"
)

type SupplierCreateInput struct {
	Name          string           `json:"name" binding:"required"`
	ContactPerson *string          `json:"contact_person"`
	Phone         *string          `json:"phone"`
	Email         *string          `json:"email" binding:"omitempty,email"`
	Address       *string          `json:"address"`
	PaymentTerms  *string          `json:"payment_terms"`
	DeliveryDays  *int             `json:"delivery_days"`
	CreditLimit   *decimal.Decimal `json:"credit_limit"`
}

type SupplierUpdateInput struct {
	Name          *string          `json:"name"`
	ContactPerson *string          `json:"contact_person"`
	Phone         *string          `json:"phone"`
	Email         *string          `json:"email" binding:"omitempty,email"`
	Address       *string          `json:"address"`
	PaymentTerms  *string          `json:"payment_terms"`
	DeliveryDays  *int             `json:"delivery_days"`
	CreditLimit   *decimal.Decimal `json:"credit_limit"`
	IsActive      *bool            `json:"is_active"`
}

type SupplierPaymentInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Notes  *string         `json:"notes"`
}

// applySupplierLedger locks the supplier row and shifts current_balance: a
// supply raises it, a payment lowers it but never below zero. The ledger row
// records the applied amount, which for a payment may be less than requested.
func applySupplierLedger(tx *gorm.DB, supplierID uint, txType models.SupplierTransactionType, amount decimal.Decimal, referenceID *uint, notes *string) (*models.SupplierTransaction, error) {
	var supplier models.Supplier
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&supplier, supplierID).Error; err != nil {
		return nil, err
	}

	before := supplier.CurrentBalance
	applied := amount
	var after decimal.Decimal
	switch txType {
	case models.SupplierTxSupply:
		after = before.Add(amount)
	case models.SupplierTxPayment:
		if applied.GreaterThan(before) {
			applied = before
		}
		after = before.Sub(applied)
	default:
		return nil, errors.New("unknown supplier transaction type")
	}

	if err := tx.Model(&supplier).
		Update("current_balance", after).Error; err != nil {
		return nil, err
	}

	entry := models.SupplierTransaction{
		SupplierID:    supplier.ID,
		Type:          txType,
		Amount:        applied,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceID:   referenceID,
		Notes:         notes,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func GetSuppliers(c *gin.Context) {
	var suppliers []models.Supplier
	if err := config.DB.Where("is_active = ?", true).
		Order("name ASC").Find(&suppliers).Error; err != nil {
		utils.ServerError(c, "suppliers", "GetSuppliers", err)
		return
	}
	utils.Success(c, "Suppliers retrieved", suppliers)
}

func GetSupplier(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid supplier id")
		return
	}

	var supplier models.Supplier
	if err := config.DB.First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Supplier not found")
			return
		}
		utils.ServerError(c, "suppliers", "GetSupplier", err)
		return
	}
	utils.Success(c, "Supplier retrieved", supplier)
}

func CreateSupplier(c *gin.Context) {
	var in SupplierCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var supplier models.Supplier
	var err error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		supplier = models.Supplier{
			Name:          in.Name,
			ContactPerson: in.ContactPerson,
			Phone:         in.Phone,
			Email:         in.Email,
			Address:       in.Address,
			PaymentTerms:  in.PaymentTerms,
			DeliveryDays:  in.DeliveryDays,
			CreditLimit:   in.CreditLimit,
			IsActive:      true,
		}
		err = config.DB.Transaction(func(tx *gorm.DB) error {
			code, codeErr := utils.NextCode(tx, "suppliers", "SUP-", 3)
			if codeErr != nil {
				return codeErr
			}
			supplier.Code = code
			return tx.Create(&supplier).Error
		})
		if err == nil || !utils.IsDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		utils.ServerError(c, "suppliers", "CreateSupplier", err)
		return
	}

	var created models.Supplier
	if err := config.DB.First(&created, supplier.ID).Error; err != nil {
		utils.ServerError(c, "suppliers", "CreateSupplier", err)
		return
	}
	utils.Success(c, "Supplier created", created)
}

func UpdateSupplier(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid supplier id")
		return
	}

	var in SupplierUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var supplier models.Supplier
	if err := config.DB.First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Supplier not found")
			return
		}
		utils.ServerError(c, "suppliers", "UpdateSupplier", err)
		return
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.ContactPerson != nil {
		updates["contact_person"] = *in.ContactPerson
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.PaymentTerms != nil {
		updates["payment_terms"] = *in.PaymentTerms
	}
	if in.DeliveryDays != nil {
		updates["delivery_days"] = *in.DeliveryDays
	}
	if in.CreditLimit != nil {
		updates["credit_limit"] = *in.CreditLimit
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		utils.Success(c, "Nothing to update", supplier)
		return
	}

	if err := config.DB.Model(&supplier).Updates(updates).Error; err != nil {
		utils.ServerError(c, "suppliers", "UpdateSupplier", err)
		return
	}

	var updated models.Supplier
	if err := config.DB.First(&updated, id).Error; err != nil {
		utils.ServerError(c, "suppliers", "UpdateSupplier", err)
		return
	}
	utils.Success(c, "Supplier updated", updated)
}

func DeleteSupplier(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid supplier id")
		return
	}

	res := config.DB.Model(&models.Supplier{}).
		Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		utils.ServerError(c, "suppliers", "DeleteSupplier", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, http.StatusNotFound, "Supplier not found")
		return
	}
	utils.Success(c, "Supplier deleted", nil)
}

func RecordSupplierPayment(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid supplier id")
		return
	}

	var in SupplierPaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if !in.Amount.GreaterThan(decimal.Zero) {
		utils.Error(c, http.StatusBadRequest, "Amount must be positive")
		return
	}

	var entry *models.SupplierTransaction
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applySupplierLedger(tx, id, models.SupplierTxPayment, in.Amount, nil, in.Notes)
		return txErr
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Supplier not found")
			return
		}
		utils.ServerError(c, "suppliers", "RecordSupplierPayment", err)
		return
	}
	utils.Success(c, "Payment recorded", entry)
}

func GetSuppliersWithBalance(c *gin.Context) {
	var suppliers []models.Supplier
	if err := config.DB.Where("is_active = ? AND current_balance > 0", true).
		Order("current_balance DESC").Find(&suppliers).Error; err != nil {
		utils.ServerError(c, "suppliers", "GetSuppliersWithBalance", err)
		return
	}
	utils.Success(c, "Suppliers retrieved", suppliers)
}

func GetSupplierProducts(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid supplier id")
		return
	}

	var products []models.Product
	if err := config.DB.Where("supplier_id = ? AND is_active = ?", id, true).
		Order("name ASC").Find(&products).Error; err != nil {
		utils.ServerError(c, "suppliers", "GetSupplierProducts", err)
		return
	}
	utils.Success(c, "Products retrieved", products)
}

func GetSupplierStats(c *gin.Context) {
	var total, withBalance int64
	var sums struct {
		TotalBalance decimal.Decimal `json:"total_balance"`
	}

	if err := config.DB.Model(&models.Supplier{}).
		Where("is_active = ?", true).Count(&total).Error; err != nil {
		utils.ServerError(c, "suppliers", "GetSupplierStats", err)
		return
	}
	if err := config.DB.Model(&models.Supplier{}).
		Where("is_active = ? AND current_balance > 0", true).
		Count(&withBalance).Error; err != nil {
		utils.ServerError(c, "suppliers", "GetSupplierStats", err)
		return
	}
	if err := config.DB.Model(&models.Supplier{}).Where("is_active = ?", true).
		Select("COALESCE(SUM(current_balance), 0) AS total_balance").
		Scan(&sums).Error; err != nil {
		utils.ServerError(c, "suppliers", "GetSupplierStats", err)
		return
	}

	utils.Success(c, "Supplier stats retrieved", gin.H{
		"total_suppliers": total,
		"with_balance":    withBalance,
		"total_owed":      sums.TotalBalance,
	})
}
