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

type ClientCreateInput struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	Notes   *string `json:"notes"`
}

type ClientUpdateInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"is_active"`
}

type ClientMoneyInput struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	InvoiceNumber *string         `json:"invoice_number"`
	Notes         *string         `json:"notes"`
}

// applyClientLedger locks the client row, shifts total_purchases or
// total_paid and appends the client_transactions row with before/after
// balance snapshots, all inside the caller's transaction.
func applyClientLedger(tx *gorm.DB, clientID uint, txType models.ClientTransactionType, amount decimal.Decimal, invoiceNumber *string, referenceID *uint, notes *string) (*models.ClientTransaction, error) {
	var client models.Client
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&client, clientID).Error; err != nil {
		return nil, err
	}

	before := client.TotalPurchases.Sub(client.TotalPaid)
	var after decimal.Decimal
	switch txType {
	case models.ClientTxPurchase:
		after = before.Add(amount)
		if err := tx.Model(&client).
			Update("total_purchases", client.TotalPurchases.Add(amount)).Error; err != nil {
			return nil, err
		}
	case models.ClientTxPayment:
		after = before.Sub(amount)
		if err := tx.Model(&client).
			Update("total_paid", client.TotalPaid.Add(amount)).Error; err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unknown client transaction type")
	}

	entry := models.ClientTransaction{
		ClientID:      client.ID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		InvoiceNumber: invoiceNumber,
		ReferenceID:   referenceID,
		Notes:         notes,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func GetClients(c *gin.Context) {
	var clients []models.Client
	if err := config.DB.Where("is_active = ?", true).
		Order("created_at DESC").Find(&clients).Error; err != nil {
		utils.ServerError(c, "clients", "GetClients", err)
		return
	}
	utils.Success(c, "Clients retrieved", clients)
}

func GetClient(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid client id")
		return
	}

	var client models.Client
	if err := config.DB.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Client not found")
			return
		}
		utils.ServerError(c, "clients", "GetClient", err)
		return
	}
	utils.Success(c, "Client retrieved", client)
}

func CreateClient(c *gin.Context) {
	var in ClientCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var client models.Client
	var err error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		client = models.Client{
			Name:     in.Name,
			Phone:    in.Phone,
			Email:    in.Email,
			Address:  in.Address,
			City:     in.City,
			Notes:    in.Notes,
			IsActive: true,
		}
		err = config.DB.Transaction(func(tx *gorm.DB) error {
			code, codeErr := utils.NextCode(tx, "clients", "CLI-", 4)
			if codeErr != nil {
				return codeErr
			}
			client.Code = code
			return tx.Create(&client).Error
		})
		if err == nil || !utils.IsDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		utils.ServerError(c, "clients", "CreateClient", err)
		return
	}

	var created models.Client
	if err := config.DB.First(&created, client.ID).Error; err != nil {
		utils.ServerError(c, "clients", "CreateClient", err)
		return
	}
	utils.Success(c, "Client created", created)
}

func UpdateClient(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid client id")
		return
	}

	var in ClientUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var client models.Client
	if err := config.DB.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Client not found")
			return
		}
		utils.ServerError(c, "clients", "UpdateClient", err)
		return
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
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
	if in.City != nil {
		updates["city"] = *in.City
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		utils.Success(c, "Nothing to update", client)
		return
	}

	if err := config.DB.Model(&client).Updates(updates).Error; err != nil {
		utils.ServerError(c, "clients", "UpdateClient", err)
		return
	}

	var updated models.Client
	if err := config.DB.First(&updated, id).Error; err != nil {
		utils.ServerError(c, "clients", "UpdateClient", err)
		return
	}
	utils.Success(c, "Client updated", updated)
}

func DeleteClient(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid client id")
		return
	}

	res := config.DB.Model(&models.Client{}).
		Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		utils.ServerError(c, "clients", "DeleteClient", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, http.StatusNotFound, "Client not found")
		return
	}
	utils.Success(c, "Client deleted", nil)
}

func RecordClientPayment(c *gin.Context) {
	recordClientMoney(c, models.ClientTxPayment, "RecordClientPayment", "Payment recorded")
}

func RecordClientPurchase(c *gin.Context) {
	recordClientMoney(c, models.ClientTxPurchase, "RecordClientPurchase", "Purchase recorded")
}

func recordClientMoney(c *gin.Context, txType models.ClientTransactionType, handler string, okMessage string) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid client id")
		return
	}

	var in ClientMoneyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if !in.Amount.GreaterThan(decimal.Zero) {
		utils.Error(c, http.StatusBadRequest, "Amount must be positive")
		return
	}

	var entry *models.ClientTransaction
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applyClientLedger(tx, id, txType, in.Amount, in.InvoiceNumber, nil, in.Notes)
		return txErr
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Client not found")
			return
		}
		utils.ServerError(c, "clients", handler, err)
		return
	}
	utils.Success(c, okMessage, entry)
}

func GetDebtors(c *gin.Context) {
	var debtors []models.Client
	if err := config.DB.Where("is_active = ? AND total_purchases > total_paid", true).
		Order("(total_purchases - total_paid) DESC").Find(&debtors).Error; err != nil {
		utils.ServerError(c, "clients", "GetDebtors", err)
		return
	}
	utils.Success(c, "Debtors retrieved", debtors)
}

func GetClientTransactions(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid client id")
		return
	}
	limit := getInt(c, "limit", 100)

	var entries []models.ClientTransaction
	if err := config.DB.Where("client_id = ?", id).
		Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		utils.ServerError(c, "clients", "GetClientTransactions", err)
		return
	}
	utils.Success(c, "Client transactions retrieved", entries)
}

func GetClientCities(c *gin.Context) {
	var cities []string
	if err := config.DB.Model(&models.Client{}).
		Where("city IS NOT NULL AND city != '' AND is_active = ?", true).
		Distinct().Order("city ASC").Pluck("city", &cities).Error; err != nil {
		utils.ServerError(c, "clients", "GetClientCities", err)
		return
	}
	utils.Success(c, "Cities retrieved", cities)
}

func GetClientStats(c *gin.Context) {
	var total, debtors int64
	var sums struct {
		TotalPurchases decimal.Decimal `json:"total_purchases"`
		TotalPaid      decimal.Decimal `json:"total_paid"`
	}

	if err := config.DB.Model(&models.Client{}).
		Where("is_active = ?", true).Count(&total).Error; err != nil {
		utils.ServerError(c, "clients", "GetClientStats", err)
		return
	}
	if err := config.DB.Model(&models.Client{}).
		Where("is_active = ? AND total_purchases > total_paid", true).
		Count(&debtors).Error; err != nil {
		utils.ServerError(c, "clients", "GetClientStats", err)
		return
	}
	if err := config.DB.Model(&models.Client{}).Where("is_active = ?", true).
		Select("COALESCE(SUM(total_purchases), 0) AS total_purchases, COALESCE(SUM(total_paid), 0) AS total_paid").
		Scan(&sums).Error; err != nil {
		utils.ServerError(c, "clients", "GetClientStats", err)
		return
	}

	paymentRate := decimal.Zero
	if sums.TotalPurchases.GreaterThan(decimal.Zero) {
		paymentRate = sums.TotalPaid.Div(sums.TotalPurchases).
			Mul(decimal.NewFromInt(100)).Round(2)
	}

	utils.Success(c, "Client stats retrieved", gin.H{
		"total_clients":    total,
		"debtors":          debtors,
		"total_purchases":  sums.TotalPurchases,
		"total_paid":       sums.TotalPaid,
		"outstanding_debt": sums.TotalPurchases.Sub(sums.TotalPaid),
		"payment_rate":     paymentRate,
	})
}
