package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ahmed-mouatassim/saleflow/config"
	"github.com/ahmed-mouatassim/saleflow/models"
	"github.com/ahmed-mouatassim/saleflow/utils"
)

type WarehouseCreateInput struct {
	Name      string  `json:"name" binding:"required"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" binding:"omitempty,email"`
	ManagerID *uint   `json:"manager_id"`
	IsDefault bool    `json:"is_default"`
}

type WarehouseUpdateInput struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" binding:"omitempty,email"`
	ManagerID *uint   `json:"manager_id"`
	IsActive  *bool   `json:"is_active"`
	IsDefault *bool   `json:"is_default"`
}

type WarehouseTransferInput struct {
	ProductID       uint    `json:"product_id" binding:"required"`
	FromWarehouseID uint    `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   uint    `json:"to_warehouse_id" binding:"required"`
	Quantity        int     `json:"quantity" binding:"required,gt=0"`
	Notes           *string `json:"notes"`
}

// makeDefault clears every default flag, then sets one. Runs inside a
// transaction so the single-default invariant never observably breaks.
func makeDefault(tx *gorm.DB, warehouseID uint) error {
	if err := tx.Model(&models.Warehouse{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error; err != nil {
		return err
	}
	return tx.Model(&models.Warehouse{}).
		Where("id = ?", warehouseID).
		Update("is_default", true).Error
}

// promoteOldestActive hands the default flag to the oldest remaining active
// warehouse after the current default leaves service.
func promoteOldestActive(tx *gorm.DB, exceptID uint) error {
	return tx.Exec(
		"UPDATE warehouses SET is_default = 1 WHERE id != ? AND is_active = 1 ORDER BY created_at ASC LIMIT 1",
		exceptID,
	).Error
}

func GetWarehouses(c *gin.Context) {
	var warehouses []models.Warehouse
	if err := config.DB.Where("is_active = ?", true).
		Order("created_at ASC").Find(&warehouses).Error; err != nil {
		utils.ServerError(c, "warehouses", "GetWarehouses", err)
		return
	}
	utils.Success(c, "Warehouses retrieved", warehouses)
}

func GetWarehouse(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid warehouse id")
		return
	}

	var warehouse models.Warehouse
	if err := config.DB.First(&warehouse, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Warehouse not found")
			return
		}
		utils.ServerError(c, "warehouses", "GetWarehouse", err)
		return
	}
	utils.Success(c, "Warehouse retrieved", warehouse)
}

func CreateWarehouse(c *gin.Context) {
	var in WarehouseCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var warehouse models.Warehouse
	var err error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		warehouse = models.Warehouse{
			Name:      in.Name,
			Address:   in.Address,
			Phone:     in.Phone,
			Email:     in.Email,
			ManagerID: in.ManagerID,
			IsActive:  true,
		}
		err = config.DB.Transaction(func(tx *gorm.DB) error {
			code, codeErr := utils.NextCode(tx, "warehouses", "WH-", 3)
			if codeErr != nil {
				return codeErr
			}
			warehouse.Code = code

			var count int64
			if err := tx.Model(&models.Warehouse{}).Count(&count).Error; err != nil {
				return err
			}
			if err := tx.Create(&warehouse).Error; err != nil {
				return err
			}
			if count == 0 || in.IsDefault {
				return makeDefault(tx, warehouse.ID)
			}
			return nil
		})
		if err == nil || !utils.IsDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		utils.ServerError(c, "warehouses", "CreateWarehouse", err)
		return
	}

	var created models.Warehouse
	if err := config.DB.First(&created, warehouse.ID).Error; err != nil {
		utils.ServerError(c, "warehouses", "CreateWarehouse", err)
		return
	}
	utils.Success(c, "Warehouse created", created)
}

func UpdateWarehouse(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid warehouse id")
		return
	}

	var in WarehouseUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var warehouse models.Warehouse
	if err := config.DB.First(&warehouse, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Warehouse not found")
			return
		}
		utils.ServerError(c, "warehouses", "UpdateWarehouse", err)
		return
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.ManagerID != nil {
		updates["manager_id"] = *in.ManagerID
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&warehouse).Updates(updates).Error; err != nil {
				return err
			}
		}
		// Deactivating the default hands the flag to the oldest remaining
		// active warehouse, same as deleting it.
		deactivating := in.IsActive != nil && !*in.IsActive
		if deactivating && warehouse.IsDefault {
			if err := tx.Model(&models.Warehouse{}).
				Where("id = ?", warehouse.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
			return promoteOldestActive(tx, warehouse.ID)
		}
		if in.IsDefault != nil && *in.IsDefault && !deactivating {
			return makeDefault(tx, warehouse.ID)
		}
		return nil
	})
	if err != nil {
		utils.ServerError(c, "warehouses", "UpdateWarehouse", err)
		return
	}

	var updated models.Warehouse
	if err := config.DB.First(&updated, id).Error; err != nil {
		utils.ServerError(c, "warehouses", "UpdateWarehouse", err)
		return
	}
	utils.Success(c, "Warehouse updated", updated)
}

// DeleteWarehouse soft-deletes. Removing the default promotes the oldest
// remaining active warehouse so a default always exists while any warehouse
// is active.
func DeleteWarehouse(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid warehouse id")
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var warehouse models.Warehouse
		if err := tx.First(&warehouse, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&warehouse).Updates(map[string]interface{}{
			"is_active":  false,
			"is_default": false,
		}).Error; err != nil {
			return err
		}
		if warehouse.IsDefault {
			return promoteOldestActive(tx, warehouse.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Warehouse not found")
			return
		}
		utils.ServerError(c, "warehouses", "DeleteWarehouse", err)
		return
	}
	utils.Success(c, "Warehouse deleted", nil)
}

func GetDefaultWarehouse(c *gin.Context) {
	var warehouse models.Warehouse
	err := config.DB.Where("is_default = ? AND is_active = ?", true, true).
		First(&warehouse).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = config.DB.Where("is_active = ?", true).
			Order("created_at ASC").First(&warehouse).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "No active warehouse")
			return
		}
		utils.ServerError(c, "warehouses", "GetDefaultWarehouse", err)
		return
	}
	utils.Success(c, "Default warehouse retrieved", warehouse)
}

func SetDefaultWarehouse(c *gin.Context) {
	var in struct {
		WarehouseID uint `json:"warehouse_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var warehouse models.Warehouse
		if err := tx.Where("id = ? AND is_active = ?", in.WarehouseID, true).
			First(&warehouse).Error; err != nil {
			return err
		}
		return makeDefault(tx, warehouse.ID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Warehouse not found or inactive")
			return
		}
		utils.ServerError(c, "warehouses", "SetDefaultWarehouse", err)
		return
	}

	var warehouse models.Warehouse
	if err := config.DB.First(&warehouse, in.WarehouseID).Error; err != nil {
		utils.ServerError(c, "warehouses", "SetDefaultWarehouse", err)
		return
	}
	utils.Success(c, "Default warehouse set", warehouse)
}

func GetWarehouseStock(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid warehouse id")
		return
	}

	var warehouse models.Warehouse
	if err := config.DB.First(&warehouse, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Warehouse not found")
			return
		}
		utils.ServerError(c, "warehouses", "GetWarehouseStock", err)
		return
	}

	var products []models.Product
	if err := config.DB.Where("is_active = ? AND quantity > 0", true).
		Order("name ASC").Find(&products).Error; err != nil {
		utils.ServerError(c, "warehouses", "GetWarehouseStock", err)
		return
	}

	totalUnits := 0
	value := decimal.Zero
	for _, p := range products {
		totalUnits += p.Quantity
		value = value.Add(p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}

	utils.Success(c, "Warehouse stock retrieved", gin.H{
		"warehouse":   warehouse,
		"products":    products,
		"total_units": totalUnits,
		"stock_value": value,
	})
}

func TransferWarehouseStock(c *gin.Context) {
	var in WarehouseTransferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		utils.Error(c, http.StatusBadRequest, "Source and destination warehouses must differ")
		return
	}

	var entry *models.StockTransaction
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var from, to models.Warehouse
		if err := tx.Where("id = ? AND is_active = ?", in.FromWarehouseID, true).
			First(&from).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ? AND is_active = ?", in.ToWarehouseID, true).
			First(&to).Error; err != nil {
			return err
		}

		var txErr error
		entry, txErr = applyStockDelta(tx, in.ProductID, -in.Quantity, stockLogOptions{
			Type:          models.TxTransfer,
			WarehouseID:   &in.FromWarehouseID,
			ToWarehouseID: &in.ToWarehouseID,
			Notes:         in.Notes,
			PerformedBy:   performedBy(c),
		})
		return txErr
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Product or warehouse not found")
			return
		}
		if errors.Is(err, models.ErrInsufficientStock) {
			utils.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		utils.ServerError(c, "warehouses", "TransferWarehouseStock", err)
		return
	}
	utils.Success(c, "Stock transferred", entry)
}

func GetWarehouseStats(c *gin.Context) {
	var total, active int64
	if err := config.DB.Model(&models.Warehouse{}).Count(&total).Error; err != nil {
		utils.ServerError(c, "warehouses", "GetWarehouseStats", err)
		return
	}
	if err := config.DB.Model(&models.Warehouse{}).
		Where("is_active = ?", true).Count(&active).Error; err != nil {
		utils.ServerError(c, "warehouses", "GetWarehouseStats", err)
		return
	}

	var transfers int64
	if err := config.DB.Model(&models.StockTransaction{}).
		Where("type = ?", models.TxTransfer).Count(&transfers).Error; err != nil {
		utils.ServerError(c, "warehouses", "GetWarehouseStats", err)
		return
	}

	utils.Success(c, "Warehouse stats retrieved", gin.H{
		"total_warehouses":  total,
		"active_warehouses": active,
		"transfers":         transfers,
	})
}
