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

type ProductCreateInput struct {
	Reference     string           `json:"reference" binding:"required"`
	Name          string           `json:"name" binding:"required"`
	Quantity      *int             `json:"quantity" binding:"required,gte=0"`
	PurchasePrice *decimal.Decimal `json:"purchase_price" binding:"required"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	MarginRate    *decimal.Decimal `json:"margin_rate"`
	MinStock      *int             `json:"min_stock"`
	SupplierID    *uint            `json:"supplier_id"`
	SupplierName  *string          `json:"supplier_name"`
	Category      *string          `json:"category"`
	Barcode       *string          `json:"barcode"`
	Unit          *string          `json:"unit"`
	ImagePath     *string          `json:"image_path"`
	Notes         *string          `json:"notes"`
}

type ProductUpdateInput struct {
	Reference     *string          `json:"reference"`
	Name          *string          `json:"name"`
	MinStock      *int             `json:"min_stock"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	MarginRate    *decimal.Decimal `json:"margin_rate"`
	SupplierID    *uint            `json:"supplier_id"`
	SupplierName  *string          `json:"supplier_name"`
	Category      *string          `json:"category"`
	Barcode       *string          `json:"barcode"`
	Unit          *string          `json:"unit"`
	ImagePath     *string          `json:"image_path"`
	Notes         *string          `json:"notes"`
	IsActive      *bool            `json:"is_active"`
}

func GetProducts(c *gin.Context) {
	var products []models.Product
	if err := config.DB.Where("is_active = ?", true).
		Order("created_at DESC").Find(&products).Error; err != nil {
		utils.ServerError(c, "products", "GetProducts", err)
		return
	}
	utils.Success(c, "Products retrieved", products)
}

func GetProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	var product models.Product
	if err := config.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Product not found")
			return
		}
		utils.ServerError(c, "products", "GetProduct", err)
		return
	}
	utils.Success(c, "Product retrieved", product)
}

func CreateProduct(c *gin.Context) {
	var in ProductCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	margin := utils.DefaultMarginRate
	if in.MarginRate != nil {
		margin = *in.MarginRate
	}
	selling := utils.CalculateSellingPrice(*in.PurchasePrice, margin)
	if in.SellingPrice != nil {
		selling = *in.SellingPrice
	}
	minStock := 5
	if in.MinStock != nil {
		minStock = *in.MinStock
	}

	product := models.Product{
		Reference:     in.Reference,
		Name:          in.Name,
		Quantity:      *in.Quantity,
		MinStock:      minStock,
		PurchasePrice: *in.PurchasePrice,
		SellingPrice:  selling,
		MarginRate:    margin,
		SupplierID:    in.SupplierID,
		SupplierName:  in.SupplierName,
		Category:      in.Category,
		Barcode:       in.Barcode,
		Unit:          in.Unit,
		ImagePath:     in.ImagePath,
		Notes:         in.Notes,
		IsActive:      true,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		if product.Quantity > 0 {
			entry := models.StockTransaction{
				ProductID:        product.ID,
				ProductReference: product.Reference,
				ProductName:      product.Name,
				Type:             models.TxEntry,
				Quantity:         product.Quantity,
				QuantityBefore:   0,
				QuantityAfter:    product.Quantity,
				UnitPrice:        product.PurchasePrice,
				PerformedBy:      performedBy(c),
				IsApproved:       true,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if utils.IsDuplicateKey(err) {
			utils.Error(c, http.StatusConflict, "A product with this reference already exists")
			return
		}
		utils.ServerError(c, "products", "CreateProduct", err)
		return
	}

	var created models.Product
	if err := config.DB.First(&created, product.ID).Error; err != nil {
		utils.ServerError(c, "products", "CreateProduct", err)
		return
	}
	utils.Success(c, "Product created", created)
}

func UpdateProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	var in ProductUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var product models.Product
	if err := config.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "Product not found")
			return
		}
		utils.ServerError(c, "products", "UpdateProduct", err)
		return
	}

	updates := map[string]interface{}{}
	if in.Reference != nil {
		updates["reference"] = *in.Reference
	}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.MinStock != nil {
		updates["min_stock"] = *in.MinStock
	}
	if in.PurchasePrice != nil {
		updates["purchase_price"] = *in.PurchasePrice
	}
	if in.SellingPrice != nil {
		updates["selling_price"] = *in.SellingPrice
	}
	if in.MarginRate != nil {
		updates["margin_rate"] = *in.MarginRate
	}
	if in.SupplierID != nil {
		updates["supplier_id"] = *in.SupplierID
	}
	if in.SupplierName != nil {
		updates["supplier_name"] = *in.SupplierName
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.Barcode != nil {
		updates["barcode"] = *in.Barcode
	}
	if in.Unit != nil {
		updates["unit"] = *in.Unit
	}
	if in.ImagePath != nil {
		updates["image_path"] = *in.ImagePath
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		utils.Success(c, "Nothing to update", product)
		return
	}

	if err := config.DB.Model(&product).Updates(updates).Error; err != nil {
		if utils.IsDuplicateKey(err) {
			utils.Error(c, http.StatusConflict, "A product with this reference already exists")
			return
		}
		utils.ServerError(c, "products", "UpdateProduct", err)
		return
	}

	var updated models.Product
	if err := config.DB.First(&updated, id).Error; err != nil {
		utils.ServerError(c, "products", "UpdateProduct", err)
		return
	}
	utils.Success(c, "Product updated", updated)
}

func DeleteProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	res := config.DB.Model(&models.Product{}).
		Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		utils.ServerError(c, "products", "DeleteProduct", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, http.StatusNotFound, "Product not found")
		return
	}
	utils.Success(c, "Product deleted", nil)
}

type StockMoveInput struct {
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Reason   *string `json:"reason"`
	Notes    *string `json:"notes"`
}

func AddProductStock(c *gin.Context) {
	adjustProductStock(c, 1, models.TxEntry, "AddProductStock", "Stock added")
}

func RemoveProductStock(c *gin.Context) {
	adjustProductStock(c, -1, models.TxExit, "RemoveProductStock", "Stock removed")
}

func adjustProductStock(c *gin.Context, sign int, txType models.StockTransactionType, handler string, okMessage string) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	var in StockMoveInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var entry *models.StockTransaction
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applyStockDelta(tx, id, sign*in.Quantity, stockLogOptions{
			Type:        txType,
			Reason:      in.Reason,
			Notes:       in.Notes,
			PerformedBy: performedBy(c),
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
		utils.ServerError(c, "products", handler, err)
		return
	}
	utils.Success(c, okMessage, entry)
}

func GetProductCategories(c *gin.Context) {
	var categories []string
	if err := config.DB.Model(&models.Product{}).
		Where("category IS NOT NULL AND category != '' AND is_active = ?", true).
		Distinct().Order("category ASC").Pluck("category", &categories).Error; err != nil {
		utils.ServerError(c, "products", "GetProductCategories", err)
		return
	}
	utils.Success(c, "Categories retrieved", categories)
}

func GetProductSuppliers(c *gin.Context) {
	var suppliers []string
	if err := config.DB.Model(&models.Product{}).
		Where("supplier_name IS NOT NULL AND supplier_name != '' AND is_active = ?", true).
		Distinct().Order("supplier_name ASC").Pluck("supplier_name", &suppliers).Error; err != nil {
		utils.ServerError(c, "products", "GetProductSuppliers", err)
		return
	}
	utils.Success(c, "Suppliers retrieved", suppliers)
}

func GetLowStockProducts(c *gin.Context) {
	var products []models.Product
	if err := config.DB.Where("is_active = ? AND quantity <= min_stock", true).
		Order("quantity ASC").Find(&products).Error; err != nil {
		utils.ServerError(c, "products", "GetLowStockProducts", err)
		return
	}
	utils.Success(c, "Low stock products retrieved", products)
}

func GetProductStats(c *gin.Context) {
	var total, lowStock, outOfStock int64
	var stockValue struct {
		PurchaseValue decimal.Decimal `json:"purchase_value"`
		SellingValue  decimal.Decimal `json:"selling_value"`
	}

	db := config.DB.Model(&models.Product{}).Where("is_active = ?", true)
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		utils.ServerError(c, "products", "GetProductStats", err)
		return
	}
	if err := db.Session(&gorm.Session{}).Where("quantity <= min_stock").Count(&lowStock).Error; err != nil {
		utils.ServerError(c, "products", "GetProductStats", err)
		return
	}
	if err := db.Session(&gorm.Session{}).Where("quantity = 0").Count(&outOfStock).Error; err != nil {
		utils.ServerError(c, "products", "GetProductStats", err)
		return
	}
	if err := config.DB.Model(&models.Product{}).Where("is_active = ?", true).
		Select("COALESCE(SUM(quantity * purchase_price), 0) AS purchase_value, COALESCE(SUM(quantity * selling_price), 0) AS selling_value").
		Scan(&stockValue).Error; err != nil {
		utils.ServerError(c, "products", "GetProductStats", err)
		return
	}

	utils.Success(c, "Product stats retrieved", gin.H{
		"total_products": total,
		"low_stock":      lowStock,
		"out_of_stock":   outOfStock,
		"stock_value":    stockValue,
	})
}

func GetRecentProductTransactions(c *gin.Context) {
	limit := getInt(c, "limit", 50)

	var entries []models.StockTransaction
	if err := config.DB.Order("created_at DESC").
		Limit(limit).Find(&entries).Error; err != nil {
		utils.ServerError(c, "products", "GetRecentProductTransactions", err)
		return
	}
	utils.Success(c, "Transactions retrieved", entries)
}
