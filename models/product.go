package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Reference     string          `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	Quantity      int             `gorm:"not null;default:0" json:"quantity"`
	MinStock      int             `gorm:"not null;default:5" json:"min_stock"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"purchase_price"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"selling_price"`
	MarginRate    decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0.2" json:"margin_rate"`
	SupplierID    *uint           `gorm:"index" json:"supplier_id"`
	SupplierName  *string         `gorm:"size:200" json:"supplier_name"`
	Category      *string         `gorm:"size:100" json:"category"`
	Barcode       *string         `gorm:"size:100" json:"barcode"`
	Unit          *string         `gorm:"size:40" json:"unit"`
	ImagePath     *string         `gorm:"size:255" json:"image_path"`
	Notes         *string         `gorm:"size:500" json:"notes"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
