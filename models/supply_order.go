package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SupplyOrderStatus string

const (
	SupplyDraft             SupplyOrderStatus = "draft"
	SupplyApproved          SupplyOrderStatus = "approved"
	SupplyPartiallyReceived SupplyOrderStatus = "partiallyReceived"
	SupplyReceived          SupplyOrderStatus = "received"
	SupplyCancelled         SupplyOrderStatus = "cancelled"
)

type SupplyOrder struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	OrderNumber      string            `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	SupplierID       *uint             `gorm:"index" json:"supplier_id"`
	SupplierName     *string           `gorm:"size:200" json:"supplier_name"`
	Status           SupplyOrderStatus `gorm:"size:24;index;not null;default:draft" json:"status"`
	TotalAmount      decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	ExpectedDelivery *time.Time        `json:"expected_delivery"`
	Notes            *string           `gorm:"size:500" json:"notes"`
	CreatedBy        *string           `gorm:"size:100" json:"created_by"`
	Items            []SupplyOrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt        time.Time         `gorm:"index" json:"created_at"`
	ReceivedAt       *time.Time        `json:"received_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type SupplyOrderItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderID          uint            `gorm:"index;not null" json:"order_id"`
	ProductID        uint            `gorm:"index;not null" json:"product_id"`
	ProductReference string          `gorm:"size:100;not null" json:"product_reference"`
	ProductName      string          `gorm:"size:200;not null" json:"product_name"`
	QuantityOrdered  int             `gorm:"not null" json:"quantity_ordered"`
	QuantityReceived int             `gorm:"not null;default:0" json:"quantity_received"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`

	ReceivedPercentage float64 `gorm:"-" json:"received_percentage"`
}

func (i *SupplyOrderItem) AfterFind(*gorm.DB) error {
	if i.QuantityOrdered > 0 {
		i.ReceivedPercentage = float64(i.QuantityReceived) / float64(i.QuantityOrdered) * 100
	}
	return nil
}
