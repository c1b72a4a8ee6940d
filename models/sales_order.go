package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesOrderStatus string

const (
	SalesDraft     SalesOrderStatus = "draft"
	SalesConfirmed SalesOrderStatus = "confirmed"
	SalesCompleted SalesOrderStatus = "completed"
	SalesCancelled SalesOrderStatus = "cancelled"
)

type SalesOrder struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	OrderNumber        string           `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	InvoiceNumber      *string          `gorm:"size:64" json:"invoice_number"`
	CustomerID         *uint            `gorm:"index" json:"customer_id"`
	CustomerName       *string          `gorm:"size:200" json:"customer_name"`
	CustomerPhone      *string          `gorm:"size:40" json:"customer_phone"`
	SellerID           *uint            `json:"seller_id"`
	SellerName         *string          `gorm:"size:200" json:"seller_name"`
	Status             SalesOrderStatus `gorm:"size:20;index;not null;default:draft" json:"status"`
	PaymentMethod      string           `gorm:"size:20;not null;default:cash" json:"payment_method"`
	Subtotal           decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	Discount           decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	DiscountPercentage decimal.Decimal  `gorm:"type:decimal(6,2);not null;default:0" json:"discount_percentage"`
	TotalAmount        decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	PaidAmount         decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	Notes              *string          `gorm:"size:500" json:"notes"`
	Items              []SalesOrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt          time.Time        `gorm:"index" json:"created_at"`
	CompletedAt        *time.Time       `json:"completed_at"`
	UpdatedAt          time.Time        `json:"updated_at"`

	RemainingAmount decimal.Decimal `gorm:"-" json:"remaining_amount"`
	IsPaid          bool            `gorm:"-" json:"is_paid"`
}

func (o *SalesOrder) AfterFind(*gorm.DB) error {
	o.RemainingAmount = o.TotalAmount.Sub(o.PaidAmount)
	o.IsPaid = o.PaidAmount.GreaterThanOrEqual(o.TotalAmount)
	return nil
}

// SalesOrderItem snapshots product reference/name and prices at order time so
// completed orders stay stable when the catalog changes.
type SalesOrderItem struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	OrderID            uint             `gorm:"index;not null" json:"order_id"`
	ProductID          uint             `gorm:"index;not null" json:"product_id"`
	ProductReference   string           `gorm:"size:100;not null" json:"product_reference"`
	ProductName        string           `gorm:"size:200;not null" json:"product_name"`
	Quantity           int              `gorm:"not null" json:"quantity"`
	UnitPrice          decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	PurchasePrice      decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"purchase_price"`
	Discount           *decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount"`
	DiscountPercentage *decimal.Decimal `gorm:"type:decimal(6,2)" json:"discount_percentage"`
	LineTotal          decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"line_total"`
}

// SalesLineTotal applies the per-item discount rules: a flat discount wins
// over a percentage, absent both the line is quantity * unit_price.
func SalesLineTotal(quantity int, unitPrice decimal.Decimal, discount, discountPct *decimal.Decimal) decimal.Decimal {
	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if discount != nil {
		return total.Sub(*discount)
	}
	if discountPct != nil {
		return total.Sub(total.Mul(*discountPct).Div(decimal.NewFromInt(100)))
	}
	return total
}
