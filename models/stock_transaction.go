package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StockTransactionType string

const (
	TxEntry          StockTransactionType = "entry"
	TxExit           StockTransactionType = "exit"
	TxSale           StockTransactionType = "sale"
	TxPurchase       StockTransactionType = "purchase"
	TxReceive        StockTransactionType = "receive"
	TxDispense       StockTransactionType = "dispense"
	TxReturnCustomer StockTransactionType = "returnCustomer"
	TxReturnSupplier StockTransactionType = "returnSupplier"
	TxExpired        StockTransactionType = "expired"
	TxDamaged        StockTransactionType = "damaged"
	TxAdjustAdd      StockTransactionType = "adjust_add"
	TxAdjustRemove   StockTransactionType = "adjust_remove"
	TxTransfer       StockTransactionType = "transfer"
)

// StockDelta returns the sign of the stock effect for a transaction type.
// The second return value is false for unknown types; the type enum is closed
// and an unknown type is a client error, never a no-op ledger row.
func StockDelta(t StockTransactionType) (int, bool) {
	switch t {
	case TxEntry, TxPurchase, TxReceive, TxReturnCustomer, TxAdjustAdd:
		return 1, true
	case TxExit, TxSale, TxDispense, TxExpired, TxDamaged, TxReturnSupplier, TxAdjustRemove, TxTransfer:
		return -1, true
	}
	return 0, false
}

// StockTransaction is the append-only stock ledger. quantity is always the
// positive magnitude; quantity_before/after snapshot the product's cached
// quantity around the mutation. Rows are never updated after insert except
// notes/reason and the approval flag, and never deleted except same-day
// unapproved rows.
type StockTransaction struct {
	ID               uint                 `gorm:"primaryKey" json:"id"`
	ProductID        uint                 `gorm:"index;not null" json:"product_id"`
	ProductReference string               `gorm:"size:100;not null" json:"product_reference"`
	ProductName      string               `gorm:"size:200;not null" json:"product_name"`
	Type             StockTransactionType `gorm:"size:40;index;not null" json:"type"`
	Quantity         int                  `gorm:"not null" json:"quantity"`
	QuantityBefore   int                  `gorm:"not null" json:"quantity_before"`
	QuantityAfter    int                  `gorm:"not null" json:"quantity_after"`
	UnitPrice        decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	WarehouseID      *uint                `json:"warehouse_id"`
	ToWarehouseID    *uint                `json:"to_warehouse_id"`
	ReferenceID      *uint                `gorm:"index" json:"reference_id"`
	Reason           *string              `gorm:"size:255" json:"reason"`
	Notes            *string              `gorm:"size:500" json:"notes"`
	PerformedBy      string               `gorm:"size:100;not null;default:system" json:"performed_by"`
	ApprovedBy       *string              `gorm:"size:100" json:"approved_by"`
	RequiresApproval bool                 `gorm:"not null;default:false" json:"requires_approval"`
	IsApproved       bool                 `gorm:"not null;default:true" json:"is_approved"`
	CreatedAt        time.Time            `gorm:"index" json:"created_at"`

	TotalAmount decimal.Decimal `gorm:"-" json:"total_amount"`
}

func (t *StockTransaction) AfterFind(*gorm.DB) error {
	t.TotalAmount = t.UnitPrice.Mul(decimal.NewFromInt(int64(t.Quantity)))
	return nil
}
