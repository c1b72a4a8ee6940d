package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Client struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Code           string          `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name           string          `gorm:"size:200;not null" json:"name"`
	Phone          *string         `gorm:"size:40" json:"phone"`
	Email          *string         `gorm:"size:120" json:"email"`
	Address        *string         `gorm:"size:255" json:"address"`
	City           *string         `gorm:"size:100" json:"city"`
	Notes          *string         `gorm:"size:500" json:"notes"`
	TotalPurchases decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_purchases"`
	TotalPaid      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_paid"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Balance decimal.Decimal `gorm:"-" json:"balance"`
	HasDebt bool            `gorm:"-" json:"has_debt"`
}

func (c *Client) AfterFind(*gorm.DB) error {
	c.Balance = c.TotalPurchases.Sub(c.TotalPaid)
	c.HasDebt = c.Balance.GreaterThan(decimal.Zero)
	return nil
}

type ClientTransactionType string

const (
	ClientTxPurchase ClientTransactionType = "purchase"
	ClientTxPayment  ClientTransactionType = "payment"
)

// ClientTransaction is the append-only client balance ledger. balance_before
// and balance_after snapshot total_purchases - total_paid around the
// mutation, so history stays reconstructable even if the cached totals were
// ever corrupted.
type ClientTransaction struct {
	ID            uint                  `gorm:"primaryKey" json:"id"`
	ClientID      uint                  `gorm:"index;not null" json:"client_id"`
	Type          ClientTransactionType `gorm:"size:20;not null" json:"type"`
	Amount        decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	InvoiceNumber *string               `gorm:"size:64" json:"invoice_number"`
	ReferenceID   *uint                 `gorm:"index" json:"reference_id"`
	Notes         *string               `gorm:"size:500" json:"notes"`
	CreatedAt     time.Time             `gorm:"index" json:"created_at"`
}
