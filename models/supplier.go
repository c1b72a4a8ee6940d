package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supplier balance semantics are the reverse of Client: current_balance rises
// when a supply order is received and falls (floored at zero) on payment.
type Supplier struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Code           string          `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name           string          `gorm:"size:200;not null" json:"name"`
	ContactPerson  *string         `gorm:"size:120" json:"contact_person"`
	Phone          *string         `gorm:"size:40" json:"phone"`
	Email          *string         `gorm:"size:120" json:"email"`
	Address        *string         `gorm:"size:255" json:"address"`
	PaymentTerms   *string         `gorm:"size:120" json:"payment_terms"`
	DeliveryDays   *int            `json:"delivery_days"`
	CreditLimit    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"credit_limit"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"current_balance"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	HasBalance bool `gorm:"-" json:"has_balance"`
}

func (s *Supplier) AfterFind(*gorm.DB) error {
	s.HasBalance = s.CurrentBalance.GreaterThan(decimal.Zero)
	return nil
}

type SupplierTransactionType string

const (
	SupplierTxSupply  SupplierTransactionType = "supply"
	SupplierTxPayment SupplierTransactionType = "payment"
)

type SupplierTransaction struct {
	ID            uint                    `gorm:"primaryKey" json:"id"`
	SupplierID    uint                    `gorm:"index;not null" json:"supplier_id"`
	Type          SupplierTransactionType `gorm:"size:20;not null" json:"type"`
	Amount        decimal.Decimal         `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal         `gorm:"type:decimal(12,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal         `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	ReferenceID   *uint                   `gorm:"index" json:"reference_id"`
	Notes         *string                 `gorm:"size:500" json:"notes"`
	CreatedAt     time.Time               `gorm:"index" json:"created_at"`
}
