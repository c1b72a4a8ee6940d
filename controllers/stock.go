package controllers

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmed-mouatassim/saleflow/models"
)

type stockLogOptions struct {
	Type             models.StockTransactionType
	UnitPrice        decimal.Decimal
	WarehouseID      *uint
	ToWarehouseID    *uint
	ReferenceID      *uint
	Reason           *string
	Notes            *string
	PerformedBy      string
	RequiresApproval bool
}

// applyStockDelta is the single writer of product quantity and its ledger.
// It locks the product row, guards the non-negative invariant, writes the new
// quantity and appends the full ledger row, all in the caller's transaction.
func applyStockDelta(tx *gorm.DB, productID uint, delta int, opt stockLogOptions) (*models.StockTransaction, error) {
	var p models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, productID).Error; err != nil {
		return nil, err
	}

	before := p.Quantity
	after := before + delta
	if after < 0 {
		return nil, fmt.Errorf("%w for product %s (current: %d, requested: %d)",
			models.ErrInsufficientStock, p.Reference, before, -delta)
	}

	if err := tx.Model(&models.Product{}).
		Where("id = ?", p.ID).
		Update("quantity", after).Error; err != nil {
		return nil, err
	}

	return appendStockLedger(tx, &p, delta, before, after, opt)
}

// applyConditionalStockDecrement is the order-completion variant: a single
// conditional UPDATE so two concurrent completions cannot both win the last
// units. Zero rows affected means insufficient stock.
func applyConditionalStockDecrement(tx *gorm.DB, productID uint, quantity int, opt stockLogOptions) (*models.StockTransaction, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return nil, res.Error
	}

	var p models.Product
	if err := tx.First(&p, productID).Error; err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w for product %s (current: %d, requested: %d)",
			models.ErrInsufficientStock, p.Reference, p.Quantity, quantity)
	}

	after := p.Quantity
	return appendStockLedger(tx, &p, -quantity, after+quantity, after, opt)
}

func appendStockLedger(tx *gorm.DB, p *models.Product, delta int, before int, after int, opt stockLogOptions) (*models.StockTransaction, error) {
	quantity := delta
	if quantity < 0 {
		quantity = -quantity
	}
	performer := opt.PerformedBy
	if performer == "" {
		performer = "system"
	}

	entry := models.StockTransaction{
		ProductID:        p.ID,
		ProductReference: p.Reference,
		ProductName:      p.Name,
		Type:             opt.Type,
		Quantity:         quantity,
		QuantityBefore:   before,
		QuantityAfter:    after,
		UnitPrice:        opt.UnitPrice,
		WarehouseID:      opt.WarehouseID,
		ToWarehouseID:    opt.ToWarehouseID,
		ReferenceID:      opt.ReferenceID,
		Reason:           opt.Reason,
		Notes:            opt.Notes,
		PerformedBy:      performer,
		RequiresApproval: opt.RequiresApproval,
		IsApproved:       !opt.RequiresApproval,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
