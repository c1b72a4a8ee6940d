package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStockDelta(t *testing.T) {
	positive := []StockTransactionType{
		TxEntry, TxPurchase, TxReceive, TxReturnCustomer, TxAdjustAdd,
	}
	negative := []StockTransactionType{
		TxExit, TxSale, TxDispense, TxExpired, TxDamaged,
		TxReturnSupplier, TxAdjustRemove, TxTransfer,
	}

	for _, typ := range positive {
		sign, ok := StockDelta(typ)
		if !ok || sign != 1 {
			t.Errorf("StockDelta(%s) = (%d, %v), want (1, true)", typ, sign, ok)
		}
	}
	for _, typ := range negative {
		sign, ok := StockDelta(typ)
		if !ok || sign != -1 {
			t.Errorf("StockDelta(%s) = (%d, %v), want (-1, true)", typ, sign, ok)
		}
	}
}

func TestStockDeltaUnknownType(t *testing.T) {
	for _, typ := range []StockTransactionType{"", "theft", "SALE", "Entry"} {
		if _, ok := StockDelta(typ); ok {
			t.Errorf("StockDelta(%q) accepted an unknown type", typ)
		}
	}
}

func TestStockTransactionTotalAmount(t *testing.T) {
	entry := StockTransaction{
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("12.50"),
	}
	if err := entry.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	want := decimal.RequireFromString("37.50")
	if !entry.TotalAmount.Equal(want) {
		t.Errorf("TotalAmount = %s, want %s", entry.TotalAmount, want)
	}
}
