package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClientDerivedBalance(t *testing.T) {
	client := Client{
		TotalPurchases: decimal.RequireFromString("500"),
		TotalPaid:      decimal.RequireFromString("320"),
	}
	if err := client.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if !client.Balance.Equal(decimal.RequireFromString("180")) {
		t.Errorf("Balance = %s, want 180", client.Balance)
	}
	if !client.HasDebt {
		t.Error("client with balance not flagged as debtor")
	}

	client.TotalPaid = client.TotalPurchases
	if err := client.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if client.HasDebt {
		t.Error("settled client flagged as debtor")
	}
	if !client.Balance.IsZero() {
		t.Errorf("Balance = %s, want 0", client.Balance)
	}
}

func TestSupplierHasBalance(t *testing.T) {
	supplier := Supplier{CurrentBalance: decimal.RequireFromString("75.50")}
	if err := supplier.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if !supplier.HasBalance {
		t.Error("supplier with balance not flagged")
	}

	supplier.CurrentBalance = decimal.Zero
	if err := supplier.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if supplier.HasBalance {
		t.Error("zero-balance supplier flagged")
	}
}
