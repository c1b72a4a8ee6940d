package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSalesLineTotal(t *testing.T) {
	flat := d("5")
	pct := d("10")
	bothFlat := d("20")

	cases := []struct {
		name        string
		quantity    int
		unitPrice   string
		discount    *decimal.Decimal
		discountPct *decimal.Decimal
		want        string
	}{
		{"no discount", 3, "25", nil, nil, "75"},
		{"flat discount", 3, "25", &flat, nil, "70"},
		{"percentage discount", 4, "25", nil, &pct, "90"},
		{"flat wins over percentage", 4, "25", &bothFlat, &pct, "80"},
		{"single unit", 1, "99.95", nil, nil, "99.95"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SalesLineTotal(tc.quantity, d(tc.unitPrice), tc.discount, tc.discountPct)
			if !got.Equal(d(tc.want)) {
				t.Errorf("SalesLineTotal = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSalesOrderDerivedFields(t *testing.T) {
	order := SalesOrder{
		TotalAmount: d("150"),
		PaidAmount:  d("100"),
	}
	if err := order.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if !order.RemainingAmount.Equal(d("50")) {
		t.Errorf("RemainingAmount = %s, want 50", order.RemainingAmount)
	}
	if order.IsPaid {
		t.Error("order with outstanding balance reported as paid")
	}

	order.PaidAmount = d("150")
	if err := order.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if !order.IsPaid {
		t.Error("fully paid order not reported as paid")
	}
	if !order.RemainingAmount.IsZero() {
		t.Errorf("RemainingAmount = %s, want 0", order.RemainingAmount)
	}
}

func TestSupplyOrderItemReceivedPercentage(t *testing.T) {
	item := SupplyOrderItem{QuantityOrdered: 8, QuantityReceived: 2}
	if err := item.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if item.ReceivedPercentage != 25 {
		t.Errorf("ReceivedPercentage = %v, want 25", item.ReceivedPercentage)
	}

	empty := SupplyOrderItem{}
	if err := empty.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if empty.ReceivedPercentage != 0 {
		t.Errorf("ReceivedPercentage for zero-ordered item = %v, want 0", empty.ReceivedPercentage)
	}
}
