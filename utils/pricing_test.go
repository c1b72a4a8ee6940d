package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateSellingPrice(t *testing.T) {
	cases := []struct {
		name     string
		purchase string
		margin   string
		want     string
	}{
		{"rounds up to 5 below 100", "40", "0.2", "50"},
		{"exact multiple of 5 stays", "50", "0.2", "60"},
		{"rounds up to 10 at 100 and above", "85", "0.2", "110"},
		{"exact multiple of 10 stays", "100", "0.2", "120"},
		{"fractional result below 100", "33.10", "0.2", "40"},
		{"zero margin still rounds", "47", "0", "50"},
		{"high margin crosses threshold", "90", "0.5", "140"},
		{"zero purchase price", "0", "0.2", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			purchase := decimal.RequireFromString(tc.purchase)
			margin := decimal.RequireFromString(tc.margin)
			want := decimal.RequireFromString(tc.want)

			got := CalculateSellingPrice(purchase, margin)
			if !got.Equal(want) {
				t.Errorf("CalculateSellingPrice(%s, %s) = %s, want %s",
					tc.purchase, tc.margin, got, want)
			}
		})
	}
}

func TestCalculateSellingPriceNeverBelowRaw(t *testing.T) {
	for _, purchase := range []string{"1", "19.99", "83.33", "99", "250", "999.95"} {
		p := decimal.RequireFromString(purchase)
		raw := p.Mul(decimal.NewFromInt(1).Add(DefaultMarginRate))
		got := CalculateSellingPrice(p, DefaultMarginRate)
		if got.LessThan(raw) {
			t.Errorf("selling price %s for purchase %s is below raw margin price %s", got, purchase, raw)
		}
	}
}
