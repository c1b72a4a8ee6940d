package utils

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	five    = decimal.NewFromInt(5)
	ten     = decimal.NewFromInt(10)
)

// DefaultMarginRate applies when a product is created without one.
var DefaultMarginRate = decimal.NewFromFloat(0.20)

// CalculateSellingPrice applies the margin and rounds up to a denomination
// customers actually pay: nearest 5 below 100, nearest 10 at or above.
func CalculateSellingPrice(purchasePrice decimal.Decimal, marginRate decimal.Decimal) decimal.Decimal {
	price := purchasePrice.Mul(decimal.NewFromInt(1).Add(marginRate))
	step := ten
	if price.LessThan(hundred) {
		step = five
	}
	return price.Div(step).Ceil().Mul(step)
}
