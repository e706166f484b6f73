package money

import (
	"stock-backend/internal/apperr"

	"github.com/shopspring/decimal"
)

const (
	Places = 2
	// PriceDigits and TotalDigits match decimal(10,2) and decimal(12,2) columns.
	PriceDigits = 10
	TotalDigits = 12
)

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Check rounds d to two places and rejects negative values or values that
// do not fit a decimal(digits,2) column.
func Check(field string, d decimal.Decimal, digits int) (decimal.Decimal, error) {
	d = Round(d)
	if d.IsNegative() {
		return d, apperr.Validation("%s cannot be negative.", field)
	}
	limit := decimal.New(1, int32(digits-Places))
	if d.GreaterThanOrEqual(limit) {
		return d, apperr.Validation("%s must have no more than %d digits in total.", field, digits)
	}
	return d, nil
}

// String renders d with exactly two decimal places, e.g. "12.50".
func String(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
