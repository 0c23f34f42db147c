package normalize

import (
	"github.com/shopspring/decimal"

	"pantry-scan/api/internal/vision/types"
)

var totalTolerance = decimal.New(1, -2) // 0.01

// check runs advisory consistency checks. It never modifies the result.
func check(o Outcome) []string {
	var warns []string
	switch {
	case o.Receipt != nil:
		if _, ok := ReceiptTotalMatches(*o.Receipt); !ok {
			warns = append(warns, WarnTotalMismatch)
		}
	case o.Meal != nil:
		if len(o.Meal.UnmatchedPortions()) > 0 {
			warns = append(warns, WarnPortionsUnmatched)
		}
	}
	return warns
}

// ReceiptTotalMatches sums item prices and compares with the printed total.
// A zero total counts as "not printed" and always matches.
func ReceiptTotalMatches(r types.ReceiptResult) (decimal.Decimal, bool) {
	sum := decimal.Zero
	for _, it := range r.Items {
		sum = sum.Add(decimal.NewFromFloat(it.Price.Float64()))
	}
	total := decimal.NewFromFloat(r.Total.Float64())
	if total.IsZero() {
		return sum, true
	}
	return sum, sum.Sub(total).Abs().LessThanOrEqual(totalTolerance)
}
