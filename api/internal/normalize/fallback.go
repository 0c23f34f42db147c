package normalize

import "pantry-scan/api/internal/vision/types"

// Fallback returns the deterministic placeholder for kind.
func Fallback(kind types.Kind) Outcome {
	if kind == types.KindMeal {
		return Outcome{Kind: kind, Meal: FallbackMeal(), Fallback: true}
	}
	return Outcome{Kind: types.KindReceipt, Receipt: FallbackReceipt(), Fallback: true}
}

func FallbackReceipt() *types.ReceiptResult {
	return &types.ReceiptResult{
		Store: "Unknown",
		Date:  "",
		Items: []types.LineItem{
			{Name: "Unrecognized item", Quantity: 1, Unit: "each", Price: 0, Category: "Unknown"},
		},
		Total: 0,
	}
}

func FallbackMeal() *types.MealResult {
	return &types.MealResult{
		MealName:          "Unknown meal",
		Ingredients:       []string{"unknown"},
		EstimatedPortions: map[string]types.Number{"unknown": 0.5},
	}
}
