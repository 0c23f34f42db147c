package scan

import (
	"pantry-scan/api/internal/normalize"
	"pantry-scan/api/internal/vision/types"
)

// Canned returns the fixed connectivity-check result for kind.
func Canned(kind types.Kind) normalize.Outcome {
	if kind == types.KindMeal {
		return normalize.Outcome{Kind: kind, Meal: cannedMeal()}
	}
	return normalize.Outcome{Kind: types.KindReceipt, Receipt: cannedReceipt()}
}

func cannedReceipt() *types.ReceiptResult {
	return &types.ReceiptResult{
		Store: "Test Grocery",
		Date:  "2024-01-15",
		Items: []types.LineItem{
			{Name: "Bread", Quantity: 1, Unit: "loaf", Price: 2.99, Category: "Bakery"},
			{Name: "Eggs", Quantity: 12, Unit: "eggs", Price: 3.49, Category: "Dairy"},
			{Name: "Milk", Quantity: 1, Unit: "gallon", Price: 4.29, Category: "Dairy"},
		},
		Total: 10.77,
	}
}

func cannedMeal() *types.MealResult {
	return &types.MealResult{
		MealName:    "Test Pasta",
		Ingredients: []string{"pasta", "tomato sauce", "parmesan cheese"},
		EstimatedPortions: map[string]types.Number{
			"pasta":           1,
			"tomato sauce":    0.5,
			"parmesan cheese": 0.2,
		},
	}
}
