package types

import (
	"bytes"
	"encoding/json"

	"golang.org/x/exp/slices"
)

// MealResult lists the ingredients recognised on a photo of a meal.
// EstimatedPortions values are fractions of a standard portion; the 0.1–2.0
// range is requested in the prompt and is not enforced.
type MealResult struct {
	MealName          string            `json:"meal_name"`
	Ingredients       []string          `json:"ingredients"`
	EstimatedPortions map[string]Number `json:"estimated_portions"`
}

// UnmarshalJSON only fails when ingredients is not an array. A non-object
// estimated_portions is dropped.
func (m *MealResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		MealName          Text            `json:"meal_name"`
		Ingredients       []Text          `json:"ingredients"`
		EstimatedPortions json.RawMessage `json:"estimated_portions"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*m = MealResult{MealName: string(raw.MealName)}
	if raw.Ingredients != nil {
		m.Ingredients = make([]string, len(raw.Ingredients))
		for i, in := range raw.Ingredients {
			m.Ingredients[i] = string(in)
		}
	}
	if p := bytes.TrimSpace(raw.EstimatedPortions); len(p) > 0 && p[0] == '{' {
		if err := json.Unmarshal(p, &m.EstimatedPortions); err != nil {
			return err
		}
	}
	return nil
}

// UnmatchedPortions returns, sorted, the portion keys that do not name an ingredient.
func (m MealResult) UnmatchedPortions() []string {
	var out []string
	for k := range m.EstimatedPortions {
		if !slices.Contains(m.Ingredients, k) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
