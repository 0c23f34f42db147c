package telegram

import (
	"fmt"
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/shopspring/decimal"

	"pantry-scan/api/internal/normalize"
	"pantry-scan/api/internal/vision/types"
)

// ParseCaption reads the kind from a photo caption such as "🧾 receipt" or "/meal".
func ParseCaption(caption string) (types.Kind, bool) {
	fields := strings.Fields(gomoji.RemoveEmojis(caption))
	if len(fields) == 0 {
		return "", false
	}
	k, err := types.ParseKind(strings.TrimPrefix(fields[0], "/"))
	return k, err == nil
}

func money(n types.Number) string {
	return decimal.NewFromFloat(n.Float64()).StringFixed(2)
}

func qty(n types.Number) string {
	return decimal.NewFromFloat(n.Float64()).String()
}

func FormatOutcome(o normalize.Outcome) string {
	var b strings.Builder
	if o.Fallback {
		b.WriteString("⚠️ I could not make sense of this photo, so this is only a placeholder.\n\n")
	}
	if o.Kind == types.KindMeal {
		b.WriteString(FormatMeal(o.Meal))
	} else {
		b.WriteString(FormatReceipt(o.Receipt))
	}
	return b.String()
}

func FormatReceipt(r *types.ReceiptResult) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("🧾 " + r.Store)
	if r.Date != "" {
		b.WriteString(" (" + r.Date + ")")
	}
	b.WriteString("\n")
	for _, it := range r.Items {
		fmt.Fprintf(&b, "• %s: %s %s, %s", it.Name, qty(it.Quantity), it.Unit, money(it.Price))
		if it.Category != "" {
			b.WriteString(" [" + it.Category + "]")
		}
		b.WriteString("\n")
	}
	b.WriteString("Total: " + money(r.Total))

	if sum, ok := normalize.ReceiptTotalMatches(*r); !ok {
		fmt.Fprintf(&b, "\n⚠️ Items add up to %s, which differs from the total.", sum.StringFixed(2))
	}
	return b.String()
}

func FormatMeal(m *types.MealResult) string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("🍽 " + m.MealName + "\n")
	for _, ing := range m.Ingredients {
		b.WriteString("• " + ing)
		if p, ok := m.EstimatedPortions[ing]; ok {
			b.WriteString(" ×" + qty(p))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
