package types

import (
	"bytes"
	"encoding/json"
)

// ReceiptResult is an itemized grocery receipt.
type ReceiptResult struct {
	Store string     `json:"store"`
	Date  string     `json:"date"`
	Items []LineItem `json:"items"`
	Total Number     `json:"total"`
}

type LineItem struct {
	Name     string `json:"name"`
	Quantity Number `json:"quantity"`
	Unit     string `json:"unit"`
	Price    Number `json:"price"`
	Category string `json:"category"` // Produce | Dairy | Meat | Bakery | ... | Unknown
}

// UnmarshalJSON only fails when items is not an array. Mistyped scalars
// decode to their zero value so the other fields survive.
func (r *ReceiptResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		Store Text       `json:"store"`
		Date  Text       `json:"date"`
		Items []LineItem `json:"items"`
		Total Number     `json:"total"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = ReceiptResult{
		Store: string(raw.Store),
		Date:  string(raw.Date),
		Items: raw.Items,
		Total: raw.Total,
	}
	return nil
}

// UnmarshalJSON takes a bare string as the item name. Other non-objects give
// an empty item.
func (it *LineItem) UnmarshalJSON(b []byte) error {
	*it = LineItem{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var name Text
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		it.Name = string(name)
		return nil
	case '{':
	default:
		return nil
	}

	var raw struct {
		Name     Text   `json:"name"`
		Quantity Number `json:"quantity"`
		Unit     Text   `json:"unit"`
		Price    Number `json:"price"`
		Category Text   `json:"category"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*it = LineItem{
		Name:     string(raw.Name),
		Quantity: raw.Quantity,
		Unit:     string(raw.Unit),
		Price:    raw.Price,
		Category: string(raw.Category),
	}
	return nil
}
