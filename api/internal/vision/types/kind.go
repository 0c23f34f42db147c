package types

import (
	"fmt"
	"strings"
)

// Kind selects the shape of the extracted result.
type Kind string

const (
	KindReceipt Kind = "receipt"
	KindMeal    Kind = "meal"
)

func (k Kind) String() string { return string(k) }

func (k Kind) Valid() bool {
	return k == KindReceipt || k == KindMeal
}

// ParseKind accepts the wire value case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unsupported type %q: expected receipt or meal", s)
	}
	return k, nil
}
