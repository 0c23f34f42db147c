package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a tolerant float for model output. It accepts 2.5, "2.50", "$3.49", "1,5" and null.
// Anything else ("N/A", true, [1]) decodes to 0. Always encodes as a bare JSON number.
type Number float64

func (n Number) Float64() float64 { return float64(n) }

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if f, ok := parseLooseFloat(s); ok {
			*n = Number(f)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var f float64
		if err := json.Unmarshal(b, &f); err == nil {
			*n = Number(f)
		}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(n))
}

func parseLooseFloat(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	t = strings.TrimLeft(t, "$€£¥₽")
	t = strings.TrimSpace(t)
	if t == "" {
		return 0, true
	}
	// decimal comma, but only when there is no dot
	if !strings.Contains(t, ".") && strings.Count(t, ",") == 1 {
		t = strings.Replace(t, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
