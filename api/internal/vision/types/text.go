package types

import (
	"bytes"
	"encoding/json"
)

// Text is a tolerant string for model output. Numbers and booleans keep their
// literal spelling; null, objects and arrays become "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = ""
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
		*t = Text(s)
	case '{', '[', 'n':
	default:
		*t = Text(b)
	}
	return nil
}
