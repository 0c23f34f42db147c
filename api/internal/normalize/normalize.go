package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pantry-scan/api/internal/util"
	"pantry-scan/api/internal/vision/types"
)

const (
	WarnPortionsUnmatched = "portions_unmatched"
	WarnTotalMismatch     = "total_mismatch"
)

var errEmptyOutput = errors.New("empty model output")

// Meta identifies the call that produced the text; it ends up in diagnostics.
type Meta struct {
	RequestID string
	Provider  string
	Model     string
}

// Outcome is always well-shaped: either the parsed result or the placeholder for Kind.
type Outcome struct {
	Kind     types.Kind
	Receipt  *types.ReceiptResult
	Meal     *types.MealResult
	Fallback bool
	Reason   error    // why the fallback was used
	Warnings []string // advisory checks that did not block the result
}

// Data is the payload for the response envelope.
func (o Outcome) Data() any {
	if o.Kind == types.KindMeal {
		return o.Meal
	}
	return o.Receipt
}

type Normalizer struct {
	sink Sink
	now  func() time.Time
}

func New(sink Sink) *Normalizer {
	if sink == nil {
		sink = NopSink{}
	}
	return &Normalizer{sink: sink, now: time.Now}
}

type step func(string) (string, error)

// Normalize turns model text into a result for kind. It never fails: anything
// unusable becomes the deterministic placeholder and is handed to the sink.
func (n *Normalizer) Normalize(ctx context.Context, kind types.Kind, text string, meta Meta) Outcome {
	logger := zerolog.Ctx(ctx)

	out, err := n.parse(kind, text)
	if err == nil {
		out.Warnings = check(out)
		if len(out.Warnings) > 0 {
			logger.Warn().Strs("warnings", out.Warnings).Str("kind", kind.String()).Msg("model output accepted with warnings")
		}
		return out
	}

	logger.Warn().
		Err(err).
		Str("kind", kind.String()).
		Str("raw", util.Truncate(text, 2048)).
		Msg("unusable model output, returning placeholder")

	rec := Record{
		RequestID: meta.RequestID,
		Kind:      kind,
		Provider:  meta.Provider,
		Model:     meta.Model,
		Reason:    err.Error(),
		RawText:   text,
		At:        n.now().UTC(),
	}
	if serr := n.sink.Record(ctx, rec); serr != nil {
		logger.Error().Err(serr).Msg("diagnostics sink failed")
	}

	fb := Fallback(kind)
	fb.Reason = err
	return fb
}

func (n *Normalizer) parse(kind types.Kind, text string) (Outcome, error) {
	s := text
	for _, fn := range []step{trim, stripFences, isolateObject} {
		var err error
		if s, err = fn(s); err != nil {
			return Outcome{}, err
		}
	}

	obj, err := parseObject(s)
	if err != nil {
		return Outcome{}, err
	}

	switch kind {
	case types.KindReceipt:
		if err := requireArray(kind, obj, "items"); err != nil {
			return Outcome{}, err
		}
		var r types.ReceiptResult
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			return Outcome{}, &types.ShapeError{Kind: kind, Field: "items", Msg: err.Error()}
		}
		return Outcome{Kind: kind, Receipt: &r}, nil
	case types.KindMeal:
		if err := requireArray(kind, obj, "ingredients"); err != nil {
			return Outcome{}, err
		}
		var m types.MealResult
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return Outcome{}, &types.ShapeError{Kind: kind, Field: "ingredients", Msg: err.Error()}
		}
		return Outcome{Kind: kind, Meal: &m}, nil
	default:
		return Outcome{}, fmt.Errorf("unsupported type %q", kind)
	}
}

func trim(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &types.ParseError{Err: errEmptyOutput}
	}
	return s, nil
}

func stripFences(s string) (string, error) {
	return util.StripCodeFences(s), nil
}

// isolateObject keeps s when it already parses, otherwise cuts the first '{' .. last '}' span.
func isolateObject(s string) (string, error) {
	if json.Valid([]byte(s)) {
		return s, nil
	}
	obj := util.ExtractJSONObject(s)
	if obj == "" {
		return "", &types.ParseError{Err: errors.New("no JSON object in model output")}
	}
	return obj, nil
}

func parseObject(s string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, &types.ParseError{Err: err}
	}
	if obj == nil {
		return nil, &types.ParseError{Err: errors.New("model output is null")}
	}
	return obj, nil
}

func requireArray(kind types.Kind, obj map[string]json.RawMessage, field string) error {
	raw, ok := obj[field]
	if !ok {
		return &types.ShapeError{Kind: kind, Field: field, Msg: "is missing"}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return &types.ShapeError{Kind: kind, Field: field, Msg: "is not an array"}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) == 0 {
		return &types.ShapeError{Kind: kind, Field: field, Msg: "is empty"}
	}
	return nil
}
