package normalize

import (
	"context"
	"errors"
	"time"

	"pantry-scan/api/internal/vision/types"
)

// Record is one unusable model answer, kept for offline diagnosis.
type Record struct {
	RequestID string
	Kind      types.Kind
	Provider  string
	Model     string
	Reason    string
	RawText   string
	At        time.Time
}

// Sink stores Records. Failures are logged by the caller and never reach the client.
type Sink interface {
	Record(ctx context.Context, rec Record) error
}

type NopSink struct{}

func (NopSink) Record(context.Context, Record) error { return nil }

// MultiSink fans a record out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
