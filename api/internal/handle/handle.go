package handle

import (
	"context"
	"encoding/json"
	"net/http"

	"pantry-scan/api/internal/normalize"
	"pantry-scan/api/internal/scan"
)

const defaultMaxBody = 20 << 20

// Scanner is the part of scan.Service the handlers need.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (normalize.Outcome, error)
}

type Options struct {
	Secret       string // API_SECRET_KEY; empty disables the check
	MaxBodyBytes int64
	Production   bool // hides stack traces from error details
}

type Handle struct {
	svc  Scanner
	opts Options
}

func New(svc Scanner, opts Options) *Handle {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBody
	}
	return &Handle{
		svc:  svc,
		opts: opts,
	}
}

// envelope is the body of every scan response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
