package handle

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"pantry-scan/api/internal/scan"
	"pantry-scan/api/internal/vision/types"
)

func setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// Scan handles POST /api/scan.
func (h *Handle) Scan(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Error: "method not allowed"})
		return
	}

	if !h.authorized(r) {
		h.fail(w, r, &types.UnauthorizedError{})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	var req scan.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.fail(w, r, &types.ValidationError{Field: "body", Msg: "request body too large"})
			return
		}
		h.fail(w, r, &types.ValidationError{Field: "body", Msg: "invalid JSON body: " + err.Error()})
		return
	}
	req.ID = RequestID(r.Context())

	logger := zerolog.Ctx(r.Context()).With().
		Str("kind", req.Type).
		Str("provider", req.Provider).
		Logger()
	ctx := logger.WithContext(r.Context())

	out, err := h.svc.Scan(ctx, req)
	if err != nil {
		h.fail(w, r.WithContext(ctx), err)
		return
	}
	logger.Info().Bool("fallback", out.Fallback).Msg("scan done")
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: out.Data()})
}

func (h *Handle) authorized(r *http.Request) bool {
	if h.opts.Secret == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.opts.Secret)) == 1
}

func (h *Handle) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := types.HTTPStatus(err)
	body := envelope{Error: err.Error()}

	var (
		ge *types.GatewayError
		ve *types.ValidationError
	)
	switch {
	case errors.As(err, &ge):
		body.Details = ge.Details()
	case errors.As(err, &ve):
		body.Details = map[string]any{"field": ve.Field}
	}

	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("scan failed")
	} else {
		logger.Info().Err(err).Int("status", status).Msg("scan rejected")
	}
	writeJSON(w, status, body)
}

// Root serves the scan endpoint at "/"; a plain GET gets page instead when it is set.
func (h *Handle) Root(page http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeJSON(w, http.StatusNotFound, envelope{Error: "not found"})
			return
		}
		if page != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
			page.ServeHTTP(w, r)
			return
		}
		h.Scan(w, r)
	}
}
