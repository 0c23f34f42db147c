package handle

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ctxKey struct{}

// RequestID returns the id assigned by Wrap, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Wrap assigns a request id, attaches a request logger and turns panics into a 500 envelope.
func (h *Handle) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		logger := log.Logger.With().Str("request_id", id).Str("path", r.URL.Path).Logger()
		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		ctx = logger.WithContext(ctx)
		r = r.WithContext(ctx)

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := string(debug.Stack())
			logger.Error().Str("panic", fmt.Sprint(rec)).Str("stack", stack).Msg("handler panic")

			body := envelope{Error: fmt.Sprint(rec)}
			if !h.opts.Production {
				body.Details = map[string]any{"stack": stack}
			}
			writeJSON(w, http.StatusInternalServerError, body)
		}()

		next.ServeHTTP(w, r)
	})
}
