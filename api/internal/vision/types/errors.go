package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "missing required field: " + e.Field
}

// InvalidImageError means the image failed the base64/length sniff test.
type InvalidImageError struct {
	Reason string
}

func (e *InvalidImageError) Error() string {
	return "invalid image format: " + e.Reason
}

// UnauthorizedError means the shared secret is missing or wrong.
type UnauthorizedError struct{}

func (e *UnauthorizedError) Error() string { return "unauthorized" }

// ConfigurationError is an operator-side problem, e.g. no upstream credential.
type ConfigurationError struct {
	Setting string
	Msg     string
}

func (e *ConfigurationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Setting + " is not configured"
}

// GatewayError means the upstream model answered with a non-2xx status or an unusable envelope.
// Status is 0 when the request never got an HTTP response.
type GatewayError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s upstream %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s upstream: %s", e.Provider, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Details is embedded into the error envelope for diagnosis.
func (e *GatewayError) Details() map[string]any {
	return map[string]any{
		"provider": e.Provider,
		"status":   e.Status,
		"message":  e.Message,
	}
}

// ParseError means the model text holds no parseable JSON object. Recovered by the normalizer.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ShapeError means the JSON parsed but lacks the required field for the kind. Recovered by the normalizer.
type ShapeError struct {
	Kind  Kind
	Field string
	Msg   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape %s: %s %s", e.Kind, e.Field, e.Msg)
}

// HTTPStatus maps the error taxonomy onto response codes.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		ie *InvalidImageError
		ue *UnauthorizedError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve), errors.As(err, &ie):
		return http.StatusBadRequest
	case errors.As(err, &ue):
		return http.StatusUnauthorized
	default:
		// configuration, gateway, unexpected
		return http.StatusInternalServerError
	}
}
