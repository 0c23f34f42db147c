package scan

import (
	"regexp"
	"strings"

	"pantry-scan/api/internal/vision/types"
)

// Sentinel is the image value that returns canned data without calling the model.
const Sentinel = "test"

const (
	minImageLen = 100
	defaultMIME = "image/jpeg"
)

var (
	reDataURLPrefix = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,`)
	reBase64        = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
)

// Request is the body of POST /api/scan. ID is filled in by the transport.
type Request struct {
	Image    string `json:"image"`
	Type     string `json:"type"`
	Provider string `json:"provider,omitempty"`

	ID string `json:"-"`
}

// Validate checks field presence and the type discriminator.
func Validate(req Request) (types.Kind, error) {
	if strings.TrimSpace(req.Image) == "" {
		return "", &types.ValidationError{Field: "image"}
	}
	if strings.TrimSpace(req.Type) == "" {
		return "", &types.ValidationError{Field: "type"}
	}
	kind, err := types.ParseKind(req.Type)
	if err != nil {
		return "", &types.ValidationError{Field: "type", Msg: err.Error()}
	}
	return kind, nil
}

// CheckImage is a syntactic sniff test: optional data URL prefix, base64
// alphabet, minimum length. The bytes are never decoded.
func CheckImage(image string) (payload, mime string, err error) {
	payload = strings.TrimSpace(image)
	mime = defaultMIME
	if m := reDataURLPrefix.FindStringSubmatch(payload); m != nil {
		mime = "image/" + strings.ToLower(m[1])
		payload = payload[len(m[0]):]
	}
	if !reBase64.MatchString(payload) {
		return "", "", &types.InvalidImageError{Reason: "expected base64-encoded image data"}
	}
	if len(payload) < minImageLen {
		return "", "", &types.InvalidImageError{Reason: "image data too short"}
	}
	return payload, mime, nil
}
