package vision

import (
	"context"
	"strings"

	"pantry-scan/api/internal/vision/types"
)

// Request is one upstream call: instruction text plus the photo as a data URL.
type Request struct {
	Prompt       string
	ImageDataURL string
}

// Engine is an upstream vision model. Complete returns the raw text of the
// first answer; a non-2xx or empty answer is a *types.GatewayError.
type Engine interface {
	Name() string
	Model() string
	Configured() bool
	Complete(ctx context.Context, req Request) (string, error)
}

type Engines struct {
	OpenAI  Engine
	Gemini  Engine
	Default string
}

func (e *Engines) GetEngine(llmName string) (Engine, error) {
	name := strings.ToLower(strings.TrimSpace(llmName))
	if name == "" {
		name = strings.ToLower(e.Default)
	}
	var eng Engine
	switch name {
	case "gpt", "openai":
		eng = e.OpenAI
	case "gemini":
		eng = e.Gemini
	default:
		return nil, &types.ConfigurationError{Setting: "VISION_PROVIDER", Msg: "unknown provider " + llmName + "; use 'gpt' or 'gemini'"}
	}
	if eng == nil {
		return nil, &types.ConfigurationError{Setting: "VISION_PROVIDER", Msg: "provider " + name + " is not enabled"}
	}
	return eng, nil
}
