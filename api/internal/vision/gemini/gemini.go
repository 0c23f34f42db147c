package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"pantry-scan/api/internal/util"
	"pantry-scan/api/internal/vision"
	"pantry-scan/api/internal/vision/types"
)

const defaultModel = "gemini-2.5-flash"

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Engine struct {
	APIKey  string
	Timeout time.Duration // whole-call deadline; 0 means none
	model   string

	// dial opens a model handle; replaced in tests.
	dial func(ctx context.Context) (generator, io.Closer, error)
}

func New(apiKey, model string) *Engine {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	e := &Engine{
		APIKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
	}
	e.dial = e.dialGenAI
	return e
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) Model() string    { return e.model }
func (e *Engine) Configured() bool { return e.APIKey != "" }

func (e *Engine) dialGenAI(ctx context.Context) (generator, io.Closer, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, nil, err
	}
	m := cl.GenerativeModel(e.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	return m, cl, nil
}

func (e *Engine) Complete(ctx context.Context, req vision.Request) (string, error) {
	if e.APIKey == "" {
		return "", &types.ConfigurationError{Setting: "GEMINI_API_KEY"}
	}

	imgBytes, mime, err := util.DecodeBase64MaybeDataURL(req.ImageDataURL)
	if err != nil {
		return "", &types.InvalidImageError{Reason: "base64 payload does not decode"}
	}
	if mime == "" {
		mime = util.SniffMimeHTTP(imgBytes)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	m, closer, err := e.dial(ctx)
	if err != nil {
		return "", gatewayError(err)
	}
	defer closer.Close()

	resp, err := m.GenerateContent(ctx,
		genai.Text(req.Prompt),
		genai.Blob{MIMEType: mime, Data: imgBytes},
	)
	if err != nil {
		return "", gatewayError(err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", &types.GatewayError{Provider: e.Name(), Status: http.StatusOK, Message: "empty response: no candidate text"}
	}
	return txt, nil
}

func gatewayError(err error) error {
	ge := &types.GatewayError{Provider: "gemini", Message: err.Error(), Err: err}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		ge.Status = gerr.Code
		if gerr.Message != "" {
			ge.Message = gerr.Message
		}
	}
	return ge
}

// firstText joins the text parts of the first candidate that has content.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
