package gpt

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"pantry-scan/api/internal/vision"
	"pantry-scan/api/internal/vision/types"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1500
)

type Engine struct {
	APIKey string
	model  string
	client *openai.Client
}

// New builds the engine. baseURL may be empty (api.openai.com); timeout bounds the whole upstream call.
func New(key, model, baseURL string, timeout time.Duration) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}

	cfg := openai.DefaultConfig(strings.TrimSpace(key))
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout, Transport: tr}

	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Engine{
		APIKey: strings.TrimSpace(key),
		model:  strings.TrimSpace(model),
		client: openai.NewClientWithConfig(cfg),
	}
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) Model() string    { return e.model }
func (e *Engine) Configured() bool { return e.APIKey != "" }

func (e *Engine) Complete(ctx context.Context, req vision.Request) (string, error) {
	if e.APIKey == "" {
		return "", &types.ConfigurationError{Setting: "OPENAI_API_KEY"}
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     e.model,
		MaxTokens: defaultMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    req.ImageDataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", gatewayError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &types.GatewayError{Provider: e.Name(), Status: http.StatusOK, Message: "empty response: no choices"}
	}
	out := resp.Choices[0].Message.Content
	if strings.TrimSpace(out) == "" {
		return "", &types.GatewayError{Provider: e.Name(), Status: http.StatusOK, Message: "empty response: no message content"}
	}
	return out, nil
}

func gatewayError(err error) error {
	ge := &types.GatewayError{Provider: "gpt", Message: err.Error(), Err: err}
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
	)
	switch {
	case errors.As(err, &apiErr):
		ge.Status = apiErr.HTTPStatusCode
		if apiErr.Message != "" {
			ge.Message = apiErr.Message
		}
	case errors.As(err, &reqErr):
		ge.Status = reqErr.HTTPStatusCode
	}
	return ge
}
