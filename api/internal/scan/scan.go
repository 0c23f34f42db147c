package scan

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"pantry-scan/api/internal/metrics"
	"pantry-scan/api/internal/normalize"
	"pantry-scan/api/internal/prompt"
	"pantry-scan/api/internal/util"
	"pantry-scan/api/internal/vision"
	"pantry-scan/api/internal/vision/types"
)

var credentialEnv = map[string]string{
	"gpt":    "OPENAI_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// Service runs one scan: validate, guard, one upstream call, normalize.
type Service struct {
	engs       *vision.Engines
	prompts    *prompt.Table
	normalizer *normalize.Normalizer
	metrics    *metrics.Recorder
}

func New(engs *vision.Engines, prompts *prompt.Table, n *normalize.Normalizer, m *metrics.Recorder) *Service {
	if n == nil {
		n = normalize.New(nil)
	}
	return &Service{
		engs:       engs,
		prompts:    prompts,
		normalizer: n,
		metrics:    m,
	}
}

// Scan returns a well-shaped Outcome or one of the typed errors from
// vision/types. Unusable model text is not an error: it yields the fallback.
func (s *Service) Scan(ctx context.Context, req Request) (normalize.Outcome, error) {
	logger := zerolog.Ctx(ctx)

	kind, err := Validate(req)
	if err != nil {
		s.metrics.Request("unknown", metrics.OutcomeInvalid)
		return normalize.Outcome{}, err
	}

	if req.Image == Sentinel {
		s.metrics.Request(kind.String(), metrics.OutcomeSentinel)
		logger.Debug().Str("kind", kind.String()).Msg("sentinel request, upstream skipped")
		return Canned(kind), nil
	}

	payload, mime, err := CheckImage(req.Image)
	if err != nil {
		s.metrics.Request(kind.String(), metrics.OutcomeInvalid)
		return normalize.Outcome{}, err
	}

	eng, err := s.engs.GetEngine(req.Provider)
	if err != nil {
		s.metrics.Request(kind.String(), metrics.OutcomeConfig)
		return normalize.Outcome{}, err
	}
	if !eng.Configured() {
		s.metrics.Request(kind.String(), metrics.OutcomeConfig)
		return normalize.Outcome{}, &types.ConfigurationError{Setting: credentialEnv[eng.Name()]}
	}

	instruction, err := s.prompts.Build(kind)
	if err != nil {
		return normalize.Outcome{}, err
	}

	start := time.Now()
	text, err := eng.Complete(ctx, vision.Request{
		Prompt:       instruction,
		ImageDataURL: util.MakeDataURL(mime, payload),
	})
	s.metrics.Upstream(eng.Name(), time.Since(start))
	if err != nil {
		s.metrics.Request(kind.String(), metrics.OutcomeUpstream)
		ev := logger.Error().Err(err).Str("provider", eng.Name()).Str("model", eng.Model())
		var ge *types.GatewayError
		if errors.As(err, &ge) {
			ev = ev.Int("status", ge.Status).Str("upstream_message", util.Truncate(ge.Message, 512))
		}
		ev.Msg("upstream call failed")
		return normalize.Outcome{}, err
	}

	out := s.normalizer.Normalize(ctx, kind, text, normalize.Meta{
		RequestID: req.ID,
		Provider:  eng.Name(),
		Model:     eng.Model(),
	})

	if slices.Contains(out.Warnings, normalize.WarnPortionsUnmatched) {
		s.metrics.PortionMismatch()
	}
	if out.Fallback {
		s.metrics.Fallback(kind.String())
		s.metrics.Request(kind.String(), metrics.OutcomeFallback)
	} else {
		s.metrics.Request(kind.String(), metrics.OutcomeOK)
	}
	return out, nil
}
