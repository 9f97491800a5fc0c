package review

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dshills/panel/internal/language"
	"github.com/dshills/panel/internal/logging"
	"github.com/dshills/panel/internal/providers"
	"github.com/dshills/panel/internal/redact"
)

// Reviewer inspects one code unit for a single concern.
type Reviewer interface {
	Name() string
	Review(ctx context.Context, code, path string, lang language.Tag) Outcome
}

// LLMReviewer reviews code by sending a profile prompt to a completion
// service and validating the JSON it returns.
type LLMReviewer struct {
	Profile   Profile
	Completer providers.Completer
	MaxTokens int
	Privacy   redact.Policy
	Logger    *zap.Logger
}

// NewLLMReviewer creates a reviewer for profile p.
func NewLLMReviewer(p Profile, c providers.Completer, maxTokens int, privacy redact.Policy, log *zap.Logger) *LLMReviewer {
	return &LLMReviewer{Profile: p, Completer: c, MaxTokens: maxTokens, Privacy: privacy, Logger: log}
}

// Name returns the profile name.
func (r *LLMReviewer) Name() string { return r.Profile.Name }

// Review implements Reviewer.
func (r *LLMReviewer) Review(ctx context.Context, code, path string, lang language.Tag) Outcome {
	log := logging.OrNop(r.Logger).With(zap.String("reviewer", r.Name()), zap.String("path", path))

	if r.Completer == nil {
		return Failed(r.Name(), InvocationError, "no completion provider configured")
	}

	body, redacted := r.Privacy.Apply(path, code)
	if redacted > 0 {
		log.Debug("redacted code before upload", zap.Int("count", redacted))
	}

	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = providers.DefaultMaxTokens
	}

	resp, err := r.Completer.Complete(ctx, providers.CompletionRequest{
		SystemPrompt: r.Profile.SystemPrompt(lang),
		UserMessage:  BuildUserMessage(r.Name(), path, body),
		MaxTokens:    maxTokens,
	})
	if err != nil {
		if isDeadline(ctx, err) {
			return Failed(r.Name(), Timeout, "completion did not finish before the deadline: %v", err)
		}
		return Failed(r.Name(), InvocationError, "completion failed: %v", err)
	}

	p, err := parseResponse(resp.Text, r.Name(), r.Profile.EffectiveCategory())
	if err != nil {
		return Failed(r.Name(), ResponseParseError, "invalid response: %v", err)
	}
	if p.Dropped > 0 {
		log.Debug("dropped invalid findings", zap.Int("dropped", p.Dropped), zap.Strings("reasons", p.Reasons))
	}
	return Succeeded(p.Findings, p.Summary, p.Dropped)
}

func isDeadline(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
