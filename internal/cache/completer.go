package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/dshills/panel/internal/logging"
	"github.com/dshills/panel/internal/providers"
)

// Completer serves completions from a Cache and fills it on a miss.
type Completer struct {
	next   providers.Completer
	cache  *Cache
	model  string
	accept func(text string) bool
	log    *zap.Logger
}

// Wrap returns next unchanged when c is nil or disabled. Only completion
// text for which accept returns true is stored; a nil accept stores all.
func Wrap(next providers.Completer, c *Cache, model string, accept func(text string) bool, log *zap.Logger) providers.Completer {
	if c == nil || !c.Enabled() {
		return next
	}
	return &Completer{next: next, cache: c, model: model, accept: accept, log: logging.OrNop(log)}
}

func (c *Completer) Name() string { return c.next.Name() }

func (c *Completer) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	key := BuildKey(c.next.Name(), c.model, req.SystemPrompt, req.UserMessage, req.MaxTokens)
	if text, ok := c.cache.Get(key); ok {
		c.log.Debug("cache hit", zap.String("provider", c.next.Name()))
		return providers.CompletionResponse{Text: text}, nil
	}

	resp, err := c.next.Complete(ctx, req)
	if err != nil {
		return resp, err
	}
	if c.accept != nil && !c.accept(resp.Text) {
		c.log.Debug("completion rejected, not cached", zap.String("provider", c.next.Name()))
		return resp, nil
	}
	if err := c.cache.Put(key, resp.Text); err != nil {
		c.log.Warn("cache write failed", zap.Error(err))
	}
	return resp, nil
}
