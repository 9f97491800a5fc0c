package review

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/dshills/panel/internal/providers"
	"github.com/dshills/panel/internal/redact"
)

// SnippetSubject names a code unit that has no path.
const SnippetSubject = "snippet"

// Engine reviews one code unit with every registered reviewer and returns
// the consolidated report.
type Engine struct {
	Registry     *Registry
	Orchestrator *Orchestrator
	now          func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(reg *Registry, orch *Orchestrator) *Engine {
	if orch == nil {
		orch = &Orchestrator{}
	}
	return &Engine{Registry: reg, Orchestrator: orch, now: time.Now}
}

// Review always returns a report, even when every reviewer fails.
func (e *Engine) Review(ctx context.Context, code, path string) *Report {
	res := e.Orchestrator.Execute(ctx, code, path, e.Registry)

	subject := path
	if subject == "" {
		subject = SnippetSubject
	}
	r := BuildReport(subject, res.Outcomes)
	r.Language = res.Language
	r.RunID = ulid.Make().String()
	r.ReviewedAt = e.now().UTC()
	return r
}

// Options configures the reviewers built by NewRegistryFromProfiles.
type Options struct {
	Completer providers.Completer
	MaxTokens int
	Privacy   redact.Policy
	Logger    *zap.Logger
}

// ResolveProfiles selects the profiles to register. enabled orders the
// built-ins (all four when empty) and may also name custom profiles; every
// custom profile is then registered, replacing an earlier entry of the same
// name in place.
func ResolveProfiles(enabled []string, custom []Profile) ([]Profile, error) {
	if len(enabled) == 0 {
		enabled = BuiltinNames
	}
	byName := make(map[string]Profile, len(custom))
	for _, p := range custom {
		byName[p.Name] = p
	}

	var out []Profile
	for _, name := range enabled {
		if p, ok := byName[name]; ok {
			out = append(out, p)
			continue
		}
		p, ok := Builtin(name)
		if !ok {
			return nil, fmt.Errorf("unknown reviewer %q", name)
		}
		out = append(out, p)
	}
	return append(out, custom...), nil
}

// NewRegistryFromProfiles registers one LLMReviewer per profile, in order.
func NewRegistryFromProfiles(profiles []Profile, opts Options) (*Registry, error) {
	reg := NewRegistry()
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		reg.Register(NewLLMReviewer(p, opts.Completer, opts.MaxTokens, opts.Privacy, opts.Logger))
	}
	return reg, nil
}
