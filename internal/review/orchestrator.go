package review

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/panel/internal/language"
	"github.com/dshills/panel/internal/logging"
)

// LanguageResolver maps a code unit to a language tag.
type LanguageResolver func(code, path string) language.Tag

// Orchestrator runs every registered reviewer concurrently against one code
// unit and collects exactly one outcome per reviewer.
type Orchestrator struct {
	Resolve LanguageResolver
	// Timeout bounds a whole run. Zero means only ctx applies.
	Timeout time.Duration
	Logger  *zap.Logger
}

// RunResult is the collected output of one run.
type RunResult struct {
	Language language.Tag
	Outcomes []NamedOutcome
}

type slotResult struct {
	slot    int
	outcome Outcome
}

// Execute fans the unit out to every reviewer in reg. Reviewers still running
// when the deadline passes are recorded as Timeout and not waited for.
func (o *Orchestrator) Execute(ctx context.Context, code, path string, reg *Registry) RunResult {
	log := logging.OrNop(o.Logger)
	entries := reg.List()

	resolve := o.Resolve
	if resolve == nil {
		resolve = language.Detect
	}
	lang := resolve(code, path)

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	// Buffered so abandoned reviewers never block on send.
	results := make(chan slotResult, len(entries))
	for i, e := range entries {
		go func(slot int, e Entry) {
			var out Outcome
			defer func() {
				if p := recover(); p != nil {
					out = Failed(e.Name, InvocationError, "reviewer panicked: %v", p)
				}
				results <- slotResult{slot: slot, outcome: out}
			}()
			log.Debug("reviewer started", zap.String("reviewer", e.Name), zap.String("language", string(lang)))
			out = e.Reviewer.Review(ctx, code, path, lang)
		}(i, e)
	}

	outcomes := make([]Outcome, len(entries))
	done := make([]bool, len(entries))
	pending := len(entries)

	record := func(r slotResult) {
		outcomes[r.slot] = normalize(entries[r.slot].Name, r.outcome)
		done[r.slot] = true
		pending--
	}

	// Ready results win over an expired deadline.
	for pending > 0 {
		select {
		case r := <-results:
			record(r)
			continue
		default:
		}
		if ctx.Err() != nil {
			break
		}
		select {
		case r := <-results:
			record(r)
		case <-ctx.Done():
		}
	}

	named := make([]NamedOutcome, len(entries))
	for i, e := range entries {
		if !done[i] {
			outcomes[i] = abandoned(ctx, e.Name)
		}
		out := outcomes[i]
		if out.OK() {
			log.Debug("reviewer finished", zap.String("reviewer", e.Name), zap.Int("findings", len(out.Findings)), zap.Int("dropped", out.Dropped))
		} else {
			log.Warn("reviewer failed", zap.String("reviewer", e.Name), zap.String("kind", string(out.Kind)), zap.String("message", out.Message))
		}
		named[i] = NamedOutcome{Name: e.Name, Outcome: out}
	}
	return RunResult{Language: lang, Outcomes: named}
}

// RunOrdered returns outcomes in registration order.
func (o *Orchestrator) RunOrdered(ctx context.Context, code, path string, reg *Registry) []NamedOutcome {
	return o.Execute(ctx, code, path, reg).Outcomes
}

// Run returns outcomes keyed by reviewer name.
func (o *Orchestrator) Run(ctx context.Context, code, path string, reg *Registry) map[string]Outcome {
	named := o.RunOrdered(ctx, code, path, reg)
	m := make(map[string]Outcome, len(named))
	for _, n := range named {
		m[n.Name] = n.Outcome
	}
	return m
}

func normalize(name string, out Outcome) Outcome {
	switch out.Status {
	case StatusSuccess:
		if out.Findings == nil {
			out.Findings = []Finding{}
		}
		return out
	case StatusFailure:
		out.Reviewer = name
		return out
	default:
		return Failed(name, InvocationError, "reviewer returned no outcome")
	}
}

func abandoned(ctx context.Context, name string) Outcome {
	if errors.Is(ctx.Err(), context.Canceled) {
		return Failed(name, InvocationError, "review canceled")
	}
	return Failed(name, Timeout, "reviewer did not finish before the deadline")
}
