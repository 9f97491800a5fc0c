package review

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dshills/panel/internal/language"
	"github.com/dshills/panel/internal/providers"
)

// stubReviewer returns a fixed outcome after an optional delay.
type stubReviewer struct {
	name    string
	outcome Outcome
	delay   time.Duration
	panics  bool
	calls   atomic.Int32
	gotLang atomic.Value
}

func (s *stubReviewer) Name() string { return s.name }

func (s *stubReviewer) Review(ctx context.Context, _, _ string, lang language.Tag) Outcome {
	s.calls.Add(1)
	s.gotLang.Store(lang)
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Failed(s.name, Timeout, "stub gave up")
		}
	}
	return s.outcome
}

// blockingReviewer ignores ctx and waits until release is closed.
type blockingReviewer struct {
	name    string
	release chan struct{}
}

func (b *blockingReviewer) Name() string { return b.name }

func (b *blockingReviewer) Review(context.Context, string, string, language.Tag) Outcome {
	<-b.release
	return Succeeded(nil, "late", 0)
}

// fakeCompleter returns canned text or an error and records the last request.
type fakeCompleter struct {
	text string
	err  error
	last providers.CompletionRequest
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return providers.CompletionResponse{}, f.err
	}
	if err := ctx.Err(); err != nil {
		return providers.CompletionResponse{}, err
	}
	return providers.CompletionResponse{Text: f.text}, nil
}

func intPtr(n int) *int { return &n }

func finding(sev Severity, line int, rec, by string) Finding {
	f := Finding{Severity: sev, Category: "test", Description: "desc " + rec, Recommendation: rec, ProducedBy: by}
	if line > 0 {
		f.Line = intPtr(line)
	}
	return f
}

func sumFindings(outcomes []NamedOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Outcome.OK() {
			n += len(o.Outcome.Findings)
		}
	}
	return n
}

func fixedResolver(tag language.Tag) LanguageResolver {
	return func(string, string) language.Tag { return tag }
}

func successJSON(findings ...string) string {
	body := ""
	for i, f := range findings {
		if i > 0 {
			body += ","
		}
		body += f
	}
	return fmt.Sprintf(`{"findings":[%s],"summary":"reviewed"}`, body)
}
