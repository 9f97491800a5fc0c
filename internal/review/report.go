package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dshills/panel/internal/language"
)

// MaxRecommendations caps Report.TopRecommendations.
const MaxRecommendations = 5

// Report is the consolidated result of every reviewer for one code unit.
// RunID and ReviewedAt are per-run metadata stamped by Engine.Review; every
// other field depends only on the reviewer outcomes, so two runs over the same
// outcomes differ in those two fields alone.
type Report struct {
	RunID               string
	SubjectName         string
	Language            language.Tag
	ReviewedAt          time.Time
	TotalIssues         int
	Counts              Counts
	Outcomes            []NamedOutcome
	ConsolidatedSummary string
	TopRecommendations  []string
}

// BuildReport aggregates outcomes (in registration order) into a Report. The
// result depends only on its arguments, never on completion order.
func BuildReport(subject string, outcomes []NamedOutcome) *Report {
	r := &Report{
		SubjectName:        subject,
		Outcomes:           append([]NamedOutcome(nil), outcomes...),
		TopRecommendations: []string{},
	}

	for _, n := range r.Outcomes {
		if !n.Outcome.OK() {
			continue
		}
		for _, f := range n.Outcome.Findings {
			r.Counts.Add(f.Severity)
		}
	}
	r.TotalIssues = r.Counts.Total()
	r.TopRecommendations = topRecommendations(canonical(r.Outcomes))
	r.ConsolidatedSummary = consolidatedSummary(subject, r.Counts, r.Outcomes)
	return r
}

// Findings returns every success finding in canonical order.
func (r *Report) Findings() []Finding {
	return canonical(r.Outcomes)
}

// Outcome returns the outcome recorded for name.
func (r *Report) Outcome(name string) (Outcome, bool) {
	for _, n := range r.Outcomes {
		if n.Name == name {
			return n.Outcome, true
		}
	}
	return Outcome{}, false
}

// Failures returns the failed outcomes in registration order.
func (r *Report) Failures() []NamedOutcome {
	var out []NamedOutcome
	for _, n := range r.Outcomes {
		if !n.Outcome.OK() {
			out = append(out, n)
		}
	}
	return out
}

type rankedFinding struct {
	f        Finding
	reviewer string
	pos      int
}

// canonical orders findings by (severity rank, line or 0, reviewer name,
// position within that reviewer's output).
func canonical(outcomes []NamedOutcome) []Finding {
	var ranked []rankedFinding
	for _, n := range outcomes {
		if !n.Outcome.OK() {
			continue
		}
		for i, f := range n.Outcome.Findings {
			ranked = append(ranked, rankedFinding{f: f, reviewer: n.Name, pos: i})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ra, rb := Rank(a.f.Severity), Rank(b.f.Severity); ra != rb {
			return ra < rb
		}
		if la, lb := a.f.LineOrZero(), b.f.LineOrZero(); la != lb {
			return la < lb
		}
		if a.reviewer != b.reviewer {
			return a.reviewer < b.reviewer
		}
		return a.pos < b.pos
	})

	findings := make([]Finding, len(ranked))
	for i, rf := range ranked {
		findings[i] = rf.f
	}
	return findings
}

func topRecommendations(findings []Finding) []string {
	seen := make(map[string]bool)
	recs := []string{}
	for _, f := range findings {
		if len(recs) == MaxRecommendations {
			break
		}
		if f.Recommendation == "" || seen[f.Recommendation] {
			continue
		}
		seen[f.Recommendation] = true
		recs = append(recs, f.Recommendation)
	}
	return recs
}

func consolidatedSummary(subject string, c Counts, outcomes []NamedOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Code Review Summary for %s:\n", subject)
	fmt.Fprintf(&b, "- Total Issues Found: %d\n", c.Total())
	fmt.Fprintf(&b, "  - Critical: %d\n", c.Critical)
	fmt.Fprintf(&b, "  - High: %d\n", c.High)
	fmt.Fprintf(&b, "  - Medium: %d\n", c.Medium)
	fmt.Fprintf(&b, "  - Low: %d\n", c.Low)
	fmt.Fprintf(&b, "  - Info: %d\n", c.Info)
	b.WriteString("\nReviewer Results:")
	for _, n := range outcomes {
		o := n.Outcome
		switch {
		case !o.OK():
			fmt.Fprintf(&b, "\n- %s: failed (%s): %s", n.Name, o.Kind, o.Message)
		case o.Summary != "":
			fmt.Fprintf(&b, "\n- %s: %s", n.Name, o.Summary)
		}
	}
	return b.String()
}

type reportJSON struct {
	RunID               string          `json:"runId,omitempty"`
	SubjectName         string          `json:"subjectName"`
	Language            language.Tag    `json:"language,omitempty"`
	ReviewedAt          *time.Time      `json:"reviewedAt,omitempty"`
	TotalIssues         int             `json:"totalIssues"`
	SeverityBreakdown   Counts          `json:"severityBreakdown"`
	ConsolidatedSummary string          `json:"consolidatedSummary"`
	TopRecommendations  []string        `json:"topRecommendations"`
	OutcomesByReviewer  orderedOutcomes `json:"outcomesByReviewer"`
}

// MarshalJSON writes outcomesByReviewer with keys in registration order.
func (r *Report) MarshalJSON() ([]byte, error) {
	rj := reportJSON{
		RunID:               r.RunID,
		SubjectName:         r.SubjectName,
		Language:            r.Language,
		TotalIssues:         r.TotalIssues,
		SeverityBreakdown:   r.Counts,
		ConsolidatedSummary: r.ConsolidatedSummary,
		TopRecommendations:  r.TopRecommendations,
		OutcomesByReviewer:  r.Outcomes,
	}
	if !r.ReviewedAt.IsZero() {
		t := r.ReviewedAt
		rj.ReviewedAt = &t
	}
	if rj.TopRecommendations == nil {
		rj.TopRecommendations = []string{}
	}
	return json.Marshal(rj)
}

// UnmarshalJSON decodes a report written by MarshalJSON.
func (r *Report) UnmarshalJSON(data []byte) error {
	var rj reportJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}
	*r = Report{
		RunID:               rj.RunID,
		SubjectName:         rj.SubjectName,
		Language:            rj.Language,
		TotalIssues:         rj.TotalIssues,
		Counts:              rj.SeverityBreakdown,
		Outcomes:            rj.OutcomesByReviewer,
		ConsolidatedSummary: rj.ConsolidatedSummary,
		TopRecommendations:  rj.TopRecommendations,
	}
	if rj.ReviewedAt != nil {
		r.ReviewedAt = *rj.ReviewedAt
	}
	if r.TopRecommendations == nil {
		r.TopRecommendations = []string{}
	}
	return nil
}

type orderedOutcomes []NamedOutcome

// UnmarshalJSON keeps the key order of the object and restores the reviewer
// name of each failure from its key.
func (o *orderedOutcomes) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*o = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("outcomesByReviewer: expected object, got %v", tok)
	}
	var out orderedOutcomes
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var oc Outcome
		if err := dec.Decode(&oc); err != nil {
			return fmt.Errorf("decoding outcome %q: %w", name, err)
		}
		if !oc.OK() {
			oc.Reviewer = name
		}
		out = append(out, NamedOutcome{Name: name, Outcome: oc})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

func (o orderedOutcomes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(n.Outcome)
		if err != nil {
			return nil, fmt.Errorf("encoding outcome %q: %w", n.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
