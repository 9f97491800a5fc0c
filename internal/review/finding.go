package review

import (
	"encoding/json"
	"fmt"
)

// Finding is a single issue reported by one reviewer. Findings are values and
// are not modified after parsing.
type Finding struct {
	Severity       Severity
	Category       string
	Line           *int
	Snippet        *string
	Description    string
	Recommendation string
	ProducedBy     string
}

// LineOrZero returns the line number, or 0 when the finding is not localized.
func (f Finding) LineOrZero() int {
	if f.Line == nil {
		return 0
	}
	return *f.Line
}

// Location formats the finding position for display.
func (f Finding) Location() string {
	if f.Line == nil {
		return "-"
	}
	return fmt.Sprintf("L%d", *f.Line)
}

type findingJSON struct {
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	LineNumber     *int     `json:"line_number"`
	CodeSnippet    *string  `json:"code_snippet"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	ProducedBy     string   `json:"produced_by"`
}

// MarshalJSON encodes the finding with the same field names reviewers use in
// their responses.
func (f Finding) MarshalJSON() ([]byte, error) {
	return json.Marshal(findingJSON{
		Severity:       f.Severity,
		Category:       f.Category,
		LineNumber:     f.Line,
		CodeSnippet:    f.Snippet,
		Description:    f.Description,
		Recommendation: f.Recommendation,
		ProducedBy:     f.ProducedBy,
	})
}

// UnmarshalJSON decodes a finding written by MarshalJSON.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var fj findingJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		return err
	}
	*f = Finding{
		Severity:       fj.Severity,
		Category:       fj.Category,
		Line:           fj.LineNumber,
		Snippet:        fj.CodeSnippet,
		Description:    fj.Description,
		Recommendation: fj.Recommendation,
		ProducedBy:     fj.ProducedBy,
	}
	return nil
}
