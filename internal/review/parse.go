package review

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	errNotObject      = errors.New("response is not a JSON object")
	errFindingsShape  = errors.New(`"findings" must be a JSON array`)
	errSummaryShape   = errors.New(`"summary" must be a JSON string`)
	errEmptyResponse  = errors.New("empty response")
	errElementShape   = errors.New("finding is not a JSON object")
	errMissingText    = errors.New("description and recommendation are required")
	errLineNumber     = errors.New("line_number must be a non-negative integer or null")
	errSnippetNotText = errors.New("code_snippet must be a string or null")
)

// parsed is a validated reviewer response.
type parsed struct {
	Findings []Finding
	Summary  string
	Dropped  int
	// Reasons holds one message per dropped element, in response order.
	Reasons []string
}

// parseResponse decodes {"findings": [...], "summary": "..."} strictly. A bad
// document shape is an error; a bad element is dropped and counted.
func parseResponse(content, reviewer, category string) (parsed, error) {
	content = stripFences(content)
	if content == "" {
		return parsed{}, errEmptyResponse
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &doc); err != nil || doc == nil {
		return parsed{}, errNotObject
	}

	rawFindings, ok := doc["findings"]
	if !ok || isNull(rawFindings) {
		return parsed{}, errFindingsShape
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(rawFindings, &elements); err != nil {
		return parsed{}, errFindingsShape
	}

	rawSummary, ok := doc["summary"]
	if !ok || isNull(rawSummary) {
		return parsed{}, errSummaryShape
	}
	var summary string
	if err := json.Unmarshal(rawSummary, &summary); err != nil {
		return parsed{}, errSummaryShape
	}

	out := parsed{Findings: make([]Finding, 0, len(elements)), Summary: strings.TrimSpace(summary)}
	for i, el := range elements {
		f, err := parseFinding(el, reviewer, category)
		if err != nil {
			out.Dropped++
			out.Reasons = append(out.Reasons, fmt.Sprintf("finding %d: %v", i, err))
			continue
		}
		out.Findings = append(out.Findings, f)
	}
	return out, nil
}

func parseFinding(raw json.RawMessage, reviewer, category string) (Finding, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Finding{}, errElementShape
	}

	var sevText string
	if err := json.Unmarshal(fields["severity"], &sevText); err != nil {
		return Finding{}, fmt.Errorf("severity must be a string")
	}
	sev, err := ParseSeverity(sevText)
	if err != nil {
		return Finding{}, err
	}

	description, okD := requiredText(fields["description"])
	recommendation, okR := requiredText(fields["recommendation"])
	if !okD || !okR {
		return Finding{}, errMissingText
	}

	line, err := optionalLine(fields["line_number"])
	if err != nil {
		return Finding{}, err
	}
	snippet, err := optionalText(fields["code_snippet"])
	if err != nil {
		return Finding{}, err
	}

	return Finding{
		Severity:       sev,
		Category:       category,
		Line:           line,
		Snippet:        snippet,
		Description:    description,
		Recommendation: recommendation,
		ProducedBy:     reviewer,
	}, nil
}

func requiredText(raw json.RawMessage) (string, bool) {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func optionalLine(raw json.RawMessage) (*int, error) {
	if raw == nil || isNull(raw) {
		return nil, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, errLineNumber
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return nil, errLineNumber
	}
	line := int(n)
	return &line, nil
}

func optionalText(raw json.RawMessage) (*string, error) {
	if raw == nil || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errSnippetNotText
	}
	return &s, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// stripFences removes a single surrounding markdown code fence.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

// ValidResponse reports whether text decodes as a review response. Element
// drops do not count against it; only a malformed envelope does.
func ValidResponse(text string) bool {
	_, err := parseResponse(text, "", "")
	return err == nil
}
