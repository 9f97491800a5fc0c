package review

import (
	"encoding/json"
	"fmt"
)

// Status distinguishes the two outcome variants.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// ErrorKind classifies a reviewer failure.
type ErrorKind string

const (
	InvocationError    ErrorKind = "InvocationError"
	ResponseParseError ErrorKind = "ResponseParseError"
	Timeout            ErrorKind = "Timeout"
)

// Outcome is the result of running one reviewer once. A success carries
// Findings and Summary; a failure carries Reviewer, Kind and Message. Use
// Succeeded or Failed to build one.
type Outcome struct {
	Status   Status
	Findings []Finding
	Summary  string

	Reviewer string
	Kind     ErrorKind
	Message  string

	// Dropped counts response elements rejected during validation.
	Dropped int
}

// Succeeded builds a success outcome.
func Succeeded(findings []Finding, summary string, dropped int) Outcome {
	if findings == nil {
		findings = []Finding{}
	}
	return Outcome{Status: StatusSuccess, Findings: findings, Summary: summary, Dropped: dropped}
}

// Failed builds a failure outcome.
func Failed(reviewer string, kind ErrorKind, format string, args ...any) Outcome {
	return Outcome{Status: StatusFailure, Reviewer: reviewer, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

type outcomeJSON struct {
	Status    Status    `json:"status"`
	Findings  []Finding `json:"findings,omitempty"`
	Summary   *string   `json:"summary,omitempty"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// MarshalJSON emits only the fields of the held variant.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.OK() {
		summary := o.Summary
		findings := o.Findings
		if findings == nil {
			findings = []Finding{}
		}
		// findings is always present for a success, even when empty.
		return json.Marshal(struct {
			Status   Status    `json:"status"`
			Findings []Finding `json:"findings"`
			Summary  string    `json:"summary"`
		}{o.Status, findings, summary})
	}
	return json.Marshal(outcomeJSON{Status: o.Status, ErrorKind: o.Kind, Message: o.Message})
}

// UnmarshalJSON decodes an outcome written by MarshalJSON. The wire form of a
// failure has no reviewer name; Report decoding fills Reviewer from the
// outcomesByReviewer key.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var oj outcomeJSON
	if err := json.Unmarshal(data, &oj); err != nil {
		return err
	}
	switch oj.Status {
	case StatusSuccess:
		var summary string
		if oj.Summary != nil {
			summary = *oj.Summary
		}
		*o = Succeeded(oj.Findings, summary, 0)
	case StatusFailure:
		*o = Outcome{Status: StatusFailure, Kind: oj.ErrorKind, Message: oj.Message}
	default:
		return fmt.Errorf("unknown outcome status %q", oj.Status)
	}
	return nil
}

// NamedOutcome pairs a reviewer name with its outcome.
type NamedOutcome struct {
	Name    string
	Outcome Outcome
}
