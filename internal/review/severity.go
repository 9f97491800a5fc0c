package review

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Rank returns the sort rank of s (critical = 0, info = 4). Unknown values
// rank after info.
func Rank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 5
	}
}

// Valid reports whether s is one of the five known severities.
func (s Severity) Valid() bool {
	return Rank(s) < 5
}

// ParseSeverity accepts exactly the five enum values after trimming
// surrounding whitespace.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.TrimSpace(s))
	if !sev.Valid() {
		return "", fmt.Errorf("invalid severity %q", s)
	}
	return sev, nil
}

// MeetsThreshold returns true if severity is at or above the threshold.
// An empty threshold or "none" never matches.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	t, err := ParseSeverity(threshold)
	if err != nil {
		return false
	}
	return s.Valid() && Rank(s) <= Rank(t)
}

// Counts holds counts by severity level.
type Counts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Add tallies one finding of severity s.
func (c *Counts) Add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	case SeverityInfo:
		c.Info++
	}
}

// Merge adds the counts of o to c.
func (c *Counts) Merge(o Counts) {
	c.Critical += o.Critical
	c.High += o.High
	c.Medium += o.Medium
	c.Low += o.Low
	c.Info += o.Info
}

// Of returns the count for severity s.
func (c Counts) Of(s Severity) int {
	switch s {
	case SeverityCritical:
		return c.Critical
	case SeverityHigh:
		return c.High
	case SeverityMedium:
		return c.Medium
	case SeverityLow:
		return c.Low
	case SeverityInfo:
		return c.Info
	}
	return 0
}

// Total returns the sum of all five counts.
func (c Counts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// Highest returns the most severe level with a non-zero count, or "" if none.
func (c Counts) Highest() Severity {
	for _, s := range Severities {
		if c.Of(s) > 0 {
			return s
		}
	}
	return ""
}
