package redact

import (
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// Placeholder replaces every detected secret.
const Placeholder = "[REDACTED]"

// WithheldNotice replaces the whole body of a file matched by a path policy.
const WithheldNotice = Placeholder + " (file content withheld by path policy)\n"

type rule struct {
	name string
	re   *regexp.Regexp
	// keep, when set, is the expansion template for a match instead of
	// Placeholder.
	keep string
}

// rules are regex heuristics for common secret types. Order matters: the
// provider-specific key formats run before the generic sk- pattern.
var rules = []rule{
	{"api-key-assignment", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`), ""},
	{"aws-access-key-id", regexp.MustCompile(`AKIA[0-9A-Z]{16}`), ""},
	{"aws-secret-access-key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`), ""},
	{"secret-assignment", regexp.MustCompile(`(?i)((?:secret|token|password|passwd|credential)\s*[:=]\s*)(["'])[^"']{8,}["']`), "${1}${2}" + Placeholder + "${2}"},
	{"bearer-token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`), ""},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`), ""},
	{"private-key-block", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`), ""},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`), ""},
	{"slack-token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`), ""},
	{"anthropic-key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`), ""},
	{"openai-key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`), ""},
	{"hex-secret-assignment", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`), ""},
}

// Secrets replaces detected secrets in text with [Placeholder] and reports
// how many replacements were made.
func Secrets(text string) (string, int) {
	count := 0
	for _, r := range rules {
		text = r.re.ReplaceAllStringFunc(text, func(match string) string {
			count++
			if r.keep == "" {
				return Placeholder
			}
			return r.re.ReplaceAllString(match, r.keep)
		})
	}
	return text, count
}

// ShouldRedactPath reports whether path matches any doublestar pattern. A
// pattern also matches against the base name so "**/.env" covers "./.env".
func ShouldRedactPath(path string, patterns []string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// Policy decides what part of a source unit may leave the process.
type Policy struct {
	Secrets bool
	Paths   []string
}

// Apply returns the code to send for path and the number of redactions. A
// path-policy match withholds the entire body and counts as one redaction.
func (p Policy) Apply(path, code string) (string, int) {
	if ShouldRedactPath(path, p.Paths) {
		return WithheldNotice, 1
	}
	if !p.Secrets {
		return code, 0
	}
	return Secrets(code)
}
