package language

import (
	"path/filepath"
	"strings"
)

// Tag identifies a source language.
type Tag string

const (
	Python     Tag = "python"
	JavaScript Tag = "javascript"
	TypeScript Tag = "typescript"
	Go         Tag = "go"
	Rust       Tag = "rust"
	Unknown    Tag = "unknown"
)

// Known lists every tag other than Unknown, in display order.
var Known = []Tag{Python, JavaScript, TypeScript, Go, Rust}

var extensions = map[string]Tag{
	".py":  Python,
	".js":  JavaScript,
	".jsx": JavaScript,
	".mjs": JavaScript,
	".ts":  TypeScript,
	".tsx": TypeScript,
	".go":  Go,
	".rs":  Rust,
}

// ParseTag converts a string to a Tag, returning Unknown for unrecognized values.
func ParseTag(s string) Tag {
	t := Tag(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range Known {
		if t == k {
			return t
		}
	}
	return Unknown
}

// DetectByExtension maps a file extension to a tag.
func DetectByExtension(path string) Tag {
	if t, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return Unknown
}

// Reviewable reports whether path has an extension with a known language.
func Reviewable(path string) bool {
	return DetectByExtension(path) != Unknown
}

// Detect resolves the language of code, preferring the path extension.
func Detect(code, path string) Tag {
	if path != "" {
		if t := DetectByExtension(path); t != Unknown {
			return t
		}
	}

	switch {
	case strings.Contains(code, "package ") && strings.Contains(code, "func "):
		return Go
	case strings.Contains(code, "fn ") && strings.Contains(code, "let "):
		return Rust
	case strings.Contains(code, "import ") && (strings.Contains(code, "from ") || strings.Contains(code, "import sys")):
		return Python
	case strings.Contains(code, "def ") && strings.Contains(code, ":\n"):
		return Python
	case strings.Contains(code, "function ") || strings.Contains(code, "const ") ||
		strings.Contains(code, "let ") || strings.Contains(code, "var "):
		return JavaScript
	}
	return Unknown
}

// Details describes a language for display.
type Details struct {
	Name       string
	Indent     string
	TypeSystem string
}

var details = map[Tag]Details{
	Python:     {Name: "Python", Indent: "spaces (4)", TypeSystem: "Dynamic"},
	JavaScript: {Name: "JavaScript", Indent: "spaces (2-4)", TypeSystem: "Dynamic"},
	TypeScript: {Name: "TypeScript", Indent: "spaces (2-4)", TypeSystem: "Static"},
	Go:         {Name: "Go", Indent: "tabs", TypeSystem: "Static"},
	Rust:       {Name: "Rust", Indent: "spaces (4)", TypeSystem: "Static"},
}

// Info returns display details for t.
func Info(t Tag) Details {
	if d, ok := details[t]; ok {
		return d
	}
	return Details{Name: "Unknown"}
}
