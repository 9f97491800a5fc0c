package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// MaxFileBytes is the per-file size limit for review.
const MaxFileBytes = 1 << 20 // 1MB

// ErrBinary is returned by Read for files that look binary.
var ErrBinary = errors.New("binary file")

// MatchesAny returns true if the slash-separated path matches any of the
// doublestar patterns.
func MatchesAny(path string, patterns []string) bool {
	p := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

// Filter keeps paths that match include (all paths when include is empty)
// and do not match exclude.
func Filter(paths, include, exclude []string) []string {
	var out []string
	for _, p := range paths {
		if len(include) > 0 && !MatchesAny(p, include) {
			continue
		}
		if MatchesAny(p, exclude) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Collect returns the files under root matching include and not exclude,
// sorted. Patterns apply to paths relative to root. A root that is a regular
// file is returned as is.
func Collect(root string, include, exclude []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	if len(include) == 0 {
		include = []string{"**/*"}
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, fmt.Errorf("matching %q under %s: %w", pattern, root, err)
		}
		for _, m := range matches {
			if MatchesAny(m, exclude) {
				continue
			}
			seen[m] = true
		}
	}

	files := make([]string, 0, len(seen))
	for rel := range seen {
		files = append(files, filepath.Join(root, filepath.FromSlash(rel)))
	}
	sort.Strings(files)
	return files, nil
}

// Read loads a file as text, rejecting files over maxBytes (MaxFileBytes
// when zero) and binary content.
func Read(path string, maxBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ReadFrom(f, maxBytes)
}

// ReadFrom reads r with the same limits as Read.
func ReadFrom(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = MaxFileBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	if isBinary(data) {
		return "", ErrBinary
	}
	return string(data), nil
}

// isBinary applies git's heuristic: a NUL byte in the first 8000 bytes.
func isBinary(data []byte) bool {
	if len(data) > 8000 {
		data = data[:8000]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
