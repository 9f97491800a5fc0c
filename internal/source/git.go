package source

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dshills/panel/internal/language"
)

// DefaultBase is the comparison base for ChangedFiles.
const DefaultBase = "origin/main"

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git for the repository
// containing dir.
func GetRepoMeta(ctx context.Context, dir string) (RepoMeta, error) {
	root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// ChangedFiles lists files changed between base and HEAD (merge-base diff)
// in the repository at dir, keeping only existing files in a reviewable
// language. Returned paths are joined to dir.
func ChangedFiles(ctx context.Context, dir, base string) ([]string, error) {
	if base == "" {
		base = DefaultBase
	}
	out, err := gitOutput(ctx, dir, "diff", "--name-only", base+"...HEAD")
	if err != nil {
		return nil, fmt.Errorf("git diff %s...HEAD: %w", base, err)
	}
	return reviewableFiles(dir, strings.Split(out, "\n")), nil
}

func reviewableFiles(dir string, names []string) []string {
	var files []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || !language.Reviewable(name) {
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(name))
		if !Exists(path) {
			continue // deleted in HEAD
		}
		files = append(files, path)
	}
	return files
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
