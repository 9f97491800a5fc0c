package review

import (
	"context"
	"os"
	"sort"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/panel/internal/logging"
)

// DefaultConcurrency bounds how many files are reviewed at once.
const DefaultConcurrency = 4

// FileResult is the review of one file in a batch. Exactly one of Report and
// Error is set.
type FileResult struct {
	Path   string  `json:"path"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Batch holds the per-file results of a multi-file review, ordered by path.
type Batch struct {
	RunID string       `json:"runId"`
	Root  string       `json:"root,omitempty"`
	Files []FileResult `json:"files"`
}

// Counts sums severity counts across reviewed files.
func (b *Batch) Counts() Counts {
	var c Counts
	for _, f := range b.Files {
		if f.Report != nil {
			c.Merge(f.Report.Counts)
		}
	}
	return c
}

// TotalIssues returns the number of findings across all files.
func (b *Batch) TotalIssues() int {
	return b.Counts().Total()
}

// Errors returns the files that could not be reviewed.
func (b *Batch) Errors() []FileResult {
	var out []FileResult
	for _, f := range b.Files {
		if f.Error != "" {
			out = append(out, f)
		}
	}
	return out
}

// BatchRunner reviews many files concurrently with the same Engine.
type BatchRunner struct {
	Engine      *Engine
	Concurrency int
	Logger      *zap.Logger
	// ReadFile loads a file body. It defaults to os.ReadFile.
	ReadFile func(path string) (string, error)
}

// Run reviews paths; a file that cannot be read is recorded with its error
// and does not stop the others.
func (b *BatchRunner) Run(ctx context.Context, root string, paths []string) *Batch {
	log := logging.OrNop(b.Logger)
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	read := b.ReadFile
	if read == nil {
		read = func(path string) (string, error) {
			data, err := os.ReadFile(path)
			return string(data), err
		}
	}
	limit := b.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]FileResult, len(sorted))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, path := range sorted {
		g.Go(func() error {
			results[i] = b.reviewFile(ctx, log, read, path)
			return nil
		})
	}
	_ = g.Wait()

	return &Batch{RunID: ulid.Make().String(), Root: root, Files: results}
}

func (b *BatchRunner) reviewFile(ctx context.Context, log *zap.Logger, read func(string) (string, error), path string) FileResult {
	if err := ctx.Err(); err != nil {
		return FileResult{Path: path, Error: err.Error()}
	}
	code, err := read(path)
	if err != nil {
		log.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
		return FileResult{Path: path, Error: err.Error()}
	}
	log.Debug("reviewing file", zap.String("path", path))
	return FileResult{Path: path, Report: b.Engine.Review(ctx, code, path)}
}
