package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/panel/internal/github"
	"github.com/dshills/panel/internal/language"
	"github.com/dshills/panel/internal/output"
	"github.com/dshills/panel/internal/source"
)

func runReviewPR(cmd *cobra.Command, args []string) error {
	prNumber, err := strconv.Atoi(args[0])
	if err != nil || prNumber <= 0 {
		fail(ExitUsageError, "invalid PR number %q", args[0])
		return nil
	}

	s := newSession(cmd)
	if s == nil {
		return nil
	}
	defer s.close()

	ctx, cancel := interruptible()
	defer cancel()

	meta, err := source.GetRepoMeta(ctx, ".")
	if err != nil {
		fail(ExitRuntimeError, "%v", err)
		return nil
	}

	owner, repo := flagOwner, flagRepo
	if owner == "" || repo == "" {
		detected, detectedRepo, err := github.DetectRepo(ctx, meta.Root)
		if err != nil {
			fail(ExitRuntimeError, "%v\nUse --owner and --repo flags to specify manually.", err)
			return nil
		}
		if owner == "" {
			owner = detected
		}
		if repo == "" {
			repo = detectedRepo
		}
	}

	gh, err := github.NewClient()
	if err != nil {
		fail(githubErr(err), "%v", err)
		return nil
	}

	fmt.Fprintf(os.Stderr, "Fetching PR #%d from %s/%s...\n", prNumber, owner, repo)
	files, err := gh.GetPRFiles(ctx, owner, repo, prNumber)
	if err != nil {
		fail(githubErr(err), "%v", err)
		return nil
	}

	// Review the working-tree copy of each PR file; the caller is expected
	// to have the PR head checked out.
	repoPaths := make(map[string]string, len(files))
	var paths []string
	for _, f := range files {
		local := filepath.Join(meta.Root, filepath.FromSlash(f.Filename))
		if !language.Reviewable(f.Filename) || !source.Exists(local) {
			continue
		}
		if source.MatchesAny(f.Filename, s.cfg.Exclude) {
			continue
		}
		repoPaths[local] = f.Filename
		paths = append(paths, local)
	}
	fmt.Fprintf(os.Stderr, "Reviewing %d of %d PR files...\n", len(paths), len(files))

	batch := s.runner.Run(ctx, meta.Root, paths)
	s.finishBatch(batch)
	if exitCode == ExitRuntimeError {
		return nil
	}

	if flagDryRun {
		fmt.Fprintf(os.Stderr, "Dry run: %d findings found, not posting to GitHub.\n", batch.TotalIssues())
		return nil
	}

	var body bytes.Buffer
	if err := (&output.MarkdownWriter{}).WriteBatch(&body, batch); err != nil {
		fail(ExitRuntimeError, "rendering review body: %v", err)
		return nil
	}
	req := github.BuildPRReview(batch, body.String(), func(p string) (string, bool) {
		rel, ok := repoPaths[p]
		return rel, ok
	})
	fmt.Fprintf(os.Stderr, "Posting review (%d inline comments)...\n", len(req.Comments))
	if err := gh.PostReview(ctx, owner, repo, prNumber, req); err != nil {
		fail(githubErr(err), "posting review: %v", err)
		return nil
	}
	fmt.Fprintf(os.Stderr, "Review posted to PR #%d.\n", prNumber)
	return nil
}
