package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/panel/internal/cache"
	"github.com/dshills/panel/internal/config"
	"github.com/dshills/panel/internal/github"
	"github.com/dshills/panel/internal/language"
	"github.com/dshills/panel/internal/logging"
	"github.com/dshills/panel/internal/output"
	"github.com/dshills/panel/internal/providers"
	"github.com/dshills/panel/internal/redact"
	"github.com/dshills/panel/internal/review"
	"github.com/dshills/panel/internal/source"
)

// Shared review flags
var (
	flagProvider    string
	flagModel       string
	flagReviewers   string
	flagProfiles    string
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagTimeout     int
	flagConcurrency int
	flagInclude     string
	flagExclude     string
	flagNoCache     bool
	flagNoRedact    bool
)

// newCompleter builds the completion backend for a provider name.
var newCompleter = providers.New

func addReviewFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, gemini, ollama)")
	f.StringVar(&flagModel, "model", "", "Model name")
	f.StringVar(&flagReviewers, "reviewers", "", "Reviewers to run, in order (comma-separated)")
	f.StringVar(&flagProfiles, "profiles", "", "YAML file with custom reviewer profiles")
	f.StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
	f.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	f.StringVar(&flagFailOn, "fail-on", "", "Exit 1 when a finding meets this severity (none, critical, high, medium, low, info)")
	f.IntVar(&flagTimeout, "timeout", 0, "Per-unit review deadline in seconds (0 disables)")
	f.BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
	f.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

func addBatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&flagConcurrency, "concurrency", 0, "Files reviewed at once")
	f.StringVar(&flagInclude, "include", "", "Include path globs (comma-separated)")
	f.StringVar(&flagExclude, "exclude", "", "Exclude path globs (comma-separated)")
}

// buildOverrides returns config overrides for the flags set on cmd.
func buildOverrides(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)
	changed := cmd.Flags().Changed
	set := func(flag, key string, v any) {
		if cmd.Flags().Lookup(flag) != nil && changed(flag) {
			m[key] = v
		}
	}
	set("provider", "provider", flagProvider)
	set("model", "model", flagModel)
	set("reviewers", "reviewers", config.SplitList(flagReviewers))
	set("profiles", "profilesFile", flagProfiles)
	set("format", "format", flagFormat)
	set("fail-on", "failOn", flagFailOn)
	set("timeout", "timeoutSeconds", flagTimeout)
	set("concurrency", "concurrency", flagConcurrency)
	set("include", "include", config.SplitList(flagInclude))
	set("exclude", "exclude", config.SplitList(flagExclude))
	if flagNoCache {
		set("no-cache", "cache.enabled", false)
	}
	if flagNoRedact {
		set("no-redact", "privacy.redactSecrets", false)
	}
	if flagDebug {
		m["log.debug"] = true
	}
	if flagLogLevel != "" {
		m["log.level"] = flagLogLevel
	}
	return m
}

// session carries everything one review command needs.
type session struct {
	cfg    config.Config
	log    *zap.Logger
	engine *review.Engine
	runner *review.BatchRunner
}

// newSession loads config and wires the reviewer stack. On failure it sets
// the exit code and returns nil.
func newSession(cmd *cobra.Command) *session {
	cfg, err := config.Load(flagConfig, buildOverrides(cmd))
	if err != nil {
		fail(ExitUsageError, "%v", err)
		return nil
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Debug)
	if err != nil {
		fail(ExitUsageError, "%v", err)
		return nil
	}
	if !cfg.Privacy.RedactSecrets {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	var custom []review.Profile
	if cfg.ProfilesFile != "" {
		custom, err = review.LoadProfiles(cfg.ProfilesFile)
		if err != nil {
			fail(ExitUsageError, "%v", err)
			return nil
		}
	}
	profiles, err := review.ResolveProfiles(cfg.Reviewers, custom)
	if err != nil {
		fail(ExitUsageError, "%v", err)
		return nil
	}

	completer, err := newCompleter(cfg.Provider, cfg.Model)
	if err != nil {
		if providers.IsAuthError(err) {
			fail(ExitAuthError, "%v", err)
		} else {
			fail(ExitUsageError, "%v", err)
		}
		return nil
	}
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		fail(ExitRuntimeError, "opening cache: %v", err)
		return nil
	}
	completer = cache.Wrap(completer, c, cfg.Model, review.ValidResponse, log)

	reg, err := review.NewRegistryFromProfiles(profiles, review.Options{
		Completer: completer,
		MaxTokens: cfg.MaxTokens,
		Privacy:   redact.Policy{Secrets: cfg.Privacy.RedactSecrets, Paths: cfg.Privacy.RedactPaths},
		Logger:    log,
	})
	if err != nil {
		fail(ExitUsageError, "%v", err)
		return nil
	}
	log.Debug("registry ready", zap.Stringer("reviewers", reg), zap.String("provider", completer.Name()))

	engine := review.NewEngine(reg, &review.Orchestrator{
		Resolve: language.Detect,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		Logger:  log,
	})
	return &session{
		cfg:    cfg,
		log:    log,
		engine: engine,
		runner: &review.BatchRunner{
			Engine:      engine,
			Concurrency: cfg.Concurrency,
			Logger:      log,
			ReadFile: func(path string) (string, error) {
				return source.Read(path, source.MaxFileBytes)
			},
		},
	}
}

func (s *session) close() {
	_ = s.log.Sync()
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// finishReport writes the report and sets the exit code from its findings.
func (s *session) finishReport(report *review.Report) {
	if err := output.WriteReport(report, s.cfg.Format, flagOut); err != nil {
		fail(ExitRuntimeError, "writing output: %v", err)
		return
	}
	switch {
	case meetsFailOn(report.Counts, s.cfg.FailOn):
		exitCode = ExitFindings
	case len(report.Outcomes) > 0 && len(report.Failures()) == len(report.Outcomes):
		fmt.Fprintln(os.Stderr, "Error: every reviewer failed")
		exitCode = ExitRuntimeError
	}
}

// finishBatch writes the batch and sets the exit code from its findings.
func (s *session) finishBatch(batch *review.Batch) {
	if err := output.WriteBatch(batch, s.cfg.Format, flagOut); err != nil {
		fail(ExitRuntimeError, "writing output: %v", err)
		return
	}
	switch {
	case meetsFailOn(batch.Counts(), s.cfg.FailOn):
		exitCode = ExitFindings
	case len(batch.Files) > 0 && !anySucceeded(batch):
		fmt.Fprintln(os.Stderr, "Error: no file was reviewed successfully")
		exitCode = ExitRuntimeError
	}
}

func meetsFailOn(c review.Counts, failOn string) bool {
	for _, sev := range review.Severities {
		if c.Of(sev) > 0 && review.MeetsThreshold(sev, failOn) {
			return true
		}
	}
	return false
}

func anySucceeded(b *review.Batch) bool {
	for _, f := range b.Files {
		if f.Report != nil && len(f.Report.Failures()) < len(f.Report.Outcomes) {
			return true
		}
	}
	return false
}

// excludeRel drops paths whose root-relative form matches exclude.
func excludeRel(root string, paths, exclude []string) []string {
	var out []string
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		if source.MatchesAny(rel, exclude) {
			continue
		}
		out = append(out, p)
	}
	return out
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review source code",
	Long:  "Review source code with every enabled reviewer. Use subcommands to choose what to review.",
}

var reviewFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Review a single file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(cmd)
		if s == nil {
			return nil
		}
		defer s.close()

		code, err := source.Read(args[0], source.MaxFileBytes)
		if err != nil {
			fail(ExitRuntimeError, "reading %s: %v", args[0], err)
			return nil
		}
		ctx, cancel := interruptible()
		defer cancel()
		s.finishReport(s.engine.Review(ctx, code, args[0]))
		return nil
	},
}

var flagSnippetPath string

var reviewSnippetCmd = &cobra.Command{
	Use:   "snippet",
	Short: "Review code read from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(cmd)
		if s == nil {
			return nil
		}
		defer s.close()

		code, err := source.ReadFrom(cmd.InOrStdin(), source.MaxFileBytes)
		if err != nil {
			fail(ExitRuntimeError, "reading stdin: %v", err)
			return nil
		}
		ctx, cancel := interruptible()
		defer cancel()
		s.finishReport(s.engine.Review(ctx, code, flagSnippetPath))
		return nil
	},
}

var reviewDirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "Review every matching file under a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		s := newSession(cmd)
		if s == nil {
			return nil
		}
		defer s.close()

		paths, err := source.Collect(root, s.cfg.Include, s.cfg.Exclude)
		if err != nil {
			fail(ExitRuntimeError, "%v", err)
			return nil
		}
		if len(paths) == 0 {
			fmt.Fprintf(os.Stderr, "No files matched under %s.\n", root)
		}
		ctx, cancel := interruptible()
		defer cancel()
		s.finishBatch(s.runner.Run(ctx, root, paths))
		return nil
	},
}

var flagBase string

var reviewChangedCmd = &cobra.Command{
	Use:   "changed",
	Short: "Review files changed on this branch (git diff base...HEAD)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		paths, err := source.ChangedFiles(ctx, meta.Root, flagBase)
		if err != nil {
			fail(ExitRuntimeError, "%v", err)
			return nil
		}
		paths = excludeRel(meta.Root, paths, s.cfg.Exclude)
		fmt.Fprintf(os.Stderr, "Found %d changed files to review.\n", len(paths))
		s.finishBatch(s.runner.Run(ctx, meta.Root, paths))
		return nil
	},
}

var (
	flagOwner  string
	flagRepo   string
	flagDryRun bool
)

var reviewPRCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Review a GitHub pull request and post the results",
	Long:  "List the files of a GitHub pull request, review those present in the working tree, and post one PR review with inline comments unless --dry-run is set.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewPR,
}

func init() {
	reviewCmd.AddCommand(reviewFileCmd)
	reviewCmd.AddCommand(reviewSnippetCmd)
	reviewCmd.AddCommand(reviewDirCmd)
	reviewCmd.AddCommand(reviewChangedCmd)
	reviewCmd.AddCommand(reviewPRCmd)

	for _, cmd := range []*cobra.Command{
		reviewFileCmd,
		reviewSnippetCmd,
		reviewDirCmd,
		reviewChangedCmd,
		reviewPRCmd,
	} {
		addReviewFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{reviewDirCmd, reviewChangedCmd, reviewPRCmd} {
		addBatchFlags(cmd)
	}

	reviewSnippetCmd.Flags().StringVar(&flagSnippetPath, "path", "", "File path used for language detection and the report subject")
	reviewChangedCmd.Flags().StringVar(&flagBase, "base", source.DefaultBase, "Base ref to diff against")
	reviewPRCmd.Flags().StringVar(&flagOwner, "owner", "", "GitHub repository owner (auto-detected if omitted)")
	reviewPRCmd.Flags().StringVar(&flagRepo, "repo", "", "GitHub repository name (auto-detected if omitted)")
	reviewPRCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Review but don't post to GitHub")
}

// githubErr maps a GitHub client error to an exit code.
func githubErr(err error) int {
	if errors.Is(err, github.ErrAuth) {
		return ExitAuthError
	}
	return ExitRuntimeError
}
