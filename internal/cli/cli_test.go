package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/panel/internal/config"
	"github.com/dshills/panel/internal/providers"
	"github.com/dshills/panel/internal/review"
)

const highFinding = `{"findings":[{"severity":"high","category":"injection","line_number":2,"code_snippet":null,"description":"unsafe query","recommendation":"use placeholders"}],"summary":"one issue"}`

// fakeCompleter answers every request with the same text or error.
type fakeCompleter struct {
	text string
	err  error

	mu    sync.Mutex
	calls int
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return providers.CompletionResponse{}, f.err
	}
	return providers.CompletionResponse{Text: f.text}, nil
}

// resetFlags restores every flag to its default and clears its changed bit.
func resetFlags() {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// setup isolates config, cache and environment, and installs completer.
func setup(t *testing.T, completer providers.Completer) string {
	t.Helper()
	resetFlags()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, k := range []string{"PROVIDER", "MODEL", "MAX_TOKENS", "TIMEOUT_SECONDS", "CONCURRENCY", "REVIEWERS",
		"PROFILES_FILE", "FORMAT", "FAIL_ON", "INCLUDE", "EXCLUDE", "CACHE_ENABLED", "CACHE_DIR", "CACHE_TTL",
		"REDACT_SECRETS", "REDACT_PATHS", "LOG_LEVEL", "DEBUG"} {
		t.Setenv(config.EnvPrefix+k, "")
		os.Unsetenv(config.EnvPrefix + k)
	}

	orig := newCompleter
	if completer != nil {
		newCompleter = func(provider, model string) (providers.Completer, error) { return completer, nil }
	}
	t.Cleanup(func() { newCompleter = orig })
	return dir
}

func run(t *testing.T, args ...string) int {
	t.Helper()
	rootCmd.SetArgs(args)
	return Run()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, data)
	}
	return m
}

// --- review commands ---

func TestReviewFile_FailOn(t *testing.T) {
	fake := &fakeCompleter{text: highFinding}
	dir := setup(t, fake)
	src := filepath.Join(dir, "app.py")
	writeFile(t, src, "import os\nos.system(input())\n")
	out := filepath.Join(dir, "report.json")

	code := run(t, "review", "file", src, "--format", "json", "--out", out, "--fail-on", "high", "--no-cache")
	if code != ExitFindings {
		t.Fatalf("exit = %d, want %d", code, ExitFindings)
	}
	if fake.calls != len(review.BuiltinNames) {
		t.Errorf("completer calls = %d, want %d", fake.calls, len(review.BuiltinNames))
	}

	m := readJSON(t, out)
	if m["totalIssues"].(float64) != 4 {
		t.Errorf("totalIssues = %v, want 4", m["totalIssues"])
	}
	if m["language"] != "python" {
		t.Errorf("language = %v", m["language"])
	}
	outcomes := m["outcomesByReviewer"].(map[string]any)
	if len(outcomes) != 4 {
		t.Errorf("outcomes = %d, want 4", len(outcomes))
	}
}

func TestReviewFile_BelowThreshold(t *testing.T) {
	dir := setup(t, &fakeCompleter{text: highFinding})
	src := filepath.Join(dir, "app.py")
	writeFile(t, src, "print(1)\n")

	code := run(t, "review", "file", src, "--format", "json", "--out", filepath.Join(dir, "r.json"), "--fail-on", "critical", "--no-cache")
	if code != ExitSuccess {
		t.Errorf("exit = %d, want %d", code, ExitSuccess)
	}
}

func TestReviewFile_SelectedReviewers(t *testing.T) {
	fake := &fakeCompleter{text: `{"findings":[],"summary":"clean"}`}
	dir := setup(t, fake)
	src := filepath.Join(dir, "main.go")
	writeFile(t, src, "package main\n")
	out := filepath.Join(dir, "r.json")

	code := run(t, "review", "file", src, "--reviewers", "Style,Security", "--format", "json", "--out", out, "--no-cache")
	if code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	if fake.calls != 2 {
		t.Errorf("calls = %d, want 2", fake.calls)
	}
	data, _ := os.ReadFile(out)
	if i, j := bytes.Index(data, []byte(`"Style"`)), bytes.Index(data, []byte(`"Security"`)); i < 0 || j < 0 || i > j {
		t.Errorf("outcomes not in enabled order:\n%s", data)
	}
}

func TestReviewFile_AllReviewersFail(t *testing.T) {
	dir := setup(t, &fakeCompleter{err: errors.New("connection refused")})
	src := filepath.Join(dir, "app.js")
	writeFile(t, src, "eval(x)\n")
	out := filepath.Join(dir, "r.json")

	code := run(t, "review", "file", src, "--format", "json", "--out", out, "--no-cache")
	if code != ExitRuntimeError {
		t.Fatalf("exit = %d, want %d", code, ExitRuntimeError)
	}
	m := readJSON(t, out)
	if m["totalIssues"].(float64) != 0 {
		t.Errorf("totalIssues = %v", m["totalIssues"])
	}
	for name, o := range m["outcomesByReviewer"].(map[string]any) {
		if o.(map[string]any)["errorKind"] != "InvocationError" {
			t.Errorf("%s outcome = %v", name, o)
		}
	}
}

func TestReviewFile_Missing(t *testing.T) {
	dir := setup(t, &fakeCompleter{text: highFinding})
	code := run(t, "review", "file", filepath.Join(dir, "nope.py"), "--no-cache")
	if code != ExitRuntimeError {
		t.Errorf("exit = %d, want %d", code, ExitRuntimeError)
	}
}

func TestReviewFile_UnknownReviewer(t *testing.T) {
	dir := setup(t, &fakeCompleter{text: highFinding})
	src := filepath.Join(dir, "a.py")
	writeFile(t, src, "x = 1\n")
	code := run(t, "review", "file", src, "--reviewers", "Security,Nope", "--no-cache")
	if code != ExitUsageError {
		t.Errorf("exit = %d, want %d", code, ExitUsageError)
	}
}

func TestReviewFile_MissingAPIKey(t *testing.T) {
	dir := setup(t, nil)
	t.Setenv("ANTHROPIC_API_KEY", "")
	src := filepath.Join(dir, "a.py")
	writeFile(t, src, "x = 1\n")
	code := run(t, "review", "file", src, "--provider", "anthropic", "--no-cache")
	if code != ExitAuthError {
		t.Errorf("exit = %d, want %d", code, ExitAuthError)
	}
}

func TestReviewFile_InvalidFormat(t *testing.T) {
	dir := setup(t, &fakeCompleter{text: highFinding})
	src := filepath.Join(dir, "a.py")
	writeFile(t, src, "x = 1\n")
	code := run(t, "review", "file", src, "--format", "sarif")
	if code != ExitUsageError {
		t.Errorf("exit = %d, want %d", code, ExitUsageError)
	}
}

func TestReviewFile_CustomProfiles(t *testing.T) {
	fake := &fakeCompleter{text: `{"findings":[],"summary":"ok"}`}
	dir := setup(t, fake)
	profiles := filepath.Join(dir, "reviewers.yaml")
	writeFile(t, profiles, `reviewers:
  - name: Accessibility
    category: a11y
    prompts:
      default: You review UI code for accessibility.
`)
	src := filepath.Join(dir, "a.ts")
	writeFile(t, src, "const x: number = 1;\n")
	out := filepath.Join(dir, "r.json")

	code := run(t, "review", "file", src, "--profiles", profiles, "--reviewers", "Security", "--format", "json", "--out", out, "--no-cache")
	if code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	outcomes := readJSON(t, out)["outcomesByReviewer"].(map[string]any)
	if _, ok := outcomes["Accessibility"]; !ok || len(outcomes) != 2 {
		t.Errorf("outcomes = %v", outcomes)
	}
}

func TestReviewSnippet_Stdin(t *testing.T) {
	dir := setup(t, &fakeCompleter{text: highFinding})
	out := filepath.Join(dir, "r.json")
	rootCmd.SetIn(strings.NewReader("fn main() {\n    let x = 1;\n}\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	code := run(t, "review", "snippet", "--format", "json", "--out", out, "--no-cache")
	if code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	m := readJSON(t, out)
	if m["subjectName"] != review.SnippetSubject {
		t.Errorf("subjectName = %v", m["subjectName"])
	}
	if m["language"] != "rust" {
		t.Errorf("language = %v, want rust", m["language"])
	}
}

func TestReviewSnippet_Path(t *testing.T) {
	dir := setup(t, &fakeCompleter{text: highFinding})
	out := filepath.Join(dir, "r.json")
	rootCmd.SetIn(strings.NewReader("x = 1\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	code := run(t, "review", "snippet", "--path", "lib/util.go", "--format", "json", "--out", out, "--no-cache")
	if code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	m := readJSON(t, out)
	if m["subjectName"] != "lib/util.go" || m["language"] != "go" {
		t.Errorf("subject/language = %v/%v", m["subjectName"], m["language"])
	}
}

func TestReviewDir(t *testing.T) {
	dir := setup(t, &fakeCompleter{text: highFinding})
	root := filepath.Join(dir, "proj")
	writeFile(t, filepath.Join(root, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(root, "pkg", "b.go"), "package pkg\n")
	writeFile(t, filepath.Join(root, "bin.go"), "pack\x00age\n")
	writeFile(t, filepath.Join(root, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(root, "vendor", "v.go"), "package v\n")
	out := filepath.Join(dir, "batch.json")

	code := run(t, "review", "dir", root, "--format", "json", "--out", out, "--fail-on", "high", "--no-cache", "--concurrency", "2")
	if code != ExitFindings {
		t.Fatalf("exit = %d, want %d", code, ExitFindings)
	}

	m := readJSON(t, out)
	files := m["files"].([]any)
	if len(files) != 3 {
		t.Fatalf("files = %d, want 3 (a.py, bin.go, pkg/b.go)", len(files))
	}
	var errs int
	var paths []string
	for _, f := range files {
		fm := f.(map[string]any)
		paths = append(paths, fm["path"].(string))
		if fm["error"] != nil {
			errs++
		}
	}
	if errs != 1 {
		t.Errorf("errored files = %d, want 1 (binary)", errs)
	}
	for i := 1; i < len(paths); i++ {
		if paths[i-1] > paths[i] {
			t.Errorf("files not sorted: %v", paths)
		}
	}
}

func TestReviewPR_InvalidNumber(t *testing.T) {
	setup(t, &fakeCompleter{text: highFinding})
	if code := run(t, "review", "pr", "abc"); code != ExitUsageError {
		t.Errorf("exit = %d, want %d", code, ExitUsageError)
	}
}

func TestReviewPR_MissingArg(t *testing.T) {
	setup(t, &fakeCompleter{text: highFinding})
	if code := run(t, "review", "pr"); code != ExitUsageError {
		t.Errorf("exit = %d, want %d", code, ExitUsageError)
	}
}

func TestReviewCmd_HasSubcommands(t *testing.T) {
	want := map[string]bool{"file": false, "snippet": false, "dir": false, "changed": false, "pr": false}
	for _, c := range reviewCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("review subcommand %q not registered", name)
		}
	}
}

// --- helpers ---

func TestBuildOverrides(t *testing.T) {
	resetFlags()
	cmd := reviewDirCmd
	if err := cmd.ParseFlags([]string{"--provider", "openai", "--timeout", "30", "--reviewers", "Style, Security", "--no-cache"}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(resetFlags)

	m := buildOverrides(cmd)
	if m["provider"] != "openai" {
		t.Errorf("provider = %v", m["provider"])
	}
	if m["timeoutSeconds"] != 30 {
		t.Errorf("timeoutSeconds = %v", m["timeoutSeconds"])
	}
	if got := m["reviewers"].([]string); len(got) != 2 || got[1] != "Security" {
		t.Errorf("reviewers = %v", got)
	}
	if m["cache.enabled"] != false {
		t.Errorf("cache.enabled = %v", m["cache.enabled"])
	}
	if _, ok := m["model"]; ok {
		t.Error("unset flag should not override")
	}
	if _, ok := m["concurrency"]; ok {
		t.Error("unset int flag should not override")
	}
}

func TestBuildOverrides_NoFlags(t *testing.T) {
	resetFlags()
	if m := buildOverrides(reviewFileCmd); len(m) != 0 {
		t.Errorf("overrides = %v, want empty", m)
	}
}

func TestMeetsFailOn(t *testing.T) {
	c := review.Counts{Medium: 1, Low: 2}
	tests := []struct {
		failOn string
		want   bool
	}{
		{"none", false},
		{"critical", false},
		{"high", false},
		{"medium", true},
		{"low", true},
		{"info", true},
	}
	for _, tt := range tests {
		if got := meetsFailOn(c, tt.failOn); got != tt.want {
			t.Errorf("meetsFailOn(%s) = %v, want %v", tt.failOn, got, tt.want)
		}
	}
}

func TestExcludeRel(t *testing.T) {
	root := filepath.Join("repo")
	paths := []string{filepath.Join(root, "a.go"), filepath.Join(root, "vendor", "x.go")}
	got := excludeRel(root, paths, []string{"vendor/**"})
	if len(got) != 1 || got[0] != paths[0] {
		t.Errorf("excludeRel = %v", got)
	}
}

// --- other commands ---

func TestVersionCmd(t *testing.T) {
	resetFlags()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	if code := run(t, "version"); code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(buf.String(), "panel version "+version) {
		t.Errorf("output = %q", buf.String())
	}
}

func TestReviewersCmd(t *testing.T) {
	dir := setup(t, nil)
	profiles := filepath.Join(dir, "reviewers.yaml")
	writeFile(t, profiles, `reviewers:
  - name: Style
    prompts:
      default: Custom style prompt.
  - name: Docs
    category: documentation
    prompts:
      default: You review documentation.
      go: You review Go doc comments.
`)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	if code := run(t, "reviewers", "--profiles", profiles); code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	out := buf.String()
	for _, want := range []string{"Security", "Performance", "Architecture", "Docs", "documentation", "custom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Style") > strings.Index(out, "Architecture") {
		t.Errorf("custom Style should keep the built-in slot:\n%s", out)
	}
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := setup(t, nil)
	if code := run(t, "config", "init"); code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config", "panel", "config.json"))
	if err != nil {
		t.Fatalf("config init did not create config.json: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config file is not valid JSON: %v", err)
	}
	if cfg.Provider == "" || len(cfg.Reviewers) != 4 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestConfigSet_UpdatesFile(t *testing.T) {
	dir := setup(t, nil)
	if code := run(t, "config", "set", "provider", "openai"); code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	if code := run(t, "config", "set", "concurrency", "8"); code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}

	cfg, err := config.Load(filepath.Join(dir, "config", "panel", "config.json"), nil)
	if err != nil {
		t.Fatalf("saved config does not load: %v", err)
	}
	if cfg.Provider != "openai" || cfg.Concurrency != 8 {
		t.Errorf("provider/concurrency = %q/%d", cfg.Provider, cfg.Concurrency)
	}
}

func TestConfig_ExplicitPath(t *testing.T) {
	dir := setup(t, nil)
	path := filepath.Join(dir, "custom", "panel.json")

	if code := run(t, "config", "set", "failOn", "high", "--config", path); code != ExitSuccess {
		t.Fatalf("set exit = %d", code)
	}
	if code := run(t, "config", "init", "--config", path); code != ExitSuccess {
		t.Fatalf("init exit = %d", code)
	}
	cfg, err := config.Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FailOn != "high" {
		t.Errorf("failOn = %q; init must not overwrite an existing file", cfg.FailOn)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	if code := run(t, "config", "path", "--config", path); code != ExitSuccess {
		t.Fatalf("path exit = %d", code)
	}
	if strings.TrimSpace(buf.String()) != path {
		t.Errorf("config path = %q, want %q", buf.String(), path)
	}
}

func TestConfigSet_InvalidKey(t *testing.T) {
	setup(t, nil)
	if code := run(t, "config", "set", "unknownKey", "value"); code != ExitUsageError {
		t.Errorf("exit = %d, want %d", code, ExitUsageError)
	}
}

func TestConfigSet_MissingArgs(t *testing.T) {
	setup(t, nil)
	if code := run(t, "config", "set", "provider"); code != ExitUsageError {
		t.Errorf("exit = %d, want %d", code, ExitUsageError)
	}
}

func TestConfigShow(t *testing.T) {
	setup(t, nil)
	t.Setenv("PANEL_FORMAT", "markdown")
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	if code := run(t, "config", "show"); code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	var cfg config.Config
	if err := json.Unmarshal(buf.Bytes(), &cfg); err != nil {
		t.Fatalf("config show output is not JSON: %v", err)
	}
	if cfg.Format != "markdown" {
		t.Errorf("format = %q, want env override", cfg.Format)
	}
}

func TestCacheShowAndClear(t *testing.T) {
	dir := setup(t, nil)
	cacheDir := filepath.Join(dir, "cache", "panel")
	writeFile(t, filepath.Join(cacheDir, "abc.json"), `{"key":"k","response":"r","createdAt":"2026-01-01T00:00:00Z","ttl":86400}`)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	if code := run(t, "cache", "show"); code != ExitSuccess {
		t.Fatalf("show exit = %d", code)
	}
	if !strings.Contains(buf.String(), `"entries": 1`) {
		t.Errorf("show output = %s", buf.String())
	}

	buf.Reset()
	if code := run(t, "cache", "clear"); code != ExitSuccess {
		t.Fatalf("clear exit = %d", code)
	}
	if !strings.Contains(buf.String(), "1 entries removed") {
		t.Errorf("clear output = %s", buf.String())
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "abc.json")); !os.IsNotExist(err) {
		t.Error("cache entry still present after clear")
	}
}
