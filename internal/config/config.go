package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/knadh/koanf/v2"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PANEL_"

// Config represents the panel configuration.
type Config struct {
	Provider       string        `json:"provider"`
	Model          string        `json:"model"`
	MaxTokens      int           `json:"maxTokens"`
	TimeoutSeconds int           `json:"timeoutSeconds"`
	Concurrency    int           `json:"concurrency"`
	Reviewers      []string      `json:"reviewers"`
	ProfilesFile   string        `json:"profilesFile,omitempty"`
	Format         string        `json:"format"`
	FailOn         string        `json:"failOn"`
	Include        []string      `json:"include"`
	Exclude        []string      `json:"exclude"`
	Cache          CacheConfig   `json:"cache"`
	Privacy        PrivacyConfig `json:"privacy"`
	Log            LogConfig     `json:"log"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `json:"level,omitempty"`
	Debug bool   `json:"debug"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "markdown"}

var failOnValues = []string{"none", "critical", "high", "medium", "low", "info"}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:       "anthropic",
		Model:          "claude-sonnet-4-20250514",
		MaxTokens:      2048,
		TimeoutSeconds: 120,
		Concurrency:    4,
		Reviewers:      []string{"Security", "Performance", "Style", "Architecture"},
		Format:         "text",
		FailOn:         "none",
		Include:        []string{"**/*.py", "**/*.js", "**/*.jsx", "**/*.mjs", "**/*.ts", "**/*.tsx", "**/*.go", "**/*.rs"},
		Exclude:        []string{"vendor/**", "**/node_modules/**", "**/dist/**", "**/.git/**", "**/*.gen.go"},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// defaultMap is Default flattened to koanf key paths.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"provider":              d.Provider,
		"model":                 d.Model,
		"maxTokens":             d.MaxTokens,
		"timeoutSeconds":        d.TimeoutSeconds,
		"concurrency":           d.Concurrency,
		"reviewers":             d.Reviewers,
		"profilesFile":          d.ProfilesFile,
		"format":                d.Format,
		"failOn":                d.FailOn,
		"include":               d.Include,
		"exclude":               d.Exclude,
		"cache.enabled":         d.Cache.Enabled,
		"cache.dir":             d.Cache.Dir,
		"cache.ttlSeconds":      d.Cache.TTLSeconds,
		"privacy.redactSecrets": d.Privacy.RedactSecrets,
		"privacy.redactPaths":   d.Privacy.RedactPaths,
		"log.level":             d.Log.Level,
		"log.debug":             d.Log.Debug,
	}
}

// envKeys maps environment variable names (without EnvPrefix) to key paths.
var envKeys = map[string]string{
	"PROVIDER":        "provider",
	"MODEL":           "model",
	"MAX_TOKENS":      "maxTokens",
	"TIMEOUT_SECONDS": "timeoutSeconds",
	"CONCURRENCY":     "concurrency",
	"REVIEWERS":       "reviewers",
	"PROFILES_FILE":   "profilesFile",
	"FORMAT":          "format",
	"FAIL_ON":         "failOn",
	"INCLUDE":         "include",
	"EXCLUDE":         "exclude",
	"CACHE_ENABLED":   "cache.enabled",
	"CACHE_DIR":       "cache.dir",
	"CACHE_TTL":       "cache.ttlSeconds",
	"REDACT_SECRETS":  "privacy.redactSecrets",
	"REDACT_PATHS":    "privacy.redactPaths",
	"LOG_LEVEL":       "log.level",
	"DEBUG":           "log.debug",
}

var listKeys = map[string]bool{
	"reviewers":           true,
	"include":             true,
	"exclude":             true,
	"privacy.redactPaths": true,
}

func envTransform(k, v string) (string, any) {
	key, ok := envKeys[strings.TrimPrefix(k, EnvPrefix)]
	if !ok {
		return "", nil
	}
	if listKeys[key] {
		return key, SplitList(v)
	}
	return key, v
}

// SplitList splits a comma-separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ConfigDir returns the platform-appropriate config directory for panel.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "panel"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "panel"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "panel"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "panel"), nil
	default:
		return filepath.Join(home, ".config", "panel"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// path selects the config file; empty means ConfigPath. A missing file is
// not an error. overrides holds CLI flag values keyed by path, e.g.
// "cache.enabled"; only flags the user set should be present.
func Load(path string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	path, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{Prefix: EnvPrefix, TransformFunc: envTransform}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("applying flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values that the rest of the program relies on.
func (c Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider must be set")
	}
	if !contains(Formats, c.Format) {
		return fmt.Errorf("format must be one of %s, got %q", strings.Join(Formats, ", "), c.Format)
	}
	if !contains(failOnValues, c.FailOn) {
		return fmt.Errorf("failOn must be one of %s, got %q", strings.Join(failOnValues, ", "), c.FailOn)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("maxTokens must be positive, got %d", c.MaxTokens)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeoutSeconds must not be negative, got %d", c.TimeoutSeconds)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttlSeconds must not be negative, got %d", c.Cache.TTLSeconds)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// resolvePath returns path, or ConfigPath when path is empty.
func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return ConfigPath()
}

// LoadFile reads only the config file at path (ConfigPath when empty), with
// no env or defaults layered in. A missing file yields Default and exists
// false, so callers editing the file start from a complete config.
func LoadFile(path string) (cfg Config, exists bool, err error) {
	path, err = resolvePath(path)
	if err != nil {
		return Config{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), false, nil
		}
		return Config{}, false, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, true, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, true, nil
}

// Save writes cfg to path (ConfigPath when empty) and returns the path written.
func Save(path string, cfg Config) (string, error) {
	path, err := resolvePath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		if !contains(Formats, value) {
			return fmt.Errorf("format must be one of %s", strings.Join(Formats, ", "))
		}
		cfg.Format = value
	case "failOn":
		if !contains(failOnValues, value) {
			return fmt.Errorf("failOn must be one of %s", strings.Join(failOnValues, ", "))
		}
		cfg.FailOn = value
	case "profilesFile":
		cfg.ProfilesFile = value
	case "reviewers":
		cfg.Reviewers = SplitList(value)
	case "include":
		cfg.Include = SplitList(value)
	case "exclude":
		cfg.Exclude = SplitList(value)
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = SplitList(value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "log.level":
		cfg.Log.Level = value
	case "maxTokens", "timeoutSeconds", "concurrency", "cache.ttlSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		if n < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
		switch key {
		case "maxTokens":
			cfg.MaxTokens = n
		case "timeoutSeconds":
			cfg.TimeoutSeconds = n
		case "concurrency":
			cfg.Concurrency = n
		default:
			cfg.Cache.TTLSeconds = n
		}
	case "cache.enabled", "privacy.redactSecrets", "log.debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
		switch key {
		case "cache.enabled":
			cfg.Cache.Enabled = b
		case "privacy.redactSecrets":
			cfg.Privacy.RedactSecrets = b
		default:
			cfg.Log.Debug = b
		}
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
