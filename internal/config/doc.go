// Package config loads and merges panel configuration from multiple sources
// with koanf.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PANEL_PROVIDER, PANEL_MAX_TOKENS, PANEL_CACHE_ENABLED, etc.)
//  3. Config file ($XDG_CONFIG_HOME/panel/config.json)
//  4. Built-in defaults
//
// List values in the environment are comma-separated. Use [Load] to obtain a
// merged [Config], [Save] to write the config file, and [SetField] to update
// a single key.
package config
