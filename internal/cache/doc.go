// Package cache provides a file-based cache for completion responses.
//
// Entries are keyed by a SHA-256 hash of the provider name, model, token
// ceiling and the exact system and user text, so any change to a prompt
// variant or to the (already redacted) code produces a new key. Each entry
// stores the raw completion text with a creation timestamp and a TTL in
// seconds; expired entries are skipped on read.
//
// [Wrap] decorates a providers.Completer so reviewers get caching without
// knowing about it.
package cache
