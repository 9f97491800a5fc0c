// Package redact scrubs likely secrets from source code before it is sent to
// a completion provider.
//
// Detection is regex based and intentionally conservative: false positives
// replace harmless text with a placeholder, which only costs review context.
// A [Policy] can also withhold whole files whose paths match doublestar
// patterns such as "**/.env".
package redact
