// Package cli wires together the Cobra command tree for the panel binary.
//
// It defines the root command and its subcommands (review file|snippet|dir|
// changed|pr, reviewers, config, cache, version), loads layered configuration,
// builds the reviewer registry and engine, and maps results to exit codes for
// CI gating.
package cli
