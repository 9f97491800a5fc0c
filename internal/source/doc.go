// Package source gathers the code units panel reviews: files under a
// directory selected by doublestar include/exclude globs, files changed on a
// git branch, and single files or stdin bodies read with size and binary
// checks.
package source
