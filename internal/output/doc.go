// Package output formats review reports for display or machine consumption.
//
// Three formats are supported:
//   - text: terminal tables (default)
//   - json: the structured report, with outcomesByReviewer in registration order
//   - markdown: PR-comment-friendly with collapsible sections per severity
//
// Use [GetWriter] to obtain a [Writer] for a given format string. Every
// writer renders both a single [*review.Report] and a multi-file
// [*review.Batch]. [WriteReport] and [WriteBatch] handle destination selection.
package output
