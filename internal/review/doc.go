// Package review runs a panel of independent reviewers over one code unit and
// merges their results into a single ranked Report.
//
// A Reviewer returns an Outcome: either a success with findings and a summary,
// or a failure with an ErrorKind. LLMReviewer is the implementation used for
// the built-in Security, Performance, Style and Architecture profiles and for
// custom profiles loaded from YAML. It selects a system prompt by language,
// fences the code in the user message, and validates the JSON reply strictly:
// a wrong document shape fails the reviewer, while a malformed finding is
// dropped and counted.
//
// The Orchestrator fans a unit out to every reviewer in a Registry, one
// goroutine each, and always yields one outcome per registered name. Panics
// and deadlines become failures. BuildReport then sorts findings canonically
// by severity, line, reviewer and position, so the report is identical for
// any completion order.
//
// BatchRunner reviews many files with bounded concurrency and records read
// errors per file.
package review
