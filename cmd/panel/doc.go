// Panel runs several independent LLM reviewers over the same source and
// merges their findings into one ranked report.
//
// Usage:
//
//	panel review file main.go              # review one file
//	panel review snippet --path x.py       # review code from stdin
//	panel review dir ./src                 # review every matching file
//	panel review changed --base origin/main  # review files changed on this branch
//	panel review pr 42                     # review a PR and post the results
//	panel reviewers                        # list the effective reviewers
//
// Exit codes: 0 ok, 1 findings at or above --fail-on, 2 usage, 3 auth,
// 4 runtime failure.
package main
