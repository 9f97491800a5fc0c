// Package github is a small GitHub REST client for pull-request reviews.
//
// It lists the files a PR touches and posts one review whose body is the
// markdown batch summary, with inline comments for findings that carry a line
// number. The token comes from GITHUB_TOKEN; GITHUB_API_URL overrides the
// endpoint for GitHub Enterprise.
package github
