package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/dshills/panel/internal/review"
)

const (
	defaultAPIURL = "https://api.github.com"
	filesPerPage  = 100
	// maxFilePages bounds pagination; GitHub lists at most 3000 files per PR.
	maxFilePages = 30
)

// ErrAuth is returned when GitHub rejects the token.
var ErrAuth = errors.New("github authentication failed")

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a new GitHub client. Requires GITHUB_TOKEN env var.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("%w: GITHUB_TOKEN environment variable is not set", ErrAuth)
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	apiURL = strings.TrimRight(apiURL, "/")

	return &Client{
		token:   token,
		apiURL:  apiURL,
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// PRFile is a file changed in a pull request.
type PRFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// GetPRFiles lists the files changed in a pull request, following pagination.
// Removed files are skipped since there is nothing left to review.
func (c *Client) GetPRFiles(ctx context.Context, owner, repo string, prNumber int) ([]PRFile, error) {
	var out []PRFile
	for page := 1; page <= maxFilePages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.apiURL, owner, repo, prNumber, filesPerPage, page)

		body, status, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("fetching PR files: %w", err)
		}
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
		}

		var files []PRFile
		if err := json.Unmarshal(body, &files); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		for _, f := range files {
			if f.Status == "removed" {
				continue
			}
			out = append(out, f)
		}
		if len(files) < filesPerPage {
			break
		}
	}
	return out, nil
}

// ReviewComment represents an inline comment on a PR review.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Side string `json:"side,omitempty"`
	Body string `json:"body"`
}

// ReviewRequest represents a PR review to post.
type ReviewRequest struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// PostReview posts a pull request review with inline comments.
func (c *Client) PostReview(ctx context.Context, owner, repo string, prNumber int, review ReviewRequest) error {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.apiURL, owner, repo, prNumber)

	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshaling review: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return fmt.Errorf("posting review: %w", err)
	}
	if status == http.StatusUnprocessableEntity {
		return fmt.Errorf("GitHub rejected review (422): %s", string(body))
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, resp.StatusCode, fmt.Errorf("%w: %s", ErrAuth, string(body))
	}
	return body, resp.StatusCode, nil
}

// BuildPRReview turns a batch into a PR review. body becomes the review body.
// repoPath maps a batch file path to its path in the repository; files it
// rejects get no inline comments. Findings without a line stay in the body.
func BuildPRReview(batch *review.Batch, body string, repoPath func(string) (string, bool)) ReviewRequest {
	comments := []ReviewComment{}
	for _, fr := range batch.Files {
		if fr.Report == nil {
			continue
		}
		path, ok := repoPath(fr.Path)
		if !ok {
			continue
		}
		for _, f := range fr.Report.Findings() {
			line := f.LineOrZero()
			if line <= 0 {
				continue
			}
			comments = append(comments, ReviewComment{
				Path: path,
				Line: line,
				Side: "RIGHT",
				Body: formatInlineComment(f),
			})
		}
	}

	return ReviewRequest{
		Body:     body,
		Event:    "COMMENT",
		Comments: comments,
	}
}

func formatInlineComment(f review.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**[%s] %s** (%s)\n\n", strings.ToUpper(string(f.Severity)), f.Category, f.ProducedBy)
	sb.WriteString(f.Description)
	if f.Recommendation != "" {
		fmt.Fprintf(&sb, "\n\n**Recommendation:** %s", f.Recommendation)
	}
	if f.Snippet != nil && *f.Snippet != "" {
		fmt.Fprintf(&sb, "\n\n```\n%s\n```", *f.Snippet)
	}
	return sb.String()
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the origin remote of the repository in dir.
func DetectRepo(ctx context.Context, dir string) (owner, repo string, err error) {
	cmd := exec.CommandContext(ctx, "git", "remote", "get-url", "origin")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
