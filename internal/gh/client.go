// Package gh wraps the GitHub CLI and GraphQL API behind interfaces so
// every remote operation can be mocked in tests.
package gh

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// IssueRef identifies an issue created through the API.
type IssueRef struct {
	Number int
	NodeID string
	URL    string
}

// PRInfo describes an existing or newly created pull request.
type PRInfo struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	State  string `json:"state"`
}

// Client is the GitHub surface the sync logic consumes. Mutations go
// through the gh CLI; issue creation and sub-issue linking use the
// GraphQL API (via gh api graphql).
type Client interface {
	// CurrentRepo resolves the owner/repo slug of the current directory.
	CurrentRepo(ctx context.Context) (string, error)

	// CreateLabel creates a label. Callers inspect the returned APIError
	// output with IsAlreadyExists to swallow conflicts.
	CreateLabel(ctx context.Context, repo, name, color, description string) error

	// CreateIssue creates an issue via GraphQL and returns its number,
	// node ID and URL. Label names are resolved to IDs first.
	CreateIssue(ctx context.Context, repo, title, body string, labelNames []string) (*IssueRef, error)

	// AddSubIssue links child to parent via the sub-issues GraphQL API.
	AddSubIssue(ctx context.Context, repo, parentNodeID, childNodeID string) error

	// EditIssueBody replaces the body of an issue.
	EditIssueBody(ctx context.Context, repo string, number int, body string) error

	// EditIssueLabels adds and removes labels on an issue.
	EditIssueLabels(ctx context.Context, repo string, number int, add, remove []string) error

	CloseIssue(ctx context.Context, repo string, number int) error
	ReopenIssue(ctx context.Context, repo string, number int) error

	// ViewPR returns the open or merged PR for a head branch, or nil
	// when none exists.
	ViewPR(ctx context.Context, repo, head string) (*PRInfo, error)

	CreatePR(ctx context.Context, repo, head, base, title, body string) (*PRInfo, error)
	EditPR(ctx context.Context, repo string, number int, title, body string) error
}

// CLIClient is the production Client backed by the gh CLI.
type CLIClient struct {
	runner   CommandRunner
	extraEnv []string

	repoIDs map[string]string
}

// NewCLIClient creates a client using the real command runner.
func NewCLIClient() *CLIClient {
	return NewCLIClientWithRunner(&ExecRunner{})
}

// NewCLIClientWithRunner creates a client with a custom runner
// (useful for testing).
func NewCLIClientWithRunner(runner CommandRunner) *CLIClient {
	return &CLIClient{
		runner:  runner,
		repoIDs: make(map[string]string),
	}
}

// WithToken routes gh invocations through an explicit token instead of
// the ambient gh login, for App-authenticated runs.
func (c *CLIClient) WithToken(token string) *CLIClient {
	if token != "" {
		c.extraEnv = []string{"GITHUB_TOKEN=" + token}
	}
	return c
}

// run executes one gh invocation with retry for transient failures.
func (c *CLIClient) run(ctx context.Context, op string, args ...string) ([]byte, error) {
	var output []byte
	err := retryWithBackoff(func() error {
		var err error
		if len(c.extraEnv) > 0 {
			output, err = c.runner.RunEnv(ctx, c.extraEnv, "gh", args...)
		} else {
			output, err = c.runner.Run(ctx, "gh", args...)
		}
		if err != nil {
			return &APIError{Op: op, Output: output, Err: err}
		}
		return nil
	})
	return output, err
}

// CurrentRepo resolves the repository slug via gh repo view.
func (c *CLIClient) CurrentRepo(ctx context.Context) (string, error) {
	output, err := c.run(ctx, "gh repo view", "repo", "view", "--json", "nameWithOwner", "--jq", ".nameWithOwner")
	if err != nil {
		return "", err
	}
	repo := strings.TrimSpace(string(output))
	if repo == "" {
		return "", fmt.Errorf("could not determine repository (is this directory a GitHub repo?)")
	}
	return repo, nil
}

// CreateLabel attempts label creation unconditionally.
func (c *CLIClient) CreateLabel(ctx context.Context, repo, name, color, description string) error {
	_, err := c.run(ctx, "gh label create", "label", "create", name,
		"--repo", repo,
		"--color", color,
		"--description", description)
	return err
}

// EditIssueBody replaces an issue body.
func (c *CLIClient) EditIssueBody(ctx context.Context, repo string, number int, body string) error {
	_, err := c.run(ctx, "gh issue edit", "issue", "edit", strconv.Itoa(number),
		"--repo", repo,
		"--body", body)
	return err
}

// EditIssueLabels adds and removes labels in a single gh invocation.
func (c *CLIClient) EditIssueLabels(ctx context.Context, repo string, number int, add, remove []string) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	args := []string{"issue", "edit", strconv.Itoa(number), "--repo", repo}
	if len(add) > 0 {
		args = append(args, "--add-label", strings.Join(add, ","))
	}
	if len(remove) > 0 {
		args = append(args, "--remove-label", strings.Join(remove, ","))
	}
	_, err := c.run(ctx, "gh issue edit", args...)
	return err
}

// CloseIssue closes an issue as completed.
func (c *CLIClient) CloseIssue(ctx context.Context, repo string, number int) error {
	_, err := c.run(ctx, "gh issue close", "issue", "close", strconv.Itoa(number),
		"--repo", repo,
		"--reason", "completed")
	return err
}

// ReopenIssue reopens a closed issue.
func (c *CLIClient) ReopenIssue(ctx context.Context, repo string, number int) error {
	_, err := c.run(ctx, "gh issue reopen", "issue", "reopen", strconv.Itoa(number),
		"--repo", repo)
	return err
}

// ViewPR looks up the PR for a head branch. A "no pull requests found"
// answer is not an error; it means the composer should create one.
func (c *CLIClient) ViewPR(ctx context.Context, repo, head string) (*PRInfo, error) {
	args := []string{"pr", "view", head, "--repo", repo, "--json", "number,url,state"}
	var output []byte
	var runErr error
	if len(c.extraEnv) > 0 {
		output, runErr = c.runner.RunEnv(ctx, c.extraEnv, "gh", args...)
	} else {
		output, runErr = c.runner.Run(ctx, "gh", args...)
	}
	if runErr != nil {
		if strings.Contains(strings.ToLower(string(output)), "no pull requests found") {
			return nil, nil
		}
		return nil, &APIError{Op: "gh pr view", Output: output, Err: runErr}
	}

	var info PRInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("parse gh pr view output: %w", err)
	}
	return &info, nil
}

// CreatePR opens a pull request and returns its number and URL.
func (c *CLIClient) CreatePR(ctx context.Context, repo, head, base, title, body string) (*PRInfo, error) {
	output, err := c.run(ctx, "gh pr create", "pr", "create",
		"--repo", repo,
		"--head", head,
		"--base", base,
		"--title", title,
		"--body", body)
	if err != nil {
		return nil, err
	}

	// gh pr create prints the PR URL as its last line.
	url := lastLine(string(output))
	number, err := prNumberFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse gh pr create output %q: %w", url, err)
	}
	return &PRInfo{Number: number, URL: url, State: "OPEN"}, nil
}

// EditPR updates the title and body of an existing pull request.
func (c *CLIClient) EditPR(ctx context.Context, repo string, number int, title, body string) error {
	_, err := c.run(ctx, "gh pr edit", "pr", "edit", strconv.Itoa(number),
		"--repo", repo,
		"--title", title,
		"--body", body)
	return err
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func prNumberFromURL(url string) (int, error) {
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return 0, fmt.Errorf("no PR number in URL")
	}
	return strconv.Atoi(url[idx+1:])
}
