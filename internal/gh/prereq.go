package gh

import (
	"context"
	"os/exec"
	"strings"
)

// Checker verifies prerequisites before any mutation is attempted. Every
// failure names the exact remediation command.
type Checker struct {
	Runner CommandRunner

	// SkipAuthProbe disables the gh login check. Set when a token or
	// App credential from the environment authenticates gh instead.
	SkipAuthProbe bool

	// lookPath is replaceable in tests.
	lookPath func(string) (string, error)
}

// NewChecker creates a checker using the real command runner.
func NewChecker(runner CommandRunner) *Checker {
	return &Checker{Runner: runner, lookPath: exec.LookPath}
}

// Check verifies the gh CLI is installed and authenticated and the
// current directory is a git repository.
func (c *Checker) Check(ctx context.Context) error {
	look := c.lookPath
	if look == nil {
		look = exec.LookPath
	}
	if _, err := look("gh"); err != nil {
		return &PrereqError{
			Problem: "the GitHub CLI (gh) is not installed",
			Remedy:  "brew install gh (or see https://cli.github.com)",
		}
	}

	if !c.SkipAuthProbe {
		if _, err := c.Runner.Run(ctx, "gh", "auth", "status"); err != nil {
			return &PrereqError{
				Problem: "gh CLI is not authenticated",
				Remedy:  "gh auth login",
			}
		}
	}

	if output, err := c.Runner.Run(ctx, "git", "rev-parse", "--is-inside-work-tree"); err != nil || strings.TrimSpace(string(output)) != "true" {
		return &PrereqError{
			Problem: "current directory is not inside a git repository",
			Remedy:  "cd into the repository before syncing",
		}
	}

	return nil
}

// CheckBranchPushed verifies the branch exists on origin. Required
// before composing a pull request.
func (c *Checker) CheckBranchPushed(ctx context.Context, branch string) error {
	output, err := c.Runner.Run(ctx, "git", "ls-remote", "--heads", "origin", branch)
	if err != nil {
		return &PrereqError{
			Problem: "could not query origin for branch " + branch,
			Remedy:  "git fetch origin",
		}
	}
	if strings.TrimSpace(string(output)) == "" {
		return &PrereqError{
			Problem: "branch " + branch + " has not been pushed to origin",
			Remedy:  "git push -u origin " + branch,
		}
	}
	return nil
}
