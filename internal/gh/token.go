package gh

import (
	"context"
	"fmt"
	"strings"
)

// TokenSource yields a GitHub API token for direct REST/GraphQL calls.
// The gh CLI carries its own credentials; a token is only needed where
// the typed API client is used.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token (typically GITHUB_TOKEN).
type StaticTokenSource string

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty token")
	}
	return string(s), nil
}

// CLITokenSource asks the authenticated gh CLI for its token.
type CLITokenSource struct {
	Runner CommandRunner
}

func (s *CLITokenSource) Token(ctx context.Context) (string, error) {
	output, err := s.Runner.Run(ctx, "gh", "auth", "token")
	if err != nil {
		return "", &PrereqError{
			Problem: "gh CLI is not authenticated",
			Remedy:  "gh auth login",
		}
	}
	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", &PrereqError{
			Problem: "gh auth token returned no token",
			Remedy:  "gh auth login",
		}
	}
	return token, nil
}
