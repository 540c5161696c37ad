package gh

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"
)

// StateReader fetches the live open/closed state of an issue. The sync
// never trusts the cached mapping for state decisions; it always reads
// GitHub fresh before closing or reopening.
type StateReader interface {
	IssueState(ctx context.Context, repo string, number int) (string, error)
}

// RESTStateReader reads issue state through the typed GitHub REST client.
type RESTStateReader struct {
	tokens TokenSource

	// newClient is replaceable in tests.
	newClient func(token string) *github.Client
}

// NewRESTStateReader creates a reader backed by go-github.
func NewRESTStateReader(tokens TokenSource) *RESTStateReader {
	return &RESTStateReader{
		tokens: tokens,
		newClient: func(token string) *github.Client {
			return github.NewClient(nil).WithAuthToken(token)
		},
	}
}

// IssueState returns "open" or "closed" for the given issue.
func (r *RESTStateReader) IssueState(ctx context.Context, repo string, number int) (string, error) {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	issue, _, err := r.newClient(token).Issues.Get(ctx, owner, name, number)
	if err != nil {
		return "", fmt.Errorf("fetch issue %s#%d: %w", repo, number, err)
	}

	state := issue.GetState()
	if state != "open" && state != "closed" {
		return "", fmt.Errorf("issue %s#%d has unexpected state %q", repo, number, state)
	}
	return state, nil
}

// MockStateReader is a test implementation returning canned states.
type MockStateReader struct {
	States map[int]string
	Err    error

	// Calls tracks every lookup.
	Calls []int
}

func (m *MockStateReader) IssueState(ctx context.Context, repo string, number int) (string, error) {
	m.Calls = append(m.Calls, number)
	if m.Err != nil {
		return "", m.Err
	}
	if state, ok := m.States[number]; ok {
		return state, nil
	}
	return "open", nil
}
