package gh

import (
	"context"
	"strconv"
)

// MockClient is a Client implementation for tests. Every operation is
// recorded; behavior is overridable per function.
type MockClient struct {
	CurrentRepoFunc     func(ctx context.Context) (string, error)
	CreateLabelFunc     func(ctx context.Context, repo, name, color, description string) error
	CreateIssueFunc     func(ctx context.Context, repo, title, body string, labelNames []string) (*IssueRef, error)
	AddSubIssueFunc     func(ctx context.Context, repo, parentNodeID, childNodeID string) error
	EditIssueBodyFunc   func(ctx context.Context, repo string, number int, body string) error
	EditIssueLabelsFunc func(ctx context.Context, repo string, number int, add, remove []string) error
	CloseIssueFunc      func(ctx context.Context, repo string, number int) error
	ReopenIssueFunc     func(ctx context.Context, repo string, number int) error
	ViewPRFunc          func(ctx context.Context, repo, head string) (*PRInfo, error)
	CreatePRFunc        func(ctx context.Context, repo, head, base, title, body string) (*PRInfo, error)
	EditPRFunc          func(ctx context.Context, repo string, number int, title, body string) error

	CreateLabelCalls []struct {
		Repo, Name, Color, Description string
	}
	CreateIssueCalls []struct {
		Repo, Title, Body string
		Labels            []string
	}
	AddSubIssueCalls []struct {
		Repo, Parent, Child string
	}
	EditIssueBodyCalls []struct {
		Repo   string
		Number int
		Body   string
	}
	EditIssueLabelsCalls []struct {
		Repo        string
		Number      int
		Add, Remove []string
	}
	CloseIssueCalls  []int
	ReopenIssueCalls []int
	ViewPRCalls      []string
	CreatePRCalls    []struct {
		Repo, Head, Base, Title, Body string
	}
	EditPRCalls []struct {
		Repo        string
		Number      int
		Title, Body string
	}

	nextIssueNumber int
}

// NewMockClient creates a mock whose CreateIssue hands out increasing
// issue numbers starting at 100.
func NewMockClient() *MockClient {
	return &MockClient{nextIssueNumber: 100}
}

func (m *MockClient) CurrentRepo(ctx context.Context) (string, error) {
	if m.CurrentRepoFunc != nil {
		return m.CurrentRepoFunc(ctx)
	}
	return "acme/widgets", nil
}

func (m *MockClient) CreateLabel(ctx context.Context, repo, name, color, description string) error {
	m.CreateLabelCalls = append(m.CreateLabelCalls, struct {
		Repo, Name, Color, Description string
	}{repo, name, color, description})
	if m.CreateLabelFunc != nil {
		return m.CreateLabelFunc(ctx, repo, name, color, description)
	}
	return nil
}

func (m *MockClient) CreateIssue(ctx context.Context, repo, title, body string, labelNames []string) (*IssueRef, error) {
	m.CreateIssueCalls = append(m.CreateIssueCalls, struct {
		Repo, Title, Body string
		Labels            []string
	}{repo, title, body, labelNames})
	if m.CreateIssueFunc != nil {
		return m.CreateIssueFunc(ctx, repo, title, body, labelNames)
	}
	m.nextIssueNumber++
	n := m.nextIssueNumber
	return &IssueRef{
		Number: n,
		NodeID: "I_mock" + strconv.Itoa(n),
		URL:    "https://github.com/" + repo + "/issues/" + strconv.Itoa(n),
	}, nil
}

func (m *MockClient) AddSubIssue(ctx context.Context, repo, parentNodeID, childNodeID string) error {
	m.AddSubIssueCalls = append(m.AddSubIssueCalls, struct {
		Repo, Parent, Child string
	}{repo, parentNodeID, childNodeID})
	if m.AddSubIssueFunc != nil {
		return m.AddSubIssueFunc(ctx, repo, parentNodeID, childNodeID)
	}
	return nil
}

func (m *MockClient) EditIssueBody(ctx context.Context, repo string, number int, body string) error {
	m.EditIssueBodyCalls = append(m.EditIssueBodyCalls, struct {
		Repo   string
		Number int
		Body   string
	}{repo, number, body})
	if m.EditIssueBodyFunc != nil {
		return m.EditIssueBodyFunc(ctx, repo, number, body)
	}
	return nil
}

func (m *MockClient) EditIssueLabels(ctx context.Context, repo string, number int, add, remove []string) error {
	m.EditIssueLabelsCalls = append(m.EditIssueLabelsCalls, struct {
		Repo        string
		Number      int
		Add, Remove []string
	}{repo, number, add, remove})
	if m.EditIssueLabelsFunc != nil {
		return m.EditIssueLabelsFunc(ctx, repo, number, add, remove)
	}
	return nil
}

func (m *MockClient) CloseIssue(ctx context.Context, repo string, number int) error {
	m.CloseIssueCalls = append(m.CloseIssueCalls, number)
	if m.CloseIssueFunc != nil {
		return m.CloseIssueFunc(ctx, repo, number)
	}
	return nil
}

func (m *MockClient) ReopenIssue(ctx context.Context, repo string, number int) error {
	m.ReopenIssueCalls = append(m.ReopenIssueCalls, number)
	if m.ReopenIssueFunc != nil {
		return m.ReopenIssueFunc(ctx, repo, number)
	}
	return nil
}

func (m *MockClient) ViewPR(ctx context.Context, repo, head string) (*PRInfo, error) {
	m.ViewPRCalls = append(m.ViewPRCalls, head)
	if m.ViewPRFunc != nil {
		return m.ViewPRFunc(ctx, repo, head)
	}
	return nil, nil
}

func (m *MockClient) CreatePR(ctx context.Context, repo, head, base, title, body string) (*PRInfo, error) {
	m.CreatePRCalls = append(m.CreatePRCalls, struct {
		Repo, Head, Base, Title, Body string
	}{repo, head, base, title, body})
	if m.CreatePRFunc != nil {
		return m.CreatePRFunc(ctx, repo, head, base, title, body)
	}
	return &PRInfo{Number: 500, URL: "https://github.com/" + repo + "/pull/500", State: "OPEN"}, nil
}

func (m *MockClient) EditPR(ctx context.Context, repo string, number int, title, body string) error {
	m.EditPRCalls = append(m.EditPRCalls, struct {
		Repo        string
		Number      int
		Title, Body string
	}{repo, number, title, body})
	if m.EditPRFunc != nil {
		return m.EditPRFunc(ctx, repo, number, title, body)
	}
	return nil
}
