package gh

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// graphqlStubRunner answers gh api graphql invocations by inspecting the
// query document passed as -f query=....
func graphqlStubRunner(t *testing.T) *MockRunner {
	t.Helper()
	runner := NewMockRunner()
	runner.RunFunc = func(name string, args ...string) ([]byte, error) {
		query := ""
		for _, a := range args {
			if strings.HasPrefix(a, "query=") {
				query = a
			}
		}
		switch {
		case strings.Contains(query, "labels(first"):
			return []byte(`{"data":{"repository":{"labels":{"nodes":[
				{"id":"L_epic","name":"epic"},
				{"id":"L_spec","name":"spec-042"},
				{"id":"L_high","name":"high"}
			]}}}}`), nil
		case strings.Contains(query, "repository(owner"):
			return []byte(`{"data":{"repository":{"id":"R_repo"}}}`), nil
		case strings.Contains(query, "createIssue"):
			return []byte(`{"data":{"createIssue":{"issue":{"id":"I_new","number":13,"url":"https://github.com/acme/widgets/issues/13"}}}}`), nil
		case strings.Contains(query, "addSubIssue"):
			return []byte(`{"data":{"addSubIssue":{"issue":{"id":"I_epic"}}}}`), nil
		default:
			t.Fatalf("unexpected graphql query: %s", query)
			return nil, nil
		}
	}
	return runner
}

func TestCreateIssueResolvesLabelsAndRepo(t *testing.T) {
	runner := graphqlStubRunner(t)
	client := NewCLIClientWithRunner(runner)

	ref, err := client.CreateIssue(context.Background(), "acme/widgets",
		"Epic: User Authentication", "body text", []string{"epic", "spec-042", "high"})
	if err != nil {
		t.Fatalf("CreateIssue() error = %v", err)
	}
	if ref.Number != 13 || ref.NodeID != "I_new" {
		t.Errorf("ref = %+v, want number 13 node I_new", ref)
	}

	// repo id + label ids + mutation
	if len(runner.Calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(runner.Calls))
	}
	mutation := strings.Join(runner.Calls[2].Args, " ")
	for _, want := range []string{"repositoryId=R_repo", "labelIds[]=L_epic", "labelIds[]=L_spec", "labelIds[]=L_high"} {
		if !strings.Contains(mutation, want) {
			t.Errorf("mutation args missing %q: %s", want, mutation)
		}
	}
}

func TestCreateIssueCachesRepositoryID(t *testing.T) {
	runner := graphqlStubRunner(t)
	client := NewCLIClientWithRunner(runner)
	ctx := context.Background()

	if _, err := client.CreateIssue(ctx, "acme/widgets", "one", "b", nil); err != nil {
		t.Fatalf("first CreateIssue() error = %v", err)
	}
	first := len(runner.Calls)
	if _, err := client.CreateIssue(ctx, "acme/widgets", "two", "b", nil); err != nil {
		t.Fatalf("second CreateIssue() error = %v", err)
	}

	// Second create should skip the repository id query.
	if got := len(runner.Calls) - first; got != 1 {
		t.Errorf("second create used %d calls, want 1 (mutation only)", got)
	}
}

func TestCreateIssueMissingLabel(t *testing.T) {
	runner := graphqlStubRunner(t)
	client := NewCLIClientWithRunner(runner)

	_, err := client.CreateIssue(context.Background(), "acme/widgets", "t", "b", []string{"nonexistent"})
	if err == nil {
		t.Fatal("CreateIssue() error = nil, want missing-label error")
	}
	if !strings.Contains(err.Error(), "specsync labels sync") {
		t.Errorf("error %q should point at labels sync", err.Error())
	}
}

func TestAddSubIssueSendsFeatureHeader(t *testing.T) {
	runner := graphqlStubRunner(t)
	client := NewCLIClientWithRunner(runner)

	if err := client.AddSubIssue(context.Background(), "acme/widgets", "I_epic", "I_new"); err != nil {
		t.Fatalf("AddSubIssue() error = %v", err)
	}
	args := strings.Join(runner.Calls[0].Args, " ")
	if !strings.Contains(args, "GraphQL-Features: sub_issues") {
		t.Errorf("args missing sub_issues feature header: %s", args)
	}
	if !strings.Contains(args, "issueId=I_epic") || !strings.Contains(args, "subIssueId=I_new") {
		t.Errorf("args missing node ids: %s", args)
	}
}

func TestGraphQLErrorsAbortWithPayload(t *testing.T) {
	runner := NewMockRunner()
	runner.RunFunc = func(name string, args ...string) ([]byte, error) {
		return []byte(`{"data":null,"errors":[{"message":"Resource not accessible by integration"}]}`), nil
	}
	client := NewCLIClientWithRunner(runner)

	_, err := client.CreateIssue(context.Background(), "acme/widgets", "t", "b", nil)
	if err == nil {
		t.Fatal("CreateIssue() error = nil, want graphql error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %T, want *APIError", err)
	}
	if !strings.Contains(apiErr.Error(), "Resource not accessible") {
		t.Errorf("error %q should list the raw API error", apiErr.Error())
	}
}
