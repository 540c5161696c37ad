package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stellarlink/specsync/internal/gh"
	"github.com/stellarlink/specsync/internal/mapping"
	"github.com/stellarlink/specsync/internal/pr"
	"github.com/stellarlink/specsync/internal/sync"
)

const testPayload = `{
  "specification": {
    "number": "007",
    "name": "user-auth",
    "title": "User Authentication",
    "branch": "007-user-auth",
    "directory": "specs/007-user-auth"
  },
  "issues": [
    {
      "title": "Setup",
      "type": "feature",
      "priority": "high",
      "tasks": [
        {"id": "T001", "description": "Init project", "checked": true}
      ]
    }
  ]
}`

func newTestServer(t *testing.T) (*server, *gh.MockClient, *gh.MockRunner) {
	t.Helper()

	client := gh.NewMockClient()
	state := &gh.MockStateReader{States: map[int]string{}}
	runner := gh.NewMockRunner()
	runner.RunFunc = func(name string, args ...string) ([]byte, error) {
		if name == "git" && len(args) > 0 && args[0] == "ls-remote" {
			return []byte("abc123\trefs/heads/007-user-auth\n"), nil
		}
		return []byte(""), nil
	}

	store := mapping.NewStore(filepath.Join(t.TempDir(), "mapping.json"))
	return &server{
		repo:       "acme/widgets",
		store:      store,
		checker:    gh.NewChecker(runner),
		reconciler: sync.New(client, state, store),
		composer:   pr.New(client, runner, store),
	}, client, runner
}

func TestHandleSyncIssues(t *testing.T) {
	srv, client, _ := newTestServer(t)

	result, _, err := srv.HandleSyncIssues(context.Background(), nil, SyncIssuesParams{Payload: testPayload})
	if err != nil {
		t.Fatalf("HandleSyncIssues returned protocol error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool reported error: %+v", result.Content)
	}

	// Epic plus one sub-issue.
	if len(client.CreateIssueCalls) != 2 {
		t.Errorf("CreateIssue calls = %d, want 2", len(client.CreateIssueCalls))
	}

	text := resultText(t, result)
	for _, want := range []string{`"success": true`, `"spec": "007"`, `"issues": 1`} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q: %s", want, text)
		}
	}
}

func TestHandleSyncIssuesMalformedPayload(t *testing.T) {
	srv, client, _ := newTestServer(t)

	result, _, err := srv.HandleSyncIssues(context.Background(), nil, SyncIssuesParams{Payload: "{not json"})
	if err != nil {
		t.Fatalf("malformed payload must be a tool error, not a protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError for malformed payload")
	}
	if len(client.CreateIssueCalls) != 0 {
		t.Errorf("no issue may be created for a rejected payload")
	}
}

func TestHandleSyncIssuesMissingPayload(t *testing.T) {
	srv, _, _ := newTestServer(t)

	_, _, err := srv.HandleSyncIssues(context.Background(), nil, SyncIssuesParams{})
	if err == nil {
		t.Fatal("expected error for missing payload parameter")
	}
}

func TestHandleSyncLabels(t *testing.T) {
	srv, client, _ := newTestServer(t)

	result, _, err := srv.HandleSyncLabels(context.Background(), nil, SyncLabelsParams{Spec: "007"})
	if err != nil {
		t.Fatalf("HandleSyncLabels failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool reported error: %+v", result.Content)
	}
	if len(client.CreateLabelCalls) == 0 {
		t.Error("no labels created")
	}

	sawSpecLabel := false
	for _, call := range client.CreateLabelCalls {
		if call.Name == "spec-007" {
			sawSpecLabel = true
		}
	}
	if !sawSpecLabel {
		t.Error("spec-007 label not created")
	}
}

func TestHandleSyncLabelsBadNumber(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result, _, err := srv.HandleSyncLabels(context.Background(), nil, SyncLabelsParams{Spec: "7"})
	if err != nil {
		t.Fatalf("bad number must be a tool error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError for malformed spec number")
	}
}

func TestHandleComposePR(t *testing.T) {
	srv, client, _ := newTestServer(t)

	// Sync first so the spec exists in the mapping.
	if result, _, err := srv.HandleSyncIssues(context.Background(), nil, SyncIssuesParams{Payload: testPayload}); err != nil || result.IsError {
		t.Fatalf("seed sync failed: err=%v result=%+v", err, result)
	}

	result, _, err := srv.HandleComposePR(context.Background(), nil, ComposePRParams{Spec: "007"})
	if err != nil {
		t.Fatalf("HandleComposePR failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool reported error: %+v", result.Content)
	}
	if len(client.CreatePRCalls) != 1 {
		t.Errorf("CreatePR calls = %d, want 1", len(client.CreatePRCalls))
	}
	if !strings.Contains(resultText(t, result), `"pr_number": 500`) {
		t.Errorf("result missing PR number: %s", resultText(t, result))
	}
}

func TestHandleComposePRUnknownSpec(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result, _, err := srv.HandleComposePR(context.Background(), nil, ComposePRParams{Spec: "999"})
	if err != nil {
		t.Fatalf("unknown spec must be a tool error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError for never-synced spec")
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want *mcp.TextContent", result.Content[0])
	}
	return tc.Text
}
