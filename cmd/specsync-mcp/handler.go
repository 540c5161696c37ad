package main

import (
	"context"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stellarlink/specsync/internal/config"
	"github.com/stellarlink/specsync/internal/gh"
	"github.com/stellarlink/specsync/internal/labels"
	"github.com/stellarlink/specsync/internal/mapping"
	"github.com/stellarlink/specsync/internal/pr"
	"github.com/stellarlink/specsync/internal/sync"
)

// server carries the wired backends shared by all tool handlers. Tool
// failures are returned as tool errors; the process never exits on a
// failed call.
type server struct {
	repo       string
	store      *mapping.Store
	checker    *gh.Checker
	reconciler *sync.Reconciler
	composer   *pr.Composer
}

// newServer loads configuration and wires the production backends, the
// same way the CLI does.
func newServer(ctx context.Context) (*server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	runner := &gh.ExecRunner{}
	checker := gh.NewChecker(runner)
	checker.SkipAuthProbe = cfg.HasAppAuth() || cfg.Token != ""
	if err := checker.Check(ctx); err != nil {
		return nil, err
	}

	client := gh.NewCLIClientWithRunner(runner)

	repo := cfg.Repo
	if repo == "" {
		repo, err = client.CurrentRepo(ctx)
		if err != nil {
			return nil, err
		}
	}

	var tokens gh.TokenSource
	switch {
	case cfg.HasAppAuth():
		tokens = &gh.AppAuth{AppID: cfg.GitHubAppID, PrivateKey: cfg.GitHubPrivateKey, Repo: repo}
	case cfg.Token != "":
		tokens = gh.StaticTokenSource(cfg.Token)
	default:
		tokens = &gh.CLITokenSource{Runner: runner}
	}
	if cfg.HasAppAuth() || cfg.Token != "" {
		token, err := tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		client = client.WithToken(token)
	}

	store := mapping.NewStore(cfg.MappingPath)
	return &server{
		repo:       repo,
		store:      store,
		checker:    checker,
		reconciler: sync.New(client, gh.NewRESTStateReader(tokens), store),
		composer:   pr.New(client, runner, store),
	}, nil
}

// SyncIssuesParams defines the input parameters for sync_issues.
type SyncIssuesParams struct {
	Payload string `json:"payload" jsonschema:"The JSON payload document: specification metadata plus issue descriptors"`
}

// SyncLabelsParams defines the input parameters for sync_labels.
type SyncLabelsParams struct {
	Spec string `json:"spec,omitempty" jsonschema:"Optional 3-digit spec number for the spec-NNN label"`
}

// ComposePRParams defines the input parameters for compose_pr.
type ComposePRParams struct {
	Spec string `json:"spec" jsonschema:"The 3-digit spec number"`
	Base string `json:"base,omitempty" jsonschema:"Base branch, default main"`
}

func (s *server) HandleSyncIssues(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params SyncIssuesParams,
) (*mcp.CallToolResult, any, error) {
	log.Printf("[MCP Sync Server] Received sync_issues request")

	if params.Payload == "" {
		return nil, nil, fmt.Errorf("payload parameter is required")
	}
	payload, err := sync.ParsePayload([]byte(params.Payload))
	if err != nil {
		return toolError(err), nil, nil
	}

	if err := s.reconciler.SyncIssues(ctx, s.repo, payload); err != nil {
		log.Printf("[MCP Sync Server] sync_issues failed: %v", err)
		return toolError(err), nil, nil
	}

	doc, err := s.store.Load()
	if err != nil {
		return toolError(err), nil, nil
	}
	spec := doc.Spec(payload.Specification.Number)

	resultText := fmt.Sprintf(`{
  "success": true,
  "repository": "%s",
  "spec": "%s",
  "epic_issue": %d,
  "issues": %d
}`, s.repo, spec.Number, spec.EpicIssue, len(spec.Issues))

	log.Printf("[MCP Sync Server] sync_issues done for spec %s", spec.Number)
	return textResult(resultText), nil, nil
}

func (s *server) HandleSyncLabels(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params SyncLabelsParams,
) (*mcp.CallToolResult, any, error) {
	log.Printf("[MCP Sync Server] Received sync_labels request")

	if params.Spec != "" && !labels.ValidSpecNumber(params.Spec) {
		return toolError(fmt.Errorf("spec number %q must be exactly 3 digits", params.Spec)), nil, nil
	}

	if err := s.reconciler.SyncLabels(ctx, s.repo, params.Spec); err != nil {
		log.Printf("[MCP Sync Server] sync_labels failed: %v", err)
		return toolError(err), nil, nil
	}

	resultText := fmt.Sprintf(`{"success": true, "repository": "%s"}`, s.repo)
	return textResult(resultText), nil, nil
}

func (s *server) HandleComposePR(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params ComposePRParams,
) (*mcp.CallToolResult, any, error) {
	log.Printf("[MCP Sync Server] Received compose_pr request")

	if !labels.ValidSpecNumber(params.Spec) {
		return toolError(fmt.Errorf("spec number %q must be exactly 3 digits", params.Spec)), nil, nil
	}

	doc, err := s.store.Load()
	if err != nil {
		return toolError(err), nil, nil
	}
	spec := doc.Spec(params.Spec)
	if spec == nil {
		return toolError(fmt.Errorf("specification %s has never been synced", params.Spec)), nil, nil
	}
	if err := s.checker.CheckBranchPushed(ctx, spec.Branch); err != nil {
		return toolError(err), nil, nil
	}

	record, err := s.composer.Compose(ctx, s.repo, params.Spec, params.Base)
	if err != nil {
		log.Printf("[MCP Sync Server] compose_pr failed: %v", err)
		return toolError(err), nil, nil
	}

	resultText := fmt.Sprintf(`{
  "success": true,
  "pr_number": %d,
  "url": "%s",
  "status": "%s"
}`, record.Number, record.URL, record.Status)

	log.Printf("[MCP Sync Server] compose_pr done: #%d", record.Number)
	return textResult(resultText), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)}},
		IsError: true,
	}
}
