package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	// Missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	log.Println("[MCP Sync Server] Starting specsync MCP server v1.0.0")

	srv, err := newServer(context.Background())
	if err != nil {
		log.Fatalf("[MCP Sync Server] Startup failed: %v", err)
	}
	log.Printf("[MCP Sync Server] Repository: %s", srv.repo)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "specsync-mcp",
		Version: "v1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_issues",
		Description: "Reconcile GitHub issues with a specification's task list. Input is the JSON payload document (specification metadata plus issue descriptors).",
	}, srv.HandleSyncIssues)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_labels",
		Description: "Create the type, priority and spec labels in the repository. Existing labels are left alone.",
	}, srv.HandleSyncLabels)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "compose_pr",
		Description: "Create or update the pull request that closes a specification's Epic and sub-issues.",
	}, srv.HandleComposePR)
	log.Println("[MCP Sync Server] Registered tools: sync_issues, sync_labels, compose_pr")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[MCP Sync Server] Received shutdown signal")
		cancel()
	}()

	log.Println("[MCP Sync Server] Starting on stdio transport...")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[MCP Sync Server] Server error: %v", err)
	}
	log.Println("[MCP Sync Server] Server stopped gracefully")
}
