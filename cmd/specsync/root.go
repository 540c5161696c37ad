package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stellarlink/specsync/internal/config"
	"github.com/stellarlink/specsync/internal/gh"
	"github.com/stellarlink/specsync/internal/mapping"
	"github.com/stellarlink/specsync/internal/pr"
	"github.com/stellarlink/specsync/internal/sync"
)

var rootCmd = &cobra.Command{
	Use:   "specsync",
	Short: "Sync spec-kit task lists with GitHub issues and PRs",
	Long: `specsync keeps GitHub in step with a spec-driven task workflow:
each section of a feature's tasks.md becomes a sub-issue under an Epic,
checkbox state drives open/closed state, and a pull request is composed
that closes the whole set. The issue mapping is persisted under
.specify/memory/gh-issues-mapping.json.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Flag parse failures are argument errors, reported with exit code 2.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%v", err)
	})
}

// usageError marks malformed command-line input. main maps it to exit
// code 2; every other failure exits 1.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// toolkit bundles the collaborators a command needs. Local-only commands
// (status, init, serve) use cfg and store; GitHub-facing commands call
// connect first.
type toolkit struct {
	cfg     *config.Config
	runner  gh.CommandRunner
	store   *mapping.Store
	checker *gh.Checker

	client gh.Client
	state  gh.StateReader
	repo   string
}

func newToolkit() (*toolkit, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	runner := &gh.ExecRunner{}
	checker := gh.NewChecker(runner)
	checker.SkipAuthProbe = cfg.HasAppAuth() || cfg.Token != ""
	return &toolkit{
		cfg:     cfg,
		runner:  runner,
		store:   mapping.NewStore(cfg.MappingPath),
		checker: checker,
	}, nil
}

// connect verifies prerequisites and wires the GitHub backends. The
// repository slug comes from SPECSYNC_REPO or, failing that, from the
// current checkout via gh.
func (tk *toolkit) connect(ctx context.Context) error {
	if err := tk.checker.Check(ctx); err != nil {
		return err
	}

	client := gh.NewCLIClientWithRunner(tk.runner)

	repo := tk.cfg.Repo
	if repo == "" {
		detected, err := client.CurrentRepo(ctx)
		if err != nil {
			return err
		}
		repo = detected
	}

	var tokens gh.TokenSource
	switch {
	case tk.cfg.HasAppAuth():
		tokens = &gh.AppAuth{AppID: tk.cfg.GitHubAppID, PrivateKey: tk.cfg.GitHubPrivateKey, Repo: repo}
	case tk.cfg.Token != "":
		tokens = gh.StaticTokenSource(tk.cfg.Token)
	default:
		tokens = &gh.CLITokenSource{Runner: tk.runner}
	}

	// App and static tokens also authenticate the gh invocations, so a
	// bot deployment never needs an interactive gh login.
	if tk.cfg.HasAppAuth() || tk.cfg.Token != "" {
		token, err := tokens.Token(ctx)
		if err != nil {
			return err
		}
		client = client.WithToken(token)
	}

	tk.client = client
	tk.state = gh.NewRESTStateReader(tokens)
	tk.repo = repo
	return nil
}

func (tk *toolkit) reconciler() *sync.Reconciler {
	return sync.New(tk.client, tk.state, tk.store)
}

func (tk *toolkit) composer() *pr.Composer {
	return pr.New(tk.client, tk.runner, tk.store)
}
