package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stellarlink/specsync/internal/labels"
)

var (
	prSpecNumber string
	prBaseBranch string
)

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Manage the pull request for a specification",
}

var prComposeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Create or update the PR closing a specification's issues",
	Long: `Compose the pull request for a synced specification: a completed-work
summary, the commit log since the base branch, and a closing footer that
references the Epic and every sub-issue. An existing PR for the spec
branch is updated in place.`,
	Args: cobra.NoArgs,
	RunE: runPRCompose,
}

func init() {
	prComposeCmd.Flags().StringVar(&prSpecNumber, "spec", "", "3-digit spec number (required)")
	prComposeCmd.Flags().StringVar(&prBaseBranch, "base", "main", "base branch")
	prCmd.AddCommand(prComposeCmd)
	rootCmd.AddCommand(prCmd)
}

func runPRCompose(cmd *cobra.Command, args []string) error {
	if prSpecNumber == "" {
		return usageErrorf("--spec is required")
	}
	if !labels.ValidSpecNumber(prSpecNumber) {
		return usageErrorf("--spec %q is not a 3-digit spec number", prSpecNumber)
	}

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := tk.connect(ctx); err != nil {
		return err
	}

	doc, err := tk.store.Load()
	if err != nil {
		return err
	}
	spec := doc.Spec(prSpecNumber)
	if spec == nil {
		return fmt.Errorf("specification %s has never been synced (run: specsync issues sync)", prSpecNumber)
	}
	if err := tk.checker.CheckBranchPushed(ctx, spec.Branch); err != nil {
		return err
	}

	record, err := tk.composer().Compose(ctx, tk.repo, prSpecNumber, prBaseBranch)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), record.URL)
	return nil
}
