package main

import (
	"github.com/spf13/cobra"

	"github.com/stellarlink/specsync/internal/labels"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Manage the label taxonomy",
}

var labelsSyncCmd = &cobra.Command{
	Use:   "sync [NNN]",
	Short: "Create the type, priority and spec labels",
	Long: `Ensure the repository carries the full label taxonomy: one label per
issue type, one per priority, the epic label, and, when a spec number is
given, its spec-NNN label. Labels that already exist are left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLabelsSync,
}

func init() {
	labelsCmd.AddCommand(labelsSyncCmd)
	rootCmd.AddCommand(labelsCmd)
}

func runLabelsSync(cmd *cobra.Command, args []string) error {
	specNumber := ""
	if len(args) == 1 {
		specNumber = args[0]
		if !labels.ValidSpecNumber(specNumber) {
			return usageErrorf("spec number %q must be exactly 3 digits", specNumber)
		}
	}

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := tk.connect(ctx); err != nil {
		return err
	}

	return tk.reconciler().SyncLabels(ctx, tk.repo, specNumber)
}
