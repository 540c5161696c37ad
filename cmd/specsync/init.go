package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stellarlink/specsync/internal/mapping"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the mapping file and its directory",
	Long: `Create .specify/memory (or the SPECSYNC_MAPPING_PATH directory) and an
empty mapping file. Running init again is harmless; an existing mapping
file is never touched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	tk, err := newToolkit()
	if err != nil {
		return err
	}

	path := tk.store.Path()
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Mapping file %s already exists.\n", path)
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat mapping file %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create mapping directory: %w", err)
	}
	if err := tk.store.Save(&mapping.Document{}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s.\n", path)
	return nil
}
