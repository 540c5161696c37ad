package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlink/specsync/internal/labels"
	"github.com/stellarlink/specsync/internal/sync"
)

var (
	issuesPayloadPath string
	issuesTasksPath   string
	issuesSpecNumber  string
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Manage the GitHub issues tracked for a specification",
}

var issuesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile GitHub issues with the task list",
	Long: `Reconcile GitHub issue state with the task list of one specification.
Creates the Epic and sub-issues on first run; afterwards closes, reopens
and relabels to match checkbox state. Input is either a JSON payload
(--payload, "-" for stdin) or a tasks.md file (--tasks).`,
	Args: cobra.NoArgs,
	RunE: runIssuesSync,
}

func init() {
	issuesSyncCmd.Flags().StringVar(&issuesPayloadPath, "payload", "", "JSON payload file, or - for stdin")
	issuesSyncCmd.Flags().StringVar(&issuesTasksPath, "tasks", "", "tasks.md file to parse")
	issuesSyncCmd.Flags().StringVar(&issuesSpecNumber, "spec", "", "3-digit spec number (overrides inference)")
	issuesCmd.AddCommand(issuesSyncCmd)
	rootCmd.AddCommand(issuesCmd)
}

func runIssuesSync(cmd *cobra.Command, args []string) error {
	if (issuesPayloadPath == "") == (issuesTasksPath == "") {
		return usageErrorf("exactly one of --payload or --tasks is required")
	}
	if issuesSpecNumber != "" && !labels.ValidSpecNumber(issuesSpecNumber) {
		return usageErrorf("--spec %q is not a 3-digit spec number", issuesSpecNumber)
	}

	payload, err := loadPayload()
	if err != nil {
		return err
	}
	if issuesSpecNumber != "" && payload.Specification.Number != issuesSpecNumber {
		return usageErrorf("--spec %s does not match payload specification %s",
			issuesSpecNumber, payload.Specification.Number)
	}

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := tk.connect(ctx); err != nil {
		return err
	}

	return tk.reconciler().SyncIssues(ctx, tk.repo, payload)
}

func loadPayload() (*sync.Payload, error) {
	if issuesPayloadPath != "" {
		data, err := readPayloadSource(issuesPayloadPath)
		if err != nil {
			return nil, err
		}
		return sync.ParsePayload(data)
	}

	meta, err := inferSpecMeta(issuesTasksPath, issuesSpecNumber)
	if err != nil {
		return nil, err
	}
	return sync.FromTaskFile(meta, issuesTasksPath)
}

func readPayloadSource(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload file: %w", err)
	}
	return data, nil
}

var specDirPattern = regexp.MustCompile(`^(\d{3})-([a-z0-9][a-z0-9-]*)$`)

// inferSpecMeta derives the specification identity from the task file's
// parent directory, which follows the NNN-feature-name convention of
// spec-kit checkouts.
func inferSpecMeta(tasksPath, override string) (sync.SpecMeta, error) {
	dir := filepath.Dir(tasksPath)
	base := filepath.Base(dir)

	m := specDirPattern.FindStringSubmatch(base)
	if m == nil {
		if override == "" {
			return sync.SpecMeta{}, usageErrorf(
				"cannot infer spec number from directory %q; pass --spec NNN", base)
		}
		return sync.SpecMeta{
			Number:    override,
			Name:      base,
			Branch:    base,
			Directory: dir,
		}, nil
	}

	number, name := m[1], m[2]
	if override != "" && override != number {
		return sync.SpecMeta{}, usageErrorf(
			"--spec %s does not match directory %q", override, base)
	}
	return sync.SpecMeta{
		Number:    number,
		Name:      name,
		Title:     titleFromName(name),
		Branch:    base,
		Directory: dir,
	}, nil
}

func titleFromName(name string) string {
	words := strings.Split(name, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
