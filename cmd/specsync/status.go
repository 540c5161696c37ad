package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/stellarlink/specsync/internal/mapping"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what has been synced",
	Long:  "Print the mapping store contents: every tracked specification, its issues and its PR.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusFormat != "json" && statusFormat != "human" {
		return usageErrorf("--format must be json or human, got %q", statusFormat)
	}

	tk, err := newToolkit()
	if err != nil {
		return err
	}
	doc, err := tk.store.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	printHumanStatus(out, doc)
	return nil
}

func printHumanStatus(w io.Writer, doc *mapping.Document) {
	if len(doc.Specifications) == 0 {
		fmt.Fprintln(w, "No specifications synced yet.")
		return
	}

	fmt.Fprintf(w, "Repository: %s\n", doc.Repository)
	for _, number := range sortedSpecNumbers(doc) {
		spec := doc.Specifications[number]
		fmt.Fprintf(w, "\n%s %s (branch %s)\n", spec.Number, spec.Title, spec.Branch)
		fmt.Fprintf(w, "  Epic #%d\n", spec.EpicIssue)
		for _, is := range spec.Issues {
			marker := " "
			if is.Status == mapping.StatusClosed {
				marker = "x"
			}
			fmt.Fprintf(w, "  [%s] #%d %s (%s/%s, %d tasks)\n",
				marker, is.Number, is.Title, is.Type, is.Priority, len(is.Tasks))
		}
		if spec.PullRequest != nil {
			fmt.Fprintf(w, "  PR #%d (%s) %s\n",
				spec.PullRequest.Number, spec.PullRequest.Status, spec.PullRequest.URL)
		}
	}
}

func sortedSpecNumbers(doc *mapping.Document) []string {
	numbers := make([]string, 0, len(doc.Specifications))
	for n := range doc.Specifications {
		numbers = append(numbers, n)
	}
	// 3-digit zero-padded numbers sort correctly as strings.
	sort.Strings(numbers)
	return numbers
}
