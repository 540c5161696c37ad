// Package labels defines the fixed label sets managed on the remote
// repository and the priority ordering used for Epic aggregation.
package labels

import (
	"fmt"
	"regexp"
)

// Label describes one GitHub label to ensure on the repository.
type Label struct {
	Name        string
	Color       string
	Description string
}

// TypeLabels is the fixed set of issue type labels.
var TypeLabels = []Label{
	{Name: "epic", Color: "3E4B9E", Description: "Parent issue tracking an entire feature specification"},
	{Name: "feature", Color: "0E8A16", Description: "New functionality"},
	{Name: "bug", Color: "D73A4A", Description: "Something is broken"},
	{Name: "docs", Color: "0075CA", Description: "Documentation work"},
	{Name: "refactor", Color: "FBCA04", Description: "Restructuring without behavior change"},
	{Name: "test", Color: "BFD4F2", Description: "Test coverage work"},
	{Name: "enhancement", Color: "A2EEEF", Description: "Improvement to existing functionality"},
}

// PriorityLabels is the fixed set of priority labels, highest first.
var PriorityLabels = []Label{
	{Name: "critical", Color: "B60205", Description: "Drop everything"},
	{Name: "high", Color: "D93F0B", Description: "Needed for the current milestone"},
	{Name: "medium", Color: "FBCA04", Description: "Normal priority"},
	{Name: "low", Color: "C2E0C6", Description: "Nice to have"},
}

// priorityRank orders priorities for aggregation. Lower rank wins.
var priorityRank = map[string]int{
	"critical": 0,
	"high":     1,
	"medium":   2,
	"low":      3,
}

var specNumberPattern = regexp.MustCompile(`^\d{3}$`)

// ValidSpecNumber reports whether s is a 3-digit spec number.
func ValidSpecNumber(s string) bool {
	return specNumberPattern.MatchString(s)
}

// SpecLabel returns the per-spec tag label for a 3-digit spec number.
func SpecLabel(number string) Label {
	return Label{
		Name:        fmt.Sprintf("spec-%s", number),
		Color:       "5319E7",
		Description: fmt.Sprintf("Work tracked by feature specification %s", number),
	}
}

// ValidType reports whether t is one of the managed type labels.
func ValidType(t string) bool {
	for _, l := range TypeLabels {
		if l.Name == t {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is one of the managed priority labels.
func ValidPriority(p string) bool {
	_, ok := priorityRank[p]
	return ok
}

// HighestPriority returns the highest-ranked priority among the given
// values (critical > high > medium > low). Unknown values are ignored;
// an empty or all-unknown input yields "".
func HighestPriority(priorities []string) string {
	best := ""
	bestRank := len(priorityRank)
	for _, p := range priorities {
		rank, ok := priorityRank[p]
		if !ok {
			continue
		}
		if rank < bestRank {
			best = p
			bestRank = rank
		}
	}
	return best
}

// AllPriorities returns the managed priority names, highest first.
func AllPriorities() []string {
	names := make([]string, len(PriorityLabels))
	for i, l := range PriorityLabels {
		names[i] = l.Name
	}
	return names
}

// AllTypes returns the managed type names.
func AllTypes() []string {
	names := make([]string, len(TypeLabels))
	for i, l := range TypeLabels {
		names[i] = l.Name
	}
	return names
}
