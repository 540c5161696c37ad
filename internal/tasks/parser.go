// Package tasks parses spec-kit style task files (tasks.md) into issue
// descriptors. Parsing is deterministic: heading conventions that cannot
// be resolved unambiguously are reported as errors instead of guessed at.
package tasks

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Task is a single checklist line bound to a T### identifier.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Checked     bool   `json:"checked"`
}

// Descriptor is one task group (phase or user story) extracted from a
// section of the task file. Each descriptor becomes one sub-issue.
type Descriptor struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Goal     string `json:"goal,omitempty"`
	Tasks    []Task `json:"tasks"`
}

// AllDone reports whether every task bound to this descriptor is checked.
// Only the descriptor's own task IDs participate.
func (d *Descriptor) AllDone() bool {
	if len(d.Tasks) == 0 {
		return false
	}
	for _, t := range d.Tasks {
		if !t.Checked {
			return false
		}
	}
	return true
}

// TaskIDs returns the ordered task identifiers of the descriptor.
func (d *Descriptor) TaskIDs() []string {
	ids := make([]string, len(d.Tasks))
	for i, t := range d.Tasks {
		ids[i] = t.ID
	}
	return ids
}

var (
	headingPattern  = regexp.MustCompile(`^##\s+(.*)$`)
	taskLinePattern = regexp.MustCompile(`^\s*-\s+\[( |x|X)\]\s+(T\d{3})\b\s*(.*)$`)
	priorityMarker  = regexp.MustCompile(`\(P([1-4])\)`)
	phasePrefix     = regexp.MustCompile(`^Phase\s+\d+:\s*`)
	storyPrefix     = regexp.MustCompile(`^US\d+:\s*`)
	typeMarker      = regexp.MustCompile(`\[(epic|feature|bug|docs|refactor|test|enhancement)\]`)
	goalPrefix      = regexp.MustCompile(`^(?:\*\*Goal\*\*|Goal):\s*(.+)$`)
)

// priorityByMarker maps the (P1)..(P4) heading markers onto label names.
var priorityByMarker = map[string]string{
	"1": "critical",
	"2": "high",
	"3": "medium",
	"4": "low",
}

// ParseFile parses a task file from disk.
func ParseFile(path string) ([]Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open task file: %w", err)
	}
	defer f.Close()

	descriptors, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return descriptors, nil
}

// Parse reads markdown from r and returns one descriptor per `## `
// section that contains at least one task line. Sections without task
// lines are not tracked as issues.
func Parse(r io.Reader) ([]Descriptor, error) {
	var (
		descriptors []Descriptor
		current     *Descriptor
		seenTitles  = make(map[string]int)
		seenTasks   = make(map[string]string)
		lineNo      int
	)

	flush := func() {
		if current != nil && len(current.Tasks) > 0 {
			descriptors = append(descriptors, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()

			d, err := parseHeading(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if prev, dup := seenTitles[d.Title]; dup {
				return nil, fmt.Errorf("line %d: duplicate section title %q (first seen on line %d)", lineNo, d.Title, prev)
			}
			seenTitles[d.Title] = lineNo
			current = d
			continue
		}

		if current == nil {
			continue
		}

		if m := goalPrefix.FindStringSubmatch(strings.TrimSpace(line)); m != nil && current.Goal == "" {
			current.Goal = strings.TrimSpace(m[1])
			continue
		}

		if m := taskLinePattern.FindStringSubmatch(line); m != nil {
			id := m[2]
			if owner, dup := seenTasks[id]; dup {
				return nil, fmt.Errorf("line %d: task %s already appears in section %q", lineNo, id, owner)
			}
			seenTasks[id] = current.Title
			current.Tasks = append(current.Tasks, Task{
				ID:          id,
				Description: strings.TrimSpace(m[3]),
				Checked:     m[1] == "x" || m[1] == "X",
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	flush()

	return descriptors, nil
}

// parseHeading extracts title, priority and type from one `## ` heading.
// Markers are removed from the title; a heading that is nothing but
// markers is an error.
func parseHeading(text string) (*Descriptor, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, fmt.Errorf("empty section heading")
	}

	d := &Descriptor{Type: "feature", Priority: "medium"}

	markers := priorityMarker.FindAllStringSubmatch(raw, -1)
	if len(markers) > 1 {
		return nil, fmt.Errorf("section heading %q carries multiple priority markers", raw)
	}
	if len(markers) == 1 {
		d.Priority = priorityByMarker[markers[0][1]]
		raw = priorityMarker.ReplaceAllString(raw, "")
	}

	types := typeMarker.FindAllStringSubmatch(raw, -1)
	if len(types) > 1 {
		return nil, fmt.Errorf("section heading %q carries multiple type markers", raw)
	}
	if len(types) == 1 {
		d.Type = types[0][1]
		raw = typeMarker.ReplaceAllString(raw, "")
	}

	title := strings.TrimSpace(raw)
	title = phasePrefix.ReplaceAllString(title, "")
	title = storyPrefix.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("section heading %q has no title after removing markers", text)
	}

	d.Title = title
	return d, nil
}
