// Package pr drafts and maintains the pull request that closes every
// issue tracked for a specification.
package pr

import (
	"context"
	"fmt"
	"log"
	"strings"
	"text/template"
	"time"

	"github.com/stellarlink/specsync/internal/gh"
	"github.com/stellarlink/specsync/internal/mapping"
)

var bodyTmpl = template.Must(template.New("pr").Parse(`## Summary

Implements feature specification ` + "`{{.Spec.Number}}-{{.Spec.Name}}`" + `.

## Completed work

{{range .Spec.Issues}}- {{if eq .Status "closed"}}✅{{else}}🔲{{end}} #{{.Number}} {{.Title}} ({{len .Tasks}} tasks)
{{end}}
{{- if .Commits}}
## Commits

{{range .Commits}}- {{.}}
{{end}}
{{- end}}
---

Closes #{{.Spec.EpicIssue}}
{{- range .Spec.Issues}}
Closes #{{.Number}}
{{- end}}
`))

// Composer builds the PR for a specification branch. Create-or-update is
// keyed by head branch, so reruns refresh the body instead of opening a
// duplicate.
type Composer struct {
	Client gh.Client
	Runner gh.CommandRunner
	Store  *mapping.Store
	Logger *log.Logger

	now func() time.Time
}

// New creates a composer with the default logger and clock.
func New(client gh.Client, runner gh.CommandRunner, store *mapping.Store) *Composer {
	return &Composer{
		Client: client,
		Runner: runner,
		Store:  store,
		Logger: log.Default(),
		now:    time.Now,
	}
}

func (c *Composer) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

// Compose creates or updates the PR for the given specification and
// records it in the mapping file.
func (c *Composer) Compose(ctx context.Context, repo, specNumber, base string) (*mapping.PullRequest, error) {
	doc, err := c.Store.Load()
	if err != nil {
		return nil, err
	}
	spec := doc.Spec(specNumber)
	if spec == nil {
		return nil, fmt.Errorf("specification %s has never been synced (run: specsync issues sync)", specNumber)
	}
	if spec.EpicIssue == 0 {
		return nil, fmt.Errorf("specification %s has no Epic issue recorded", specNumber)
	}
	if base == "" {
		base = "main"
	}

	commits, err := c.commitSubjects(ctx, base, spec.Branch)
	if err != nil {
		return nil, err
	}

	title := prTitle(spec)
	body, err := renderBody(spec, commits)
	if err != nil {
		return nil, err
	}

	existing, err := c.Client.ViewPR(ctx, repo, spec.Branch)
	if err != nil {
		return nil, err
	}

	now := c.clock()
	if existing != nil {
		c.logf("[PR] Updating existing PR #%d for %s", existing.Number, spec.Branch)
		if err := c.Client.EditPR(ctx, repo, existing.Number, title, body); err != nil {
			return nil, err
		}
		record := spec.PullRequest
		if record == nil {
			record = &mapping.PullRequest{Number: existing.Number, URL: existing.URL, CreatedAt: now}
		}
		record.Status = prStatus(existing.State)
		spec.PullRequest = record
		spec.UpdatedAt = now
		if err := c.Store.Save(doc); err != nil {
			return nil, err
		}
		return record, nil
	}

	c.logf("[PR] Creating PR for %s into %s", spec.Branch, base)
	created, err := c.Client.CreatePR(ctx, repo, spec.Branch, base, title, body)
	if err != nil {
		return nil, err
	}
	c.logf("[PR] Created PR #%d (%s)", created.Number, created.URL)

	record := &mapping.PullRequest{
		Number:    created.Number,
		URL:       created.URL,
		CreatedAt: now,
		Status:    mapping.StatusOpen,
	}
	spec.PullRequest = record
	spec.UpdatedAt = now
	if err := c.Store.Save(doc); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Composer) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// commitSubjects lists commit subjects on the branch since base, newest
// first, for the PR body.
func (c *Composer) commitSubjects(ctx context.Context, base, branch string) ([]string, error) {
	output, err := c.Runner.Run(ctx, "git", "log", "--pretty=%s", base+".."+branch)
	if err != nil {
		return nil, fmt.Errorf("git log %s..%s failed: %w\nOutput: %s", base, branch, err, output)
	}

	var commits []string
	for _, line := range strings.Split(string(output), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			commits = append(commits, line)
		}
	}
	return commits, nil
}

func prTitle(spec *mapping.Specification) string {
	title := spec.Title
	if title == "" {
		title = spec.Name
	}
	return fmt.Sprintf("%s (spec %s)", title, spec.Number)
}

func renderBody(spec *mapping.Specification, commits []string) (string, error) {
	var sb strings.Builder
	err := bodyTmpl.Execute(&sb, struct {
		Spec    *mapping.Specification
		Commits []string
	}{spec, commits})
	if err != nil {
		return "", fmt.Errorf("render PR body: %w", err)
	}
	return sb.String(), nil
}

func prStatus(state string) mapping.Status {
	if strings.EqualFold(state, "open") {
		return mapping.StatusOpen
	}
	return mapping.StatusClosed
}
