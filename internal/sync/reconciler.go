// Package sync reconciles parsed task files with GitHub issues. The task
// file is the single source of truth: GitHub state is moved toward it,
// never the reverse.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stellarlink/specsync/internal/gh"
	"github.com/stellarlink/specsync/internal/labels"
	"github.com/stellarlink/specsync/internal/mapping"
	"github.com/stellarlink/specsync/internal/tasks"
)

// Reconciler drives one sync pass. All remote calls are sequential and
// blocking; the mapping file is persisted after every single mutation so
// a failed run resumes instead of duplicating work.
type Reconciler struct {
	Client gh.Client
	State  gh.StateReader
	Store  *mapping.Store
	Logger *log.Logger

	now func() time.Time
}

// New creates a reconciler with the default logger and clock.
func New(client gh.Client, state gh.StateReader, store *mapping.Store) *Reconciler {
	return &Reconciler{
		Client: client,
		State:  state,
		Store:  store,
		Logger: log.Default(),
		now:    time.Now,
	}
}

func (r *Reconciler) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

func (r *Reconciler) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// SyncLabels ensures the fixed type and priority label sets exist, plus
// the spec tag when specNumber is given. Creation is attempted
// unconditionally; an "already exists" rejection is success.
func (r *Reconciler) SyncLabels(ctx context.Context, repo, specNumber string) error {
	set := make([]labels.Label, 0, len(labels.TypeLabels)+len(labels.PriorityLabels)+1)
	set = append(set, labels.TypeLabels...)
	set = append(set, labels.PriorityLabels...)
	if specNumber != "" {
		if !labels.ValidSpecNumber(specNumber) {
			return fmt.Errorf("invalid spec number %q (expected 3 digits)", specNumber)
		}
		set = append(set, labels.SpecLabel(specNumber))
	}

	for _, l := range set {
		err := r.Client.CreateLabel(ctx, repo, l.Name, l.Color, l.Description)
		if err == nil {
			r.logf("[Labels] Created %s", l.Name)
			continue
		}
		var apiErr *gh.APIError
		if errors.As(err, &apiErr) && gh.IsAlreadyExists(apiErr.Output) {
			r.logf("[Labels] %s already exists, skipping", l.Name)
			continue
		}
		return fmt.Errorf("create label %s: %w", l.Name, err)
	}
	return nil
}

// SyncIssues runs one full reconciliation pass for a payload.
func (r *Reconciler) SyncIssues(ctx context.Context, repo string, p *Payload) error {
	doc, err := r.Store.Load()
	if err != nil {
		return err
	}
	if doc.Repository == "" {
		doc.Repository = repo
	} else if doc.Repository != repo {
		return fmt.Errorf("mapping file %s tracks %s, not %s", r.Store.Path(), doc.Repository, repo)
	}

	if err := r.SyncLabels(ctx, repo, p.Specification.Number); err != nil {
		return err
	}

	spec := doc.Spec(p.Specification.Number)
	if spec == nil {
		spec, err = r.createEpic(ctx, repo, doc, p)
		if err != nil {
			return err
		}
	}

	for i := range p.Issues {
		if err := r.reconcileIssue(ctx, repo, doc, spec, p, &p.Issues[i]); err != nil {
			return err
		}
	}

	return r.reconcileEpic(ctx, repo, doc, spec, p)
}

// createEpic creates the parent issue for a specification and records it
// in the mapping before any sub-issue work starts.
func (r *Reconciler) createEpic(ctx context.Context, repo string, doc *mapping.Document, p *Payload) (*mapping.Specification, error) {
	meta := p.Specification
	epicLabels := aggregateLabels(meta.Number, p.Issues)

	title := epicTitle(meta)
	r.logf("[Sync] Creating Epic %q for spec %s", title, meta.Number)

	ref, err := r.Client.CreateIssue(ctx, repo, title, renderEpicBody(meta, p.Issues, nil), epicLabels)
	if err != nil {
		return nil, fmt.Errorf("create Epic for spec %s: %w", meta.Number, err)
	}
	r.logf("[Sync] Created Epic #%d (%s)", ref.Number, ref.URL)

	now := r.clock()
	spec := &mapping.Specification{
		Number:     meta.Number,
		Name:       meta.Name,
		Title:      meta.Title,
		Branch:     meta.Branch,
		Directory:  meta.Directory,
		EpicIssue:  ref.Number,
		EpicNodeID: ref.NodeID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	doc.PutSpec(spec)
	if err := r.Store.Save(doc); err != nil {
		return nil, err
	}
	return spec, nil
}

// reconcileIssue applies the absent -> open <-> closed state machine to
// one task group.
func (r *Reconciler) reconcileIssue(ctx context.Context, repo string, doc *mapping.Document, spec *mapping.Specification, p *Payload, d *tasks.Descriptor) error {
	meta := p.Specification
	key := IssueKey(d.Title)
	desired := mapping.StatusOpen
	if d.AllDone() {
		desired = mapping.StatusClosed
	}

	rec := spec.FindIssue(key, d.Title)
	if rec == nil {
		r.logf("[Sync] Creating sub-issue %q", d.Title)
		ref, err := r.Client.CreateIssue(ctx, repo, d.Title, renderIssueBody(meta, d),
			[]string{labels.SpecLabel(meta.Number).Name})
		if err != nil {
			return fmt.Errorf("create sub-issue %q: %w", d.Title, err)
		}
		if err := r.Client.AddSubIssue(ctx, repo, spec.EpicNodeID, ref.NodeID); err != nil {
			return fmt.Errorf("link sub-issue #%d to Epic #%d: %w", ref.Number, spec.EpicIssue, err)
		}
		r.logf("[Sync] Created sub-issue #%d linked to Epic #%d", ref.Number, spec.EpicIssue)

		rec = &mapping.Issue{
			Number:    ref.Number,
			Title:     d.Title,
			Type:      d.Type,
			Priority:  d.Priority,
			Status:    mapping.StatusOpen,
			URL:       ref.URL,
			NodeID:    ref.NodeID,
			CreatedAt: r.clock(),
			Tasks:     d.TaskIDs(),
			Key:       key,
		}
		spec.Issues = append(spec.Issues, rec)
		spec.UpdatedAt = r.clock()
		if err := r.Store.Save(doc); err != nil {
			return err
		}

		if desired == mapping.StatusClosed {
			if err := r.Client.CloseIssue(ctx, repo, rec.Number); err != nil {
				return fmt.Errorf("close sub-issue #%d: %w", rec.Number, err)
			}
			r.logf("[Sync] Closed sub-issue #%d (all tasks checked)", rec.Number)
			rec.Status = mapping.StatusClosed
			spec.UpdatedAt = r.clock()
			return r.Store.Save(doc)
		}
		return nil
	}

	// Existing issue: decide against live GitHub state, not the cache.
	live, err := r.State.IssueState(ctx, repo, rec.Number)
	if err != nil {
		return err
	}
	switch {
	case desired == mapping.StatusClosed && live == "open":
		if err := r.Client.CloseIssue(ctx, repo, rec.Number); err != nil {
			return fmt.Errorf("close sub-issue #%d: %w", rec.Number, err)
		}
		r.logf("[Sync] Closed #%d %q (all tasks checked)", rec.Number, d.Title)
	case desired == mapping.StatusOpen && live == "closed":
		if err := r.Client.ReopenIssue(ctx, repo, rec.Number); err != nil {
			return fmt.Errorf("reopen sub-issue #%d: %w", rec.Number, err)
		}
		r.logf("[Sync] Reopened #%d %q (unchecked tasks present)", rec.Number, d.Title)
	}

	// The body always reflects the current checklist text.
	if err := r.Client.EditIssueBody(ctx, repo, rec.Number, renderIssueBody(meta, d)); err != nil {
		return fmt.Errorf("refresh body of #%d: %w", rec.Number, err)
	}

	rec.Title = d.Title
	rec.Type = d.Type
	rec.Priority = d.Priority
	rec.Tasks = d.TaskIDs()
	rec.Status = desired
	if rec.Key == "" {
		rec.Key = key
	}
	spec.UpdatedAt = r.clock()
	return r.Store.Save(doc)
}

// reconcileEpic closes or reopens the Epic from its sub-issues and
// recomputes the aggregate labels fresh each pass.
func (r *Reconciler) reconcileEpic(ctx context.Context, repo string, doc *mapping.Document, spec *mapping.Specification, p *Payload) error {
	desired := mapping.StatusOpen
	if spec.AllClosed() {
		desired = mapping.StatusClosed
	}

	live, err := r.State.IssueState(ctx, repo, spec.EpicIssue)
	if err != nil {
		return err
	}
	switch {
	case desired == mapping.StatusClosed && live == "open":
		if err := r.Client.CloseIssue(ctx, repo, spec.EpicIssue); err != nil {
			return fmt.Errorf("close Epic #%d: %w", spec.EpicIssue, err)
		}
		r.logf("[Sync] Closed Epic #%d (all sub-issues closed)", spec.EpicIssue)
	case desired == mapping.StatusOpen && live == "closed":
		if err := r.Client.ReopenIssue(ctx, repo, spec.EpicIssue); err != nil {
			return fmt.Errorf("reopen Epic #%d: %w", spec.EpicIssue, err)
		}
		r.logf("[Sync] Reopened Epic #%d (open sub-issues present)", spec.EpicIssue)
	}

	want := aggregateLabels(p.Specification.Number, p.Issues)
	remove := staleLabels(want)
	if err := r.Client.EditIssueLabels(ctx, repo, spec.EpicIssue, want, remove); err != nil {
		return fmt.Errorf("update Epic #%d labels: %w", spec.EpicIssue, err)
	}

	if err := r.Client.EditIssueBody(ctx, repo, spec.EpicIssue, renderEpicBody(p.Specification, p.Issues, spec)); err != nil {
		return fmt.Errorf("refresh Epic #%d body: %w", spec.EpicIssue, err)
	}

	spec.UpdatedAt = r.clock()
	return r.Store.Save(doc)
}

func epicTitle(meta SpecMeta) string {
	title := meta.Title
	if title == "" {
		title = meta.Name
	}
	return "Epic: " + title
}

// aggregateLabels computes the Epic label set: the epic marker, the spec
// tag, the union of sub-issue types and the single highest priority.
func aggregateLabels(specNumber string, descriptors []tasks.Descriptor) []string {
	out := []string{"epic", labels.SpecLabel(specNumber).Name}

	seen := make(map[string]bool)
	var priorities []string
	for i := range descriptors {
		d := &descriptors[i]
		if d.Type != "" && d.Type != "epic" && !seen[d.Type] {
			seen[d.Type] = true
			out = append(out, d.Type)
		}
		priorities = append(priorities, d.Priority)
	}

	if top := labels.HighestPriority(priorities); top != "" {
		out = append(out, top)
	}
	return out
}

// staleLabels lists every managed type/priority label that is not part
// of the wanted set, so stale aggregates never persist on the Epic.
func staleLabels(want []string) []string {
	wanted := make(map[string]bool, len(want))
	for _, w := range want {
		wanted[w] = true
	}

	var out []string
	for _, t := range labels.AllTypes() {
		if t != "epic" && !wanted[t] {
			out = append(out, t)
		}
	}
	for _, p := range labels.AllPriorities() {
		if !wanted[p] {
			out = append(out, p)
		}
	}
	return out
}
