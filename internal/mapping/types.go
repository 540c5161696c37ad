package mapping

import "time"

// Status represents the open/closed state of a tracked issue or PR.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Document is the root of the mapping file. One document tracks every
// specification that has been synchronized for a repository.
type Document struct {
	Repository     string                    `json:"repository"`
	Specifications map[string]*Specification `json:"specifications"`
}

// Specification correlates one feature spec with its Epic issue,
// sub-issues and optional pull request.
type Specification struct {
	Number      string       `json:"number"`
	Name        string       `json:"name"`
	Title       string       `json:"title"`
	Branch      string       `json:"branch"`
	Directory   string       `json:"directory"`
	EpicIssue   int          `json:"epic_issue"`
	EpicNodeID  string       `json:"epic_node_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Issues      []*Issue     `json:"issues"`
	PullRequest *PullRequest `json:"pull_request,omitempty"`
}

// Issue is one tracked sub-issue. Records are mutated in place on every
// sync and never removed; closure is a status flip.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	Status    Status    `json:"status"`
	URL       string    `json:"url"`
	NodeID    string    `json:"node_id"`
	CreatedAt time.Time `json:"created_at"`
	Tasks     []string  `json:"tasks"`
	// Key is a stable identifier assigned at creation time so that a
	// renamed section can still be matched to its issue.
	Key string `json:"key,omitempty"`
}

// PullRequest tracks the PR composed for a specification branch.
type PullRequest struct {
	Number    int       `json:"number"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"status"`
}

// Spec returns the specification entry for number, or nil.
func (d *Document) Spec(number string) *Specification {
	if d.Specifications == nil {
		return nil
	}
	return d.Specifications[number]
}

// PutSpec inserts or replaces a specification entry.
func (d *Document) PutSpec(s *Specification) {
	if d.Specifications == nil {
		d.Specifications = make(map[string]*Specification)
	}
	d.Specifications[s.Number] = s
}

// FindIssue matches an issue record by stable key first, then by title.
func (s *Specification) FindIssue(key, title string) *Issue {
	if key != "" {
		for _, is := range s.Issues {
			if is.Key == key {
				return is
			}
		}
	}
	for _, is := range s.Issues {
		if is.Title == title {
			return is
		}
	}
	return nil
}

// AllClosed reports whether every sub-issue is closed. A specification
// with no sub-issues is not considered closed.
func (s *Specification) AllClosed() bool {
	if len(s.Issues) == 0 {
		return false
	}
	for _, is := range s.Issues {
		if is.Status != StatusClosed {
			return false
		}
	}
	return true
}
