package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/stellarlink/specsync/internal/labels"
	"github.com/stellarlink/specsync/internal/tasks"
)

// SpecMeta identifies the feature specification a payload belongs to.
type SpecMeta struct {
	Number    string `json:"number"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Branch    string `json:"branch"`
	Directory string `json:"directory"`
}

// Payload is the JSON document accepted by the issues-sync entry point:
// one specification plus the issue descriptors parsed from its task file.
type Payload struct {
	Specification SpecMeta           `json:"specification"`
	Issues        []tasks.Descriptor `json:"issues"`
}

var taskIDPattern = regexp.MustCompile(`^T\d{3}$`)

// ParsePayload decodes and validates a sync payload. Validation failures
// report the offending fragment; nothing is mutated on GitHub or in the
// mapping file when the payload is rejected.
func ParsePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed JSON payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks payload structure and applies type/priority defaults.
func (p *Payload) Validate() error {
	if !labels.ValidSpecNumber(p.Specification.Number) {
		return fmt.Errorf("specification.number %q is not a 3-digit spec number", p.Specification.Number)
	}
	if p.Specification.Name == "" {
		return fmt.Errorf("specification.name is required")
	}
	if len(p.Issues) == 0 {
		return fmt.Errorf("payload has no issues")
	}

	seen := make(map[string]bool)
	for i := range p.Issues {
		d := &p.Issues[i]
		if d.Title == "" {
			return fmt.Errorf("issues[%d] has no title", i)
		}
		if seen[d.Title] {
			return fmt.Errorf("duplicate issue title %q", d.Title)
		}
		seen[d.Title] = true

		if d.Type == "" {
			d.Type = "feature"
		}
		if !labels.ValidType(d.Type) {
			return fmt.Errorf("issue %q has unknown type %q", d.Title, d.Type)
		}
		if d.Priority == "" {
			d.Priority = "medium"
		}
		if !labels.ValidPriority(d.Priority) {
			return fmt.Errorf("issue %q has unknown priority %q", d.Title, d.Priority)
		}
		if len(d.Tasks) == 0 {
			return fmt.Errorf("issue %q has no tasks", d.Title)
		}
		for _, task := range d.Tasks {
			if !taskIDPattern.MatchString(task.ID) {
				return fmt.Errorf("issue %q has malformed task ID %q", d.Title, task.ID)
			}
		}
	}
	return nil
}

// FromTaskFile builds a payload by running the deterministic parser over
// a tasks.md file.
func FromTaskFile(meta SpecMeta, path string) (*Payload, error) {
	descriptors, err := tasks.ParseFile(path)
	if err != nil {
		return nil, err
	}
	p := &Payload{Specification: meta, Issues: descriptors}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// IssueKey derives the stable identifier stored in the mapping at
// first-creation time, so later syncs can match a section even after a
// rename of unrelated punctuation or casing.
func IssueKey(title string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:6])
}
