// Package mapping persists the issue mapping document that correlates
// feature specifications with their GitHub issue numbers.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath is where the mapping document lives relative to the
// repository root.
const DefaultPath = ".specify/memory/gh-issues-mapping.json"

// Store reads and writes the mapping document. Saves are atomic
// (write-to-temp-then-rename) so a crash mid-run never leaves a
// half-written file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the mapping document. A missing file yields an empty
// document; first sync for a repository starts from nothing.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{Specifications: make(map[string]*Specification)}, nil
		}
		return nil, fmt.Errorf("read mapping file %s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse mapping file %s: %w", s.path, err)
	}
	if doc.Specifications == nil {
		doc.Specifications = make(map[string]*Specification)
	}
	return &doc, nil
}

// Save writes the document atomically. The temp file is created in the
// target directory so the rename stays on one filesystem.
func (s *Store) Save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mapping document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create mapping directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".gh-issues-mapping-*.json")
	if err != nil {
		return fmt.Errorf("create temp mapping file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp mapping file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp mapping file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace mapping file %s: %w", s.path, err)
	}
	return nil
}
