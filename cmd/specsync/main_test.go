package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stellarlink/specsync/internal/mapping"
	"github.com/stellarlink/specsync/internal/sync"
)

func TestInferSpecMeta(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		override string
		wantErr  bool
		check    func(*testing.T, sync.SpecMeta)
	}{
		{
			name: "conventional directory",
			path: "specs/007-user-auth/tasks.md",
			check: func(t *testing.T, meta sync.SpecMeta) {
				if meta.Number != "007" {
					t.Errorf("Number = %q, want 007", meta.Number)
				}
				if meta.Name != "user-auth" {
					t.Errorf("Name = %q, want user-auth", meta.Name)
				}
				if meta.Branch != "007-user-auth" {
					t.Errorf("Branch = %q", meta.Branch)
				}
				if meta.Title != "User Auth" {
					t.Errorf("Title = %q, want User Auth", meta.Title)
				}
			},
		},
		{
			name:     "override must match directory",
			path:     "specs/007-user-auth/tasks.md",
			override: "008",
			wantErr:  true,
		},
		{
			name:    "unconventional directory without override",
			path:    "docs/tasks.md",
			wantErr: true,
		},
		{
			name:     "unconventional directory with override",
			path:     "docs/tasks.md",
			override: "012",
			check: func(t *testing.T, meta sync.SpecMeta) {
				if meta.Number != "012" {
					t.Errorf("Number = %q, want 012", meta.Number)
				}
				if meta.Name != "docs" {
					t.Errorf("Name = %q, want docs", meta.Name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := inferSpecMeta(tt.path, tt.override)
			if (err != nil) != tt.wantErr {
				t.Fatalf("inferSpecMeta() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var uerr *usageError
				if !errors.As(err, &uerr) {
					t.Errorf("inference failure should be a usage error, got %T", err)
				}
				return
			}
			if tt.check != nil {
				tt.check(t, meta)
			}
		})
	}
}

func TestTitleFromName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"user-auth", "User Auth"},
		{"payment", "Payment"},
		{"multi-word-feature-name", "Multi Word Feature Name"},
	}
	for _, tt := range tests {
		if got := titleFromName(tt.in); got != tt.want {
			t.Errorf("titleFromName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintHumanStatus(t *testing.T) {
	doc := &mapping.Document{Repository: "acme/widgets"}
	doc.PutSpec(&mapping.Specification{
		Number:    "007",
		Title:     "User Authentication",
		Branch:    "007-user-auth",
		EpicIssue: 42,
		Issues: []*mapping.Issue{
			{Number: 43, Title: "Setup", Status: mapping.StatusClosed, Type: "feature", Priority: "high", Tasks: []string{"T001"}},
			{Number: 44, Title: "Auth API", Status: mapping.StatusOpen, Type: "feature", Priority: "critical", Tasks: []string{"T010", "T011"}},
		},
		PullRequest: &mapping.PullRequest{Number: 500, Status: mapping.StatusOpen, URL: "https://github.com/acme/widgets/pull/500"},
	})

	var sb strings.Builder
	printHumanStatus(&sb, doc)
	out := sb.String()

	for _, want := range []string{
		"Repository: acme/widgets",
		"007 User Authentication (branch 007-user-auth)",
		"Epic #42",
		"[x] #43 Setup",
		"[ ] #44 Auth API",
		"PR #500 (open)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q\noutput:\n%s", want, out)
		}
	}
}

func TestPrintHumanStatusEmpty(t *testing.T) {
	var sb strings.Builder
	printHumanStatus(&sb, &mapping.Document{})
	if !strings.Contains(sb.String(), "No specifications synced yet.") {
		t.Errorf("empty document output = %q", sb.String())
	}
}

func TestSortedSpecNumbers(t *testing.T) {
	doc := &mapping.Document{}
	for _, n := range []string{"012", "003", "108"} {
		doc.PutSpec(&mapping.Specification{Number: n})
	}
	got := sortedSpecNumbers(doc)
	want := []string{"003", "012", "108"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortedSpecNumbers() = %v, want %v", got, want)
		}
	}
}

func TestUsageErrorClassification(t *testing.T) {
	err := usageErrorf("bad flag %q", "--nope")
	var uerr *usageError
	if !errors.As(err, &uerr) {
		t.Fatal("usageErrorf result should unwrap to *usageError")
	}
	if !strings.Contains(err.Error(), "--nope") {
		t.Errorf("message lost: %v", err)
	}
}
