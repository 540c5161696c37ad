package tasks

import (
	"strings"
	"testing"
)

const sampleTasksFile = `# Tasks: User Authentication

Some introductory prose that should be ignored.

## Phase 1: Setup (P2)

Goal: Prepare the project skeleton.

- [x] T001 Create module layout
- [x] T002 Add CI pipeline
- Regular bullet without a task ID

## US1: Auth [bug] (P1)

**Goal**: Users can log in.

- [ ] T010 Implement login endpoint
- [x] T011 Hash passwords
- [ ] T012 Session cookies

## Notes

No tasks in this section, so it is not tracked.
`

func TestParseSections(t *testing.T) {
	descriptors, err := Parse(strings.NewReader(sampleTasksFile))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(descriptors) != 2 {
		t.Fatalf("Parse() = %d descriptors, want 2", len(descriptors))
	}

	setup := descriptors[0]
	if setup.Title != "Setup" {
		t.Errorf("setup title = %q, want Setup", setup.Title)
	}
	if setup.Priority != "high" {
		t.Errorf("setup priority = %q, want high", setup.Priority)
	}
	if setup.Type != "feature" {
		t.Errorf("setup type = %q, want feature", setup.Type)
	}
	if setup.Goal != "Prepare the project skeleton." {
		t.Errorf("setup goal = %q", setup.Goal)
	}
	if got := setup.TaskIDs(); len(got) != 2 || got[0] != "T001" || got[1] != "T002" {
		t.Errorf("setup tasks = %v, want [T001 T002]", got)
	}
	if !setup.AllDone() {
		t.Error("setup AllDone() = false, want true")
	}

	auth := descriptors[1]
	if auth.Title != "Auth" {
		t.Errorf("auth title = %q, want Auth", auth.Title)
	}
	if auth.Priority != "critical" {
		t.Errorf("auth priority = %q, want critical", auth.Priority)
	}
	if auth.Type != "bug" {
		t.Errorf("auth type = %q, want bug", auth.Type)
	}
	if auth.AllDone() {
		t.Error("auth AllDone() = true, want false (T010 and T012 unchecked)")
	}
	if len(auth.Tasks) != 3 {
		t.Fatalf("auth tasks = %d, want 3", len(auth.Tasks))
	}
	if !auth.Tasks[1].Checked || auth.Tasks[0].Checked {
		t.Errorf("auth checked states = %+v", auth.Tasks)
	}
}

func TestParseDefaults(t *testing.T) {
	descriptors, err := Parse(strings.NewReader("## Polish\n- [ ] T030 Cleanup\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(descriptors) != 1 {
		t.Fatalf("Parse() = %d descriptors, want 1", len(descriptors))
	}
	d := descriptors[0]
	if d.Priority != "medium" || d.Type != "feature" {
		t.Errorf("defaults = type %q priority %q, want feature/medium", d.Type, d.Priority)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "heading with only markers",
			input:   "## (P1)\n- [ ] T001 Something\n",
			wantErr: "no title",
		},
		{
			name:    "multiple priority markers",
			input:   "## Setup (P1) (P2)\n- [ ] T001 Something\n",
			wantErr: "multiple priority markers",
		},
		{
			name:    "duplicate section title",
			input:   "## Setup\n- [ ] T001 a\n## Setup\n- [ ] T002 b\n",
			wantErr: "duplicate section title",
		},
		{
			name:    "duplicate task id",
			input:   "## Setup\n- [ ] T001 a\n## Auth\n- [ ] T001 b\n",
			wantErr: "already appears",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAllDoneIgnoresOtherSections(t *testing.T) {
	input := "## Setup\n- [x] T001 a\n- [x] T002 b\n## Auth\n- [ ] T010 c\n"
	descriptors, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !descriptors[0].AllDone() {
		t.Error("Setup should be all done regardless of Auth's unchecked task")
	}
	if descriptors[1].AllDone() {
		t.Error("Auth should not be all done")
	}
}

func TestTaskLineShape(t *testing.T) {
	// Lines that are not `- [ ] T###` checklist entries are ignored.
	input := "## Setup\n- [ ] T001 good\n- [] T002 malformed box\n- [ ] 003 no prefix\n* [ ] T004 wrong bullet\n"
	descriptors, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := descriptors[0].TaskIDs(); len(got) != 1 || got[0] != "T001" {
		t.Errorf("task IDs = %v, want [T001]", got)
	}
}
