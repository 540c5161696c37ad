package labels

import "testing"

func TestHighestPriority(t *testing.T) {
	tests := []struct {
		name       string
		priorities []string
		want       string
	}{
		{"critical beats all", []string{"low", "critical", "medium"}, "critical"},
		{"high beats medium and low", []string{"medium", "high", "low"}, "high"},
		{"single value", []string{"low"}, "low"},
		{"unknown values ignored", []string{"urgent", "medium"}, "medium"},
		{"empty input", nil, ""},
		{"all unknown", []string{"urgent", "p0"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestPriority(tt.priorities); got != tt.want {
				t.Errorf("HighestPriority(%v) = %q, want %q", tt.priorities, got, tt.want)
			}
		})
	}
}

func TestValidSpecNumber(t *testing.T) {
	valid := []string{"001", "042", "999"}
	for _, s := range valid {
		if !ValidSpecNumber(s) {
			t.Errorf("ValidSpecNumber(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "42", "0042", "abc", "04a", "-42"}
	for _, s := range invalid {
		if ValidSpecNumber(s) {
			t.Errorf("ValidSpecNumber(%q) = true, want false", s)
		}
	}
}

func TestSpecLabel(t *testing.T) {
	l := SpecLabel("042")
	if l.Name != "spec-042" {
		t.Errorf("SpecLabel name = %q, want spec-042", l.Name)
	}
	if l.Color == "" || l.Description == "" {
		t.Errorf("SpecLabel missing color or description: %+v", l)
	}
}

func TestValidType(t *testing.T) {
	if !ValidType("feature") || !ValidType("epic") {
		t.Error("expected feature and epic to be valid types")
	}
	if ValidType("story") {
		t.Error("story should not be a valid type")
	}
}
