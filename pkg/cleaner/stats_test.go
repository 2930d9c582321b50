package cleaner

import (
	"strings"
	"testing"
	"time"
)

func TestNewStats(t *testing.T) {
	s := NewStats()

	if s.ElementsRemoved == nil {
		t.Error("expected ElementsRemoved map to be initialized")
	}
	if s.Matches == nil {
		t.Error("expected Matches map to be initialized")
	}
}

func TestStatsReductionPercent(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		output   int
		expected float64
	}{
		{"no input", 0, 0, 0},
		{"no reduction", 100, 100, 0},
		{"half", 100, 50, 50},
		{"everything", 200, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Stats{InputBytes: tt.input, OutputBytes: tt.output}
			if got := s.ReductionPercent(); got != tt.expected {
				t.Errorf("ReductionPercent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatsRecordRemoval(t *testing.T) {
	s := NewStats()
	s.RecordRemoval("DIV")
	s.RecordRemoval("div")
	s.RecordRemoval("img")

	if s.ElementsRemoved["div"] != 2 {
		t.Errorf("expected div=2, got %d", s.ElementsRemoved["div"])
	}
	if s.TotalElementsRemoved() != 3 {
		t.Errorf("expected 3 total, got %d", s.TotalElementsRemoved())
	}
}

func TestStatsMerge(t *testing.T) {
	a := NewStats()
	a.InputBytes = 10
	a.RecordRemoval("p")
	a.RecordMatch("rule-1", 2)
	a.TotalDuration = time.Millisecond

	b := NewStats()
	b.InputBytes = 5
	b.RecordRemoval("p")
	b.RecordMatch("rule-1", 1)
	b.RulesApplied = 3
	b.TotalDuration = time.Millisecond

	a.Merge(b)
	a.Merge(nil)

	if a.InputBytes != 15 {
		t.Errorf("InputBytes = %d, want 15", a.InputBytes)
	}
	if a.ElementsRemoved["p"] != 2 {
		t.Errorf("ElementsRemoved[p] = %d, want 2", a.ElementsRemoved["p"])
	}
	if a.Matches["rule-1"] != 3 {
		t.Errorf("Matches[rule-1] = %d, want 3", a.Matches["rule-1"])
	}
	if a.RulesApplied != 3 {
		t.Errorf("RulesApplied = %d, want 3", a.RulesApplied)
	}
	if a.TotalDuration != 2*time.Millisecond {
		t.Errorf("TotalDuration = %v, want 2ms", a.TotalDuration)
	}
}

func TestStatsString(t *testing.T) {
	s := NewStats()
	s.InputBytes = 2000
	s.OutputBytes = 1000
	s.RulesApplied = 2
	s.RulesMatched = 1
	s.RecordRemoval("section")
	s.RecordMatch("strip footer", 1)

	out := s.String()
	for _, want := range []string{"2.0 kB -> 1.0 kB", "50.0% reduction", "2 applied, 1 matched", "section=1", "strip footer=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected String() to contain %q, got:\n%s", want, out)
		}
	}
}

func TestWarningString(t *testing.T) {
	w := Warning{Phase: "parse", Message: "bad input"}
	if got := w.String(); got != "[parse] bad input" {
		t.Errorf("String() = %q", got)
	}

	w.Context = "rule 2"
	if got := w.String(); got != "[parse] bad input (context: rule 2)" {
		t.Errorf("String() = %q", got)
	}
}

func TestResultWarnings(t *testing.T) {
	r := NewResult()
	if r.HasWarnings() {
		t.Error("expected no warnings on new result")
	}
	r.AddWarning("transform", "something", "")
	if !r.HasWarnings() || len(r.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(r.Warnings))
	}
}
