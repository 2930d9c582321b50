package cleaner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats captures metrics about what a cleaner did to one fragment.
type Stats struct {
	// Size metrics
	InputBytes  int `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int `json:"output_bytes" yaml:"output_bytes"`

	// ElementsRemoved counts detached subtrees by root tag.
	ElementsRemoved map[string]int `json:"elements_removed" yaml:"elements_removed"`

	// Matches counts nodes acted on per rule or pass label.
	Matches map[string]int `json:"matches" yaml:"matches"`

	// RulesApplied is the number of rules evaluated; RulesMatched the number
	// whose filtered selection was non-empty.
	RulesApplied int `json:"rules_applied" yaml:"rules_applied"`
	RulesMatched int `json:"rules_matched" yaml:"rules_matched"`

	// Timing
	ParseDuration     time.Duration `json:"parse_duration_ms" yaml:"parse_duration_ms"`
	TransformDuration time.Duration `json:"transform_duration_ms" yaml:"transform_duration_ms"`
	OutputDuration    time.Duration `json:"output_duration_ms" yaml:"output_duration_ms"`
	TotalDuration     time.Duration `json:"total_duration_ms" yaml:"total_duration_ms"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		ElementsRemoved: make(map[string]int),
		Matches:         make(map[string]int),
	}
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// TotalElementsRemoved returns the sum of all removed elements.
func (s *Stats) TotalElementsRemoved() int {
	total := 0
	for _, count := range s.ElementsRemoved {
		total += count
	}
	return total
}

// RecordRemoval records that an element was removed.
func (s *Stats) RecordRemoval(tag string) {
	s.ElementsRemoved[strings.ToLower(tag)]++
}

// RecordMatch records that a rule or pass acted on count nodes.
func (s *Stats) RecordMatch(label string, count int) {
	s.Matches[label] += count
}

// Merge adds the counters of other into s. Durations are summed.
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}
	s.InputBytes += other.InputBytes
	s.OutputBytes += other.OutputBytes
	for tag, n := range other.ElementsRemoved {
		s.ElementsRemoved[tag] += n
	}
	for label, n := range other.Matches {
		s.Matches[label] += n
	}
	s.RulesApplied += other.RulesApplied
	s.RulesMatched += other.RulesMatched
	s.ParseDuration += other.ParseDuration
	s.TransformDuration += other.TransformDuration
	s.OutputDuration += other.OutputDuration
	s.TotalDuration += other.TotalDuration
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %s -> %s (%.1f%% reduction)\n",
		humanize.Bytes(uint64(s.InputBytes)), humanize.Bytes(uint64(s.OutputBytes)), s.ReductionPercent()))

	if s.RulesApplied > 0 {
		sb.WriteString(fmt.Sprintf("Rules: %d applied, %d matched\n", s.RulesApplied, s.RulesMatched))
	}

	sb.WriteString(fmt.Sprintf("Elements removed: %d\n", s.TotalElementsRemoved()))

	if len(s.ElementsRemoved) > 0 {
		sb.WriteString("Removed by tag: ")
		sb.WriteString(joinCounts(s.ElementsRemoved))
		sb.WriteString("\n")
	}

	if len(s.Matches) > 0 {
		sb.WriteString("Matches: ")
		sb.WriteString(joinCounts(s.Matches))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Timing: parse=%v, transform=%v, output=%v, total=%v\n",
		s.ParseDuration.Round(time.Microsecond),
		s.TransformDuration.Round(time.Microsecond),
		s.OutputDuration.Round(time.Microsecond),
		s.TotalDuration.Round(time.Microsecond)))

	return sb.String()
}

func joinCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

// Warning represents a non-fatal issue encountered during cleaning.
type Warning struct {
	Phase   string `json:"phase" yaml:"phase"`     // "parse", "transform", "output"
	Message string `json:"message" yaml:"message"` // Human-readable description
	Context string `json:"context" yaml:"context"` // Rule or pass that caused the issue
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of a cleaning operation.
type Result struct {
	// Content is the cleaned output. On failure it holds the original input.
	Content string `json:"content" yaml:"content"`

	// Stats contains metrics about what was done.
	Stats *Stats `json:"stats" yaml:"stats"`

	// Warnings contains non-fatal issues encountered.
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Error is set when cleaning failed and Content fell back to the input.
	Error error `json:"-" yaml:"-"`
}

// NewResult returns an empty result with initialized stats.
func NewResult() *Result {
	return &Result{Stats: NewStats()}
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}
