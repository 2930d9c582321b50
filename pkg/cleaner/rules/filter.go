package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jmylchreest/feedclean/pkg/cleaner/dom"
)

// predicate narrows a node set. Predicates of a rule run in declaration
// order: text first, then attribute.
type predicate interface {
	keep(n dom.Node) bool
}

// RegexError reports a text or attribute pattern that does not compile.
type RegexError struct {
	Rule    int
	Pattern string
	Err     error
}

func (e *RegexError) Error() string {
	return fmt.Sprintf("rule %d: invalid pattern %q: %v", e.Rule, e.Pattern, e.Err)
}

func (e *RegexError) Unwrap() error {
	return e.Err
}

func (e *RegexError) Is(target error) bool {
	return target == ErrInvalidRuleSet
}

type textFilter struct {
	mode  MatchMode
	value string
	re    *regexp.Regexp
}

func newTextFilter(index int, m *TextMatch) (*textFilter, error) {
	f := &textFilter{mode: m.Mode, value: m.Value}
	if m.Mode == MatchRegex {
		re, err := regexp.Compile(m.Value)
		if err != nil {
			return nil, &RegexError{Rule: index, Pattern: m.Value, Err: err}
		}
		f.re = re
	}
	return f, nil
}

func (f *textFilter) keep(n dom.Node) bool {
	text := strings.TrimSpace(n.Text())
	switch f.mode {
	case MatchStartsWith:
		return strings.HasPrefix(text, f.value)
	case MatchContains:
		return strings.Contains(text, f.value)
	case MatchEquals:
		return text == f.value
	case MatchRegex:
		return f.re != nil && f.re.MatchString(text)
	default:
		// Unknown modes reject everything so a bad rule can never widen a removal.
		return false
	}
}

type attrFilter struct {
	name   string
	prefix string
	re     *regexp.Regexp
}

func newAttrFilter(index int, m *AttrMatch) (*attrFilter, error) {
	f := &attrFilter{name: m.Name}
	if rest, ok := strings.CutPrefix(m.Pattern, "^"); ok {
		f.prefix = rest
		return f, nil
	}
	re, err := regexp.Compile(m.Pattern)
	if err != nil {
		return nil, &RegexError{Rule: index, Pattern: m.Pattern, Err: err}
	}
	f.re = re
	return f, nil
}

func (f *attrFilter) keep(n dom.Node) bool {
	v, ok := n.Attr(f.name)
	if !ok || v == "" {
		return false
	}
	if f.re == nil {
		return strings.HasPrefix(v, f.prefix)
	}
	return f.re.MatchString(v)
}

// applyFilters narrows nodes by each predicate in turn.
func applyFilters(nodes dom.NodeSet, filters []predicate) dom.NodeSet {
	for _, p := range filters {
		if nodes.Len() == 0 {
			break
		}
		nodes = nodes.Filter(p.keep)
	}
	return nodes
}
