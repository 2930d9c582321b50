package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/feedclean/internal/logger"
	"github.com/jmylchreest/feedclean/pkg/cleaner"
	"github.com/jmylchreest/feedclean/pkg/cleaner/dom"
)

type compiledRule struct {
	label    string
	action   Action
	selector dom.Selector
	filters  []predicate
}

// Cleaner applies a compiled RuleSet to HTML fragments. It holds no
// per-call state and is safe for concurrent use.
type Cleaner struct {
	name  string
	rules []compiledRule
}

// Compile validates rs and pre-compiles its selectors and patterns. Every
// error returned matches ErrInvalidRuleSet.
func Compile(rs *RuleSet) (*Cleaner, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}

	c := &Cleaner{
		name:  rs.Name,
		rules: make([]compiledRule, 0, len(rs.Rules)),
	}
	for i, r := range rs.Rules {
		cr, err := compileRule(i, r)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(rs *RuleSet) *Cleaner {
	c, err := Compile(rs)
	if err != nil {
		panic(err)
	}
	return c
}

func compileRule(i int, r Rule) (compiledRule, error) {
	switch r.Action {
	case ActionKeepOnly, ActionRemove, ActionRemoveAfter, ActionRemoveParentAfter:
	default:
		return compiledRule{}, &ConfigError{Rule: i, Field: "Action", Message: fmt.Sprintf("unknown action %s", r.Action)}
	}

	sel, err := dom.CompileSelector(r.Selector)
	if err != nil {
		return compiledRule{}, fmt.Errorf("%w: rule %d: %w", ErrInvalidRuleSet, i, err)
	}

	cr := compiledRule{
		label:    r.label(i),
		action:   r.Action,
		selector: sel,
	}
	if r.TextMatch != nil {
		f, err := newTextFilter(i, r.TextMatch)
		if err != nil {
			return compiledRule{}, err
		}
		cr.filters = append(cr.filters, f)
	}
	if r.AttrMatch != nil {
		f, err := newAttrFilter(i, r.AttrMatch)
		if err != nil {
			return compiledRule{}, err
		}
		cr.filters = append(cr.filters, f)
	}
	return cr, nil
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	if c.name == "" {
		return "rules"
	}
	return "rules:" + c.name
}

// Len returns the number of compiled rules.
func (c *Cleaner) Len() int {
	return len(c.rules)
}

// Clean parses html, applies every rule in order and returns the serialized
// body. A parse failure is returned as *dom.ParseError; callers that value
// completeness should keep the original fragment in that case.
func (c *Cleaner) Clean(html string) (string, error) {
	doc, err := dom.Parse(html)
	if err != nil {
		return "", err
	}
	c.apply(doc, nil)
	return doc.SerializeBody()
}

// CleanWithStats performs cleaning and returns detailed stats. On failure the
// result carries the original input and a warning.
func (c *Cleaner) CleanWithStats(html string) *cleaner.Result {
	startTime := time.Now()
	result := cleaner.NewResult()
	result.Stats.InputBytes = len(html)

	parseStart := time.Now()
	doc, err := dom.Parse(html)
	result.Stats.ParseDuration = time.Since(parseStart)
	if err != nil {
		return c.fail(result, html, "parse", err, startTime)
	}

	transformStart := time.Now()
	c.apply(doc, result.Stats)
	result.Stats.TransformDuration = time.Since(transformStart)

	outputStart := time.Now()
	output, err := doc.SerializeBody()
	result.Stats.OutputDuration = time.Since(outputStart)
	if err != nil {
		return c.fail(result, html, "output", err, startTime)
	}

	result.Content = output
	result.Stats.OutputBytes = len(output)
	result.Stats.TotalDuration = time.Since(startTime)

	logger.Debug("rules applied",
		"ruleset", c.name,
		"rules", result.Stats.RulesApplied,
		"matched", result.Stats.RulesMatched,
		"removed", result.Stats.TotalElementsRemoved(),
		"duration", result.Stats.TotalDuration)
	return result
}

func (c *Cleaner) fail(result *cleaner.Result, html, phase string, err error, start time.Time) *cleaner.Result {
	result.Content = html
	result.Error = err
	result.AddWarning(phase, "cleaning failed, returning original", err.Error())
	result.Stats.OutputBytes = len(html)
	result.Stats.TotalDuration = time.Since(start)
	return result
}

// apply runs the rules against doc. stats may be nil.
func (c *Cleaner) apply(doc *dom.Document, stats *cleaner.Stats) {
	for _, r := range c.rules {
		nodes := applyFilters(doc.Select(r.selector), r.filters)
		if stats != nil {
			stats.RulesApplied++
			if n := nodes.Len(); n > 0 {
				stats.RulesMatched++
				stats.RecordMatch(r.label, n)
				logger.Debug("rule matched", "rule", r.label, "count", n, "tags", nodes.Tags())
			}
		}
		execute(nodes, r.action, stats)
	}
}

// IsParseError reports whether err came from parsing the input fragment
// rather than from the rule set.
func IsParseError(err error) bool {
	var pe *dom.ParseError
	return errors.As(err, &pe)
}
