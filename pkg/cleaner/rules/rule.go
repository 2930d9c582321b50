// Package rules implements a declarative HTML cleaning engine. A RuleSet is an
// ordered list of select → narrow → act steps applied to one fragment; later
// rules see the tree as already mutated by earlier ones.
package rules

import (
	"fmt"
	"strings"
)

// Action is the structural mutation a rule performs on its matches.
type Action int

const (
	actionUnknown Action = iota
	// ActionKeepOnly removes the siblings of every match.
	ActionKeepOnly
	// ActionRemove removes every match and its subtree.
	ActionRemove
	// ActionRemoveAfter removes every match and all of its following siblings.
	ActionRemoveAfter
	// ActionRemoveParentAfter removes the parent of every match and all of the
	// parent's following siblings.
	ActionRemoveParentAfter
)

var actionNames = map[Action]string{
	ActionKeepOnly:          "keep-only",
	ActionRemove:            "remove",
	ActionRemoveAfter:       "remove-after",
	ActionRemoveParentAfter: "remove-parent-after",
}

// ParseAction converts a configuration string to an Action.
func ParseAction(s string) (Action, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for a, name := range actionNames {
		if name == key {
			return a, nil
		}
	}
	return actionUnknown, fmt.Errorf("unknown action %q", s)
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if _, ok := actionNames[a]; !ok {
		return nil, fmt.Errorf("unknown action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MatchMode selects how TextMatch compares a node's text.
type MatchMode string

const (
	MatchStartsWith MatchMode = "starts-with"
	MatchContains   MatchMode = "contains"
	MatchEquals     MatchMode = "equals"
	MatchRegex      MatchMode = "regex"
)

// TextMatch narrows a selection by the trimmed text content of each node.
type TextMatch struct {
	Mode  MatchMode `json:"mode" yaml:"mode" validate:"required,oneof=starts-with contains equals regex"`
	Value string    `json:"value" yaml:"value"`
}

// AttrMatch narrows a selection by an attribute value. A pattern starting with
// "^" is a literal prefix of the remainder; anything else is a regexp.
type AttrMatch struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Pattern string `json:"pattern" yaml:"pattern" validate:"required"`
}

// Rule is one selection + filter + action step.
type Rule struct {
	// Description is human text only.
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Selector    string     `json:"selector" yaml:"selector" validate:"required"`
	Action      Action     `json:"action" yaml:"action" validate:"required"`
	TextMatch   *TextMatch `json:"text_match,omitempty" yaml:"text_match,omitempty" validate:"omitempty"`
	AttrMatch   *AttrMatch `json:"attr_match,omitempty" yaml:"attr_match,omitempty" validate:"omitempty"`
}

// label identifies a rule in stats and errors.
func (r Rule) label(index int) string {
	if r.Description != "" {
		return fmt.Sprintf("#%d %s", index, r.Description)
	}
	return fmt.Sprintf("#%d %s %s", index, r.Action, r.Selector)
}

// RuleSet is the ordered list of rules bound to one content source.
type RuleSet struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []Rule `json:"rules" yaml:"rules" validate:"dive"`
}
