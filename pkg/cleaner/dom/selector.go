package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

var errEmptySelector = errors.New("empty selector")

// Selector is a CSS selector compiled once and reusable across documents.
type Selector struct {
	raw string
	m   cascadia.Selector
}

// CompileSelector parses a CSS3 selector group. Syntax errors are reported
// as *SelectorError instead of silently matching nothing.
func CompileSelector(css string) (Selector, error) {
	if strings.TrimSpace(css) == "" {
		return Selector{}, &SelectorError{Selector: css, Err: errEmptySelector}
	}
	m, err := cascadia.Compile(css)
	if err != nil {
		return Selector{}, &SelectorError{Selector: css, Err: err}
	}
	return Selector{raw: css, m: m}, nil
}

// MustCompileSelector is like CompileSelector but panics on error.
// It is meant for selectors fixed at build time.
func MustCompileSelector(css string) Selector {
	sel, err := CompileSelector(css)
	if err != nil {
		panic(err)
	}
	return sel
}

// String returns the source text of the selector.
func (s Selector) String() string {
	return s.raw
}

// ParseError reports input that could not be turned into a Document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse html: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SelectorError reports a syntactically invalid CSS selector.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error {
	return e.Err
}
