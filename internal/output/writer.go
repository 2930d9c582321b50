// Package output serializes cleaned feeds.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/feedclean/pkg/feed"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatRSS   Format = "rss"
)

// Formats lists the supported formats in help order.
var Formats = []Format{FormatJSON, FormatJSONL, FormatYAML, FormatRSS}

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Writer serializes feeds.
type Writer interface {
	// WriteFeed outputs one feed.
	WriteFeed(f *feed.Feed) error

	// Close flushes buffered output.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty    bool
	indent    string
	generator string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// WithGenerator sets the RSS <generator> value.
func WithGenerator(name string) WriterOption {
	return func(c *writerConfig) {
		c.generator = name
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatRSS:
		return NewRSSWriter(w, cfg.pretty, cfg.generator), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
