package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/jmylchreest/feedclean/pkg/feed"
)

// JSONWriter writes each feed as one JSON document.
type JSONWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONWriter creates a JSON writer. HTML in descriptions is written
// verbatim rather than as \u003c escapes.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", indent)
	}
	return &JSONWriter{w: bw, enc: enc}
}

// WriteFeed writes the feed with its items.
func (w *JSONWriter) WriteFeed(f *feed.Feed) error {
	if err := w.enc.Encode(f); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL), one item per line.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{w: bw, enc: enc}
}

// WriteFeed writes every item as a JSON line. Channel metadata is dropped.
func (w *JSONLWriter) WriteFeed(f *feed.Feed) error {
	for _, item := range f.Items {
		if err := w.enc.Encode(item); err != nil {
			return err
		}
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.w.Flush()
}
