package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/feedclean/pkg/feed"
)

// YAMLWriter writes feeds as YAML documents.
type YAMLWriter struct {
	w   *bufio.Writer
	enc *yaml.Encoder
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	bw := bufio.NewWriter(w)
	enc := yaml.NewEncoder(bw)
	enc.SetIndent(2)
	return &YAMLWriter{w: bw, enc: enc}
}

// WriteFeed writes the feed as one YAML document. Successive feeds are
// separated by document markers.
func (w *YAMLWriter) WriteFeed(f *feed.Feed) error {
	if err := w.enc.Encode(f); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close finishes the YAML stream and flushes.
func (w *YAMLWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
