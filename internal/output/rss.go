package output

import (
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/jmylchreest/feedclean/pkg/feed"
)

// RSSWriter writes feeds as RSS 2.0 documents with descriptions in CDATA.
type RSSWriter struct {
	w         io.Writer
	pretty    bool
	generator string
}

// NewRSSWriter creates an RSS writer.
func NewRSSWriter(w io.Writer, pretty bool, generator string) *RSSWriter {
	return &RSSWriter{w: w, pretty: pretty, generator: generator}
}

// WriteFeed writes f as a complete RSS document.
func (w *RSSWriter) WriteFeed(f *feed.Feed) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")

	channel := rss.CreateElement("channel")
	addText(channel, "title", f.Title)
	addText(channel, "link", f.Link)
	addText(channel, "description", f.Description)
	addText(channel, "generator", w.generator)

	for _, item := range f.Items {
		el := channel.CreateElement("item")
		addText(el, "title", item.Title)
		addText(el, "link", item.Link)
		addText(el, "pubDate", item.PubDate)
		for _, c := range item.Categories {
			addText(el, "category", c)
		}
		if len(item.Categories) == 0 {
			addText(el, "category", item.Category)
		}
		addText(el, "guid", item.GUID)
		addText(el, "author", item.Author)
		el.CreateElement("description").CreateCData(cdataSafe(item.Description))
	}

	if w.pretty {
		doc.Indent(2)
	}
	_, err := doc.WriteTo(w.w)
	return err
}

// Close is a no-op; each document is written in full by WriteFeed.
func (w *RSSWriter) Close() error {
	return nil
}

func addText(parent *etree.Element, tag, value string) {
	if value == "" {
		return
	}
	parent.CreateElement(tag).SetText(value)
}

// cdataSafe splits any "]]>" so the section terminator never appears early.
func cdataSafe(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
