// Package feed extracts items from RSS documents and cleans their HTML
// descriptions. Parsing happens in two stages: the feed is read as strict
// XML, then each description is taken as text (which unwraps CDATA) and
// handed to the HTML cleaners.
package feed

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"
)

// Feed is a parsed RSS channel.
type Feed struct {
	Title       string `json:"title" yaml:"title"`
	Link        string `json:"link" yaml:"link"`
	Description string `json:"description" yaml:"description"`
	Items       []Item `json:"items" yaml:"items"`
}

// Item is one feed entry. Description holds HTML as text.
type Item struct {
	Title       string   `json:"title" yaml:"title"`
	Link        string   `json:"link" yaml:"link"`
	PubDate     string   `json:"pub_date,omitempty" yaml:"pub_date,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Categories  []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	GUID        string   `json:"guid,omitempty" yaml:"guid,omitempty"`
	Author      string   `json:"author,omitempty" yaml:"author,omitempty"`
	Description string   `json:"description" yaml:"description"`
}

// ParseError reports a feed that is not well-formed XML or has no root.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	errNoRoot = errors.New("document has no root element")

	declEncoding = regexp.MustCompile(`^(<\?xml[^>]*?encoding\s*=\s*["'])([^"']+)(["'])`)
)

// Parse reads an RSS 2.0 or RSS 1.0 (RDF) document in strict XML mode.
func Parse(feedXML string) (*Feed, error) {
	doc, err := xmlquery.Parse(strings.NewReader(normalize(feedXML)))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	root := firstElement(doc)
	if root == nil {
		return nil, &ParseError{Err: errNoRoot}
	}

	channel := child(root, "channel")
	if channel == nil {
		channel = root
	}

	f := &Feed{
		Title:       text(channel, "title"),
		Link:        text(channel, "link"),
		Description: text(channel, "description"),
	}

	// RSS 2.0 nests items in the channel; RDF makes them siblings of it.
	itemParent := channel
	if child(channel, "item") == nil {
		itemParent = root
	}
	for n := itemParent.FirstChild; n != nil; n = n.NextSibling {
		if isElement(n, "", "item") {
			f.Items = append(f.Items, parseItem(n))
		}
	}
	return f, nil
}

func parseItem(n *xmlquery.Node) Item {
	item := Item{
		Title:       text(n, "title"),
		Link:        text(n, "link"),
		PubDate:     coalesce(text(n, "pubDate"), prefixedText(n, "dc", "date")),
		GUID:        text(n, "guid"),
		Author:      coalesce(text(n, "author"), prefixedText(n, "dc", "creator")),
		Description: text(n, "description"),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, "", "category") {
			if v := strings.TrimSpace(c.InnerText()); v != "" {
				item.Categories = append(item.Categories, v)
			}
		}
	}
	if len(item.Categories) > 0 {
		item.Category = item.Categories[0]
	}
	if item.Link == "" && item.GUID != "" && strings.HasPrefix(item.GUID, "http") {
		item.Link = item.GUID
	}
	return item
}

// normalize drops a leading BOM and, for text that is already UTF-8,
// rewrites a declared legacy encoding so the decoder does not convert twice.
func normalize(s string) string {
	s = strings.TrimLeft(s, "\ufeff \t\r\n")
	if !utf8.ValidString(s) {
		return s
	}
	m := declEncoding.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	if strings.EqualFold(s[m[4]:m[5]], "utf-8") {
		return s
	}
	return s[:m[4]] + "UTF-8" + s[m[5]:]
}

func firstElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		switch n.Type {
		case xmlquery.ElementNode:
			return n
		case xmlquery.DeclarationNode:
			if el := firstElement(n); el != nil {
				return el
			}
		}
	}
	return nil
}

func isElement(n *xmlquery.Node, prefix, name string) bool {
	return n.Type == xmlquery.ElementNode && n.Prefix == prefix && n.Data == name
}

// child returns the first unprefixed element child called name. Matching on
// the prefix keeps atom:link from shadowing link.
func child(n *xmlquery.Node, name string) *xmlquery.Node {
	return prefixedChild(n, "", name)
}

func prefixedChild(n *xmlquery.Node, prefix, name string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, prefix, name) {
			return c
		}
	}
	return nil
}

func text(n *xmlquery.Node, name string) string {
	return prefixedText(n, "", name)
}

func prefixedText(n *xmlquery.Node, prefix, name string) string {
	c := prefixedChild(n, prefix, name)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.InnerText())
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
