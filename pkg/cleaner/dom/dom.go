// Package dom wraps a parsed HTML document for in-place structural cleaning.
// A Document is created for a single cleaning call and discarded once its body
// has been serialized; node handles must not outlive it.
package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is an owned, mutable HTML tree.
type Document struct {
	doc *goquery.Document
}

// Parse builds a Document from an HTML string. Fragments are wrapped in the
// usual html/head/body skeleton; SerializeBody returns only the body contents.
func Parse(src string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return &Document{doc: doc}, nil
}

// Select evaluates a compiled selector against the whole document.
// Matches are returned in document order.
func (d *Document) Select(sel Selector) NodeSet {
	if sel.m == nil {
		return NodeSet{}
	}
	return NodeSet{sel: d.doc.FindMatcher(sel.m)}
}

// SelectString compiles css and evaluates it. Prefer CompileSelector plus
// Select when the same selector is applied to many documents.
func (d *Document) SelectString(css string) (NodeSet, error) {
	sel, err := CompileSelector(css)
	if err != nil {
		return NodeSet{}, err
	}
	return d.Select(sel), nil
}

// SerializeBody renders the inner HTML of the body element. An emptied body
// yields an empty string.
func (d *Document) SerializeBody() (string, error) {
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return "", nil
	}
	return body.Html()
}

// Text returns the text content of the body.
func (d *Document) Text() string {
	return d.doc.Find("body").Text()
}

// Node is a handle to a single element within a Document.
type Node struct {
	sel *goquery.Selection
}

func (n Node) valid() bool {
	return n.sel != nil && len(n.sel.Nodes) > 0
}

// Tag returns the lower-case element name.
func (n Node) Tag() string {
	if !n.valid() {
		return ""
	}
	return goquery.NodeName(n.sel)
}

// Text returns the combined text of the node and its descendants.
func (n Node) Text() string {
	if !n.valid() {
		return ""
	}
	return n.sel.Text()
}

// InnerHTML returns the serialized children of the node. The boolean is
// false when the node is invalid or cannot be rendered.
func (n Node) InnerHTML() (string, bool) {
	if !n.valid() {
		return "", false
	}
	h, err := n.sel.Html()
	if err != nil {
		return "", false
	}
	return h, true
}

// Attr reads an attribute value.
func (n Node) Attr(name string) (string, bool) {
	if !n.valid() {
		return "", false
	}
	return n.sel.Attr(name)
}

// Children returns the element children of the node.
func (n Node) Children() NodeSet {
	if !n.valid() {
		return NodeSet{}
	}
	return NodeSet{sel: n.sel.Children()}
}

// HasChildNodes reports whether the node has any child node at all,
// including text and comments.
func (n Node) HasChildNodes() bool {
	return n.valid() && n.sel.Nodes[0].FirstChild != nil
}

// Siblings returns the element siblings of the node, excluding itself.
func (n Node) Siblings() NodeSet {
	if !n.valid() {
		return NodeSet{}
	}
	return NodeSet{sel: n.sel.Siblings()}
}

// NextAll returns the following element siblings in document order.
func (n Node) NextAll() NodeSet {
	if !n.valid() {
		return NodeSet{}
	}
	return NodeSet{sel: n.sel.NextAll()}
}

// Parent returns the parent element. Detached nodes and the document root
// have no parent.
func (n Node) Parent() (Node, bool) {
	if !n.valid() {
		return Node{}, false
	}
	p := n.sel.Parent()
	if p.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: p}, true
}

// IsRoot reports whether the node is one of the structural html, head or
// body elements that hold a fragment.
func (n Node) IsRoot() bool {
	if !n.valid() {
		return false
	}
	raw := n.sel.Nodes[0]
	if raw.Type != html.ElementNode {
		return false
	}
	switch raw.Data {
	case "html", "head", "body":
		return true
	}
	return false
}

// Remove detaches the node and its subtree. Removing a detached node is a no-op.
func (n Node) Remove() {
	if n.valid() {
		n.sel.Remove()
	}
}

// Attached reports whether the node is still reachable from the document
// root. Descendants of a removed subtree are detached even though they keep
// their own parent.
func (n Node) Attached() bool {
	if !n.valid() {
		return false
	}
	raw := n.sel.Nodes[0]
	for raw.Parent != nil {
		raw = raw.Parent
	}
	return raw.Type == html.DocumentNode
}

// NodeSet is an ordered collection of nodes produced by one selection.
type NodeSet struct {
	sel *goquery.Selection
}

// Len returns the number of nodes.
func (s NodeSet) Len() int {
	if s.sel == nil {
		return 0
	}
	return s.sel.Length()
}

// Each calls fn for every node in order.
func (s NodeSet) Each(fn func(Node)) {
	if s.sel == nil {
		return
	}
	s.sel.Each(func(_ int, item *goquery.Selection) {
		fn(Node{sel: item})
	})
}

// Nodes returns the set as a slice of handles.
func (s NodeSet) Nodes() []Node {
	out := make([]Node, 0, s.Len())
	s.Each(func(n Node) {
		out = append(out, n)
	})
	return out
}

// Filter keeps the nodes for which keep returns true.
func (s NodeSet) Filter(keep func(Node) bool) NodeSet {
	if s.sel == nil {
		return s
	}
	return NodeSet{sel: s.sel.FilterFunction(func(_ int, item *goquery.Selection) bool {
		return keep(Node{sel: item})
	})}
}

// Union returns the nodes of both sets without duplicates.
func (s NodeSet) Union(other NodeSet) NodeSet {
	switch {
	case s.sel == nil:
		return other
	case other.sel == nil:
		return s
	}
	return NodeSet{sel: s.sel.AddSelection(other.sel)}
}

// Exclude returns the nodes of s that are not in other.
func (s NodeSet) Exclude(other NodeSet) NodeSet {
	if s.sel == nil || other.sel == nil {
		return s
	}
	return NodeSet{sel: s.sel.NotSelection(other.sel)}
}

// Remove detaches every node in the set.
func (s NodeSet) Remove() {
	if s.sel != nil {
		s.sel.Remove()
	}
}

// Tags returns the element names of the set, in order.
func (s NodeSet) Tags() []string {
	tags := make([]string, 0, s.Len())
	s.Each(func(n Node) {
		tags = append(tags, n.Tag())
	})
	return tags
}
