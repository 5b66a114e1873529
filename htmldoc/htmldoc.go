// Package htmldoc wraps an HTML document tree behind a small query and
// mutation API. It is the only package in dreamer that touches the
// underlying HTML parser; everything else (translation, link rewriting,
// the per-document pipeline) manipulates documents through Document and
// Node.
//
// Serialization is stable: rendering a parsed tree twice yields identical
// bytes, which is what makes the pipeline commands idempotent.
package htmldoc

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ---------------------------------------------------------------------------
// Document
// ---------------------------------------------------------------------------

// Document is a parsed HTML document.
type Document struct {
	root *html.Node
}

// Parse parses a full HTML document.
func Parse(data []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Document{root: root}, nil
}

// Render serializes the document back to HTML.
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// Root returns the document root node.
func (d *Document) Root() Node {
	return Node{d.root}
}

// Head returns the <head> element, or a nil Node.
func (d *Document) Head() Node {
	return d.Root().Find("head")
}

// Body returns the <body> element, or a nil Node.
func (d *Document) Body() Node {
	return d.Root().Find("body")
}

// Find returns the first element with the given tag, or a nil Node.
func (d *Document) Find(tag string) Node {
	return d.Root().Find(tag)
}

// FindAll returns every element with the given tag in document order.
func (d *Document) FindAll(tag string) []Node {
	return d.Root().FindAll(tag)
}

// FindByID returns the element with the given tag (any tag if empty) and
// id attribute, or a nil Node.
func (d *Document) FindByID(tag, id string) Node {
	return d.Root().FindByAttr(tag, "id", id)
}

// FindByAttr returns the first element with the given tag (any tag if
// empty) whose attribute equals val, or a nil Node.
func (d *Document) FindByAttr(tag, attr, val string) Node {
	return d.Root().FindByAttr(tag, attr, val)
}

// FindAllByAttr returns every element with the given tag (any tag if
// empty) whose attribute equals val.
func (d *Document) FindAllByAttr(tag, attr, val string) []Node {
	return d.Root().FindAllByAttr(tag, attr, val)
}

// ---------------------------------------------------------------------------
// Node
// ---------------------------------------------------------------------------

// Node is one node of the document tree. The zero value is a nil Node.
type Node struct {
	n *html.Node
}

// IsNil reports whether the node is absent (a failed lookup).
func (n Node) IsNil() bool { return n.n == nil }

// IsElement reports whether the node is an element.
func (n Node) IsElement() bool { return n.n != nil && n.n.Type == html.ElementNode }

// IsText reports whether the node is a text node.
func (n Node) IsText() bool { return n.n != nil && n.n.Type == html.TextNode }

// IsComment reports whether the node is a comment.
func (n Node) IsComment() bool { return n.n != nil && n.n.Type == html.CommentNode }

// Tag returns the element tag name, or "" for non-elements.
func (n Node) Tag() string {
	if !n.IsElement() {
		return ""
	}
	return n.n.Data
}

// Data returns the content of a text or comment node.
func (n Node) Data() string {
	if n.n == nil {
		return ""
	}
	return n.n.Data
}

// SetData replaces the content of a text or comment node.
func (n Node) SetData(s string) {
	if n.n != nil {
		n.n.Data = s
	}
}

// Parent returns the parent node, or a nil Node.
func (n Node) Parent() Node {
	if n.n == nil {
		return Node{}
	}
	return Node{n.n.Parent}
}

// FirstChild returns the first child, or a nil Node.
func (n Node) FirstChild() Node {
	if n.n == nil {
		return Node{}
	}
	return Node{n.n.FirstChild}
}

// NextSibling returns the next sibling, or a nil Node.
func (n Node) NextSibling() Node {
	if n.n == nil {
		return Node{}
	}
	return Node{n.n.NextSibling}
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

// Attr returns the value of the named attribute, or "".
func (n Node) Attr(name string) string {
	if n.n == nil {
		return ""
	}
	for _, a := range n.n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present.
func (n Node) HasAttr(name string) bool {
	if n.n == nil {
		return false
	}
	for _, a := range n.n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// SetAttr sets the named attribute, replacing an existing value.
func (n Node) SetAttr(name, val string) {
	if n.n == nil {
		return
	}
	for i, a := range n.n.Attr {
		if a.Key == name {
			n.n.Attr[i].Val = val
			return
		}
	}
	n.n.Attr = append(n.n.Attr, html.Attribute{Key: name, Val: val})
}

// RemoveAttr deletes the named attribute if present.
func (n Node) RemoveAttr(name string) {
	if n.n == nil {
		return
	}
	for i, a := range n.n.Attr {
		if a.Key == name {
			n.n.Attr = append(n.n.Attr[:i], n.n.Attr[i+1:]...)
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

// AppendChild appends c as the last child of n. c must be detached.
func (n Node) AppendChild(c Node) {
	if n.n == nil || c.n == nil {
		return
	}
	n.n.AppendChild(c.n)
}

// InsertAfter inserts c as the next sibling of n. c must be detached.
func (n Node) InsertAfter(c Node) {
	if n.n == nil || c.n == nil || n.n.Parent == nil {
		return
	}
	n.n.Parent.InsertBefore(c.n, n.n.NextSibling)
}

// Remove detaches n from its parent.
func (n Node) Remove() {
	if n.n == nil || n.n.Parent == nil {
		return
	}
	n.n.Parent.RemoveChild(n.n)
}

// RemoveChildren detaches every child of n.
func (n Node) RemoveChildren() {
	if n.n == nil {
		return
	}
	for n.n.FirstChild != nil {
		n.n.RemoveChild(n.n.FirstChild)
	}
}

// SetTextContent replaces all children of n with a single text node.
func (n Node) SetTextContent(s string) {
	if n.n == nil {
		return
	}
	n.RemoveChildren()
	n.AppendChild(NewText(s))
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Find returns the first descendant element with the given tag.
func (n Node) Find(tag string) Node {
	var found Node
	n.walkElements(func(e Node) bool {
		if e.Tag() == tag {
			found = e
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant element with the given tag in
// document order.
func (n Node) FindAll(tag string) []Node {
	var out []Node
	n.walkElements(func(e Node) bool {
		if e.Tag() == tag {
			out = append(out, e)
		}
		return true
	})
	return out
}

// FindByAttr returns the first descendant element with the given tag
// (any tag if empty) whose attribute equals val.
func (n Node) FindByAttr(tag, attr, val string) Node {
	var found Node
	n.walkElements(func(e Node) bool {
		if (tag == "" || e.Tag() == tag) && e.Attr(attr) == val {
			found = e
			return false
		}
		return true
	})
	return found
}

// FindAllByAttr returns every descendant element with the given tag
// (any tag if empty) whose attribute equals val.
func (n Node) FindAllByAttr(tag, attr, val string) []Node {
	var out []Node
	n.walkElements(func(e Node) bool {
		if (tag == "" || e.Tag() == tag) && e.Attr(attr) == val {
			out = append(out, e)
		}
		return true
	})
	return out
}

// Elements returns every descendant element in document order,
// including n itself if it is an element.
func (n Node) Elements() []Node {
	var out []Node
	n.walkElements(func(e Node) bool {
		out = append(out, e)
		return true
	})
	return out
}

// TextNodes returns every descendant text node in document order.
func (n Node) TextNodes() []Node {
	var out []Node
	n.walk(func(c Node) bool {
		if c.IsText() {
			out = append(out, c)
		}
		return true
	})
	return out
}

// TextContent returns the concatenated text of all descendant text
// nodes.
func (n Node) TextContent() string {
	var sb strings.Builder
	n.walk(func(c Node) bool {
		if c.IsText() {
			sb.WriteString(c.Data())
		}
		return true
	})
	return sb.String()
}

// walk visits n and every descendant depth-first. Returning false from
// fn stops the walk.
func (n Node) walk(fn func(Node) bool) bool {
	if n.n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		if !(Node{c}).walk(fn) {
			return false
		}
	}
	return true
}

// walkElements visits every element depth-first. Returning false from
// fn stops the walk.
func (n Node) walkElements(fn func(Node) bool) {
	n.walk(func(c Node) bool {
		if c.IsElement() {
			return fn(c)
		}
		return true
	})
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// NewElement creates a detached element node.
func NewElement(tag string) Node {
	return Node{&html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}}
}

// NewText creates a detached text node.
func NewText(s string) Node {
	return Node{&html.Node{Type: html.TextNode, Data: s}}
}

// ParseFragment parses an HTML fragment (as it would appear inside
// <body>) and returns its top-level nodes.
func ParseFragment(s string) ([]Node, error) {
	ctx := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML fragment: %w", err)
	}
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Node{n})
	}
	return out, nil
}
