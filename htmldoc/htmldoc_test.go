package htmldoc

import (
	"bytes"
	"strings"
	"testing"
)

const sample = `<!DOCTYPE html><html lang="en"><head><title>Hi</title>` +
	`<link rel="canonical" href="https://example.com/en/blog/hi"/></head>` +
	`<body><nav id="navbar"><a href="/en/">Home</a></nav>` +
	`<article><h1>Hello</h1><p>First <em>second</em> third</p>` +
	`<pre>  raw  </pre></article></body></html>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestRenderStable(t *testing.T) {
	doc := mustParse(t, sample)
	first, err := doc.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	again := mustParse(t, string(first))
	second, err := again.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("render not stable:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestFindQueries(t *testing.T) {
	doc := mustParse(t, sample)

	if got := doc.Find("h1").TextContent(); got != "Hello" {
		t.Errorf("Find(h1) text = %q, want %q", got, "Hello")
	}
	if got := doc.FindByID("nav", "navbar"); got.IsNil() {
		t.Error("FindByID(nav, navbar) returned nil node")
	}
	if got := doc.FindByAttr("link", "rel", "canonical").Attr("href"); !strings.HasSuffix(got, "/blog/hi") {
		t.Errorf("canonical href = %q", got)
	}
	if got := doc.Find("video"); !got.IsNil() {
		t.Error("Find(video) should be nil")
	}
	if got := len(doc.FindAll("a")); got != 1 {
		t.Errorf("FindAll(a) = %d nodes, want 1", got)
	}
}

func TestTextNodesDocumentOrder(t *testing.T) {
	doc := mustParse(t, sample)
	article := doc.Find("article")

	var texts []string
	for _, n := range article.TextNodes() {
		texts = append(texts, n.Data())
	}
	want := []string{"Hello", "First ", "second", " third", "  raw  "}
	if len(texts) != len(want) {
		t.Fatalf("TextNodes = %q, want %q", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("TextNodes[%d] = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestAttrMutation(t *testing.T) {
	doc := mustParse(t, sample)
	a := doc.Find("a")

	a.SetAttr("href", "/de/")
	if got := a.Attr("href"); got != "/de/" {
		t.Errorf("SetAttr existing: href = %q", got)
	}

	a.SetAttr("hreflang", "de")
	if !a.HasAttr("hreflang") {
		t.Error("SetAttr new attribute not present")
	}

	a.RemoveAttr("hreflang")
	if a.HasAttr("hreflang") {
		t.Error("RemoveAttr left attribute in place")
	}
}

func TestTreeMutation(t *testing.T) {
	doc := mustParse(t, sample)
	head := doc.Head()
	canonical := doc.FindByAttr("link", "rel", "canonical")

	link := NewElement("link")
	link.SetAttr("rel", "alternate")
	canonical.InsertAfter(link)
	if got := canonical.NextSibling(); got.Tag() != "link" || got.Attr("rel") != "alternate" {
		t.Error("InsertAfter did not place node after canonical")
	}

	link.Remove()
	if got := head.FindByAttr("link", "rel", "alternate"); !got.IsNil() {
		t.Error("Remove left node attached")
	}

	p := doc.Find("p")
	p.SetTextContent("replaced")
	if got := p.TextContent(); got != "replaced" {
		t.Errorf("SetTextContent: text = %q", got)
	}
	if got := p.Find("em"); !got.IsNil() {
		t.Error("SetTextContent kept old children")
	}
}

func TestParseFragment(t *testing.T) {
	nodes, err := ParseFragment(`<span data-i="0">eins</span><span data-i="1">zwei</span>`)
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("ParseFragment returned %d nodes, want 2", len(nodes))
	}
	if got := nodes[1].FindByAttr("span", "data-i", "1").TextContent(); got != "zwei" {
		t.Errorf("fragment span text = %q, want %q", got, "zwei")
	}
}
