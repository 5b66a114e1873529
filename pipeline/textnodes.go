package pipeline

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	"github.com/thannous/dreamer/htmldoc"
	"github.com/thannous/dreamer/translate"
)

// excludedParents are elements whose text is never translated.
var excludedParents = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"noscript": true,
}

// translatedAttrs are the attributes carrying visible text.
var translatedAttrs = []string{"alt", "aria-label", "title"}

// pendingLeaf is one text leaf waiting in the current batch.
type pendingLeaf struct {
	index int
	node  htmldoc.Node
	lead  string
	core  string
	trail string
}

// marker wraps a batch entry in an inert, uniquely indexed span so the
// translated segments stay separable in the combined response.
func marker(index int, core string) string {
	return fmt.Sprintf(`<span data-i="%d">%s</span>`, index, html.EscapeString(core))
}

// translateRegion translates every text leaf under region, in document
// order. Leaves inside excluded elements and whitespace-only leaves are
// skipped; each remaining leaf is split into leading whitespace, core
// and trailing whitespace, and only the core is translated. Cache hits
// are substituted without an external call; misses are collected into
// marker-wrapped batches of at most budget characters, sent as one
// request each, and reassembled into their original positions with the
// original whitespace reattached.
func translateRegion(ctx context.Context, region htmldoc.Node, tr translate.Translator, cache *translate.Cache, budget int) error {
	var pending []pendingLeaf
	batchLen := 0
	idx := 0

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		var sb strings.Builder
		for _, p := range pending {
			sb.WriteString(marker(p.index, p.core))
		}
		translated, err := translate.Text(ctx, tr, cache, sb.String())
		if err != nil {
			return err
		}
		fragments, err := htmldoc.ParseFragment(translated)
		if err != nil {
			return fmt.Errorf("parsing translated batch: %w", err)
		}
		for _, p := range pending {
			// A marker the service lost falls back to the source text.
			core := p.core
			for _, frag := range fragments {
				if span := frag.FindByAttr("span", "data-i", strconv.Itoa(p.index)); !span.IsNil() {
					core = span.TextContent()
					break
				}
			}
			cache.Put(p.core, core)
			p.node.SetData(p.lead + core + p.trail)
		}
		pending = pending[:0]
		batchLen = 0
		idx = 0
		return nil
	}

	for _, leaf := range region.TextNodes() {
		text := leaf.Data()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if excludedParents[leaf.Parent().Tag()] {
			continue
		}

		lead, core, trail := splitWhitespace(text)
		if core == "" {
			continue
		}

		if translated, ok := cache.Get(core); ok {
			leaf.SetData(lead + translated + trail)
			continue
		}

		wrapped := marker(idx, core)
		if len(pending) > 0 && batchLen+len(wrapped) > budget {
			if err := flush(); err != nil {
				return err
			}
			wrapped = marker(idx, core)
		}
		pending = append(pending, pendingLeaf{index: idx, node: leaf, lead: lead, core: core, trail: trail})
		batchLen += len(wrapped)
		idx++
	}

	return flush()
}

// translateAttributes translates visible-text attributes on every
// element under region, one value at a time through the cache.
func translateAttributes(ctx context.Context, region htmldoc.Node, tr translate.Translator, cache *translate.Cache) error {
	for _, el := range region.Elements() {
		for _, attr := range translatedAttrs {
			value := el.Attr(attr)
			if value == "" {
				continue
			}
			translated, err := translate.Text(ctx, tr, cache, value)
			if err != nil {
				return fmt.Errorf("translating %s attribute: %w", attr, err)
			}
			el.SetAttr(attr, translated)
		}
	}
	return nil
}

// splitWhitespace splits text into leading whitespace, core and
// trailing whitespace.
func splitWhitespace(s string) (lead, core, trail string) {
	trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(trimmed)]
	core = strings.TrimRightFunc(trimmed, unicode.IsSpace)
	trail = trimmed[len(core):]
	return lead, core, trail
}
