package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thannous/dreamer/config"
	"github.com/thannous/dreamer/htmldoc"
	"github.com/thannous/dreamer/slugmap"
	"github.com/thannous/dreamer/translate"
)

// ValidationError reports a structured-data payload that could not be
// re-serialized after substitution.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("structured data %s failed to re-serialize: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Head metadata
// ---------------------------------------------------------------------------

// Head translates and localizes the document head: title, description
// and social metadata, og:locale, canonical and og:url, prev/next
// pagination links, and every JSON-LD payload.
func Head(ctx context.Context, doc *htmldoc.Document, cfg *config.Config, tr translate.Translator, cache *translate.Cache, slugs *slugmap.Map, key, lang string) error {
	t := func(s string) (string, error) {
		return translate.Text(ctx, tr, cache, s)
	}

	if title := doc.Find("title"); !title.IsNil() {
		if text := title.TextContent(); strings.TrimSpace(text) != "" {
			translated, err := t(text)
			if err != nil {
				return fmt.Errorf("translating title: %w", err)
			}
			title.SetTextContent(translated)
		}
	}

	prof, _ := cfg.Language(lang)
	for _, meta := range doc.FindAll("meta") {
		name := meta.Attr("name")
		prop := meta.Attr("property")
		content := meta.Attr("content")
		if content == "" {
			continue
		}
		switch {
		case name == "description" || name == "twitter:description" || prop == "og:description",
			name == "twitter:title" || prop == "og:title",
			name == "twitter:image:alt" || prop == "og:image:alt":
			translated, err := t(content)
			if err != nil {
				return fmt.Errorf("translating meta %s%s: %w", name, prop, err)
			}
			meta.SetAttr("content", translated)
		case prop == "og:locale":
			meta.SetAttr("content", prof.Locale)
		}
	}

	localURL := cfg.SectionURL(lang, slugs.Lookup(key, lang))
	if canonical := doc.FindByAttr("link", "rel", "canonical"); !canonical.IsNil() {
		canonical.SetAttr("href", localURL)
	}
	if ogURL := doc.FindByAttr("meta", "property", "og:url"); !ogURL.IsNil() {
		ogURL.SetAttr("content", localURL)
	}

	// Pagination links point at the localized version of the adjacent
	// article, falling back to the source slug when none is known.
	for _, rel := range []string{"prev", "next"} {
		link := doc.FindByAttr("link", "rel", rel)
		if link.IsNil() {
			continue
		}
		_, targetKey := cfg.SlugFromURL(link.Attr("href"))
		if targetKey == "" {
			continue
		}
		targetSlug := slugs.Lookup(targetKey, lang)
		if targetSlug == "" {
			targetSlug = targetKey
		}
		link.SetAttr("href", cfg.SectionURL(lang, targetSlug))
	}

	return updateStructuredData(doc, cfg, t, slugs, key, lang)
}

// ---------------------------------------------------------------------------
// JSON-LD
// ---------------------------------------------------------------------------

// updateStructuredData rewrites every JSON-LD script by locale-specific
// field substitution. Scripts whose content is not a JSON object are
// left untouched; a payload that cannot be re-serialized is fatal.
func updateStructuredData(doc *htmldoc.Document, cfg *config.Config, t func(string) (string, error), slugs *slugmap.Map, key, lang string) error {
	for _, script := range doc.FindAllByAttr("script", "type", "application/ld+json") {
		raw := script.TextContent()
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		var data map[string]any
		if err := dec.Decode(&data); err != nil {
			continue
		}

		if err := substituteFields(data, cfg, t, slugs, key, lang); err != nil {
			return err
		}

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", strings.Repeat(" ", 8))
		if err := enc.Encode(data); err != nil {
			return &ValidationError{Field: fmt.Sprintf("%v", data["@type"]), Err: err}
		}
		script.SetTextContent(strings.TrimRight(buf.String(), "\n"))
	}
	return nil
}

func substituteFields(data map[string]any, cfg *config.Config, t func(string) (string, error), slugs *slugmap.Map, key, lang string) error {
	localURL := cfg.SectionURL(lang, slugs.Lookup(key, lang))

	switch data["@type"] {
	case "BlogPosting":
		if err := translateField(data, "headline", t); err != nil {
			return err
		}
		if err := translateField(data, "description", t); err != nil {
			return err
		}
		data["inLanguage"] = lang
		if _, ok := data["url"]; ok {
			data["url"] = localURL
		}
		if entity, ok := data["mainEntityOfPage"].(map[string]any); ok {
			entity["@id"] = localURL
		}

	case "FAQPage":
		entities, _ := data["mainEntity"].([]any)
		for _, e := range entities {
			entity, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if err := translateField(entity, "name", t); err != nil {
				return err
			}
			if answer, ok := entity["acceptedAnswer"].(map[string]any); ok {
				if err := translateField(answer, "text", t); err != nil {
					return err
				}
			}
		}

	case "Blog":
		if err := translateField(data, "name", t); err != nil {
			return err
		}
		if err := translateField(data, "description", t); err != nil {
			return err
		}
		data["inLanguage"] = lang
		data["url"] = cfg.SectionURL(lang, "")

	case "ItemList":
		items, _ := data["itemListElement"].([]any)
		for _, it := range items {
			item, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if err := translateField(item, "name", t); err != nil {
				return err
			}
			if u, ok := item["url"].(string); ok {
				if _, itemKey := cfg.SlugFromURL(u); itemKey != "" {
					slug := slugs.Lookup(itemKey, lang)
					if slug == "" {
						slug = itemKey
					}
					item["url"] = cfg.SectionURL(lang, slug)
				}
			}
		}
	}
	return nil
}

func translateField(m map[string]any, field string, t func(string) (string, error)) error {
	value, ok := m[field].(string)
	if !ok || value == "" {
		return nil
	}
	translated, err := t(value)
	if err != nil {
		return fmt.Errorf("translating %s: %w", field, err)
	}
	m[field] = translated
	return nil
}
