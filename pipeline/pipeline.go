// Package pipeline drives the per-document localization flow: resolve
// the target slug, parse the source, translate head and body regions
// through one per-run cache, rewrite the link graph, serialize, write.
// Documents are processed strictly sequentially; any fatal error aborts
// the whole run and no partial per-document output is ever written.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thannous/dreamer/config"
	"github.com/thannous/dreamer/htmldoc"
	"github.com/thannous/dreamer/rewrite"
	"github.com/thannous/dreamer/slugmap"
	"github.com/thannous/dreamer/translate"
	"github.com/thannous/dreamer/xref"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// MissingMappingError reports a required slug or cross-reference entry
// that is absent from the registry or tables.
type MissingMappingError struct {
	Document string
	Field    string
}

func (e *MissingMappingError) Error() string {
	return fmt.Sprintf("%s: missing mapping for %s", e.Document, e.Field)
}

// MalformedSourceError reports a source document missing an expected
// structural element.
type MalformedSourceError struct {
	Document string
	Detail   string
}

func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("%s: malformed source: %s", e.Document, e.Detail)
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// Pipeline holds the read-only state shared across one run.
type Pipeline struct {
	Config  *config.Config
	Slugs   *slugmap.Map
	Symbols xref.SymbolMap
	UI      xref.UIStrings
	// Log, when set, receives progress messages.
	Log func(format string, args ...any)
}

func (p *Pipeline) log(format string, args ...any) {
	if p.Log != nil {
		p.Log(format, args...)
	}
}

// ListArticles returns the article files of one language, sorted.
func (p *Pipeline) ListArticles(lang string) ([]string, error) {
	dir := p.Config.SectionDir(lang)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// keyForFile maps an article filename to its article key.
func keyForFile(path string) string {
	name := filepath.Base(path)
	if name == "index.html" {
		return slugmap.RootKey
	}
	return strings.TrimSuffix(name, ".html")
}

// ---------------------------------------------------------------------------
// Extraction support
// ---------------------------------------------------------------------------

// CollectSources reads every source-language article and gathers what
// the registry's Extract needs: the article key, its H1 title and the
// slugs already present in its hreflang alternate links. A non-index
// article without an H1 is malformed.
func (p *Pipeline) CollectSources() ([]slugmap.Source, error) {
	files, err := p.ListArticles(p.Config.DefaultLang)
	if err != nil {
		return nil, err
	}

	var sources []slugmap.Source
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		doc, err := htmldoc.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		src := slugmap.Source{
			Key:        keyForFile(file),
			Alternates: make(map[string]string),
		}
		for _, link := range doc.FindAllByAttr("link", "rel", "alternate") {
			lang, slug := p.Config.SlugFromURL(link.Attr("href"))
			if lang != "" && slug != "" {
				src.Alternates[lang] = slug
			}
		}
		if src.Key != slugmap.RootKey {
			h1 := doc.Find("h1")
			if h1.IsNil() {
				return nil, &MalformedSourceError{Document: file, Detail: "no title heading (h1)"}
			}
			src.Title = strings.TrimSpace(h1.TextContent())
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// ---------------------------------------------------------------------------
// generate
// ---------------------------------------------------------------------------

// Generate localizes the whole source corpus into one target language.
// One translation cache spans the run, so a source segment recurring
// across documents is translated once.
func (p *Pipeline) Generate(ctx context.Context, lang string, tr translate.Translator) error {
	if p.Slugs.Empty() {
		return &MissingMappingError{Document: p.Config.SlugMapPath(), Field: "slug registry (run extract first)"}
	}

	files, err := p.ListArticles(p.Config.DefaultLang)
	if err != nil {
		return err
	}

	cache := translate.NewCache()
	for _, file := range files {
		written, err := p.generateArticle(ctx, lang, tr, cache, file)
		if err != nil {
			return fmt.Errorf("generating %s for %s: %w", filepath.Base(file), lang, err)
		}
		if written {
			p.log("translated %s", filepath.Base(file))
		} else {
			p.log("skipped %s: no %s slug in registry", filepath.Base(file), lang)
		}
	}
	p.log("translation cache: %d entries, %d hits, %d calls", cache.Len(), cache.Hits(), cache.Misses())
	return nil
}

// generateArticle runs the full pipeline for one article. It reports
// false without error when the registry has no slug for the article in
// the target language.
func (p *Pipeline) generateArticle(ctx context.Context, lang string, tr translate.Translator, cache *translate.Cache, file string) (bool, error) {
	key := keyForFile(file)
	targetSlug := p.Slugs.Lookup(key, lang)
	if key != slugmap.RootKey && targetSlug == "" {
		return false, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return false, err
	}
	doc, err := htmldoc.Parse(data)
	if err != nil {
		return false, err
	}

	if root := doc.Find("html"); !root.IsNil() {
		root.SetAttr("lang", lang)
	}

	if err := rewrite.Head(ctx, doc, p.Config, tr, cache, p.Slugs, key, lang); err != nil {
		return false, err
	}
	for _, region := range p.bodyRegions(doc) {
		if err := translateRegion(ctx, region, tr, cache, p.Config.BatchBudget); err != nil {
			return false, err
		}
		if err := translateAttributes(ctx, region, tr, cache); err != nil {
			return false, err
		}
	}

	rewrite.Hreflang(doc, p.Config, p.Slugs, key)
	rewrite.LanguageDropdown(doc, p.Config, p.Slugs, key, lang)
	rewrite.NavLinks(doc, p.Config, p.UI, lang)
	rewrite.FooterLinks(doc, p.Config, p.UI, lang)
	rewrite.InternalLinks(doc, p.Config, p.Slugs, p.Symbols, lang)

	out, err := doc.Render()
	if err != nil {
		return false, err
	}

	name := "index.html"
	if key != slugmap.RootKey {
		name = targetSlug + ".html"
	}
	outDir := p.Config.SectionDir(lang)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return false, err
	}
	if err := os.WriteFile(filepath.Join(outDir, name), out, 0644); err != nil {
		return false, err
	}
	return true, nil
}

// bodyRegions returns the designated translatable regions of an
// article, in document order: navbar, main content, auxiliary note,
// footer.
func (p *Pipeline) bodyRegions(doc *htmldoc.Document) []htmldoc.Node {
	var regions []htmldoc.Node
	for _, n := range []htmldoc.Node{
		doc.FindByID("nav", "navbar"),
		doc.Find("article"),
		doc.FindByAttr("aside", "role", "note"),
		doc.Find("footer"),
	} {
		if !n.IsNil() {
			regions = append(regions, n)
		}
	}
	return regions
}

// ---------------------------------------------------------------------------
// update-hreflang
// ---------------------------------------------------------------------------

// UpdateHreflang refreshes the alternate-link metadata, language
// dropdown and chrome links of every already-generated document in
// every language, without retranslating anything. Re-running it with an
// unchanged registry yields byte-identical output.
func (p *Pipeline) UpdateHreflang() error {
	if p.Slugs.Empty() {
		return &MissingMappingError{Document: p.Config.SlugMapPath(), Field: "slug registry (run extract first)"}
	}

	for _, lang := range p.Config.LangCodes() {
		files, err := p.ListArticles(lang)
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := p.updateDocument(lang, file); err != nil {
				return fmt.Errorf("updating %s: %w", file, err)
			}
		}
	}
	return nil
}

func (p *Pipeline) updateDocument(lang, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	doc, err := htmldoc.Parse(data)
	if err != nil {
		return err
	}

	key := p.resolveKey(doc, file)

	rewrite.Hreflang(doc, p.Config, p.Slugs, key)
	rewrite.LanguageDropdown(doc, p.Config, p.Slugs, key, lang)
	rewrite.NavLinks(doc, p.Config, p.UI, lang)
	rewrite.FooterLinks(doc, p.Config, p.UI, lang)

	out, err := doc.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(file, out, 0644)
}

// resolveKey determines the article key of an already-generated
// document: the index is the root sentinel, localized documents carry
// the source key in their default-language alternate link, and the
// filename is the last resort.
func (p *Pipeline) resolveKey(doc *htmldoc.Document, file string) string {
	if filepath.Base(file) == "index.html" {
		return slugmap.RootKey
	}
	for _, link := range doc.FindAllByAttr("link", "rel", "alternate") {
		if link.Attr("hreflang") != p.Config.DefaultLang {
			continue
		}
		if _, key := p.Config.SlugFromURL(link.Attr("href")); key != "" {
			return key
		}
	}
	return keyForFile(file)
}
