// Package sitemap keeps the shared sitemap.xml in sync with the slug
// registry and the symbol cross-reference table. The sitemap is treated
// as a flat text artifact: managed <url> blocks are removed and
// regenerated in place, every byte outside them passes through
// untouched.
package sitemap

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/thannous/dreamer/config"
	"github.com/thannous/dreamer/slugmap"
	"github.com/thannous/dreamer/xref"
)

// ---------------------------------------------------------------------------
// Blog section sync
// ---------------------------------------------------------------------------

// Sync regenerates the managed article blocks from the registry: every
// block whose <loc> is a default-language article URL is removed and
// the full set is rebuilt in sorted key order with per-language
// alternates, an x-default entry and the shared lastmod date.
// Unmanaged blocks are not touched.
func Sync(cfg *config.Config, slugs *slugmap.Map, lastmod string) error {
	path := cfg.SitemapPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	xml := string(data)

	managed := cfg.Domain + "/" + cfg.DefaultLang + "/" + cfg.Section + "/"
	blockRE := regexp.MustCompile(`(?s)[ \t]*<url>\s*<loc>` + regexp.QuoteMeta(managed) + `.*?</url>\s*`)
	xml = blockRE.ReplaceAllString(xml, "")

	var blocks []string
	for _, key := range slugs.Keys() {
		blocks = append(blocks, articleBlock(cfg, slugs, key, lastmod))
	}

	insertAt := strings.LastIndex(xml, "</urlset>")
	if insertAt == -1 {
		return fmt.Errorf("%s: no </urlset> element", path)
	}

	updated := xml[:insertAt] + strings.Join(blocks, "\n") + "\n" + xml[insertAt:]
	return os.WriteFile(path, []byte(updated), 0644)
}

func articleBlock(cfg *config.Config, slugs *slugmap.Map, key, lastmod string) string {
	main := cfg.SectionURL(cfg.DefaultLang, slugs.Lookup(key, cfg.DefaultLang))

	lines := []string{
		"  <url>",
		fmt.Sprintf("    <loc>%s</loc>", main),
	}
	if lastmod != "" {
		lines = append(lines, fmt.Sprintf("    <lastmod>%s</lastmod>", lastmod))
	}
	for _, lang := range cfg.LangCodes() {
		href := cfg.SectionURL(lang, slugs.Lookup(key, lang))
		lines = append(lines, alternateLine(lang, href))
	}
	lines = append(lines, alternateLine("x-default", main), "  </url>")
	return strings.Join(lines, "\n")
}

func alternateLine(hreflang, href string) string {
	return fmt.Sprintf(`    <xhtml:link rel="alternate" hreflang="%s" href="%s" />`, hreflang, href)
}

// ---------------------------------------------------------------------------
// Symbol additions
// ---------------------------------------------------------------------------

// AddSymbols appends url blocks for the given symbol pages in every
// language the cross-reference table and language profiles cover. URLs
// already present keep their existing block; all newly added blocks
// share one lastmod date. Returns how many blocks were added and how
// many were skipped as already present.
func AddSymbols(cfg *config.Config, symbols xref.SymbolMap, ids []string, lastmod string) (added, skipped int, err error) {
	path := cfg.SitemapPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	xml := string(data)

	insertAt := strings.LastIndex(xml, "</urlset>")
	if insertAt == -1 {
		return 0, 0, fmt.Errorf("%s: no </urlset> element", path)
	}

	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	var blocks []string
	for _, id := range sorted {
		langs, alternates := symbolAlternates(cfg, symbols, id)
		for _, lang := range langs {
			loc := alternates[lang]
			if strings.Contains(xml, "<loc>"+loc+"</loc>") {
				skipped++
				continue
			}
			blocks = append(blocks, symbolBlock(cfg, loc, lastmod, langs, alternates))
			added++
		}
	}

	if added == 0 {
		return 0, skipped, nil
	}

	updated := xml[:insertAt] + strings.Join(blocks, "") + xml[insertAt:]
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return 0, 0, err
	}
	return added, skipped, nil
}

// symbolAlternates returns the languages a symbol page exists in and
// its absolute URL per language. English always exists; other
// languages require both a profile and a cross-reference entry.
func symbolAlternates(cfg *config.Config, symbols xref.SymbolMap, id string) ([]string, map[string]string) {
	var langs []string
	alternates := make(map[string]string)
	for _, prof := range cfg.Languages {
		slug := id
		if prof.Code != cfg.DefaultLang {
			localized, ok := symbols[id][prof.Code]
			if !ok {
				continue
			}
			slug = localized
		}
		langs = append(langs, prof.Code)
		alternates[prof.Code] = fmt.Sprintf("%s/%s/%s/%s", cfg.Domain, prof.Code, prof.SymbolsDir, slug)
	}
	return langs, alternates
}

func symbolBlock(cfg *config.Config, loc, lastmod string, langs []string, alternates map[string]string) string {
	lines := []string{
		"  <url>",
		fmt.Sprintf("    <loc>%s</loc>", loc),
		fmt.Sprintf("    <lastmod>%s</lastmod>", lastmod),
		"    <priority>0.6</priority>",
	}
	for _, lang := range langs {
		lines = append(lines, alternateLine(lang, alternates[lang]))
	}
	lines = append(lines, alternateLine("x-default", alternates[cfg.DefaultLang]), "  </url>")
	return strings.Join(lines, "\n") + "\n"
}
