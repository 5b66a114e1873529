// Package xref loads the external read-only cross-reference tables the
// rewriter depends on: the dream-symbol slug map (which localized slug
// a symbol page uses in each language) and the localized UI-string
// table for static chrome (nav anchors and labels, footer legal-page
// slugs). Both files are shared with the site's front end; their
// formats are fixed.
package xref

import (
	"encoding/json"
	"fmt"
	"os"
)

// ---------------------------------------------------------------------------
// Symbol cross-reference table
// ---------------------------------------------------------------------------

// SymbolMap maps an English symbol slug to its localized slug per
// language.
type SymbolMap map[string]map[string]string

// symbolsFile is the on-disk shape of dream-symbols.json.
type symbolsFile struct {
	Symbols []map[string]struct {
		Slug string `json:"slug"`
	} `json:"symbols"`
}

// LoadSymbols reads the symbol table. A missing file yields an empty
// map: corpora without a symbol section are valid.
func LoadSymbols(path string) (SymbolMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return SymbolMap{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var sf symbolsFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	m := make(SymbolMap, len(sf.Symbols))
	for _, sym := range sf.Symbols {
		en, ok := sym["en"]
		if !ok || en.Slug == "" {
			continue
		}
		entry := make(map[string]string, len(sym))
		for lang, s := range sym {
			if lang == "en" || s.Slug == "" {
				continue
			}
			entry[lang] = s.Slug
		}
		m[en.Slug] = entry
	}
	return m, nil
}

// Lookup returns the localized slug for an English symbol slug, falling
// back to the English slug when no localized one is recorded.
func (m SymbolMap) Lookup(enSlug, lang string) string {
	if slug := m[enSlug][lang]; slug != "" {
		return slug
	}
	return enSlug
}

// ---------------------------------------------------------------------------
// Localized UI strings
// ---------------------------------------------------------------------------

// UIStrings maps language code to named chrome strings (nav labels,
// anchor names, legal-page slugs).
type UIStrings map[string]map[string]string

// LoadUIStrings reads the UI-string table. A missing file yields an
// empty table; lookups then return "".
func LoadUIStrings(path string) (UIStrings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return UIStrings{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var u UIStrings
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return u, nil
}

// Get returns one named string for a language, or "".
func (u UIStrings) Get(lang, field string) string {
	return u[lang][field]
}
