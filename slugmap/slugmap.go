// Package slugmap implements the persistent slug registry: the mapping
// from a canonical English article key to its per-language URL slug.
//
// The registry is built once by Extract (seeded from existing hreflang
// alternates, generated from translated titles for languages that lack
// one) and then loaded read-only by the generate, update-hreflang and
// update-sitemap commands. Saves are byte-stable for unchanged input.
package slugmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// RootKey is the article key of the blog index page. It maps to an
// empty slug in every language.
const RootKey = "index"

// Version is the registry file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Map is the slug registry: article key -> language -> slug.
type Map struct {
	DefaultLang string
	Articles    map[string]map[string]string
}

// New returns an empty registry.
func New(defaultLang string) *Map {
	return &Map{
		DefaultLang: defaultLang,
		Articles:    make(map[string]map[string]string),
	}
}

// Empty reports whether the registry has no articles.
func (m *Map) Empty() bool {
	return len(m.Articles) == 0
}

// Keys returns all article keys in sorted order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.Articles))
	for k := range m.Articles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the slug for an article in one language, or "".
// The root key always yields an empty slug.
func (m *Map) Lookup(key, lang string) string {
	if key == RootKey {
		return ""
	}
	return m.Articles[key][lang]
}

// Has reports whether the registry knows the given article key.
func (m *Map) Has(key string) bool {
	_, ok := m.Articles[key]
	return ok
}

// Set records the slug for an article in one language.
func (m *Map) Set(key, lang, slug string) {
	if m.Articles == nil {
		m.Articles = make(map[string]map[string]string)
	}
	entry := m.Articles[key]
	if entry == nil {
		entry = make(map[string]string)
		m.Articles[key] = entry
	}
	entry[lang] = slug
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// fileFormat is the on-disk JSON shape of the registry.
type fileFormat struct {
	Version     int                     `json:"version"`
	DefaultLang string                  `json:"defaultLang"`
	Articles    map[string]articleSlugs `json:"articles"`
}

type articleSlugs struct {
	Slugs map[string]string `json:"slugs"`
}

// Load reads a registry file. A missing file yields an empty registry.
func Load(path, defaultLang string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(defaultLang), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if ff.Version != Version {
		return nil, fmt.Errorf("%s: unsupported format version %d", path, ff.Version)
	}

	m := New(ff.DefaultLang)
	if m.DefaultLang == "" {
		m.DefaultLang = defaultLang
	}
	for key, entry := range ff.Articles {
		for lang, slug := range entry.Slugs {
			m.Set(key, lang, slug)
		}
	}
	return m, nil
}

// Save writes the registry. Output is byte-stable for unchanged input:
// encoding/json sorts map keys, so identical registries serialize
// identically.
func (m *Map) Save(path string) error {
	ff := fileFormat{
		Version:     Version,
		DefaultLang: m.DefaultLang,
		Articles:    make(map[string]articleSlugs, len(m.Articles)),
	}
	for key, slugs := range m.Articles {
		ff.Articles[key] = articleSlugs{Slugs: slugs}
	}

	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling slug map: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// Source describes one English article as seen by Extract.
type Source struct {
	// Key is the article key (RootKey for the blog index).
	Key string
	// Title is the article's H1 text, used to derive missing slugs.
	Title string
	// Alternates are slugs seeded from the article's existing
	// hreflang alternate links, keyed by language.
	Alternates map[string]string
}

// TitleTranslator translates an article title into one target language.
type TitleTranslator func(lang, title string) (string, error)

// Extract builds a registry covering every language in langs for every
// source article. Slugs already present in a source's alternate links
// are kept; languages still missing a slug get one derived from the
// translated title, with collisions resolved by numeric suffixing in
// first-seen order. Sources are processed in sorted key order so the
// result is deterministic.
func Extract(sources []Source, langs []string, defaultLang string, translate TitleTranslator) (*Map, error) {
	m := New(defaultLang)

	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	// used tracks assigned slugs per language for uniqueness.
	used := make(map[string]map[string]bool, len(langs))
	for _, lang := range langs {
		used[lang] = make(map[string]bool)
	}

	// First pass: seed from the default language and alternates.
	for _, src := range sorted {
		if src.Key == RootKey {
			for _, lang := range langs {
				m.Set(RootKey, lang, "")
			}
			continue
		}
		m.Set(src.Key, defaultLang, src.Key)
		used[defaultLang][src.Key] = true
		for lang, slug := range src.Alternates {
			if lang == defaultLang || slug == "" {
				continue
			}
			if u, ok := used[lang]; ok {
				m.Set(src.Key, lang, slug)
				u[slug] = true
			}
		}
	}

	// Second pass: derive slugs for languages still missing one.
	for _, src := range sorted {
		if src.Key == RootKey {
			continue
		}
		for _, lang := range langs {
			if m.Articles[src.Key][lang] != "" {
				continue
			}
			title := src.Title
			if title == "" {
				title = src.Key
			}
			translated, err := translate(lang, title)
			if err != nil {
				return nil, fmt.Errorf("translating title of %q to %s: %w", src.Key, lang, err)
			}
			candidate := Slugify(translated)
			if candidate == "" {
				candidate = Slugify(title)
			}
			if candidate == "" {
				candidate = src.Key
			}
			base := candidate
			for counter := 2; used[lang][candidate]; counter++ {
				candidate = fmt.Sprintf("%s-%d", base, counter)
			}
			used[lang][candidate] = true
			m.Set(src.Key, lang, candidate)
		}
	}

	return m, nil
}
