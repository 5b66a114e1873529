// Package config holds the project configuration: corpus layout, site
// domain, the supported languages with their per-language section
// naming, and translation tuning. Settings come from an optional
// dreamer.yaml in the project root, overlaid on built-in defaults that
// match the noctalia.app corpus.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-project configuration file.
const ConfigFileName = "dreamer.yaml"

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Language describes one supported language.
type Language struct {
	// Code is the language code used in URLs ("en", "de").
	Code string `yaml:"code"`
	// Locale is the full locale tag for og:locale ("de_DE").
	Locale string `yaml:"locale"`
	// Label is the short label shown on the language dropdown button.
	Label string `yaml:"label"`
	// Name is the native display name ("Deutsch").
	Name string `yaml:"name"`
	// SymbolsDir is the localized directory name of the dream-symbol
	// section ("traumsymbole" for German).
	SymbolsDir string `yaml:"symbols_dir"`
}

// Config is the resolved project configuration.
type Config struct {
	// Domain is the canonical site origin, without trailing slash.
	Domain string `yaml:"domain"`
	// DocsDir is the published corpus directory, relative to root.
	DocsDir string `yaml:"docs_dir"`
	// DataDir is the pipeline data directory, relative to root.
	DataDir string `yaml:"data_dir"`
	// Section is the content section being localized ("blog").
	Section string `yaml:"section"`
	// DefaultLang is the source language.
	DefaultLang string `yaml:"default_lang"`
	// Languages lists every supported language, in the order used for
	// alternate links and the language dropdown.
	Languages []Language `yaml:"languages"`
	// BatchBudget is the character budget of one translation batch.
	BatchBudget int `yaml:"batch_budget"`
	// MaxAttempts caps translation attempts per request.
	MaxAttempts int `yaml:"max_attempts"`
	// RequestDelay is slept after each translation call.
	RequestDelay time.Duration `yaml:"request_delay"`

	root string
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the built-in configuration for the given project
// root.
func Default(root string) *Config {
	return &Config{
		Domain:      "https://noctalia.app",
		DocsDir:     "docs",
		DataDir:     "data",
		Section:     "blog",
		DefaultLang: "en",
		Languages: []Language{
			{Code: "en", Locale: "en_US", Label: "EN", Name: "English", SymbolsDir: "symbols"},
			{Code: "fr", Locale: "fr_FR", Label: "FR", Name: "Français", SymbolsDir: "symboles"},
			{Code: "es", Locale: "es_ES", Label: "ES", Name: "Español", SymbolsDir: "simbolos"},
			{Code: "de", Locale: "de_DE", Label: "DE", Name: "Deutsch", SymbolsDir: "traumsymbole"},
			{Code: "it", Locale: "it_IT", Label: "IT", Name: "Italiano", SymbolsDir: "simboli"},
		},
		BatchBudget:  2500,
		MaxAttempts:  3,
		RequestDelay: 100 * time.Millisecond,
		root:         root,
	}
}

// Load reads dreamer.yaml from the project root if present, overlaying
// it on the defaults. A missing file is not an error.
func Load(root string) (*Config, error) {
	cfg := Default(root)

	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.Domain = strings.TrimRight(cfg.Domain, "/")
	if cfg.BatchBudget <= 0 {
		cfg.BatchBudget = 2500
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if len(cfg.Languages) == 0 {
		return nil, fmt.Errorf("%s: no languages configured", path)
	}
	if _, ok := cfg.Language(cfg.DefaultLang); !ok {
		return nil, fmt.Errorf("%s: default language %q is not in the language list", path, cfg.DefaultLang)
	}
	cfg.root = root
	return cfg, nil
}

// ---------------------------------------------------------------------------
// Languages
// ---------------------------------------------------------------------------

// Language returns the profile for a language code.
func (c *Config) Language(code string) (Language, bool) {
	for _, l := range c.Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// LangCodes returns every supported language code in configured order.
func (c *Config) LangCodes() []string {
	codes := make([]string, len(c.Languages))
	for i, l := range c.Languages {
		codes[i] = l.Code
	}
	return codes
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// Root returns the project root directory.
func (c *Config) Root() string { return c.root }

// DocsPath joins path elements under the docs directory.
func (c *Config) DocsPath(parts ...string) string {
	all := append([]string{c.root, c.DocsDir}, parts...)
	return filepath.Join(all...)
}

// SectionDir returns the content directory for one language.
func (c *Config) SectionDir(lang string) string {
	return c.DocsPath(lang, c.Section)
}

// SlugMapPath returns the slug registry file path.
func (c *Config) SlugMapPath() string {
	return filepath.Join(c.root, c.DataDir, c.Section+"-slugs.json")
}

// SymbolSlugsPath returns the symbol cross-reference table path.
func (c *Config) SymbolSlugsPath() string {
	return c.DocsPath("data", "dream-symbols.json")
}

// UIStringsPath returns the localized UI-string table path.
func (c *Config) UIStringsPath() string {
	return c.DocsPath("data", "symbol-i18n.json")
}

// SitemapPath returns the shared sitemap path.
func (c *Config) SitemapPath() string {
	return c.DocsPath("sitemap.xml")
}

// ---------------------------------------------------------------------------
// URLs
// ---------------------------------------------------------------------------

// SectionURL returns the absolute URL of an article in one language.
// An empty slug yields the section index URL with a trailing slash.
func (c *Config) SectionURL(lang, slug string) string {
	if slug == "" {
		return fmt.Sprintf("%s/%s/%s/", c.Domain, lang, c.Section)
	}
	return fmt.Sprintf("%s/%s/%s/%s", c.Domain, lang, c.Section, slug)
}

// SlugFromURL extracts the language and slug from an absolute article
// URL on this site's domain. Both are empty when the URL points
// elsewhere.
func (c *Config) SlugFromURL(u string) (lang, slug string) {
	if !strings.HasPrefix(u, c.Domain+"/") {
		return "", ""
	}
	path := strings.TrimPrefix(u, c.Domain)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 3)
	if len(parts) < 2 || parts[1] != c.Section {
		return "", ""
	}
	if _, ok := c.Language(parts[0]); !ok {
		return "", ""
	}
	lang = parts[0]
	if len(parts) == 3 {
		slug = strings.Trim(parts[2], "/")
	}
	return lang, slug
}
