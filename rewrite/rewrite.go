// Package rewrite mutates a parsed article so its whole link graph and
// metadata point at the target language: the hreflang alternate set,
// the language dropdown, navbar and footer chrome, intra-site links,
// and the head metadata including JSON-LD payloads.
//
// All lookups go through the slug registry and the external
// cross-reference tables; nothing here calls the translation service
// directly except through the caller-supplied Translator and Cache.
package rewrite

import (
	"strings"

	"github.com/thannous/dreamer/config"
	"github.com/thannous/dreamer/htmldoc"
	"github.com/thannous/dreamer/slugmap"
	"github.com/thannous/dreamer/xref"
)

// Class strings for regenerated dropdown entries. They must match the
// site stylesheet exactly.
const (
	dropdownItemClass = "dropdown-item flex items-center justify-between px-4 py-2 text-sm " +
		"text-purple-100/80 hover:bg-white/10 hover:text-white transition-colors"
	checkIconClass = "w-4 h-4 text-dream-salmon"
)

// ---------------------------------------------------------------------------
// hreflang alternates
// ---------------------------------------------------------------------------

// Hreflang regenerates the alternate-language link set in the head:
// exactly one entry per supported language plus one x-default entry
// pointing at the default language's version of the same article.
func Hreflang(doc *htmldoc.Document, cfg *config.Config, slugs *slugmap.Map, key string) {
	head := doc.Head()
	if head.IsNil() {
		return
	}

	for _, link := range head.FindAllByAttr("link", "rel", "alternate") {
		link.Remove()
	}

	// New entries go right after the prev/next/canonical cluster when
	// one exists, otherwise at the end of the head.
	anchor := head.FindByAttr("link", "rel", "next")
	if anchor.IsNil() {
		anchor = head.FindByAttr("link", "rel", "prev")
	}
	if anchor.IsNil() {
		anchor = head.FindByAttr("link", "rel", "canonical")
	}

	langs := append(cfg.LangCodes(), "x-default")
	for _, lang := range langs {
		var href string
		if lang == "x-default" {
			href = cfg.SectionURL(cfg.DefaultLang, slugs.Lookup(key, cfg.DefaultLang))
		} else {
			href = cfg.SectionURL(lang, slugs.Lookup(key, lang))
		}
		tag := htmldoc.NewElement("link")
		tag.SetAttr("rel", "alternate")
		tag.SetAttr("hreflang", lang)
		tag.SetAttr("href", href)
		if anchor.IsNil() {
			head.AppendChild(tag)
		} else {
			anchor.InsertAfter(tag)
		}
		anchor = tag
	}
}

// ---------------------------------------------------------------------------
// Language dropdown
// ---------------------------------------------------------------------------

// LanguageDropdown rebuilds the language-selector fragment: the button
// label shows the current language, the menu holds exactly one entry
// per supported language with the active one marked by a visible check
// icon.
func LanguageDropdown(doc *htmldoc.Document, cfg *config.Config, slugs *slugmap.Map, key, currentLang string) {
	if button := doc.FindByID("button", "languageDropdownButton"); !button.IsNil() {
		if span := button.Find("span"); !span.IsNil() {
			if prof, ok := cfg.Language(currentLang); ok {
				span.SetTextContent(prof.Label)
			}
		}
	}

	menu := doc.FindByID("div", "languageDropdownMenu")
	if menu.IsNil() {
		return
	}
	menu.RemoveChildren()

	for _, prof := range cfg.Languages {
		slug := slugs.Lookup(key, prof.Code)
		href := "../../" + prof.Code + "/" + cfg.Section + "/"
		if slug != "" {
			href += slug
		}

		item := htmldoc.NewElement("a")
		item.SetAttr("href", href)
		item.SetAttr("hreflang", prof.Code)
		item.SetAttr("class", dropdownItemClass)
		item.SetAttr("role", "menuitem")

		label := htmldoc.NewElement("span")
		label.SetTextContent(prof.Name)
		item.AppendChild(label)

		icon := htmldoc.NewElement("i")
		icon.SetAttr("data-lucide", "check")
		if prof.Code == currentLang {
			icon.SetAttr("class", checkIconClass)
		} else {
			icon.SetAttr("class", checkIconClass+" hidden")
		}
		item.AppendChild(icon)

		menu.AppendChild(item)
	}
}

// ---------------------------------------------------------------------------
// Navbar chrome
// ---------------------------------------------------------------------------

// anchorSuffixes maps a UI-string field pair (anchor name, label) to
// the known per-language anchor spellings a nav link may carry.
var navAnchors = []struct {
	suffixes    []string
	anchorField string
	labelField  string
}{
	{[]string{"#how-it-works", "#comment-ca-marche", "#como-funciona"}, "nav_how_it_works_anchor", "nav_how_it_works"},
	{[]string{"#features", "#fonctionnalites", "#caracteristicas"}, "nav_features_anchor", "nav_features"},
}

// NavLinks localizes the navbar: the brand link points at the language
// root, section anchors get their localized anchor names and labels,
// and the resources link points at the localized section index.
func NavLinks(doc *htmldoc.Document, cfg *config.Config, ui xref.UIStrings, lang string) {
	nav := doc.FindByID("nav", "navbar")
	if nav.IsNil() {
		return
	}

	brandDone := false
	for _, link := range nav.FindAll("a") {
		href := link.Attr("href")
		if !brandDone && strings.HasPrefix(href, "/"+cfg.DefaultLang+"/") &&
			!strings.Contains(href, "#") && !strings.Contains(href, "/"+cfg.Section+"/") {
			// Brand link to the language root.
			link.SetAttr("href", "/"+lang+"/")
			brandDone = true
			continue
		}
		if link.HasAttr("hreflang") {
			continue
		}
		if localizeNavAnchor(link, href, ui, lang) {
			continue
		}
		if strings.Contains(href, "/"+cfg.Section+"/") {
			link.SetAttr("href", "/"+lang+"/"+cfg.Section+"/")
			if label := ui.Get(lang, "nav_resources"); label != "" {
				link.SetTextContent(label)
			}
		}
	}
}

func localizeNavAnchor(link htmldoc.Node, href string, ui xref.UIStrings, lang string) bool {
	for _, na := range navAnchors {
		for _, suffix := range na.suffixes {
			if !strings.HasSuffix(href, suffix) {
				continue
			}
			if anchor := ui.Get(lang, na.anchorField); anchor != "" {
				link.SetAttr("href", "/"+lang+"/#"+anchor)
			}
			if label := ui.Get(lang, na.labelField); label != "" {
				link.SetTextContent(label)
			}
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Footer chrome
// ---------------------------------------------------------------------------

// footerSlugs maps known legal-page link suffixes to the UI-string
// field naming the localized slug.
var footerSlugs = []struct {
	suffixes []string
	field    string
	langRoot bool // link from the language root rather than relative
}{
	{[]string{"legal-notice", "mentions-legales", "aviso-legal"}, "legal_slug", false},
	{[]string{"privacy-policy", "politique-confidentialite", "politica-privacidad"}, "privacy_slug", false},
	{[]string{"terms", "cgu", "terminos"}, "terms_slug", false},
	{[]string{"/about", "/a-propos", "/sobre"}, "about_slug", true},
}

// FooterLinks localizes the footer: the resources link points at the
// localized section index and the legal links at their localized slugs.
func FooterLinks(doc *htmldoc.Document, cfg *config.Config, ui xref.UIStrings, lang string) {
	footer := doc.Find("footer")
	if footer.IsNil() {
		return
	}

	for _, link := range footer.FindAll("a") {
		href := link.Attr("href")
		if strings.HasSuffix(href, "/"+cfg.Section+"/") || strings.HasSuffix(href, "/"+cfg.Section) {
			link.SetAttr("href", "/"+lang+"/"+cfg.Section+"/")
			href = link.Attr("href")
		}
		for _, fs := range footerSlugs {
			for _, suffix := range fs.suffixes {
				if !strings.HasSuffix(href, suffix) {
					continue
				}
				slug := ui.Get(lang, fs.field)
				if slug == "" {
					continue
				}
				if fs.langRoot {
					link.SetAttr("href", "/"+lang+"/"+slug)
				} else {
					link.SetAttr("href", "../"+slug)
				}
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Intra-site links
// ---------------------------------------------------------------------------

// InternalLinks rewrites every intra-site link in the document:
// default-language path prefixes become target-language prefixes,
// symbol-section references go through the cross-reference table, and
// bare relative article links resolve through the slug registry.
func InternalLinks(doc *htmldoc.Document, cfg *config.Config, slugs *slugmap.Map, symbols xref.SymbolMap, lang string) {
	prof, ok := cfg.Language(lang)
	if !ok {
		return
	}
	srcPrefix := "/" + cfg.DefaultLang + "/"
	srcSection := "/" + cfg.DefaultLang + "/" + cfg.Section + "/"
	symbolsPrefix := "../symbols/"

	for _, a := range doc.FindAll("a") {
		href := a.Attr("href")
		if href == "" ||
			strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "#") {
			continue
		}

		if strings.HasPrefix(href, srcSection) {
			href = "/" + lang + "/" + cfg.Section + "/" + strings.TrimPrefix(href, srcSection)
		} else if strings.HasPrefix(href, srcPrefix) {
			href = "/" + lang + "/" + strings.TrimPrefix(href, srcPrefix)
		}

		if strings.HasPrefix(href, symbolsPrefix) {
			enSymbol := strings.TrimPrefix(href, symbolsPrefix)
			href = "../" + prof.SymbolsDir + "/" + symbols.Lookup(enSymbol, lang)
		}

		// Bare relative article slugs resolve through the registry.
		if !strings.HasPrefix(href, "/") && !strings.Contains(href, "/") &&
			href != "." && href != ".." {
			if target := slugs.Lookup(href, lang); target != "" {
				href = target
			}
		}

		a.SetAttr("href", href)
	}
}
