package slugmap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "How Dreams Work", "how-dreams-work"},
		{"diacritics", "Révéler les rêves", "reveler-les-reves"},
		{"umlauts", "Träume über Flüsse", "traeume-ueber-fluesse"},
		{"eszett", "Weiße Nächte", "weisse-naechte"},
		{"punctuation runs", "What, exactly -- is a dream?!", "what-exactly-is-a-dream"},
		{"leading trailing", "  ...dreams...  ", "dreams"},
		{"empty", "???", ""},
	}

	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("%s: Slugify(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestLookupRootSentinel(t *testing.T) {
	m := New("en")
	m.Set(RootKey, "de", "should-be-ignored")
	if got := m.Lookup(RootKey, "de"); got != "" {
		t.Errorf("Lookup(root) = %q, want empty", got)
	}
	if got := m.Lookup("unknown", "de"); got != "" {
		t.Errorf("Lookup(unknown) = %q, want empty", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "blog-slugs.json")

	m := New("en")
	m.Set(RootKey, "de", "")
	m.Set("how-dreams-work", "en", "how-dreams-work")
	m.Set("how-dreams-work", "de", "wie-traeume-funktionieren")

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path, "en")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.Lookup("how-dreams-work", "de"); got != "wie-traeume-funktionieren" {
		t.Errorf("Lookup after round trip = %q", got)
	}
	if loaded.DefaultLang != "en" {
		t.Errorf("DefaultLang = %q", loaded.DefaultLang)
	}
}

func TestSaveByteStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slugs.json")

	m := New("en")
	m.Set("b-article", "de", "b-artikel")
	m.Set("a-article", "de", "a-artikel")
	m.Set("a-article", "it", "articolo-a")

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, _ := os.ReadFile(path)

	loaded, err := Load(path, "en")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := loaded.Save(path); err != nil {
		t.Fatalf("Save after Load: %v", err)
	}
	second, _ := os.ReadFile(path)

	if !bytes.Equal(first, second) {
		t.Errorf("save not byte-stable:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestLoadMissingFile(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent.json"), "en")
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if !m.Empty() {
		t.Error("missing file should load as empty registry")
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slugs.json")
	os.WriteFile(path, []byte(`{"version":99,"defaultLang":"en","articles":{}}`), 0644)

	if _, err := Load(path, "en"); err == nil {
		t.Error("Load accepted unknown format version")
	}
}

func TestExtractSeedsAndGenerates(t *testing.T) {
	sources := []Source{
		{Key: RootKey},
		{
			Key:        "how-dreams-work",
			Title:      "How Dreams Work",
			Alternates: map[string]string{"fr": "comment-fonctionnent-les-reves", "es": "como-funcionan-los-suenos"},
		},
	}
	langs := []string{"en", "fr", "es", "de"}

	translated := map[string]string{"de": "Wie Träume funktionieren"}
	m, err := Extract(sources, langs, "en", func(lang, title string) (string, error) {
		return translated[lang], nil
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := m.Lookup("how-dreams-work", "fr"); got != "comment-fonctionnent-les-reves" {
		t.Errorf("seeded fr slug = %q", got)
	}
	if got := m.Lookup("how-dreams-work", "en"); got != "how-dreams-work" {
		t.Errorf("default-language slug = %q", got)
	}
	if got := m.Lookup("how-dreams-work", "de"); got != "wie-traeume-funktionieren" {
		t.Errorf("generated de slug = %q", got)
	}
	for _, lang := range langs {
		if got := m.Lookup(RootKey, lang); got != "" {
			t.Errorf("root slug for %s = %q, want empty", lang, got)
		}
	}
}

func TestExtractCollisionSuffixing(t *testing.T) {
	sources := []Source{
		{Key: "dreams-a", Title: "Dreams"},
		{Key: "dreams-b", Title: "Dreams"},
		{Key: "dreams-c", Title: "Dreams"},
	}

	// Every title translates identically, forcing collisions.
	m, err := Extract(sources, []string{"en", "de"}, "en", func(lang, title string) (string, error) {
		return "Träume", nil
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got := []string{
		m.Lookup("dreams-a", "de"),
		m.Lookup("dreams-b", "de"),
		m.Lookup("dreams-c", "de"),
	}
	want := []string{"traeume", "traeume-2", "traeume-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("collision slug %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractDeterministicAcrossOrder(t *testing.T) {
	forward := []Source{{Key: "a", Title: "Same"}, {Key: "b", Title: "Same"}}
	backward := []Source{{Key: "b", Title: "Same"}, {Key: "a", Title: "Same"}}
	identity := func(lang, title string) (string, error) { return title, nil }

	m1, err := Extract(forward, []string{"en", "de"}, "en", identity)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	m2, err := Extract(backward, []string{"en", "de"}, "en", identity)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for _, key := range []string{"a", "b"} {
		if m1.Lookup(key, "de") != m2.Lookup(key, "de") {
			t.Errorf("slug for %s depends on input order: %q vs %q",
				key, m1.Lookup(key, "de"), m2.Lookup(key, "de"))
		}
	}
}
