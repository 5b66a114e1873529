// dreamer — HTML corpus localizer: generates translated language
// variants of the blog corpus, keeps the cross-language link graph and
// the persistent slug registry consistent, and syncs the shared
// sitemap.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/thannous/dreamer/config"
	"github.com/thannous/dreamer/i18n"
	"github.com/thannous/dreamer/pipeline"
	"github.com/thannous/dreamer/sitemap"
	"github.com/thannous/dreamer/slugmap"
	"github.com/thannous/dreamer/translate"
	"github.com/thannous/dreamer/xref"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dreamer",
		Short: "Localize the blog corpus and keep its link graph consistent",
		Long: `dreamer — HTML corpus localizer.

Translates the English blog corpus into the configured target languages,
preserving markup structure, rewriting internal links and navigation to
their localized equivalents, and keeping the persistent slug registry
consistent across languages.

Commands:
  extract          Build and persist the slug registry
  generate         Produce localized documents for one language
  update-hreflang  Refresh alternate-link metadata without retranslating
  update-sitemap   Resync the shared sitemap from the slug registry
  add-symbols      Append symbol page URLs to the sitemap
  status           Show corpus and registry statistics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newExtractCmd(),
		newGenerateCmd(),
		newUpdateHreflangCmd(),
		newUpdateSitemapCmd(),
		newAddSymbolsCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Shared wiring
// ---------------------------------------------------------------------------

// newPipeline loads the configuration, the slug registry and the
// cross-reference tables for one command invocation.
func newPipeline() (*pipeline.Pipeline, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	slugs, err := slugmap.Load(cfg.SlugMapPath(), cfg.DefaultLang)
	if err != nil {
		return nil, err
	}
	symbols, err := xref.LoadSymbols(cfg.SymbolSlugsPath())
	if err != nil {
		return nil, err
	}
	ui, err := xref.LoadUIStrings(cfg.UIStringsPath())
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Config:  cfg,
		Slugs:   slugs,
		Symbols: symbols,
		UI:      ui,
		Log:     logInfo,
	}, nil
}

// newTranslator builds the retrying translation capability for one
// target language.
func newTranslator(cfg *config.Config, target string) translate.Translator {
	provider := translate.NewGoogleWeb(cfg.DefaultLang, target)
	provider.Delay = cfg.RequestDelay
	return &translate.Retrying{
		Translator:  provider,
		MaxAttempts: cfg.MaxAttempts,
	}
}

// ---------------------------------------------------------------------------
// extract (build and persist the slug registry)
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Build and persist the slug registry",
		Long: `Scan every source-language article, seed per-language slugs from its
existing hreflang alternate links, translate titles to derive slugs for
languages that lack one, and persist the registry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context())
		},
	}
}

func runExtract(ctx context.Context) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	sources, err := p.CollectSources()
	if err != nil {
		return err
	}
	logInfo("collected %d source articles", len(sources))

	translators := make(map[string]translate.Translator)
	titleTranslator := func(lang, title string) (string, error) {
		tr, ok := translators[lang]
		if !ok {
			tr = newTranslator(p.Config, lang)
			translators[lang] = tr
		}
		return tr.Translate(ctx, title)
	}

	slugs, err := slugmap.Extract(sources, p.Config.LangCodes(), p.Config.DefaultLang, titleTranslator)
	if err != nil {
		return err
	}
	if err := slugs.Save(p.Config.SlugMapPath()); err != nil {
		return err
	}
	logSuccess(i18n.T("Slug map written to %s"), p.Config.SlugMapPath())
	return nil
}

// ---------------------------------------------------------------------------
// generate (localize the corpus into one language)
// ---------------------------------------------------------------------------

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <lang>",
		Short: "Produce localized documents for one language",
		Long: `Translate every source-language article into the given language and
rewrite its links, metadata and structured data. Documents without a
registry slug for the target language are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0])
		},
	}
}

func runGenerate(ctx context.Context, lang string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	if _, ok := p.Config.Language(lang); !ok {
		return fmt.Errorf("unsupported language %q (configured: %v)", lang, p.Config.LangCodes())
	}
	if lang == p.Config.DefaultLang {
		return fmt.Errorf("%q is the source language", lang)
	}

	if err := p.Generate(ctx, lang, newTranslator(p.Config, lang)); err != nil {
		return err
	}
	logSuccess(i18n.T("Generated %s documents"), lang)
	return nil
}

// ---------------------------------------------------------------------------
// update-hreflang (refresh alternate-link metadata)
// ---------------------------------------------------------------------------

func newUpdateHreflangCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-hreflang",
		Short: "Refresh alternate-link metadata on generated documents",
		Long: `Recompute the hreflang alternate set, language dropdown and chrome
links of every document in every language from the current slug
registry, without retranslating anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			if err := p.UpdateHreflang(); err != nil {
				return err
			}
			logSuccess(i18n.T("Hreflang metadata refreshed"))
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// update-sitemap (resync the shared sitemap)
// ---------------------------------------------------------------------------

func newUpdateSitemapCmd() *cobra.Command {
	var lastmod string
	cmd := &cobra.Command{
		Use:   "update-sitemap",
		Short: "Resync the shared sitemap from the slug registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			if err := sitemap.Sync(p.Config, p.Slugs, lastmod); err != nil {
				return err
			}
			logSuccess(i18n.T("Sitemap synchronized"))
			return nil
		},
	}
	cmd.Flags().StringVar(&lastmod, "lastmod", time.Now().Format("2006-01-02"),
		"lastmod date for regenerated entries (YYYY-MM-DD)")
	return cmd
}

// ---------------------------------------------------------------------------
// add-symbols (append symbol page URLs to the sitemap)
// ---------------------------------------------------------------------------

func newAddSymbolsCmd() *cobra.Command {
	var lastmod string
	cmd := &cobra.Command{
		Use:   "add-symbols <symbol>...",
		Short: "Append symbol page URLs to the sitemap",
		Long: `Append sitemap url blocks for the given dream-symbol pages in every
language covered by the cross-reference table. URLs already present in
the sitemap are skipped; all newly added entries share one lastmod
date.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			added, skipped, err := sitemap.AddSymbols(p.Config, p.Symbols, args, lastmod)
			if err != nil {
				return err
			}
			if skipped > 0 {
				logInfo("skipped %d URLs already present", skipped)
			}
			if added == 0 {
				logInfo("no new URLs to add")
				return nil
			}
			logSuccess("added %d URLs to %s", added, p.Config.SitemapPath())
			return nil
		},
	}
	cmd.Flags().StringVar(&lastmod, "lastmod", time.Now().Format("2006-01-02"),
		"lastmod date for added entries (YYYY-MM-DD)")
	return cmd
}

// ---------------------------------------------------------------------------
// status (read-only: corpus info + registry stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show corpus and registry statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	cfg := p.Config

	fmt.Fprintf(os.Stderr, "\n%sCorpus%s\n", colorBlue, colorReset)
	fmt.Fprintf(os.Stderr, "  Domain:     %s\n", cfg.Domain)
	fmt.Fprintf(os.Stderr, "  Section:    %s\n", cfg.Section)
	fmt.Fprintf(os.Stderr, "  Languages:  %v (source: %s)\n", cfg.LangCodes(), cfg.DefaultLang)

	fmt.Fprintf(os.Stderr, "\n%sDocuments%s\n", colorBlue, colorReset)
	for _, lang := range cfg.LangCodes() {
		files, err := p.ListArticles(lang)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "  %-4s %d\n", lang, len(files))
	}

	fmt.Fprintf(os.Stderr, "\n%sSlug registry%s\n", colorBlue, colorReset)
	if p.Slugs.Empty() {
		logWarning("no slug registry at %s (run 'dreamer extract')", cfg.SlugMapPath())
		return nil
	}
	fmt.Fprintf(os.Stderr, "  Articles:   %d\n", len(p.Slugs.Keys()))
	for _, lang := range cfg.LangCodes() {
		covered := 0
		for _, key := range p.Slugs.Keys() {
			if key == slugmap.RootKey || p.Slugs.Lookup(key, lang) != "" {
				covered++
			}
		}
		fmt.Fprintf(os.Stderr, "  %-4s %d/%d slugs\n", lang, covered, len(p.Slugs.Keys()))
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dreamer version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}
