// doctrans — structured document translator with AI providers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/doctrans/doctrans/config"
	"github.com/doctrans/doctrans/i18n"
	"github.com/doctrans/doctrans/langmeta"
	"github.com/doctrans/doctrans/settings"
	"github.com/doctrans/doctrans/translate"
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
		Use:   "doctrans",
		Short: "Structured document translator with AI providers",
		Long: `doctrans — translate the text values of JSON documents with AI.

Extracts translatable strings from arbitrary JSON documents, protects
markup and placeholders, and binds translations back without touching
identifiers, URLs, or document structure. Translation targets can be
declared once in .doctrans.yaml or passed directly on the command line.

Commands:
  status      Show configured documents and existing translations
  translate   Translate documents using AI
  auth        Manage provider API keys

AI Providers:
  google         Google AI (Gemini) — API key
  groq           Groq — API key required
  anthropic      Anthropic — API key required
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newTranslateCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	_ = godotenv.Load()
	i18n.Init("")

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("doctrans version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// status (read-only: configured documents + existing translations)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured documents and existing translations",
		Long: `Show the documents declared in .doctrans.yaml, their target languages,
and which translated files already exist. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	if cfg == nil {
		logInfo("No %s found in %s", config.FileName, rootDir)
		logInfo("Run 'doctrans translate <file.json> -l <lang>' to translate ad hoc")
		return nil
	}

	absRoot, _ := filepath.Abs(rootDir)
	fmt.Fprintf(os.Stderr, "\n%sProject%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Root:        %s\n", absRoot)
	fmt.Fprintf(os.Stderr, "  Source:      %s\n", langmeta.DisplayName(cfg.SourceLang))
	if cfg.Provider != "" {
		fmt.Fprintf(os.Stderr, "  Provider:    %s\n", cfg.Provider)
	}
	if cfg.Model != "" {
		fmt.Fprintf(os.Stderr, "  Model:       %s\n", cfg.Model)
	}
	fmt.Fprintln(os.Stderr)

	resolved, err := cfg.Resolve(rootDir)
	if err != nil {
		return err
	}
	for _, rd := range resolved {
		fmt.Fprintf(os.Stderr, "  %s%s%s (%s)\n", colorGreen, rd.Document.Name, colorReset, rd.Document.Path)
		if len(rd.Languages) == 0 {
			fmt.Fprintf(os.Stderr, "    no target languages configured or detected\n")
			continue
		}
		for _, lang := range rd.Languages {
			meta := langmeta.Resolve(lang)
			mark := colorRed + "missing" + colorReset
			if _, err := os.Stat(rd.OutputPath(lang)); err == nil {
				mark = colorGreen + "present" + colorReset
			}
			fmt.Fprintf(os.Stderr, "    %s %-8s %-20s %s\n", meta.Flag, lang, meta.Name, mark)
		}
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		providerID    string
		model         string
		apiKey        string
		baseURL       string
		proxy         string
		langs         []string
		sourceLang    string
		topic         string
		protectedKeys []string
		maxBytes      int
		maxRetries    int
		timeout       time.Duration
		outputDir     string
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "translate [files...]",
		Short: "Translate documents using AI",
		Long: `Translate JSON documents into the configured target languages.

With file arguments, translates those files; languages come from --lang.
Without arguments, translates every document declared in .doctrans.yaml.
Translated files are written as <name>.<lang>.json next to the source
(or into --output-dir).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}

			if providerID == "" && cfg != nil {
				providerID = cfg.Provider
			}
			if providerID == "" {
				providerID = translate.ProviderGoogle
			}
			if model == "" && cfg != nil {
				model = cfg.Model
			}

			prov, err := buildProvider(providerID, model, apiKey, baseURL, proxy)
			if err != nil {
				return err
			}

			if path, err := translate.LoadPromptsFromDefaultLocations(); err != nil {
				logWarning("custom prompts not loaded: %v", err)
			} else if path != "" && verbose {
				logInfo("using prompts from %s", path)
			}

			opts := translate.Options{
				Provider:   prov,
				SourceLang: sourceLang,
				Topic:      topic,
				MaxBytes:   maxBytes,
				MaxRetries: maxRetries,
				Timeout:    timeout,
				Verbose:    verbose,
				OnLog:      logInfo,
				OnError:    logWarning,
			}
			if cfg != nil {
				if opts.SourceLang == "" {
					opts.SourceLang = cfg.SourceLang
				}
				if opts.Topic == "" {
					opts.Topic = cfg.Topic
				}
				if opts.MaxBytes == 0 {
					opts.MaxBytes = cfg.MaxBytes
				}
			}

			if len(args) > 0 {
				if len(langs) == 0 && cfg != nil {
					langs = cfg.Languages
				}
				if len(langs) == 0 {
					return fmt.Errorf("no target languages: pass --lang or configure %s", config.FileName)
				}
				var failed []string
				for _, path := range args {
					docOpts := opts
					docOpts.ProtectedKeys = protectedKeys
					if cfg != nil {
						docOpts.ProtectedKeys = append(append([]string(nil), cfg.ProtectedKeys...), protectedKeys...)
					}
					if err := translateFile(ctx, path, langs, outputDir, docOpts); err != nil {
						if ctx.Err() != nil {
							return err
						}
						logError("%s: %v", path, err)
						failed = append(failed, path)
					}
				}
				if len(failed) > 0 {
					return fmt.Errorf("%d file(s) failed: %s", len(failed), strings.Join(failed, ", "))
				}
				return nil
			}

			if cfg == nil {
				return fmt.Errorf("no %s found and no files given", config.FileName)
			}
			resolved, err := cfg.Resolve(rootDir)
			if err != nil {
				return err
			}
			if len(resolved) == 0 {
				logInfo(i18n.T("Nothing to translate"))
				return nil
			}
			var failed []string
			for _, rd := range resolved {
				if len(rd.Languages) == 0 {
					logWarning("%s: no target languages, skipping", rd.Document.Name)
					continue
				}
				docOpts := opts
				docOpts.Topic = rd.Document.Topic
				if docOpts.Topic == "" {
					docOpts.Topic = opts.Topic
				}
				docOpts.ProtectedKeys = append(append([]string(nil), rd.Document.ProtectedKeys...), protectedKeys...)
				if err := translateResolved(ctx, rd, docOpts); err != nil {
					if ctx.Err() != nil {
						return err
					}
					logError("%s: %v", rd.Document.Name, err)
					failed = append(failed, rd.Document.Name)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d document(s) failed: %s", len(failed), strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&providerID, "provider", "p", "", "AI provider (google, groq, anthropic, ollama, custom-openai)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model identifier")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (overrides stored credentials)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Custom API base URL")
	cmd.Flags().StringVar(&proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Target language codes (repeatable)")
	cmd.Flags().StringVar(&sourceLang, "source-lang", "", "Source language code")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Prompt topic (default, ui, docs, marketing)")
	cmd.Flags().StringSliceVar(&protectedKeys, "protected-key", nil, "Key substrings to never translate (repeatable)")
	cmd.Flags().IntVar(&maxBytes, "max-bytes", 0, "Serialized chunk budget in bytes")
	cmd.Flags().IntVar(&maxRetries, "retries", 0, "Max retries on rate limit")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-request timeout")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for translated files")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Detailed logging")

	return cmd
}

// buildProvider assembles the provider config from defaults, stored
// credentials, and flags.
func buildProvider(providerID, model, apiKey, baseURL, proxy string) (translate.Provider, error) {
	providers := translate.DefaultProviders()
	prov, ok := providers[providerID]
	if !ok {
		return translate.Provider{}, fmt.Errorf("unknown provider %q", providerID)
	}

	prov.APIKey = settings.ResolveAPIKey(providerID, apiKey)
	if baseURL != "" {
		prov.BaseURL = baseURL
	} else if stored := settings.BaseURL(providerID); stored != "" {
		prov.BaseURL = stored
	}
	if model != "" {
		prov.Model = model
	} else if info := settings.Get(providerID); info != nil && info.Model != "" {
		prov.Model = info.Model
	}
	prov.Proxy = proxy

	if prov.Model == "" {
		return translate.Provider{}, fmt.Errorf("no model configured for provider %s (use --model)", providerID)
	}
	if prov.BaseURL == "" {
		return translate.Provider{}, fmt.Errorf("no base URL configured for provider %s (use --base-url)", providerID)
	}
	if prov.APIKey == "" && providerID != translate.ProviderOllama {
		return translate.Provider{}, fmt.Errorf("no API key for provider %s (use 'doctrans auth set %s' or --api-key)", providerID, providerID)
	}
	return prov, nil
}

func translateResolved(ctx context.Context, rd config.ResolvedDocument, opts translate.Options) error {
	doc, err := loadDocument(rd.AbsPath)
	if err != nil {
		return err
	}
	return translateDocument(ctx, doc, rd.Document.Name, rd.Languages, rd.OutputPath, opts)
}

func translateFile(ctx context.Context, path string, langs []string, outputDir string, opts translate.Options) error {
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if outputDir != "" {
		dir = outputDir
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outPath := func(lang string) string {
		return filepath.Join(dir, stem+"."+langmeta.Canonical(lang)+".json")
	}
	return translateDocument(ctx, doc, base, langs, outPath, opts)
}

// translateDocument runs one document through all target languages and
// writes every successful result. A failing language does not block the
// others; the aggregate error from translate.Languages is returned after
// the successes are written.
func translateDocument(ctx context.Context, doc any, name string, langs []string, outPath func(string) string, opts translate.Options) error {
	names := make([]string, len(langs))
	for i, lang := range langs {
		names[i] = langmeta.DisplayName(lang)
	}
	logInfo(i18n.T("Translating %s to %s..."), name, strings.Join(names, ", "))

	results, langErr := translate.Languages(ctx, doc, langs, opts)

	for _, lang := range langs {
		res, ok := results[lang]
		if !ok {
			continue
		}
		for _, issue := range res.Issues {
			logWarning("%s", issue)
		}
		if len(res.Issues) > 0 {
			logWarning(i18n.N("Found %d issue", "Found %d issues", len(res.Issues)), len(res.Issues))
		}
		if res.Fallbacks > 0 {
			logWarning("%d chunks kept their source values", res.Fallbacks)
		}

		out := outPath(lang)
		if err := writeDocument(out, res.Data); err != nil {
			return err
		}
		logSuccess(i18n.T("Wrote %s"), out)
	}
	return langErr
}

func loadDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

func writeDocument(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// auth (manage provider API keys)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long:  `Store, inspect, and remove provider API keys in ` + settings.FilePath() + `.`,
	}
	cmd.AddCommand(newAuthSetCmd(), newAuthShowCmd(), newAuthRemoveCmd())
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	var (
		key     string
		baseURL string
		model   string
	)
	cmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "Store an API key for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID := args[0]
			if _, ok := translate.DefaultProviders()[providerID]; !ok {
				return fmt.Errorf("unknown provider %q", providerID)
			}
			if key == "" && baseURL == "" && model == "" {
				return fmt.Errorf("nothing to store: pass --key, --base-url, or --model")
			}

			info := settings.Get(providerID)
			if info == nil {
				info = &settings.Info{}
			}
			if key != "" {
				info.Key = key
			}
			if baseURL != "" {
				info.BaseURL = baseURL
			}
			if model != "" {
				info.Model = model
			}
			if err := settings.Set(providerID, info); err != nil {
				return err
			}
			logSuccess(i18n.T("API key saved for %s"), providerID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "API key")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Custom API base URL")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Default model for this provider")
	return cmd
}

func newAuthShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (keys masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := settings.Load()
			if len(store) == 0 {
				logInfo("no credentials stored in %s", settings.FilePath())
				return nil
			}
			for providerID, info := range store {
				fmt.Fprintf(os.Stderr, "  %s%s%s\n", colorGreen, providerID, colorReset)
				if info.Key != "" {
					fmt.Fprintf(os.Stderr, "    key:      %s\n", settings.MaskKey(info.Key))
				}
				if info.BaseURL != "" {
					fmt.Fprintf(os.Stderr, "    base URL: %s\n", info.BaseURL)
				}
				if info.Model != "" {
					fmt.Fprintf(os.Stderr, "    model:    %s\n", info.Model)
				}
			}
			return nil
		},
	}
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <provider>",
		Short: "Remove stored credentials for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID := args[0]
			if settings.Get(providerID) == nil {
				logInfo(i18n.T("No API key stored for %s"), providerID)
				return nil
			}
			if err := settings.Remove(providerID); err != nil {
				return err
			}
			logSuccess(i18n.T("API key removed for %s"), providerID)
			return nil
		},
	}
}
