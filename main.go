// l10nbox — localization box: flat JSON / .strings translation file
// manager with AI translation support.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/l10nbox/l10nbox/config"
	"github.com/l10nbox/l10nbox/engine"
	"github.com/l10nbox/l10nbox/flatjson"
	"github.com/l10nbox/l10nbox/i18n"
	"github.com/l10nbox/l10nbox/langmeta"
	"github.com/l10nbox/l10nbox/llm"
	"github.com/l10nbox/l10nbox/lockfile"
	"github.com/l10nbox/l10nbox/resource"
	"github.com/l10nbox/l10nbox/settings"
	"github.com/l10nbox/l10nbox/stringsfile"
	"github.com/l10nbox/l10nbox/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes. Partial failure and configuration errors are distinct so
// CI pipelines can tell "fix your config" from "some keys failed".
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

var (
	tagInfo    = color.New(color.FgBlue).Sprint("[INFO]")
	tagSuccess = color.New(color.FgGreen).Sprint("[OK]")
	tagWarning = color.New(color.FgYellow, color.Bold).Sprint("[WARN]")
	tagError   = color.New(color.FgRed).Sprint("[ERROR]")
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagInfo+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagSuccess+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagWarning+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagError+" "+format+"\n", args...)
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
		Use:   "l10nbox",
		Short: "Localization box: translation file manager with AI translation",
		Long: `l10nbox — localization box: translation file manager with AI translation.

Manages flat JSON ({locale}.json) and Xcode .strings localization files:
classifies missing and redundant keys against the declared source of
truth, normalizes key order deterministically, and fills gaps through
any OpenAI-compatible model with placeholder-safe validation.

Commands:
  scan        Classify targets against the source (read-only)
  sort        Normalize key order in all files
  translate   Fill missing translations using AI
  clean       Remove redundant target keys
  init        Create a commented l10nbox.yaml
  version     Show version information

The project layout is declared in l10nbox.yaml; nothing is inferred.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Directory containing l10nbox.yaml")

	root.AddCommand(
		newScanCmd(),
		newSortCmd(),
		newTranslateCmd(),
		newCleanCmd(),
		newInitCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		var cfgErr *resource.ConfigurationError
		if errors.As(err, &cfgErr) {
			os.Exit(exitConfig)
		}
		os.Exit(exitFailed)
	}
}

// ---------------------------------------------------------------------------
// Project setup shared by scan/sort/translate/clean
// ---------------------------------------------------------------------------

// setup loads the config and builds the engine plus the resolved file
// specs. The adapter follows the configured format.
func setup() (*config.Project, *engine.Engine, engine.FileSpec, []engine.FileSpec, error) {
	proj, err := config.Load(rootDir)
	if err != nil {
		return nil, nil, engine.FileSpec{}, nil, err
	}

	var adapter resource.Adapter
	switch proj.Format {
	case config.FormatStrings:
		adapter = stringsfile.New()
	default:
		adapter = flatjson.New()
	}

	if proj.Options.NormalizeFilenames {
		normalizeFilenames(proj, adapter.Ext())
	}

	eng := &engine.Engine{
		Adapter:         adapter,
		DuplicatePolicy: proj.Options.DuplicateKeyPolicy,
		Log:             logInfo,
	}

	source := engine.FileSpec{
		Path:   proj.PathFor(proj.Source.Code),
		Locale: proj.Source.Code,
		Role:   resource.RoleSource,
	}

	targets := make([]engine.FileSpec, 0, len(proj.Targets))
	for _, t := range proj.Targets {
		targets = append(targets, engine.FileSpec{
			Path:     proj.PathFor(t.Code),
			Locale:   t.Code,
			Role:     resource.RoleDerived,
			Guidance: proj.Guidance(t.Code),
		})
	}

	return proj, eng, source, targets, nil
}

// filterTargets narrows the target set to the comma-separated locale
// list, keeping config order.
func filterTargets(targets []engine.FileSpec, langs string) ([]engine.FileSpec, error) {
	if langs == "" {
		return targets, nil
	}
	wanted := make(map[string]bool)
	for _, code := range strings.Split(langs, ",") {
		wanted[strings.TrimSpace(code)] = true
	}
	var filtered []engine.FileSpec
	for _, spec := range targets {
		if wanted[spec.Locale] {
			filtered = append(filtered, spec)
			delete(wanted, spec.Locale)
		}
	}
	if len(wanted) > 0 {
		var unknown []string
		for code := range wanted {
			unknown = append(unknown, code)
		}
		return nil, &resource.ConfigurationError{
			Reason: fmt.Sprintf("locales not in config: %s", strings.Join(unknown, ", ")),
		}
	}
	return filtered, nil
}

// normalizeFilenames renames stray files like Localizable_de.json in
// the root directory to the canonical per-locale path. Best effort: a
// failed rename is a warning, not an abort.
func normalizeFilenames(proj *config.Project, ext string) {
	root := filepath.Join(rootDir, proj.Root)
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}

	codes := append([]string{proj.Source.Code}, proj.TargetCodes()...)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ext)
		for _, code := range codes {
			if !strings.HasSuffix(base, "_"+code) {
				continue
			}
			canonical := proj.PathFor(code)
			stray := filepath.Join(root, entry.Name())
			if stray == canonical {
				break
			}
			if _, err := os.Stat(canonical); err == nil {
				logWarning("Both %s and %s exist, leaving %s alone", canonical, stray, stray)
				break
			}
			if err := os.MkdirAll(filepath.Dir(canonical), 0755); err != nil {
				break
			}
			if err := os.Rename(stray, canonical); err != nil {
				logWarning("Renaming %s: %v", stray, err)
			} else {
				logInfo("Renamed %s -> %s", stray, canonical)
			}
			break
		}
	}
}

// exitFor maps a Summary to the process exit code.
func exitFor(sum *engine.Summary) int {
	if !sum.Ok() {
		return exitFailed
	}
	return exitOK
}

func reportErrors(sum *engine.Summary) {
	for _, msg := range sum.Errors {
		logError("%s", msg)
	}
}

func localeLabel(code string) string {
	meta := langmeta.Resolve(code)
	if meta.Flag != "" {
		return fmt.Sprintf("%s %s", meta.Flag, code)
	}
	return code
}

// ---------------------------------------------------------------------------
// auth (manage stored endpoint credentials)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored API credentials",
		Long: `Store the translation endpoint's API key, base URL and default
model in ` + settings.FilePath() + ` so they do not have to be passed
on every run. Flags and environment variables still take precedence.`,
	}

	var (
		apiKey  string
		baseURL string
		model   string
	)

	set := &cobra.Command{
		Use:   "set",
		Short: "Store API credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := settings.Load()
			if apiKey != "" {
				creds.Key = apiKey
			}
			if baseURL != "" {
				creds.BaseURL = baseURL
			}
			if model != "" {
				creds.Model = model
			}
			if creds.Empty() {
				return fmt.Errorf("nothing to store; pass --api-key, --base-url or --model")
			}
			if err := settings.Save(creds); err != nil {
				return err
			}
			logSuccess("Saved to %s", settings.FilePath())
			return nil
		},
	}
	set.Flags().StringVar(&apiKey, "api-key", "", "API key to store")
	set.Flags().StringVar(&baseURL, "base-url", "", "OpenAI-compatible API base URL")
	set.Flags().StringVar(&model, "model", "", "Default model")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (key masked)",
		Run: func(cmd *cobra.Command, args []string) {
			creds := settings.Load()
			if creds.Empty() {
				logInfo("No credentials stored (%s)", settings.FilePath())
				return
			}
			if creds.Key != "" {
				fmt.Fprintf(os.Stderr, "  Key:      %s\n", settings.MaskKey(creds.Key))
			}
			if creds.BaseURL != "" {
				fmt.Fprintf(os.Stderr, "  Base URL: %s\n", creds.BaseURL)
			}
			if creds.Model != "" {
				fmt.Fprintf(os.Stderr, "  Model:    %s\n", creds.Model)
			}
		},
	}

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Delete stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.Remove(); err != nil {
				return err
			}
			logSuccess("Removed %s", settings.FilePath())
			return nil
		},
	}

	auth.AddCommand(set, show, remove)
	return auth
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("l10nbox version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// init (create l10nbox.yaml)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a commented l10nbox.yaml",
		Long: `Write a commented l10nbox.yaml template into the project root.

Fails if a config already exists; nothing else is touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(rootDir)
			if err != nil {
				return err
			}
			logSuccess("Created %s", path)
			logInfo(i18n.T("Configuration created. Edit it, then run 'l10nbox scan'."))
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// scan (read-only classification)
// ---------------------------------------------------------------------------

func newScanCmd() *cobra.Command {
	var langs string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Classify targets against the source (read-only)",
		Long: `Compare every target file against the source of truth and report
missing, redundant and duplicate keys per locale. Does not modify any
files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, source, targets, err := setup()
			if err != nil {
				return err
			}
			if targets, err = filterTargets(targets, langs); err != nil {
				return err
			}

			sum, err := eng.Scan(source, targets)
			if err != nil {
				return err
			}

			printScanTable(sum)
			reportErrors(sum)

			if sum.NothingToDo() {
				logSuccess(i18n.T("All translations are complete!"))
			}
			os.Exit(exitFor(sum))
			return nil
		},
	}

	cmd.Flags().StringVar(&langs, "lang", "", "Locales to scan (comma-separated, default: all)")
	return cmd
}

func printScanTable(sum *engine.Summary) {
	fmt.Fprintf(os.Stderr, "\n%-14s %-10s %-12s %-10s\n", "Locale", "Missing", "Redundant", "Dupes")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 48))
	for _, t := range sum.Targets {
		fmt.Fprintf(os.Stderr, "%-14s %-10d %-12d %-10d\n",
			localeLabel(t.Locale), t.Missing, t.Redundant, t.Duplicates)
	}
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 48))
	fmt.Fprintf(os.Stderr, "Total: %d missing, %d redundant, %d duplicates\n\n",
		sum.Missing, sum.Redundant, sum.Duplicates)
}

// ---------------------------------------------------------------------------
// sort (normalize key order)
// ---------------------------------------------------------------------------

func newSortCmd() *cobra.Command {
	var (
		langs  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Normalize key order in all files",
		Long: `Rewrite the source and all target files into canonical order:
metadata first, then plain keys grouped by prefix and sorted within
each group. Comments are retained in the source and stripped from
targets. Running twice changes nothing.

With cleanup_extra_keys enabled in the config, redundant target keys
are removed in the same pass.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, eng, source, targets, err := setup()
			if err != nil {
				return err
			}
			if targets, err = filterTargets(targets, langs); err != nil {
				return err
			}

			sum, err := eng.Normalize(source, targets, proj.Options.CleanupExtraKeys, !dryRun)
			if err != nil {
				return err
			}

			reportErrors(sum)
			if dryRun {
				logInfo("Dry run: %d file(s) would change", sum.FilesChanged)
			} else if sum.FilesChanged == 0 {
				logInfo(i18n.T("Nothing to do."))
			} else {
				logSuccess("Normalized %d file(s)", sum.FilesChanged)
			}
			os.Exit(exitFor(sum))
			return nil
		},
	}

	cmd.Flags().StringVar(&langs, "lang", "", "Locales to sort (comma-separated, default: all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	return cmd
}

// ---------------------------------------------------------------------------
// clean (remove redundant keys)
// ---------------------------------------------------------------------------

func newCleanCmd() *cobra.Command {
	var (
		langs  string
		dryRun bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove redundant target keys",
		Long: `Delete target keys that no longer exist in the source of truth.

Lists the keys and asks for confirmation unless --yes is given.
Metadata keys are never removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, source, targets, err := setup()
			if err != nil {
				return err
			}
			if targets, err = filterTargets(targets, langs); err != nil {
				return err
			}

			// Preview pass before touching anything.
			preview, err := eng.Scan(source, targets)
			if err != nil {
				return err
			}
			if preview.Redundant == 0 {
				logInfo(i18n.T("Nothing to do."))
				return nil
			}

			for _, t := range preview.Targets {
				if t.Redundant > 0 {
					logInfo("%s: %d redundant key(s)", localeLabel(t.Locale), t.Redundant)
				}
			}

			if dryRun {
				logInfo("Dry run: %d key(s) would be removed", preview.Redundant)
				return nil
			}

			if !yes && !confirm(fmt.Sprintf("Remove %d redundant key(s)?", preview.Redundant)) {
				logInfo("Aborted.")
				return nil
			}

			sum, err := eng.RemoveRedundant(source, targets, nil, true)
			if err != nil {
				return err
			}
			reportErrors(sum)
			logSuccess("Removed %d key(s) from %d file(s)", sum.Redundant, sum.FilesChanged)
			os.Exit(exitFor(sum))
			return nil
		},
	}

	cmd.Flags().StringVar(&langs, "lang", "", "Locales to clean (comma-separated, default: all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be removed without writing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	var answer string
	fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		// Target selection
		langs string

		// Endpoint
		apiKey  string
		model   string
		baseURL string
		proxy   string

		// Behavior
		full      bool
		batchSize int
		prompt    string
		dryRun    bool

		// Parallelization
		maxConcurrent int
		requestDelay  time.Duration

		// Network
		timeout    time.Duration
		maxRetries int
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Fill missing translations using AI",
		Long: `Translate missing target keys through an OpenAI-compatible endpoint.

Incremental by default: only keys that are missing or blank in a
target (plus keys whose source text changed since the last run) are
sent out. Existing translations are never overwritten unless --full is
given. Translations that lose or alter placeholders are rejected and
the previous value is kept.

Examples:
  # Fill gaps in all targets
  l10nbox translate

  # Re-translate everything for two locales
  l10nbox translate --full --lang de,fr

  # Dry run (show what would be translated)
  l10nbox translate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, eng, source, targets, err := setup()
			if err != nil {
				return err
			}
			if targets, err = filterTargets(targets, langs); err != nil {
				return err
			}

			mode := translate.Incremental
			if full || !proj.Options.IncrementalTranslate {
				mode = translate.Full
			}

			if dryRun {
				sum, err := eng.Scan(source, targets)
				if err != nil {
					return err
				}
				for _, t := range sum.Targets {
					logInfo("%s: %d string(s) to translate", localeLabel(t.Locale), t.Missing)
				}
				if sum.Missing == 0 && mode == translate.Incremental {
					logSuccess(i18n.T("All translations are complete!"))
				}
				return nil
			}

			// Resolution order: flag, environment, credential store,
			// built-in default.
			client := llm.NewFromEnv()
			creds := settings.Load()
			if client.APIKey == "" {
				client.APIKey = creds.Key
			}
			if os.Getenv("OPENAI_BASE_URL") == "" && creds.BaseURL != "" {
				client.BaseURL = creds.BaseURL
			}
			if os.Getenv("OPENAI_MODEL") == "" && creds.Model != "" {
				client.Model = creds.Model
			}
			if apiKey != "" {
				client.APIKey = apiKey
			}
			if model != "" {
				client.Model = model
			}
			if baseURL != "" {
				client.BaseURL = baseURL
			}
			client.Proxy = proxy
			client.Timeout = timeout

			lock, err := lockfile.Load(rootDir)
			if err != nil {
				logWarning("Lock file unreadable, change tracking disabled: %v", err)
			} else {
				eng.Lock = lock
			}

			logInfo("Model: %s, endpoint: %s", client.Model, client.BaseURL)
			logInfo("Mode: %s, max concurrent: %d", mode, maxConcurrent)

			// In-flight batches finish and merge on interrupt; only new
			// dispatch stops.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			go func() {
				<-sigCh
				logWarning(i18n.T("Interrupted, finishing in-flight batches..."))
				cancel()
			}()

			opts := engine.TranslateOptions{
				Options: translate.Options{
					Mode:          mode,
					BatchSize:     batchSize,
					MaxConcurrent: maxConcurrent,
					RequestDelay:  requestDelay,
					Timeout:       timeout,
					MaxRetries:    maxRetries,
					OnProgress: func(locale string, done, total int) {
						logInfo("  %s: %d/%d", localeLabel(locale), done, total)
					},
					OnLog: logInfo,
				},
				SortKeys: proj.Options.SortKeys,
				Write:    true,
			}
			if prompt != "" {
				for i := range targets {
					targets[i].Guidance = prompt
				}
			}

			sum, err := eng.Translate(ctx, source, targets, client.Translate, opts)
			if err != nil {
				return err
			}

			reportErrors(sum)
			for _, t := range sum.Targets {
				if t.Translated > 0 || t.Failed > 0 {
					logInfo("%s: %d translated, %d failed", localeLabel(t.Locale), t.Translated, t.Failed)
				}
			}

			switch {
			case !sum.Ok():
				logWarning("Translated %d key(s), %d failed", sum.Translated, sum.Failed)
			case sum.Translated == 0:
				logSuccess(i18n.T("All translations are complete!"))
			default:
				logSuccess(i18n.T("Translation complete!"))
			}
			os.Exit(exitFor(sum))
			return nil
		},
	}

	// Endpoint
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: OPENAI_MODEL or "+llm.DefaultModel+")")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (or OPENAI_API_KEY env var)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "OpenAI-compatible API base URL")
	cmd.Flags().StringVar(&proxy, "proxy", "", "HTTP/HTTPS proxy URL")

	// Target selection
	cmd.Flags().StringVar(&langs, "lang", "", "Locales to translate (comma-separated, default: all)")

	// Behavior
	cmd.Flags().BoolVar(&full, "full", false, "Re-translate every key, overwriting existing values")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Keys per API request (default 40)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Override translator guidance for this run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be translated without calling AI")

	// Parallelization
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 3, "Maximum concurrent batches")
	cmd.Flags().DurationVar(&requestDelay, "request-delay", 0, "Delay between batch launches")

	// Network
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (default 2m)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Transport retries per batch")

	return cmd
}
