// Package config — l10nbox.yaml project configuration.
//
// The config file is the sole source of truth for the locale set and
// directory layout. Nothing is auto-detected: the engine receives an
// explicit (path, locale, role) list resolved here, and the source of
// truth is always declared, never inferred.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l10nbox/l10nbox/langmeta"
	"github.com/l10nbox/l10nbox/resource"
)

// FileName is the default config file name.
const FileName = "l10nbox.yaml"

// Format selects the file format adapter.
const (
	FormatJSON    = "json"
	FormatStrings = "strings"
)

// Duplicate-key policies. Fail is the safe default: a duplicate key in
// a source file is a real authoring error, not something to paper over.
const (
	DuplicateFail      = "fail"
	DuplicateKeepFirst = "keep-first"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// Locale is a language code plus its English name (used in prompts).
type Locale struct {
	Code string `yaml:"code"`
	// Name is the English language name handed to the translator
	// ("Traditional Chinese", not "繁體中文"). Defaults from the
	// built-in registry when omitted.
	Name string `yaml:"name,omitempty"`
	// Guidance is extra per-locale prompt text.
	Guidance string `yaml:"guidance,omitempty"`
}

// Options is the closed set of behavior toggles. Every field has one
// documented effect; there is no open key/value escape hatch.
type Options struct {
	// SortKeys normalizes key order on every write.
	SortKeys bool `yaml:"sort_keys"`
	// CleanupExtraKeys removes redundant target keys during sort.
	CleanupExtraKeys bool `yaml:"cleanup_extra_keys"`
	// IncrementalTranslate makes translate default to incremental mode.
	IncrementalTranslate bool `yaml:"incremental_translate"`
	// NormalizeFilenames renames stray `*_<locale>` files to the
	// canonical pattern before processing.
	NormalizeFilenames bool `yaml:"normalize_filenames"`
	// DuplicateKeyPolicy is "fail" (default) or "keep-first".
	DuplicateKeyPolicy string `yaml:"duplicate_key_policy,omitempty"`
}

// Prompts configures translator guidance.
type Prompts struct {
	// DefaultEN is the base guidance appended to every request.
	DefaultEN string `yaml:"default_en,omitempty"`
	// ByLocaleEN adds per-locale guidance, keyed by code.
	ByLocaleEN map[string]string `yaml:"by_locale_en,omitempty"`
}

// Project is the top-level l10nbox.yaml structure.
type Project struct {
	// Format: "json" or "strings".
	Format string `yaml:"format"`
	// Root is the directory holding the localization files, relative
	// to the config file.
	Root string `yaml:"root"`
	// Pattern maps a locale to a file path under Root. "{locale}" is
	// substituted; defaults depend on Format.
	Pattern string `yaml:"pattern,omitempty"`
	// Source is the authoritative locale.
	Source Locale `yaml:"source"`
	// Targets are the derived locales.
	Targets []Locale `yaml:"targets"`
	// Options toggles engine behavior.
	Options Options `yaml:"options"`
	// Prompts configures translator guidance.
	Prompts Prompts `yaml:"prompts,omitempty"`

	// baseDir is the directory containing the loaded config file.
	baseDir string
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads and validates l10nbox.yaml from dir.
func Load(dir string) (*Project, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &resource.ConfigurationError{
				Reason: fmt.Sprintf("%s not found (run `l10nbox init` to create one)", path),
			}
		}
		return nil, &resource.ConfigurationError{Reason: fmt.Sprintf("reading %s: %v", path, err)}
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &resource.ConfigurationError{Reason: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	p.baseDir = dir

	if err := p.validate(); err != nil {
		return nil, err
	}
	p.applyDefaults()
	return &p, nil
}

func (p *Project) validate() error {
	switch p.Format {
	case FormatJSON, FormatStrings:
	case "":
		return &resource.ConfigurationError{Reason: "format is required (json or strings)"}
	default:
		return &resource.ConfigurationError{Reason: fmt.Sprintf("unknown format %q", p.Format)}
	}

	if strings.TrimSpace(p.Root) == "" {
		return &resource.ConfigurationError{Reason: "root is required"}
	}
	if strings.TrimSpace(p.Source.Code) == "" {
		return &resource.ConfigurationError{Reason: "source.code is required"}
	}

	seen := map[string]bool{}
	for i, t := range p.Targets {
		if strings.TrimSpace(t.Code) == "" {
			return &resource.ConfigurationError{Reason: fmt.Sprintf("targets[%d].code is empty", i)}
		}
		if t.Code == p.Source.Code {
			return &resource.ConfigurationError{
				Reason: fmt.Sprintf("target %q duplicates the source locale", t.Code),
			}
		}
		if seen[t.Code] {
			return &resource.ConfigurationError{Reason: fmt.Sprintf("duplicate target locale %q", t.Code)}
		}
		seen[t.Code] = true
	}

	switch p.Options.DuplicateKeyPolicy {
	case "", DuplicateFail, DuplicateKeepFirst:
	default:
		return &resource.ConfigurationError{
			Reason: fmt.Sprintf("duplicate_key_policy must be %q or %q", DuplicateFail, DuplicateKeepFirst),
		}
	}

	return nil
}

func (p *Project) applyDefaults() {
	if p.Pattern == "" {
		switch p.Format {
		case FormatStrings:
			p.Pattern = "{locale}.lproj/Localizable.strings"
		default:
			p.Pattern = "{locale}.json"
		}
	}
	if p.Options.DuplicateKeyPolicy == "" {
		p.Options.DuplicateKeyPolicy = DuplicateFail
	}
	if p.Source.Name == "" {
		p.Source.Name = langmeta.Resolve(p.Source.Code).Name
	}
	for i := range p.Targets {
		if p.Targets[i].Name == "" {
			p.Targets[i].Name = langmeta.Resolve(p.Targets[i].Code).Name
		}
	}
}

// ---------------------------------------------------------------------------
// Layout resolution
// ---------------------------------------------------------------------------

// PathFor resolves the on-disk path of a locale's file.
func (p *Project) PathFor(code string) string {
	rel := strings.ReplaceAll(p.Pattern, "{locale}", code)
	return filepath.Join(p.baseDir, p.Root, rel)
}

// Guidance returns the combined prompt guidance for a target locale:
// the default prompt plus any per-locale addition.
func (p *Project) Guidance(code string) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(p.Prompts.DefaultEN); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(p.Prompts.ByLocaleEN[code]); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n")
}

// TargetCodes returns the configured target locale codes in order.
func (p *Project) TargetCodes() []string {
	codes := make([]string, len(p.Targets))
	for i, t := range p.Targets {
		codes[i] = t.Code
	}
	return codes
}

// Target returns the target entry for code.
func (p *Project) Target(code string) (Locale, bool) {
	for _, t := range p.Targets {
		if t.Code == code {
			return t, true
		}
	}
	return Locale{}, false
}

// ---------------------------------------------------------------------------
// Scaffolding (init command)
// ---------------------------------------------------------------------------

// DefaultYAML is the commented template written by `l10nbox init`.
const DefaultYAML = `# l10nbox project configuration.
#
# format: json     — flat {locale}.json files (one level, string values)
# format: strings  — Xcode {locale}.lproj/Localizable.strings files
format: json

# Directory containing the localization files, relative to this file.
root: i18n

# Path of one locale's file under root. "{locale}" is substituted.
#pattern: "{locale}.json"

source:
  code: en

targets:
  - code: de
  - code: fr
  - code: ja
  - code: zh_Hant
    name: Traditional Chinese

options:
  sort_keys: true
  cleanup_extra_keys: false
  incremental_translate: true
  normalize_filenames: false
  # duplicate_key_policy: fail

prompts:
  default_en: >-
    Translate UI strings for a software product. Keep the tone concise
    and neutral.
`

// WriteDefault writes the commented template to dir unless a config
// already exists there.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(DefaultYAML), 0644); err != nil {
		return path, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
