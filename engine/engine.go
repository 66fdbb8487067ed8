// Package engine exposes the four operations the CLI builds on: Scan,
// Normalize, Translate and RemoveRedundant. Each takes an explicit
// source FileSpec plus target FileSpecs — the source of truth is a
// parameter, never inferred — and returns a structured Summary the
// caller maps to exit codes.
//
// Error policy follows the taxonomy: configuration problems abort the
// invocation before any write; a structurally broken target file only
// aborts that file; per-key translation failures are collected, never
// thrown.
package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/l10nbox/l10nbox/classify"
	"github.com/l10nbox/l10nbox/lockfile"
	"github.com/l10nbox/l10nbox/normalize"
	"github.com/l10nbox/l10nbox/resource"
	"github.com/l10nbox/l10nbox/translate"
	"github.com/l10nbox/l10nbox/writeback"
)

// Duplicate-key policies.
const (
	// DuplicateFail aborts a file containing duplicate keys. Safe
	// default: duplicates are an authoring error.
	DuplicateFail = "fail"
	// DuplicateKeepFirst keeps the first occurrence and reports the
	// rest as warnings.
	DuplicateKeepFirst = "keep-first"
)

// FileSpec binds an on-disk path to its locale and role. The layout
// collaborator (config) produces these; the engine never discovers
// paths itself.
type FileSpec struct {
	Path   string
	Locale string
	Role   resource.Role
	// Guidance is per-locale translator guidance (targets only).
	Guidance string
}

// Engine carries the collaborators shared by all operations.
type Engine struct {
	// Adapter is the format adapter for every file in the set.
	Adapter resource.Adapter
	// DuplicatePolicy is DuplicateFail (default) or DuplicateKeepFirst.
	DuplicatePolicy string
	// Lock, when set, tracks source-text checksums so incremental
	// translation also refreshes keys whose source changed.
	Lock *lockfile.LockFile
	// Log emits diagnostics; nil silences them.
	Log func(format string, args ...any)
}

func (e *Engine) log(format string, args ...any) {
	if e.Log != nil {
		e.Log(format, args...)
	}
}

// TargetReport is the per-locale slice of a Summary.
type TargetReport struct {
	Locale     string
	Missing    int
	Redundant  int
	Duplicates int
	Translated int
	Failed     int
}

// Summary aggregates what an operation found and did. A non-zero
// Failed/FilesFailed is partial failure; all-zero counts with no
// errors means there was nothing to do — callers must distinguish the
// two.
type Summary struct {
	Missing      int
	Redundant    int
	Duplicates   int
	Translated   int
	Failed       int
	FilesChanged int
	FilesFailed  int

	Targets []TargetReport
	// Errors holds human-readable per-file problems (structural
	// errors, skipped files).
	Errors []string
}

// Ok reports whether the operation completed without failures.
func (s *Summary) Ok() bool { return s.Failed == 0 && s.FilesFailed == 0 }

// NothingToDo reports a clean run with no work found.
func (s *Summary) NothingToDo() bool {
	return s.Ok() && s.Missing == 0 && s.Redundant == 0 &&
		s.Duplicates == 0 && s.Translated == 0 && s.FilesChanged == 0
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// loadSource reads and parses the authoritative file. Any problem here
// is a configuration error: without a source of truth no operation is
// safe to attempt.
func (e *Engine) loadSource(spec FileSpec) (*resource.Model, error) {
	raw, err := os.ReadFile(spec.Path)
	if err != nil {
		return nil, &resource.ConfigurationError{
			Reason: fmt.Sprintf("source file %s: %v", spec.Path, err),
		}
	}
	m, err := e.Adapter.Parse(raw)
	if err != nil {
		return nil, &resource.ConfigurationError{
			Reason: fmt.Sprintf("source file %s: %v", spec.Path, err),
		}
	}
	if len(m.Duplicates) > 0 && e.DuplicatePolicy != DuplicateKeepFirst {
		return nil, &resource.ConfigurationError{
			Reason: fmt.Sprintf("source file %s: duplicate keys: %s",
				spec.Path, strings.Join(m.Duplicates, ", ")),
		}
	}
	m.Locale = spec.Locale
	m.Role = resource.RoleSource
	return m, nil
}

// loadTarget reads and parses one derived file. A missing file yields
// an empty model (it will be created on write). A structural error is
// returned so the caller can skip this file and continue with the
// rest.
func (e *Engine) loadTarget(spec FileSpec) (*resource.Model, error) {
	raw, err := os.ReadFile(spec.Path)
	if err != nil {
		if os.IsNotExist(err) {
			m := resource.NewModel(spec.Locale, resource.RoleDerived)
			e.ensureLocaleEntry(m)
			return m, nil
		}
		return nil, &resource.StructuralError{Path: spec.Path, Reason: err.Error(), Err: err}
	}
	m, err := e.Adapter.Parse(raw)
	if err != nil {
		return nil, &resource.StructuralError{Path: spec.Path, Reason: err.Error(), Err: err}
	}
	if len(m.Duplicates) > 0 && e.DuplicatePolicy != DuplicateKeepFirst {
		return nil, &resource.StructuralError{
			Path:   spec.Path,
			Reason: "duplicate keys: " + strings.Join(m.Duplicates, ", "),
			Err:    resource.ErrInvalidStructure,
		}
	}
	m.Locale = spec.Locale
	m.Role = resource.RoleDerived
	e.ensureLocaleEntry(m)
	return m, nil
}

// ensureLocaleEntry adds the @@locale annotation for formats that
// carry one (flat JSON). .strings files have no metadata syntax.
func (e *Engine) ensureLocaleEntry(m *resource.Model) {
	if e.Adapter.Ext() != ".json" {
		return
	}
	for _, entry := range m.Entries {
		if entry.Key == resource.LocaleKey {
			return
		}
	}
	raw := []byte(fmt.Sprintf("%q", m.Locale))
	entries := append([]resource.Entry{{Key: resource.LocaleKey, RawValue: raw}}, m.Entries...)
	m.SetEntries(entries)
}

// ---------------------------------------------------------------------------
// Scan
// ---------------------------------------------------------------------------

// Scan classifies every target against the source. Read-only.
func (e *Engine) Scan(source FileSpec, targets []FileSpec) (*Summary, error) {
	src, err := e.loadSource(source)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	for _, spec := range targets {
		tgt, err := e.loadTarget(spec)
		if err != nil {
			sum.FilesFailed++
			sum.Errors = append(sum.Errors, err.Error())
			continue
		}

		res := classify.Classify(src, tgt)
		sum.Missing += len(res.Missing)
		sum.Redundant += len(res.Redundant)
		sum.Duplicates += len(res.Duplicates)
		sum.Targets = append(sum.Targets, TargetReport{
			Locale:     spec.Locale,
			Missing:    len(res.Missing),
			Redundant:  len(res.Redundant),
			Duplicates: len(res.Duplicates),
		})
	}
	return sum, nil
}

// ---------------------------------------------------------------------------
// Normalize
// ---------------------------------------------------------------------------

// Normalize rewrites the source and all targets into canonical order.
// When cleanupExtra is set, redundant target keys are removed in the
// same pass. With write=false nothing touches disk; FilesChanged still
// reports how many files would change.
func (e *Engine) Normalize(source FileSpec, targets []FileSpec, cleanupExtra, write bool) (*Summary, error) {
	src, err := e.loadSource(source)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	sum.Duplicates += len(src.Duplicates)

	normalize.Normalize(src, true)
	if err := e.commit(source.Path, src, write, sum); err != nil {
		return nil, err
	}

	for _, spec := range targets {
		tgt, err := e.loadTarget(spec)
		if err != nil {
			sum.FilesFailed++
			sum.Errors = append(sum.Errors, err.Error())
			continue
		}

		res := classify.Classify(src, tgt)
		report := TargetReport{
			Locale:     spec.Locale,
			Missing:    len(res.Missing),
			Redundant:  len(res.Redundant),
			Duplicates: len(res.Duplicates),
		}
		sum.Missing += len(res.Missing)
		sum.Duplicates += len(res.Duplicates)

		if cleanupExtra {
			normalize.StripRedundant(tgt, res)
		} else {
			sum.Redundant += len(res.Redundant)
		}

		normalize.Normalize(tgt, false)
		if err := e.commit(spec.Path, tgt, write, sum); err != nil {
			sum.FilesFailed++
			sum.Errors = append(sum.Errors, err.Error())
			continue
		}
		sum.Targets = append(sum.Targets, report)
	}
	return sum, nil
}

// ---------------------------------------------------------------------------
// Translate
// ---------------------------------------------------------------------------

// TranslateOptions extends the orchestrator options with engine-level
// toggles.
type TranslateOptions struct {
	translate.Options
	// SortKeys normalizes each target before write-back.
	SortKeys bool
	// Write commits mutated targets; false is a dry run (the
	// translation itself still happens).
	Write bool
}

// Translate builds work sets, runs the orchestrator and writes back
// the mutated targets. Successfully translated keys are kept even when
// sibling keys fail; the Summary reports both sides.
func (e *Engine) Translate(ctx context.Context, source FileSpec, targets []FileSpec, fn translate.Func, opts TranslateOptions) (*Summary, error) {
	src, err := e.loadSource(source)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	srcValues := src.Values()

	var units []*translate.Target
	specByLocale := make(map[string]FileSpec)

	for _, spec := range targets {
		tgt, err := e.loadTarget(spec)
		if err != nil {
			sum.FilesFailed++
			sum.Errors = append(sum.Errors, err.Error())
			continue
		}
		unit := &translate.Target{
			Model:    tgt,
			Locale:   spec.Locale,
			Guidance: spec.Guidance,
		}
		if e.Lock != nil && opts.Mode == translate.Incremental {
			unit.Force = e.Lock.ChangedKeys(spec.Locale, srcValues)
		}
		units = append(units, unit)
		specByLocale[spec.Locale] = spec
	}

	res := translate.Run(ctx, src, units, fn, opts.Options)

	sum.Translated = res.TotalTranslated()
	sum.Failed = res.TotalFailed()

	for _, unit := range units {
		report := TargetReport{
			Locale:     unit.Locale,
			Translated: res.Translated[unit.Locale],
			Failed:     len(res.Errors[unit.Locale]),
		}
		for _, keyErr := range res.Errors[unit.Locale] {
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %s", unit.Locale, keyErr.Error()))
		}

		if opts.SortKeys {
			normalize.Normalize(unit.Model, false)
		}
		if err := e.commit(specByLocale[unit.Locale].Path, unit.Model, opts.Write, sum); err != nil {
			sum.FilesFailed++
			sum.Errors = append(sum.Errors, err.Error())
			continue
		}
		sum.Targets = append(sum.Targets, report)

		if e.Lock != nil && opts.Write {
			translated := make(map[string]string)
			for key := range srcValues {
				if _, failed := hasKeyError(res.Errors[unit.Locale], key); failed {
					continue
				}
				if _, ok := unit.Model.Get(key); ok {
					translated[key] = srcValues[key]
				}
			}
			e.Lock.UpdateBatch(unit.Locale, translated)
			e.Lock.Clean(unit.Locale, src.Keys())
		}
	}

	if e.Lock != nil && opts.Write {
		if err := e.Lock.Save(); err != nil {
			e.log("[WARN] saving lock file: %v", err)
		}
	}

	return sum, nil
}

func hasKeyError(errs []translate.KeyError, key string) (translate.KeyError, bool) {
	for _, ke := range errs {
		if ke.Key == key {
			return ke, true
		}
	}
	return translate.KeyError{}, false
}

// ---------------------------------------------------------------------------
// RemoveRedundant
// ---------------------------------------------------------------------------

// RemoveRedundant deletes the confirmed redundant keys from each
// target. confirmed maps locale → keys; a nil map means "everything
// currently classified as redundant". Metadata keys are never removed.
func (e *Engine) RemoveRedundant(source FileSpec, targets []FileSpec, confirmed map[string][]string, write bool) (*Summary, error) {
	src, err := e.loadSource(source)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	for _, spec := range targets {
		tgt, err := e.loadTarget(spec)
		if err != nil {
			sum.FilesFailed++
			sum.Errors = append(sum.Errors, err.Error())
			continue
		}

		res := classify.Classify(src, tgt)
		keys := res.Redundant
		if confirmed != nil {
			allowed := make(map[string]bool)
			for _, k := range confirmed[spec.Locale] {
				allowed[k] = true
			}
			var filtered []string
			for _, k := range keys {
				if allowed[k] {
					filtered = append(filtered, k)
				}
			}
			keys = filtered
		}
		sort.Strings(keys)

		removed := 0
		for _, key := range keys {
			if resource.IsMetaKey(key) {
				continue
			}
			if tgt.Delete(key) {
				removed++
			}
		}
		sum.Redundant += removed
		sum.Targets = append(sum.Targets, TargetReport{Locale: spec.Locale, Redundant: removed})

		if removed > 0 {
			if err := e.commit(spec.Path, tgt, write, sum); err != nil {
				sum.FilesFailed++
				sum.Errors = append(sum.Errors, err.Error())
			}
		}
	}
	return sum, nil
}

// ---------------------------------------------------------------------------
// Write-back
// ---------------------------------------------------------------------------

// commit serializes and atomically writes the model when write is set,
// counting the file as changed when its bytes differ. Dry runs count
// without touching disk.
func (e *Engine) commit(path string, m *resource.Model, write bool, sum *Summary) error {
	data := e.Adapter.Serialize(m)
	if !writeback.Changed(path, data) {
		return nil
	}
	if write {
		if err := writeback.WriteFile(path, data); err != nil {
			return err
		}
		e.log("[OK] wrote %s", path)
	}
	sum.FilesChanged++
	return nil
}
