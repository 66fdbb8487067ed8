// Package resource defines the in-memory model shared by all
// localization file formats: an ordered list of key/value entries with
// attached comments, plus the surrounding boilerplate needed for
// byte-faithful round-trips.
//
// A Model is format-independent. Format adapters (flatjson,
// stringsfile) map raw bytes to and from it; everything downstream
// (classification, normalization, translation, write-back) operates
// on Models only.
//
// Conventions:
//
//   - Keys starting with "@@" are metadata entries (e.g. "@@locale",
//     "@@context"). They are never translated and never participate in
//     missing/redundant analysis. Metadata values may be arbitrary JSON.
//   - Exactly one Model per (module, locale) pair carries RoleSource;
//     its key set and comments are authoritative. All other Models are
//     RoleDerived translation artifacts.
package resource

import (
	"errors"
	"fmt"
	"strings"
)

// MetaPrefix marks non-translatable metadata keys.
const MetaPrefix = "@@"

// LocaleKey is the metadata key identifying the file's locale.
// It is force-ordered first during normalization and serialization.
const LocaleKey = "@@locale"

// Role says whether a Model is the authoritative file for its module
// or a translation artifact derived from one.
type Role int

const (
	// RoleDerived marks translated target files. Derived files hold no
	// documentation value: comments are never written back to them.
	RoleDerived Role = iota
	// RoleSource marks the authoritative file whose key set and
	// comments define correctness for the module.
	RoleSource
)

func (r Role) String() string {
	if r == RoleSource {
		return "source"
	}
	return "derived"
}

// Entry is a single key in a localization file.
type Entry struct {
	// Key is unique within a Model. Duplicates found during parsing are
	// recorded on the Model, not silently overwritten.
	Key string
	// Value is the translatable string. Unused for metadata entries.
	Value string
	// RawValue holds the original encoded value bytes for metadata
	// entries (arbitrary JSON), preserved verbatim across round-trips.
	RawValue []byte
	// Comments are the raw lines immediately preceding the entry.
	// Only meaningful on the source-of-truth file.
	Comments []string
}

// IsMeta reports whether the entry is a metadata annotation.
func (e *Entry) IsMeta() bool { return IsMetaKey(e.Key) }

// IsMetaKey reports whether key is a metadata key.
func IsMetaKey(key string) bool { return strings.HasPrefix(key, MetaPrefix) }

// GroupPrefix returns the grouping segment of a key: the part before
// the first '.', else before the first '_', else the whole key. Used
// purely for deterministic grouping during normalization.
func GroupPrefix(key string) string {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i]
	}
	if i := strings.IndexByte(key, '_'); i >= 0 {
		return key[:i]
	}
	return key
}

// Model is the parsed representation of one localization file.
type Model struct {
	// Locale is the language identifier (e.g. "en", "zh_Hant").
	Locale string
	// Role marks the model as source-of-truth or derived.
	Role Role
	// Header holds raw lines preceding the first entry, verbatim.
	Header []string
	// Entries in document order. Order is meaningful for .strings
	// grouping and is either preserved or recomputed deterministically.
	Entries []Entry
	// Tail holds raw lines after the last entry.
	Tail []string
	// Duplicates lists keys that appeared more than once during
	// parsing (first occurrence kept), in first-seen order.
	Duplicates []string

	index map[string]int
}

// NewModel returns an empty model for the given locale and role.
func NewModel(locale string, role Role) *Model {
	return &Model{Locale: locale, Role: role, index: make(map[string]int)}
}

// Append adds an entry, tracking duplicates. The first occurrence of a
// key wins; later occurrences are recorded in Duplicates and dropped.
func (m *Model) Append(e Entry) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if _, ok := m.index[e.Key]; ok {
		m.Duplicates = append(m.Duplicates, e.Key)
		return
	}
	m.index[e.Key] = len(m.Entries)
	m.Entries = append(m.Entries, e)
}

// Get returns the value of a translatable key.
func (m *Model) Get(key string) (string, bool) {
	if i, ok := m.index[key]; ok && !m.Entries[i].IsMeta() {
		return m.Entries[i].Value, true
	}
	return "", false
}

// Set updates the value of an existing translatable key, or appends a
// new entry when the key is absent.
func (m *Model) Set(key, value string) {
	if i, ok := m.index[key]; ok {
		if m.Entries[i].IsMeta() {
			return
		}
		m.Entries[i].Value = value
		return
	}
	m.Append(Entry{Key: key, Value: value})
}

// Delete removes a key. Reports whether the key existed.
func (m *Model) Delete(key string) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
	delete(m.index, key)
	for k, j := range m.index {
		if j > i {
			m.index[k] = j - 1
		}
	}
	return true
}

// SetEntries replaces the entry list wholesale (used by the
// normalizer) and rebuilds the key index.
func (m *Model) SetEntries(entries []Entry) {
	m.Entries = entries
	m.index = make(map[string]int, len(entries))
	for i, e := range entries {
		m.index[e.Key] = i
	}
}

// Values returns key → value for all translatable entries.
func (m *Model) Values() map[string]string {
	out := make(map[string]string, len(m.Entries))
	for _, e := range m.Entries {
		if !e.IsMeta() {
			out[e.Key] = e.Value
		}
	}
	return out
}

// Keys returns all translatable keys in document order.
func (m *Model) Keys() []string {
	var keys []string
	for _, e := range m.Entries {
		if !e.IsMeta() {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Stats returns (total, translated) counts over translatable entries,
// where translated means a non-blank value.
func (m *Model) Stats() (int, int) {
	total, translated := 0, 0
	for _, e := range m.Entries {
		if e.IsMeta() {
			continue
		}
		total++
		if strings.TrimSpace(e.Value) != "" {
			translated++
		}
	}
	return total, translated
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	cp := NewModel(m.Locale, m.Role)
	cp.Header = append([]string(nil), m.Header...)
	cp.Tail = append([]string(nil), m.Tail...)
	cp.Duplicates = append([]string(nil), m.Duplicates...)
	for _, e := range m.Entries {
		ce := e
		ce.Comments = append([]string(nil), e.Comments...)
		ce.RawValue = append([]byte(nil), e.RawValue...)
		cp.index[ce.Key] = len(cp.Entries)
		cp.Entries = append(cp.Entries, ce)
	}
	return cp
}

// Adapter maps raw file bytes to and from a Model. Two independent
// implementations exist (flat JSON and Xcode .strings), selected by
// configuration rather than inheritance.
type Adapter interface {
	// Parse decodes raw bytes. The returned model has no locale or
	// role set unless the format itself carries one (@@locale).
	Parse(raw []byte) (*Model, error)
	// Serialize encodes the model. Round-trip fidelity rules are
	// format-specific; comments are emitted only for RoleSource.
	Serialize(m *Model) []byte
	// Ext is the canonical file extension including the dot.
	Ext() string
}

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ErrInvalidStructure reports input that is structurally unusable for
// its format (nested JSON, non-string value, malformed statement).
var ErrInvalidStructure = errors.New("invalid structure")

// StructuralError is fatal for one file only; sibling files continue.
type StructuralError struct {
	Path   string
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("structural error: %s", e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// ConfigurationError aborts the whole invocation before any write:
// no safe partial state exists when the setup itself is wrong.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}
