// Package flatjson implements the flat-JSON localization format: a
// single-level JSON object mapping keys to string values.
//
//   - "@@locale" holds the language code (e.g. "en", "zh_Hant").
//   - Other "@@" keys are metadata and may hold any JSON value,
//     preserved verbatim — never translated.
//   - Every remaining value must be a string; anything else (nested
//     objects, numbers, booleans) is a structural error.
//
// Key order from the source file is preserved on parse. Serialization
// emits @@locale first, then remaining metadata, then plain keys in
// model order, with 2-space indentation and a trailing newline.
package flatjson

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/l10nbox/l10nbox/resource"
)

// Adapter is the flat-JSON resource.Adapter implementation.
type Adapter struct{}

// New returns a flat-JSON adapter.
func New() *Adapter { return &Adapter{} }

// Ext returns ".json".
func (a *Adapter) Ext() string { return ".json" }

// Parse decodes a single-level JSON object. Key order is preserved by
// streaming tokens through json.Decoder instead of unmarshalling into
// a map.
func (a *Adapter) Parse(raw []byte) (*resource.Model, error) {
	m := resource.NewModel("", resource.RoleDerived)
	if len(bytes.TrimSpace(raw)) == 0 {
		return m, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing flat JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing flat JSON: top level must be an object: %w", resource.ErrInvalidStructure)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing flat JSON key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing flat JSON: expected string key, got %T", keyTok)
		}

		var rawVal json.RawMessage
		if err := dec.Decode(&rawVal); err != nil {
			return nil, fmt.Errorf("parsing flat JSON value for %q: %w", key, err)
		}

		e := resource.Entry{Key: key}
		if resource.IsMetaKey(key) {
			e.RawValue = rawVal
			if key == resource.LocaleKey {
				var s string
				_ = json.Unmarshal(rawVal, &s)
				m.Locale = s
			}
		} else {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				return nil, fmt.Errorf("key %q: value must be a string: %w", key, resource.ErrInvalidStructure)
			}
			e.Value = s
		}
		m.Append(e)
	}

	// Trailing garbage after the closing brace is a structural error.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing flat JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parsing flat JSON: trailing content: %w", resource.ErrInvalidStructure)
	}

	return m, nil
}

// Serialize encodes the model as an indented single-level JSON object.
// @@locale is always written first, then remaining metadata in model
// order, then plain keys in model order. The normalizer is responsible
// for sorting; Serialize only enforces the metadata-first layout.
func (a *Adapter) Serialize(m *resource.Model) []byte {
	var buf bytes.Buffer
	buf.WriteString("{\n")

	first := true
	writeEntry := func(key string, val []byte) {
		if !first {
			buf.WriteString(",\n")
		}
		first = false
		keyBytes, _ := json.Marshal(key)
		buf.WriteString("  ")
		buf.Write(keyBytes)
		buf.WriteString(": ")
		buf.Write(val)
	}

	locale := m.Locale
	var localeRaw []byte
	for _, e := range m.Entries {
		if e.Key == resource.LocaleKey {
			localeRaw = e.RawValue
		}
	}
	if localeRaw == nil && locale != "" {
		localeRaw, _ = json.Marshal(locale)
	}
	if localeRaw != nil {
		writeEntry(resource.LocaleKey, localeRaw)
	}

	// Remaining metadata, then plain keys, both in model order.
	for pass := 0; pass < 2; pass++ {
		for _, e := range m.Entries {
			if e.Key == resource.LocaleKey {
				continue
			}
			isMeta := e.IsMeta()
			if (pass == 0) != isMeta {
				continue
			}
			if isMeta {
				var pretty bytes.Buffer
				if err := json.Indent(&pretty, e.RawValue, "  ", "  "); err != nil {
					writeEntry(e.Key, e.RawValue)
				} else {
					writeEntry(e.Key, pretty.Bytes())
				}
			} else {
				raw := marshalString(e.Value)
				writeEntry(e.Key, raw)
			}
		}
	}

	buf.WriteString("\n}\n")
	return buf.Bytes()
}

// marshalString encodes without escaping non-ASCII, matching the
// ensure_ascii=False output of the files this tool manages.
func marshalString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
