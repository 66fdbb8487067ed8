// Package stringsfile implements the Xcode .strings localization
// format: a sequence of
//
//	"key" = "value";
//
// statements interleaved with /* ... */ and // comments and blank
// lines.
//
// Round-trip rules:
//
//   - Leading boilerplate before the first entry (typically the Xcode
//     file header) is preserved verbatim.
//   - A comment block is owned by the entry immediately following it.
//   - Serialization partitions entries into groups by key prefix and
//     separates groups with exactly one blank line.
//   - Comments are written back only for the source-of-truth file.
//     Derived files are translation artifacts, not documentation, and
//     get zero comment lines regardless of input.
package stringsfile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/l10nbox/l10nbox/resource"
)

// entryRE matches one `"key" = "value";` statement. Escaped quotes and
// backslashes inside key/value are allowed.
var entryRE = regexp.MustCompile(`^\s*"((?:\\.|[^"\\])*)"\s*=\s*"((?:\\.|[^"\\])*)"\s*;\s*$`)

// Adapter is the .strings resource.Adapter implementation.
type Adapter struct{}

// New returns a .strings adapter.
func New() *Adapter { return &Adapter{} }

// Ext returns ".strings".
func (a *Adapter) Ext() string { return ".strings" }

func isCommentLine(line string) bool {
	s := strings.TrimSpace(line)
	return strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/*") ||
		strings.HasPrefix(s, "*") || strings.HasPrefix(s, "*/")
}

// Parse decodes a .strings file, attaching each comment block to the
// entry below it and keeping everything before the first entry as the
// header.
func (a *Adapter) Parse(raw []byte) (*resource.Model, error) {
	m := resource.NewModel("", resource.RoleDerived)

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if text == "" {
		return m, nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	var pending []string
	seenEntry := false
	inBlock := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inBlock {
			pending = append(pending, line)
			if strings.Contains(trimmed, "*/") {
				inBlock = false
			}
			continue
		}

		if match := entryRE.FindStringSubmatch(line); match != nil {
			// Blank lines between a comment block and its entry belong
			// to neither; drop them from the pending block.
			for len(pending) > 0 && strings.TrimSpace(pending[len(pending)-1]) == "" {
				pending = pending[:len(pending)-1]
			}
			m.Append(resource.Entry{Key: match[1], Value: match[2], Comments: pending})
			pending = nil
			seenEntry = true
			continue
		}

		if strings.HasPrefix(trimmed, "/*") && !strings.Contains(trimmed, "*/") {
			inBlock = true
			pending = append(pending, line)
			continue
		}

		if trimmed == "" || isCommentLine(line) {
			if seenEntry {
				pending = append(pending, line)
			} else {
				m.Header = append(m.Header, line)
			}
			continue
		}

		return nil, &resource.StructuralError{
			Reason: fmt.Sprintf("line %d: malformed statement: %q", i+1, trimmed),
			Err:    resource.ErrInvalidStructure,
		}
	}

	if inBlock {
		return nil, &resource.StructuralError{
			Reason: "unterminated comment block",
			Err:    resource.ErrInvalidStructure,
		}
	}

	// Whatever trails the last entry is kept as-is (minus pure blanks,
	// which the group writer re-synthesizes).
	for len(pending) > 0 && strings.TrimSpace(pending[0]) == "" {
		pending = pending[1:]
	}
	m.Tail = pending

	return m, nil
}

// Serialize encodes the model as grouped `"key" = "value";` blocks.
// Entry order is taken from the model; the normalizer decides the
// canonical order. A blank line is inserted whenever the group prefix
// changes between consecutive entries.
func (a *Adapter) Serialize(m *resource.Model) []byte {
	var out []string

	header := append([]string(nil), m.Header...)
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	if len(header) > 0 {
		out = append(out, header...)
		out = append(out, "")
	}

	withComments := m.Role == resource.RoleSource

	prevGroup := ""
	for i, e := range m.Entries {
		group := resource.GroupPrefix(e.Key)
		if i > 0 && group != prevGroup {
			out = append(out, "")
		}
		prevGroup = group

		if withComments && len(e.Comments) > 0 {
			comments := append([]string(nil), e.Comments...)
			for len(comments) > 0 && strings.TrimSpace(comments[0]) == "" {
				comments = comments[1:]
			}
			for len(comments) > 0 && strings.TrimSpace(comments[len(comments)-1]) == "" {
				comments = comments[:len(comments)-1]
			}
			out = append(out, comments...)
		}

		// Key and value keep their original escape sequences from
		// Parse, so they are written back verbatim.
		out = append(out, fmt.Sprintf("\"%s\" = \"%s\";", e.Key, e.Value))
	}

	if len(m.Tail) > 0 && withComments {
		out = append(out, "")
		out = append(out, m.Tail...)
	}

	if len(out) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(out, "\n") + "\n")
}
