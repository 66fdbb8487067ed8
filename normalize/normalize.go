// Package normalize rewrites a model into canonical order: metadata
// first (@@locale before everything), then translatable entries sorted
// by (group prefix, key).
//
// Normalization is a pure structural transform. It performs no I/O and
// has no dependency on the translation layer, so it can never consult
// a translator by construction. Applying it twice yields byte-identical
// serialized output to applying it once.
package normalize

import (
	"sort"

	"github.com/l10nbox/l10nbox/classify"
	"github.com/l10nbox/l10nbox/resource"
)

// Normalize reorders m.Entries in place.
//
// Ordering is plain byte-wise string comparison, deliberately not
// locale-collated: output must be identical across platforms and
// environments.
//
//   - @@locale first, remaining metadata keys sorted after it, before
//     any plain key.
//   - Plain keys partitioned by GroupPrefix; groups sorted by prefix,
//     entries within a group sorted by key. The sort is stable, so
//     duplicate handling upstream cannot reshuffle survivors.
//
// When isSource is false all comments are stripped: derived files are
// translation artifacts and carry no documentation.
func Normalize(m *resource.Model, isSource bool) {
	entries := append([]resource.Entry(nil), m.Entries...)

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]

		ra, rb := rank(a), rank(b)
		if ra != rb {
			return ra < rb
		}
		if ra < 2 {
			// Within metadata: lexicographic (@@locale already ranked).
			return a.Key < b.Key
		}

		ga, gb := resource.GroupPrefix(a.Key), resource.GroupPrefix(b.Key)
		if ga != gb {
			return ga < gb
		}
		return a.Key < b.Key
	})

	if !isSource {
		for i := range entries {
			entries[i].Comments = nil
		}
		m.Tail = nil
	}

	m.SetEntries(entries)
	if isSource {
		m.Role = resource.RoleSource
	} else {
		m.Role = resource.RoleDerived
	}
}

func rank(e *resource.Entry) int {
	switch {
	case e.Key == resource.LocaleKey:
		return 0
	case e.IsMeta():
		return 1
	default:
		return 2
	}
}

// StripRedundant removes the given redundant keys from the model,
// typically after the caller confirmed a classify.Result. Metadata
// keys are never removed. Returns the number of entries dropped.
func StripRedundant(m *resource.Model, res classify.Result) int {
	removed := 0
	for _, key := range res.Redundant {
		if resource.IsMetaKey(key) {
			continue
		}
		if m.Delete(key) {
			removed++
		}
	}
	return removed
}
