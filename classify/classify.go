// Package classify compares a source-of-truth model against a derived
// target and reports which keys need work.
package classify

import (
	"sort"
	"strings"

	"github.com/l10nbox/l10nbox/resource"
)

// Result is the per-(source, target) classification. It is derived
// state, recomputed on every invocation — never persisted.
type Result struct {
	// Missing keys are present in source but absent or blank in target.
	Missing []string
	// Redundant keys are present in target but not in source.
	Redundant []string
	// Duplicates appeared more than once in either file. Reported as a
	// warning-level finding; policy decides whether it is fatal.
	Duplicates []string
}

// Empty reports whether there is nothing to do and nothing to warn
// about. Callers use this to distinguish "clean" from partial results.
func (r Result) Empty() bool {
	return len(r.Missing) == 0 && len(r.Redundant) == 0 && len(r.Duplicates) == 0
}

// Classify indexes both models, excluding metadata keys, and returns
// missing/redundant/duplicate key sets in sorted order. O(n) over both
// entry lists.
func Classify(source, target *resource.Model) Result {
	srcValues := source.Values()
	tgtValues := target.Values()

	var res Result

	for key, srcVal := range srcValues {
		// Blank source strings carry nothing to translate.
		if strings.TrimSpace(srcVal) == "" {
			continue
		}
		tgtVal, ok := tgtValues[key]
		if !ok || strings.TrimSpace(tgtVal) == "" {
			res.Missing = append(res.Missing, key)
		}
	}

	for key := range tgtValues {
		if _, ok := srcValues[key]; !ok {
			res.Redundant = append(res.Redundant, key)
		}
	}

	seen := make(map[string]bool)
	for _, key := range source.Duplicates {
		if !seen[key] {
			seen[key] = true
			res.Duplicates = append(res.Duplicates, key)
		}
	}
	for _, key := range target.Duplicates {
		if !seen[key] {
			seen[key] = true
			res.Duplicates = append(res.Duplicates, key)
		}
	}

	sort.Strings(res.Missing)
	sort.Strings(res.Redundant)
	sort.Strings(res.Duplicates)
	return res
}
