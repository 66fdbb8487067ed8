// Package placeholder extracts and compares substitution tokens that
// must survive translation verbatim: brace variables like {name},
// printf-style specifiers like %1$s, %.2f and %@, and the literal %%.
//
// Comparison is by multiset, not set: "{n} of {n}" legitimately
// repeats a placeholder and the repetition must be preserved.
package placeholder

import (
	"regexp"
	"sort"
	"strings"
)

// tokenRE matches, in one pass:
//
//	{identifier}         brace variables ({name}, {count_2})
//	%<pos$><flags><conv> printf specifiers (%d, %1$s, %.2f, %@, %lld)
//	%%                   the escaped percent literal
var tokenRE = regexp.MustCompile(
	`\{[A-Za-z0-9_.-]+\}` +
		`|%%` +
		`|%(?:\d+\$)?[-+#0]*(?:\d+)?(?:\.\d+)?(?:hh|h|ll|l|q|L|z|t|j)?[@diouxXeEfgGaAcspn]`)

// Extract returns all placeholder tokens of s in order of appearance.
func Extract(s string) []string {
	if s == "" {
		return nil
	}
	return tokenRE.FindAllString(s, -1)
}

// Set is a placeholder multiset keyed by token text.
type Set map[string]int

// NewSet builds the multiset of placeholders in s.
func NewSet(s string) Set {
	set := make(Set)
	for _, tok := range Extract(s) {
		set[tok]++
	}
	return set
}

// Equal reports whether two multisets contain exactly the same tokens
// with the same multiplicities.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for tok, n := range s {
		if other[tok] != n {
			return false
		}
	}
	return true
}

// String renders the multiset as a stable, human-readable token list
// for error messages.
func (s Set) String() string {
	if len(s) == 0 {
		return "(none)"
	}
	toks := make([]string, 0, len(s))
	for tok, n := range s {
		for i := 0; i < n; i++ {
			toks = append(toks, tok)
		}
	}
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

// Verify checks that translated preserves every placeholder of src.
// It returns false when the multisets differ, in which case the
// translation must be rejected and the previous value retained.
func Verify(src, translated string) bool {
	return NewSet(src).Equal(NewSet(translated))
}
