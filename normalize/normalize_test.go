package normalize

import (
	"reflect"
	"testing"

	"github.com/l10nbox/l10nbox/classify"
	"github.com/l10nbox/l10nbox/resource"
)

func keysOf(m *resource.Model) []string {
	keys := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		keys[i] = e.Key
	}
	return keys
}

func TestNormalizeOrdering(t *testing.T) {
	m := resource.NewModel("en", resource.RoleSource)
	m.Append(resource.Entry{Key: "zebra.last", Value: "z"})
	m.Append(resource.Entry{Key: "@@x_meta", RawValue: []byte(`"m"`)})
	m.Append(resource.Entry{Key: "menu_open", Value: "Open"})
	m.Append(resource.Entry{Key: "@@locale", RawValue: []byte(`"en"`)})
	m.Append(resource.Entry{Key: "@@author", RawValue: []byte(`"team"`)})
	m.Append(resource.Entry{Key: "menu.close", Value: "Close"})
	m.Append(resource.Entry{Key: "apple", Value: "a"})

	Normalize(m, true)

	want := []string{
		"@@locale",  // always first
		"@@author",  // metadata, lexicographic
		"@@x_meta",
		"apple",      // group "apple"
		"menu.close", // group "menu" ('.' wins over '_')
		"menu_open",
		"zebra.last",
	}
	if got := keysOf(m); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v\nwant    %v", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	m := resource.NewModel("en", resource.RoleSource)
	m.Append(resource.Entry{Key: "b.two", Value: "2"})
	m.Append(resource.Entry{Key: "a.one", Value: "1"})
	m.Append(resource.Entry{Key: "@@locale", RawValue: []byte(`"en"`)})

	Normalize(m, true)
	first := keysOf(m)
	Normalize(m, true)
	second := keysOf(m)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("not idempotent: %v then %v", first, second)
	}
}

func TestNormalizeByteOrderNotLocaleOrder(t *testing.T) {
	// 'B' < 'a' in byte order; a locale-aware sort would interleave.
	m := resource.NewModel("en", resource.RoleSource)
	m.Append(resource.Entry{Key: "apple", Value: "1"})
	m.Append(resource.Entry{Key: "Banana", Value: "2"})

	Normalize(m, true)

	if got := keysOf(m); !reflect.DeepEqual(got, []string{"Banana", "apple"}) {
		t.Errorf("order = %v, want [Banana apple]", got)
	}
}

func TestNormalizeStripsDerivedComments(t *testing.T) {
	m := resource.NewModel("de", resource.RoleDerived)
	m.Append(resource.Entry{Key: "a", Value: "1", Comments: []string{"// doc"}})
	m.Tail = []string{"// trailing"}

	Normalize(m, false)

	if m.Entries[0].Comments != nil {
		t.Errorf("derived comments survived: %v", m.Entries[0].Comments)
	}
	if m.Tail != nil {
		t.Errorf("derived tail survived: %v", m.Tail)
	}
	if m.Role != resource.RoleDerived {
		t.Errorf("role = %v", m.Role)
	}
}

func TestNormalizeKeepsSourceComments(t *testing.T) {
	m := resource.NewModel("en", resource.RoleSource)
	m.Append(resource.Entry{Key: "a", Value: "1", Comments: []string{"// doc"}})

	Normalize(m, true)

	if len(m.Entries[0].Comments) != 1 {
		t.Errorf("source comments lost: %v", m.Entries[0].Comments)
	}
}

func TestStripRedundant(t *testing.T) {
	m := resource.NewModel("de", resource.RoleDerived)
	m.Append(resource.Entry{Key: "@@locale", RawValue: []byte(`"de"`)})
	m.Append(resource.Entry{Key: "keep", Value: "1"})
	m.Append(resource.Entry{Key: "drop", Value: "2"})

	removed := StripRedundant(m, classify.Result{Redundant: []string{"drop", "@@locale", "absent"}})

	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := m.Get("drop"); ok {
		t.Error("drop should be gone")
	}
	if _, ok := m.Get("keep"); !ok {
		t.Error("keep should remain")
	}
	if len(m.Entries) != 2 {
		t.Errorf("entries = %d, want 2 (metadata retained)", len(m.Entries))
	}
}
