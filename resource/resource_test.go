package resource

import (
	"reflect"
	"testing"
)

func TestGroupPrefix(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{"settings.title", "settings"},
		{"settings.advanced.label", "settings"},
		{"menu_open", "menu"},
		{"settings.net_proxy", "settings"},
		{"ok", "ok"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := GroupPrefix(tc.key); got != tc.want {
			t.Errorf("GroupPrefix(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestIsMetaKey(t *testing.T) {
	if !IsMetaKey("@@locale") {
		t.Error("@@locale should be metadata")
	}
	if IsMetaKey("locale") {
		t.Error("locale should not be metadata")
	}
	if IsMetaKey("a@@b") {
		t.Error("a@@b should not be metadata")
	}
}

func TestAppendTracksDuplicates(t *testing.T) {
	m := NewModel("en", RoleSource)
	m.Append(Entry{Key: "greeting", Value: "Hello"})
	m.Append(Entry{Key: "farewell", Value: "Bye"})
	m.Append(Entry{Key: "greeting", Value: "Hi"})

	if len(m.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(m.Entries))
	}
	// First occurrence wins.
	if val, _ := m.Get("greeting"); val != "Hello" {
		t.Errorf("greeting = %q, want %q", val, "Hello")
	}
	if !reflect.DeepEqual(m.Duplicates, []string{"greeting"}) {
		t.Errorf("Duplicates = %v, want [greeting]", m.Duplicates)
	}
}

func TestGetSkipsMetadata(t *testing.T) {
	m := NewModel("en", RoleSource)
	m.Append(Entry{Key: "@@locale", RawValue: []byte(`"en"`)})
	m.Append(Entry{Key: "greeting", Value: "Hello"})

	if _, ok := m.Get("@@locale"); ok {
		t.Error("Get should not return metadata entries")
	}
	if val, ok := m.Get("greeting"); !ok || val != "Hello" {
		t.Errorf("Get(greeting) = %q, %v", val, ok)
	}
}

func TestSetUpdatesOrAppends(t *testing.T) {
	m := NewModel("de", RoleDerived)
	m.Append(Entry{Key: "greeting", Value: "Hallo"})

	m.Set("greeting", "Moin")
	if val, _ := m.Get("greeting"); val != "Moin" {
		t.Errorf("after Set, greeting = %q, want %q", val, "Moin")
	}

	m.Set("farewell", "Tschüss")
	if len(m.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(m.Entries))
	}
	if val, _ := m.Get("farewell"); val != "Tschüss" {
		t.Errorf("farewell = %q", val)
	}
}

func TestDeleteReindexes(t *testing.T) {
	m := NewModel("en", RoleSource)
	m.Append(Entry{Key: "a", Value: "1"})
	m.Append(Entry{Key: "b", Value: "2"})
	m.Append(Entry{Key: "c", Value: "3"})

	if !m.Delete("b") {
		t.Fatal("Delete(b) = false, want true")
	}
	if m.Delete("b") {
		t.Error("second Delete(b) = true, want false")
	}

	// The index must still resolve the shifted entries.
	if val, ok := m.Get("c"); !ok || val != "3" {
		t.Errorf("after delete, Get(c) = %q, %v", val, ok)
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Keys = %v, want [a c]", got)
	}
}

func TestStats(t *testing.T) {
	m := NewModel("de", RoleDerived)
	m.Append(Entry{Key: "@@locale", RawValue: []byte(`"de"`)})
	m.Append(Entry{Key: "a", Value: "translated"})
	m.Append(Entry{Key: "b", Value: ""})
	m.Append(Entry{Key: "c", Value: "   "})

	total, translated := m.Stats()
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if translated != 1 {
		t.Errorf("translated = %d, want 1", translated)
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := NewModel("en", RoleSource)
	m.Header = []string{"/* header */"}
	m.Append(Entry{Key: "a", Value: "1", Comments: []string{"// first"}})

	cp := m.Clone()
	cp.Set("a", "changed")
	cp.Entries[0].Comments[0] = "// mutated"
	cp.Header[0] = "gone"

	if val, _ := m.Get("a"); val != "1" {
		t.Error("clone mutation leaked into original value")
	}
	if m.Entries[0].Comments[0] != "// first" {
		t.Error("clone mutation leaked into original comments")
	}
	if m.Header[0] != "/* header */" {
		t.Error("clone mutation leaked into original header")
	}
}
