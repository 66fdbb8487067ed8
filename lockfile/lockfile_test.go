package lockfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	h1 := Hash("hello world")
	h2 := Hash("hello world")
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
	h3 := Hash("different")
	if h1 == h3 {
		t.Errorf("Hash collision: %s == %s", h1, h3)
	}
}

func TestEntryContent(t *testing.T) {
	c1 := EntryContent("key1", "value1")
	c2 := EntryContent("key1", "value2")
	c3 := EntryContent("key2", "value1")
	if c1 == c2 {
		t.Error("different values should produce different content")
	}
	if c1 == c3 {
		t.Error("different keys should produce different content")
	}
}

func TestLoadNonExistent(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Checksums) != 0 {
		t.Errorf("Checksums not empty: %v", lf.Checksums)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lf.UpdateBatch("ru", map[string]string{
		"greeting.hello": "Hello",
		"greeting.bye":   "Goodbye",
	})
	lf.UpdateBatch("de", map[string]string{
		"greeting.hello": "Hello",
	})

	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Lock file not created at %s", path)
	}

	lf2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}

	locales, keys := lf2.Stats()
	if locales != 2 {
		t.Errorf("locales = %d, want 2", locales)
	}
	if keys != 3 {
		t.Errorf("keys = %d, want 3", keys)
	}
}

func TestChangedKeys(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	// Nothing tracked yet: no changes reported, new keys are the
	// classifier's job.
	changed := lf.ChangedKeys("ru", map[string]string{"greeting.hello": "Hello"})
	if len(changed) != 0 {
		t.Errorf("changed for untracked locale = %v, want none", changed)
	}

	lf.UpdateBatch("ru", map[string]string{
		"greeting.hello": "Hello",
		"greeting.bye":   "Goodbye",
	})

	entries := map[string]string{
		"greeting.hello": "Hello",       // unchanged
		"greeting.bye":   "Bye now",     // source text changed
		"greeting.new":   "Never seen",  // new key, not reported
	}

	changed = lf.ChangedKeys("ru", entries)
	if len(changed) != 1 || changed[0] != "greeting.bye" {
		t.Errorf("changed = %v, want [greeting.bye]", changed)
	}

	// Another locale has its own baseline.
	changed = lf.ChangedKeys("de", entries)
	if len(changed) != 0 {
		t.Errorf("changed for de = %v, want none", changed)
	}
}

func TestChangedKeysSorted(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}
	lf.UpdateBatch("ru", map[string]string{"b": "1", "a": "2", "c": "3"})

	changed := lf.ChangedKeys("ru", map[string]string{"b": "x", "a": "y", "c": "z"})
	want := []string{"a", "b", "c"}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Fatalf("changed = %v, want %v", changed, want)
		}
	}
}

func TestClean(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	lf.UpdateBatch("ru", map[string]string{
		"keep.one": "1",
		"keep.two": "2",
		"gone":     "3",
	})

	lf.Clean("ru", []string{"keep.one", "keep.two"})

	_, keys := lf.Stats()
	if keys != 2 {
		t.Errorf("keys after Clean = %d, want 2", keys)
	}
	if len(lf.ChangedKeys("ru", map[string]string{"gone": "changed"})) != 0 {
		t.Error("cleaned key should no longer be tracked")
	}
}

func TestLocales(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	lf.UpdateBatch("de", map[string]string{"k": "v"})
	lf.UpdateBatch("ru", map[string]string{"k": "v"})
	lf.UpdateBatch("ar", map[string]string{"k": "v"})

	locales := lf.Locales()
	expected := []string{"ar", "de", "ru"}
	if len(locales) != len(expected) {
		t.Fatalf("locales len = %d, want %d", len(locales), len(expected))
	}
	for i, want := range expected {
		if locales[i] != want {
			t.Errorf("locales[%d] = %q, want %q", i, locales[i], want)
		}
	}
}

func TestSummary(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	if lf.Summary() != "empty" {
		t.Errorf("empty summary = %q, want %q", lf.Summary(), "empty")
	}

	lf.UpdateBatch("ru", map[string]string{"k": "v"})
	lf.UpdateBatch("de", map[string]string{"k": "v"})
	if lf.Summary() == "empty" {
		t.Error("summary should not be empty after updates")
	}
}

func TestConcurrentAccess(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			key := "key" + string(rune('0'+n))
			lf.UpdateBatch("ru", map[string]string{key: "value"})
			lf.ChangedKeys("ru", map[string]string{key: "value"})
			lf.Stats()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	_, keys := lf.Stats()
	if keys != 10 {
		t.Errorf("keys after concurrent writes = %d, want 10", keys)
	}
}
