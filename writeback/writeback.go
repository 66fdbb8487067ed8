// Package writeback commits models to disk atomically: serialize
// through the format adapter, write a sibling temporary file, then
// rename over the destination. A reader never observes a partially
// written file; a crash between write and rename leaves the original
// untouched.
package writeback

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/l10nbox/l10nbox/resource"
)

// Commit serializes m via adapter and atomically replaces path.
// The parent directory is created if needed. No backup is retained;
// callers wanting one must copy the file before committing.
//
// Callers must serialize Commit calls per destination path. Different
// paths may be committed concurrently.
func Commit(path string, m *resource.Model, adapter resource.Adapter) error {
	data := adapter.Serialize(m)
	return WriteFile(path, data)
}

// WriteFile atomically replaces path with data via a sibling temp file
// and rename. The temp file lives in the destination directory so the
// rename never crosses a filesystem boundary.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	// Any failure from here on removes the temp file; the destination
	// is only ever touched by the final rename.
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("writing %s: %w", tmpPath, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("syncing %s: %w", tmpPath, err))
	}
	if err := tmp.Close(); err != nil {
		return cleanup(fmt.Errorf("closing %s: %w", tmpPath, err))
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return cleanup(fmt.Errorf("chmod %s: %w", tmpPath, err))
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Changed reports whether committing data to path would modify it.
// Used by dry-run paths and to avoid diff noise from no-op rewrites.
func Changed(path string, data []byte) bool {
	old, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	return string(old) != string(data)
}
