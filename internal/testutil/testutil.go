// Package testutil provides archive builders and filesystem helpers for tests.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// Snapshot describes a directory tree on disk: regular files map to their
// contents, directories map to "/", and symlinks map to "-> target".
type Snapshot map[string]string

// ReadSnapshot walks root and records every entry below it, keyed by
// slash-separated relative path.
func ReadSnapshot(tb testing.TB, root string) Snapshot {
	tb.Helper()

	snap := Snapshot{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			snap[rel] = "-> " + filepath.ToSlash(target)
		case d.IsDir():
			snap[rel] = "/"
		default:
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			snap[rel] = string(content)
		}
		return nil
	})
	if err != nil {
		tb.Fatalf("read snapshot of %s: %v", root, err)
	}
	return snap
}

// ReadFile returns the content of a file below root, failing the test on error.
func ReadFile(tb testing.TB, root, rel string) string {
	tb.Helper()

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		tb.Fatalf("read %s: %v", rel, err)
	}
	return string(content)
}
