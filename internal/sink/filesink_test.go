package sink

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSink(t *testing.T, opts ...Option) *FileSink {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "out", "nested"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesDestination(t *testing.T) {
	t.Parallel()

	s := openSink(t)
	assert.True(t, filepath.IsAbs(s.Dir()))

	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Opening an existing destination is fine.
	again, err := Open(s.Dir())
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestOpen_DestinationIsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
}

func TestFileSink_Mkdir(t *testing.T) {
	t.Parallel()

	s := openSink(t)
	require.NoError(t, s.Mkdir("a/b/c"))
	require.NoError(t, s.Mkdir("a/b/c"), "mkdir must be idempotent")

	info, err := os.Stat(filepath.Join(s.Dir(), "a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, s.WriteFile("a/f", []byte("x"), false))
	require.Error(t, s.Mkdir("a/f"), "a file blocks the directory")
}

func TestFileSink_WriteFileTruncates(t *testing.T) {
	t.Parallel()

	for _, atomic := range []bool{false, true} {
		t.Run(map[bool]string{false: "direct", true: "atomic"}[atomic], func(t *testing.T) {
			t.Parallel()
			s := openSink(t, WithAtomicWrites(atomic))

			require.NoError(t, s.WriteFile("f.txt", []byte("a much longer first version"), false))
			require.NoError(t, s.WriteFile("f.txt", []byte("short"), false))

			got, err := os.ReadFile(filepath.Join(s.Dir(), "f.txt"))
			require.NoError(t, err)
			assert.Equal(t, "short", string(got))

			entries, err := os.ReadDir(s.Dir())
			require.NoError(t, err)
			require.Len(t, entries, 1, "no temp files may remain")
		})
	}
}

func TestFileSink_WriteEmptyFile(t *testing.T) {
	t.Parallel()

	s := openSink(t)
	require.NoError(t, s.WriteFile("empty", nil, false))

	info, err := os.Stat(filepath.Join(s.Dir(), "empty"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestFileSink_PreserveMode(t *testing.T) {
	t.Parallel()

	for _, atomic := range []bool{false, true} {
		t.Run(map[bool]string{false: "direct", true: "atomic"}[atomic], func(t *testing.T) {
			t.Parallel()
			s := openSink(t, WithPreserveMode(true), WithAtomicWrites(atomic))

			require.NoError(t, s.WriteFile("tool", []byte("#!/bin/sh\n"), true))
			require.NoError(t, s.WriteFile("data", []byte("d"), false))

			info, err := os.Stat(filepath.Join(s.Dir(), "tool"))
			require.NoError(t, err)
			assert.Equal(t, ExecMode, info.Mode().Perm())

			info, err = os.Stat(filepath.Join(s.Dir(), "data"))
			require.NoError(t, err)
			assert.Equal(t, FileMode, info.Mode().Perm())
		})
	}
}

func TestFileSink_WriterDiscard(t *testing.T) {
	t.Parallel()

	for _, atomic := range []bool{false, true} {
		t.Run(map[bool]string{false: "direct", true: "atomic"}[atomic], func(t *testing.T) {
			t.Parallel()
			s := openSink(t, WithAtomicWrites(atomic))

			c, err := s.Writer("gone", false)
			require.NoError(t, err)
			_, err = c.Write([]byte("partial"))
			require.NoError(t, err)
			require.NoError(t, c.Discard())

			entries, err := os.ReadDir(s.Dir())
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestFileSink_MissingParent(t *testing.T) {
	t.Parallel()

	s := openSink(t)
	err := s.WriteFile("missing/f", []byte("x"), false)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFileSink_RejectsEscapes(t *testing.T) {
	t.Parallel()

	s := openSink(t)
	require.Error(t, s.WriteFile("../escape", []byte("x"), false))
	require.Error(t, s.Mkdir("../escape-dir"))

	_, err := os.Stat(filepath.Join(filepath.Dir(s.Dir()), "escape"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFileSink_Symlink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rel    string
		target string
		want   string
	}{
		{name: "sibling", rel: "a/link", target: "z.txt", want: "z.txt"},
		{name: "parent", rel: "a/link", target: "../top.txt", want: "../top.txt"},
		{name: "climbs out", rel: "a/link", target: "../../../etc/passwd", want: "../etc/passwd"},
		{name: "absolute", rel: "a/link", target: "/etc/hosts", want: "../etc/hosts"},
		{name: "top level", rel: "link", target: "a/z.txt", want: "a/z.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := openSink(t)
			require.NoError(t, s.Mkdir("a"))
			require.NoError(t, s.Symlink(tt.rel, tt.target))

			got, err := os.Readlink(filepath.Join(s.Dir(), filepath.FromSlash(tt.rel)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, filepath.ToSlash(got))

			resolved := filepath.Clean(filepath.Join(filepath.Dir(filepath.Join(s.Dir(), tt.rel)), got))
			assert.True(t, strings.HasPrefix(resolved, s.Dir()), "link must resolve inside the destination")
		})
	}
}

func TestFileSink_SymlinkReplaces(t *testing.T) {
	t.Parallel()

	s := openSink(t)
	require.NoError(t, s.WriteFile("link", []byte("placeholder"), false))
	require.NoError(t, s.Symlink("link", "one"))
	require.NoError(t, s.Symlink("link", "two"))

	got, err := os.Readlink(filepath.Join(s.Dir(), "link"))
	require.NoError(t, err)
	assert.Equal(t, "two", got)
}

func TestFileSink_WriteReplacesSymlink(t *testing.T) {
	t.Parallel()

	for _, atomic := range []bool{false, true} {
		s := openSink(t, WithAtomicWrites(atomic))
		require.NoError(t, s.WriteFile("target", []byte("original"), false))
		require.NoError(t, s.Symlink("link", "target"))

		require.NoError(t, s.WriteFile("link", []byte("replacement"), false))

		info, err := os.Lstat(filepath.Join(s.Dir(), "link"))
		require.NoError(t, err)
		assert.True(t, info.Mode().IsRegular(), "atomic=%t", atomic)

		got, err := os.ReadFile(filepath.Join(s.Dir(), "link"))
		require.NoError(t, err)
		assert.Equal(t, "replacement", string(got))

		got, err = os.ReadFile(filepath.Join(s.Dir(), "target"))
		require.NoError(t, err)
		assert.Equal(t, "original", string(got), "atomic=%t: link target must be untouched", atomic)
	}
}

func TestFileSink_MkdirReplacesSymlink(t *testing.T) {
	t.Parallel()

	s := openSink(t)
	require.NoError(t, s.Mkdir("real"))
	require.NoError(t, s.Symlink("dir", "real"))

	require.NoError(t, s.Mkdir("dir"))
	require.NoError(t, s.WriteFile("dir/f", []byte("x"), false))

	info, err := os.Lstat(filepath.Join(s.Dir(), "dir"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(s.Dir(), "real", "f"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
