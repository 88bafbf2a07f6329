package header

import (
	"encoding/json"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() Tree {
	return Tree{
		"b.txt": {Kind: KindFile, Offset: 0, Size: 2},
		"a": {Kind: KindDirectory, Children: Tree{
			"z.txt": {Kind: KindFile, Offset: 2, Size: 3},
			"link":  {Kind: KindSymlink, Link: "z.txt"},
			"inner": {Kind: KindDirectory, Children: Tree{
				"n.node": {Kind: KindFile, Size: 10, Unpacked: true},
			}},
		}},
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "directory", KindDirectory.String())
	assert.Equal(t, "symlink", KindSymlink.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestTree_WalkOrder(t *testing.T) {
	t.Parallel()

	var paths []string
	err := sampleTree().Walk(func(path string, _ Entry) error {
		paths = append(paths, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a/inner", "a/inner/n.node", "a/link", "a/z.txt", "b.txt"}, paths)
}

func TestTree_WalkSkipDir(t *testing.T) {
	t.Parallel()

	var paths []string
	err := sampleTree().Walk(func(path string, _ Entry) error {
		paths = append(paths, path)
		if path == "a/inner" {
			return fs.SkipDir
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a/inner", "a/link", "a/z.txt", "b.txt"}, paths)
}

func TestTree_WalkStops(t *testing.T) {
	t.Parallel()

	stop := errors.New("stop")
	var visited int
	err := sampleTree().Walk(func(path string, _ Entry) error {
		visited++
		if path == "a/link" {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 4, visited)
}

func TestTree_Stats(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Stats{Files: 2, Directories: 2, Symlinks: 1, Unpacked: 1, Bytes: 5}, sampleTree().Stats())
	assert.Equal(t, Stats{}, Tree{}.Stats())
}

func TestEntry_MarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{name: "file", entry: Entry{Kind: KindFile, Offset: 5, Size: 3}, want: `{"offset":"5","size":3}`},
		{name: "executable", entry: Entry{Kind: KindFile, Size: 1, Executable: true}, want: `{"executable":true,"offset":"0","size":1}`},
		{name: "unpacked", entry: Entry{Kind: KindFile, Size: 4, Unpacked: true}, want: `{"size":4,"unpacked":true}`},
		{name: "symlink", entry: Entry{Kind: KindSymlink, Link: "a/b"}, want: `{"link":"a/b"}`},
		{name: "empty directory", entry: Entry{Kind: KindDirectory}, want: `{"files":{}}`},
		{
			name:  "directory",
			entry: Entry{Kind: KindDirectory, Children: Tree{"x": {Kind: KindFile, Size: 0}}},
			want:  `{"files":{"x":{"offset":"0","size":0}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := json.Marshal(tt.entry)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestEntry_MarshalJSONMalformed(t *testing.T) {
	t.Parallel()

	bad := Entry{Kind: KindFile, Err: Malformed("d/f", "missing size")}
	_, err := json.Marshal(Tree{"f": bad})
	require.ErrorIs(t, err, ErrMalformed)

	assert.Equal(t, Stats{Malformed: 1}, Tree{"f": bad}.Stats())
}
