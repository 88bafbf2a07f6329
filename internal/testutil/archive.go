package testutil

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/meigma/asar/internal/header"
	"github.com/meigma/asar/internal/sizing"
)

// EncodeHeader assembles an archive from raw header text and a data blob,
// using the framing written by the reference packer.
//
// The text is written as-is, so tests can feed invalid JSON or invalid UTF-8.
func EncodeHeader(tb testing.TB, text []byte, data []byte) []byte {
	tb.Helper()

	n := uint32(len(text)) //nolint:gosec // test headers are small
	pad := uint32(sizing.Pad(uint64(n), header.Alignment))

	var buf bytes.Buffer
	buf.Grow(header.PrefixSize + len(text) + int(pad) + len(data))
	for _, word := range []uint32{4, 8 + n + pad, 4 + n + pad, n} {
		_ = binary.Write(&buf, binary.LittleEndian, word) //nolint:errcheck // bytes.Buffer never fails
	}
	buf.Write(text)
	buf.Write(make([]byte, pad))
	buf.Write(data)
	return buf.Bytes()
}

// BuildArchive encodes tree and data into archive bytes.
func BuildArchive(tb testing.TB, tree header.Tree, data []byte) []byte {
	tb.Helper()

	text, err := json.Marshal(struct {
		Files header.Tree `json:"files"`
	}{Files: tree})
	if err != nil {
		tb.Fatalf("marshal header: %v", err)
	}
	return EncodeHeader(tb, text, data)
}

// BuildTree lays out files, keyed by slash-separated path, into a tree and
// the matching data blob. Contents are concatenated in path order and
// intermediate directories are created as needed.
func BuildTree(tb testing.TB, files map[string][]byte) (header.Tree, []byte) {
	tb.Helper()

	root := header.Tree{}
	var data []byte
	for _, path := range slices.Sorted(maps.Keys(files)) {
		parts := strings.Split(path, "/")
		dir := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := dir[part]
			if !ok {
				child = header.Entry{Kind: header.KindDirectory, Children: header.Tree{}}
				dir[part] = child
			}
			if child.Kind != header.KindDirectory {
				tb.Fatalf("build tree: %q is both a file and a directory", part)
			}
			dir = child.Children
		}
		content := files[path]
		dir[parts[len(parts)-1]] = header.Entry{
			Kind:   header.KindFile,
			Offset: uint64(len(data)),
			Size:   uint64(len(content)),
		}
		data = append(data, content...)
	}
	return root, data
}

// BuildArchiveFromFiles is BuildTree followed by BuildArchive.
func BuildArchiveFromFiles(tb testing.TB, files map[string][]byte) []byte {
	tb.Helper()

	tree, data := BuildTree(tb, files)
	return BuildArchive(tb, tree, data)
}
