package header

import (
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"slices"
	"strconv"

	"github.com/meigma/asar/internal/pathutil"
)

// Kind identifies which variant an Entry holds.
type Kind uint8

// Entry kinds.
const (
	// KindFile is a regular file whose bytes live in the data blob.
	KindFile Kind = iota

	// KindDirectory is a directory with nested children.
	KindDirectory

	// KindSymlink is a symbolic link recorded by its target path.
	KindSymlink
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Integrity is the per-file hash metadata some archives record.
// It is decoded for inspection only and never checked against content.
type Integrity struct {
	Algorithm string   `json:"algorithm"`
	Hash      string   `json:"hash"`
	BlockSize uint32   `json:"blockSize"`
	Blocks    []string `json:"blocks"`
}

// Entry is one named node of the metadata tree.
//
// Kind selects which fields are meaningful: Children for directories,
// Link for symlinks, and Offset, Size, Executable and Integrity for files.
// Unpacked applies to files and directories stored outside the archive.
type Entry struct {
	Kind Kind

	// Children holds the entries of a directory.
	Children Tree

	// Offset is the start of the file's bytes within the data blob.
	Offset uint64

	// Size is the length of the file's bytes within the data blob.
	Size uint64

	// Executable marks files that carried the executable bit when packed.
	Executable bool

	// Unpacked marks entries whose content lives beside the archive
	// rather than in its data blob.
	Unpacked bool

	// Integrity is the optional recorded hash metadata of a file.
	Integrity *Integrity

	// Link is the target path of a symlink.
	Link string

	// Err is set, as an *EntryError wrapping ErrMalformed, when the entry's
	// fields could not be decoded. Only Kind is meaningful then.
	Err error
}

// MarshalJSON encodes the entry in archive header form. Offsets are written
// as decimal strings and sizes as numbers, matching existing archives.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	m := make(map[string]any, 4)
	switch e.Kind {
	case KindDirectory:
		children := e.Children
		if children == nil {
			children = Tree{}
		}
		m["files"] = children
	case KindSymlink:
		m["link"] = e.Link
	default:
		m["size"] = e.Size
		if !e.Unpacked {
			m["offset"] = strconv.FormatUint(e.Offset, 10)
		}
		if e.Executable {
			m["executable"] = true
		}
		if e.Integrity != nil {
			m["integrity"] = e.Integrity
		}
	}
	if e.Unpacked {
		m["unpacked"] = true
	}
	return json.Marshal(m)
}

// Tree maps entry names to entries. Names are unique within one level.
type Tree map[string]Entry

// WalkFunc is called for every entry visited by Tree.Walk. path is the
// slash-separated archive path of the entry.
//
// Returning fs.SkipDir from a directory's call skips its children. Any other
// non-nil error stops the walk and is returned by Walk.
type WalkFunc func(path string, entry Entry) error

// Walk visits every entry depth-first, parents before children. Siblings
// are visited in lexical name order.
func (t Tree) Walk(fn WalkFunc) error {
	return t.walk("", fn)
}

func (t Tree) walk(parent string, fn WalkFunc) error {
	for _, name := range slices.Sorted(maps.Keys(t)) {
		entry := t[name]
		path := pathutil.Join(parent, name)
		if err := fn(path, entry); err != nil {
			if errors.Is(err, fs.SkipDir) && entry.Kind == KindDirectory {
				continue
			}
			return err
		}
		if entry.Kind == KindDirectory {
			if err := entry.Children.walk(path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats summarises the contents of a tree.
type Stats struct {
	Files       int
	Directories int
	Symlinks    int
	Unpacked    int

	// Malformed counts entries with Err set. They are not counted elsewhere.
	Malformed int

	// Bytes is the total size of all packed files.
	Bytes uint64
}

// Stats counts the entries of the tree at every depth.
func (t Tree) Stats() Stats {
	var s Stats
	_ = t.Walk(func(_ string, e Entry) error { //nolint:errcheck // callback never fails
		if e.Err != nil {
			s.Malformed++
			return nil
		}
		switch e.Kind {
		case KindDirectory:
			s.Directories++
		case KindSymlink:
			s.Symlinks++
		default:
			if e.Unpacked {
				s.Unpacked++
				return nil
			}
			s.Files++
			s.Bytes += e.Size
		}
		return nil
	})
	return s
}
