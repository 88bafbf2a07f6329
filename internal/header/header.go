// Package header decodes the preamble and JSON header of an archive into a
// classified metadata tree.
//
// The on-disk layout is:
//
//	[12 bytes framing][u32 LE header size][header JSON][pad to 4 bytes][data blob]
//
// The framing words are length fields of the container that are decoded for
// inspection but never validated.
package header

import (
	"bytes"
	_ "crypto/sha256" // digest.Canonical
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/asar/internal/pathutil"
	"github.com/meigma/asar/internal/sizing"
)

const (
	// FramingSize is the length of the discarded framing words.
	FramingSize = 12

	// PrefixSize is the length of the framing plus the header size field.
	PrefixSize = FramingSize + 4

	// Alignment is the boundary the header text is padded to.
	Alignment = 4
)

// Preamble holds the framing words that precede the header size.
type Preamble struct {
	// PickleSize is the payload size of the outer size record (always 4 in
	// archives written by the reference packer).
	PickleSize uint32

	// HeaderPickleSize is the byte length of the header record that follows
	// the first eight bytes.
	HeaderPickleSize uint32

	// PayloadSize is the payload length of the header record.
	PayloadSize uint32
}

// Header is a decoded archive header.
type Header struct {
	Preamble Preamble

	// Size is the advertised byte length of the JSON text.
	Size uint32

	// JSON is the raw header text.
	JSON []byte

	// Files is the root directory's children.
	Files Tree
}

// DataOffset returns the position of the data blob within the archive.
func (h *Header) DataOffset() int64 {
	return int64(PrefixSize) + int64(h.Size) + int64(sizing.Pad(uint64(h.Size), Alignment)) //nolint:gosec // pad < Alignment
}

// Digest returns the SHA-256 digest of the raw header text.
func (h *Header) Digest() digest.Digest {
	return digest.FromBytes(h.JSON)
}

// Read consumes the preamble, header text, and padding from r, leaving r
// positioned at the first byte of the data blob.
//
// Short reads are reported as wrapped io errors, invalid UTF-8 as ErrDecode,
// and invalid JSON or a wrong top-level shape as ErrFormat. Invalid entries
// do not fail Read; see Parse.
func Read(r io.Reader) (*Header, error) {
	var prefix [PrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("asar: read preamble: %w", err)
	}

	h := &Header{
		Preamble: Preamble{
			PickleSize:       binary.LittleEndian.Uint32(prefix[0:4]),
			HeaderPickleSize: binary.LittleEndian.Uint32(prefix[4:8]),
			PayloadSize:      binary.LittleEndian.Uint32(prefix[8:12]),
		},
		Size: binary.LittleEndian.Uint32(prefix[12:16]),
	}

	text, err := sizing.ReadExactly(r, uint64(h.Size))
	if err != nil {
		return nil, fmt.Errorf("asar: read header (%d bytes): %w", h.Size, err)
	}

	files, err := Parse(text)
	if err != nil {
		return nil, err
	}
	h.JSON = text
	h.Files = files

	if _, err := sizing.ReadExactly(r, sizing.Pad(uint64(h.Size), Alignment)); err != nil {
		return nil, fmt.Errorf("asar: read header padding: %w", err)
	}
	return h, nil
}

// Parse decodes header text and classifies every entry.
//
// Only the text encoding and the top-level shape are checked here. An entry
// whose own fields are invalid is kept in the tree with Err set so the rest
// of the header stays readable; extraction reports it.
func Parse(text []byte) (Tree, error) {
	if !utf8.Valid(text) {
		return nil, ErrDecode
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(text, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: header is not an object", ErrFormat)
	}
	raw, ok := top["files"]
	if !ok {
		return nil, fmt.Errorf("%w: missing files object", ErrFormat)
	}
	if !isObject(raw) {
		return nil, fmt.Errorf("%w: files is not an object", ErrFormat)
	}
	return parseTree("", raw)
}

func parseTree(parent string, raw json.RawMessage) (Tree, error) {
	var children map[string]json.RawMessage
	if err := json.Unmarshal(raw, &children); err != nil || children == nil {
		return nil, Malformed(parent, "files is not an object")
	}

	tree := make(Tree, len(children))
	for name, child := range children {
		tree[name] = parseEntry(pathutil.Join(parent, name), child)
	}
	return tree, nil
}

// parseEntry classifies one node by which fields it carries: files makes a
// directory, link makes a symlink, anything else is a file. Fields that
// cannot be decoded leave the entry with only its Kind and Err set.
func parseEntry(path string, raw json.RawMessage) Entry {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Entry{Kind: KindFile, Err: Malformed(path, "entry is not an object")}
	}

	e := Entry{Kind: KindFile}
	if _, ok := fields["files"]; ok {
		e.Kind = KindDirectory
	} else if _, ok := fields["link"]; ok {
		e.Kind = KindSymlink
	}
	if err := decodeFields(&e, path, fields); err != nil {
		return Entry{Kind: e.Kind, Err: err}
	}
	return e
}

func decodeFields(e *Entry, path string, fields map[string]json.RawMessage) error {
	if v, ok := fields["unpacked"]; ok {
		if err := json.Unmarshal(v, &e.Unpacked); err != nil {
			return Malformed(path, "unpacked is not a boolean")
		}
	}

	switch e.Kind {
	case KindDirectory:
		children, err := parseTree(path, fields["files"])
		if err != nil {
			return err
		}
		e.Children = children
		return nil
	case KindSymlink:
		v := fields["link"]
		if err := json.Unmarshal(v, &e.Link); err != nil || !isString(v) {
			return Malformed(path, "link is not a string")
		}
		return nil
	}

	size, ok := fields["size"]
	if !ok {
		return Malformed(path, "missing size")
	}
	n, err := parseUint(size)
	if err != nil {
		return Malformed(path, "size %s is not an unsigned integer", size)
	}
	e.Size = n

	if offset, ok := fields["offset"]; ok {
		n, err := parseUint(offset)
		if err != nil {
			return Malformed(path, "offset %s is not an unsigned integer", offset)
		}
		e.Offset = n
	} else if !e.Unpacked {
		return Malformed(path, "missing offset")
	}

	if v, ok := fields["executable"]; ok {
		if err := json.Unmarshal(v, &e.Executable); err != nil {
			return Malformed(path, "executable is not a boolean")
		}
	}
	if v, ok := fields["integrity"]; ok {
		var integrity Integrity
		if err := json.Unmarshal(v, &integrity); err != nil || !isObject(v) {
			return Malformed(path, "integrity is not an object")
		}
		e.Integrity = &integrity
	}
	return nil
}

// parseUint accepts a non-negative integer written either as a JSON number
// or as a decimal string. Offsets are written as strings because they can
// exceed the exact integer range of a double.
func parseUint(raw json.RawMessage) (uint64, error) {
	s := string(bytes.TrimSpace(raw))
	if isString(raw) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	}
	return strconv.ParseUint(s, 10, 64)
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}
