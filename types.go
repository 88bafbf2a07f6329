package asar

import "github.com/meigma/asar/internal/header"

// --- Re-exports from internal/header ---

// Header is a decoded archive header.
type Header = header.Header

// Preamble holds the framing words that precede the header size.
type Preamble = header.Preamble

// Tree maps entry names to entries.
type Tree = header.Tree

// Entry is one named node of the metadata tree.
type Entry = header.Entry

// Kind identifies which variant an Entry holds.
type Kind = header.Kind

// Integrity is the per-file hash metadata some archives record.
type Integrity = header.Integrity

// TreeStats summarises the contents of a tree.
type TreeStats = header.Stats

// WalkFunc is called for every entry visited by Tree.Walk.
type WalkFunc = header.WalkFunc

// EntryError records a failure attributed to one archive entry.
type EntryError = header.EntryError

// Entry kinds.
const (
	KindFile      = header.KindFile
	KindDirectory = header.KindDirectory
	KindSymlink   = header.KindSymlink
)
