package asar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/asar/internal/header"
	"github.com/meigma/asar/internal/pathutil"
	"github.com/meigma/asar/internal/sink"
	"github.com/meigma/asar/internal/sizing"
)

// GetHeaders consumes the preamble, header text, and padding from r and
// returns the decoded header. r is left positioned at the data blob.
//
// A stream that ends early fails with a wrapped io.ErrUnexpectedEOF (or
// io.EOF for an empty stream), invalid UTF-8 with ErrDecode, and invalid JSON
// or a missing top-level files object with ErrFormat. Entries whose fields
// are missing or have the wrong types do not fail GetHeaders: they carry an
// *EntryError wrapping ErrMalformed in Entry.Err, which UnpackFiles returns
// when it reaches them.
func GetHeaders(r io.Reader) (*Header, error) {
	return header.Read(r)
}

// UnpackFiles recreates files under basePath, reading file contents from
// data.
//
// basePath and any missing ancestors are created. Entries are written
// depth-first with directories before their children; existing files are
// truncated and rewritten, so extracting the same archive twice yields the
// same result. data is only ever sub-sliced, never copied or modified.
//
// The first failure aborts the walk and is returned as an *EntryError naming
// the entry; entries already written are left in place.
func UnpackFiles(files Tree, basePath string, data []byte, opts ...Option) error {
	return unpack(files, basePath, data, newConfig(opts))
}

func unpack(files Tree, basePath string, data []byte, cfg *config) error {
	s, err := sink.Open(basePath,
		sink.WithAtomicWrites(cfg.atomic),
		sink.WithPreserveMode(cfg.preserveMode),
	)
	if err != nil {
		return fmt.Errorf("asar: %w", err)
	}
	defer s.Close()

	stats := files.Stats()
	u := &unpacker{
		cfg:        cfg,
		log:        cfg.logger.With("dest", s.Dir()),
		sink:       s,
		data:       data,
		filesTotal: stats.Files + stats.Symlinks,
		bytesTotal: stats.Bytes,
	}
	if cfg.workers > 1 {
		u.group, u.ctx = errgroup.WithContext(context.Background())
		u.group.SetLimit(cfg.workers)
	}

	err = u.unpackTree("", files)
	if u.group != nil {
		if waitErr := u.group.Wait(); waitErr != nil && (err == nil || errors.Is(err, errWorkerFailed)) {
			err = waitErr
		}
	}
	if err != nil {
		return err
	}

	u.log.Debug("unpacked archive",
		"files", u.filesDone.Load(),
		"bytes", u.bytesDone.Load(),
		"skipped", u.skipped,
	)
	return nil
}

// errWorkerFailed stops the walk once a concurrent write has failed; the
// worker's own error is returned instead.
var errWorkerFailed = errors.New("asar: worker failed")

// unpacker carries the state of one extraction walk.
type unpacker struct {
	cfg  *config
	log  *slog.Logger
	sink *sink.FileSink
	data []byte

	// group is nil for sequential extraction.
	group *errgroup.Group
	ctx   context.Context

	filesTotal int
	bytesTotal uint64
	filesDone  atomic.Int64
	bytesDone  atomic.Uint64
	skipped    int
}

func (u *unpacker) unpackTree(parent string, tree Tree) error {
	for _, name := range slices.Sorted(maps.Keys(tree)) {
		entry := tree[name]
		path := pathutil.Join(parent, name)
		if !pathutil.ValidName(name) {
			return header.Malformed(path, "invalid entry name %q", name)
		}
		if entry.Err != nil {
			return entry.Err
		}

		switch entry.Kind {
		case KindDirectory:
			if err := u.sink.Mkdir(path); err != nil {
				return &EntryError{Path: path, Err: err}
			}
			if err := u.unpackTree(path, entry.Children); err != nil {
				return err
			}

		case KindSymlink:
			if u.cfg.symlinks {
				// Links are created in walk order so target resolution only
				// sees links that precede them.
				if err := u.sink.Symlink(path, entry.Link); err != nil {
					return &EntryError{Path: path, Err: err}
				}
				u.done(path, 0)
				continue
			}
			content := []byte(entry.Link)
			if err := u.dispatch(path, 0, func() error {
				return u.sink.WriteFile(path, content, false)
			}); err != nil {
				return err
			}

		case KindFile:
			if entry.Unpacked {
				if !u.cfg.skipUnpacked {
					return &EntryError{Path: path, Err: ErrUnpacked}
				}
				u.log.Warn("skipping entry stored outside the archive", "path", path)
				u.skipped++
				continue
			}
			start, end, ok := sizing.Range(entry.Offset, entry.Size, len(u.data))
			if !ok {
				return header.Malformed(path, "range [%d, +%d) exceeds data blob of %d bytes",
					entry.Offset, entry.Size, len(u.data))
			}
			content := u.data[start:end]
			executable := entry.Executable
			if err := u.dispatch(path, entry.Size, func() error {
				return u.sink.WriteFile(path, content, executable)
			}); err != nil {
				return err
			}

		default:
			return header.Malformed(path, "unknown entry kind %d", entry.Kind)
		}
	}
	return nil
}

// dispatch runs write for the entry at path, inline when sequential or on
// the worker group otherwise. size is the number of blob bytes written.
func (u *unpacker) dispatch(path string, size uint64, write func() error) error {
	run := func() error {
		if err := write(); err != nil {
			return &EntryError{Path: path, Err: err}
		}
		u.done(path, size)
		return nil
	}
	if u.group == nil {
		return run()
	}
	if u.ctx.Err() != nil {
		return errWorkerFailed
	}
	u.group.Go(run)
	return nil
}

func (u *unpacker) done(path string, size uint64) {
	files := u.filesDone.Add(1)
	bytes := u.bytesDone.Add(size)
	u.log.Debug("extracted", "path", path, "size", size)
	u.cfg.report(ProgressEvent{
		Stage:      StageExtracting,
		Path:       path,
		BytesDone:  bytes,
		BytesTotal: u.bytesTotal,
		FilesDone:  int(files),
		FilesTotal: u.filesTotal,
	})
}
