// Package sink materializes archive entries on the local filesystem.
package sink

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// Permission bits used for extracted entries.
const (
	DirMode  fs.FileMode = 0o755
	FileMode fs.FileMode = 0o644
	ExecMode fs.FileMode = 0o755
)

// Committer is a writer that can be committed or discarded.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content visible at its path.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}

// FileSink writes entries below a destination directory.
//
// All paths are resolved through an os.Root, so entries cannot escape the
// destination. By default files are written in place with create-or-truncate
// semantics; with atomic writes enabled they are staged in a temporary file
// in the same directory and renamed on Commit.
type FileSink struct {
	destDir      string
	root         *os.Root
	atomic       bool
	preserveMode bool
}

// Option configures a FileSink.
type Option func(*FileSink)

// WithAtomicWrites stages files in temporary files and renames them into
// place on Commit.
func WithAtomicWrites(enabled bool) Option {
	return func(s *FileSink) {
		s.atomic = enabled
	}
}

// WithPreserveMode applies ExecMode or FileMode to every written file
// according to its executable flag, replacing whatever mode an existing file
// had.
func WithPreserveMode(preserve bool) Option {
	return func(s *FileSink) {
		s.preserveMode = preserve
	}
}

// Open creates destDir and any missing ancestors, then opens it as the sink's
// root. The caller must Close the sink.
func Open(destDir string, opts ...Option) (*FileSink, error) {
	abs, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("resolve destination %s: %w", destDir, err)
	}
	if err := os.MkdirAll(abs, DirMode); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", destDir, err)
	}

	s := &FileSink{
		destDir: abs,
		root:    root,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the absolute destination directory.
func (s *FileSink) Dir() string {
	return s.destDir
}

// Close releases the destination root.
func (s *FileSink) Close() error {
	return s.root.Close()
}

// Mkdir creates the directory rel and any missing parents. Existing
// directories are left untouched; a symlink at rel is replaced.
func (s *FileSink) Mkdir(rel string) error {
	if err := s.removeSymlink(filepath.FromSlash(rel)); err != nil {
		return err
	}
	if err := s.root.MkdirAll(filepath.FromSlash(rel), DirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", rel, err)
	}
	return nil
}

// WriteFile writes content to rel, replacing any previous content.
func (s *FileSink) WriteFile(rel string, content []byte, executable bool) error {
	c, err := s.Writer(rel, executable)
	if err != nil {
		return err
	}
	if _, err := c.Write(content); err != nil {
		_ = c.Discard() //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return c.Commit()
}

// Writer returns a Committer for the file rel. The parent directory must
// already exist.
func (s *FileSink) Writer(rel string, executable bool) (Committer, error) {
	destRel := filepath.FromSlash(rel)
	mode := FileMode
	if executable {
		mode = ExecMode
	}

	if !s.atomic {
		// Opening a link would write through to its target.
		if err := s.removeSymlink(destRel); err != nil {
			return nil, err
		}
		file, err := s.root.OpenFile(destRel, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
		if err != nil {
			return nil, fmt.Errorf("create file %s: %w", rel, err)
		}
		return &directCommitter{
			destRel: destRel,
			file:    file,
			mode:    mode,
			sink:    s,
		}, nil
	}

	tempFile, tempRel, err := createTempFile(s.root, filepath.Dir(destRel), ".asar-")
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", rel, err)
	}
	return &fileCommitter{
		destRel:  destRel,
		tempFile: tempFile,
		tempRel:  tempRel,
		mode:     mode,
		sink:     s,
	}, nil
}

// Symlink creates a symbolic link at rel pointing to target, replacing any
// existing file or link.
//
// The target is resolved against the link's directory within the
// destination; components that would climb out of it are clamped at the
// destination root, and the link is written as a relative path to the
// resolved location.
func (s *FileSink) Symlink(rel, target string) error {
	linkRel := filepath.FromSlash(rel)
	linkDir := filepath.Dir(filepath.Join(s.destDir, linkRel))

	unsafe := filepath.FromSlash(target)
	if !filepath.IsAbs(unsafe) {
		unsafe = filepath.Join(filepath.Dir(linkRel), unsafe)
	}
	resolved, err := securejoin.SecureJoin(s.destDir, unsafe)
	if err != nil {
		return fmt.Errorf("sanitise symlink target %q: %w", target, err)
	}
	linkTarget, err := filepath.Rel(linkDir, resolved)
	if err != nil {
		return fmt.Errorf("sanitise symlink target %q: %w", target, err)
	}

	if err := s.root.Remove(linkRel); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", rel, err)
	}
	if err := s.root.Symlink(linkTarget, linkRel); err != nil {
		return fmt.Errorf("create symlink %s: %w", rel, err)
	}
	return nil
}

// removeSymlink removes rel if it is a symbolic link. Other entries are left
// for the caller to overwrite.
func (s *FileSink) removeSymlink(rel string) error {
	info, err := s.root.Lstat(rel)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return nil
	}
	if err := s.root.Remove(rel); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replace symlink %s: %w", filepath.ToSlash(rel), err)
	}
	return nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destRel  string
	tempFile *os.File
	tempRel  string
	mode     fs.FileMode
	sink     *FileSink
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file, applies the mode, and renames to the final path.
func (c *fileCommitter) Commit() error {
	root := c.sink.root
	if err := c.tempFile.Close(); err != nil {
		_ = root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}

	// Temp files are created owner-only.
	if err := root.Chmod(c.tempRel, c.mode); err != nil {
		_ = root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("chmod: %w", err)
	}

	if err := root.Rename(c.tempRel, c.destRel); err != nil {
		_ = root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destRel, err)
	}
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	return c.sink.root.Remove(c.tempRel)
}

// directCommitter writes directly to the final path.
type directCommitter struct {
	destRel string
	file    *os.File
	mode    fs.FileMode
	sink    *FileSink
}

// Write implements io.Writer.
func (c *directCommitter) Write(p []byte) (int, error) {
	return c.file.Write(p)
}

// Commit closes the file and applies the mode when requested.
func (c *directCommitter) Commit() error {
	if err := c.file.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if c.sink.preserveMode {
		if err := c.sink.root.Chmod(c.destRel, c.mode); err != nil {
			return fmt.Errorf("chmod: %w", err)
		}
	}
	return nil
}

// Discard closes and removes the file.
func (c *directCommitter) Discard() error {
	_ = c.file.Close() //nolint:errcheck // best-effort cleanup
	return c.sink.root.Remove(c.destRel)
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
