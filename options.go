package asar

import "log/slog"

// Option configures extraction.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	symlinks     bool
	skipUnpacked bool
	preserveMode bool
	atomic       bool
	workers      int
	progress     ProgressFunc
}

func newConfig(opts []Option) *config {
	c := &config{workers: 1}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

func (c *config) report(ev ProgressEvent) {
	if c.progress != nil {
		c.progress(ev)
	}
}

// WithLogger sets the logger for extraction diagnostics.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithSymlinks creates real symbolic links for symlink entries.
//
// By default a symlink entry is written as a regular file whose content is
// the link target. When enabled, targets are resolved inside the destination
// and links that would point outside it are clamped to the destination root.
func WithSymlinks(enabled bool) Option {
	return func(c *config) {
		c.symlinks = enabled
	}
}

// WithSkipUnpacked skips files whose content lives beside the archive.
// By default such entries fail extraction with ErrUnpacked.
func WithSkipUnpacked(skip bool) Option {
	return func(c *config) {
		c.skipUnpacked = skip
	}
}

// WithPreserveMode sets 0755 on executable entries and 0644 on all other
// files, replacing the mode of files that already exist.
// By default new files are created 0644 subject to the umask.
func WithPreserveMode(preserve bool) Option {
	return func(c *config) {
		c.preserveMode = preserve
	}
}

// WithAtomicWrites writes every file to a temporary file in the same
// directory and renames it into place, so a reader never observes a
// partially written file.
func WithAtomicWrites(enabled bool) Option {
	return func(c *config) {
		c.atomic = enabled
	}
}

// WithWorkers sets how many file writes may run concurrently.
// Directories are always created in walk order before their children.
// Values < 2 keep extraction fully sequential (the default).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.workers = n
	}
}

// WithProgress registers a callback for progress updates.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}
