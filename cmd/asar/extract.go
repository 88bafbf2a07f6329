package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/meigma/asar"
)

func runExtract(args []string, stdout, stderr io.Writer) error {
	var (
		symlinks     bool
		atomic       bool
		preserveMode bool
		skipUnpacked bool
		workers      int
		verbose      bool
	)

	flagSet := newFlagSet("extract")
	flagSet.BoolVar(&symlinks, "symlinks", false, "create real symbolic links instead of files holding the link target")
	flagSet.BoolVar(&atomic, "atomic", false, "write each file to a temporary name and rename it into place")
	flagSet.BoolVar(&preserveMode, "preserve-mode", false, "set the executable bit on files marked executable")
	flagSet.BoolVar(&skipUnpacked, "skip-unpacked", false, "skip files stored outside the archive instead of failing")
	flagSet.IntVar(&workers, "workers", 1, "number of concurrent file writes")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every extracted entry")

	const usage = "asar extract [flags] ARCHIVE DEST"
	if done, err := parseFlags(flagSet, args, usage, 2, stdout); done || err != nil {
		return err
	}
	archive, dest := flagSet.Arg(0), flagSet.Arg(1)

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	start := time.Now()
	r, err := asar.OpenFile(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	if r.Compressed() {
		logger.Debug("decompressing archive", "archive", archive)
	}
	err = r.UnpackFiles(dest,
		asar.WithLogger(logger),
		asar.WithSymlinks(symlinks),
		asar.WithAtomicWrites(atomic),
		asar.WithPreserveMode(preserveMode),
		asar.WithSkipUnpacked(skipUnpacked),
		asar.WithWorkers(workers),
	)
	if err != nil {
		return err
	}

	stats := r.Header().Files.Stats()
	fmt.Fprintf(stdout, "extracted %s files, %s directories, %s links (%s) to %s in %s\n",
		humanize.Comma(int64(stats.Files)),
		humanize.Comma(int64(stats.Directories)),
		humanize.Comma(int64(stats.Symlinks)),
		humanize.IBytes(stats.Bytes),
		dest,
		time.Since(start).Round(time.Millisecond),
	)
	if stats.Unpacked > 0 {
		fmt.Fprintf(stdout, "skipped %s files stored outside the archive\n", humanize.Comma(int64(stats.Unpacked)))
	}
	return nil
}
