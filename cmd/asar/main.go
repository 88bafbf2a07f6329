// asar inspects and extracts ASAR archives.
//
// Usage:
//
//	asar extract [flags] ARCHIVE DEST
//	asar list [--long] ARCHIVE
//	asar header [--digest] ARCHIVE
//
// Archives wrapped in a zstd frame are decompressed transparently.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// errUsage marks errors caused by bad invocation rather than a bad archive.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"extract", "extract an archive into a directory", runExtract},
	{"list", "list the entries of an archive", runList},
	{"header", "print the header JSON or its digest", runHeader},
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return fmt.Errorf("%w: missing command", errUsage)
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stdout)
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:], stdout, stderr)
		}
	}
	printUsage(stderr)
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "asar inspects and extracts ASAR archives.\n\nUsage:\n  asar <command> [flags] ARCHIVE...\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(w, "\nRun \"asar <command> --help\" for command flags.\n")
}

// newFlagSet returns a flag set that reports errors through the return value
// instead of printing them.
func newFlagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

// parseFlags parses args and checks the positional count. It returns
// done=true when help was requested and printed.
func parseFlags(flagSet *pflag.FlagSet, args []string, usage string, positional int, stdout io.Writer) (done bool, err error) {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet, usage)
			return true, nil
		}
		return false, fmt.Errorf("%w: %s: %w", errUsage, flagSet.Name(), err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stdout, flagSet, usage)
		return true, nil
	}
	if flagSet.NArg() != positional {
		return false, fmt.Errorf("%w: %s: expected %d argument(s), got %d\n  %s",
			errUsage, flagSet.Name(), positional, flagSet.NArg(), usage)
	}
	return false, nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet, usage string) {
	fmt.Fprintf(w, "Usage:\n  %s\n\nFlags:\n", usage)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
	flagSet.SetOutput(io.Discard)
}
