package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/meigma/asar"
)

func runList(args []string, stdout, _ io.Writer) error {
	var long bool

	flagSet := newFlagSet("list")
	flagSet.BoolVarP(&long, "long", "l", false, "show kind and size for each entry")

	const usage = "asar list [--long] ARCHIVE"
	if done, err := parseFlags(flagSet, args, usage, 1, stdout); done || err != nil {
		return err
	}

	h, err := readHeader(flagSet.Arg(0))
	if err != nil {
		return err
	}

	if !long {
		return h.Files.Walk(func(path string, _ asar.Entry) error {
			_, err := fmt.Fprintln(stdout, path)
			return err
		})
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	err = h.Files.Walk(func(path string, e asar.Entry) error {
		if e.Err != nil {
			_, err := fmt.Fprintf(tw, "%s\t\t%s\t(malformed)\n", e.Kind, path)
			return err
		}
		var size, extra string
		switch e.Kind {
		case asar.KindFile:
			size = humanize.IBytes(e.Size)
			if e.Unpacked {
				extra = "(unpacked)"
			} else if e.Executable {
				extra = "(executable)"
			}
		case asar.KindSymlink:
			extra = "-> " + e.Link
		}
		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Kind, size, path, extra)
		return err
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}
