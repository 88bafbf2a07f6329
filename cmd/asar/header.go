package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/meigma/asar"
)

func runHeader(args []string, stdout, _ io.Writer) error {
	var showDigest bool

	flagSet := newFlagSet("header")
	flagSet.BoolVar(&showDigest, "digest", false, "print the digest of the header text instead of the text")

	const usage = "asar header [--digest] ARCHIVE"
	if done, err := parseFlags(flagSet, args, usage, 1, stdout); done || err != nil {
		return err
	}

	h, err := readHeader(flagSet.Arg(0))
	if err != nil {
		return err
	}

	if showDigest {
		_, err = fmt.Fprintln(stdout, h.Digest())
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, h.JSON, "", "  "); err != nil {
		return fmt.Errorf("indent header: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(stdout)
	return err
}

// readHeader opens the archive and decodes its header without reading the
// data blob.
func readHeader(name string) (*asar.Header, error) {
	r, err := asar.OpenFile(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Header(), nil
}
