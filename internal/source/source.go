// Package source opens archive files for sequential reading, transparently
// decompressing archives that were wrapped in a zstd frame.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// DefaultMaxDecoderMemory caps the memory a zstd decoder may allocate.
const DefaultMaxDecoderMemory = 256 << 20

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Compression identifies how an archive stream is wrapped.
type Compression uint8

// Supported wrappings.
const (
	CompressionNone Compression = iota
	CompressionZstd
)

// String returns the string representation of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Source is an opened archive stream.
type Source struct {
	io.Reader

	compression Compression
	closers     []func() error
}

// Compression reports how the underlying stream was wrapped.
func (s *Source) Compression() Compression {
	return s.compression
}

// Close releases the decoder and the underlying file, if any.
func (s *Source) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open opens the named file and wraps it with Wrap.
func Open(name string) (*Source, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	s, err := Wrap(f)
	if err != nil {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	s.closers = append([]func() error{f.Close}, s.closers...)
	return s, nil
}

// Wrap sniffs the first bytes of r. Streams starting with the zstd frame
// magic are decompressed; anything else is returned unchanged.
func Wrap(r io.Reader) (*Source, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("sniff archive: %w", err)
	}
	if !bytes.Equal(magic, zstdMagic) {
		return &Source{Reader: br, compression: CompressionNone}, nil
	}

	dec, err := zstd.NewReader(br,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(DefaultMaxDecoderMemory),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Source{
		Reader:      dec,
		compression: CompressionZstd,
		closers: []func() error{func() error {
			dec.Close()
			return nil
		}},
	}, nil
}
