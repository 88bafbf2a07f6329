package asar

import (
	"fmt"
	"io"

	"github.com/meigma/asar/internal/source"
)

// Reader reads one archive from a sequential stream.
//
// The header is decoded when the Reader is created. The data blob is the
// remainder of the stream and is read into memory once, on first use.
// A Reader is not safe for concurrent use.
type Reader struct {
	src        io.Reader
	closer     io.Closer
	header     *Header
	compressed bool

	data     []byte
	dataErr  error
	dataRead bool
}

// NewReader decodes the header from r. The remainder of r is the data blob.
func NewReader(r io.Reader) (*Reader, error) {
	h, err := GetHeaders(r)
	if err != nil {
		return nil, err
	}
	return &Reader{src: r, header: h}, nil
}

// OpenFile opens the named archive. Archives wrapped in a zstd frame are
// decompressed transparently. The caller must Close the Reader.
func OpenFile(name string) (*Reader, error) {
	src, err := source.Open(name)
	if err != nil {
		return nil, fmt.Errorf("asar: %w", err)
	}
	r, err := NewReader(src)
	if err != nil {
		_ = src.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("asar: read %s: %w", name, err)
	}
	r.closer = src
	r.compressed = src.Compression() == source.CompressionZstd
	return r, nil
}

// Header returns the decoded header.
func (r *Reader) Header() *Header {
	return r.header
}

// Compressed reports whether the archive file was wrapped in a zstd frame.
func (r *Reader) Compressed() bool {
	return r.compressed
}

// Data reads the remainder of the stream and returns it as the data blob.
// The stream is read once; later calls return the same slice and error.
// Callers must not modify the returned slice.
func (r *Reader) Data() ([]byte, error) {
	if !r.dataRead {
		r.dataRead = true
		r.data, r.dataErr = io.ReadAll(r.src)
		if r.dataErr != nil {
			r.dataErr = fmt.Errorf("asar: read data blob: %w", r.dataErr)
		}
	}
	return r.data, r.dataErr
}

// UnpackFiles extracts the whole archive under basePath, reading the data
// blob from the stream if it has not been read yet. See UnpackFiles.
func (r *Reader) UnpackFiles(basePath string, opts ...Option) error {
	cfg := newConfig(opts)
	if !r.dataRead {
		cfg.report(ProgressEvent{Stage: StageReadingData})
	}
	data, err := r.Data()
	if err != nil {
		return err
	}
	return unpack(r.header.Files, basePath, data, cfg)
}

// Close closes the underlying file when the Reader was created by OpenFile.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
