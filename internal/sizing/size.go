// Package sizing provides overflow-checked arithmetic for archive offsets and
// bounded reads for length-prefixed sections.
package sizing

import (
	"bytes"
	"errors"
	"io"
	"math"
)

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// Range returns the half-open range [offset, offset+size) as ints when it
// lies entirely within a buffer of length n.
func Range(offset, size uint64, n int) (start, end int, ok bool) {
	last, ok := AddUint64(offset, size)
	if !ok || n < 0 || last > uint64(n) {
		return 0, 0, false
	}
	return int(offset), int(last), true //nolint:gosec // bounded by n above
}

// Pad returns the number of filler bytes needed to advance n to the next
// multiple of align.
func Pad(n uint64, align uint64) uint64 {
	if align == 0 {
		return 0
	}
	return (align - n%align) % align
}

// ReadExactly reads exactly n bytes from r.
//
// Memory grows with the bytes actually delivered rather than being allocated
// up front, so an advertised length larger than the stream stays cheap. A
// stream that ends early yields io.ErrUnexpectedEOF.
func ReadExactly(r io.Reader, n uint64) ([]byte, error) {
	if n > uint64(math.MaxInt64) {
		return nil, io.ErrUnexpectedEOF
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
