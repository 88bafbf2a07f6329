package header

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrDecode is returned when the header text is not valid UTF-8.
	ErrDecode = errors.New("asar: header is not valid UTF-8")

	// ErrFormat is returned when the header text is not a JSON object with
	// a top-level files object.
	ErrFormat = errors.New("asar: invalid header format")

	// ErrMalformed is returned when an entry is present but cannot be
	// materialized: wrong field types, missing fields, or out-of-range data.
	ErrMalformed = errors.New("asar: malformed archive")
)

// EntryError records a failure attributed to one archive entry.
type EntryError struct {
	// Path is the slash-separated archive path of the entry.
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return "asar: entry " + strconv.Quote(e.Path) + ": " + e.Err.Error()
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Malformed returns an EntryError for path wrapping ErrMalformed.
func Malformed(path, format string, args ...any) error {
	return &EntryError{
		Path: path,
		Err:  fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...)),
	}
}
