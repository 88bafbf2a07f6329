package asar

import (
	"errors"

	"github.com/meigma/asar/internal/header"
)

// Errors re-exported from internal/header.
var (
	// ErrDecode is returned when the header text is not valid UTF-8.
	ErrDecode = header.ErrDecode

	// ErrFormat is returned when the header is not valid JSON or has the
	// wrong top-level shape.
	ErrFormat = header.ErrFormat

	// ErrMalformed is returned, wrapped in an *EntryError, when an entry is
	// present but cannot be materialized.
	ErrMalformed = header.ErrMalformed
)

// ErrUnpacked is returned, wrapped in an *EntryError, when a file's content
// is stored beside the archive instead of in its data blob.
var ErrUnpacked = errors.New("asar: entry stored outside the archive")
