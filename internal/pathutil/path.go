// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import (
	"os"
	"strings"
)

// Join appends an entry name to a slash-separated parent path.
// An empty parent denotes the archive root.
func Join(parent, name string) string {
	if parent == "" || parent == "." {
		return name
	}
	return parent + "/" + name
}

// ValidName reports whether name can be used as a single path element
// below a destination directory.
//
// Names must be non-empty, must not be "." or "..", and must not contain
// '/', the host path separator, or NUL bytes. A backslash is an ordinary
// character on hosts that do not use it as a separator.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\x00") {
		return false
	}
	return !strings.ContainsRune(name, os.PathSeparator)
}
