// Package asar reads packed archives in the Electron ASAR layout and
// extracts them to disk.
//
// An archive is a small binary preamble, a JSON header describing every
// entry, and a data blob holding the contents of all files back to back:
//
//	[12 bytes framing][u32 LE header size][header JSON][pad to 4][data blob]
//
// Each file entry records the offset and size of its bytes within the blob.
// Directory entries nest a files object, and symlink entries carry a link
// target.
//
// # Reading
//
// GetHeaders consumes the preamble and header from a stream and returns the
// classified metadata tree, leaving the stream at the data blob:
//
//	h, err := asar.GetHeaders(f)
//	if err != nil {
//	    return err
//	}
//	err = h.Files.Walk(func(path string, e asar.Entry) error {
//	    fmt.Println(e.Kind, path)
//	    return nil
//	})
//
// # Extracting
//
// UnpackFiles recreates a tree under a destination directory given the data
// blob. Reader combines both steps over one stream:
//
//	r, err := asar.OpenFile("app.asar")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	err = r.UnpackFiles("./app", asar.WithSymlinks(true))
//
// Entries that cannot be materialized are reported as *EntryError values
// naming the entry's archive path and wrapping ErrMalformed, ErrUnpacked, or
// the underlying filesystem error.
package asar
