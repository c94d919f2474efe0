// Package archive walks zip archives with learner submissions.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding"
)

// Entry is a regular file found in archive.
type Entry struct {
	// Name is slash separated path inside archive, decoded to UTF-8.
	Name string
	File *zip.File
}

// WalkFunc is called for every file in archive visited by Walk. Returning
// an error stops the walk.
type WalkFunc func(archive string, entry Entry) error

// Walk visits every file in archive whose name starts with prefix, in
// archive order. Archives holding absolute paths or ".." components are
// rejected altogether. Names not flagged as UTF-8 are decoded with cp when it
// is not nil.
func Walk(ctx context.Context, archive, prefix string, cp encoding.Encoding, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := f.Name
		if f.NonUTF8 && cp != nil {
			if decoded, err := cp.NewDecoder().String(name); err == nil {
				name = decoded
			}
		}
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := walkFn(archive, Entry{Name: name, File: f}); err != nil {
			return err
		}
	}
	return nil
}

// Open returns reader for entry content.
func (e Entry) Open() (io.ReadCloser, error) {
	return e.File.Open()
}

// isSafePath returns false for absolute paths and those containing ".."
// components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) || (len(name) > 1 && name[1] == ':') {
		return false
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return false
		}
	}
	return true
}
