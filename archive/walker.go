// Package archive finds report definitions stored in zip archives.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Entry is a regular file inside archive.
type Entry struct {
	Archive string // path to archive passed to Walk
	Name    string // name inside archive
	NonUTF8 bool
	file    *zip.File
}

// Open returns reader of the entry content.
func (e *Entry) Open() (io.ReadCloser, error) {
	return e.file.Open()
}

// WalkFunc is called for every entry accepted by Walk. If an error is
// returned, processing stops.
type WalkFunc func(e *Entry) error

// Walk visits files in archive located under prefix in natural name order,
// calling walkFn for every file match accepts. Nil match accepts everything.
// Archive with absolute names or names with ".." components is rejected as a
// whole.
func Walk(archive, prefix string, match func(name string) bool, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	byName := make(map[string]*zip.File, len(r.File))
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if match != nil && !match(name) {
			continue
		}
		byName[name] = f
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))

	for _, name := range names {
		f := byName[name]
		if err := walkFn(&Entry{Archive: archive, Name: name, NonUTF8: f.FileHeader.NonUTF8, file: f}); err != nil {
			return err
		}
	}
	return nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
