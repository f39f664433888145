package unified2

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Bookmark durably records the (filename, offset) a spool/file event reader
// last delivered up to, as a two-line text file: filename on line one,
// decimal offset on line two. Writes go through a temp file in the same
// directory followed by an fsync and atomic rename, so a crash mid-write
// cannot corrupt the bookmark.
type Bookmark struct {
	path string
}

// NewBookmark returns a Bookmark backed by the file at path. The file need
// not exist yet.
func NewBookmark(path string) *Bookmark {
	return &Bookmark{path: path}
}

// Get reads the current bookmark. It returns ("", 0, nil) if no bookmark
// file exists yet. A malformed bookmark file returns a distinct error.
func (b *Bookmark) Get() (filename string, offset int64, err error) {
	f, err := os.Open(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, nil
		}
		return "", 0, errors.Wrapf(err, "unified2: opening bookmark %s", b.path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", 0, errors.Wrapf(err, "unified2: reading bookmark %s", b.path)
	}
	if len(lines) != 2 {
		return "", 0, errors.Errorf("unified2: bookmark %s has %d lines, expected 2", b.path, len(lines))
	}

	off, err := strconv.ParseInt(strings.TrimSpace(lines[1]), 10, 64)
	if err != nil {
		return "", 0, errors.Wrapf(err, "unified2: parsing bookmark offset in %s", b.path)
	}
	return strings.TrimSpace(lines[0]), off, nil
}

// Set durably writes filename and offset as the new bookmark.
func (b *Bookmark) Set(filename string, offset int64) error {
	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, ".bookmark-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "unified2: creating temp bookmark file in %s", dir)
	}
	tmpPath := tmp.Name()

	_, writeErr := fmt.Fprintf(tmp, "%s\n%d\n", filename, offset)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()

	if writeErr != nil || syncErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr != nil {
			return errors.Wrap(writeErr, "unified2: writing bookmark")
		}
		if syncErr != nil {
			return errors.Wrap(syncErr, "unified2: fsyncing bookmark")
		}
		return errors.Wrap(closeErr, "unified2: closing temp bookmark file")
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "unified2: renaming bookmark into place at %s", b.path)
	}
	return nil
}
