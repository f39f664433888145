package unified2

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// SpoolRecordReader tails a directory of files sharing a filename prefix,
// reading them in lexical (write) order and advancing to the next file only
// once a strictly later one exists. It supports resuming from a
// (filename, offset) bookmark.
type SpoolRecordReader struct {
	directory string
	prefix    string
	decoder   *Decoder

	current    string
	reader     *RecordReader
	file       *os.File
	bookmarked bool // true once past the bookmark resolution step

	// skipBefore holds the bookmarked filename; any candidate lexically
	// less than it is treated as already processed.
	skipBefore   string
	resumeOffset int64

	onRollover func(closed, opened string)
}

// SpoolRecordReaderOption configures a SpoolRecordReader at construction.
type SpoolRecordReaderOption func(*SpoolRecordReader)

// WithBookmark resumes the reader at (filename, offset): files sorting
// strictly before filename are skipped, and filename itself is opened at
// offset. If filename does not appear in the first directory listing, the
// bookmark is dropped and the reader starts from the first extant file.
func WithBookmark(filename string, offset int64) SpoolRecordReaderOption {
	return func(r *SpoolRecordReader) {
		r.skipBefore = filename
		r.resumeOffset = offset
	}
}

// NewSpoolRecordReader constructs a reader over files in directory whose
// basename starts with prefix.
func NewSpoolRecordReader(directory, prefix string, decoder *Decoder, opts ...SpoolRecordReaderOption) *SpoolRecordReader {
	r := &SpoolRecordReader{
		directory: directory,
		prefix:    prefix,
		decoder:   decoder,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetOnRollover installs a hook invoked synchronously whenever the reader
// closes one file and opens the next due to rotation. It is not invoked on
// the very first open from idle.
func (r *SpoolRecordReader) SetOnRollover(fn func(closed, opened string)) {
	r.onRollover = fn
}

// listCandidates returns the basenames in directory starting with prefix,
// sorted ascending lexically (matching the sensor's monotonic suffix and the
// reference implementation's use of sorted()).
func (r *SpoolRecordReader) listCandidates() ([]string, error) {
	entries, err := os.ReadDir(r.directory)
	if err != nil {
		return nil, errors.Wrapf(err, "unified2: listing spool directory %s", r.directory)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), r.prefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Tell reports the basename and position the reader would resume from, or
// ("", 0) while idle.
func (r *SpoolRecordReader) Tell() (string, int64) {
	if r.reader == nil {
		return "", 0
	}
	return r.current, r.reader.Tell()
}

// openNext picks the next candidate after the currently open file (or the
// bookmark-resolved starting point while idle) and opens it.
func (r *SpoolRecordReader) openNext() error {
	candidates, err := r.listCandidates()
	if err != nil {
		return err
	}

	if r.current == "" && !r.bookmarked && r.skipBefore != "" {
		r.bookmarked = true
		found := false
		for _, name := range candidates {
			if name == r.skipBefore {
				found = true
				break
			}
		}
		if !found {
			// Rotated out from under us; drop the bookmark entirely.
			r.skipBefore = ""
			r.resumeOffset = 0
		}
	}

	var next string
	for _, name := range candidates {
		if r.current != "" && name <= r.current {
			continue
		}
		if r.current == "" && r.skipBefore != "" && name < r.skipBefore {
			continue
		}
		next = name
		break
	}

	if next == "" {
		return nil
	}

	f, err := os.Open(filepath.Join(r.directory, next))
	if err != nil {
		return errors.Wrapf(err, "unified2: opening spool file %s", next)
	}

	var startOffset int64
	if next == r.skipBefore {
		startOffset = r.resumeOffset
	}
	if startOffset > 0 {
		if _, err := f.Seek(startOffset, os.SEEK_SET); err != nil {
			f.Close()
			return errors.Wrapf(err, "unified2: seeking to bookmark offset in %s", next)
		}
	}

	rr, err := NewRecordReader(f, r.decoder)
	if err != nil {
		f.Close()
		return err
	}

	closed := r.current
	if r.file != nil {
		r.file.Close()
	}
	r.file = f
	r.reader = rr
	r.current = next

	if closed != "" && r.onRollover != nil {
		r.onRollover(closed, next)
	}

	return nil
}

// Next drives the spool state machine: open the next file if idle, read one
// record if open, and roll over on EOF-pending only when a strictly later
// file already exists.
func (r *SpoolRecordReader) Next() (*Record, error) {
	if r.reader == nil {
		if err := r.openNext(); err != nil {
			return nil, err
		}
		if r.reader == nil {
			return nil, nil
		}
	}

	rec, err := r.reader.Next()
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}

	candidates, err := r.listCandidates()
	if err != nil {
		return nil, err
	}
	hasLater := false
	for _, name := range candidates {
		if name > r.current {
			hasLater = true
			break
		}
	}
	if !hasLater {
		return nil, nil
	}

	if err := r.openNext(); err != nil {
		return nil, err
	}
	if r.reader == nil {
		return nil, nil
	}
	return r.reader.Next()
}

// Close releases the currently open file, if any.
func (r *SpoolRecordReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
