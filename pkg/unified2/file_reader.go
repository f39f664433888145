package unified2

import (
	"os"

	"github.com/pkg/errors"
)

// FileRecordReader concatenates a fixed, ordered list of files into a single
// record stream. The last file in the list is treated as a tail: once it is
// exhausted, Next keeps returning the EOF-pending sentinel rather than
// reporting end-of-stream, so a single still-growing file (passed as the
// sole path) behaves like a tail.
type FileRecordReader struct {
	paths   []string
	decoder *Decoder
	idx     int
	file    *os.File
	reader  *RecordReader
}

// NewFileRecordReader constructs a reader over paths, in order. paths must
// be non-empty.
func NewFileRecordReader(paths []string, decoder *Decoder) (*FileRecordReader, error) {
	if len(paths) == 0 {
		return nil, errors.New("unified2: FileRecordReader requires at least one path")
	}
	r := &FileRecordReader{paths: paths, decoder: decoder, idx: -1}
	if err := r.openNext(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRecordReader) openNext() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
		r.reader = nil
	}
	r.idx++
	if r.idx >= len(r.paths) {
		return nil
	}
	f, err := os.Open(r.paths[r.idx])
	if err != nil {
		return errors.Wrapf(err, "unified2: opening %s", r.paths[r.idx])
	}
	rr, err := NewRecordReader(f, r.decoder)
	if err != nil {
		f.Close()
		return err
	}
	r.file = f
	r.reader = rr
	return nil
}

// Next returns the next record across the file sequence, or the
// EOF-pending sentinel once the last file is parked at its own EOF.
func (r *FileRecordReader) Next() (*Record, error) {
	for {
		if r.reader == nil {
			// Exhausted every path.
			return nil, nil
		}

		rec, err := r.reader.Next()
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}

		// EOF-pending on the current file. Advance only if there is a
		// strictly later file in the fixed list; otherwise this is the
		// last file and we park here for tailing.
		if r.idx+1 >= len(r.paths) {
			return nil, nil
		}
		if err := r.openNext(); err != nil {
			return nil, err
		}
	}
}

// Close releases the currently open file, if any.
func (r *FileRecordReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
