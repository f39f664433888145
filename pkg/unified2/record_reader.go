package unified2

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// RecordReader streams records from a single io.ReadSeeker, honoring the
// all-or-nothing contract described in package unified2's design: a short
// read at either the header or body boundary leaves the stream position
// exactly where it was before the attempt.
type RecordReader struct {
	stream  io.ReadSeeker
	buf     *bufio.Reader
	decoder *Decoder
	pos     int64
}

// NewRecordReader wraps stream, which must already be positioned at the
// offset the caller wants to start reading from.
func NewRecordReader(stream io.ReadSeeker, decoder *Decoder) (*RecordReader, error) {
	if decoder == nil {
		decoder = &Decoder{}
	}
	pos, err := stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "unified2: determining current stream offset")
	}
	return &RecordReader{
		stream:  stream,
		buf:     bufio.NewReader(stream),
		decoder: decoder,
		pos:     pos,
	}, nil
}

// Tell returns the stream position the next Next() call will start reading
// from.
func (r *RecordReader) Tell() int64 {
	return r.pos
}

// resetTo seeks the underlying stream back to pos and discards any bytes
// buffered past it, mirroring the teacher's log reader, which rebuilds its
// bufio.Reader on every Seek to avoid replaying stale buffered bytes.
func (r *RecordReader) resetTo(pos int64) error {
	if _, err := r.stream.Seek(pos, io.SeekStart); err != nil {
		return errors.Wrap(err, "unified2: seeking back after short read")
	}
	r.buf = bufio.NewReader(r.stream)
	r.pos = pos
	return nil
}

// Next returns the next record. A nil record with a nil error is the
// EOF-pending sentinel: nothing complete is available yet, and the stream
// position is unchanged. A non-nil error other than a *DecodeError indicates
// an I/O failure.
func (r *RecordReader) Next() (*Record, error) {
	start := r.pos

	var header [HeaderSize]byte
	_, err := io.ReadFull(r.buf, header[:])
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if resetErr := r.resetTo(start); resetErr != nil {
				return nil, resetErr
			}
			return nil, nil
		}
		return nil, errors.Wrap(err, "unified2: reading record header")
	}

	typ := binary.BigEndian.Uint32(header[0:4])
	length := binary.BigEndian.Uint32(header[4:8])

	if length > r.decoder.maxBodyLen() {
		// The reader cannot safely buffer a declared length it refuses to
		// trust; it has already consumed the header, so position is not
		// restored here (see SPEC_FULL.md's error handling design for why
		// this one decode error does not seek back).
		r.pos = start + HeaderSize
		return nil, &DecodeError{Type: typ, Msg: "declared body length exceeds configured bound"}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r.buf, body); err != nil {
		if resetErr := r.resetTo(start); resetErr != nil {
			return nil, resetErr
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "unified2: reading record body")
	}

	r.pos = start + HeaderSize + int64(length)

	record, err := r.decoder.Decode(typ, body)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Iter adapts RecordReader to the bool/Record/Err iteration shape used
// throughout this codebase's storage layer.
type Iter struct {
	reader  *RecordReader
	current *Record
	err     error
}

// Iter returns an iterator over r.
func (r *RecordReader) Iter() *Iter {
	return &Iter{reader: r}
}

// Next advances the iterator. It returns false at EOF-pending or on error;
// callers distinguish the two via Err.
func (it *Iter) Next() bool {
	rec, err := it.reader.Next()
	if err != nil {
		it.err = err
		it.current = nil
		return false
	}
	it.current = rec
	return rec != nil
}

// Record returns the record produced by the most recent successful Next call.
func (it *Iter) Record() *Record {
	return it.current
}

// Err returns the first error encountered during iteration, if any.
func (it *Iter) Err() error {
	return it.err
}
