package unified2

// recordSource is the common surface FileEventReader and SpoolEventReader
// need from their underlying record stream.
type recordSource interface {
	Next() (*Record, error)
}

// tellingSource is implemented by sources that can report a resumable
// position, currently only SpoolRecordReader.
type tellingSource interface {
	Tell() (string, int64)
}

// FileEventReader composes a FileRecordReader with an Aggregator to yield
// whole Events from a fixed list of files.
type FileEventReader struct {
	reader     *FileRecordReader
	aggregator *Aggregator
}

// NewFileEventReader returns an event reader over paths.
func NewFileEventReader(paths []string, decoder *Decoder) (*FileEventReader, error) {
	fr, err := NewFileRecordReader(paths, decoder)
	if err != nil {
		return nil, err
	}
	return &FileEventReader{reader: fr, aggregator: NewAggregator()}, nil
}

// Next returns the next complete Event, or the EOF-pending sentinel
// (nil, nil) once the underlying file sequence is exhausted and any
// trailing partial event has been flushed.
func (r *FileEventReader) Next() (*Event, error) {
	for {
		rec, err := r.reader.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return r.aggregator.Flush(), nil
		}
		if ev := r.aggregator.Add(rec); ev != nil {
			return ev, nil
		}
	}
}

// Close releases the underlying file handle.
func (r *FileEventReader) Close() error {
	return r.reader.Close()
}

// SpoolEventReader composes a SpoolRecordReader with an Aggregator and
// maintains a durable Bookmark across events.
//
// Bookmark semantics: the persisted offset always points at the byte
// position immediately after the last record of the last fully-delivered
// event, even across a rotation that has already advanced the underlying
// reader into the next file's first record by the time an Event is
// produced. This is achieved by capturing Tell() *before* pulling the
// record that triggers an emission, and persisting that captured value
// rather than the reader's position after the pull.
type SpoolEventReader struct {
	spool      *SpoolRecordReader
	aggregator *Aggregator
	bookmark   *Bookmark
	onRollover func(closed, opened string)
}

// NewSpoolEventReader constructs a SpoolEventReader over a spool directory.
// If bookmark already names a (filename, offset), the underlying spool
// reader resumes from it.
func NewSpoolEventReader(directory, prefix string, decoder *Decoder, bookmark *Bookmark) (*SpoolEventReader, error) {
	var opts []SpoolRecordReaderOption
	if bookmark != nil {
		filename, offset, err := bookmark.Get()
		if err != nil {
			return nil, err
		}
		if filename != "" {
			opts = append(opts, WithBookmark(filename, offset))
		}
	}

	spool := NewSpoolRecordReader(directory, prefix, decoder, opts...)
	r := &SpoolEventReader{
		spool:      spool,
		aggregator: NewAggregator(),
		bookmark:   bookmark,
	}
	spool.SetOnRollover(func(closed, opened string) {
		if r.onRollover != nil {
			r.onRollover(closed, opened)
		}
	})
	return r, nil
}

// OnRollover installs a hook invoked synchronously on each rotation
// transition of the underlying spool reader.
func (r *SpoolEventReader) OnRollover(fn func(closed, opened string)) {
	r.onRollover = fn
}

// Next returns the next complete Event, persisting the bookmark as each
// Event is produced, or the EOF-pending sentinel (nil, nil) if nothing is
// available right now.
func (r *SpoolEventReader) Next() (*Event, error) {
	for {
		preFilename, preOffset := r.spool.Tell()

		rec, err := r.spool.Next()
		if err != nil {
			return nil, err
		}

		if rec == nil {
			if ev := r.aggregator.Flush(); ev != nil {
				filename, offset := r.spool.Tell()
				if err := r.persistBookmark(filename, offset); err != nil {
					return nil, err
				}
				return ev, nil
			}
			return nil, nil
		}

		if ev := r.aggregator.Add(rec); ev != nil {
			if err := r.persistBookmark(preFilename, preOffset); err != nil {
				return nil, err
			}
			return ev, nil
		}
	}
}

func (r *SpoolEventReader) persistBookmark(filename string, offset int64) error {
	if r.bookmark == nil || filename == "" {
		return nil
	}
	return r.bookmark.Set(filename, offset)
}

// Close releases the underlying spool file handle, if any.
func (r *SpoolEventReader) Close() error {
	return r.spool.Close()
}
