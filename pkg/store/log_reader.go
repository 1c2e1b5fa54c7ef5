package store

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ssargent/drivelog/pkg/codec"
)

// LogReader provides single-pass sequential access to records in a log.
// The underlying stream may deliver chunks of any size; records split
// across chunks are reassembled.
type LogReader struct {
	file    *os.File // nil when reading from a caller-owned stream
	src     io.Reader
	chunk   []byte
	asm     recordAssembler
	srcErr  error // error returned alongside the last chunk
	err     error // sticky result once the stream is finished or broken
	records int64

	emptyReads int
}

// maxEmptyReads bounds consecutive (0, nil) reads from a misbehaving source
const maxEmptyReads = 100

// NewLogReader opens the log file at config.FilePath for streaming
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	r := NewStreamReader(file, config.ChunkSize)
	r.file = file
	return r, nil
}

// NewStreamReader reads records from src, requesting chunkSize bytes per
// read. The caller keeps ownership of src.
func NewStreamReader(src io.Reader, chunkSize int) *LogReader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &LogReader{
		src:   src,
		chunk: make([]byte, chunkSize),
	}
}

// Next returns the next record. It returns io.EOF after the last complete
// record, or ErrTruncatedLog if the stream ended inside a record. Errors
// are sticky: once Next fails it keeps failing.
func (r *LogReader) Next() (codec.LogRecord, error) {
	if r.err != nil {
		return nil, r.err
	}

	for {
		if window := r.asm.next(); window != nil {
			rec, err := codec.DecodeLogRecord(window)
			if err != nil {
				r.err = fmt.Errorf("record %d: %w", r.records, err)
				return nil, r.err
			}
			r.records++
			return rec, nil
		}

		// current chunk is exhausted; any tail now sits in the carry-over buffer
		if r.srcErr != nil {
			r.err = r.finish(r.srcErr)
			return nil, r.err
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			r.asm.push(r.chunk[:n])
			r.emptyReads = 0
		}
		if err != nil {
			r.srcErr = err
		} else if n == 0 {
			r.emptyReads++
			if r.emptyReads >= maxEmptyReads {
				r.srcErr = io.ErrNoProgress
			}
		}
	}
}

// finish maps the error that ended the stream to the reader's final result
func (r *LogReader) finish(srcErr error) error {
	if !errors.Is(srcErr, io.EOF) {
		return fmt.Errorf("read log: %w", srcErr)
	}
	if r.asm.filled > 0 {
		return fmt.Errorf("%w: %d trailing bytes after %d records",
			ErrTruncatedLog, r.asm.filled, r.records)
	}
	return io.EOF
}

// Records returns the number of records decoded so far
func (r *LogReader) Records() int64 {
	return r.records
}

// Iterator returns a streaming iterator for records
func (r *LogReader) Iterator() RecordIterator {
	return &logRecordIterator{reader: r}
}

// Close releases the log file. Readers built with NewStreamReader do not
// close their source.
func (r *LogReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if r.err == nil {
		r.err = ErrClosed
	}
	return err
}

// recordAssembler cuts fixed-size records out of a sequence of chunks.
// partial holds the leading bytes of a record that straddles chunks; it is
// always drained before another record is cut from the current chunk.
type recordAssembler struct {
	partial [codec.LogRecordSize]byte
	filled  int
	chunk   []byte
	off     int
}

// push makes chunk the current chunk. The previous chunk must be exhausted.
func (a *recordAssembler) push(chunk []byte) {
	a.chunk = chunk
	a.off = 0
}

// next returns the next complete record, or nil once the current chunk is
// exhausted. The returned slice is valid until the next call.
func (a *recordAssembler) next() []byte {
	remaining := a.chunk[a.off:]

	if a.filled > 0 {
		n := copy(a.partial[a.filled:], remaining)
		a.filled += n
		a.off += n
		if a.filled < codec.LogRecordSize {
			return nil
		}
		a.filled = 0
		return a.partial[:]
	}

	if len(remaining) >= codec.LogRecordSize {
		a.off += codec.LogRecordSize
		return remaining[:codec.LogRecordSize]
	}

	a.filled = copy(a.partial[:], remaining)
	a.off = len(a.chunk)
	return nil
}

// logRecordIterator implements RecordIterator for streaming access
type logRecordIterator struct {
	reader *LogReader
	record codec.LogRecord
	err    error
}

func (it *logRecordIterator) Next() bool {
	it.record, it.err = it.reader.Next()
	return it.err == nil
}

func (it *logRecordIterator) Record() codec.LogRecord {
	return it.record
}

// Err returns the error that stopped iteration, or nil at a clean end of log
func (it *logRecordIterator) Err() error {
	if errors.Is(it.err, io.EOF) {
		return nil
	}
	return it.err
}

func (it *logRecordIterator) Close() error {
	// Don't close the underlying reader as it's owned by the caller
	return nil
}
