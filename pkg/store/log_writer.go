package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/drivelog/pkg/codec"
)

// LogWriter appends fixed-size records to a log file. Each Append issues
// exactly one write; there is no user-space buffering.
type LogWriter struct {
	file       *os.File
	fsyncTimer *time.Timer
	config     LogWriterConfig
	mutex      sync.Mutex
	buf        [codec.LogRecordSize]byte
	offset     int64 // Current write offset
	dirty      bool  // written since the last timed sync
	closed     bool
}

// NewLogWriter creates a new log writer with the given configuration
func NewLogWriter(config LogWriterConfig) (*LogWriter, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if config.Truncate {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(config.FilePath, flags, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	// Seek to end for append behavior
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("seek log: %w", err)
	}

	// Refuse to extend a log that already ends in a partial record
	if offset%codec.LogRecordSize != 0 {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTruncatedLog, config.FilePath, offset)
	}

	writer := &LogWriter{
		file:   file,
		config: config,
		offset: offset,
	}

	// Set up fsync timer if interval is configured
	if config.FsyncInterval > 0 {
		// the callback re-arms the timer, so it must not run before the field is set
		writer.mutex.Lock()
		defer writer.mutex.Unlock()
		writer.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			writer.mutex.Lock()
			defer writer.mutex.Unlock()
			if writer.closed {
				return
			}
			if writer.dirty {
				_ = writer.file.Sync()
				writer.dirty = false
			}
			writer.fsyncTimer.Reset(config.FsyncInterval)
		})
	}

	return writer, nil
}

// Append writes one encoded record to the end of the log
func (w *LogWriter) Append(record []byte) error {
	if len(record) != codec.LogRecordSize {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidRecordSize, len(record))
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.append(record)
}

// AppendFeedback logs the arrival of feedback for the message identified by h
func (w *LogWriter) AppendFeedback(h codec.Header, received uint64) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := codec.PutFeedbackLog(w.buf[:], h, received); err != nil {
		return err
	}
	return w.append(w.buf[:])
}

// AppendCommand logs the arrival of a manual command
func (w *LogWriter) AppendCommand(raw [2]byte, received uint64) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := codec.PutCommandLog(w.buf[:], raw, received); err != nil {
		return err
	}
	return w.append(w.buf[:])
}

// append performs the write (internal method, caller holds the mutex)
func (w *LogWriter) append(record []byte) error {
	if w.closed {
		return ErrClosed
	}

	n, err := w.file.Write(record)
	w.offset += int64(n)
	if err != nil {
		return fmt.Errorf("append log record: %w", err)
	}

	// Sync immediately if no fsync interval configured
	if w.config.FsyncInterval == 0 {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("sync log: %w", err)
		}
	} else {
		w.dirty = true
	}

	return nil
}

// Sync forces a fsync to disk
func (w *LogWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.file.Sync()
}

// Close syncs and closes the log file. The file is closed even if the final
// sync fails.
func (w *LogWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return ErrClosed
	}
	w.closed = true

	// Cancel fsync timer
	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	if syncErr != nil {
		return fmt.Errorf("sync log: %w", syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close log: %w", closeErr)
	}
	return nil
}

// Size returns the current size of the log file
func (w *LogWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Count returns the number of complete records in the log
func (w *LogWriter) Count() int64 {
	return w.Size() / codec.LogRecordSize
}

// Path returns the file path
func (w *LogWriter) Path() string {
	return w.config.FilePath
}
