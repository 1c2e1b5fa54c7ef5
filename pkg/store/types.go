package store

import (
	"time"

	"github.com/ssargent/drivelog/pkg/codec"
)

// DefaultChunkSize is the read size used when LogReaderConfig.ChunkSize is unset
const DefaultChunkSize = 32 * 1024

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath      string        // Path to the log file
	FsyncInterval time.Duration // How often to fsync (0 = every append)
	Truncate      bool          // Start a new log instead of appending
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath  string // Path to the log file
	ChunkSize int    // Bytes requested per read; need not be a multiple of the record size
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() codec.LogRecord
	Err() error
	Close() error
}

// Errors
var (
	ErrTruncatedLog      = &LogError{"log size is not a multiple of the record size"}
	ErrInvalidRecordSize = &LogError{"record size must equal codec.LogRecordSize"}
	ErrClosed            = &LogError{"log is closed"}
)

// LogError represents a log file error
type LogError struct {
	Message string
}

func (e *LogError) Error() string {
	return e.Message
}
