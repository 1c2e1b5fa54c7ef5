package store

import (
	"fmt"
	"os"

	"github.com/ssargent/drivelog/pkg/codec"
)

// ReadAll loads a whole log file into memory and decodes it. It is meant for
// logs small enough to hold in memory; use LogReader for anything larger.
func ReadAll(path string) ([]codec.LogRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return DecodeAll(data)
}

// DecodeAll decodes a buffer holding a sequence of records. The buffer length
// is validated before anything is decoded.
func DecodeAll(data []byte) ([]codec.LogRecord, error) {
	if rem := len(data) % codec.LogRecordSize; rem != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d records",
			ErrTruncatedLog, rem, len(data)/codec.LogRecordSize)
	}

	records := make([]codec.LogRecord, 0, len(data)/codec.LogRecordSize)
	for off := 0; off < len(data); off += codec.LogRecordSize {
		rec, err := codec.DecodeLogRecord(data[off : off+codec.LogRecordSize])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}
