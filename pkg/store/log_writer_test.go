package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/drivelog/pkg/codec"
)

func TestNewLogWriter(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "log_writer_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	filePath := filepath.Join(tmpDir, "test.log")

	config := LogWriterConfig{
		FilePath:      filePath,
		FsyncInterval: 0, // Immediate fsync
	}

	writer, err := NewLogWriter(config)
	require.NoError(t, err)
	assert.NotNil(t, writer)

	// Verify file was created
	assert.FileExists(t, filePath)

	// Verify initial size is 0
	assert.Equal(t, int64(0), writer.Size())
	assert.Equal(t, filePath, writer.Path())

	err = writer.Close()
	assert.NoError(t, err)
}

func TestNewLogWriter_DirectoryCreation(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "log_writer_dir_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	nestedDir := filepath.Join(tmpDir, "nested", "deep", "path")
	filePath := filepath.Join(nestedDir, "test.log")

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filePath})
	require.NoError(t, err)
	assert.NotNil(t, writer)

	// Verify directory was created
	assert.DirExists(t, nestedDir)

	err = writer.Close()
	assert.NoError(t, err)
}

func TestNewLogWriter_InvalidPath(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filepath.Join(blocker, "test.log")})
	assert.Error(t, err)
	assert.Nil(t, writer)
}

func TestNewLogWriter_RefusesPartialLog(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "partial.log")
	require.NoError(t, os.WriteFile(filePath, make([]byte, codec.LogRecordSize+3), 0600))

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filePath})
	assert.ErrorIs(t, err, ErrTruncatedLog)
	assert.Nil(t, writer)

	// Truncate starts over
	writer, err = NewLogWriter(LogWriterConfig{FilePath: filePath, Truncate: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), writer.Size())
	assert.NoError(t, writer.Close())
}

func TestLogWriter_Append(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "test.log")

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filePath})
	require.NoError(t, err)

	record := codec.EncodeFeedbackLog(codec.Header{MessageID: 1, Timestamp: 5}, 99)
	require.NoError(t, writer.Append(record))
	assert.Equal(t, int64(codec.LogRecordSize), writer.Size())
	assert.Equal(t, int64(1), writer.Count())
	require.NoError(t, writer.Close())

	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, record, data)
}

func TestLogWriter_AppendInvalidSize(t *testing.T) {
	writer, err := NewLogWriter(LogWriterConfig{FilePath: filepath.Join(t.TempDir(), "test.log")})
	require.NoError(t, err)
	defer writer.Close()

	err = writer.Append(make([]byte, codec.LogRecordSize-1))
	assert.ErrorIs(t, err, ErrInvalidRecordSize)
	err = writer.Append(make([]byte, codec.LogRecordSize+1))
	assert.ErrorIs(t, err, ErrInvalidRecordSize)
	assert.Equal(t, int64(0), writer.Size())
}

func TestLogWriter_AppendHelpers(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "test.log")

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filePath})
	require.NoError(t, err)

	require.NoError(t, writer.AppendFeedback(codec.Header{MessageID: 7, Timestamp: 10}, 20))
	require.NoError(t, writer.AppendCommand([2]byte{0x80, 0x01}, 30))
	require.NoError(t, writer.Close())

	records, err := ReadAll(filePath)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, &codec.FeedbackLog{MessageID: 7, SentTimestamp: 10, ReceivedTimestamp: 20}, records[0])
	assert.Equal(t, &codec.CommandLog{RawCommand: [2]byte{0x80, 0x01}, ReceivedTimestamp: 30}, records[1])
}

func TestLogWriter_AppendsToExistingLog(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "test.log")

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filePath})
	require.NoError(t, err)
	require.NoError(t, writer.AppendCommand([2]byte{1, 1}, 1))
	require.NoError(t, writer.Close())

	writer, err = NewLogWriter(LogWriterConfig{FilePath: filePath})
	require.NoError(t, err)
	assert.Equal(t, int64(1), writer.Count())
	require.NoError(t, writer.AppendCommand([2]byte{2, 2}, 2))
	require.NoError(t, writer.Close())

	records, err := ReadAll(filePath)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(1), records[0].Received())
	assert.Equal(t, uint64(2), records[1].Received())
}

func TestLogWriter_Close(t *testing.T) {
	writer, err := NewLogWriter(LogWriterConfig{FilePath: filepath.Join(t.TempDir(), "test.log")})
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	assert.ErrorIs(t, writer.Close(), ErrClosed)
	assert.ErrorIs(t, writer.Sync(), ErrClosed)
	assert.ErrorIs(t, writer.AppendCommand([2]byte{}, 0), ErrClosed)
	assert.ErrorIs(t, writer.Append(make([]byte, codec.LogRecordSize)), ErrClosed)
}

func TestLogWriter_FsyncInterval(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "test.log")

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      filePath,
		FsyncInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, writer.AppendFeedback(codec.Header{MessageID: 1}, 1))

	// Give the timer a chance to fire
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, writer.Sync())
	require.NoError(t, writer.Close())

	info, err := os.Stat(filePath)
	require.NoError(t, err)
	assert.Equal(t, int64(codec.LogRecordSize), info.Size())
}

func TestLogWriter_ConcurrentAccess(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "test.log")

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      filePath,
		FsyncInterval: time.Hour, // Disable auto-fsync
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, writer.AppendFeedback(codec.Header{MessageID: uint8(g), Timestamp: uint64(i)}, uint64(i)))
			}
		}(g)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			assert.NoError(t, writer.Sync())
			time.Sleep(time.Millisecond)
		}
	}()
	wg.Wait()
	require.NoError(t, writer.Close())

	// Records never interleave: every record decodes and each producer's
	// records appear in its own submission order.
	records, err := ReadAll(filePath)
	require.NoError(t, err)
	require.Len(t, records, 200)
	next := map[uint8]uint64{}
	for _, rec := range records {
		fb := rec.(*codec.FeedbackLog)
		assert.Equal(t, next[fb.MessageID], fb.SentTimestamp)
		next[fb.MessageID]++
	}
}

func BenchmarkLogWriter_Append(b *testing.B) {
	tmpDir, err := os.MkdirTemp("", "log_writer_bench_append")
	require.NoError(b, err)
	defer os.RemoveAll(tmpDir)

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      filepath.Join(tmpDir, "test.log"),
		FsyncInterval: time.Hour, // Disable auto-fsync for benchmark
	})
	require.NoError(b, err)
	defer writer.Close()

	h := codec.Header{MessageID: 1, Timestamp: 2}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := writer.AppendFeedback(h, uint64(i)); err != nil {
			b.Fatal(err)
		}
	}
}
