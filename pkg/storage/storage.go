// Package storage keeps training samples captured by the controller.
package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/drivelog/pkg/codec"
)

// ErrSampleNotFound is returned when no sample exists for an id
var ErrSampleNotFound = errors.New("storage: sample not found")

// Sample is one ClientData message labelled with the command in force when
// it arrived.
type Sample struct {
	ID      ksuid.KSUID
	Data    *codec.ClientData
	Command [2]int8
}

// StoredAt returns when the sample was stored, from its id
func (s *Sample) StoredAt() time.Time {
	return s.ID.Time()
}

// FrameStore is a pebble-backed store of training samples keyed by ksuid,
// so iteration order is arrival order.
type FrameStore struct {
	db   *pebble.DB
	sync bool

	mu   sync.Mutex
	last ksuid.KSUID // newest id handed out
}

// NewFrameStore opens or creates a frame store at path
func NewFrameStore(path string) (*FrameStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open frame store: %w", err)
	}
	s := &FrameStore{db: db}
	if err := s.loadLast(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *FrameStore) loadLast() error {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()

	if iter.Last() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return fmt.Errorf("bad sample key %x: %w", iter.Key(), err)
		}
		s.last = id
	}
	return iter.Error()
}

// nextID returns a ksuid greater than every id issued before. ksuid.New is
// only ordered to the second, so ties move to the successor of the last id.
func (s *FrameStore) nextID() ksuid.KSUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ksuid.New()
	if ksuid.Compare(id, s.last) <= 0 {
		id = s.last.Next()
	}
	s.last = id
	return id
}

// SetSync makes every write wait for an fsync
func (s *FrameStore) SetSync(sync bool) {
	s.sync = sync
}

func (s *FrameStore) writeOptions() *pebble.WriteOptions {
	if s.sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Put stores a sample and returns its id
// Value format: [Left(1)][Right(1)][ClientData message]
func (s *FrameStore) Put(data *codec.ClientData, command [2]int8) (ksuid.KSUID, error) {
	encoded, err := codec.EncodeMessage(data)
	if err != nil {
		return ksuid.Nil, err
	}
	value := make([]byte, 2+len(encoded))
	value[0], value[1] = byte(command[0]), byte(command[1])
	copy(value[2:], encoded)

	id := s.nextID()
	if err := s.db.Set(id.Bytes(), value, s.writeOptions()); err != nil {
		return ksuid.Nil, fmt.Errorf("store sample: %w", err)
	}
	return id, nil
}

// Get returns the sample stored under id
func (s *FrameStore) Get(id ksuid.KSUID) (*Sample, error) {
	value, closer, err := s.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrSampleNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return decodeSample(id, value)
}

// List returns up to limit samples in arrival order, starting after the
// given id (ksuid.Nil starts from the beginning). limit <= 0 means no limit.
func (s *FrameStore) List(after ksuid.KSUID, limit int) ([]*Sample, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var samples []*Sample
	valid := iter.First()
	if after != ksuid.Nil {
		valid = iter.SeekGE(after.Next().Bytes())
	}
	for ; valid; valid = iter.Next() {
		if limit > 0 && len(samples) >= limit {
			break
		}
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("bad sample key %x: %w", iter.Key(), err)
		}
		sample, err := decodeSample(id, iter.Value())
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, iter.Error()
}

// Count returns the number of stored samples
func (s *FrameStore) Count() (int, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	n := 0
	for valid := iter.First(); valid; valid = iter.Next() {
		n++
	}
	return n, iter.Error()
}

// Delete removes a sample
func (s *FrameStore) Delete(id ksuid.KSUID) error {
	return s.db.Delete(id.Bytes(), s.writeOptions())
}

// Close flushes and closes the store
func (s *FrameStore) Close() error {
	return s.db.Close()
}

// decodeSample copies value, which pebble only lends until the next iterator step
func decodeSample(id ksuid.KSUID, value []byte) (*Sample, error) {
	if len(value) < 2 {
		return nil, fmt.Errorf("sample %s: %w", id, codec.ErrBufferTooShort)
	}
	owned := append([]byte(nil), value[2:]...)
	data, err := codec.DecodeClientData(owned)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", id, err)
	}
	return &Sample{
		ID:      id,
		Data:    data,
		Command: [2]int8{int8(value[0]), int8(value[1])},
	}, nil
}
