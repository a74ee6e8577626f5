package storage

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

type cachedRecord struct {
	Key       int
	Payload   []byte
	FetchedAt time.Time
}

// BadgerRecordStore keeps fetch records in an embedded Badger database.
type BadgerRecordStore struct {
	store *badgerhold.Store
}

var _ ports.RecordStore = (*BadgerRecordStore)(nil)

// OpenBadgerRecordStore opens (or creates) the Badger database at dir.
func OpenBadgerRecordStore(dir string) (*BadgerRecordStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create badger dir %s: %w", dir, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerRecordStore{store: store}, nil
}

// Load returns the cached record or nil when absent.
func (s *BadgerRecordStore) Load(key domain.TimelineKey) (*domain.FetchRecord, error) {
	var rec cachedRecord
	err := s.store.Get(int(key), &rec)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", key, err)
	}
	return &domain.FetchRecord{
		Key:       domain.TimelineKey(rec.Key),
		Payload:   rec.Payload,
		FetchedAt: rec.FetchedAt,
	}, nil
}

// Save inserts the record; an existing key is left untouched.
func (s *BadgerRecordStore) Save(record domain.FetchRecord) error {
	rec := cachedRecord{
		Key:       int(record.Key),
		Payload:   record.Payload,
		FetchedAt: record.FetchedAt,
	}
	err := s.store.Insert(rec.Key, rec)
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert record %d: %w", record.Key, err)
	}
	return nil
}

// Keys lists stored keys in ascending order.
func (s *BadgerRecordStore) Keys() ([]domain.TimelineKey, error) {
	var recs []cachedRecord
	if err := s.store.Find(&recs, nil); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	keys := make([]domain.TimelineKey, 0, len(recs))
	for _, rec := range recs {
		keys = append(keys, domain.TimelineKey(rec.Key))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// Close releases the Badger database.
func (s *BadgerRecordStore) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
