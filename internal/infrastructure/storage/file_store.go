package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

const recordExt = ".json"

// FileRecordStore keeps one JSON file per timeline key inside a directory.
type FileRecordStore struct {
	dir string
}

var _ ports.RecordStore = (*FileRecordStore)(nil)

// NewFileRecordStore creates the directory if needed.
func NewFileRecordStore(dir string) (*FileRecordStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileRecordStore{dir: dir}, nil
}

func (s *FileRecordStore) path(key domain.TimelineKey) string {
	return filepath.Join(s.dir, strconv.Itoa(int(key))+recordExt)
}

// Load returns the cached record or nil when the key was never stored.
func (s *FileRecordStore) Load(key domain.TimelineKey) (*domain.FetchRecord, error) {
	raw, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record %d: %w", key, err)
	}

	var record domain.FetchRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode record %d: %w", key, err)
	}
	return &record, nil
}

// Save persists the record atomically.
func (s *FileRecordStore) Save(record domain.FetchRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %d: %w", record.Key, err)
	}
	return writeFileAtomic(s.path(record.Key), raw)
}

// Keys lists stored keys in ascending order; leftover temp files are ignored.
func (s *FileRecordStore) Keys() ([]domain.TimelineKey, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list cache dir: %w", err)
	}

	keys := make([]domain.TimelineKey, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, recordExt))
		if err != nil {
			continue
		}
		keys = append(keys, domain.TimelineKey(n))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// Close is a no-op; files are opened per call.
func (s *FileRecordStore) Close() error {
	return nil
}
