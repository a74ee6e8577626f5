package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketNewsForecaster/internal/domain"
)

func TestFileRecordStoreSaveLoad(t *testing.T) {
	t.Parallel()

	store, err := NewFileRecordStore(t.TempDir())
	require.NoError(t, err)

	missing, err := store.Load(42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	rec := domain.FetchRecord{Key: 42, Payload: []byte("<html>42</html>"), FetchedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(rec))

	got, err := store.Load(42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Payload, got.Payload)
	assert.True(t, rec.FetchedAt.Equal(got.FetchedAt))
}

func TestFileRecordStoreKeysIgnoreTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileRecordStore(dir)
	require.NoError(t, err)

	for _, k := range []domain.TimelineKey{12, 3, 100} {
		require.NoError(t, store.Save(domain.FetchRecord{Key: k, Payload: []byte("x")}))
	}
	// a crash between create and rename leaves a hidden temp file behind
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".7.json.tmp-123"), []byte("{"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []domain.TimelineKey{3, 12, 100}, keys)

	partial, err := store.Load(7)
	require.NoError(t, err)
	assert.Nil(t, partial)
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")
	require.NoError(t, writeFileAtomic(path, []byte(`{"a":1}`)))
	require.NoError(t, writeFileAtomic(path, []byte(`{"a":2}`)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(raw))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
