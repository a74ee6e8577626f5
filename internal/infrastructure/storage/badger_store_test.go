package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketNewsForecaster/internal/domain"
)

func TestBadgerRecordStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenBadgerRecordStore(dir)
	require.NoError(t, err)

	fetched := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.Save(domain.FetchRecord{Key: 9, Payload: []byte("nine"), FetchedAt: fetched}))
	require.NoError(t, store.Save(domain.FetchRecord{Key: 2, Payload: []byte("two"), FetchedAt: fetched}))
	// records are permanent: a second save for the same key is ignored
	require.NoError(t, store.Save(domain.FetchRecord{Key: 9, Payload: []byte("changed"), FetchedAt: fetched}))
	require.NoError(t, store.Close())

	reopened, err := OpenBadgerRecordStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(9)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("nine"), got.Payload)
	assert.True(t, fetched.Equal(got.FetchedAt))

	missing, err := reopened.Load(10)
	require.NoError(t, err)
	assert.Nil(t, missing)

	keys, err := reopened.Keys()
	require.NoError(t, err)
	assert.Equal(t, []domain.TimelineKey{2, 9}, keys)
}
