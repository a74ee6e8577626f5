package storage

import (
	"fmt"
	"time"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

// ArtifactStore keeps stage outputs as files under a Layout.
type ArtifactStore struct {
	Layout Layout
}

var _ ports.ArtifactStore = (*ArtifactStore)(nil)

// NewArtifactStore roots the artifact tree at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{Layout: Layout{Root: dir}}
}

func (a *ArtifactStore) SaveCatalogue(links []domain.ArticleLink) (string, error) {
	path := a.Layout.CatalogueFile()
	return path, WriteJSON(path, links)
}

func (a *ArtifactStore) LoadCatalogue() ([]domain.ArticleLink, error) {
	var links []domain.ArticleLink
	if err := ReadJSON(a.Layout.CatalogueFile(), &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (a *ArtifactStore) RawBatchExists(start int) bool {
	return Exists(a.Layout.RawBatchFile(start))
}

func (a *ArtifactStore) SaveRawBatch(start int, articles []domain.RawArticle) (string, error) {
	path := a.Layout.RawBatchFile(start)
	return path, WriteJSON(path, nonNil(articles))
}

// RawBatchStarts lists the start offsets of the raw batches on disk, ascending.
func (a *ArtifactStore) RawBatchStarts() ([]int, error) {
	files, err := BatchFiles(a.Layout.RawDir())
	if err != nil {
		return nil, err
	}
	starts := make([]int, 0, len(files))
	for _, f := range files {
		if start, ok := BatchStart(f); ok {
			starts = append(starts, start)
		}
	}
	return starts, nil
}

func (a *ArtifactStore) LoadRawBatch(start int) ([]domain.RawArticle, error) {
	var articles []domain.RawArticle
	if err := ReadJSON(a.Layout.RawBatchFile(start), &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (a *ArtifactStore) NormalizedBatchExists(start int) bool {
	return Exists(a.Layout.NormalizedBatchFile(start))
}

func (a *ArtifactStore) SaveNormalizedBatch(start int, articles []domain.NormalizedArticle) (string, error) {
	path := a.Layout.NormalizedBatchFile(start)
	return path, WriteJSON(path, nonNil(articles))
}

// LoadNormalized concatenates every normalized batch in batch order.
func (a *ArtifactStore) LoadNormalized() ([]domain.NormalizedArticle, error) {
	files, err := BatchFiles(a.Layout.NormalizedDir())
	if err != nil {
		return nil, err
	}
	var all []domain.NormalizedArticle
	for _, f := range files {
		var batch []domain.NormalizedArticle
		if err := ReadJSON(f, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}

func (a *ArtifactStore) SaveAligned(records []domain.AlignedRecord) (string, error) {
	path := a.Layout.AlignedFile()
	return path, WriteAlignedCSV(path, records)
}

func (a *ArtifactStore) LoadAligned() ([]domain.AlignedRecord, error) {
	return ReadAlignedCSV(a.Layout.AlignedFile())
}

func (a *ArtifactStore) SaveDailySnapshot(snapshot domain.DailySnapshot) (string, error) {
	day, err := time.Parse(domain.DateLayout, snapshot.Day)
	if err != nil {
		return "", fmt.Errorf("snapshot day %q: %w", snapshot.Day, err)
	}
	path := a.Layout.DailyFile(day)
	return path, WriteJSON(path, snapshot)
}

func (a *ArtifactStore) SaveDataset(ds domain.Dataset) (string, error) {
	path := a.Layout.DatasetFile(ds.Symbol, ds.SequenceLength)
	return path, WriteDataset(path, ds)
}

// nonNil keeps empty batches as [] rather than null on disk.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
