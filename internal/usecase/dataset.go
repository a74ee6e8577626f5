package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/features"
	"MarketNewsForecaster/internal/ports"
)

// DatasetReport describes an exported training set.
type DatasetReport struct {
	Path     string
	Records  int
	Examples int
}

// DatasetBuilder slides the shared window builder over the aligned records
// to produce training examples.
type DatasetBuilder struct {
	Artifacts ports.ArtifactStore
	Builder   features.Builder
	Logger    *slog.Logger
}

// Run exports every window for symbol whose next-day close is known.
func (d *DatasetBuilder) Run(ctx context.Context, symbol string) (DatasetReport, error) {
	log := orDiscard(d.Logger)

	all, err := d.Artifacts.LoadAligned()
	if err != nil {
		return DatasetReport{}, fmt.Errorf("load aligned records: %w", err)
	}
	records := make([]domain.AlignedRecord, 0, len(all))
	for _, rec := range all {
		if symbol == "" || rec.Symbol == symbol {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })

	builder := d.Builder
	if builder.Embedder != nil {
		builder.Embedder = features.NewMemoEmbedder(builder.Embedder)
	}

	ds := domain.Dataset{
		Symbol:         symbol,
		SequenceLength: builder.SequenceLength,
		EmbeddingDim:   builder.EmbeddingDim,
		Examples:       []domain.DatasetExample{},
	}
	for _, w := range features.SlidingWindows(records, builder.SequenceLength) {
		tensors, err := builder.Build(ctx, w.Records)
		if err != nil {
			return DatasetReport{Records: len(records)}, fmt.Errorf("window ending %s: %w",
				w.Records[len(w.Records)-1].Date.Format(domain.DateLayout), err)
		}
		dates := make([]string, len(tensors.Dates))
		for i, dt := range tensors.Dates {
			dates[i] = dt.Format(domain.DateLayout)
		}
		ds.Examples = append(ds.Examples, domain.DatasetExample{
			Dates:    dates,
			Price:    features.Rows(tensors.Price),
			Events:   features.Rows(tensors.Events),
			Target:   tensors.Stats.Close.Scale(w.Next.Close),
			CloseMin: tensors.Stats.Close.Min,
			CloseMax: tensors.Stats.Close.Max,
		})
	}

	path, err := d.Artifacts.SaveDataset(ds)
	if err != nil {
		return DatasetReport{Records: len(records)}, fmt.Errorf("save dataset: %w", err)
	}

	log.Info("dataset exported", "symbol", symbol, "records", len(records), "examples", len(ds.Examples), "path", path)
	return DatasetReport{Path: path, Records: len(records), Examples: len(ds.Examples)}, nil
}
