package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

var alignedHeader = []string{
	"symbol", "time", "open", "high", "low", "close", "volume",
	"year", "month", "day", "merge_corpus", "news_count", "created_at",
}

// WriteAlignedCSV atomically exports aligned records in date order.
func WriteAlignedCSV(path string, records []domain.AlignedRecord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(alignedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Symbol,
			r.Date.Format(domain.DateLayout),
			formatFloat(r.Open),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.Close),
			formatFloat(r.Volume),
			strconv.Itoa(r.Date.Year()),
			strconv.Itoa(int(r.Date.Month())),
			strconv.Itoa(r.Date.Day()),
			r.Corpus,
			strconv.Itoa(r.NewsCount),
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", row[1], err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// ReadAlignedCSV loads records written by WriteAlignedCSV.
func ReadAlignedCSV(path string) ([]domain.AlignedRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingArtifact, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(alignedHeader)
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []domain.AlignedRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rec, err := parseAlignedRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseAlignedRow(row []string) (domain.AlignedRecord, error) {
	var rec domain.AlignedRecord
	var err error

	rec.Symbol = row[0]
	if rec.Date, err = time.Parse(domain.DateLayout, row[1]); err != nil {
		return rec, fmt.Errorf("parse time: %w", err)
	}
	fields := []*float64{&rec.Open, &rec.High, &rec.Low, &rec.Close, &rec.Volume}
	for i, dst := range fields {
		if *dst, err = strconv.ParseFloat(row[2+i], 64); err != nil {
			return rec, fmt.Errorf("parse %s: %w", alignedHeader[2+i], err)
		}
	}
	rec.Corpus = row[10]
	if rec.NewsCount, err = strconv.Atoi(row[11]); err != nil {
		return rec, fmt.Errorf("parse news_count: %w", err)
	}
	if row[12] != "" {
		if rec.CreatedAt, err = time.Parse(time.RFC3339, row[12]); err != nil {
			return rec, fmt.Errorf("parse created_at: %w", err)
		}
	}
	return rec, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CSVRecordSource serves the aligned CSV export as forecast history.
type CSVRecordSource struct {
	path string
}

var _ ports.RecordSource = (*CSVRecordSource)(nil)

// NewCSVRecordSource reads from the aligned dataset at path.
func NewCSVRecordSource(path string) *CSVRecordSource {
	return &CSVRecordSource{path: path}
}

// LatestRecords returns the last n records for symbol, oldest first.
func (s *CSVRecordSource) LatestRecords(_ context.Context, symbol string, n int) ([]domain.AlignedRecord, error) {
	all, err := ReadAlignedCSV(s.path)
	if err != nil {
		return nil, err
	}

	matching := make([]domain.AlignedRecord, 0, len(all))
	for _, rec := range all {
		if symbol == "" || rec.Symbol == symbol {
			matching = append(matching, rec)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool { return matching[i].Date.Before(matching[j].Date) })
	if len(matching) > n {
		matching = matching[len(matching)-n:]
	}
	return matching, nil
}
