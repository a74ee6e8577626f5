package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"MarketNewsForecaster/internal/domain"
)

var batchFileExpr = regexp.MustCompile(`^page_data_(\d+)\.json$`)

// Layout names every stage artifact under one data directory.
type Layout struct {
	Root string
}

func (l Layout) TimelineDir() string { return filepath.Join(l.Root, "stage_1_data") }
func (l Layout) BadgerDir() string   { return filepath.Join(l.Root, "stage_1_badger") }
func (l Layout) CatalogueFile() string {
	return filepath.Join(l.Root, "stage_2_data", "links.json")
}
func (l Layout) RawDir() string        { return filepath.Join(l.Root, "stage_3_data") }
func (l Layout) NormalizedDir() string { return filepath.Join(l.Root, "stage_4_data") }
func (l Layout) AlignedFile() string   { return filepath.Join(l.NormalizedDir(), "total.csv") }

func (l Layout) RawBatchFile(start int) string {
	return filepath.Join(l.RawDir(), batchName(start))
}

func (l Layout) NormalizedBatchFile(start int) string {
	return filepath.Join(l.NormalizedDir(), batchName(start))
}

func (l Layout) DailyFile(day time.Time) string {
	return filepath.Join(l.Root, "daily_outputs", day.Format(domain.DateLayout)+".json")
}

func (l Layout) DatasetFile(symbol string, sequenceLength int) string {
	name := fmt.Sprintf("%s-%d.msgpack", strings.ToLower(symbol), sequenceLength)
	return filepath.Join(l.Root, "datasets", name)
}

func batchName(start int) string {
	return fmt.Sprintf("page_data_%d.json", start)
}

// Exists reports whether an artifact file is present.
func Exists(path string) bool {
	return fileExists(path)
}

// WriteJSON atomically writes v as indented JSON.
func WriteJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, raw)
}

// ReadJSON decodes an artifact; a missing file yields domain.ErrMissingArtifact.
func ReadJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrMissingArtifact, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// BatchStart parses the start offset out of a batch file name.
func BatchStart(path string) (int, bool) {
	m := batchFileExpr.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	start, err := strconv.Atoi(m[1])
	return start, err == nil
}

// BatchFiles lists page_data_<start>.json files in dir ordered by numeric start,
// which keeps discovery order across batches.
func BatchFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	type batch struct {
		start int
		path  string
	}
	var batches []batch
	for _, entry := range entries {
		start, ok := BatchStart(entry.Name())
		if entry.IsDir() || !ok {
			continue
		}
		batches = append(batches, batch{start: start, path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].start < batches[j].start })

	paths := make([]string, len(batches))
	for i, b := range batches {
		paths[i] = b.path
	}
	return paths, nil
}
