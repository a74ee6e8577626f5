package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"MarketNewsForecaster/internal/domain"
)

// WriteDataset encodes the dataset with msgpack and writes it atomically.
func WriteDataset(path string, ds domain.Dataset) error {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// ReadDataset decodes a dataset previously written by WriteDataset.
func ReadDataset(path string) (domain.Dataset, error) {
	var ds domain.Dataset
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ds, fmt.Errorf("%w: %s", domain.ErrMissingArtifact, path)
	}
	if err != nil {
		return ds, fmt.Errorf("read dataset: %w", err)
	}
	if err := msgpack.Unmarshal(raw, &ds); err != nil {
		return ds, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, nil
}
