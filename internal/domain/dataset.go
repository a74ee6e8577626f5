package domain

import "time"

// DatasetExample is one training window: scaled tensors plus the next close
// scaled with the same window's close range.
type DatasetExample struct {
	Dates    []string    `msgpack:"dates"`
	Price    [][]float64 `msgpack:"price"`
	Events   [][]float64 `msgpack:"events"`
	Target   float64     `msgpack:"target"`
	CloseMin float64     `msgpack:"close_min"`
	CloseMax float64     `msgpack:"close_max"`
}

// Dataset holds every training example for one symbol.
type Dataset struct {
	Symbol         string           `msgpack:"symbol"`
	SequenceLength int              `msgpack:"sequence_length"`
	EmbeddingDim   int              `msgpack:"embedding_dim"`
	Examples       []DatasetExample `msgpack:"examples"`
}

// DailySnapshot is the audit document written after each daily run.
type DailySnapshot struct {
	RunID       string              `json:"run_id"`
	Symbol      string              `json:"symbol"`
	Day         string              `json:"day"`
	GeneratedAt time.Time           `json:"generated_at"`
	NewsEvents  []NormalizedArticle `json:"news_events"`
	Price       *PriceBar           `json:"price"`
	Record      *AlignedRecord      `json:"record"`
}
