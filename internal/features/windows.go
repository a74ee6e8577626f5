package features

import "MarketNewsForecaster/internal/domain"

// Window is a run of consecutive records followed by the record it should predict.
type Window struct {
	Records []domain.AlignedRecord
	Next    domain.AlignedRecord
}

// SlidingWindows returns every window of n records that has a following
// record, in date order. The input must already be sorted by date.
func SlidingWindows(records []domain.AlignedRecord, n int) []Window {
	if n <= 0 || len(records) <= n {
		return nil
	}
	out := make([]Window, 0, len(records)-n)
	for start := 0; start+n < len(records); start++ {
		out = append(out, Window{
			Records: records[start : start+n],
			Next:    records[start+n],
		})
	}
	return out
}
