package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDateExtraction marks an article body without a parseable date.
	ErrDateExtraction = errors.New("no parseable date in article")
	// ErrFilteredOut marks an article that failed the relevance filter.
	ErrFilteredOut = errors.New("article filtered out")
	// ErrMissingArtifact marks a stage input that has not been produced yet.
	ErrMissingArtifact = errors.New("stage artifact missing")
	// ErrNoRecordSource is returned when forecasting has nowhere to read history from.
	ErrNoRecordSource = errors.New("no record source configured")
)

// InsufficientWindowError reports a window whose length differs from the
// sequence length the model requires.
type InsufficientWindowError struct {
	Want int
	Got  int
}

func (e *InsufficientWindowError) Error() string {
	return fmt.Sprintf("window has %d records, model requires %d", e.Got, e.Want)
}
