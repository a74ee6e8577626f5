package domain

import "time"

// TimelineKey is an opaque pagination cursor into the news timeline.
type TimelineKey int

// FetchRecord is the raw timeline payload cached for one key.
type FetchRecord struct {
	Key       TimelineKey `json:"key"`
	Payload   []byte      `json:"payload"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// ArticleLink points to one article discovered on a timeline page.
type ArticleLink struct {
	Key   TimelineKey `json:"key"`
	URL   string      `json:"link"`
	Order int         `json:"order"`
}

// RawArticle is a fetched article body, consumed by the normalizer.
type RawArticle struct {
	Key   TimelineKey `json:"key"`
	URL   string      `json:"url"`
	Order int         `json:"order"`
	Body  string      `json:"page_data"`
}

// NormalizedArticle is a cleaned, dated and relevance-filtered article.
type NormalizedArticle struct {
	Corpus string `json:"corpus"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Day    int    `json:"day"`
	URL    string `json:"url"`
	Order  int    `json:"order"`
}

// Date returns the calendar day the article belongs to, at UTC midnight.
func (a NormalizedArticle) Date() time.Time {
	return time.Date(a.Year, time.Month(a.Month), a.Day, 0, 0, 0, 0, time.UTC)
}

// RejectReason explains why the normalizer dropped an article.
type RejectReason string

const (
	RejectNoDate      RejectReason = "no_date"
	RejectFilteredOut RejectReason = "filtered_out"
)

// Rejection describes an article that was deliberately skipped.
type Rejection struct {
	URL    string
	Reason RejectReason
	Detail string
}

// Outcome is the result of normalizing one article: exactly one of Article or
// Rejection is set.
type Outcome struct {
	Article   *NormalizedArticle
	Rejection *Rejection
}

// Accepted reports whether the outcome carries an article.
func (o Outcome) Accepted() bool {
	return o.Article != nil
}
