package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"MarketNewsForecaster/internal/config"
	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

var identExpr = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSink writes rows into Postgres (pgx) or SQLite, opening one connection per call.
type SQLSink struct {
	driver     string
	dsn        string
	priceTable string
}

var (
	_ ports.Sink         = (*SQLSink)(nil)
	_ ports.RecordSource = (*SQLSink)(nil)
)

// NewSQLSink builds a sink from configuration; an incomplete config yields a no-op sink.
func NewSQLSink(cfg config.DatabaseConfig) *SQLSink {
	return &SQLSink{
		driver:     cfg.Driver,
		dsn:        cfg.DSN,
		priceTable: cfg.PriceTable,
	}
}

// Configured reports whether inserts will reach a database.
func (s *SQLSink) Configured() bool {
	return s != nil && s.driver != "" && s.dsn != ""
}

func (s *SQLSink) placeholder() sq.PlaceholderFormat {
	if s.driver == config.DriverPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func (s *SQLSink) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", s.driver, err)
	}
	return db, nil
}

// Insert writes a single row; it is a no-op when the sink is not configured.
func (s *SQLSink) Insert(ctx context.Context, table string, row map[string]any) error {
	if !s.Configured() {
		return nil
	}
	if !identExpr.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	query, args, err := sq.Insert(table).
		SetMap(row).
		PlaceholderFormat(s.placeholder()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert into %s: %w", table, err)
	}

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// LatestRecords reads the last n aligned rows for symbol and returns them oldest first.
func (s *SQLSink) LatestRecords(ctx context.Context, symbol string, n int) ([]domain.AlignedRecord, error) {
	if !s.Configured() {
		return nil, domain.ErrNoRecordSource
	}
	if !identExpr.MatchString(s.priceTable) {
		return nil, fmt.Errorf("invalid table name %q", s.priceTable)
	}

	query, args, err := sq.Select(
		"symbol", "time", "open", "high", "low", "close", "volume",
		"merge_corpus", "news_count", "created_at",
	).
		From(s.priceTable).
		Where(sq.Eq{"symbol": symbol}).
		OrderBy("time DESC").
		Limit(uint64(n)).
		PlaceholderFormat(s.placeholder()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.priceTable, err)
	}

	var records []domain.AlignedRecord
	for rows.Next() {
		var (
			rec       domain.AlignedRecord
			day       timeValue
			createdAt timeValue
			corpus    sql.NullString
		)
		if err := rows.Scan(&rec.Symbol, &day, &rec.Open, &rec.High, &rec.Low, &rec.Close,
			&rec.Volume, &corpus, &rec.NewsCount, &createdAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.Date = domain.Day(day.Time)
		rec.CreatedAt = createdAt.Time
		rec.Corpus = corpus.String
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	domain.DateLayout,
}

// timeValue scans timestamps that drivers return either as time.Time or as text.
type timeValue struct {
	Time time.Time
}

func (t *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
}

func (t *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised time %q", s)
}
