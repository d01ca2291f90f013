package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"cpu-monitoring/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteDSNOptions = "?_journal_mode=WAL&_busy_timeout=5000"

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{dbPath: path}
}

// NewSQLiteStoreFromDB wraps an already opened handle. Init must still be
// called to create the schema.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Init() error {
	var err error

	if s.db == nil {
		s.db, err = sql.Open("sqlite3", s.dbPath+sqliteDSNOptions)
		if err != nil {
			return fmt.Errorf("error opening database: %w", err)
		}
	}

	if err = s.db.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS cpu_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		usage REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cpu_usage_timestamp ON cpu_usage(timestamp);`

	_, err = s.db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}

	log.Println("SQLiteStore initialized.")
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, sample domain.Sample) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO cpu_usage(timestamp, usage) VALUES(?, ?)",
		sample.Timestamp.Unix(), sample.Usage)
	if err != nil {
		return fmt.Errorf("error inserting sample: %w", err)
	}
	return nil
}

// RangeBetween is inclusive on both bounds. Samples sharing a timestamp come
// back in insertion order.
func (s *SQLiteStore) RangeBetween(ctx context.Context, start, end time.Time) ([]domain.Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT timestamp, usage FROM cpu_usage WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC, id ASC",
		ceilUnix(start), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	samples := make([]domain.Sample, 0)

	for rows.Next() {
		var (
			ts    int64
			usage float64
		)
		if err := rows.Scan(&ts, &usage); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		samples = append(samples, domain.Sample{Timestamp: time.Unix(ts, 0), Usage: usage})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return samples, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cpu_usage").Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting samples: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ceilUnix rounds a lower bound up to the next whole second so that a bound
// with a fractional part never admits the second before it.
func ceilUnix(t time.Time) int64 {
	sec := t.Unix()
	if t.Nanosecond() > 0 {
		sec++
	}
	return sec
}
