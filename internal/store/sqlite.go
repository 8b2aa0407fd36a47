package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ratechart/ratechart/internal/dataset"
)

var ErrNotFound = errors.New("not found")

var _ Store = (*SQLStore)(nil)

type SQLStore struct {
	db     *sql.DB
	driver string
}

const schema = `
CREATE TABLE IF NOT EXISTS imports (
    id INTEGER PRIMARY KEY,
    imported_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS variations (
    seq INTEGER PRIMARY KEY,
    variation_id TEXT,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS days (
    seq INTEGER PRIMARY KEY,
    day TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS counts (
    day_seq INTEGER NOT NULL REFERENCES days(seq),
    variation_id TEXT NOT NULL,
    visits BIGINT,
    conversions BIGINT,
    PRIMARY KEY (day_seq, variation_id)
);

CREATE INDEX IF NOT EXISTS idx_days_day ON days(day);
`

// Open connects to a postgres:// or postgresql:// DSN with lib/pq, and
// treats anything else as a SQLite file path.
func Open(dsn string) (*SQLStore, error) {
	driver := "sqlite"
	if isPostgres(dsn) {
		driver = "postgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// Enable WAL mode
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveDataset replaces the stored dataset in one transaction.
func (s *SQLStore) SaveDataset(ctx context.Context, ds *dataset.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"counts", "days", "variations", "imports"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, v := range ds.Variations {
		_, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO variations (seq, variation_id, name) VALUES (?, ?, ?)`),
			i, nullableString(v.ID), v.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert variation %q: %w", v.Name, err)
		}
	}

	insertCount, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO counts (day_seq, variation_id, visits, conversions) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertCount.Close()

	for i, r := range ds.Data {
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO days (seq, day) VALUES (?, ?)`), i, r.Date); err != nil {
			return fmt.Errorf("failed to insert day %s: %w", r.Date, err)
		}

		for _, id := range countIDs(r) {
			visits, hasVisits := r.Visits[id]
			conversions, hasConversions := r.Conversions[id]
			_, err := insertCount.ExecContext(ctx, i, id,
				sql.NullInt64{Int64: int64(visits), Valid: hasVisits},
				sql.NullInt64{Int64: int64(conversions), Valid: hasConversions},
			)
			if err != nil {
				return fmt.Errorf("failed to insert counts for %s/%s: %w", r.Date, id, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO imports (id, imported_at) VALUES (1, ?)`), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func countIDs(r dataset.DailyRecord) []string {
	seen := make(map[string]bool, len(r.Visits))
	var ids []string
	for id := range r.Visits {
		seen[id] = true
		ids = append(ids, id)
	}
	for id := range r.Conversions {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// LoadDataset reads back the stored dataset with its original ordering.
func (s *SQLStore) LoadDataset(ctx context.Context) (*dataset.Dataset, error) {
	var importedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT imported_at FROM imports WHERE id = 1`).Scan(&importedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}

	ds := &dataset.Dataset{
		Variations: []dataset.Variation{},
		Data:       []dataset.DailyRecord{},
	}

	rows, err := s.db.QueryContext(ctx, `SELECT variation_id, name FROM variations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to get variations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id sql.NullString
		var v dataset.Variation
		if err := rows.Scan(&id, &v.Name); err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		v.ID = id.String
		ds.Variations = append(ds.Variations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read variations: %w", err)
	}

	dayRows, err := s.db.QueryContext(ctx, `SELECT seq, day FROM days ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to get days: %w", err)
	}
	defer dayRows.Close()

	index := make(map[int]int)
	for dayRows.Next() {
		var seq int
		var day string
		if err := dayRows.Scan(&seq, &day); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		index[seq] = len(ds.Data)
		ds.Data = append(ds.Data, dataset.DailyRecord{
			Date:        day,
			Visits:      make(map[string]int),
			Conversions: make(map[string]int),
		})
	}
	if err := dayRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read days: %w", err)
	}

	countRows, err := s.db.QueryContext(ctx, `SELECT day_seq, variation_id, visits, conversions FROM counts`)
	if err != nil {
		return nil, fmt.Errorf("failed to get counts: %w", err)
	}
	defer countRows.Close()

	for countRows.Next() {
		var seq int
		var id string
		var visits, conversions sql.NullInt64
		if err := countRows.Scan(&seq, &id, &visits, &conversions); err != nil {
			return nil, fmt.Errorf("failed to scan counts: %w", err)
		}

		i, ok := index[seq]
		if !ok {
			return nil, fmt.Errorf("counts reference unknown day %d", seq)
		}
		if visits.Valid {
			ds.Data[i].Visits[id] = int(visits.Int64)
		}
		if conversions.Valid {
			ds.Data[i].Conversions[id] = int(conversions.Int64)
		}
	}
	if err := countRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read counts: %w", err)
	}

	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("stored dataset is invalid: %w", err)
	}

	return ds, nil
}

func (s *SQLStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	var importedAt sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM variations),
			(SELECT COUNT(*) FROM days),
			(SELECT MAX(imported_at) FROM imports)
	`).Scan(&st.Variations, &st.Days, &importedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	if importedAt.Valid {
		st.ImportedAt = time.Unix(importedAt.Int64, 0)
	}
	return &st, nil
}

func nullableString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
