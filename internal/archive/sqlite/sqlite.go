package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/procurehq/vendorscout/internal/archive"
)

// ensure sqliteBackend implements archive.Backend
var _ archive.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS discovery_runs (
	id TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	batch_id TEXT NOT NULL,
	query TEXT NOT NULL,
	specs TEXT NOT NULL,
	retrieved INTEGER NOT NULL,
	extracted INTEGER NOT NULL,
	validated INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);
`

// New creates a SQLite-backed archive.Backend.
func New(dsn string) (archive.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, rec *archive.Record) error {
	specsJSON, err := json.Marshal(rec.Specs)
	if err != nil {
		return fmt.Errorf("failed to marshal specs: %w", err)
	}

	query := `
	INSERT INTO discovery_runs (
		id, fingerprint, batch_id, query, specs, retrieved, extracted, validated, duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = b.db.ExecContext(ctx, query,
		rec.ID,
		rec.Fingerprint,
		rec.BatchID,
		rec.Query,
		string(specsJSON),
		rec.Retrieved,
		rec.Extracted,
		rec.Validated,
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter archive.Filter) ([]*archive.Record, error) {
	query := `SELECT id, fingerprint, batch_id, query, specs, retrieved, extracted, validated, duration_ms, created_at FROM discovery_runs WHERE 1=1`
	args := []any{}

	if filter.BatchID != "" {
		query += ` AND batch_id = ?`
		args = append(args, filter.BatchID)
	}
	if filter.Query != "" {
		query += ` AND query = ?`
		args = append(args, filter.Query)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires LIMIT before OFFSET; -1 means unbounded.
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*archive.Record
	for rows.Next() {
		var r archive.Record
		var specsJSON string
		var durationMs int64

		err := rows.Scan(
			&r.ID, &r.Fingerprint, &r.BatchID, &r.Query, &specsJSON,
			&r.Retrieved, &r.Extracted, &r.Validated, &durationMs, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		r.Duration = time.Duration(durationMs) * time.Millisecond
		if err := json.Unmarshal([]byte(specsJSON), &r.Specs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal specs: %w", err)
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return records, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
