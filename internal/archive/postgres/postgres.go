package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procurehq/vendorscout/internal/archive"
)

// ensure postgresBackend implements archive.Backend
var _ archive.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS discovery_runs (
	id TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	batch_id TEXT NOT NULL,
	query TEXT NOT NULL,
	specs JSONB NOT NULL,
	retrieved INTEGER NOT NULL,
	extracted INTEGER NOT NULL,
	validated INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// New creates a Postgres-backed archive.Backend.
func New(ctx context.Context, dsn string) (archive.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, rec *archive.Record) error {
	specsJSON, err := json.Marshal(rec.Specs)
	if err != nil {
		return fmt.Errorf("failed to marshal specs: %w", err)
	}

	query := `
	INSERT INTO discovery_runs (
		id, fingerprint, batch_id, query, specs, retrieved, extracted, validated, duration_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = b.pool.Exec(ctx, query,
		rec.ID,
		rec.Fingerprint,
		rec.BatchID,
		rec.Query,
		specsJSON,
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

func (b *postgresBackend) Query(ctx context.Context, filter archive.Filter) ([]*archive.Record, error) {
	query := `SELECT id, fingerprint, batch_id, query, specs, retrieved, extracted, validated, duration_ms, created_at FROM discovery_runs WHERE 1=1`
	args := []any{}
	param := 1

	if filter.BatchID != "" {
		query += fmt.Sprintf(` AND batch_id = $%d`, param)
		args = append(args, filter.BatchID)
		param++
	}
	if filter.Query != "" {
		query += fmt.Sprintf(` AND query = $%d`, param)
		args = append(args, filter.Query)
		param++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, param)
		args = append(args, *filter.Since)
		param++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, param)
		args = append(args, filter.Limit)
		param++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, param)
		args = append(args, filter.Offset)
		param++
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*archive.Record
	for rows.Next() {
		var r archive.Record
		var specsJSON []byte
		var durationMs int64

		err := rows.Scan(
			&r.ID, &r.Fingerprint, &r.BatchID, &r.Query, &specsJSON,
			&r.Retrieved, &r.Extracted, &r.Validated, &durationMs, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		r.Duration = time.Duration(durationMs) * time.Millisecond
		if err := json.Unmarshal(specsJSON, &r.Specs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal specs: %w", err)
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return records, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
