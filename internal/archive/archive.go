// Package archive persists a record of each completed discovery run for
// audit: what was asked, how many candidates survived each stage, how long
// it took. Archive failures are degraded service, never fatal.
package archive

import (
	"context"
	"time"
)

// Record summarizes one pipeline execution.
type Record struct {
	ID          string
	Fingerprint string
	BatchID     string
	Query       string
	Specs       []string
	Retrieved   int // candidate URLs from the retriever
	Extracted   int // raw candidates after extraction
	Validated   int // admissible candidates after validation
	Duration    time.Duration
	CreatedAt   time.Time
}

// Filter selects records when querying the archive.
type Filter struct {
	BatchID string
	Query   string
	Since   *time.Time
	Limit   int
	Offset  int
}

// Backend stores and queries discovery records.
type Backend interface {
	Save(ctx context.Context, rec *Record) error
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Close() error
}
