package jsonbackend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/procurehq/vendorscout/internal/archive"
)

func newTestBackend(t *testing.T) archive.Backend {
	t.Helper()
	b, err := New(filepath.Join(t.TempDir(), "runs.ndjson"))
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func record(id, batch, query string, createdAt time.Time) *archive.Record {
	return &archive.Record{
		ID:        id,
		BatchID:   batch,
		Query:     query,
		Retrieved: 10,
		Extracted: 8,
		Validated: 5,
		Duration:  3 * time.Second,
		CreatedAt: createdAt,
	}
}

func TestSaveAndQuery(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, rec := range []*archive.Record{
		record("1", "default", "thinkpad", base),
		record("2", "team-a", "gpu", base.Add(time.Hour)),
		record("3", "default", "thinkpad", base.Add(2*time.Hour)),
	} {
		if err := b.Save(ctx, rec); err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
	}

	got, err := b.Query(ctx, archive.Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	// Newest first.
	if got[0].ID != "3" || got[2].ID != "1" {
		t.Errorf("order = %s, %s, %s, want 3, 2, 1", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestQueryFilters(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	_ = b.Save(ctx, record("1", "default", "thinkpad", base))
	_ = b.Save(ctx, record("2", "team-a", "gpu", base.Add(time.Hour)))
	_ = b.Save(ctx, record("3", "default", "gpu", base.Add(2*time.Hour)))

	got, err := b.Query(ctx, archive.Filter{BatchID: "default"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("batch filter returned %d records, want 2", len(got))
	}

	got, _ = b.Query(ctx, archive.Filter{Query: "gpu"})
	if len(got) != 2 {
		t.Errorf("query filter returned %d records, want 2", len(got))
	}

	since := base.Add(90 * time.Minute)
	got, _ = b.Query(ctx, archive.Filter{Since: &since})
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("since filter returned %v", got)
	}

	got, _ = b.Query(ctx, archive.Filter{Limit: 1})
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("limit filter returned %v", got)
	}

	got, _ = b.Query(ctx, archive.Filter{Offset: 2})
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("offset filter returned %v", got)
	}

	got, _ = b.Query(ctx, archive.Filter{Offset: 10})
	if len(got) != 0 {
		t.Errorf("past-end offset returned %v", got)
	}
}

func TestSaveAfterQueryAppends(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	base := time.Now().UTC()
	_ = b.Save(ctx, record("1", "default", "a", base))
	if _, err := b.Query(ctx, archive.Filter{}); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	// The read must not clobber the append position.
	_ = b.Save(ctx, record("2", "default", "b", base))

	got, err := b.Query(ctx, archive.Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records after interleaved save, want 2", len(got))
	}
}
