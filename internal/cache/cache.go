// Package cache defines the store holding ranked candidate lists between
// discovery runs, keyed by request fingerprint.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/procurehq/vendorscout/internal/candidate"
)

// DefaultTTL is how long a ranked list stays valid without a refresh.
const DefaultTTL = time.Hour

// DefaultBatch groups runs that supplied no batch id.
const DefaultBatch = "default"

// Fingerprint deterministically identifies one cacheable discovery request.
// Two requests with equal fingerprints and no explicit refresh must return
// the same ranked list within the TTL.
type Fingerprint string

// NewFingerprint hashes the request parameters that define a discovery run.
func NewFingerprint(query string, specs []string, pageSize int, batchID string) Fingerprint {
	if batchID == "" {
		batchID = DefaultBatch
	}
	payload := struct {
		Query    string   `json:"query"`
		Specs    []string `json:"specs"`
		PageSize int      `json:"page_size"`
		BatchID  string   `json:"batch_id"`
	}{query, specs, pageSize, batchID}

	// Struct field order fixes the key order, so the encoding is canonical.
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return Fingerprint("vf:" + hex.EncodeToString(sum[:]))
}

// Entry is one cached discovery run.
type Entry struct {
	BatchID    string                `json:"batch_id"`
	Candidates []candidate.Candidate `json:"candidates"`
	CreatedAt  time.Time             `json:"created_at"`
}

// BatchInfo summarizes the cached runs belonging to one batch.
type BatchInfo struct {
	BatchID        string    `json:"batch_id"`
	Runs           int       `json:"runs"`
	CandidateCount int       `json:"candidate_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the narrow interface the orchestrator caches through. Store
// unavailability is degraded service: implementations return errors, and
// the orchestrator logs and re-runs the pipeline instead of failing.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (*Entry, error)
	Set(ctx context.Context, fp Fingerprint, entry *Entry, ttl time.Duration) error
	Clear(ctx context.Context, batchID string) (int, error)
	Batches(ctx context.Context) ([]BatchInfo, error)
	Close() error
}
