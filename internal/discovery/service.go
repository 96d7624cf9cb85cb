// Package discovery composes the pipeline stages into the request-facing
// orchestrator: cache check, retrieve, extract, validate, rank, store,
// paginate.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/procurehq/vendorscout/internal/archive"
	"github.com/procurehq/vendorscout/internal/cache"
	"github.com/procurehq/vendorscout/internal/candidate"
	"github.com/procurehq/vendorscout/internal/metrics"
	"github.com/procurehq/vendorscout/internal/pipeline"
)

// Request is one discovery call.
type Request struct {
	Query         string   `json:"query"`
	SelectedName  string   `json:"selected_name"`
	SelectedSpecs []string `json:"selected_specs"`
	Summary       string   `json:"summary"`
	Page          int      `json:"page"`
	PageSize      int      `json:"page_size"`
	TopN          int      `json:"top_n"`
	BatchID       string   `json:"batch_id,omitempty"`
	Refresh       bool     `json:"refresh"`
}

// Summary aggregates run-level facts about a response page.
type Summary struct {
	Found              int               `json:"found"`
	MissingFieldsCount int               `json:"missing_fields_count"`
	Notes              string            `json:"notes"`
	Pagination         pipeline.PageInfo `json:"pagination"`
}

// Response is the paginated discovery result.
type Response struct {
	Query         string                `json:"query"`
	SelectedName  string                `json:"selected_name"`
	SelectedSpecs []string              `json:"selected_specs"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"page_size"`
	Results       []candidate.Candidate `json:"results"`
	Summary       Summary               `json:"summary"`
}

// Options tune the orchestrator.
type Options struct {
	DefaultTopN int
	MaxPageSize int
	Concurrency int
	TTL         time.Duration
}

func (o *Options) applyDefaults() {
	if o.DefaultTopN <= 0 {
		o.DefaultTopN = 120
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 50
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	if o.TTL <= 0 {
		o.TTL = cache.DefaultTTL
	}
}

// Service runs discovery requests. All pipeline stages are pure over their
// inputs; Service owns the only request/response surface and the only
// writes to the cache store.
type Service struct {
	retriever *pipeline.Retriever
	extractor *pipeline.Extractor
	validator *pipeline.Validator
	ranker    *pipeline.Ranker
	store     cache.Store
	archive   archive.Backend // optional
	logger    *slog.Logger
	opts      Options

	// flight collapses concurrent discovery runs for the same fingerprint
	// so identical requests cannot storm vendor sites.
	flight singleflight.Group
}

// New assembles a Service. arch may be nil to disable run archiving.
func New(retriever *pipeline.Retriever, extractor *pipeline.Extractor, validator *pipeline.Validator,
	ranker *pipeline.Ranker, store cache.Store, arch archive.Backend, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts.applyDefaults()
	return &Service{
		retriever: retriever,
		extractor: extractor,
		validator: validator,
		ranker:    ranker,
		store:     store,
		archive:   arch,
		logger:    logger,
		opts:      opts,
	}
}

// Handle serves one discovery request: cache hit paginates immediately,
// otherwise the full pipeline runs and its result is cached before
// pagination. Failed stages shrink the candidate set; they never abort.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	req.Page, req.PageSize = pipeline.ClampPage(req.Page, req.PageSize, s.opts.MaxPageSize)
	if req.TopN <= 0 {
		req.TopN = s.opts.DefaultTopN
	}

	fp := cache.NewFingerprint(req.Query, req.SelectedSpecs, req.PageSize, req.BatchID)

	if !req.Refresh {
		entry, err := s.store.Get(ctx, fp)
		if err != nil {
			s.logger.Warn("cache unavailable, running pipeline", "err", err)
		}
		if entry != nil {
			metrics.RecordRun("hit", len(entry.Candidates), 0)
			s.logger.Debug("cache hit", "fingerprint", string(fp), "candidates", len(entry.Candidates))
			return s.respond(req, entry.Candidates), nil
		}
	}

	ranked, err := s.discoverOnce(ctx, fp, req)
	if err != nil {
		return nil, err
	}
	return s.respond(req, ranked), nil
}

// discoverOnce runs the pipeline behind a single-flight gate keyed by
// fingerprint.
func (s *Service) discoverOnce(ctx context.Context, fp cache.Fingerprint, req Request) ([]candidate.Candidate, error) {
	v, err, _ := s.flight.Do(string(fp), func() (any, error) {
		return s.discover(ctx, fp, req)
	})
	if err != nil {
		return nil, err
	}
	return v.([]candidate.Candidate), nil
}

func (s *Service) discover(ctx context.Context, fp cache.Fingerprint, req Request) ([]candidate.Candidate, error) {
	start := time.Now()

	urls := s.retriever.Run(ctx, req.Query, req.SelectedSpecs, req.TopN)
	s.logger.Info("retrieved candidate urls", "query", req.Query, "count", len(urls))

	vetted, extracted := s.extractAndValidate(ctx, urls, req.SelectedSpecs)
	if err := ctx.Err(); err != nil {
		// Canceled runs must not write a partial list into the cache.
		return nil, err
	}

	ranked := s.ranker.Run(vetted)

	outcome := "miss"
	if req.Refresh {
		outcome = "refresh"
	}
	elapsed := time.Since(start)
	metrics.RecordRun(outcome, len(ranked), elapsed)

	entry := &cache.Entry{
		BatchID:    batchOrDefault(req.BatchID),
		Candidates: ranked,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Set(ctx, fp, entry, s.opts.TTL); err != nil {
		s.logger.Warn("cache write failed, continuing uncached", "err", err)
	}

	s.archiveRun(ctx, fp, req, len(urls), extracted, len(ranked), elapsed)

	s.logger.Info("discovery complete",
		"query", req.Query,
		"urls", len(urls),
		"extracted", extracted,
		"validated", len(ranked),
		"duration", elapsed,
	)
	return ranked, nil
}

// extractAndValidate fans extraction and validation out over a bounded
// worker pool and collects results indexed by input position, so the
// candidate set fed to the ranker is independent of completion order.
func (s *Service) extractAndValidate(ctx context.Context, urls []string, specs []string) (vetted []candidate.Candidate, extracted int) {
	results := make([]*candidate.Candidate, len(urls))
	rawCount := make([]bool, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, u := range urls {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			raw := s.extractor.Run(gCtx, u)
			if raw == nil {
				return nil
			}
			rawCount[i] = true

			c, reason := s.validator.Run(gCtx, raw, specs)
			if c == nil {
				s.logger.Debug("candidate dropped", "url", u, "reason", reason)
				return nil
			}
			results[i] = c
			return nil
		})
	}
	// Workers only record per-URL outcomes; they never return errors.
	_ = g.Wait()

	for i := range results {
		if rawCount[i] {
			extracted++
		}
		if results[i] != nil {
			vetted = append(vetted, *results[i])
		}
	}
	return vetted, extracted
}

func (s *Service) respond(req Request, all []candidate.Candidate) *Response {
	pageItems := pipeline.Page(all, req.Page, req.PageSize)

	missing := 0
	for _, c := range pageItems {
		if c.SalesEmail == "" || c.SalesEmail == candidate.Webform {
			missing++
		}
	}

	return &Response{
		Query:         req.Query,
		SelectedName:  req.SelectedName,
		SelectedSpecs: req.SelectedSpecs,
		Page:          req.Page,
		PageSize:      req.PageSize,
		Results:       pageItems,
		Summary: Summary{
			Found:              len(all),
			MissingFieldsCount: missing,
			Notes:              fmt.Sprintf("US-only + link-valid. Cached list length=%d. top_n=%d applied.", len(all), req.TopN),
			Pagination:         pipeline.Info(len(all), req.Page, req.PageSize),
		},
	}
}

func (s *Service) archiveRun(ctx context.Context, fp cache.Fingerprint, req Request, retrieved, extracted, validated int, d time.Duration) {
	if s.archive == nil {
		return
	}
	rec := &archive.Record{
		ID:          uuid.New().String(),
		Fingerprint: string(fp),
		BatchID:     batchOrDefault(req.BatchID),
		Query:       req.Query,
		Specs:       req.SelectedSpecs,
		Retrieved:   retrieved,
		Extracted:   extracted,
		Validated:   validated,
		Duration:    d,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.archive.Save(ctx, rec); err != nil {
		s.logger.Warn("failed to archive discovery run", "err", err)
	}
}

// Batches lists cached batches with candidate counts and creation time.
func (s *Service) Batches(ctx context.Context) ([]cache.BatchInfo, error) {
	return s.store.Batches(ctx)
}

// ClearBatch drops every cache entry owned by batchID and returns how many
// entries were removed.
func (s *Service) ClearBatch(ctx context.Context, batchID string) (int, error) {
	return s.store.Clear(ctx, batchOrDefault(batchID))
}

func batchOrDefault(batchID string) string {
	if batchID == "" {
		return cache.DefaultBatch
	}
	return batchID
}
