package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DiscoveryRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendorscout_discovery_runs_total",
			Help: "Total discovery requests by cache outcome",
		},
		[]string{"outcome"}, // hit, miss, refresh
	)

	DiscoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vendorscout_discovery_duration_seconds",
			Help:    "Duration of full discovery pipeline runs in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendorscout_extractions_total",
			Help: "Candidate page extractions by result",
		},
		[]string{"domain", "result"}, // ok, fetch_error, blocked, unparseable
	)

	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendorscout_validations_total",
			Help: "Candidate validations by result",
		},
		[]string{"result"}, // accepted, missing_fields, non_us, spec_mismatch
	)

	CandidatesFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vendorscout_candidates_found",
			Help:    "Admissible candidates per discovery run",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

// RecordRun observes a completed pipeline run.
func RecordRun(outcome string, found int, d time.Duration) {
	DiscoveryRuns.WithLabelValues(outcome).Inc()
	if outcome != "hit" {
		DiscoveryDuration.Observe(d.Seconds())
		CandidatesFound.Observe(float64(found))
	}
}

// Server exposes /metrics for Prometheus scraping.
type Server struct {
	srv *http.Server
}

// Start begins serving metrics on the given port.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
