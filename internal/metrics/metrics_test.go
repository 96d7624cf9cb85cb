package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMetricsServer(t *testing.T) {
	srv := Start(19091, nil)
	// Give it a tiny bit of time to start up
	time.Sleep(100 * time.Millisecond)

	defer srv.Stop(context.Background())

	RecordRun("miss", 7, 3*time.Second)
	RecordRun("hit", 7, 0)
	ExtractionsTotal.WithLabelValues("cdw.com", "ok").Inc()
	ValidationsTotal.WithLabelValues("accepted").Inc()

	resp, err := http.Get("http://localhost:19091/metrics")
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	output := string(body)
	for _, metric := range []string{
		"vendorscout_discovery_runs_total",
		"vendorscout_discovery_duration_seconds",
		"vendorscout_extractions_total",
		"vendorscout_validations_total",
		"vendorscout_candidates_found",
	} {
		if !strings.Contains(output, metric) {
			t.Errorf("expected %s metric in output", metric)
		}
	}
}
