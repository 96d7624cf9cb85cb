package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/procurehq/vendorscout/internal/archive"
)

func sampleRuns() []*archive.Record {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []*archive.Record{
		{ID: "1", BatchID: "default", Query: "thinkpad", Retrieved: 40, Extracted: 30, Validated: 12, Duration: 8 * time.Second, CreatedAt: base},
		{ID: "2", BatchID: "default", Query: "thinkpad", Retrieved: 40, Extracted: 28, Validated: 10, Duration: 7 * time.Second, CreatedAt: base.Add(time.Hour)},
		{ID: "3", BatchID: "team-a", Query: "gpu", Retrieved: 20, Extracted: 15, Validated: 8, Duration: 5 * time.Second, CreatedAt: base.Add(-time.Hour)},
	}
}

func TestGenerateSummary(t *testing.T) {
	s := GenerateSummary(sampleRuns())

	if s.TotalRuns != 3 {
		t.Errorf("TotalRuns = %d, want 3", s.TotalRuns)
	}
	if s.TotalRetrieved != 100 {
		t.Errorf("TotalRetrieved = %d, want 100", s.TotalRetrieved)
	}
	if s.TotalValidated != 30 {
		t.Errorf("TotalValidated = %d, want 30", s.TotalValidated)
	}
	if s.RunsByBatch["default"] != 2 || s.RunsByBatch["team-a"] != 1 {
		t.Errorf("RunsByBatch = %v", s.RunsByBatch)
	}
	if !s.StartTime.Equal(time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC)) {
		t.Errorf("StartTime = %v", s.StartTime)
	}
	if !s.EndTime.Equal(time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC)) {
		t.Errorf("EndTime = %v", s.EndTime)
	}
}

func TestGenerateSummaryEmpty(t *testing.T) {
	s := GenerateSummary(nil)
	if s.TotalRuns != 0 || len(s.RunsByBatch) != 0 {
		t.Errorf("empty summary = %+v", s)
	}
	if s.DropRate() != 0 {
		t.Errorf("DropRate on empty = %v, want 0", s.DropRate())
	}
}

func TestDropRate(t *testing.T) {
	s := Summary{TotalRetrieved: 100, TotalValidated: 30}
	if got := s.DropRate(); got != 0.7 {
		t.Errorf("DropRate = %v, want 0.7", got)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, GenerateSummary(sampleRuns())); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Runs:            3", "URLs Retrieved:  100", "default: 2", "gpu: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, GenerateSummary(sampleRuns())); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"TotalRuns": 3`) {
		t.Errorf("json output missing run count:\n%s", buf.String())
	}
}
