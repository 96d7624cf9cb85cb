// Package report renders aggregated discovery-run summaries for the CLI and
// the archive inspection commands.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/procurehq/vendorscout/internal/archive"
)

// Summary contains aggregated metrics over a set of archived discovery runs.
type Summary struct {
	TotalRuns      int
	TotalRetrieved int
	TotalExtracted int
	TotalValidated int
	RunsByBatch    map[string]int
	RunsByQuery    map[string]int
	StartTime      time.Time
	EndTime        time.Time
	TotalDuration  time.Duration
}

// GenerateSummary folds archived runs into a Summary.
func GenerateSummary(runs []*archive.Record) Summary {
	s := Summary{
		RunsByBatch: make(map[string]int),
		RunsByQuery: make(map[string]int),
	}

	if len(runs) == 0 {
		return s
	}

	s.StartTime = runs[0].CreatedAt
	s.EndTime = runs[0].CreatedAt

	for _, r := range runs {
		s.TotalRuns++
		s.TotalRetrieved += r.Retrieved
		s.TotalExtracted += r.Extracted
		s.TotalValidated += r.Validated
		s.TotalDuration += r.Duration
		s.RunsByBatch[r.BatchID]++
		s.RunsByQuery[r.Query]++

		if r.CreatedAt.Before(s.StartTime) {
			s.StartTime = r.CreatedAt
		}
		if r.CreatedAt.After(s.EndTime) {
			s.EndTime = r.CreatedAt
		}
	}

	return s
}

// DropRate reports the fraction of retrieved URLs that did not survive
// extraction and validation. Zero retrieved URLs yields zero.
func (s Summary) DropRate() float64 {
	if s.TotalRetrieved == 0 {
		return 0
	}
	return 1 - float64(s.TotalValidated)/float64(s.TotalRetrieved)
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Vendorscout Run Summary
-----------------------
Time:            {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Total Duration:  {{.TotalDuration}}
Runs:            {{.TotalRuns}}
URLs Retrieved:  {{.TotalRetrieved}}
Pages Extracted: {{.TotalExtracted}}
Candidates Kept: {{.TotalValidated}}
Drop Rate:       {{printf "%.1f%%" (mulf .DropRate 100)}}

Runs By Batch:
{{- range $batch, $count := .RunsByBatch}}
  {{$batch}}: {{$count}}
{{- else}}
  None
{{- end}}

Runs By Query:
{{- range $query, $count := .RunsByQuery}}
  {{$query}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Funcs(template.FuncMap{
		"mulf": func(a, b float64) float64 { return a * b },
	}).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parsing text template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("rendering text summary: %w", err)
	}

	return nil
}
