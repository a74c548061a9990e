package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/lead-cli/internal/model"
)

// TargetReport counts what happened to one search target.
type TargetReport struct {
	Query      string        `json:"query"`
	Category   string        `json:"category"`
	MaxItems   int           `json:"max_items"`
	Candidates int           `json:"candidates"`
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Discarded  int           `json:"discarded"`
	Failed     int           `json:"failed"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Report summarizes a run.
type Report struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Targets   []TargetReport `json:"targets"`
	Leads     []model.Lead   `json:"-"`
}

// Totals sums the counters of every target.
func (r *Report) Totals() TargetReport {
	var t TargetReport
	for _, tr := range r.Targets {
		t.MaxItems += tr.MaxItems
		t.Candidates += tr.Candidates
		t.Accepted += tr.Accepted
		t.Duplicates += tr.Duplicates
		t.Discarded += tr.Discarded
		t.Failed += tr.Failed
	}
	return t
}

// FormatReport renders a human-readable run summary.
func FormatReport(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Lead Run %s\n", r.RunID)
	fmt.Fprintf(&b, "Started: %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n\n", r.Duration.Round(time.Second))

	b.WriteString("## Targets\n")
	if len(r.Targets) == 0 {
		b.WriteString("No targets processed.\n")
	}
	for _, t := range r.Targets {
		fmt.Fprintf(&b, "- %s (%s): %d/%d candidates, %d accepted, %d duplicates, %d discarded, %d failed\n",
			t.Query, t.Category, t.Candidates, t.MaxItems, t.Accepted, t.Duplicates, t.Discarded, t.Failed)
		if t.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", t.Error)
		}
	}

	total := r.Totals()
	b.WriteString("\n## Summary\n")
	fmt.Fprintf(&b, "- Leads: %d\n", len(r.Leads))
	fmt.Fprintf(&b, "- Candidates: %d\n", total.Candidates)
	fmt.Fprintf(&b, "- Duplicates: %d\n", total.Duplicates)
	fmt.Fprintf(&b, "- Discarded: %d\n", total.Discarded)
	fmt.Fprintf(&b, "- Failed: %d\n", total.Failed)
	return b.String()
}
