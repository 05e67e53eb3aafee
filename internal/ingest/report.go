package ingest

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of loading one CSV row.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// RowResult records what happened to one data line. Line is the 1-based
// line number in the file, counting the header.
type RowResult struct {
	Line    int     `json:"line"`
	Key     string  `json:"key"`
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
}

// Reason is the failure text, empty on success.
func (r RowResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report is the batch result of loading one file. Only skipped and failed
// rows are kept in Rows; inserted rows are counted.
type Report struct {
	RunID      uuid.UUID     `json:"run_id"`
	Source     string        `json:"source"`
	Table      string        `json:"table"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Total      int           `json:"total"`
	Inserted   int           `json:"inserted"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Rows       []RowResult   `json:"rows"`
	Duration   time.Duration `json:"duration"`
}

func newReport(runID uuid.UUID, source, table string) *Report {
	return &Report{
		RunID:     runID,
		Source:    source,
		Table:     table,
		StartedAt: time.Now().UTC(),
	}
}

func (r *Report) add(res RowResult) {
	r.Total++
	switch res.Outcome {
	case OutcomeInserted:
		r.Inserted++
		return
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Rows = append(r.Rows, res)
}

func (r *Report) finish() {
	r.FinishedAt = time.Now().UTC()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
}

// Failures returns the failed rows.
func (r *Report) Failures() []RowResult {
	out := make([]RowResult, 0, r.Failed)
	for _, row := range r.Rows {
		if row.Outcome == OutcomeFailed {
			out = append(out, row)
		}
	}
	return out
}

// OK reports whether every row was inserted or skipped.
func (r *Report) OK() bool {
	return r.Failed == 0
}
