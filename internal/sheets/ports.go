package sheets

import (
	"context"
)

// ReportRow is one reconciled period of a project's report: planned budget
// against actual spend, with the disbursement percentage.
type ReportRow struct {
	Period        string
	Planned       float64
	Actual        float64
	CompletionPct float64
}

// ReportWriter is the outbound port for the per-project disbursement report.
// WriteReport replaces the project's report wholesale; rows are already
// ordered by period.
type ReportWriter interface {
	WriteReport(ctx context.Context, projectID string, rows []ReportRow) error
}
