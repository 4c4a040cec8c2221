package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"giaingan/internal/amqp"
	"giaingan/internal/docstore"
	"giaingan/internal/services"
	"giaingan/internal/sheets"
)

// ReportWorker rebuilds the per-project plan-versus-actual report whenever a
// request or plan changes, and writes it through the report port.
type ReportWorker struct {
	disbursements *services.DisbursementService
	writer        sheets.ReportWriter
}

func NewReportWorker(disbursements *services.DisbursementService, writer sheets.ReportWriter) *ReportWorker {
	return &ReportWorker{
		disbursements: disbursements,
		writer:        writer,
	}
}

// HandleChangeMessage processes a single record change message from AMQP.
// Changes outside the disbursement collections are acknowledged and skipped.
func (w *ReportWorker) HandleChangeMessage(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	if !reportRelevant(msg.Collection) {
		slog.DebugContext(ctx, "Skipping change outside report scope",
			"collection", msg.Collection, "id", msg.ID)
		return nil
	}

	slog.InfoContext(ctx, "Processing record change",
		"collection", msg.Collection,
		"id", msg.ID,
		"op", msg.Op)

	projects, err := w.affectedProjects(ctx, msg)
	if err != nil {
		return fmt.Errorf("resolve affected projects: %w", err)
	}

	for _, projectID := range projects {
		if err := w.RebuildProject(ctx, projectID); err != nil {
			return fmt.Errorf("rebuild report for project %s: %w", projectID, err)
		}
	}
	return nil
}

// affectedProjects resolves which project reports a change invalidates. For a
// live document that is its own project; after a delete the document is gone,
// so every known project is rebuilt.
func (w *ReportWorker) affectedProjects(ctx context.Context, msg *amqp.RecordChangeMessage) ([]string, error) {
	if msg.Op != docstore.OpDelete {
		projectID, err := w.projectOf(ctx, msg.Collection, msg.ID)
		if err == nil && projectID != "" {
			return []string{projectID}, nil
		}
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return nil, err
		}
		// Document vanished between the message and the lookup; fall through.
	}
	return w.allProjects(ctx)
}

func (w *ReportWorker) projectOf(ctx context.Context, collection, id string) (string, error) {
	switch collection {
	case docstore.Requests:
		r, err := w.disbursements.GetRequest(ctx, id)
		if err != nil {
			return "", err
		}
		return r.ProjectID, nil
	case docstore.Plans:
		p, err := w.disbursements.GetPlan(ctx, id, false)
		if err != nil {
			return "", err
		}
		return p.ProjectID, nil
	case docstore.PlansOnlyProject:
		p, err := w.disbursements.GetPlan(ctx, id, true)
		if err != nil {
			return "", err
		}
		return p.ProjectID, nil
	}
	return "", nil
}

func (w *ReportWorker) allProjects(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(projectID string) {
		if projectID == "" || seen[projectID] {
			return
		}
		seen[projectID] = true
		out = append(out, projectID)
	}

	requests, err := w.disbursements.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range requests {
		add(r.ProjectID)
	}
	for _, onlyProject := range []bool{false, true} {
		plans, err := w.disbursements.ListPlans(ctx, onlyProject)
		if err != nil {
			return nil, err
		}
		for _, p := range plans {
			add(p.ProjectID)
		}
	}
	return out, nil
}

// RebuildProject recomputes the project's reconciled summary and writes the
// full report snapshot.
func (w *ReportWorker) RebuildProject(ctx context.Context, projectID string) error {
	summary, err := w.disbursements.Summary(ctx, projectID, false)
	if err != nil {
		return fmt.Errorf("summarize project %s: %w", projectID, err)
	}

	rows := make([]sheets.ReportRow, len(summary.Rows))
	for i, row := range summary.Rows {
		rows[i] = sheets.ReportRow{
			Period:        row.Period,
			Planned:       row.Planned,
			Actual:        row.Actual,
			CompletionPct: float64(row.Pct),
		}
	}

	if err := w.writer.WriteReport(ctx, projectID, rows); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.InfoContext(ctx, "Rebuilt disbursement report",
		"project_id", projectID,
		"rows", len(rows),
		"total_planned", summary.TotalPlanned,
		"total_actual", summary.TotalActual)

	return nil
}

// StartupRebuild refreshes every known project's report at worker start,
// recovering from messages missed during downtime.
func (w *ReportWorker) StartupRebuild(ctx context.Context) error {
	projects, err := w.allProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects for startup rebuild: %w", err)
	}
	if len(projects) == 0 {
		slog.InfoContext(ctx, "No projects found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Rebuilding reports on startup", "count", len(projects))

	rebuilt := 0
	failed := 0
	for _, projectID := range projects {
		if err := w.RebuildProject(ctx, projectID); err != nil {
			slog.ErrorContext(ctx, "Failed to rebuild report during startup",
				"project_id", projectID, "error", err)
			failed++
			continue
		}
		rebuilt++
	}

	slog.InfoContext(ctx, "Startup rebuild completed",
		"total", len(projects),
		"rebuilt", rebuilt,
		"errors", failed)

	return nil
}

func reportRelevant(collection string) bool {
	switch collection {
	case docstore.Requests, docstore.Plans, docstore.PlansOnlyProject:
		return true
	}
	return false
}
