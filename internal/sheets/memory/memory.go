package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"giaingan/internal/sheets"
)

// Store is an in-memory report sink for local runs and tests. It keeps the
// latest report per project, mirroring the clear-and-rewrite behavior of the
// spreadsheet adapter.
type Store struct {
	mu      sync.Mutex
	reports map[string][]sheets.ReportRow
	writes  int
}

func New() *Store {
	return &Store{reports: make(map[string][]sheets.ReportRow)}
}

func (s *Store) WriteReport(_ context.Context, projectID string, rows []sheets.ReportRow) error {
	if strings.TrimSpace(projectID) == "" {
		return errors.New("missing project id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[projectID] = append([]sheets.ReportRow(nil), rows...)
	s.writes++
	return nil
}

// Report returns the last written report for a project, nil if none.
func (s *Store) Report(projectID string) []sheets.ReportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ReportRow(nil), s.reports[projectID]...)
}

// Writes returns the total number of successful report writes.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
