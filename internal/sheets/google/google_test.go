package google

import (
	"context"
	"testing"

	ports "giaingan/internal/sheets"
)

func TestReportSheetName(t *testing.T) {
	tests := []struct {
		base, project, want string
	}{
		{"Report", "p1", "Report p1"},
		{"  Report  ", "p1", "Report p1"},
		{"Report p1", "p1", "Report p1"},
		{"", "p1", "p1"},
		{"Giải ngân", "du-an-9", "Giải ngân du-an-9"},
	}
	for _, tt := range tests {
		if got := reportSheetName(tt.base, tt.project); got != tt.want {
			t.Errorf("reportSheetName(%q, %q) = %q, want %q", tt.base, tt.project, got, tt.want)
		}
	}
}

func TestReportValues(t *testing.T) {
	rows := []ports.ReportRow{
		{Period: "2025-01", Planned: 300_000_000, Actual: 120_000_000, CompletionPct: 40},
		{Period: "2025-02", Planned: 400_000_000, Actual: 0, CompletionPct: 0},
	}

	values := reportValues(rows)
	if len(values) != 3 {
		t.Fatalf("values = %d rows, want header + 2", len(values))
	}
	if values[0][0] != "Kỳ" {
		t.Fatalf("header: %v", values[0])
	}
	if values[1][0] != "2025-01" || values[1][2] != 120_000_000.0 {
		t.Fatalf("row 1: %v", values[1])
	}
	if values[2][3] != 0.0 {
		t.Fatalf("row 2: %v", values[2])
	}
}

func TestWriteReportRequiresService(t *testing.T) {
	c := &Client{spreadsheetID: "sheet", reportBase: "Report"}
	if err := c.WriteReport(context.Background(), "p1", nil); err == nil {
		t.Fatal("expected error without initialized service")
	}
}
