package google

import (
	"context"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/events"
	"tally/internal/mirror"
)

func TestRowValuesOrder(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	row := mirror.AuditRow{
		Timestamp: ts,
		Ledger:    core.Expense,
		Op:        events.OpCreated,
		ID:        7,
		Record: core.Record{
			ID: 7, Date: "2024-03-01", Amount: 12.5,
			Category: "food", Subcategory: "lunch", Note: "pizza",
		},
	}

	got := rowValues(row)
	want := []any{"2024-03-01 12:30:00", "expense", "created", int64(7), "2024-03-01", 12.5, "food", "lunch", "pizza"}
	if len(got) != len(want) {
		t.Fatalf("rowValues returned %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRowValuesZeroRecord(t *testing.T) {
	row := mirror.AuditRow{
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Ledger:    core.Credit,
		Op:        events.OpDeleted,
		ID:        3,
	}
	got := rowValues(row)
	if got[4] != "" || got[5] != float64(0) {
		t.Errorf("blank record columns = %v", got[4:])
	}
}

func TestNewFromEnvRequiresSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Error("expected error without GOOGLE_SPREADSHEET_ID")
	}
}
