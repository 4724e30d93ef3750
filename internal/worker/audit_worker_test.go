package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/events"
	"tally/internal/mirror"
	"tally/internal/storage"
)

type capturingAppender struct {
	rows []mirror.AuditRow
	err  error
}

func (a *capturingAppender) AppendAuditRow(ctx context.Context, row mirror.AuditRow) error {
	if a.err != nil {
		return a.err
	}
	a.rows = append(a.rows, row)
	return nil
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHandleRecordEventFetchesFromStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id, err := store.Ledger(core.Expense).Insert(ctx, core.Record{
		Date: "2024-03-01", Amount: 42, Category: "food", Note: "lunch",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	app := &capturingAppender{}
	w := NewAuditWorker(store, app)

	if err := w.HandleRecordEvent(ctx, events.NewRecordEvent(core.Expense, events.OpCreated, id)); err != nil {
		t.Fatalf("HandleRecordEvent: %v", err)
	}

	if len(app.rows) != 1 {
		t.Fatalf("appended %d rows, want 1", len(app.rows))
	}
	row := app.rows[0]
	if row.Ledger != core.Expense || row.Op != events.OpCreated || row.ID != id {
		t.Errorf("row = %+v", row)
	}
	if row.Record.Note != "lunch" || row.Record.Amount != 42 {
		t.Errorf("row record = %+v, want the stored row", row.Record)
	}
}

func TestHandleRecordEventUsesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	app := &capturingAppender{}
	w := NewAuditWorker(store, app)

	// The deleted row no longer exists in the store; the snapshot carries it.
	ev := events.NewRecordEvent(core.Credit, events.OpDeleted, 7).
		WithSnapshot(core.Record{ID: 7, Date: "2024-02-10", Amount: 900, Category: "salary"})

	if err := w.HandleRecordEvent(ctx, ev); err != nil {
		t.Fatalf("HandleRecordEvent: %v", err)
	}
	if len(app.rows) != 1 || app.rows[0].Record.Category != "salary" {
		t.Fatalf("rows = %+v, want the snapshot mirrored", app.rows)
	}
}

func TestHandleRecordEventMissingRowMirrorsIDOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	app := &capturingAppender{}
	w := NewAuditWorker(store, app)

	if err := w.HandleRecordEvent(ctx, events.NewRecordEvent(core.Expense, events.OpUpdated, 99)); err != nil {
		t.Fatalf("HandleRecordEvent: %v", err)
	}
	if len(app.rows) != 1 {
		t.Fatalf("appended %d rows, want 1", len(app.rows))
	}
	if got := app.rows[0].Record; got != (core.Record{ID: 99}) {
		t.Errorf("record = %+v, want id-only placeholder", got)
	}
}

func TestHandleRecordEventAppendFailureRequeues(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	app := &capturingAppender{err: errors.New("sheets down")}
	w := NewAuditWorker(store, app)

	ev := events.NewRecordEvent(core.Expense, events.OpDeleted, 1).
		WithSnapshot(core.Record{ID: 1, Date: "2024-01-01", Amount: 1, Category: "food"})
	if err := w.HandleRecordEvent(ctx, ev); err == nil {
		t.Error("expected error when the mirror append fails")
	}
}

func TestHandleRecordEventUnknownLedgerDropped(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	app := &capturingAppender{}
	w := NewAuditWorker(store, app)

	ev := &events.RecordEvent{Ledger: "savings", Op: events.OpCreated, ID: 1, Timestamp: time.Now()}
	if err := w.HandleRecordEvent(ctx, ev); err != nil {
		t.Fatalf("HandleRecordEvent: %v", err)
	}
	if len(app.rows) != 0 {
		t.Errorf("rows = %+v, want none for an unknown ledger", app.rows)
	}
}
