package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tally/internal/core"
	"tally/internal/events"
	"tally/internal/storage"
)

type capturingPublisher struct {
	published []*events.RecordEvent
	fail      bool
}

func (p *capturingPublisher) PublishRecordEvent(_ context.Context, ev *events.RecordEvent) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, ev)
	return nil
}

func newTestService(t *testing.T, kind core.Kind, pub Publisher) *Service {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(store.Ledger(kind), pub)
}

func TestInsertReturnsOkWithID(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, core.Expense, pub)

	st := svc.Insert(context.Background(), core.Record{Date: "2024-01-05", Amount: 12.50, Category: "food", Note: "lunch"})

	if st.Status != "ok" {
		t.Fatalf("status = %+v, want ok", st)
	}
	if st.ID != 1 {
		t.Errorf("id = %d, want 1", st.ID)
	}
	if len(pub.published) != 1 || pub.published[0].Op != events.OpCreated {
		t.Errorf("published = %+v, want one created event", pub.published)
	}
}

func TestInsertSurvivesPublishFailure(t *testing.T) {
	svc := newTestService(t, core.Expense, &capturingPublisher{fail: true})

	st := svc.Insert(context.Background(), core.Record{Date: "2024-01-05", Amount: 1, Category: "food"})
	if st.Status != "ok" {
		t.Errorf("status = %+v, want ok despite publish failure", st)
	}
}

func TestDeleteExactStatus(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, core.Expense, pub)
	ctx := context.Background()

	svc.Insert(ctx, core.Record{Date: "2024-01-05", Amount: 12.5, Category: "food", Note: "dinner"})

	t.Run("match reports the count", func(t *testing.T) {
		st := svc.DeleteExact(ctx, core.Record{Date: "2024-01-05", Amount: 12.5, Category: "food", Note: "dinner"})
		if st.Status != "ok" {
			t.Fatalf("status = %+v, want ok", st)
		}
		if st.Message != "Deleted 1 expense(s)" {
			t.Errorf("message = %q, want %q", st.Message, "Deleted 1 expense(s)")
		}
	})

	t.Run("no match is an error status, not a fault", func(t *testing.T) {
		st := svc.DeleteExact(ctx, core.Record{Date: "2024-01-05", Amount: 12.5, Category: "food", Note: "dinner"})
		if st.Status != "error" || st.Message != "No matching expenses found" {
			t.Errorf("status = %+v", st)
		}
	})

	t.Run("deleted event carries a snapshot", func(t *testing.T) {
		var deleted *events.RecordEvent
		for _, ev := range pub.published {
			if ev.Op == events.OpDeleted {
				deleted = ev
			}
		}
		if deleted == nil {
			t.Fatal("expected a deleted event")
		}
		if deleted.Record == nil || deleted.Record.Note != "dinner" {
			t.Errorf("snapshot = %+v, want the removed record", deleted.Record)
		}
	})
}

func TestDeleteExactCreditNoun(t *testing.T) {
	svc := newTestService(t, core.Credit, nil)
	ctx := context.Background()

	svc.Insert(ctx, core.Record{Date: "2024-03-01", Amount: 100, Category: "salary"})

	st := svc.DeleteExact(ctx, core.Record{Date: "2024-03-01", Amount: 100, Category: "salary"})
	if st.Message != "Deleted 1 credit(s)" {
		t.Errorf("message = %q, want %q", st.Message, "Deleted 1 credit(s)")
	}

	st = svc.DeleteExact(ctx, core.Record{Date: "2024-03-01", Amount: 100, Category: "salary"})
	if st.Message != "No matching credits found" {
		t.Errorf("message = %q, want %q", st.Message, "No matching credits found")
	}
}

func TestUpdateFieldsStatus(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, core.Expense, pub)
	ctx := context.Background()

	svc.Insert(ctx, core.Record{Date: "2024-01-05", Amount: 12.5, Category: "food", Note: "lunch"})

	t.Run("partial update succeeds", func(t *testing.T) {
		note := "dinner"
		st := svc.UpdateFields(ctx, 1, core.FieldUpdates{Note: &note})
		if st.Status != "ok" || st.Message != "Expense 1 updated successfully" {
			t.Errorf("status = %+v", st)
		}

		got, err := svc.ListRange(ctx, "2024-01-01", "2024-01-31")
		if err != nil {
			t.Fatalf("ListRange: %v", err)
		}
		if len(got) != 1 || got[0].Note != "dinner" || got[0].Amount != 12.5 {
			t.Errorf("record = %+v, want note changed and amount untouched", got)
		}
	})

	t.Run("empty update set is NoFieldsProvided", func(t *testing.T) {
		st := svc.UpdateFields(ctx, 1, core.FieldUpdates{})
		if st.Status != "error" || st.Message != "No fields provided to update" {
			t.Errorf("status = %+v", st)
		}
	})

	t.Run("unknown id is NotFound", func(t *testing.T) {
		amount := 1.0
		st := svc.UpdateFields(ctx, 999, core.FieldUpdates{Amount: &amount})
		if st.Status != "error" || st.Message != "Expense 999 not found" {
			t.Errorf("status = %+v", st)
		}
	})

	t.Run("only successful updates publish events", func(t *testing.T) {
		var updates int
		for _, ev := range pub.published {
			if ev.Op == events.OpUpdated {
				updates++
			}
		}
		if updates != 1 {
			t.Errorf("published %d updated events, want 1", updates)
		}
	})
}

func TestSummarizePropagatesThrough(t *testing.T) {
	svc := newTestService(t, core.Expense, nil)
	ctx := context.Background()

	svc.Insert(ctx, core.Record{Date: "2024-01-05", Amount: 12.5, Category: "food"})
	svc.Insert(ctx, core.Record{Date: "2024-01-06", Amount: 2.5, Category: "food"})

	got, err := svc.SummarizeByCategory(ctx, "2024-01-01", "2024-01-31", "")
	if err != nil {
		t.Fatalf("SummarizeByCategory: %v", err)
	}
	if len(got) != 1 || got[0].TotalAmount != 15 {
		t.Errorf("totals = %+v, want food=15", got)
	}
}

func TestIsReadOnly(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"sqlite readonly", errors.New("attempt to write a readonly database (8)"), true},
		{"hyphenated", errors.New("filesystem is read-only"), true},
		{"other error", errors.New("no such table: expenses"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReadOnly(tt.err); got != tt.expected {
				t.Errorf("isReadOnly(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}
