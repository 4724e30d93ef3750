// Package worker consumes record change events and appends them to the
// audit mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/events"
	"tally/internal/mirror"
	"tally/internal/storage"
)

// AuditWorker resolves record events against the store and forwards them to
// the mirror. Events are processed one at a time; a returned error requeues
// the message.
type AuditWorker struct {
	store  *storage.Store
	mirror mirror.Appender
}

func NewAuditWorker(store *storage.Store, appender mirror.Appender) *AuditWorker {
	return &AuditWorker{store: store, mirror: appender}
}

// HandleRecordEvent processes a single record change event.
func (w *AuditWorker) HandleRecordEvent(ctx context.Context, ev *events.RecordEvent) error {
	slog.InfoContext(ctx, "Processing record event",
		"ledger", ev.Ledger,
		"op", ev.Op,
		"id", ev.ID)

	if !ev.Ledger.Valid() {
		// A malformed event would requeue forever; log and drop it.
		slog.WarnContext(ctx, "Dropping event for unknown ledger", "ledger", ev.Ledger, "id", ev.ID)
		return nil
	}

	rec, err := w.resolveRecord(ctx, ev)
	if err != nil {
		return err
	}

	row := mirror.AuditRow{
		Timestamp: ev.Timestamp,
		Ledger:    ev.Ledger,
		Op:        ev.Op,
		ID:        ev.ID,
		Record:    rec,
	}
	if err := w.mirror.AppendAuditRow(ctx, row); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}

	slog.InfoContext(ctx, "Appended audit row",
		"ledger", ev.Ledger,
		"op", ev.Op,
		"id", ev.ID)
	return nil
}

// resolveRecord returns the record state for the event: the attached snapshot
// when present, otherwise the current row from the store. A row that vanished
// between publish and consume is logged and mirrored with blank fields.
func (w *AuditWorker) resolveRecord(ctx context.Context, ev *events.RecordEvent) (core.Record, error) {
	if ev.Record != nil {
		return *ev.Record, nil
	}

	rec, err := w.store.Ledger(ev.Ledger).Get(ctx, ev.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Record gone before audit, mirroring id only",
			"ledger", ev.Ledger,
			"id", ev.ID)
		return core.Record{ID: ev.ID}, nil
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get %s %d: %w", ev.Ledger.Noun(), ev.ID, err)
	}
	return rec, nil
}
