package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/core"
	"tally/internal/events"
	"tally/internal/storage"
)

// Publisher is the optional change-event sink. A nil Publisher disables
// event publishing without changing operation behavior.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, ev *events.RecordEvent) error
}

// Status is the uniform result envelope for the write operations (insert,
// delete, update). Store faults never escape those operations raw; they are
// converted into an error status here. The read operations (ListRange,
// SummarizeByCategory) deliberately do NOT share this envelope: they return
// bare sequences and propagate store faults to the caller unchanged.
type Status struct {
	Status  string `json:"status"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	statusOK    = "ok"
	statusError = "error"
)

// Service is the operation facade for one ledger kind. Two instances exist,
// one per ledger, both over the same generic store executor.
type Service struct {
	store *storage.Ledger
	pub   Publisher
	kind  core.Kind
}

func NewService(store *storage.Ledger, pub Publisher) *Service {
	return &Service{
		store: store,
		pub:   pub,
		kind:  store.Kind(),
	}
}

// Kind returns the ledger kind this facade serves.
func (s *Service) Kind() core.Kind {
	return s.kind
}

// Insert appends a new record and returns its id in an ok envelope. Storage
// faults become an error envelope; a read-only store is called out
// explicitly so callers can recognize it.
func (s *Service) Insert(ctx context.Context, rec core.Record) Status {
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		if isReadOnly(err) {
			return Status{Status: statusError, Message: fmt.Sprintf("Database is read-only: %v", err)}
		}
		return Status{Status: statusError, Message: err.Error()}
	}

	s.publish(ctx, events.NewRecordEvent(s.kind, events.OpCreated, id))

	return Status{Status: statusOK, ID: id}
}

// ListRange returns records in the inclusive date range, ascending by id.
// Store faults propagate to the caller; there is no envelope conversion for
// reads.
func (s *Service) ListRange(ctx context.Context, start, end string) ([]core.Record, error) {
	return s.store.ListRange(ctx, start, end)
}

// DeleteExact removes every record matching all five non-id fields and
// reports the count. Zero matches is reported as an error status, not a
// fault.
func (s *Service) DeleteExact(ctx context.Context, rec core.Record) Status {
	deleted, err := s.store.DeleteExact(ctx, rec)
	if errors.Is(err, core.ErrNotFound) {
		return Status{Status: statusError, Message: fmt.Sprintf("No matching %ss found", s.kind.Noun())}
	}
	if err != nil {
		return Status{Status: statusError, Message: err.Error()}
	}

	for _, d := range deleted {
		s.publish(ctx, events.NewRecordEvent(s.kind, events.OpDeleted, d.ID).WithSnapshot(d))
	}

	return Status{Status: statusOK, Message: fmt.Sprintf("Deleted %d %s(s)", len(deleted), s.kind.Noun())}
}

// UpdateFields applies a partial update to the record with the given id. An
// empty field set and an unknown id are distinct error statuses.
func (s *Service) UpdateFields(ctx context.Context, id int64, u core.FieldUpdates) Status {
	err := s.store.UpdateFields(ctx, id, u)
	switch {
	case errors.Is(err, core.ErrNoFields):
		return Status{Status: statusError, Message: "No fields provided to update"}
	case errors.Is(err, core.ErrNotFound):
		return Status{Status: statusError, Message: fmt.Sprintf("%s %d not found", s.kind.Label(), id)}
	case err != nil:
		return Status{Status: statusError, Message: err.Error()}
	}

	s.publish(ctx, events.NewRecordEvent(s.kind, events.OpUpdated, id))

	return Status{Status: statusOK, Message: fmt.Sprintf("%s %d updated successfully", s.kind.Label(), id)}
}

// SummarizeByCategory aggregates amounts by category over the inclusive
// range, optionally restricted to one category. Faults propagate like
// ListRange.
func (s *Service) SummarizeByCategory(ctx context.Context, start, end, category string) ([]core.CategoryTotal, error) {
	return s.store.SummarizeByCategory(ctx, start, end, category)
}

// publish sends a change event when a publisher is configured. Publish
// failures are logged and never fail the ledger operation.
func (s *Service) publish(ctx context.Context, ev *events.RecordEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishRecordEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record event",
			"ledger", ev.Ledger,
			"op", ev.Op,
			"id", ev.ID,
			"error", err)
	}
}

// isReadOnly reports whether the error looks like a read-only store fault.
// SQLite phrases this as "attempt to write a readonly database".
func isReadOnly(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "readonly") || strings.Contains(msg, "read-only")
}
