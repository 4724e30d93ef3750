// Package mirror defines the outbound port for the audit mirror: an
// append-only trail of ledger mutations kept outside the primary store.
package mirror

import (
	"context"
	"time"

	"tally/internal/core"
	"tally/internal/events"
)

// AuditRow is one appended line in the mirror. Record carries the state of
// the row the event refers to; it may be zero when the record could not be
// resolved anymore.
type AuditRow struct {
	Timestamp time.Time
	Ledger    core.Kind
	Op        events.Op
	ID        int64
	Record    core.Record
}

// Appender appends audit rows to the mirror.
type Appender interface {
	AppendAuditRow(ctx context.Context, row AuditRow) error
}
