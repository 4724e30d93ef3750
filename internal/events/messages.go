package events

import (
	"encoding/json"
	"time"

	"tally/internal/core"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// RecordEvent announces a change to one ledger record. For created and
// updated events the message carries only the id; the consumer fetches the
// row from the store. Deleted events carry a snapshot of the removed record,
// since the row is gone by the time the consumer sees the message.
type RecordEvent struct {
	Ledger    core.Kind    `json:"ledger"`
	Op        Op           `json:"op"`
	ID        int64        `json:"id"`
	Record    *core.Record `json:"record,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewRecordEvent creates a change event for the given ledger record.
func NewRecordEvent(ledger core.Kind, op Op, id int64) *RecordEvent {
	return &RecordEvent{
		Ledger:    ledger,
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// WithSnapshot attaches the removed record to a deleted event.
func (e *RecordEvent) WithSnapshot(rec core.Record) *RecordEvent {
	e.Record = &rec
	return e
}

// ToJSON converts the event to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON creates an event from JSON bytes
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
