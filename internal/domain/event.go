package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType represents the type of ledger event.
type EventType string

const (
	EventTypeTaskCreated     EventType = "task_created"
	EventTypeTaskAssigned    EventType = "task_assigned"
	EventTypeTaskCompleted   EventType = "task_completed"
	EventTypePaymentReleased EventType = "payment_released"
)

// TaskEvent is one entry in the append-only ledger journal. Events are
// written in the same transaction as the mutation they describe, so their
// insertion order is the contractual emission order: a settlement records
// task_completed followed by payment_released.
type TaskEvent struct {
	ID        int64
	TaskID    int64
	Type      EventType
	Actor     *Identity // nil for system-originated entries
	Recipient *Identity // set on task_assigned and payment_released
	Amount    *decimal.Decimal
	Detail    string
	CreatedAt time.Time
}
