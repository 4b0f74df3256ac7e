package entity

import (
	"time"

	"github.com/google/uuid"
)

// HistoryAction tags the kind of lifecycle event a history entry records.
type HistoryAction string

const (
	// ActionCreate records the creation of a service order.
	ActionCreate HistoryAction = "CREATE"
	// ActionUpdate records a mutation of an existing service order.
	ActionUpdate HistoryAction = "UPDATE"
)

// HistoryEntry is an append-only snapshot of a service order at the moment
// of a permitted mutation. Entries are never updated or deleted once written.
type HistoryEntry struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	RecordedAt time.Time
	// Actor is the username that performed the mutation, or nil for system
	// actions.
	Actor  *string
	Action HistoryAction

	// Snapshot of the order fields at the time of the change.
	Status      OrderStatus
	Priority    OrderPriority
	Mechanic    *string
	Value       float64
	Description string
}
