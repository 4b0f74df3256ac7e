package entity

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a service order.
type OrderStatus string

const (
	// StatusOpen is the initial state of a newly created order.
	StatusOpen OrderStatus = "OPEN"
	// StatusInProgress marks an order a mechanic is actively working on.
	StatusInProgress OrderStatus = "IN_PROGRESS"
	// StatusConcluded marks a finished order.
	StatusConcluded OrderStatus = "CONCLUDED"
)

// IsValid checks if the OrderStatus is a known value.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusConcluded:
		return true
	default:
		return false
	}
}

// OrderPriority is the urgency level of a service order.
type OrderPriority string

const (
	// PriorityLow marks non-urgent work.
	PriorityLow OrderPriority = "LOW"
	// PriorityMedium is the default priority for new orders.
	PriorityMedium OrderPriority = "MEDIUM"
	// PriorityHigh marks urgent work.
	PriorityHigh OrderPriority = "HIGH"
)

// IsValid checks if the OrderPriority is a known value.
func (p OrderPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ServiceOrder represents a repair job opened for a client's vehicle.
type ServiceOrder struct {
	ID          uuid.UUID
	Code        string // Human-facing order code, e.g. "OS-20260901153000".
	Description string
	Status      OrderStatus
	Priority    OrderPriority
	OpenedAt    time.Time
	ClientID    uuid.UUID
	VehicleID   uuid.UUID
	// AssignedMechanic is the username of the mechanic responsible for the
	// order, or nil when unassigned.
	AssignedMechanic *string
	Value            float64
	UpdatedAt        time.Time
}

// AssignedTo reports whether the order is assigned to the given username.
func (o *ServiceOrder) AssignedTo(username string) bool {
	return o.AssignedMechanic != nil && *o.AssignedMechanic == username
}
