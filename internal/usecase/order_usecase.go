package usecase

import (
	"context"

	"automanager/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CreateClientInput defines the data required to register a workshop client.
type CreateClientInput struct {
	Name     string `validate:"required"`
	Document string
	Phone    string
	Email    string
}

// CreateVehicleInput defines the data required to register a client vehicle.
type CreateVehicleInput struct {
	ClientID uuid.UUID `validate:"required"`
	Plate    string    `validate:"required"`
	Brand    string
	Model    string
	Year     int
}

// CreateOrderInput defines the data required to open a service order.
// ActorRole and ActorUsername identify the authenticated operator; the
// permission policy is consulted before any write.
type CreateOrderInput struct {
	ActorRole     entity.Role
	ActorUsername string

	ClientID    uuid.UUID `validate:"required"`
	VehicleID   uuid.UUID `validate:"required"`
	Description string    `validate:"required"`
	// Priority defaults to MEDIUM when empty.
	Priority entity.OrderPriority
	// Mechanic optionally assigns a mechanic username at creation.
	Mechanic *string
}

// UpdateOrderInput defines a partial update of a service order. Nil fields
// are left untouched. For a mechanic actor, only Status and Description are
// applied; other supplied fields are silently ignored.
type UpdateOrderInput struct {
	ActorRole     entity.Role
	ActorUsername string

	OrderID     uuid.UUID `validate:"required"`
	Description *string
	Status      *entity.OrderStatus
	Priority    *entity.OrderPriority
	// Mechanic reassigns the order; an empty string clears the assignment.
	Mechanic  *string
	Value     *float64
	VehicleID *uuid.UUID
}

// OrderUsecase is the mutating workshop-record surface consumed by the UI
// shell. Every mutation consults the permission policy before writing and
// appends a best-effort audit entry after committing.
type OrderUsecase interface {
	CreateClient(ctx context.Context, input *CreateClientInput) (*entity.Client, error)
	ListClients(ctx context.Context) ([]*entity.Client, error)
	// DeleteClient removes a client without linked vehicles or orders.
	// Carries no role restriction; dependent records cause
	// ErrReferentialConflict.
	DeleteClient(ctx context.Context, clientID uuid.UUID) (bool, error)

	CreateVehicle(ctx context.Context, input *CreateVehicleInput) (*entity.Vehicle, error)
	ListVehiclesByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Vehicle, error)
	// DeleteVehicle removes a vehicle without linked orders.
	DeleteVehicle(ctx context.Context, vehicleID uuid.UUID, actorRole entity.Role, actorUsername string) (bool, error)

	CreateOrder(ctx context.Context, input *CreateOrderInput) (*entity.ServiceOrder, error)
	ListOrders(ctx context.Context) ([]*entity.ServiceOrder, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*entity.ServiceOrder, error)
	UpdateOrder(ctx context.Context, input *UpdateOrderInput) (*entity.ServiceOrder, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID, actorRole entity.Role, actorUsername string) (bool, error)

	// ListHistory returns the audit trail of an order, most recent first.
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]*entity.HistoryEntry, error)
}
