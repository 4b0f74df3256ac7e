package repository

import (
	"context"
	"errors"

	"automanager/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for workshop record persistence.
var (
	// ErrClientNotFound is returned when a client record is not found.
	ErrClientNotFound = errors.New("client not found")
	// ErrVehicleNotFound is returned when a vehicle record is not found.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrOrderNotFound is returned when a service order is not found.
	ErrOrderNotFound = errors.New("service order not found")
)

// ClientRepository defines the standard operations for client persistence.
type ClientRepository interface {
	// Create persists a new client.
	Create(ctx context.Context, client *entity.Client) error

	// FindByID retrieves a client by id. Returns ErrClientNotFound when
	// no record exists.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Client, error)

	// ListAll enumerates every stored client.
	ListAll(ctx context.Context) ([]*entity.Client, error)

	// Delete removes a client by id. It reports whether a record existed.
	// Referential guards are enforced above this layer.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// VehicleRepository defines the standard operations for vehicle persistence.
type VehicleRepository interface {
	// Create persists a new vehicle.
	Create(ctx context.Context, vehicle *entity.Vehicle) error

	// FindByID retrieves a vehicle by id. Returns ErrVehicleNotFound when
	// no record exists.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error)

	// ListByClient enumerates the vehicles owned by a client.
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Vehicle, error)

	// CountByClient counts the vehicles owned by a client.
	CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error)

	// Delete removes a vehicle by id. It reports whether a record existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// OrderRepository defines the standard operations for service order
// persistence.
type OrderRepository interface {
	// Create persists a new service order.
	Create(ctx context.Context, order *entity.ServiceOrder) error

	// FindByID retrieves a service order by id. Returns ErrOrderNotFound
	// when no record exists.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceOrder, error)

	// ListAll enumerates every stored service order.
	ListAll(ctx context.Context) ([]*entity.ServiceOrder, error)

	// Update persists mutated fields of an existing service order.
	Update(ctx context.Context, order *entity.ServiceOrder) error

	// CountByClient counts the orders referencing a client.
	CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error)

	// CountByVehicle counts the orders referencing a vehicle.
	CountByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error)

	// Delete removes a service order by id. It reports whether a record
	// existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// HistoryRepository defines the append-only audit trail of service order
// lifecycle events.
type HistoryRepository interface {
	// Append writes a new history entry. Prior entries are never mutated
	// or removed.
	Append(ctx context.Context, entry *entity.HistoryEntry) error

	// ListByOrder returns the history of an order, most recent first.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.HistoryEntry, error)
}
