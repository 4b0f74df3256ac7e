package sqlite

import (
	"context"

	"automanager/internal/domain/entity"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/domain/repository"
	"automanager/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// orderRepository implements the domain.OrderRepository interface using GORM.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository is the constructor for orderRepository.
func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

// Create persists a new service order.
func (repo *orderRepository) Create(ctx context.Context, order *entity.ServiceOrder) error {
	orderM := fromOrderDomain(order)

	if err := repo.db.WithContext(ctx).Create(orderM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrNotFound.WrapMessage("client or vehicle does not exist")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrInvalidInput.WrapMessage("missing required order information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create service order")
	}

	order.ID = orderM.ID
	order.UpdatedAt = orderM.UpdatedAt

	return nil
}

// FindByID retrieves a service order by id.
func (repo *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceOrder, error) {
	var orderM model.ServiceOrderModel
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&orderM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOrderNotFound
		}

		return nil, errors.Wrap(err, "failed to find service order by id")
	}

	return toOrderDomain(&orderM), nil
}

// ListAll enumerates every stored service order, most recently opened first.
func (repo *orderRepository) ListAll(ctx context.Context) ([]*entity.ServiceOrder, error) {
	var models []model.ServiceOrderModel
	if err := repo.db.WithContext(ctx).
		Order("opened_at DESC").
		Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list service orders")
	}

	orders := make([]*entity.ServiceOrder, 0, len(models))
	for i := range models {
		orders = append(orders, toOrderDomain(&models[i]))
	}

	return orders, nil
}

// Update persists mutated fields of an existing service order.
func (repo *orderRepository) Update(ctx context.Context, order *entity.ServiceOrder) error {
	orderM := fromOrderDomain(order)

	if err := repo.db.WithContext(ctx).Save(orderM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrNotFound.WrapMessage("client or vehicle does not exist")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update service order")
	}

	order.UpdatedAt = orderM.UpdatedAt

	return nil
}

// CountByClient counts the orders referencing a client.
func (repo *orderRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.ServiceOrderModel{}).
		Where("client_id = ?", clientID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count orders by client")
	}

	return count, nil
}

// CountByVehicle counts the orders referencing a vehicle.
func (repo *orderRepository) CountByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.ServiceOrderModel{}).
		Where("vehicle_id = ?", vehicleID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count orders by vehicle")
	}

	return count, nil
}

// Delete removes a service order by id, reporting whether a record existed.
// History rows are intentionally left in place; the audit trail outlives the
// order it snapshots.
func (repo *orderRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.ServiceOrderModel{})
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete service order")
	}

	return result.RowsAffected > 0, nil
}

// --- Mapper Functions ---

func toOrderDomain(data *model.ServiceOrderModel) *entity.ServiceOrder {
	if data == nil {
		return nil
	}

	return &entity.ServiceOrder{
		ID:               data.ID,
		Code:             data.Code,
		Description:      data.Description,
		Status:           entity.OrderStatus(data.Status),
		Priority:         entity.OrderPriority(data.Priority),
		OpenedAt:         data.OpenedAt,
		ClientID:         data.ClientID,
		VehicleID:        data.VehicleID,
		AssignedMechanic: data.AssignedMechanic,
		Value:            data.Value,
		UpdatedAt:        data.UpdatedAt,
	}
}

func fromOrderDomain(data *entity.ServiceOrder) *model.ServiceOrderModel {
	if data == nil {
		return nil
	}

	return &model.ServiceOrderModel{
		ID:               data.ID,
		Code:             data.Code,
		Description:      data.Description,
		Status:           string(data.Status),
		Priority:         string(data.Priority),
		OpenedAt:         data.OpenedAt,
		ClientID:         data.ClientID,
		VehicleID:        data.VehicleID,
		AssignedMechanic: data.AssignedMechanic,
		Value:            data.Value,
	}
}
