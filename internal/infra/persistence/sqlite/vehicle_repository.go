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

// vehicleRepository implements the domain.VehicleRepository interface using GORM.
type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository is the constructor for vehicleRepository.
func NewVehicleRepository(db *gorm.DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

// Create persists a new vehicle.
func (repo *vehicleRepository) Create(ctx context.Context, vehicle *entity.Vehicle) error {
	vehicleM := fromVehicleDomain(vehicle)

	if err := repo.db.WithContext(ctx).Create(vehicleM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrNotFound.WrapMessage("owning client does not exist")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrInvalidInput.WrapMessage("missing required vehicle information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create vehicle")
	}

	vehicle.ID = vehicleM.ID
	vehicle.CreatedAt = vehicleM.CreatedAt
	vehicle.UpdatedAt = vehicleM.UpdatedAt

	return nil
}

// FindByID retrieves a vehicle by id.
func (repo *vehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error) {
	var vehicleM model.VehicleModel
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&vehicleM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrVehicleNotFound
		}

		return nil, errors.Wrap(err, "failed to find vehicle by id")
	}

	return toVehicleDomain(&vehicleM), nil
}

// ListByClient enumerates a client's vehicles ordered by plate.
func (repo *vehicleRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Vehicle, error) {
	var models []model.VehicleModel
	if err := repo.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("plate").
		Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list vehicles by client")
	}

	vehicles := make([]*entity.Vehicle, 0, len(models))
	for i := range models {
		vehicles = append(vehicles, toVehicleDomain(&models[i]))
	}

	return vehicles, nil
}

// CountByClient counts the vehicles owned by a client.
func (repo *vehicleRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.VehicleModel{}).
		Where("client_id = ?", clientID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count vehicles by client")
	}

	return count, nil
}

// Delete removes a vehicle by id, reporting whether a record existed.
func (repo *vehicleRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.VehicleModel{})
	if result.Error != nil {
		if isForeignKeyConstraintViolation(result.Error) {
			return false, domainerrors.ErrReferentialConflict.WrapMessage("vehicle has dependent records")
		}

		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete vehicle")
	}

	return result.RowsAffected > 0, nil
}

// --- Mapper Functions ---

func toVehicleDomain(data *model.VehicleModel) *entity.Vehicle {
	if data == nil {
		return nil
	}

	return &entity.Vehicle{
		ID:        data.ID,
		Plate:     data.Plate,
		Brand:     data.Brand,
		Model:     data.Model,
		Year:      data.Year,
		ClientID:  data.ClientID,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

func fromVehicleDomain(data *entity.Vehicle) *model.VehicleModel {
	if data == nil {
		return nil
	}

	return &model.VehicleModel{
		ID:       data.ID,
		Plate:    data.Plate,
		Brand:    data.Brand,
		Model:    data.Model,
		Year:     data.Year,
		ClientID: data.ClientID,
	}
}
