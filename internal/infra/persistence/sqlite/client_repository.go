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

// clientRepository implements the domain.ClientRepository interface using GORM.
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository is the constructor for clientRepository.
func NewClientRepository(db *gorm.DB) repository.ClientRepository {
	return &clientRepository{db: db}
}

// Create persists a new client.
func (repo *clientRepository) Create(ctx context.Context, client *entity.Client) error {
	clientM := fromClientDomain(client)

	if err := repo.db.WithContext(ctx).Create(clientM).Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrInvalidInput.WrapMessage("missing required client information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create client")
	}

	client.ID = clientM.ID
	client.CreatedAt = clientM.CreatedAt
	client.UpdatedAt = clientM.UpdatedAt

	return nil
}

// FindByID retrieves a client by id.
func (repo *clientRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	var clientM model.ClientModel
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&clientM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrClientNotFound
		}

		return nil, errors.Wrap(err, "failed to find client by id")
	}

	return toClientDomain(&clientM), nil
}

// ListAll enumerates every stored client ordered by name.
func (repo *clientRepository) ListAll(ctx context.Context) ([]*entity.Client, error) {
	var models []model.ClientModel
	if err := repo.db.WithContext(ctx).
		Order("name").
		Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list clients")
	}

	clients := make([]*entity.Client, 0, len(models))
	for i := range models {
		clients = append(clients, toClientDomain(&models[i]))
	}

	return clients, nil
}

// Delete removes a client by id, reporting whether a record existed.
func (repo *clientRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.ClientModel{})
	if result.Error != nil {
		if isForeignKeyConstraintViolation(result.Error) {
			return false, domainerrors.ErrReferentialConflict.WrapMessage("client has dependent records")
		}

		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete client")
	}

	return result.RowsAffected > 0, nil
}

// --- Mapper Functions ---

func toClientDomain(data *model.ClientModel) *entity.Client {
	if data == nil {
		return nil
	}

	return &entity.Client{
		ID:        data.ID,
		Name:      data.Name,
		Document:  data.Document,
		Phone:     data.Phone,
		Email:     data.Email,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

func fromClientDomain(data *entity.Client) *model.ClientModel {
	if data == nil {
		return nil
	}

	return &model.ClientModel{
		ID:       data.ID,
		Name:     data.Name,
		Document: data.Document,
		Phone:    data.Phone,
		Email:    data.Email,
	}
}
