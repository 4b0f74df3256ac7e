package sqlite

import (
	"context"

	"automanager/internal/domain/entity"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/domain/repository"
	"automanager/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// identityRepository implements the domain.IdentityRepository interface
// using GORM.
type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository is the constructor for identityRepository. It returns
// the repository as a domain interface, adhering to dependency inversion.
func NewIdentityRepository(db *gorm.DB) repository.IdentityRepository {
	return &identityRepository{db: db}
}

// FindByUsername retrieves a single identity by its unique username.
func (repo *identityRepository) FindByUsername(ctx context.Context, username string) (*entity.Identity, error) {
	var identityM model.IdentityModel
	if err := repo.db.WithContext(ctx).
		Where("username = ?", username).
		First(&identityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, errors.Wrap(err, "failed to find identity by username")
	}

	return toIdentityDomain(&identityM), nil
}

// Insert persists a new identity. The unique index on username makes the
// check-then-insert race safe: the loser of a concurrent registration gets
// ErrDuplicateUsername from the constraint, never a second row.
func (repo *identityRepository) Insert(ctx context.Context, identity *entity.Identity) error {
	identityM := fromIdentityDomain(identity)

	if err := repo.db.WithContext(ctx).Create(identityM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrDuplicateUsername.WrapMessage("username already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrInvalidInput.WrapMessage("missing required identity information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to insert identity")
	}

	identity.ID = identityM.ID
	identity.CreatedAt = identityM.CreatedAt
	identity.UpdatedAt = identityM.UpdatedAt

	return nil
}

// Update persists mutated fields of an existing identity.
func (repo *identityRepository) Update(ctx context.Context, identity *entity.Identity) error {
	identityM := fromIdentityDomain(identity)

	if err := repo.db.WithContext(ctx).Save(identityM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrDuplicateUsername.WrapMessage("username already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update identity")
	}

	identity.UpdatedAt = identityM.UpdatedAt

	return nil
}

// Delete removes an identity by username, reporting whether a record existed.
func (repo *identityRepository) Delete(ctx context.Context, username string) (bool, error) {
	result := repo.db.WithContext(ctx).
		Where("username = ?", username).
		Delete(&model.IdentityModel{})
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete identity")
	}

	return result.RowsAffected > 0, nil
}

// ListAll enumerates every stored identity ordered by username for stable
// display.
func (repo *identityRepository) ListAll(ctx context.Context) ([]*entity.Identity, error) {
	var models []model.IdentityModel
	if err := repo.db.WithContext(ctx).
		Order("username").
		Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list identities")
	}

	identities := make([]*entity.Identity, 0, len(models))
	for i := range models {
		identities = append(identities, toIdentityDomain(&models[i]))
	}

	return identities, nil
}

// --- Mapper Functions ---

// toIdentityDomain converts a GORM IdentityModel to a domain Identity entity.
func toIdentityDomain(data *model.IdentityModel) *entity.Identity {
	if data == nil {
		return nil
	}

	return &entity.Identity{
		ID:                 data.ID,
		Username:           data.Username,
		DisplayName:        data.DisplayName,
		CredentialArtifact: data.CredentialArtifact,
		Role:               entity.ParseRole(data.Role),
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}

// fromIdentityDomain converts a domain Identity entity to a GORM model.
func fromIdentityDomain(data *entity.Identity) *model.IdentityModel {
	if data == nil {
		return nil
	}

	return &model.IdentityModel{
		ID:                 data.ID,
		Username:           data.Username,
		DisplayName:        data.DisplayName,
		CredentialArtifact: data.CredentialArtifact,
		Role:               data.Role.String(),
		CreatedAt:          data.CreatedAt,
	}
}
