package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"automanager/internal/domain/entity"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), logger, false)
	require.NoError(t, err)

	return db
}

func seedClientAndVehicle(t *testing.T, db *gorm.DB) (*entity.Client, *entity.Vehicle) {
	t.Helper()

	ctx := context.Background()

	client := &entity.Client{Name: "Ana Silva", Phone: "11 99999-0000"}
	require.NoError(t, NewClientRepository(db).Create(ctx, client))

	vehicle := &entity.Vehicle{Plate: "ABC1D23", Brand: "VW", Model: "Gol", Year: 2018, ClientID: client.ID}
	require.NoError(t, NewVehicleRepository(db).Create(ctx, vehicle))

	return client, vehicle
}

func seedOrder(t *testing.T, db *gorm.DB, client *entity.Client, vehicle *entity.Vehicle) *entity.ServiceOrder {
	t.Helper()

	order := &entity.ServiceOrder{
		Code:        "OS-20240101120000",
		Description: "brake pad replacement",
		Status:      entity.StatusOpen,
		Priority:    entity.PriorityMedium,
		OpenedAt:    time.Now().UTC(),
		ClientID:    client.ID,
		VehicleID:   vehicle.ID,
	}
	require.NoError(t, NewOrderRepository(db).Create(context.Background(), order))

	return order
}

func TestIdentityRepository_InsertAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdentityRepository(db)
	ctx := context.Background()

	identity := &entity.Identity{
		Username:           "ana",
		DisplayName:        "Ana Silva",
		CredentialArtifact: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		Role:               entity.RoleAdministrator,
	}

	require.NoError(t, repo.Insert(ctx, identity))
	assert.NotEqual(t, uuid.Nil, identity.ID)

	found, err := repo.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, found.ID)
	assert.Equal(t, "Ana Silva", found.DisplayName)
	assert.Equal(t, entity.RoleAdministrator, found.Role)
	assert.Equal(t, identity.CredentialArtifact, found.CredentialArtifact)

	_, err = repo.FindByUsername(ctx, "ghost")
	assert.True(t, errors.Is(err, repository.ErrIdentityNotFound))
}

func TestIdentityRepository_DuplicateUsername(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdentityRepository(db)
	ctx := context.Background()

	first := &entity.Identity{Username: "ana", CredentialArtifact: "a", Role: entity.RoleMechanic}
	require.NoError(t, repo.Insert(ctx, first))

	second := &entity.Identity{Username: "ana", CredentialArtifact: "b", Role: entity.RoleMechanic}
	err := repo.Insert(ctx, second)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateUsername))
}

func TestIdentityRepository_UpdatePersistsArtifact(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdentityRepository(db)
	ctx := context.Background()

	identity := &entity.Identity{Username: "ana", CredentialArtifact: "$2b$12$legacy", Role: entity.RoleMechanic}
	require.NoError(t, repo.Insert(ctx, identity))

	identity.CredentialArtifact = "$argon2id$fresh"
	require.NoError(t, repo.Update(ctx, identity))

	found, err := repo.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$fresh", found.CredentialArtifact)
}

func TestIdentityRepository_DeleteAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdentityRepository(db)
	ctx := context.Background()

	for _, username := range []string{"zeca", "ana", "joao"} {
		require.NoError(t, repo.Insert(ctx, &entity.Identity{
			Username:           username,
			CredentialArtifact: "x",
			Role:               entity.RoleMechanic,
		}))
	}

	identities, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, identities, 3)
	assert.Equal(t, "ana", identities[0].Username)
	assert.Equal(t, "zeca", identities[2].Username)

	existed, err := repo.Delete(ctx, "joao")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.Delete(ctx, "joao")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestTransactionManager_RollbackOnError(t *testing.T) {
	db := openTestDB(t)
	txManager := NewTransactionManager(db)
	ctx := context.Background()

	wantErr := errors.New("abort")
	err := txManager.Execute(ctx, func(factory repository.RepositoryFactory) error {
		insertErr := factory.IdentityRepo().Insert(ctx, &entity.Identity{
			Username:           "ana",
			CredentialArtifact: "x",
			Role:               entity.RoleMechanic,
		})
		require.NoError(t, insertErr)

		return wantErr
	})

	assert.True(t, errors.Is(err, wantErr))

	_, err = NewIdentityRepository(db).FindByUsername(ctx, "ana")
	assert.True(t, errors.Is(err, repository.ErrIdentityNotFound))
}

func TestTransactionManager_CommitOnSuccess(t *testing.T) {
	db := openTestDB(t)
	txManager := NewTransactionManager(db)
	ctx := context.Background()

	err := txManager.Execute(ctx, func(factory repository.RepositoryFactory) error {
		return factory.IdentityRepo().Insert(ctx, &entity.Identity{
			Username:           "ana",
			CredentialArtifact: "x",
			Role:               entity.RoleMechanic,
		})
	})
	require.NoError(t, err)

	found, err := NewIdentityRepository(db).FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana", found.Username)
}

func TestWorkshopRepositories_Counts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	client, vehicle := seedClientAndVehicle(t, db)
	seedOrder(t, db, client, vehicle)

	vehicles, err := NewVehicleRepository(db).CountByClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), vehicles)

	orderRepo := NewOrderRepository(db)

	byClient, err := orderRepo.CountByClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byClient)

	byVehicle, err := orderRepo.CountByVehicle(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byVehicle)

	byOther, err := orderRepo.CountByClient(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), byOther)
}

func TestClientRepository_DeleteBlockedByForeignKey(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	client, _ := seedClientAndVehicle(t, db)

	// The usecase layer guards with counts first; the FK constraint is the
	// store-level backstop.
	_, err := NewClientRepository(db).Delete(ctx, client.ID)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrReferentialConflict))
}

func TestOrderRepository_CreateRejectsUnknownVehicle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	client, _ := seedClientAndVehicle(t, db)

	err := NewOrderRepository(db).Create(ctx, &entity.ServiceOrder{
		Code:        "OS-20240101120001",
		Description: "diagnostics",
		Status:      entity.StatusOpen,
		Priority:    entity.PriorityLow,
		OpenedAt:    time.Now().UTC(),
		ClientID:    client.ID,
		VehicleID:   uuid.New(),
	})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestOrderRepository_UpdateRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	client, vehicle := seedClientAndVehicle(t, db)
	order := seedOrder(t, db, client, vehicle)

	mechanic := "joao"
	order.Status = entity.StatusInProgress
	order.AssignedMechanic = &mechanic
	order.Value = 350.0

	orderRepo := NewOrderRepository(db)
	require.NoError(t, orderRepo.Update(ctx, order))

	found, err := orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, found.Status)
	require.NotNil(t, found.AssignedMechanic)
	assert.Equal(t, "joao", *found.AssignedMechanic)
	assert.Equal(t, 350.0, found.Value)
}

func TestHistoryRepository_MostRecentFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	client, vehicle := seedClientAndVehicle(t, db)
	order := seedOrder(t, db, client, vehicle)

	historyRepo := NewHistoryRepository(db)
	base := time.Now().UTC().Add(-time.Hour)
	actor := "ana"

	for i, action := range []entity.HistoryAction{entity.ActionCreate, entity.ActionUpdate, entity.ActionUpdate} {
		require.NoError(t, historyRepo.Append(ctx, &entity.HistoryEntry{
			OrderID:    order.ID,
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
			Actor:      &actor,
			Action:     action,
			Status:     entity.StatusOpen,
			Priority:   entity.PriorityMedium,
		}))
	}

	entries, err := historyRepo.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, entity.ActionUpdate, entries[0].Action)
	assert.Equal(t, entity.ActionCreate, entries[2].Action)
	assert.True(t, entries[0].RecordedAt.After(entries[2].RecordedAt))
}

func TestHistoryRepository_SurvivesOrderDeletion(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	client, vehicle := seedClientAndVehicle(t, db)
	order := seedOrder(t, db, client, vehicle)

	historyRepo := NewHistoryRepository(db)
	require.NoError(t, historyRepo.Append(ctx, &entity.HistoryEntry{
		OrderID:    order.ID,
		RecordedAt: time.Now().UTC(),
		Action:     entity.ActionCreate,
		Status:     entity.StatusOpen,
		Priority:   entity.PriorityMedium,
	}))

	existed, err := NewOrderRepository(db).Delete(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	// The audit trail intentionally has no FK to orders.
	entries, err := historyRepo.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVehicleRepository_ListByClient(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	client, _ := seedClientAndVehicle(t, db)
	vehicleRepo := NewVehicleRepository(db)

	require.NoError(t, vehicleRepo.Create(ctx, &entity.Vehicle{
		Plate:    "XYZ9Z99",
		Brand:    "Fiat",
		Model:    "Uno",
		Year:     2010,
		ClientID: client.ID,
	}))

	vehicles, err := vehicleRepo.ListByClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Len(t, vehicles, 2)

	none, err := vehicleRepo.ListByClient(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
