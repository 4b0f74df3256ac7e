package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"automanager/config"
	"automanager/internal/domain/entity"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/domain/repository"
	mockRepo "automanager/internal/mocks/repository"
	mockSvc "automanager/internal/mocks/service"
	"automanager/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// authServiceFixtures holds all test dependencies for auth service tests.
type authServiceFixtures struct {
	t         *testing.T
	service   usecase.AuthUsecase
	txManager *mockRepo.MockTransactionManager
	codec     *mockSvc.MockCredentialCodec
}

func createTestAuthService(t *testing.T, allowRecovery bool) authServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	codec := mockSvc.NewMockCredentialCodec(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewAuthService(AuthServiceParams{
		TxManager: txManager,
		Codec:     codec,
		Config: &config.Config{
			Auth: &config.AuthConfig{AllowLegacyPlaintextRecovery: allowRecovery},
		},
		Logger: logger,
	})

	return authServiceFixtures{
		t:         t,
		service:   service,
		txManager: txManager,
		codec:     codec,
	}
}

// onExecute arranges one transactional Execute call whose repositories are
// set up by the given function, propagating the callback's error.
func (f authServiceFixtures) onExecute(ctx context.Context, setup func(factory *mockRepo.MockRepositoryFactory)) {
	f.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			factory := mockRepo.NewMockRepositoryFactory(f.t)
			setup(factory)

			return fn(factory)
		}).
		Once()
}

func TestAuthService_Register_Success(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()
	input := &usecase.RegisterInput{
		Username: "ana",
		Password: "secret1",
	}

	fx.codec.EXPECT().Encode("secret1").Return("$argon2id$encoded", nil)

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)

		identityRepo.EXPECT().
			FindByUsername(ctx, "ana").
			Return(nil, repository.ErrIdentityNotFound)

		identityRepo.EXPECT().
			Insert(ctx, mock.AnythingOfType("*entity.Identity")).
			Run(func(ctx context.Context, identity *entity.Identity) {
				identity.ID = uuid.New()
			}).
			Return(nil)
	})

	identity, err := fx.service.Register(ctx, input)

	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "ana", identity.Username)
	assert.Equal(t, "ana", identity.DisplayName)
	assert.Equal(t, entity.RoleMechanic, identity.Role)
	assert.Equal(t, "$argon2id$encoded", identity.CredentialArtifact)
	assert.NotEqual(t, uuid.Nil, identity.ID)
}

func TestAuthService_Register_RoleAlias(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()
	input := &usecase.RegisterInput{
		Username:    "joao",
		DisplayName: "João Pereira",
		Password:    "secret1",
		Role:        "gerente",
	}

	fx.codec.EXPECT().Encode("secret1").Return("$argon2id$encoded", nil)

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().
			FindByUsername(ctx, "joao").
			Return(nil, repository.ErrIdentityNotFound)
		identityRepo.EXPECT().
			Insert(ctx, mock.AnythingOfType("*entity.Identity")).
			Return(nil)
	})

	identity, err := fx.service.Register(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, entity.RoleManager, identity.Role)
	assert.Equal(t, "João Pereira", identity.DisplayName)
}

func TestAuthService_Register_MissingPassword(t *testing.T) {
	fx := createTestAuthService(t, false)

	identity, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Username: "ana",
	})

	assert.Error(t, err)
	assert.Nil(t, identity)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidInput))
}

func TestAuthService_Register_UnknownRole(t *testing.T) {
	fx := createTestAuthService(t, false)

	identity, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Username: "ana",
		Password: "secret1",
		Role:     "janitor",
	})

	assert.Error(t, err)
	assert.Nil(t, identity)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidInput))
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()
	existing := &entity.Identity{ID: uuid.New(), Username: "ana"}

	fx.codec.EXPECT().Encode("secret1").Return("$argon2id$encoded", nil)

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().FindByUsername(ctx, "ana").Return(existing, nil)
	})

	identity, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Username: "ana",
		Password: "secret1",
	})

	assert.Error(t, err)
	assert.Nil(t, identity)
	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateUsername))
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()
	stored := &entity.Identity{
		ID:                 uuid.New(),
		Username:           "ana",
		CredentialArtifact: "$argon2id$current",
		Role:               entity.RoleManager,
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().FindByUsername(ctx, "ana").Return(stored, nil)
	})

	fx.codec.EXPECT().Verify("secret1", "$argon2id$current").Return(true)
	fx.codec.EXPECT().NeedsUpgrade("$argon2id$current").Return(false)

	identity, err := fx.service.Authenticate(ctx, "ana", "secret1")

	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, stored.ID, identity.ID)
	assert.Equal(t, "$argon2id$current", identity.CredentialArtifact)
}

func TestAuthService_Authenticate_WrongPassword(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()
	stored := &entity.Identity{
		ID:                 uuid.New(),
		Username:           "ana",
		CredentialArtifact: "$argon2id$current",
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().FindByUsername(ctx, "ana").Return(stored, nil)
	})

	fx.codec.EXPECT().Verify("wrong", "$argon2id$current").Return(false)

	identity, err := fx.service.Authenticate(ctx, "ana", "wrong")

	assert.NoError(t, err)
	assert.Nil(t, identity)
	// A failed verification must leave the stored artifact untouched.
	assert.Equal(t, "$argon2id$current", stored.CredentialArtifact)
}

func TestAuthService_Authenticate_UnknownUser(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().
			FindByUsername(ctx, "ghost").
			Return(nil, repository.ErrIdentityNotFound)
	})

	identity, err := fx.service.Authenticate(ctx, "ghost", "secret1")

	assert.NoError(t, err)
	assert.Nil(t, identity)
}

func TestAuthService_Authenticate_EmptyCredentials(t *testing.T) {
	fx := createTestAuthService(t, false)

	identity, err := fx.service.Authenticate(context.Background(), "ana", "")

	assert.NoError(t, err)
	assert.Nil(t, identity)
}

func TestAuthService_Authenticate_UpgradesLegacyArtifact(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()
	stored := &entity.Identity{
		ID:                 uuid.New(),
		Username:           "ana",
		CredentialArtifact: "$2b$12$legacybcrypt",
		Role:               entity.RoleMechanic,
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().FindByUsername(ctx, "ana").Return(stored, nil)
	})

	fx.codec.EXPECT().Verify("secret1", "$2b$12$legacybcrypt").Return(true)
	fx.codec.EXPECT().NeedsUpgrade("$2b$12$legacybcrypt").Return(true)
	fx.codec.EXPECT().Encode("secret1").Return("$argon2id$fresh", nil)

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().
			Update(ctx, mock.AnythingOfType("*entity.Identity")).
			Run(func(ctx context.Context, identity *entity.Identity) {
				assert.Equal(t, "$argon2id$fresh", identity.CredentialArtifact)
			}).
			Return(nil)
	})

	identity, err := fx.service.Authenticate(ctx, "ana", "secret1")

	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "$argon2id$fresh", identity.CredentialArtifact)
}

func TestAuthService_Authenticate_UpgradePersistFailureStillSucceeds(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()
	stored := &entity.Identity{
		ID:                 uuid.New(),
		Username:           "ana",
		CredentialArtifact: "$2b$12$legacybcrypt",
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().FindByUsername(ctx, "ana").Return(stored, nil)
	})

	fx.codec.EXPECT().Verify("secret1", "$2b$12$legacybcrypt").Return(true)
	fx.codec.EXPECT().NeedsUpgrade("$2b$12$legacybcrypt").Return(true)
	fx.codec.EXPECT().Encode("secret1").Return("$argon2id$fresh", nil)

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().
			Update(ctx, mock.AnythingOfType("*entity.Identity")).
			Return(errors.New("disk full"))
	})

	identity, err := fx.service.Authenticate(ctx, "ana", "secret1")

	require.NoError(t, err)
	assert.NotNil(t, identity)
}

func TestAuthService_Authenticate_PlaintextRecovery(t *testing.T) {
	fx := createTestAuthService(t, true)

	ctx := context.Background()
	stored := &entity.Identity{
		ID:                 uuid.New(),
		Username:           "ana",
		CredentialArtifact: "secret1",
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().FindByUsername(ctx, "ana").Return(stored, nil)
	})

	fx.codec.EXPECT().Verify("secret1", "secret1").Return(false)
	fx.codec.EXPECT().Encode("secret1").Return("$argon2id$fresh", nil)

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().
			Update(ctx, mock.AnythingOfType("*entity.Identity")).
			Return(nil)
	})

	identity, err := fx.service.Authenticate(ctx, "ana", "secret1")

	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "$argon2id$fresh", identity.CredentialArtifact)
}

func TestAuthService_Authenticate_PlaintextRecoveryDisabled(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()
	stored := &entity.Identity{
		ID:                 uuid.New(),
		Username:           "ana",
		CredentialArtifact: "secret1",
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().FindByUsername(ctx, "ana").Return(stored, nil)
	})

	fx.codec.EXPECT().Verify("secret1", "secret1").Return(false)

	identity, err := fx.service.Authenticate(ctx, "ana", "secret1")

	assert.NoError(t, err)
	assert.Nil(t, identity)
}

func TestAuthService_DeleteUser(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().Delete(ctx, "ana").Return(true, nil)
	})

	existed, err := fx.service.DeleteUser(ctx, "ana")

	require.NoError(t, err)
	assert.True(t, existed)
}

func TestAuthService_DeleteUser_Unknown(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().Delete(ctx, "ghost").Return(false, nil)
	})

	existed, err := fx.service.DeleteUser(ctx, "ghost")

	require.NoError(t, err)
	assert.False(t, existed)
}

func TestAuthService_ListUsers(t *testing.T) {
	fx := createTestAuthService(t, false)

	ctx := context.Background()
	stored := []*entity.Identity{
		{ID: uuid.New(), Username: "ana", Role: entity.RoleAdministrator},
		{ID: uuid.New(), Username: "joao", Role: entity.RoleMechanic},
	}

	fx.onExecute(ctx, func(factory *mockRepo.MockRepositoryFactory) {
		identityRepo := mockRepo.NewMockIdentityRepository(t)
		factory.EXPECT().IdentityRepo().Return(identityRepo)
		identityRepo.EXPECT().ListAll(ctx).Return(stored, nil)
	})

	identities, err := fx.service.ListUsers(ctx)

	require.NoError(t, err)
	assert.Len(t, identities, 2)
}
