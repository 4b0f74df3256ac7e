// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"automanager/config"
	"automanager/internal/domain/entity"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/domain/repository"
	"automanager/internal/domain/service"
	"automanager/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager                    repository.TransactionManager
	codec                        service.CredentialCodec
	validate                     *validator.Validate
	allowLegacyPlaintextRecovery bool
	logger                       *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Codec     service.CredentialCodec
	Config    *config.Config
	Logger    *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	allowRecovery := false
	if params.Config != nil && params.Config.Auth != nil {
		allowRecovery = params.Config.Auth.AllowLegacyPlaintextRecovery
	}

	return &authService{
		txManager:                    params.TxManager,
		codec:                        params.Codec,
		validate:                     validator.New(),
		allowLegacyPlaintextRecovery: allowRecovery,
		logger:                       params.Logger,
	}
}

// Register creates a new identity with the password encoded under the
// preferred scheme.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*entity.Identity, error) {
	if err := srv.validate.Struct(input); err != nil {
		return nil, domainerrors.ErrInvalidInput.WrapMessage("username and password are required")
	}

	role := entity.ParseRole(input.Role)
	if role == entity.RoleUnknown {
		if input.Role != "" {
			return nil, domainerrors.ErrInvalidInput.WrapMessage("unknown role: " + input.Role)
		}
		// Default role for a blank registration form.
		role = entity.RoleMechanic
	}

	artifact, err := srv.codec.Encode(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode password during registration")
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = input.Username
	}

	identity := &entity.Identity{
		Username:           input.Username,
		DisplayName:        displayName,
		CredentialArtifact: artifact,
		Role:               role,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identityRepo := repoFactory.IdentityRepo()

		// Fast pre-check; the store's unique constraint remains the
		// authoritative enforcement against concurrent registrations.
		_, findErr := identityRepo.FindByUsername(ctx, input.Username)
		if findErr == nil {
			return domainerrors.ErrDuplicateUsername.WrapMessage("username already exists: " + input.Username)
		}
		if !errors.Is(findErr, repository.ErrIdentityNotFound) {
			return errors.Wrap(findErr, "failed to check username availability")
		}

		return identityRepo.Insert(ctx, identity)
	})
	if err != nil {
		srv.logger.Warn("Registration failed",
			slog.String("username", input.Username), slog.Any("error", err))

		return nil, err
	}

	srv.logger.Info("Registered identity",
		slog.String("username", identity.Username), slog.Any("role", identity.Role))

	return identity, nil
}

// Authenticate verifies a username/password pair, upgrading legacy artifacts
// in place on success. Wrong credentials return (nil, nil), never an error.
func (srv *authService) Authenticate(ctx context.Context, username, password string) (*entity.Identity, error) {
	if username == "" || password == "" {
		return nil, nil
	}

	identity, err := srv.findIdentity(ctx, username)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, nil
	}

	matched := srv.codec.Verify(password, identity.CredentialArtifact)

	// Last-resort recovery for pre-migration rows that stored the literal
	// password. Gated by configuration; a match here is immediately
	// re-encoded below.
	usedPlaintextRecovery := false
	if !matched && srv.allowLegacyPlaintextRecovery {
		if subtle.ConstantTimeCompare([]byte(identity.CredentialArtifact), []byte(password)) == 1 {
			matched = true
			usedPlaintextRecovery = true
		}
	}

	if !matched {
		srv.logger.Warn("Authentication failed", slog.String("username", username))

		return nil, nil
	}

	if usedPlaintextRecovery || srv.codec.NeedsUpgrade(identity.CredentialArtifact) {
		srv.upgradeArtifact(ctx, identity, password)
	}

	srv.logger.Info("Authenticated",
		slog.String("username", identity.Username), slog.Any("role", identity.Role))

	return identity, nil
}

// ListUsers enumerates every stored identity.
func (srv *authService) ListUsers(ctx context.Context) ([]*entity.Identity, error) {
	var identities []*entity.Identity

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var listErr error
		identities, listErr = repoFactory.IdentityRepo().ListAll(ctx)

		return listErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list identities")
	}

	return identities, nil
}

// DeleteUser removes an identity, reporting whether it existed.
func (srv *authService) DeleteUser(ctx context.Context, username string) (bool, error) {
	var existed bool

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var delErr error
		existed, delErr = repoFactory.IdentityRepo().Delete(ctx, username)

		return delErr
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to delete identity")
	}

	if existed {
		srv.logger.Info("Deleted identity", slog.String("username", username))
	}

	return existed, nil
}

// findIdentity loads an identity, mapping not-found to a nil identity.
func (srv *authService) findIdentity(ctx context.Context, username string) (*entity.Identity, error) {
	var identity *entity.Identity

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var findErr error
		identity, findErr = repoFactory.IdentityRepo().FindByUsername(ctx, username)
		if errors.Is(findErr, repository.ErrIdentityNotFound) {
			identity = nil

			return nil
		}

		return findErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load identity for authentication")
	}

	return identity, nil
}

// upgradeArtifact re-encodes the password under the preferred scheme and
// persists it. Failure is logged but never fails the login: the user
// presented valid credentials and the stale artifact still verifies.
func (srv *authService) upgradeArtifact(ctx context.Context, identity *entity.Identity, password string) {
	artifact, err := srv.codec.Encode(password)
	if err != nil {
		srv.logger.Error("Failed to re-encode credential artifact",
			slog.String("username", identity.Username), slog.Any("error", err))

		return
	}

	identity.CredentialArtifact = artifact

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.IdentityRepo().Update(ctx, identity)
	})
	if err != nil {
		srv.logger.Error("Failed to persist upgraded credential artifact",
			slog.String("username", identity.Username), slog.Any("error", err))

		return
	}

	srv.logger.Info("Upgraded credential artifact to preferred scheme",
		slog.String("username", identity.Username))
}
