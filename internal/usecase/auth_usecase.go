// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"automanager/internal/domain/entity"
)

// RegisterInput defines the data required to register a new staff account.
type RegisterInput struct {
	Username    string `validate:"required"`
	DisplayName string
	Password    string `validate:"required"`
	// Role is free-form input normalized at this boundary; empty defaults
	// to Mechanic.
	Role string
}

// AuthUsecase is the authentication surface consumed by the UI shell.
type AuthUsecase interface {
	// Register creates a new identity with the password encoded under the
	// preferred scheme. It fails with ErrInvalidInput for empty
	// username/password and ErrDuplicateUsername on collision.
	Register(ctx context.Context, input *RegisterInput) (*entity.Identity, error)

	// Authenticate verifies a username/password pair. A wrong password or
	// unknown username is not an error: both return (nil, nil). On a
	// successful match through a legacy path, the stored artifact is
	// re-encoded under the preferred scheme before returning.
	Authenticate(ctx context.Context, username, password string) (*entity.Identity, error)

	// ListUsers enumerates every stored identity.
	ListUsers(ctx context.Context) ([]*entity.Identity, error)

	// DeleteUser removes an identity, reporting whether it existed.
	// Unknown usernames return false rather than an error.
	DeleteUser(ctx context.Context, username string) (bool, error)
}
