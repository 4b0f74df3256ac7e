// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers
// and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"automanager/internal/domain/entity"
)

// ErrIdentityNotFound is a domain-specific error returned when an identity
// is not found.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository defines the standard operations for identity persistence.
// The application layer depends on this interface, not the concrete
// implementation.
type IdentityRepository interface {
	// FindByUsername retrieves a single identity by its unique username.
	// Returns ErrIdentityNotFound when no record exists.
	FindByUsername(ctx context.Context, username string) (*entity.Identity, error)

	// Insert persists a new identity. The store's unique constraint on
	// username is the authoritative uniqueness enforcement; a collision
	// surfaces as domainerrors.ErrDuplicateUsername.
	Insert(ctx context.Context, identity *entity.Identity) error

	// Update persists mutated fields of an existing identity.
	Update(ctx context.Context, identity *entity.Identity) error

	// Delete removes an identity by username. It reports whether a record
	// existed and was removed.
	Delete(ctx context.Context, username string) (bool, error)

	// ListAll enumerates every stored identity. Ordering is stable but not
	// specified.
	ListAll(ctx context.Context) ([]*entity.Identity, error)
}
