package entity

import (
	"time"

	"github.com/google/uuid"
)

// Identity represents a staff account that can log into the application.
type Identity struct {
	ID          uuid.UUID // The unique identifier assigned by the store.
	Username    string    // Unique, immutable login name.
	DisplayName string    // Human-readable name shown in the UI.
	// CredentialArtifact is the opaque encoded password hash, including the
	// scheme tag and parameters. It is never compared by equality; only the
	// credential codec may interpret it.
	CredentialArtifact string
	Role               Role
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
