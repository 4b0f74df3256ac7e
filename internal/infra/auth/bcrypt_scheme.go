package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptScheme verifies artifacts produced by the previous application
// generation, which hashed passwords with bcrypt. It is a recognized legacy
// scheme only: new artifacts are never encoded with it, and every bcrypt
// artifact reports NeedsUpgrade.
type bcryptScheme struct{}

// Recognizes reports whether the artifact carries a bcrypt scheme tag.
func (bcryptScheme) Recognizes(artifact string) bool {
	return strings.HasPrefix(artifact, "$2a$") ||
		strings.HasPrefix(artifact, "$2b$") ||
		strings.HasPrefix(artifact, "$2y$")
}

// Verify compares a plaintext password with a bcrypt artifact.
func (bcryptScheme) Verify(plaintext, artifact string) bool {
	return bcrypt.CompareHashAndPassword([]byte(artifact), []byte(plaintext)) == nil
}
