// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within
// a single entity.
package service

// CredentialCodec defines the interface for producing and verifying
// credential artifacts. It abstracts the underlying hashing schemes so the
// domain never interprets an artifact itself, and lets artifacts created
// under older schemes coexist in the store while new credentials always get
// the current preferred encoding.
type CredentialCodec interface {
	// Encode produces an artifact under the current preferred scheme.
	// It never fails for well-formed non-empty input.
	Encode(plaintext string) (string, error)

	// Verify attempts verification using the scheme embedded in the
	// artifact. Unrecognized schemes and internal verification faults
	// report false rather than an error.
	Verify(plaintext, artifact string) bool

	// NeedsUpgrade reports whether the artifact's scheme or parameters
	// differ from the current preferred configuration.
	NeedsUpgrade(artifact string) bool
}
