package auth

import (
	"automanager/config"
	"automanager/internal/domain/service"
)

// legacyScheme is a recognized but deprecated hashing scheme. Legacy schemes
// only verify; they never encode.
type legacyScheme interface {
	Recognizes(artifact string) bool
	Verify(plaintext, artifact string) bool
}

// multiSchemeCodec implements service.CredentialCodec over one preferred
// scheme plus an ordered list of recognized legacy schemes. Artifacts created
// under older configurations keep working while new and re-encoded
// credentials always get the preferred encoding.
type multiSchemeCodec struct {
	preferred *argon2Codec
	legacy    []legacyScheme
}

// NewCredentialCodec is the constructor for the credential codec. The
// preferred scheme is argon2id with the configured cost parameters; bcrypt
// is kept as a recognized legacy scheme.
func NewCredentialCodec(cfg *config.Config) service.CredentialCodec {
	return &multiSchemeCodec{
		preferred: newArgon2Codec(cfg.Auth),
		legacy:    []legacyScheme{bcryptScheme{}},
	}
}

// Encode always produces an artifact under the preferred scheme.
func (c *multiSchemeCodec) Encode(plaintext string) (string, error) {
	return c.preferred.Encode(plaintext)
}

// Verify dispatches on the scheme tag embedded in the artifact, trying the
// preferred scheme first and then each legacy scheme in priority order.
// Unrecognized schemes and internal faults report false; verification never
// propagates an error past this boundary.
func (c *multiSchemeCodec) Verify(plaintext, artifact string) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()

	if c.preferred.Recognizes(artifact) {
		return c.preferred.Verify(plaintext, artifact)
	}

	for _, scheme := range c.legacy {
		if scheme.Recognizes(artifact) {
			return scheme.Verify(plaintext, artifact)
		}
	}

	return false
}

// NeedsUpgrade reports true for every artifact that is not encoded under
// the preferred scheme with the current cost parameters.
func (c *multiSchemeCodec) NeedsUpgrade(artifact string) bool {
	if c.preferred.Recognizes(artifact) {
		return c.preferred.NeedsUpgrade(artifact)
	}

	return true
}
