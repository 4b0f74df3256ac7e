// Package auth provides concrete implementations for credential encoding.
// The preferred scheme is argon2id; bcrypt artifacts from the previous
// application generation remain verifiable and are upgraded in place on the
// next successful login.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"automanager/config"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

const argon2Prefix = "$argon2id$"

// argon2Params are the cost parameters of an argon2id artifact.
type argon2Params struct {
	time    uint32
	memory  uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

// argon2Codec encodes and verifies artifacts in the PHC string format:
// $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<b64 salt>$<b64 key>
type argon2Codec struct {
	params argon2Params
}

func newArgon2Codec(cfg *config.AuthConfig) *argon2Codec {
	return &argon2Codec{params: argon2Params{
		time:    cfg.Argon2Time,
		memory:  cfg.Argon2Memory,
		threads: cfg.Argon2Threads,
		saltLen: cfg.Argon2SaltLen,
		keyLen:  cfg.Argon2KeyLen,
	}}
}

// Encode produces a new artifact with a fresh random salt.
func (c *argon2Codec) Encode(plaintext string) (string, error) {
	salt := make([]byte, c.params.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to generate salt")
	}

	key := argon2.IDKey([]byte(plaintext), salt, c.params.time, c.params.memory, c.params.threads, c.params.keyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		c.params.memory,
		c.params.time,
		c.params.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Recognizes reports whether the artifact carries the argon2id scheme tag.
func (c *argon2Codec) Recognizes(artifact string) bool {
	return strings.HasPrefix(artifact, argon2Prefix)
}

// Verify re-derives the key with the parameters embedded in the artifact and
// compares in constant time. Malformed artifacts report false.
func (c *argon2Codec) Verify(plaintext, artifact string) bool {
	params, salt, key, err := decodeArgon2Artifact(artifact)
	if err != nil {
		return false
	}

	derived := argon2.IDKey([]byte(plaintext), salt, params.time, params.memory, params.threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(derived, key) == 1
}

// NeedsUpgrade reports whether the artifact's cost parameters differ from
// the configured preferred parameters.
func (c *argon2Codec) NeedsUpgrade(artifact string) bool {
	params, _, key, err := decodeArgon2Artifact(artifact)
	if err != nil {
		return true
	}

	return params.time != c.params.time ||
		params.memory != c.params.memory ||
		params.threads != c.params.threads ||
		uint32(len(key)) != c.params.keyLen
}

func decodeArgon2Artifact(artifact string) (argon2Params, []byte, []byte, error) {
	var params argon2Params

	parts := strings.Split(artifact, "$")
	// ["", "argon2id", "v=19", "m=...,t=...,p=...", salt, key]
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, errors.New("not an argon2id artifact")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, errors.Wrap(err, "malformed argon2 version")
	}
	if version != argon2.Version {
		return params, nil, nil, errors.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return params, nil, nil, errors.Wrap(err, "malformed argon2 parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, errors.Wrap(err, "malformed argon2 salt")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, errors.Wrap(err, "malformed argon2 key")
	}

	params.saltLen = uint32(len(salt))
	params.keyLen = uint32(len(key))

	return params, salt, key, nil
}
