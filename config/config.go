package config

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath         = "."
	defaultDatabasePath = "automanager.db"
)

// Config is the root configuration of the application.
type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	Database *DatabaseConfig `json:"database" yaml:"database"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Seed optionally bootstraps a first administrator account at startup.
	Seed *SeedConfig `json:"seed" yaml:"seed"`
}

// Log defines logger output configuration.
type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// DatabaseConfig defines the embedded sqlite store configuration.
type DatabaseConfig struct {
	// Path of the sqlite database file.
	Path string `json:"path" yaml:"path"`
}

// AuthConfig defines credential encoding configuration. The argon2id
// parameters describe the current preferred scheme; artifacts encoded with
// different parameters are re-encoded on the next successful login.
type AuthConfig struct {
	Argon2Time    uint32 `json:"argon2Time" yaml:"argon2Time"`
	Argon2Memory  uint32 `json:"argon2Memory" yaml:"argon2Memory"`
	Argon2Threads uint8  `json:"argon2Threads" yaml:"argon2Threads"`
	Argon2SaltLen uint32 `json:"argon2SaltLen" yaml:"argon2SaltLen"`
	Argon2KeyLen  uint32 `json:"argon2KeyLen" yaml:"argon2KeyLen"`

	// AllowLegacyPlaintextRecovery enables a one-time recovery path for
	// pre-migration rows that stored the literal password. A match through
	// this path is immediately re-encoded under the preferred scheme.
	AllowLegacyPlaintextRecovery bool `json:"allowLegacyPlaintextRecovery" yaml:"allowLegacyPlaintextRecovery"`
}

// SeedConfig defines the bootstrap administrator created when the store has
// no identity with this username yet.
type SeedConfig struct {
	Username    string `json:"username" yaml:"username"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Password    string `json:"password" yaml:"password"`
}

// Default argon2id parameters, applied when the config omits them.
const (
	DefaultArgon2Time    uint32 = 3
	DefaultArgon2Memory  uint32 = 64 * 1024
	DefaultArgon2Threads uint8  = 2
	DefaultArgon2SaltLen uint32 = 16
	DefaultArgon2KeyLen  uint32 = 32
)

// LoadWithEnv loads .yaml files through koanf, with environment variable
// overrides aligned to the YAML key casing.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to a path and align each segment with
			// existing YAML keys. Example: AUTH_ARGON2TIME -> auth.argon2Time
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

// New loads the application configuration and applies defaults.
func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if strings.TrimSpace(cfg.Database.Path) == "" {
		cfg.Database.Path = defaultDatabasePath
	}

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.Argon2Time == 0 {
		cfg.Auth.Argon2Time = DefaultArgon2Time
	}
	if cfg.Auth.Argon2Memory == 0 {
		cfg.Auth.Argon2Memory = DefaultArgon2Memory
	}
	if cfg.Auth.Argon2Threads == 0 {
		cfg.Auth.Argon2Threads = DefaultArgon2Threads
	}
	if cfg.Auth.Argon2SaltLen == 0 {
		cfg.Auth.Argon2SaltLen = DefaultArgon2SaltLen
	}
	if cfg.Auth.Argon2KeyLen == 0 {
		cfg.Auth.Argon2KeyLen = DefaultArgon2KeyLen
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
