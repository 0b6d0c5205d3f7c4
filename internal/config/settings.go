package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	dserrors "github.com/systmms/minioprov/internal/errors"
)

const (
	DefaultVaultAddr      = "http://127.0.0.1:8200"
	DefaultMinIOServer    = "localhost"
	DefaultMinIOPort      = 9000
	DefaultMinIORegion    = "us-east-1"
	DefaultTimeout        = 30 * time.Second
	DefaultRetryAttempts  = 3
	DefaultRetryDelay     = 500 * time.Millisecond
	DefaultUsersVaultPath = "secret/data/minio/users"
)

// LookupFunc resolves an environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// EnvLookup reads the real process environment
func EnvLookup() LookupFunc {
	return os.LookupEnv
}

// MapLookup resolves variables from a fixed map, for tests and dry runs
func MapLookup(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// Settings holds everything taken from the environment
type Settings struct {
	Vault        VaultSettings
	ObjectStore  ObjectStoreSettings
	Placeholders []Placeholder
	Timeout      time.Duration
	Retry        RetrySettings
}

// VaultSettings configures the secrets backend connection
type VaultSettings struct {
	Address       string
	RoleID        string
	SecretID      string
	Namespace     string
	TLSSkipVerify bool
}

// ObjectStoreSettings configures both MinIO connections: the least-privilege
// bucket creator and the admin identity used for policies and users.
type ObjectStoreSettings struct {
	Server          string
	Port            int
	Secure          bool
	Region          string
	AdminAccessKey  string
	AdminSecretKey  string
	BucketAccessKey string
	BucketSecretKey string
}

// RetrySettings configures retries of transient network failures
type RetrySettings struct {
	Attempts int
	Delay    time.Duration
}

// Endpoint returns host:port as expected by the MinIO clients
func (o ObjectStoreSettings) Endpoint() string {
	return net.JoinHostPort(o.Server, strconv.Itoa(o.Port))
}

// LoadSettings builds Settings from the environment. Only malformed values are
// errors here; missing credentials are reported by the Validate methods so
// each command can decide which ones it needs.
func LoadSettings(lookup LookupFunc) (*Settings, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	s := &Settings{
		Vault: VaultSettings{
			Address:       get("VAULT_ADDR", DefaultVaultAddr),
			RoleID:        get("VAULT_ROLE_ID", ""),
			SecretID:      get("VAULT_SECRET_ID", ""),
			Namespace:     get("VAULT_NAMESPACE", ""),
			TLSSkipVerify: parseBool(get("VAULT_SKIP_VERIFY", "")),
		},
		ObjectStore: ObjectStoreSettings{
			Server:          get("MINIO_SERVER", DefaultMinIOServer),
			Port:            DefaultMinIOPort,
			Secure:          parseBool(get("MINIO_SECURE", "false")),
			Region:          get("MINIO_REGION", DefaultMinIORegion),
			AdminAccessKey:  get("MINIO_ADMIN_ACCESS_KEY", ""),
			AdminSecretKey:  get("MINIO_ADMIN_SECRET_KEY", ""),
			BucketAccessKey: get("BUCKET_CREATOR_ACCESS_KEY", ""),
			BucketSecretKey: get("BUCKET_CREATOR_SECRET_KEY", ""),
		},
		Timeout: DefaultTimeout,
		Retry: RetrySettings{
			Attempts: DefaultRetryAttempts,
			Delay:    DefaultRetryDelay,
		},
	}

	if raw := get("MINIO_PORT", ""); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return nil, dserrors.ConfigError{
				Field:      "MINIO_PORT",
				Value:      raw,
				Message:    "not a valid port number",
				Suggestion: "Set MINIO_PORT to an integer such as 9000",
			}
		}
		s.ObjectStore.Port = port
	}

	if raw := get("MINIOPROV_TIMEOUT", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, dserrors.ConfigError{
				Field:      "MINIOPROV_TIMEOUT",
				Value:      raw,
				Message:    "not a valid positive duration",
				Suggestion: "Use a Go duration such as 30s or 1m",
			}
		}
		s.Timeout = d
	}

	if raw := get("MINIOPROV_RETRY_ATTEMPTS", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, dserrors.ConfigError{
				Field:      "MINIOPROV_RETRY_ATTEMPTS",
				Value:      raw,
				Message:    "must be an integer >= 1",
				Suggestion: "Use 1 to disable retries",
			}
		}
		s.Retry.Attempts = n
	}

	if raw := get("MINIOPROV_RETRY_DELAY", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, dserrors.ConfigError{
				Field:      "MINIOPROV_RETRY_DELAY",
				Value:      raw,
				Message:    "not a valid positive duration",
				Suggestion: "Use a Go duration such as 500ms",
			}
		}
		s.Retry.Delay = d
	}

	placeholders, err := LoadPlaceholders(lookup)
	if err != nil {
		return nil, err
	}
	s.Placeholders = placeholders

	return s, nil
}

// Validate checks the AppRole credentials needed to authenticate
func (v VaultSettings) Validate() error {
	var missing []string
	if v.Address == "" {
		missing = append(missing, "VAULT_ADDR")
	}
	if v.RoleID == "" {
		missing = append(missing, "VAULT_ROLE_ID")
	}
	if v.SecretID == "" {
		missing = append(missing, "VAULT_SECRET_ID")
	}
	if len(missing) > 0 {
		return dserrors.ConfigError{
			Field:      strings.Join(missing, ", "),
			Message:    "required Vault environment variables are not set",
			Suggestion: "Export the AppRole credentials or pass --legacy-fallback to use passwords from the config file",
		}
	}
	return nil
}

// ValidateAdmin checks the admin credentials used for policies and users
func (o ObjectStoreSettings) ValidateAdmin() error {
	return requireKeys("MINIO_ADMIN_ACCESS_KEY", o.AdminAccessKey, "MINIO_ADMIN_SECRET_KEY", o.AdminSecretKey)
}

// ValidateBucketCreator checks the least-privilege bucket credentials
func (o ObjectStoreSettings) ValidateBucketCreator() error {
	return requireKeys("BUCKET_CREATOR_ACCESS_KEY", o.BucketAccessKey, "BUCKET_CREATOR_SECRET_KEY", o.BucketSecretKey)
}

func requireKeys(accessName, access, secretName, secret string) error {
	var missing []string
	if access == "" {
		missing = append(missing, accessName)
	}
	if secret == "" {
		missing = append(missing, secretName)
	}
	if len(missing) == 0 {
		return nil
	}
	return dserrors.ConfigError{
		Field:      strings.Join(missing, ", "),
		Message:    "required MinIO credentials are not set",
		Suggestion: fmt.Sprintf("Export %s and %s", accessName, secretName),
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
