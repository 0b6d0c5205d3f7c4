package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Parallel()

	s, err := LoadSettings(MapLookup(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultVaultAddr, s.Vault.Address)
	assert.Equal(t, "localhost:9000", s.ObjectStore.Endpoint())
	assert.False(t, s.ObjectStore.Secure)
	assert.Equal(t, DefaultMinIORegion, s.ObjectStore.Region)
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Equal(t, DefaultRetryAttempts, s.Retry.Attempts)
	assert.Equal(t, DefaultRetryDelay, s.Retry.Delay)
	assert.Len(t, s.Placeholders, 3)
}

func TestLoadSettings_FromEnvironment(t *testing.T) {
	t.Parallel()

	s, err := LoadSettings(MapLookup(map[string]string{
		"VAULT_ADDR":                "https://vault.internal:8200",
		"VAULT_ROLE_ID":             "role",
		"VAULT_SECRET_ID":           "secret",
		"VAULT_NAMESPACE":           "ops",
		"VAULT_SKIP_VERIFY":         "true",
		"MINIO_SERVER":              "minio.internal",
		"MINIO_PORT":                "9443",
		"MINIO_SECURE":              "True",
		"MINIO_ADMIN_ACCESS_KEY":    "admin",
		"MINIO_ADMIN_SECRET_KEY":    "admin-secret",
		"BUCKET_CREATOR_ACCESS_KEY": "creator",
		"BUCKET_CREATOR_SECRET_KEY": "creator-secret",
		"MINIOPROV_TIMEOUT":         "5s",
		"MINIOPROV_RETRY_ATTEMPTS":  "1",
		"MINIOPROV_RETRY_DELAY":     "50ms",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://vault.internal:8200", s.Vault.Address)
	assert.Equal(t, "ops", s.Vault.Namespace)
	assert.True(t, s.Vault.TLSSkipVerify)
	assert.NoError(t, s.Vault.Validate())
	assert.Equal(t, "minio.internal:9443", s.ObjectStore.Endpoint())
	assert.True(t, s.ObjectStore.Secure)
	assert.NoError(t, s.ObjectStore.ValidateAdmin())
	assert.NoError(t, s.ObjectStore.ValidateBucketCreator())
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, 1, s.Retry.Attempts)
	assert.Equal(t, 50*time.Millisecond, s.Retry.Delay)
}

func TestLoadSettings_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not integer", "MINIO_PORT", "ninety"},
		{"port out of range", "MINIO_PORT", "70000"},
		{"timeout not duration", "MINIOPROV_TIMEOUT", "soon"},
		{"zero attempts", "MINIOPROV_RETRY_ATTEMPTS", "0"},
		{"negative delay", "MINIOPROV_RETRY_DELAY", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadSettings(MapLookup(map[string]string{tt.key: tt.value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestVaultSettings_ValidateMissing(t *testing.T) {
	t.Parallel()

	err := VaultSettings{Address: DefaultVaultAddr, RoleID: "role"}.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULT_SECRET_ID")
	assert.NotContains(t, err.Error(), "VAULT_ROLE_ID")
}

func TestObjectStoreSettings_ValidateMissing(t *testing.T) {
	t.Parallel()

	s := ObjectStoreSettings{AdminAccessKey: "admin"}

	err := s.ValidateAdmin()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_ADMIN_SECRET_KEY")

	err = s.ValidateBucketCreator()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUCKET_CREATOR_ACCESS_KEY")
	assert.Contains(t, err.Error(), "BUCKET_CREATOR_SECRET_KEY")
}
