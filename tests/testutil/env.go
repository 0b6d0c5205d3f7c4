package testutil

import (
	"os"
	"testing"
)

// SetupTestEnv sets environment variables for the duration of a test.
//
// The original environment is restored automatically when the test completes.
// Tests that call it must not run in parallel.
//
// Example usage:
//
//	SetupTestEnv(t, map[string]string{
//	    "VAULT_ADDR":   "http://localhost:8200",
//	    "MINIO_SERVER": "minio.internal",
//	})
func SetupTestEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	original := make(map[string]string)
	unset := make([]string, 0)

	for key, value := range vars {
		if orig, ok := os.LookupEnv(key); ok {
			original[key] = orig
		} else {
			unset = append(unset, key)
		}

		if err := os.Setenv(key, value); err != nil {
			t.Fatalf("Failed to set environment variable %s: %v", key, err)
		}
	}

	t.Cleanup(func() {
		restore(t, original, unset)
	})
}

// ClearTestEnv unsets variables for the duration of a test, so values from
// the developer's shell (a real VAULT_ROLE_ID, say) cannot leak in.
func ClearTestEnv(t *testing.T, keys ...string) {
	t.Helper()

	original := make(map[string]string)
	for _, key := range keys {
		if orig, ok := os.LookupEnv(key); ok {
			original[key] = orig
		}
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Failed to unset environment variable %s: %v", key, err)
		}
	}

	t.Cleanup(func() {
		restore(t, original, nil)
	})
}

func restore(t *testing.T, original map[string]string, unset []string) {
	for key, value := range original {
		if err := os.Setenv(key, value); err != nil {
			t.Errorf("Failed to restore environment variable %s: %v", key, err)
		}
	}
	for _, key := range unset {
		if err := os.Unsetenv(key); err != nil {
			t.Errorf("Failed to unset environment variable %s: %v", key, err)
		}
	}
}

// ProvisionerEnvKeys lists every variable the tool reads
var ProvisionerEnvKeys = []string{
	"VAULT_ADDR", "VAULT_ROLE_ID", "VAULT_SECRET_ID", "VAULT_NAMESPACE", "VAULT_SKIP_VERIFY", "VAULT_TOKEN",
	"MINIO_SERVER", "MINIO_PORT", "MINIO_SECURE", "MINIO_REGION",
	"MINIO_ADMIN_ACCESS_KEY", "MINIO_ADMIN_SECRET_KEY",
	"BUCKET_CREATOR_ACCESS_KEY", "BUCKET_CREATOR_SECRET_KEY",
	"MINIO_USER_CONCOURSE", "MINIO_USER_JENKINS", "MINIO_USER_K8S", "MINIO_USER_PLACEHOLDERS",
	"MINIOPROV_TIMEOUT", "MINIOPROV_RETRY_ATTEMPTS", "MINIOPROV_RETRY_DELAY",
}
