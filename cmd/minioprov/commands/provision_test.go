package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/minioprov/internal/config"
	"github.com/systmms/minioprov/tests/testutil"
)

var adminEnv = map[string]string{
	"MINIO_ADMIN_ACCESS_KEY": "admin",
	"MINIO_ADMIN_SECRET_KEY": "admin-secret",
}

func TestProvisionCommand_FlagDefinitions(t *testing.T) {
	cmd := NewProvisionCommand(&config.Config{})

	tests := []struct {
		name string
		def  string
	}{
		{"config", DefaultServerConfig},
		{"policies-dir", DefaultPoliciesDir},
		{"legacy-fallback", "false"},
		{"allow-partial", "false"},
		{"metrics-file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
}

func TestProvisionCommand_RequiresVaultCredentials(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteDocument("server.json", map[string]interface{}{})

	cfg, _ := newTestConfig(t, map[string]string{})
	_, err := executeCommand(t, NewProvisionCommand(cfg), "--config", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULT_ROLE_ID")
	assert.Contains(t, err.Error(), "--legacy-fallback")
}

func TestProvisionCommand_RequiresAdminCredentialsForUsers(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteDocument("server.json", map[string]interface{}{
		"users": []map[string]string{{"username": "ci-bot", "policy": "ci.json"}},
	})

	cfg, _ := newTestConfig(t, map[string]string{})
	_, err := executeCommand(t, NewProvisionCommand(cfg), "--config", path, "--legacy-fallback")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_ADMIN_ACCESS_KEY")
}

func TestProvisionCommand_RequiresBucketCredentialsForBuckets(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteDocument("server.json", map[string]interface{}{"buckets": []string{"logs"}})

	cfg, _ := newTestConfig(t, map[string]string{})
	_, err := executeCommand(t, NewProvisionCommand(cfg), "--config", path, "--legacy-fallback")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUCKET_CREATOR_ACCESS_KEY")
}

func TestProvisionCommand_MissingDocument(t *testing.T) {
	cfg, _ := newTestConfig(t, map[string]string{})
	_, err := executeCommand(t, NewProvisionCommand(cfg),
		"--config", filepath.Join(t.TempDir(), "absent.json"), "--legacy-fallback")

	require.Error(t, err)
}

func TestProvisionCommand_LegacyFallbackEmptyDocument(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteDocument("server.json", map[string]interface{}{})

	cfg, logger := newTestConfig(t, map[string]string{})
	out, err := executeCommand(t, NewProvisionCommand(cfg), "--config", path, "--legacy-fallback")

	require.NoError(t, err)
	assert.Contains(t, out, "Summary: nothing to do")
	logger.AssertContains(t, "Continuing without Vault")
}

func TestProvisionCommand_SkippedUsersDoNotFailRun(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	ws.WritePolicy("ci.json", testutil.SamplePolicy)
	path := ws.WriteDocument("server.json", map[string]interface{}{
		"users": []map[string]string{
			{"username": "ci-bot", "policy": "ci.json"},
			{"username": "", "policy": "ci.json"},
		},
	})
	metrics := filepath.Join(ws.Root, "minioprov.prom")

	cfg, logger := newTestConfig(t, adminEnv)
	out, err := executeCommand(t, NewProvisionCommand(cfg),
		"--config", path,
		"--policies-dir", ws.PoliciesDir,
		"--legacy-fallback",
		"--metrics-file", metrics,
	)

	require.NoError(t, err)
	assert.Contains(t, out, "users: 2 skipped")
	logger.AssertContains(t, "Skipping user 'ci-bot': no Vault session and no password in config")

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `minioprov_items_total{kind="user",status="skipped"} 2`)
}

func TestProvisionCommand_PlaceholderUsernames(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteDocument("server.json", map[string]interface{}{
		"users": []map[string]string{{"username": "${MINIO_USER_JENKINS}", "policy": "ci.json"}},
	})

	vars := map[string]string{"MINIO_USER_JENKINS": "svc-jenkins"}
	for k, v := range adminEnv {
		vars[k] = v
	}
	cfg, logger := newTestConfig(t, vars)
	_, err := executeCommand(t, NewProvisionCommand(cfg), "--config", path, "--legacy-fallback")

	require.NoError(t, err)
	logger.AssertContains(t, "Skipping user 'svc-jenkins'")
}

func TestProvisionCommand_UnreachableVault(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteDocument("server.json", map[string]interface{}{})

	host, port := closedEndpoint(t)
	cfg, logger := newTestConfig(t, map[string]string{
		"VAULT_ADDR":      "http://" + host + ":" + port,
		"VAULT_ROLE_ID":   "role",
		"VAULT_SECRET_ID": "secret",
	})

	_, err := executeCommand(t, NewProvisionCommand(cfg), "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault error during authentication")
	assert.Contains(t, err.Error(), "Unable to connect")

	_, err = executeCommand(t, NewProvisionCommand(cfg), "--config", path, "--legacy-fallback")
	require.NoError(t, err)
	logger.AssertContains(t, "Continuing without Vault: vault error during authentication")
}
