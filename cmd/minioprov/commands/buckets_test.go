package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/minioprov/internal/config"
	"github.com/systmms/minioprov/tests/testutil"
)

func TestBucketsCommand_FlagDefinitions(t *testing.T) {
	cmd := NewBucketsCommand(&config.Config{})

	flag := cmd.Flags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, DefaultBucketsConfig, flag.DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("allow-partial"))
	assert.NotNil(t, cmd.Flags().Lookup("metrics-file"))
	assert.Nil(t, cmd.Flags().Lookup("legacy-fallback"))
}

func TestBucketsCommand_RequiresBucketCredentials(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteDocument("buckets.json", map[string]interface{}{"buckets": []string{"logs"}})

	cfg, _ := newTestConfig(t, map[string]string{
		"MINIO_ADMIN_ACCESS_KEY": "admin",
		"MINIO_ADMIN_SECRET_KEY": "admin-secret",
	})
	_, err := executeCommand(t, NewBucketsCommand(cfg), "--config", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUCKET_CREATOR_SECRET_KEY")
}

func TestBucketsCommand_UnreachableServer(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteDocument("buckets.json", map[string]interface{}{"buckets": []string{"logs", "backups"}})
	host, port := closedEndpoint(t)

	vars := map[string]string{
		"MINIO_SERVER":              host,
		"MINIO_PORT":                port,
		"BUCKET_CREATOR_ACCESS_KEY": "creator",
		"BUCKET_CREATOR_SECRET_KEY": "creator-secret",
	}

	t.Run("fails", func(t *testing.T) {
		cfg, logger := newTestConfig(t, vars)
		out, err := executeCommand(t, NewBucketsCommand(cfg), "--config", path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 bucket(s) failed")
		assert.Contains(t, out, "buckets: 2 failed")
		assert.Contains(t, out, "✗ bucket 'logs': existence check failed")
		assert.Contains(t, out, "✗ bucket 'backups': existence check failed")
		assert.Contains(t, out, "💡 Try: Unable to connect. Check the server address and port")
		logger.AssertContains(t, "Failed to check bucket 'logs'")
	})

	t.Run("allow partial", func(t *testing.T) {
		cfg, _ := newTestConfig(t, vars)
		out, err := executeCommand(t, NewBucketsCommand(cfg), "--config", path, "--allow-partial")

		require.NoError(t, err)
		assert.Contains(t, out, "buckets: 2 failed")
	})
}
