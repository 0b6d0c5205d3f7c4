package integration_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/minioprov/internal/config"
	"github.com/systmms/minioprov/internal/objectstore"
	"github.com/systmms/minioprov/internal/reconcile"
	"github.com/systmms/minioprov/internal/secretstore"
	"github.com/systmms/minioprov/internal/seed"
	"github.com/systmms/minioprov/tests/testutil"
)

// liveSettings returns settings for a real Vault and MinIO, or skips. Set
// MINIOPROV_INTEGRATION=1 together with the usual VAULT_* and MINIO_*
// variables to run these tests.
func liveSettings(t *testing.T) *config.Settings {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("MINIOPROV_INTEGRATION") != "1" {
		t.Skip("MINIOPROV_INTEGRATION not set")
	}

	s, err := config.LoadSettings(config.EnvLookup())
	require.NoError(t, err)
	require.NoError(t, s.Vault.Validate())
	require.NoError(t, s.ObjectStore.ValidateAdmin())
	require.NoError(t, s.ObjectStore.ValidateBucketCreator())
	return s
}

func vaultSession(ctx context.Context, t *testing.T, s *config.Settings) *secretstore.Client {
	t.Helper()

	client, err := secretstore.New(secretstore.Config{
		Address:       s.Vault.Address,
		RoleID:        s.Vault.RoleID,
		SecretID:      s.Vault.SecretID,
		Namespace:     s.Vault.Namespace,
		TLSSkipVerify: s.Vault.TLSSkipVerify,
		Timeout:       s.Timeout,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, client.Authenticate(ctx))
	return client
}

func TestSeedThenProvision(t *testing.T) {
	s := liveSettings(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	run := time.Now().Unix()
	path := fmt.Sprintf("secret/data/minioprov-it/%d", run)
	username := fmt.Sprintf("it-user-%d", run)
	bucket := fmt.Sprintf("it-bucket-%d", run)

	logger := testutil.NewTestLogger(t)

	seeder := &seed.Seeder{
		Store:  vaultSession(ctx, t, s),
		Source: seed.GeneratedSource{},
		Path:   path,
		Logger: logger.Logger,
	}
	require.NoError(t, seeder.Run(ctx, []string{username}))

	ws := testutil.NewWorkspace(t)
	ws.WritePolicy("it-policy.json", testutil.SamplePolicy)
	doc := &config.Document{
		Buckets: []string{bucket},
		Users:   []config.UserSpec{{Username: username, Policy: "it-policy.json", VaultPath: path}},
	}

	store, err := objectstore.New(objectstore.Config{
		Endpoint:     s.ObjectStore.Endpoint(),
		Secure:       s.ObjectStore.Secure,
		Region:       s.ObjectStore.Region,
		BucketAccess: s.ObjectStore.BucketAccessKey,
		BucketSecret: s.ObjectStore.BucketSecretKey,
		AdminAccess:  s.ObjectStore.AdminAccessKey,
		AdminSecret:  s.ObjectStore.AdminSecretKey,
		Timeout:      s.Timeout,
	}, logger.Logger)
	require.NoError(t, err)

	provision := func() *reconcile.Report {
		r := &reconcile.Reconciler{
			Store:    store,
			Secrets:  vaultSession(ctx, t, s),
			Policies: reconcile.DirPolicySource{Dir: ws.PoliciesDir},
			Logger:   logger.Logger,
		}
		report, err := r.Run(ctx, doc)
		require.NoError(t, err)
		require.False(t, report.HasFailures(), report.Summary())
		return report
	}

	first := provision()
	assert.Len(t, first.Filter(reconcile.KindBucket, reconcile.StatusCreated), 1)
	assert.Len(t, first.Filter(reconcile.KindUser, reconcile.StatusProvisioned), 1)

	second := provision()
	assert.Len(t, second.Filter(reconcile.KindBucket, reconcile.StatusExists), 1)
	assert.Equal(t, []string{"it-policy"}, second.PoliciesApplied)
	logger.AssertContains(t, fmt.Sprintf("User '%s' already exists", username))
}
