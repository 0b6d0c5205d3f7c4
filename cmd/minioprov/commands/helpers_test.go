package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/systmms/minioprov/internal/config"
	"github.com/systmms/minioprov/tests/testutil"
)

// newTestConfig builds a Config whose settings come from vars instead of the
// process environment. Retries are disabled so failures surface at once.
func newTestConfig(t *testing.T, vars map[string]string) (*config.Config, *testutil.TestLogger) {
	t.Helper()

	env := map[string]string{"MINIOPROV_RETRY_ATTEMPTS": "1"}
	for k, v := range vars {
		env[k] = v
	}
	s, err := config.LoadSettings(config.MapLookup(env))
	require.NoError(t, err)

	logger := testutil.NewTestLogger(t)
	return &config.Config{Logger: logger.Logger, Settings: s, NonInteractive: true}, logger
}

// executeCommand runs cmd with args and returns what it printed
func executeCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// closedEndpoint returns a host and port nothing is listening on
func closedEndpoint(t *testing.T) (string, string) {
	t.Helper()

	srv := httptest.NewServer(nil)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()
	return u.Hostname(), u.Port()
}
