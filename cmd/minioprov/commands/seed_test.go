package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/minioprov/internal/config"
	"github.com/systmms/minioprov/internal/seed"
)

func TestSeedCommand_FlagDefinitions(t *testing.T) {
	cmd := NewSeedCommand(&config.Config{})

	assert.NotNil(t, cmd.Flags().Lookup("user"))
	assert.NotNil(t, cmd.Flags().Lookup("generate"))

	length := cmd.Flags().Lookup("length")
	require.NotNil(t, length)
	assert.Equal(t, "32", length.DefValue)

	path := cmd.Flags().Lookup("path")
	require.NotNil(t, path)
	assert.Equal(t, config.DefaultUsersVaultPath, path.DefValue)
}

func TestSeedCommand_Preconditions(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantContains string
	}{
		{
			name:         "prompt in non-interactive mode",
			args:         []string{"--user", "svc-a"},
			wantContains: "non-interactive",
		},
		{
			name:         "generated password too short",
			args:         []string{"--generate", "--length", "8"},
			wantContains: "at least 12 characters",
		},
		{
			name:         "vault credentials missing",
			args:         []string{"--generate"},
			wantContains: "VAULT_SECRET_ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := newTestConfig(t, map[string]string{})
			_, err := executeCommand(t, NewSeedCommand(cfg), tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantContains)
		})
	}
}

func TestSeedCommand_DefaultLengthIsValid(t *testing.T) {
	assert.GreaterOrEqual(t, seed.DefaultLength, seed.MinLength)
}
