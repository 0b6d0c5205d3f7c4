package seed

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/minioprov/tests/fakes"
	"github.com/systmms/minioprov/tests/testutil"
)

const usersPath = "secret/data/minio/users"

// staticSource hands out fixed passwords
type staticSource map[string]string

func (s staticSource) Password(username string) (string, error) {
	return s[username], nil
}

// tamperingStore returns a different value than was written
type tamperingStore struct {
	*fakes.SecretStore
}

func (t tamperingStore) GetUserPassword(ctx context.Context, username, path string) (string, error) {
	return "tampered", nil
}

func TestSeeder_Run(t *testing.T) {
	t.Parallel()

	store := fakes.NewSecretStore()
	logger := testutil.NewTestLogger(t)
	s := &Seeder{
		Store:  store,
		Source: staticSource{"svc-concourse": "pw-1", "svc-jenkins": "pw-2"},
		Path:   usersPath,
		Logger: logger.Logger,
	}

	err := s.Run(context.Background(), []string{"svc-concourse", "svc-jenkins", "svc-concourse"})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"svc-concourse": "pw-1", "svc-jenkins": "pw-2"}, store.Bundle(usersPath))
	assert.Equal(t, 1, store.Revokes())
	logger.AssertContains(t, "svc-jenkins: password verified")
	logger.AssertNotContains(t, "pw-2")
}

func TestSeeder_RejectsEmptyPassword(t *testing.T) {
	t.Parallel()

	store := fakes.NewSecretStore()
	s := &Seeder{
		Store:  store,
		Source: staticSource{"a": "pw", "b": ""},
		Path:   usersPath,
		Logger: testutil.NewTestLogger(t).Logger,
	}

	err := s.Run(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Empty password provided for b")
	assert.Empty(t, store.Bundle(usersPath), "nothing is written when any password is empty")
	assert.Equal(t, 1, store.Revokes())
}

func TestSeeder_NoUsers(t *testing.T) {
	t.Parallel()

	store := fakes.NewSecretStore()
	s := &Seeder{Store: store, Source: staticSource{}, Path: usersPath}

	err := s.Run(context.Background(), []string{"", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No usernames")
	assert.Equal(t, 1, store.Revokes())
}

func TestSeeder_WriteFailure(t *testing.T) {
	t.Parallel()

	store := fakes.NewSecretStore().WithPutError(errors.New("permission denied"))
	s := &Seeder{
		Store:  store,
		Source: staticSource{"a": "pw"},
		Path:   usersPath,
		Logger: testutil.NewTestLogger(t).Logger,
	}

	err := s.Run(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store secrets")
	assert.Equal(t, 1, store.Revokes())
}

func TestSeeder_VerificationMismatch(t *testing.T) {
	t.Parallel()

	store := tamperingStore{fakes.NewSecretStore()}
	s := &Seeder{
		Store:  store,
		Source: staticSource{"a": "pw"},
		Path:   usersPath,
		Logger: testutil.NewTestLogger(t).Logger,
	}

	err := s.Run(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Password verification failed for a")
}

func TestPromptSource(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	src := &PromptSource{In: strings.NewReader("  first  \nsecond"), Out: &out}

	pw, err := src.Password("alice")
	require.NoError(t, err)
	assert.Equal(t, "first", pw)

	pw, err = src.Password("bob")
	require.NoError(t, err)
	assert.Equal(t, "second", pw, "last line without newline is accepted")

	_, err = src.Password("carol")
	assert.Error(t, err)

	assert.Equal(t, "Enter password for alice: Enter password for bob: Enter password for carol: ", out.String())
}

func TestGeneratedSource(t *testing.T) {
	t.Parallel()

	pw, err := GeneratedSource{}.Password("x")
	require.NoError(t, err)
	assert.Len(t, pw, DefaultLength)
	for _, c := range pw {
		assert.Contains(t, charset, string(c))
	}

	other, err := GeneratedSource{Length: 40}.Password("x")
	require.NoError(t, err)
	assert.Len(t, other, 40)
	assert.NotEqual(t, pw, other)

	_, err = GeneratedSource{Length: 4}.Password("x")
	assert.Error(t, err)
}

func TestGeneratedSource_RejectsBiasedBytes(t *testing.T) {
	t.Parallel()

	// 0xff is above the rejection limit; 0x00 and 0x01 map to 'a' and 'b'.
	random := bytes.NewReader(append(bytes.Repeat([]byte{0xff, 0x00, 0x01}, 8), make([]byte, 64)...))
	pw, err := GeneratedSource{Length: 12, Random: random}.Password("x")
	require.NoError(t, err)
	assert.Equal(t, "abababababab", pw)
}
