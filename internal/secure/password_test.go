package secure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_Use(t *testing.T) {
	t.Parallel()

	pw := NewPassword("s3cr3t")
	defer pw.Destroy()

	var seen string
	err := pw.Use(func(plain string) error {
		seen = plain
		return nil
	})

	require.NoError(t, err)
	assert.False(t, pw.Empty())

	// the callback got a heap copy, so it outlives the wiped buffer
	pw.Destroy()
	assert.Equal(t, "s3cr3t", seen)
}

func TestPassword_UsePropagatesCallbackError(t *testing.T) {
	t.Parallel()

	pw := NewPassword("value")
	defer pw.Destroy()

	boom := errors.New("create user failed")
	err := pw.Use(func(string) error { return boom })

	assert.Equal(t, boom, err)
}

func TestPassword_Empty(t *testing.T) {
	t.Parallel()

	pw := NewPassword("")

	assert.True(t, pw.Empty())
	assert.True(t, pw.Equal(""))
}

func TestPassword_Equal(t *testing.T) {
	t.Parallel()

	pw := NewPassword("vault_password_1")
	defer pw.Destroy()

	assert.True(t, pw.Equal("vault_password_1"))
	assert.False(t, pw.Equal("vault_password_2"))
}

func TestPassword_DestroyIsIdempotent(t *testing.T) {
	t.Parallel()

	pw := NewPassword("value")
	pw.Destroy()
	pw.Destroy()

	err := pw.Use(func(string) error {
		t.Fatal("callback must not run after Destroy")
		return nil
	})
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.False(t, pw.Equal("value"))
}
