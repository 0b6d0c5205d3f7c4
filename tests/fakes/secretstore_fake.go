package fakes

import (
	"context"
	"sync"

	"github.com/systmms/minioprov/internal/secretstore"
)

// SecretStore is an in-memory Vault session. Passwords live in bundles keyed
// by path, like the KV v2 layout.
type SecretStore struct {
	mu sync.Mutex

	bundles map[string]map[string]interface{}
	errs    map[string]error // username -> error from GetUserPassword
	putErr  error

	lookups []string
	revokes int
}

// DefaultPath is where WithPassword stores passwords
const DefaultPath = "secret/data/minio/users"

// NewSecretStore returns an authenticated fake with no secrets
func NewSecretStore() *SecretStore {
	return &SecretStore{
		bundles: map[string]map[string]interface{}{},
		errs:    map[string]error{},
	}
}

// WithPassword stores a password at DefaultPath
func (f *SecretStore) WithPassword(username, password string) *SecretStore {
	return f.WithPasswordAt(DefaultPath, username, password)
}

// WithPasswordAt stores a password in the bundle at path
func (f *SecretStore) WithPasswordAt(path, username, password string) *SecretStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bundles[path] == nil {
		f.bundles[path] = map[string]interface{}{}
	}
	f.bundles[path][username] = password
	return f
}

// WithError makes lookups for username fail
func (f *SecretStore) WithError(username string, err error) *SecretStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[username] = err
	return f
}

// WithPutError makes every write fail
func (f *SecretStore) WithPutError(err error) *SecretStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putErr = err
	return f
}

// GetUserPassword mirrors secretstore.Client error kinds
func (f *SecretStore) GetUserPassword(ctx context.Context, username, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, username)

	if err := f.errs[username]; err != nil {
		return "", err
	}
	bundle, ok := f.bundles[path]
	if !ok {
		return "", &secretstore.SecretError{Op: "read", Path: path, Key: username, Kind: secretstore.ErrNotFound}
	}
	value, ok := bundle[username]
	if !ok {
		return "", &secretstore.SecretError{Op: "read", Path: path, Key: username, Kind: secretstore.ErrKeyNotFound}
	}
	pw, ok := value.(string)
	if !ok || pw == "" {
		return "", &secretstore.SecretError{Op: "password", Path: path, Key: username, Kind: secretstore.ErrEmptyPassword}
	}
	return pw, nil
}

// PutSecret replaces the bundle at path
func (f *SecretStore) PutSecret(ctx context.Context, path string, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	bundle := make(map[string]interface{}, len(data))
	for k, v := range data {
		bundle[k] = v
	}
	f.bundles[path] = bundle
	return nil
}

// RevokeToken counts revocations
func (f *SecretStore) RevokeToken(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokes++
}

// Revokes returns how often RevokeToken was called
func (f *SecretStore) Revokes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revokes
}

// Lookups returns the usernames passed to GetUserPassword, in order
func (f *SecretStore) Lookups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lookups...)
}

// Bundle returns a copy of the bundle stored at path
func (f *SecretStore) Bundle(path string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]interface{}{}
	for k, v := range f.bundles[path] {
		out[k] = v
	}
	return out
}
