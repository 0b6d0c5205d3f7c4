// Package secretstore fetches service-user passwords from HashiCorp Vault.
//
// A Client moves through Unauthenticated -> Authenticated -> Revoked.
// Authentication uses AppRole; secrets are read from a KV v2 engine.
package secretstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/systmms/minioprov/internal/logging"
)

const (
	DefaultMount   = "secret"
	DefaultTimeout = 30 * time.Second
)

// State is the session lifecycle of a Client
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateRevoked:
		return "revoked"
	default:
		return "unauthenticated"
	}
}

// Config holds the connection settings for one Vault server
type Config struct {
	Address       string
	RoleID        string
	SecretID      string
	Namespace     string
	TLSSkipVerify bool
	Timeout       time.Duration
	MaxRetries    int
}

// Client is a Vault session scoped to one run
type Client struct {
	config Config
	api    *api.Client
	logger *logging.Logger

	mu    sync.Mutex
	state State
}

// New creates an unauthenticated client. No network traffic happens here.
func New(cfg Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.New(false, true)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	vc := api.DefaultConfig()
	if vc.Error != nil {
		return nil, fmt.Errorf("vault config init failed: %w", vc.Error)
	}
	vc.Address = cfg.Address
	vc.Timeout = cfg.Timeout
	vc.MaxRetries = cfg.MaxRetries
	if cfg.TLSSkipVerify {
		if err := vc.ConfigureTLS(&api.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("vault TLS config failed: %w", err)
		}
	}

	client, err := api.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("vault client init failed: %w", err)
	}
	// NewClient picks up VAULT_TOKEN; this client only ever uses its own AppRole session.
	client.ClearToken()
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	logger.Debug("Initializing Vault client for %s", cfg.Address)

	return &Client{
		config: cfg,
		api:    client,
		logger: logger,
		state:  StateUnauthenticated,
	}, nil
}

// Address returns the Vault server address
func (c *Client) Address() string {
	return c.config.Address
}

// State returns the current session state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Authenticate checks that Vault is initialized and unsealed, then logs in
// with AppRole. Every failure is an *AuthError.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.RoleID == "" || c.config.SecretID == "" {
		return &AuthError{Reason: "VAULT_ROLE_ID and VAULT_SECRET_ID must be set"}
	}

	initialized, err := c.api.Sys().InitStatusWithContext(ctx)
	if err != nil {
		return &AuthError{Reason: "cannot reach Vault", Err: err}
	}
	if !initialized {
		return &AuthError{Reason: "Vault is not initialized"}
	}

	seal, err := c.api.Sys().SealStatusWithContext(ctx)
	if err != nil {
		return &AuthError{Reason: "cannot read seal status", Err: err}
	}
	if seal.Sealed {
		return &AuthError{Reason: "Vault is sealed"}
	}

	c.logger.Debug("Authenticating with Vault using AppRole")
	secret, err := c.api.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
		"role_id":   c.config.RoleID,
		"secret_id": c.config.SecretID,
	})
	if err != nil {
		return &AuthError{Reason: "AppRole login rejected", Err: err}
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return &AuthError{Reason: "no token received from Vault"}
	}

	c.api.SetToken(secret.Auth.ClientToken)
	c.state = StateAuthenticated
	c.logger.Debug("Authenticated with Vault at %s", c.config.Address)
	return nil
}

// ReadBundle returns every key stored at path
func (c *Client) ReadBundle(ctx context.Context, path string) (map[string]interface{}, error) {
	if err := c.requireSession("read", path, ""); err != nil {
		return nil, err
	}

	mount, rel := SplitKVPath(path)
	c.logger.Debug("Retrieving secret from mount %s path %s", mount, rel)

	kv, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return nil, &SecretError{Op: "read", Path: path, Kind: classify(err), Err: err}
	}
	if kv == nil || kv.Data == nil {
		return nil, &SecretError{Op: "read", Path: path, Kind: ErrNotFound}
	}
	return kv.Data, nil
}

// GetSecret returns one key from the bundle at path
func (c *Client) GetSecret(ctx context.Context, path, key string) (interface{}, error) {
	data, err := c.ReadBundle(ctx, path)
	if err != nil {
		if se, ok := err.(*SecretError); ok {
			se.Key = key
		}
		return nil, err
	}

	value, ok := data[key]
	if !ok {
		return nil, &SecretError{Op: "read", Path: path, Key: key, Kind: ErrKeyNotFound}
	}
	return value, nil
}

// GetUserPassword returns the password stored under username at path. An
// empty or non-string value is ErrEmptyPassword, distinct from ErrNotFound.
func (c *Client) GetUserPassword(ctx context.Context, username, path string) (string, error) {
	value, err := c.GetSecret(ctx, path, username)
	if err != nil {
		return "", err
	}

	password, ok := value.(string)
	if !ok || password == "" {
		return "", &SecretError{Op: "password", Path: path, Key: username, Kind: ErrEmptyPassword}
	}

	c.logger.Debug("Retrieved password for user %s: %s", username, logging.Secret(password))
	return password, nil
}

// PutSecret writes data as a new version of the bundle at path
func (c *Client) PutSecret(ctx context.Context, path string, data map[string]interface{}) error {
	if err := c.requireSession("write", path, ""); err != nil {
		return err
	}

	mount, rel := SplitKVPath(path)
	if _, err := c.api.KVv2(mount).Put(ctx, rel, data); err != nil {
		return &SecretError{Op: "write", Path: path, Kind: classify(err), Err: err}
	}
	return nil
}

// IsAuthenticated re-validates the session against Vault. It never fails;
// any error, including network errors, reads as false.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAuthenticated || c.api.Token() == "" {
		return false
	}
	if _, err := c.api.Auth().Token().LookupSelfWithContext(ctx); err != nil {
		c.logger.Debug("Vault token lookup failed: %v", err)
		return false
	}
	return true
}

// RevokeToken revokes the session token. Failures are logged, never
// returned, and the in-memory token is cleared regardless. Calling it
// without an active token does nothing.
func (c *Client) RevokeToken(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.api.Token() == "" {
		return
	}

	c.logger.Debug("Revoking Vault token")
	if err := c.api.Auth().Token().RevokeSelfWithContext(ctx, ""); err != nil {
		c.logger.Warn("Error revoking Vault token: %v", err)
	}
	c.api.ClearToken()
	c.state = StateRevoked
}

func (c *Client) requireSession(op, path, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAuthenticated || c.api.Token() == "" {
		return &SecretError{Op: op, Path: path, Key: key, Kind: ErrNotAuthenticated}
	}
	return nil
}

// SplitKVPath splits "<mount>/data/<path>" into the KV v2 mount and the path
// inside it. Paths without the versioned-data segment use DefaultMount.
func SplitKVPath(path string) (mount, rel string) {
	path = strings.Trim(path, "/")
	parts := strings.SplitN(path, "/", 3)
	if len(parts) == 3 && parts[1] == "data" && parts[0] != "" {
		return parts[0], parts[2]
	}
	return DefaultMount, path
}
