package objectstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/systmms/minioprov/internal/logging"
	"github.com/systmms/minioprov/internal/retry"
)

const DefaultTimeout = 30 * time.Second

func init() {
	// internal/retry owns the attempt count for bucket calls
	minio.MaxRetry = 1
}

// Config holds connection settings for both MinIO identities. Either pair of
// keys may be empty; operations needing a missing identity fail with
// ErrNoBucketCredentials or ErrNoAdminCredentials.
type Config struct {
	Endpoint     string
	Secure       bool
	Region       string
	BucketAccess string
	BucketSecret string
	AdminAccess  string
	AdminSecret  string
	Timeout      time.Duration
	Retry        retry.Policy
	Transport    http.RoundTripper
}

// MinIO implements Client against a live server
type MinIO struct {
	config Config
	s3     *minio.Client
	admin  *madmin.AdminClient
	logger *logging.Logger
}

var _ Client = (*MinIO)(nil)

// New builds the bucket and admin clients. No request is sent.
func New(cfg Config, logger *logging.Logger) (*MinIO, error) {
	if logger == nil {
		logger = logging.New(false, true)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.Logger == nil {
		cfg.Retry.Logger = logger
	}

	m := &MinIO{config: cfg, logger: logger}

	if cfg.BucketAccess != "" && cfg.BucketSecret != "" {
		s3, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:     credentials.NewStaticV4(cfg.BucketAccess, cfg.BucketSecret, ""),
			Secure:    cfg.Secure,
			Region:    cfg.Region,
			Transport: cfg.Transport,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO bucket client: %w", err)
		}
		m.s3 = s3
	}

	if cfg.AdminAccess != "" && cfg.AdminSecret != "" {
		admin, err := madmin.New(cfg.Endpoint, cfg.AdminAccess, cfg.AdminSecret, cfg.Secure)
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO admin client: %w", err)
		}
		if cfg.Transport != nil {
			admin.SetCustomTransport(cfg.Transport)
		}
		m.admin = admin
	}

	logger.Debug("MinIO client configured for %s (secure=%t)", cfg.Endpoint, cfg.Secure)
	return m, nil
}

// Endpoint returns host:port of the server
func (m *MinIO) Endpoint() string {
	return m.config.Endpoint
}

// BucketExists reports whether name exists and is visible to the bucket creator
func (m *MinIO) BucketExists(ctx context.Context, name string) (bool, error) {
	if m.s3 == nil {
		return false, ErrNoBucketCredentials
	}

	var exists bool
	err := m.call(ctx, "bucket exists "+name, func(ctx context.Context) error {
		var err error
		exists, err = m.s3.BucketExists(ctx, name)
		return err
	})
	return exists, err
}

// MakeBucket creates name in the configured region. A bucket we already own
// counts as success.
func (m *MinIO) MakeBucket(ctx context.Context, name string) error {
	if m.s3 == nil {
		return ErrNoBucketCredentials
	}

	return m.call(ctx, "make bucket "+name, func(ctx context.Context) error {
		err := m.s3.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: m.config.Region})
		switch {
		case IsBucketAlreadyOwned(err):
			m.logger.Debug("Bucket %s already owned by us", name)
			return nil
		case S3Code(err) == CodeBucketAlreadyExists:
			return fmt.Errorf("bucket name %s is taken by another account: %w", name, err)
		}
		return err
	})
}

// UploadPolicy creates or replaces the canned policy name
func (m *MinIO) UploadPolicy(ctx context.Context, name string, body []byte) error {
	if m.admin == nil {
		return ErrNoAdminCredentials
	}

	return m.call(ctx, "upload policy "+name, func(ctx context.Context) error {
		err := m.admin.AddCannedPolicy(ctx, name, body)
		if AdminCode(err) == CodeMalformedPolicy {
			return fmt.Errorf("server rejected policy %s as malformed: %w", name, err)
		}
		return err
	})
}

// CreateUser adds username unless it already exists. An existing user keeps
// its current secret.
func (m *MinIO) CreateUser(ctx context.Context, username, password string) (CreateOutcome, error) {
	if m.admin == nil {
		return 0, ErrNoAdminCredentials
	}

	var outcome CreateOutcome
	err := m.call(ctx, "create user "+username, func(ctx context.Context) error {
		_, err := m.admin.GetUserInfo(ctx, username)
		switch {
		case err == nil:
			outcome = AlreadyExists
			return nil
		case !IsNoSuchUser(err):
			return err
		}

		if err := m.admin.AddUser(ctx, username, password); err != nil {
			return err
		}
		outcome = Created
		return nil
	})
	if err != nil {
		return 0, err
	}
	return outcome, nil
}

// AttachPolicy attaches policy to username. Attaching a policy the user
// already has is not an error.
func (m *MinIO) AttachPolicy(ctx context.Context, username, policy string) error {
	if m.admin == nil {
		return ErrNoAdminCredentials
	}

	return m.call(ctx, "attach policy "+policy, func(ctx context.Context) error {
		_, err := m.admin.AttachPolicy(ctx, madmin.PolicyAssociationReq{
			Policies: []string{policy},
			User:     username,
		})
		if IsPolicyAlreadyApplied(err) {
			m.logger.Debug("Policy %s already attached to %s", policy, username)
			return nil
		}
		return err
	})
}

// Ping lists buckets with the bucket creator identity
func (m *MinIO) Ping(ctx context.Context) error {
	if m.s3 == nil {
		return ErrNoBucketCredentials
	}
	return m.call(ctx, "list buckets", func(ctx context.Context) error {
		_, err := m.s3.ListBuckets(ctx)
		return err
	})
}

// PingAdmin asks the admin API for server info
func (m *MinIO) PingAdmin(ctx context.Context) error {
	if m.admin == nil {
		return ErrNoAdminCredentials
	}
	return m.call(ctx, "server info", func(ctx context.Context) error {
		_, err := m.admin.ServerInfo(ctx)
		return err
	})
}

// call runs fn with a per-request timeout, retrying transient failures
func (m *MinIO) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, m.config.Retry, op, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
		return fn(reqCtx)
	})
}
