package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/systmms/minioprov/internal/config"
	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/logging"
	"github.com/systmms/minioprov/internal/objectstore"
	"github.com/systmms/minioprov/internal/reconcile"
	"github.com/systmms/minioprov/internal/retry"
	"github.com/systmms/minioprov/internal/secretstore"
)

// settings returns cfg.Settings, reading the environment if no command has yet
func settings(cfg *config.Config) (*config.Settings, error) {
	if err := cfg.LoadSettings(config.EnvLookup()); err != nil {
		return nil, err
	}
	return cfg.Settings, nil
}

func logger(cfg *config.Config) *logging.Logger {
	if cfg.Logger == nil {
		cfg.Logger = logging.New(false, true)
	}
	return cfg.Logger
}

func retryPolicy(s *config.Settings, log *logging.Logger) retry.Policy {
	p := retry.DefaultPolicy()
	p.Attempts = s.Retry.Attempts
	p.Delay = s.Retry.Delay
	p.Logger = log
	return p
}

// newVaultClient validates the AppRole settings and builds an
// unauthenticated client
func newVaultClient(s *config.Settings, log *logging.Logger) (*secretstore.Client, error) {
	if err := s.Vault.Validate(); err != nil {
		return nil, err
	}
	maxRetries := s.Retry.Attempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}
	return secretstore.New(secretstore.Config{
		Address:       s.Vault.Address,
		RoleID:        s.Vault.RoleID,
		SecretID:      s.Vault.SecretID,
		Namespace:     s.Vault.Namespace,
		TLSSkipVerify: s.Vault.TLSSkipVerify,
		Timeout:       s.Timeout,
		MaxRetries:    maxRetries,
	}, log)
}

// openVaultSession builds a client and logs in. The caller owns the session
// and must revoke it.
func openVaultSession(ctx context.Context, s *config.Settings, log *logging.Logger) (*secretstore.Client, error) {
	client, err := newVaultClient(s, log)
	if err != nil {
		return nil, err
	}
	if err := client.Authenticate(ctx); err != nil {
		if secretstore.IsAuthError(err) {
			return nil, dserrors.ProviderError("vault", "authentication", err)
		}
		return nil, err
	}
	return client, nil
}

func newObjectStore(s *config.Settings, log *logging.Logger) (*objectstore.MinIO, error) {
	o := s.ObjectStore
	return objectstore.New(objectstore.Config{
		Endpoint:     o.Endpoint(),
		Secure:       o.Secure,
		Region:       o.Region,
		BucketAccess: o.BucketAccessKey,
		BucketSecret: o.BucketSecretKey,
		AdminAccess:  o.AdminAccessKey,
		AdminSecret:  o.AdminSecretKey,
		Timeout:      s.Timeout,
		Retry:        retryPolicy(s, log),
	}, log)
}

// printReport writes the run summary and one line per failed item to w. The
// reconciler has already logged each failure as it happened.
func printReport(w io.Writer, report *reconcile.Report) {
	_, _ = fmt.Fprintf(w, "\nSummary: %s (%s)\n", report.Summary(), report.Duration().Round(time.Millisecond))
	if len(report.PoliciesApplied) > 0 {
		_, _ = fmt.Fprintf(w, "Policies applied: %s\n", strings.Join(report.PoliciesApplied, ", "))
	}
	for _, item := range report.Failed() {
		_, _ = fmt.Fprintf(w, "  ✗ %s '%s': %s\n", item.Kind, item.Name, item.Detail)
		var ue dserrors.UserError
		if errors.As(item.Err, &ue) && ue.Suggestion != "" {
			_, _ = fmt.Fprintf(w, "    💡 Try: %s\n", ue.Suggestion)
		}
	}
}

// writeMetrics writes the run metrics when a textfile path was given
func writeMetrics(metrics *reconcile.Metrics, path string, log *logging.Logger) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		log.Warn("%v", err)
		return
	}
	log.Debug("Wrote metrics to %s", path)
}
