// Package seed stores service-user passwords in Vault so provisioning has
// something to read.
package seed

import (
	"context"
	"fmt"
	"time"

	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/logging"
	"github.com/systmms/minioprov/internal/secure"
)

const DefaultRevokeTimeout = 10 * time.Second

// Store is the part of the Vault client seeding needs
type Store interface {
	PutSecret(ctx context.Context, path string, data map[string]interface{}) error
	GetUserPassword(ctx context.Context, username, path string) (string, error)
	RevokeToken(ctx context.Context)
}

// Seeder writes one password bundle and reads it back
type Seeder struct {
	Store  Store
	Source PasswordSource
	Path   string
	Logger *logging.Logger
}

// Run collects a password for every username, writes them as a single
// bundle at Path and verifies each one. The Vault token is revoked before
// Run returns.
func (s *Seeder) Run(ctx context.Context, usernames []string) error {
	defer func() {
		revokeCtx, cancel := context.WithTimeout(context.Background(), DefaultRevokeTimeout)
		defer cancel()
		s.Store.RevokeToken(revokeCtx)
	}()

	users := unique(usernames)
	if len(users) == 0 {
		return dserrors.UserError{
			Message:    "No usernames to seed",
			Suggestion: "Pass --user or set MINIO_USER_* variables",
		}
	}

	passwords := make(map[string]*secure.Password, len(users))
	defer func() {
		for _, p := range passwords {
			p.Destroy()
		}
	}()

	for _, u := range users {
		pw, err := s.Source.Password(u)
		if err != nil {
			return err
		}
		if pw == "" {
			return dserrors.UserError{
				Message:    fmt.Sprintf("Empty password provided for %s", u),
				Suggestion: "Enter a non-empty password or use --generate",
			}
		}
		passwords[u] = secure.NewPassword(pw)
	}

	bundle := make(map[string]interface{}, len(users))
	for _, u := range users {
		if err := passwords[u].Use(func(plain string) error {
			bundle[u] = plain
			return nil
		}); err != nil {
			return err
		}
	}

	s.logger().Info("Storing %d passwords at %s", len(users), s.Path)
	if err := s.Store.PutSecret(ctx, s.Path, bundle); err != nil {
		return dserrors.ProviderError("vault", "store secrets", err)
	}

	for _, u := range users {
		got, err := s.Store.GetUserPassword(ctx, u, s.Path)
		if err != nil {
			return dserrors.ProviderError("vault", "verify secrets", err)
		}
		if !passwords[u].Equal(got) {
			return dserrors.UserError{
				Message:    fmt.Sprintf("Password verification failed for %s", u),
				Suggestion: "Another writer may have changed the secret; run seed again",
			}
		}
		s.logger().Info("%s: password verified", u)
	}
	return nil
}

func (s *Seeder) logger() *logging.Logger {
	if s.Logger == nil {
		s.Logger = logging.New(false, true)
	}
	return s.Logger
}

func unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
