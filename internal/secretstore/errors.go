package secretstore

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/vault/api"
)

// Secret retrieval error kinds. Callers discriminate with errors.Is.
var (
	ErrNotAuthenticated = errors.New("vault client not authenticated")
	ErrNotFound         = errors.New("secret not found")
	ErrForbidden        = errors.New("access to secret denied")
	ErrKeyNotFound      = errors.New("key not found in secret")
	ErrEmptyPassword    = errors.New("password is empty")
)

// AuthError is returned when no session can be established. It is the only
// error class from this package that should abort a run.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vault authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("vault authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an *AuthError
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// SecretError wraps a secret operation failure with its location. Kind is
// one of the sentinel errors above, or nil for unclassified failures.
type SecretError struct {
	Op   string // "read", "write", "password"
	Path string
	Key  string
	Kind error
	Err  error
}

func (e *SecretError) Error() string {
	loc := e.Path
	if e.Key != "" {
		loc = fmt.Sprintf("%s (key %q)", e.Path, e.Key)
	}
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("vault %s %s: %v: %v", e.Op, loc, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("vault %s %s: %v", e.Op, loc, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("vault %s %s: %v", e.Op, loc, e.Err)
	}
	return fmt.Sprintf("vault %s %s failed", e.Op, loc)
}

// Unwrap exposes both the kind sentinel and the underlying cause
func (e *SecretError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, api.ErrSecretNotFound) {
		return true
	}
	var apiErr *api.ResponseError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return strings.Contains(err.Error(), "no secret found")
}

func isPermissionDenied(err error) bool {
	var apiErr *api.ResponseError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// classify maps an SDK error onto one of the sentinel kinds
func classify(err error) error {
	switch {
	case isNotFound(err):
		return ErrNotFound
	case isPermissionDenied(err):
		return ErrForbidden
	}
	return nil
}
