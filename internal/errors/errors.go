package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
)

// UserError represents an error that should be shown to the operator with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
	Err        error
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err carries a ConfigError anywhere in its chain
func IsConfigError(err error) bool {
	var ce ConfigError
	return errors.As(err, &ce)
}

// ProviderError enhances backend errors (vault, minio) with operation context
func ProviderError(provider string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s error during %s", provider, operation),
		Details:    err.Error(),
		Suggestion: getProviderSuggestion(provider, err),
		Err:        err,
	}
}

// getProviderSuggestion returns helpful suggestions based on backend and error
func getProviderSuggestion(provider string, err error) string {
	errStr := strings.ToLower(err.Error())

	switch provider {
	case "vault":
		switch {
		case strings.Contains(errStr, "sealed"):
			return "Unseal Vault with 'vault operator unseal' before running again"
		case strings.Contains(errStr, "not initialized"):
			return "Initialize Vault with 'vault operator init'"
		case strings.Contains(errStr, "invalid role id"), strings.Contains(errStr, "invalid secret id"):
			return "Check VAULT_ROLE_ID and VAULT_SECRET_ID; secret IDs may expire or be single-use"
		case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "forbidden"):
			return "Check that the AppRole policy grants read on the users secret path"
		case strings.Contains(errStr, "no secret found"), strings.Contains(errStr, "not found"):
			return "Store the user passwords first with 'minioprov seed'"
		}

	case "minio":
		switch {
		case strings.Contains(errStr, "access denied"), strings.Contains(errStr, "accessdenied"):
			return "Check MINIO_ADMIN_ACCESS_KEY / BUCKET_CREATOR_ACCESS_KEY and their policies"
		case strings.Contains(errStr, "signature"):
			return "The secret key does not match the access key; check the *_SECRET_KEY variables"
		case strings.Contains(errStr, "malformedpolicy"), strings.Contains(errStr, "policy"):
			return "Validate the policy document; MinIO accepts AWS IAM policy JSON"
		case strings.Contains(errStr, "https"), strings.Contains(errStr, "tls"):
			return "Check MINIO_SECURE matches the server's TLS configuration"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "The operation timed out. Check your network connection or raise --timeout"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check the server address and port"
	}

	return ""
}

// retryableCodes are MinIO error codes for overload or a server that is
// still starting up
var retryableCodes = map[string]bool{
	"SlowDown":                   true,
	"SlowDownRead":               true,
	"SlowDownWrite":              true,
	"RequestTimeout":             true,
	"ServiceUnavailable":         true,
	"XMinioServerNotInitialized": true,
}

// IsRetryable checks if an error is a transient failure worth another attempt
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var s3Err minio.ErrorResponse
	if errors.As(err, &s3Err) {
		switch s3Err.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		if retryableCodes[s3Err.Code] {
			return true
		}
	}
	var adminErr madmin.ErrorResponse
	if errors.As(err, &adminErr) && retryableCodes[adminErr.Code] {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"connection refused",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
		"service unavailable",
		"slow down",
		"slowdown",
		"reduce your request rate",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// SimplifyError simplifies complex error messages for operators
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var ue UserError
	if errors.As(err, &ue) {
		return err
	}
	var ce ConfigError
	if errors.As(err, &ce) {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	// File system errors first: a path such as "x.json: ..." must not be
	// mistaken for a decoder error.
	if errors.Is(err, fs.ErrNotExist) || strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	if errors.Is(err, fs.ErrPermission) {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
			Err:        err,
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || strings.HasPrefix(errStr, "json: ") || strings.Contains(errStr, "invalid character") {
		return ConfigError{
			Message:    "Invalid JSON format",
			Suggestion: "Validate your JSON, e.g. with 'jq . <file>'",
			Err:        err,
		}
	}

	return err
}
