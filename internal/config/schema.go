package config

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	dserrors "github.com/systmms/minioprov/internal/errors"
)

//go:embed schema/document.schema.json
var documentSchema string

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return compiledSchema, schemaErr
}

// validateDocument checks the decoded document shape. The schema is
// permissive: unknown keys are allowed and incomplete user records are
// accepted, since those are skipped at run time rather than rejected.
func validateDocument(raw interface{}) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to compile document schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return dserrors.ConfigError{
			Message: fmt.Sprintf("schema validation error: %v", err),
			Err:     err,
		}
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return dserrors.ConfigError{
			Message:    fmt.Sprintf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - ")),
			Suggestion: `Expected {"buckets": [string], "users": [{"username", "policy", "vault_path", "password"}]}`,
		}
	}

	return nil
}
