package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/systmms/minioprov/internal/config"
	dserrors "github.com/systmms/minioprov/internal/errors"
)

// PolicySource loads policy documents by file name
type PolicySource interface {
	Load(file string) (name string, body []byte, err error)
}

// DirPolicySource reads policy files from a directory
type DirPolicySource struct {
	Dir string
}

// Load reads <Dir>/<file>. The body must be valid JSON.
func (s DirPolicySource) Load(file string) (string, []byte, error) {
	name := config.PolicyNameFromFile(file)

	path := file
	if !filepath.IsAbs(file) {
		path = filepath.Join(s.Dir, file)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return name, nil, dserrors.UserError{
				Message:    fmt.Sprintf("Policy file %s not found", path),
				Suggestion: "Check the policy name in the user record and --policies-dir",
				Err:        err,
			}
		}
		return name, nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	if !json.Valid(body) {
		return name, nil, dserrors.UserError{
			Message:    fmt.Sprintf("Policy file %s is not valid JSON", path),
			Suggestion: "Validate the policy with a JSON linter before uploading",
		}
	}

	return name, body, nil
}
