package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/minioprov/internal/errors"
)

// Document is the declarative provisioning input
type Document struct {
	Buckets []string   `json:"buckets,omitempty" yaml:"buckets,omitempty"`
	Users   []UserSpec `json:"users,omitempty" yaml:"users,omitempty"`
}

// UserSpec describes one service user. Username and Policy are both needed
// for the record to be actionable.
type UserSpec struct {
	Username  string `json:"username,omitempty" yaml:"username,omitempty"`
	Policy    string `json:"policy,omitempty" yaml:"policy,omitempty"`
	VaultPath string `json:"vault_path,omitempty" yaml:"vault_path,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"` // legacy literal
}

// Complete reports whether the record has both a username and a policy file
func (u UserSpec) Complete() bool {
	return u.Username != "" && u.Policy != ""
}

// SecretsPath returns the Vault path holding this user's password
func (u UserSpec) SecretsPath() string {
	if u.VaultPath == "" {
		return DefaultUsersVaultPath
	}
	return u.VaultPath
}

// PolicyName derives the policy name from the policy file name
func (u UserSpec) PolicyName() string {
	return PolicyNameFromFile(u.Policy)
}

// PolicyNameFromFile strips directories and the extension: ci-policy.json -> ci-policy
func PolicyNameFromFile(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadDocument reads, validates and decodes a provisioning document. Files
// ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Pass --config with the path to your provisioning document",
				Err:        err,
			}
		}
		return nil, dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	return ParseDocument(data, isYAML(path))
}

// ParseDocument decodes a document from memory
func ParseDocument(data []byte, asYAML bool) (*Document, error) {
	format := "JSON"
	unmarshal := json.Unmarshal
	if asYAML {
		format = "YAML"
		unmarshal = yaml.Unmarshal
	}

	var raw interface{}
	if err := unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    fmt.Sprintf("invalid %s in configuration file: %v", format, err),
			Suggestion: "Check for trailing commas, missing quotes or bad indentation",
			Err:        err,
		}
	}

	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := unmarshal(data, &doc); err != nil {
		return nil, dserrors.ConfigError{
			Message: fmt.Sprintf("invalid %s in configuration file: %v", format, err),
			Err:     err,
		}
	}
	if doc.Buckets == nil {
		doc.Buckets = []string{}
	}
	if doc.Users == nil {
		doc.Users = []UserSpec{}
	}
	return &doc, nil
}

// DedupeBuckets drops repeated bucket names, keeping the first occurrence,
// and returns the names that were dropped.
func (d *Document) DedupeBuckets() []string {
	seen := make(map[string]struct{}, len(d.Buckets))
	kept := make([]string, 0, len(d.Buckets))
	var dropped []string
	for _, b := range d.Buckets {
		if _, ok := seen[b]; ok {
			dropped = append(dropped, b)
			continue
		}
		seen[b] = struct{}{}
		kept = append(kept, b)
	}
	d.Buckets = kept
	return dropped
}

// WithUsernames returns a copy of d with placeholder usernames substituted.
// d itself is never modified.
func (d *Document) WithUsernames(placeholders []Placeholder) *Document {
	out := &Document{
		Buckets: append([]string(nil), d.Buckets...),
		Users:   make([]UserSpec, len(d.Users)),
	}
	copy(out.Users, d.Users)
	for i := range out.Users {
		out.Users[i].Username, _ = ResolveUsername(out.Users[i].Username, placeholders)
	}
	if d.Buckets != nil && out.Buckets == nil {
		out.Buckets = []string{}
	}
	return out
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
