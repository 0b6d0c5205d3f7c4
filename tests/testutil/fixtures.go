package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SamplePolicy is a minimal valid policy body
const SamplePolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {"Effect": "Allow", "Action": ["s3:GetObject", "s3:PutObject"], "Resource": ["arn:aws:s3:::logs-bucket/*"]}
  ]
}`

// Workspace is a temp directory laid out like a provisioning checkout:
// config files at the root and policy files under policies/.
//
// Example usage:
//
//	ws := NewWorkspace(t)
//	ws.WritePolicy("ci-policy.json", SamplePolicy)
//	path := ws.WriteDocument("server.json", map[string]interface{}{"buckets": []string{"logs"}})
type Workspace struct {
	Root        string
	PoliciesDir string
	t           *testing.T
}

// NewWorkspace creates an empty workspace under t.TempDir()
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()

	root := t.TempDir()
	policies := filepath.Join(root, "policies")
	require.NoError(t, os.MkdirAll(policies, 0o755))

	return &Workspace{Root: root, PoliciesDir: policies, t: t}
}

// WriteFile writes raw content relative to the root and returns its path
func (w *Workspace) WriteFile(name, content string) string {
	w.t.Helper()

	path := filepath.Join(w.Root, name)
	require.NoError(w.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(w.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// WriteDocument marshals doc as JSON and returns its path
func (w *Workspace) WriteDocument(name string, doc interface{}) string {
	w.t.Helper()

	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(w.t, err)
	return w.WriteFile(name, string(data))
}

// WritePolicy writes a policy file into PoliciesDir
func (w *Workspace) WritePolicy(name, body string) string {
	w.t.Helper()
	return w.WriteFile(filepath.Join("policies", name), body)
}
