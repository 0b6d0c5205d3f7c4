package config

import (
	"strings"

	dserrors "github.com/systmms/minioprov/internal/errors"
)

// PlaceholdersEnv extends the username allow-list: "NAME=default,NAME2=default2"
const PlaceholdersEnv = "MINIO_USER_PLACEHOLDERS"

// Placeholder is one recognised username variable. Value is the variable's
// current value, or Default when it is unset or empty.
type Placeholder struct {
	Name    string
	Default string
	Value   string
}

// DefaultPlaceholders is the built-in allow-list. The defaults keep the tool
// runnable with no environment configured.
var DefaultPlaceholders = []Placeholder{
	{Name: "MINIO_USER_CONCOURSE", Default: "user1"},
	{Name: "MINIO_USER_JENKINS", Default: "user2"},
	{Name: "MINIO_USER_K8S", Default: "user3"},
}

// LoadPlaceholders resolves the allow-list against lookup
func LoadPlaceholders(lookup LookupFunc) ([]Placeholder, error) {
	list := make([]Placeholder, 0, len(DefaultPlaceholders))
	list = append(list, DefaultPlaceholders...)

	if raw, ok := lookup(PlaceholdersEnv); ok && strings.TrimSpace(raw) != "" {
		for _, entry := range strings.Split(raw, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			name, def, found := strings.Cut(entry, "=")
			name = strings.TrimSpace(name)
			def = strings.TrimSpace(def)
			if !found || name == "" || def == "" {
				return nil, dserrors.ConfigError{
					Field:      PlaceholdersEnv,
					Value:      entry,
					Message:    "entries must have the form NAME=default",
					Suggestion: "Example: MINIO_USER_PLACEHOLDERS=MINIO_USER_GITLAB=user4",
				}
			}
			list = upsertPlaceholder(list, Placeholder{Name: name, Default: def})
		}
	}

	for i := range list {
		list[i].Value = list[i].Default
		if v, ok := lookup(list[i].Name); ok && strings.TrimSpace(v) != "" {
			list[i].Value = strings.TrimSpace(v)
		}
	}
	return list, nil
}

func upsertPlaceholder(list []Placeholder, p Placeholder) []Placeholder {
	for i := range list {
		if list[i].Name == p.Name {
			list[i].Default = p.Default
			return list
		}
	}
	return append(list, p)
}

// ResolveUsername maps a placeholder username (${NAME} or bare NAME) to its
// value. Usernames that are not recognised placeholders are returned as is.
func ResolveUsername(username string, placeholders []Placeholder) (string, bool) {
	for _, p := range placeholders {
		if username == "${"+p.Name+"}" || username == p.Name {
			return p.Value, true
		}
	}
	return username, false
}

// Usernames returns the resolved value of every placeholder, in order
func Usernames(placeholders []Placeholder) []string {
	out := make([]string, 0, len(placeholders))
	for _, p := range placeholders {
		out = append(out, p.Value)
	}
	return out
}
