package config

import (
	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/logging"
)

// Config holds the runtime configuration shared by every command
type Config struct {
	Path           string
	PoliciesDir    string
	Logger         *logging.Logger
	NonInteractive bool
	Settings       *Settings
	Document       *Document // substituted copy, ready for reconciliation
}

// LoadSettings reads Settings from the environment unless already set
func (c *Config) LoadSettings(lookup LookupFunc) error {
	if c.Settings != nil {
		return nil
	}
	s, err := LoadSettings(lookup)
	if err != nil {
		return err
	}
	c.Settings = s
	return nil
}

// Load reads the provisioning document at c.Path, removes duplicate buckets
// and substitutes placeholder usernames.
func (c *Config) Load() error {
	if c.Settings == nil {
		if err := c.LoadSettings(EnvLookup()); err != nil {
			return err
		}
	}
	if c.Path == "" {
		return dserrors.ConfigError{
			Field:      "config",
			Message:    "no configuration file given",
			Suggestion: "Pass --config with the path to your provisioning document",
		}
	}

	doc, err := LoadDocument(c.Path)
	if err != nil {
		return err
	}

	for _, dup := range doc.DedupeBuckets() {
		c.logger().Warn("Bucket '%s' is listed more than once; ignoring the duplicate", dup)
	}

	c.Document = doc.WithUsernames(c.Settings.Placeholders)
	for i, u := range doc.Users {
		if resolved := c.Document.Users[i].Username; resolved != u.Username {
			c.logger().Debug("Substituted username %s -> %s", u.Username, resolved)
		}
	}
	return nil
}

func (c *Config) logger() *logging.Logger {
	if c.Logger == nil {
		c.Logger = logging.New(false, true)
	}
	return c.Logger
}
