package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/minioprov/internal/config"
	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/seed"
)

func NewSeedCommand(cfg *config.Config) *cobra.Command {
	var (
		users    []string
		generate bool
		length   int
		path     string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store service-user passwords in Vault",
		Long: `Write the passwords that 'provision' reads into Vault's KV v2 store.

By default one password is requested for each configured service user
(MINIO_USER_CONCOURSE, MINIO_USER_JENKINS, MINIO_USER_K8S and any
MINIO_USER_PLACEHOLDERS entries). Use --user to name users explicitly and
--generate to create random passwords instead of typing them.

All passwords are written as one secret at --path, replacing what was there,
and then read back to verify.`,
		Example: `  minioprov seed
  minioprov seed --user svc-backup --generate --length 40
  minioprov seed --path kv/data/team/minio`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cfg)
			s, err := settings(cfg)
			if err != nil {
				return err
			}

			if len(users) == 0 {
				users = config.Usernames(s.Placeholders)
			}

			var source seed.PasswordSource
			switch {
			case generate:
				if length < seed.MinLength {
					return dserrors.ConfigError{
						Field:      "length",
						Value:      length,
						Message:    fmt.Sprintf("generated passwords must be at least %d characters", seed.MinLength),
						Suggestion: fmt.Sprintf("Use --length %d or more", seed.DefaultLength),
					}
				}
				source = seed.GeneratedSource{Length: length}
			case cfg.NonInteractive:
				return dserrors.UserError{
					Message:    "Cannot prompt for passwords in non-interactive mode",
					Suggestion: "Use --generate to create random passwords",
				}
			default:
				source = &seed.PromptSource{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
			}

			vault, err := openVaultSession(cmd.Context(), s, log)
			if err != nil {
				return err
			}
			log.Info("Authenticated to Vault at %s", vault.Address())

			seeder := &seed.Seeder{
				Store:  vault,
				Source: source,
				Path:   path,
				Logger: log,
			}
			if err := seeder.Run(cmd.Context(), users); err != nil {
				return err
			}
			log.Info("Vault secrets are ready at %s", path)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&users, "user", nil, "Username to seed (repeatable; defaults to the configured service users)")
	cmd.Flags().BoolVar(&generate, "generate", false, "Generate random passwords instead of prompting")
	cmd.Flags().IntVar(&length, "length", seed.DefaultLength, "Length of generated passwords")
	cmd.Flags().StringVar(&path, "path", config.DefaultUsersVaultPath, "Vault KV v2 path for the password bundle")

	return cmd
}
