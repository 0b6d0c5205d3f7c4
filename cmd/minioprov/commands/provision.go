package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/minioprov/internal/config"
	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/reconcile"
)

const (
	DefaultServerConfig = "config/minio_server_config.json"
	DefaultPoliciesDir  = "policies"
)

func NewProvisionCommand(cfg *config.Config) *cobra.Command {
	var (
		configFile     string
		policiesDir    string
		legacyFallback bool
		allowPartial   bool
		metricsFile    string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create buckets, policies and users described in a config file",
		Long: `Reconcile a MinIO server against a provisioning document.

Buckets are created with the bucket-creator credentials. For each user the
policy file is uploaded, the password is read from Vault, the user is created
if missing and the policy is attached.

Vault credentials are required. With --legacy-fallback a missing or failed
Vault login is downgraded to a warning and only users with a "password" field
in the document are provisioned.

The command exits non-zero if any bucket or user failed, unless
--allow-partial is set.`,
		Example: `  minioprov provision
  minioprov provision --config config/minio_server_config.json --policies-dir policies
  minioprov provision --metrics-file /var/lib/node_exporter/minioprov.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger(cfg)

			cfg.Path = configFile
			cfg.PoliciesDir = policiesDir
			if err := cfg.Load(); err != nil {
				return err
			}
			s := cfg.Settings
			doc := cfg.Document

			if len(doc.Buckets) > 0 {
				if err := s.ObjectStore.ValidateBucketCreator(); err != nil {
					return err
				}
			}
			if len(doc.Users) > 0 {
				if err := s.ObjectStore.ValidateAdmin(); err != nil {
					return err
				}
			}

			r := &reconcile.Reconciler{
				Policies: reconcile.DirPolicySource{Dir: cfg.PoliciesDir},
				Logger:   log,
				Metrics:  reconcile.NewMetrics(),
			}

			vault, err := openVaultSession(ctx, s, log)
			switch {
			case err == nil:
				log.Info("Authenticated to Vault at %s", vault.Address())
				r.Secrets = vault
			case legacyFallback:
				log.Warn("Continuing without Vault: %v", err)
				log.Warn("Only users with a password in %s will be provisioned", cfg.Path)
			default:
				return err
			}

			store, err := newObjectStore(s, log)
			if err != nil {
				if vault != nil {
					vault.RevokeToken(ctx)
				}
				return err
			}
			r.Store = store
			log.Debug("Using MinIO at %s", store.Endpoint())

			report, runErr := r.Run(ctx, doc)
			printReport(cmd.OutOrStdout(), report)
			writeMetrics(r.Metrics, metricsFile, log)

			if runErr != nil {
				return fmt.Errorf("provisioning interrupted: %w", runErr)
			}
			if report.HasFailures() && !allowPartial {
				return dserrors.UserError{
					Message:    fmt.Sprintf("%d item(s) failed", len(report.Failed())),
					Suggestion: "Fix the errors above and run again; completed items are skipped on re-run",
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", DefaultServerConfig, "Provisioning document (JSON or YAML)")
	cmd.Flags().StringVar(&policiesDir, "policies-dir", DefaultPoliciesDir, "Directory holding policy JSON files")
	cmd.Flags().BoolVar(&legacyFallback, "legacy-fallback", false, "Continue without Vault and use passwords from the config file")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "Exit 0 even if some items failed")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")

	return cmd
}
