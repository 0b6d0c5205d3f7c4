package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/minioprov/internal/config"
	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/reconcile"
)

const DefaultBucketsConfig = "config/minio_buckets.json"

func NewBucketsCommand(cfg *config.Config) *cobra.Command {
	var (
		configFile   string
		allowPartial bool
		metricsFile  string
	)

	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Create only the buckets listed in a config file",
		Long: `Create every bucket listed in the document that does not exist yet.

Only the least-privilege bucket-creator credentials are used
(BUCKET_CREATOR_ACCESS_KEY / BUCKET_CREATOR_SECRET_KEY). Vault is not
contacted and any users in the document are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cfg)

			cfg.Path = configFile
			if err := cfg.Load(); err != nil {
				return err
			}
			s := cfg.Settings
			if err := s.ObjectStore.ValidateBucketCreator(); err != nil {
				return err
			}
			if n := len(cfg.Document.Users); n > 0 {
				log.Debug("Ignoring %d user record(s); use 'minioprov provision' for users", n)
			}

			store, err := newObjectStore(s, log)
			if err != nil {
				return err
			}
			r := &reconcile.Reconciler{
				Store:   store,
				Logger:  log,
				Metrics: reconcile.NewMetrics(),
			}

			report, runErr := r.RunBuckets(cmd.Context(), cfg.Document.Buckets)
			printReport(cmd.OutOrStdout(), report)
			writeMetrics(r.Metrics, metricsFile, log)

			if runErr != nil {
				return fmt.Errorf("bucket creation interrupted: %w", runErr)
			}
			if report.HasFailures() && !allowPartial {
				return dserrors.UserError{
					Message:    fmt.Sprintf("%d bucket(s) failed", len(report.Failed())),
					Suggestion: "Check that the bucket-creator policy allows s3:CreateBucket",
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", DefaultBucketsConfig, "Document listing the buckets (JSON or YAML)")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "Exit 0 even if some buckets failed")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")

	return cmd
}
