package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/minioprov/internal/config"
	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/logging"
	"github.com/systmms/minioprov/internal/objectstore"
	"github.com/systmms/minioprov/internal/secretstore"
)

// CheckResult is one row of the doctor table
type CheckResult struct {
	Name    string
	Target  string
	Status  string // healthy, error, skipped
	Message string
}

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check Vault and MinIO connectivity and credentials",
		Long: `Verify that everything 'provision' needs is in place.

This command checks:
- Vault AppRole and MinIO credential environment variables
- Vault login and token liveness
- MinIO bucket API with the bucket-creator credentials
- MinIO admin API with the admin credentials

The Vault token obtained here is revoked before the command exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cfg)
			s, err := settings(cfg)
			if err != nil {
				return err
			}

			results := runChecks(cmd.Context(), s, log)
			out := cmd.OutOrStdout()
			displayCheckResults(out, results)

			healthy := 0
			for _, r := range results {
				if r.Status == "healthy" {
					healthy++
				}
			}
			_, _ = fmt.Fprintf(out, "\nSummary: %d/%d checks healthy\n", healthy, len(results))

			if healthy < len(results) {
				return dserrors.UserError{
					Message:    "some checks failed",
					Suggestion: "Fix the failing checks above before running 'minioprov provision'",
				}
			}
			log.Info("All systems operational!")
			return nil
		},
	}

	return cmd
}

func runChecks(ctx context.Context, s *config.Settings, log *logging.Logger) []CheckResult {
	var results []CheckResult

	vaultEnvErr := s.Vault.Validate()
	adminEnvErr := s.ObjectStore.ValidateAdmin()
	bucketEnvErr := s.ObjectStore.ValidateBucketCreator()
	results = append(results,
		check(CheckResult{Name: "vault-env", Target: "VAULT_ROLE_ID, VAULT_SECRET_ID"}, vaultEnvErr),
		check(CheckResult{Name: "admin-env", Target: "MINIO_ADMIN_ACCESS_KEY, MINIO_ADMIN_SECRET_KEY"}, adminEnvErr),
		check(CheckResult{Name: "bucket-env", Target: "BUCKET_CREATOR_ACCESS_KEY, BUCKET_CREATOR_SECRET_KEY"}, bucketEnvErr),
	)

	vaultAuth := CheckResult{Name: "vault-auth", Target: s.Vault.Address}
	if vaultEnvErr != nil {
		results = append(results, skipped(vaultAuth, "credentials not set"))
	} else {
		vault, err := openVaultSession(ctx, s, log)
		var authErr *secretstore.AuthError
		if errors.As(err, &authErr) {
			err = authErr
		}
		if err != nil {
			results = append(results, check(vaultAuth, err))
		} else {
			if vault.IsAuthenticated(ctx) {
				results = append(results, check(vaultAuth, nil))
			} else {
				results = append(results, check(vaultAuth, fmt.Errorf("token lookup failed after login")))
			}
			vault.RevokeToken(ctx)
		}
	}

	endpoint := s.ObjectStore.Endpoint()
	store, err := newObjectStore(s, log)
	if err != nil {
		results = append(results,
			check(CheckResult{Name: "minio-s3", Target: endpoint}, err),
			check(CheckResult{Name: "minio-admin", Target: endpoint}, err))
		return results
	}

	s3 := CheckResult{Name: "minio-s3", Target: endpoint}
	if bucketEnvErr != nil {
		results = append(results, skipped(s3, "credentials not set"))
	} else {
		results = append(results, checkMinIO(s3, store.Ping(ctx), "BUCKET_CREATOR_ACCESS_KEY"))
	}

	admin := CheckResult{Name: "minio-admin", Target: endpoint}
	if adminEnvErr != nil {
		results = append(results, skipped(admin, "credentials not set"))
	} else {
		results = append(results, checkMinIO(admin, store.PingAdmin(ctx), "MINIO_ADMIN_ACCESS_KEY"))
	}

	return results
}

func check(r CheckResult, err error) CheckResult {
	if err != nil {
		r.Status = "error"
		r.Message = firstLine(err.Error())
		return r
	}
	r.Status = "healthy"
	r.Message = "ok"
	return r
}

// checkMinIO names the credential variables when the server rejects the keys
func checkMinIO(r CheckResult, err error, keyVar string) CheckResult {
	r = check(r, err)
	if objectstore.IsAccessDenied(err) {
		r.Message = fmt.Sprintf("credentials rejected; check %s and its secret key", keyVar)
	}
	return r
}

func skipped(r CheckResult, why string) CheckResult {
	r.Status = "skipped"
	r.Message = why
	return r
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}

// displayCheckResults shows the checks in a formatted table
func displayCheckResults(out io.Writer, results []CheckResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CHECK\tTARGET\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "-----\t------\t------\t-------\n")

	for _, r := range results {
		status := r.Status
		switch r.Status {
		case "healthy":
			status = "✓ " + status
		case "error":
			status = "✗ " + status
		default:
			status = "- " + status
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Target, status, r.Message)
	}

	_ = w.Flush()
}
