package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/minioprov/cmd/minioprov/commands"
	"github.com/systmms/minioprov/internal/config"
	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/logging"
	"github.com/systmms/minioprov/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()
	secure.Purge()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError shows err the way operators see every top-level failure
func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", dserrors.SimplifyError(err))
}

func run() error {
	// Global flags
	var (
		noColor        bool
		debug          bool
		nonInteractive bool
		timeout        time.Duration
		retries        int
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "minioprov",
		Short: "Provision MinIO buckets, policies and users from Vault-held secrets",
		Long: `minioprov reads a declarative provisioning document and makes a MinIO
server match it: buckets are created, policies uploaded and service users
created with passwords fetched from HashiCorp Vault.

Every run is idempotent. Existing buckets and users are left in place and
policies are re-applied.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger = logging.New(debug, noColor)
			cfg.NonInteractive = nonInteractive

			if err := cfg.LoadSettings(config.EnvLookup()); err != nil {
				return err
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Settings.Timeout = timeout
			}
			if cmd.Flags().Changed("retries") {
				cfg.Settings.Retry.Attempts = retries
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt for input")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "Timeout for each Vault and MinIO request")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", config.DefaultRetryAttempts, "Attempts per request for transient failures")

	rootCmd.AddCommand(
		commands.NewProvisionCommand(cfg),
		commands.NewBucketsCommand(cfg),
		commands.NewSeedCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
