package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"phonepe-relay/internal/app"
	"phonepe-relay/internal/config"
	"phonepe-relay/internal/infra/db/auditstore"
	"phonepe-relay/internal/infra/db/migrate"
	"phonepe-relay/internal/infra/logging"
)

var Version = "dev"

var (
	cfgPath string
	devMode bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "relayctl",
		Short:        "Operator tooling for the PhonePe relay",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "console logs")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load() (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.LoadConfig(cfgPath, devMode)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.Log, cfg.Runtime.Dev), nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back the database schemas",
		Long: `Apply or roll back the database schemas.

up applies the transactions/refunds migrations and creates the audit_logs
table in the audit database. down rolls back the transactions/refunds schema
only; audit history is never dropped by this tool.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			if direction == "down" {
				return migrate.Down(cfg.Database.URL, log)
			}

			if err := migrate.Up(cfg.Database.URL, log); err != nil {
				return err
			}
			db, err := auditstore.Open(cfg.AuditDatabase)
			if err != nil {
				return fmt.Errorf("audit store: %w", err)
			}
			defer func() { _ = auditstore.Close(db) }()
			if err := auditstore.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("schemas up to date")
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Re-validate stale INITIATED/PENDING transactions once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			deps, err := app.Initialize(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer deps.Close()

			n, err := deps.Reconciler.RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reconciled %d transaction(s)\n", n)
			return nil
		},
	}
}
