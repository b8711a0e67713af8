// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phonepe-relay/internal/app"
	"phonepe-relay/internal/config"
	"phonepe-relay/internal/infra/api"
	"phonepe-relay/internal/infra/db/migrate"
	"phonepe-relay/internal/infra/logging"
	"phonepe-relay/internal/infra/metrics"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

const shutdownTimeout = 20 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no redaction)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Schema ----
	if cfg.Database.Migrate {
		if err := migrate.Up(cfg.Database.URL, log); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}

	deps, err := app.Initialize(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	log.Info().
		Str("merchant_id", cfg.Payment.PhonePe.MerchantID).
		Str("salt_key", logging.Redact(cfg.Payment.PhonePe.SaltKey, cfg.Runtime.Dev)).
		Str("host", cfg.Payment.PhonePe.HostURL).
		Msg("phonepe gateway configured")

	deps.StartBackground(ctx)

	// ---- HTTP ----
	server := api.NewServer(cfg.HTTP, deps.Router(), log)
	errc := make(chan error, 1)
	go func() { errc <- server.Start() }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigc:
		log.Info().Str("signal", s.String()).Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}
	cancel()

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if err := server.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	deps.Close()
	log.Info().Msg("bye")
}
