package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nostrly/crownanchor/internal/api"
	"github.com/nostrly/crownanchor/internal/auth"
	"github.com/nostrly/crownanchor/internal/config"
	"github.com/nostrly/crownanchor/internal/infra/logging"
	"github.com/nostrly/crownanchor/internal/infra/metrics"
	"github.com/nostrly/crownanchor/internal/infra/pgutils"
	"github.com/nostrly/crownanchor/internal/lightning"
	"github.com/nostrly/crownanchor/internal/services/deposits"
	"github.com/nostrly/crownanchor/internal/services/rounds"
	"github.com/nostrly/crownanchor/pkg/envconf"
	"github.com/nostrly/crownanchor/pkg/shutdownqueue"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	MetricsPort     string        `env:"APP_METRICS_PORT" default:"9090"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"10s"`

	Postgres  config.PostgresConfig
	Game      config.GameConfig
	Lightning config.LightningConfig
	Auth      config.AuthConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		return dbConns.Close()
	})

	// --- Services ---
	roundsSrv := rounds.New(dbConns, cfg.Game.WelcomeCredits)

	var network deposits.PaymentNetwork
	if cfg.Lightning.BaseURL != "" {
		network = lightning.New(cfg.Lightning.BaseURL, cfg.Lightning.TokenKey)
	} else {
		slog.Warn("no payment network configured, deposits run in fallback mode")
	}

	depositsSrv := deposits.New(dbConns, network, cfg.Game.SatsPerCredit, cfg.Game.FallbackCredits)

	authn := auth.New(signatureVerifier(), cfg.Auth.EndpointURL)

	// --- Metrics server ---
	metricsSrv := metrics.StartServer(cfg.MetricsPort, func(c context.Context) error {
		return dbConns.PingContext(c)
	})

	shutdownqueue.Add(func(c context.Context) error {
		return metricsSrv.Shutdown(c)
	})

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, roundsSrv, depositsSrv, authn)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
