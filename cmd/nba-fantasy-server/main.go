package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/nba-fantasy-server/internal/config"
	"github.com/Sternrassler/nba-fantasy-server/internal/handlers"
	"github.com/Sternrassler/nba-fantasy-server/internal/middleware"
	"github.com/Sternrassler/nba-fantasy-server/internal/players"
	"github.com/Sternrassler/nba-fantasy-server/pkg/client"
	"github.com/Sternrassler/nba-fantasy-server/pkg/logging"
	"github.com/Sternrassler/nba-fantasy-server/pkg/metrics"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.LogLevel)
	logCfg.Pretty = cfg.LogPretty
	logging.Setup(logCfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, cfg *config.Config) error {
	handler, err := newHandler(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestDeadline + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Dur("roster_ttl", cfg.RosterCacheTTL).
			Dur("adp_ttl", cfg.ADPCacheTTL).
			Dur("projection_ttl", cfg.ProjectionCacheTTL).
			Msg("Starting NBA fantasy server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

// newHandler wires the upstream client, caches, service and middleware.
func newHandler(cfg *config.Config) (http.Handler, error) {
	clientCfg := client.DefaultConfig(cfg.Tank01APIKey)
	clientCfg.APIHost = cfg.Tank01APIHost
	clientCfg.BaseURL = cfg.Tank01BaseURL
	clientCfg.RequestTimeout = cfg.UpstreamTimeout
	clientCfg.BreakerFailures = uint32(cfg.BreakerFailures)
	clientCfg.BreakerCooldown = cfg.BreakerCooldown

	tank01, err := client.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create tank01 client: %w", err)
	}

	caches := players.NewCaches(players.CacheConfig{
		RosterTTL:     cfg.RosterCacheTTL,
		ADPTTL:        cfg.ADPCacheTTL,
		ProjectionTTL: cfg.ProjectionCacheTTL,
	})
	svc := players.NewService(tank01, caches)

	mux := http.NewServeMux()
	handlers.New(svc, cfg.RequestDeadline).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	limiter := middleware.NewLimiter(cfg.InboundRateLimit, cfg.InboundRateLimitPer, nil)

	return middleware.Chain(mux,
		middleware.RequestLogger,
		middleware.CORS(cfg.CorsOrigins),
		limiter.Middleware,
	), nil
}
