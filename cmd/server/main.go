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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/livepoll/internal/adapters/auth"
	router "github.com/dkeye/livepoll/internal/adapters/http"
	"github.com/dkeye/livepoll/internal/adapters/pgstore"
	"github.com/dkeye/livepoll/internal/adapters/sqlitestore"
	"github.com/dkeye/livepoll/internal/app"
	"github.com/dkeye/livepoll/internal/app/orch"
	"github.com/dkeye/livepoll/internal/config"
	"github.com/dkeye/livepoll/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("Server exited gracefully")
}

// setupLogger switches to JSON output outside debug mode and applies the
// configured level.
func setupLogger(cfg *config.Config) {
	if cfg.Mode != "debug" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func openStore(ctx context.Context, db config.DatabaseConfig) (core.Store, error) {
	switch db.Driver {
	case config.DriverPostgres:
		return pgstore.Open(ctx, db.DSN)
	case config.DriverSQLite:
		return sqlitestore.Open(ctx, db.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", db.Driver)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}()

	tokens, err := auth.NewTokens([]byte(cfg.Secret), cfg.TokenTTL)
	if err != nil {
		return err
	}

	reg := app.NewRegistry()
	dispatcher := app.NewDispatcher(reg, app.SimplePolicy{})
	votes := app.NewVoteService(store, store, dispatcher)

	o := &orch.Orchestrator{
		Registry:   reg,
		Dispatcher: dispatcher,
		Votes:      votes,
		Polls:      store,
		Auth:       tokens,
		VoteLimit:  cfg.VoteRate.Limit,
		VoteWindow: cfg.VoteRate.Window,
	}
	limiter := router.NewUserRateLimiter(cfg.VoteRate.Limit, cfg.VoteRate.Window)

	g, gctx := errgroup.WithContext(ctx)

	r := router.SetupRouter(gctx, cfg, router.Deps{
		Orch:     o,
		Accounts: app.NewAccounts(store, auth.NewPasswords(0), tokens),
		Polls:    app.NewPolls(store, votes),
		Votes:    votes,
		Auth:     tokens,
		Limiter:  limiter,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info().Str("addr", addr).Str("driver", cfg.Database.Driver).Msg("livepoll server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				limiter.Sweep()
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		o.Shutdown()
		return nil
	})

	return g.Wait()
}
