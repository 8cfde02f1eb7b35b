package main

import (
	"context"
	"errors"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	_ "github.com/vncsmyrnk/livepoll/docs"
	jwtauth "github.com/vncsmyrnk/livepoll/internal/adapters/auth/jwt"
	"github.com/vncsmyrnk/livepoll/internal/adapters/broadcast"
	"github.com/vncsmyrnk/livepoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/livepoll/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository"
	"github.com/vncsmyrnk/livepoll/internal/config"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
	"github.com/vncsmyrnk/livepoll/internal/logging"
	"github.com/vncsmyrnk/livepoll/internal/metrics"
)

// @title           Live Poll API
// @version         1.0
// @description     Polls with single-vote ballots, lifecycle management and live results.
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open poll store: %v", err)
	}
	defer closeStore()

	var verifier ports.IdentityVerifier
	switch cfg.IdentityProvider {
	case config.IdentityGoogle:
		verifier = google.NewVerifier(cfg.GoogleClientID)
	default:
		verifier = jwtauth.NewManager(cfg.JWTSecret, "")
	}

	broadcaster := broadcast.New(
		broadcast.WithBufferSize(cfg.SubscriberBuffer),
		broadcast.WithLogger(logger),
	)
	ledger := services.NewVoteLedger(repo, broadcaster,
		services.WithLogger(logger),
		services.WithVoteAttempts(cfg.VoteRetryAttempts),
		services.WithAdmins(cfg.AdminUserIDs...),
	)
	pollService := services.NewPollService(repo, ledger, broadcaster, services.WithLogger(logger))
	scheduler := services.NewLifecycleScheduler(repo, ledger,
		services.WithLogger(logger),
		services.WithSweepInterval(cfg.SweepInterval),
	)

	handler := http.NewHandler(
		http.NewPollHandler(pollService),
		http.NewVoteHandler(pollService),
		http.NewLiveHandler(pollService, http.DefaultHeartbeatInterval, cfg.CORSAllowedOrigins),
		verifier,
		http.RouterConfig{
			Logger:         logger,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			VoteRateLimit:  rate.Limit(cfg.VoteRateLimit),
			VoteRateBurst:  cfg.VoteRateBurst,
		},
	)
	server := &stdhttp.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(schedulerCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "event", "server_started", "addr", cfg.Addr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("server failed", "event", "server_failed", "error", err)
	}
	logger.Info("gracefully shutting down", "event", "server_stopping")

	stopScheduler()
	<-schedulerDone

	// Ends live streams so Shutdown does not wait on them.
	broadcaster.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "event", "server_stopped", "error", err)
		return
	}
	logger.Info("server stopped", "event", "server_stopped")
}
