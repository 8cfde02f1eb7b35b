package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/adapters/broadcast"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository"
	"github.com/vncsmyrnk/livepoll/internal/config"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
	"github.com/vncsmyrnk/livepoll/internal/logging"
)

// expirysweep expires every active poll whose expiration date has passed and
// exits. It runs the same sweep as the server's in-process scheduler, for
// deployments that prefer an external cron.
func main() {
	cfg, err := config.LoadJob()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var timeout time.Duration
	flag.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "Poll store driver (postgres or mongo), defaults to STORE_DRIVER")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum duration of the sweep")
	flag.Parse()

	if err := cfg.RequireDurableStore(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	repo, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open poll store: %v", err)
	}
	defer closeStore()

	// No live subscribers exist in this process; snapshots go nowhere.
	broadcaster := broadcast.New(broadcast.WithLogger(logger))
	defer broadcaster.Close()

	ledger := services.NewVoteLedger(repo, broadcaster,
		services.WithLogger(logger),
		services.WithVoteAttempts(cfg.VoteRetryAttempts),
	)
	scheduler := services.NewLifecycleScheduler(repo, ledger, services.WithLogger(logger))

	logger.Info("starting expiry sweep", "event", "sweep_started")

	expired, err := scheduler.Sweep(ctx)
	if err != nil {
		logger.Error("expiry sweep failed", "event", "sweep_failed", "expired", expired, "error", err)
		os.Exit(1)
	}

	logger.Info("expiry sweep completed", "event", "sweep_completed", "expired", expired)
}
