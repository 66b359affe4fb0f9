package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/standup/internal/activity"
	"github.com/alfredjeanlab/standup/internal/config"
	"github.com/alfredjeanlab/standup/internal/convert"
	"github.com/alfredjeanlab/standup/internal/events"
	"github.com/alfredjeanlab/standup/internal/hooks"
	"github.com/alfredjeanlab/standup/internal/presence"
	"github.com/alfredjeanlab/standup/internal/server"
	"github.com/alfredjeanlab/standup/internal/store"
	"github.com/alfredjeanlab/standup/internal/stream"
	standupsync "github.com/alfredjeanlab/standup/internal/sync"
	"github.com/alfredjeanlab/standup/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the activity poller and the query API",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := slog.Default()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}

		publisher := newPublisher(cfg, logger)

		// Start the poller and the member roster it reports to.
		var (
			w       *worker.Worker
			tracker *presence.Tracker
		)
		if cfg.StartWorker {
			feed, err := stream.New(cfg.StreamConfig(), logger)
			if err != nil {
				publisher.Close()
				st.Close()
				return err
			}
			tracker = presence.New()
			tracker.StartReaper(&presence.ReaperConfig{
				StaleAfter: 3 * cfg.Interval(),
				OnStale: func(member, lastErr string) {
					ev := events.MemberStale{Member: member, LastError: lastErr}
					if err := publisher.Publish(context.Background(), events.TopicMemberStale, ev); err != nil {
						logger.Warn("failed to publish event", "topic", events.TopicMemberStale, "err", err)
					}
				},
			})
			w = worker.New(worker.Config{
				Members:  cfg.Members,
				Interval: cfg.Interval(),
				Recorder: tracker,
			}, st, feed, publisher, logger)
			w.Start()
		} else {
			logger.Info("worker disabled (start_worker is false)")
		}

		scheduler := newScheduler(cfg, st, logger)
		if scheduler != nil {
			scheduler.Start()
			logger.Info("sync scheduler started", "interval", cfg.Sync.Interval)
		}

		// Start HTTP server.
		svc := activity.NewService(st, convert.New(cfg.Activity, logger), cfg.Members)
		api := server.NewActivityServer(svc, logger)
		if tracker != nil {
			api.WithRoster(tracker)
		}
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr(),
			Handler:           api.NewHTTPHandler(cfg.Server.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		serveErr := make(chan error, 1)
		go func() {
			logger.Info("HTTP server listening", "addr", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()

		// Wait for SIGINT or SIGTERM, or a listener failure.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		var runErr error
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
		case runErr = <-serveErr:
			logger.Error("HTTP server error", "err", runErr)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if w != nil {
			w.Stop()
			tracker.Stop()
		}
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return runErr
	},
}

// newPublisher connects to NATS when nats_url is set and wraps the result
// with the configured hooks. A failed connection disables NATS events rather
// than the server.
func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	var pub events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL == "" {
		logger.Info("events disabled (nats_url not set)")
	} else if nc, err := events.NewNATSPublisher(cfg.NATSURL); err != nil {
		logger.Error("events disabled", "err", err)
	} else {
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
		pub = nc
	}

	if len(cfg.Hooks) == 0 {
		return pub
	}
	logger.Info("event hooks enabled", "hooks", len(cfg.Hooks))
	return hooks.NewPublisher(pub, cfg.Hooks, logger)
}

// newScheduler returns a backup scheduler for the configured destinations,
// or nil when sync is disabled or has nowhere to write.
func newScheduler(cfg *config.Config, st store.Store, logger *slog.Logger) *standupsync.Scheduler {
	if cfg.Sync.Interval <= 0 {
		return nil
	}

	var dests []standupsync.Destination
	if cfg.Sync.S3Bucket != "" {
		s3Dest, err := standupsync.NewS3Destination(context.Background(), standupsync.S3Options{
			Bucket:   cfg.Sync.S3Bucket,
			Key:      cfg.Sync.S3Key,
			Region:   cfg.Sync.S3Region,
			Endpoint: cfg.Sync.S3Endpoint,
		})
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.Sync.S3Bucket, "key", cfg.Sync.S3Key)
		}
	}
	if cfg.Sync.GitRepo != "" {
		dests = append(dests, standupsync.NewGitDestination(cfg.Sync.GitRepo, cfg.Sync.GitFile, cfg.Sync.GitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.Sync.GitRepo, "file", cfg.Sync.GitFile)
	}

	if len(dests) == 0 {
		return nil
	}
	return standupsync.NewScheduler(st, dests, cfg.Sync.Interval, logger)
}
