package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/visionguard/visionguard-monitor/internal/cameras"
	"github.com/visionguard/visionguard-monitor/internal/models"
	"github.com/visionguard/visionguard-monitor/internal/notify"
	"github.com/visionguard/visionguard-monitor/internal/repository"
	"github.com/visionguard/visionguard-monitor/internal/service"
	"github.com/visionguard/visionguard-monitor/internal/tasks"
	"github.com/visionguard/visionguard-monitor/internal/timeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the monitoring session",
	Long: `Opens the push connection and runs the alert pipeline until
interrupted. Reconnection is automatic; the session never gives up on its own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := newBackendClient(cfg, logger)

		// Startup reachability probe, reported but not fatal: the supervisor
		// retries indefinitely anyway.
		if err := client.Health(ctx); err != nil {
			logger.Warn("run: backend not reachable yet", "err", err)
		}

		var archive timeline.Archive
		switch cfg.ArchiveDriver {
		case "sqlite":
			store, err := repository.NewSQLiteArchive(cfg.ArchiveDSN)
			if err != nil {
				return fmt.Errorf("open alert archive: %w", err)
			}
			defer store.Close()
			archive = store
		case "postgres":
			store, err := repository.NewPostgresArchive(cfg.ArchiveDSN)
			if err != nil {
				return fmt.Errorf("open alert archive: %w", err)
			}
			defer store.Close()
			archive = store
		case "":
			logger.Info("run: alert archive disabled")
		default:
			return fmt.Errorf("unknown archive driver %q", cfg.ArchiveDriver)
		}

		directory := cameras.NewDirectory(client, time.Duration(cfg.CameraCacheTTLSec)*time.Second, logger)
		notifier := notify.NewNotifier(cfg.NotifyURL, models.NotifyChannelType(cfg.NotifyType), logger)
		tl := timeline.New(cfg.TimelineCap)
		reconciler := timeline.NewReconciler(tl, notifier, archive, directory, logger)
		registry := tasks.NewRegistry(client, logger)

		session, err := service.NewSession(service.Options{
			BackendURL:     cfg.BackendURL,
			RetryDelay:     time.Duration(cfg.RetryDelaySec * float64(time.Second)),
			ConnectTimeout: time.Duration(cfg.ConnectTimeoutSec) * time.Second,
			Logger:         logger,
		}, tl, reconciler, registry, notifier)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return session.Run(gctx)
		})

		if cfg.MetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

			g.Go(func() error {
				logger.Info("run: metrics listener started", "addr", cfg.MetricsAddr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
		}

		logger.Info("run: monitoring session started", "backend", cfg.BackendURL)
		return g.Wait()
	},
}
