// Package cli wires the cobra command tree for the monitor.
package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/visionguard/visionguard-monitor/internal/api"
	"github.com/visionguard/visionguard-monitor/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "visionguard-monitor",
	Short: "Headless realtime alerting client for the VisionGuard backend",
	Long: `visionguard-monitor maintains a push connection to a VisionGuard
monitoring backend, decodes alert events into a bounded timeline, keeps the
local monitoring task registry in sync, and dispatches out-of-band
notifications for accepted alerts.

Run 'visionguard-monitor help <command>' for details on a specific command.`,
	SilenceUsage: true,
}

// Execute runs the command tree. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(camerasCmd)
}

// loadConfig loads configuration and builds the logger every command shares.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// newBackendClient builds the API client from config.
func newBackendClient(cfg *config.Config, logger *slog.Logger) *api.Client {
	return api.NewClient(cfg.BackendURL, time.Duration(cfg.RequestTimeoutSec)*time.Second, logger)
}
