package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/visionguard/visionguard-monitor/internal/models"
	"github.com/visionguard/visionguard-monitor/internal/tasks"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send an instruction to the monitoring assistant",
	Long: `Sends a chat instruction (e.g. "watch camera 1 for package deliveries")
to the backend. When the response indicates the server-side task set changed,
the task registry is re-synced so the local view reflects the new task.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		client := newBackendClient(cfg, logger)
		resp, err := client.SendChat(cmd.Context(), models.ChatMessage{
			Message: strings.Join(args, " "),
			Context: &models.ChatContext{
				Timestamp:  time.Now().UTC().Format(time.RFC3339),
				UserID:     cfg.UserID,
				ClientType: "cli",
			},
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.Response)
		for _, s := range resp.Suggestions {
			fmt.Fprintf(cmd.OutOrStdout(), "  suggestion: %s\n", s)
		}

		// A bounded staleness window between server-side task creation and
		// this sync is accepted; the session re-syncs on alerts anyway.
		if resp.Action != "" {
			registry := tasks.NewRegistry(client, logger)
			if err := registry.Sync(cmd.Context()); err != nil {
				logger.Warn("chat: task re-sync failed", "err", err)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Active monitoring tasks: %d\n", registry.Len())
			}
		}
		return nil
	},
}
