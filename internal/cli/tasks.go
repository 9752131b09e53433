package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/visionguard/visionguard-monitor/internal/tasks"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and manage active monitoring tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the backend's active monitoring tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		registry := tasks.NewRegistry(newBackendClient(cfg, logger), logger)
		if err := registry.Sync(cmd.Context()); err != nil {
			return err
		}

		list := registry.Tasks()
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No active monitoring tasks.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCAMERAS\tCREATED\tREQUEST")
		for _, t := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				t.ID,
				strings.Join(t.CameraIDs, ","),
				t.CreatedAt.Format("2006-01-02 15:04"),
				t.UserRequest,
			)
		}
		return w.Flush()
	},
}

var tasksRemoveCmd = &cobra.Command{
	Use:   "remove <task-id>",
	Short: "Delete a monitoring task",
	Long: `Deletes a task on the backend. The task is only reported as removed
after the backend confirms; on failure nothing is hidden locally.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		registry := tasks.NewRegistry(newBackendClient(cfg, logger), logger)
		if err := registry.Remove(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("task not removed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed monitoring task %s\n", args[0])
		return nil
	},
}

func init() {
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksRemoveCmd)
}
