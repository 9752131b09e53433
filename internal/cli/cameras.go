package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "Show the backend camera inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		list, err := newBackendClient(cfg, logger).Cameras(cmd.Context())
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(list.Cameras))
		for id := range list.Cameras {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLOCATION\tSTATUS\tAI")
		for _, id := range ids {
			cam := list.Cameras[id]
			ai := "off"
			if cam.AIEnabled {
				ai = "on"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", cam.ID, cam.Name, cam.Location, cam.Status, ai)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d cameras, %d online\n", list.Total, list.Online)
		return nil
	},
}
