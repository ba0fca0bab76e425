package commands

import (
	"fmt"
	"os"

	"leakduck-backend/internal/collector"
	"leakduck-backend/internal/scrapers/leekduck"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(archiveCmd)
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Moves expired events of the published collection into the archive without scraping.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		tel, id := runTelemetry()

		c, closeFetchers := collector.Build(cmd.Context(), cfg, nil, tel)
		defer closeFetchers()

		result := c.Archive(cmd.Context())
		collector.Report(os.Stdout, []collector.Result{result})
		if result.Err != nil {
			return fmt.Errorf("archive %s %s: %w", id, leekduck.EntityEvents, result.Err)
		}
		return nil
	},
}
