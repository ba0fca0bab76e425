package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"leakduck-backend/internal/collector"
	"leakduck-backend/internal/config"
	"leakduck-backend/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	runOnly   []string
	runStrict bool
)

func init() {
	runCmd.Flags().StringSliceVar(&runOnly, "only", nil, "Only scrape the given entities (events, eggs, raid_bosses, research, rocket_lineups).")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Exit with a non-zero status when any entity fails.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--only events,eggs] [--strict]",
	Short: "Scrapes every enabled entity once and writes the collections.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		entities, err := cfg.Enabled(runOnly)
		if err != nil {
			return err
		}

		tel, id := runTelemetry()
		err = runOnce(cmd.Context(), cfg, entities, tel)
		if err != nil && runStrict {
			return fmt.Errorf("run %s: %w", id, err)
		}
		return nil
	},
}

// runOnce scrapes the entities and prints a report. The returned error joins the entity
// failures, it is always logged.
func runOnce(ctx context.Context, cfg config.Config, entities []string, tel telemetry.API) error {
	c, closeFetchers := collector.Build(ctx, cfg, entities, tel)
	defer closeFetchers()

	slog.Info("scraping", "entities", entities)
	results := c.Run(ctx, entities)
	collector.Report(os.Stdout, results)

	err := collector.Err(results)
	if err != nil {
		slog.Warn("some entities failed", "err", err)
	}
	return err
}
