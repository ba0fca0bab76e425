package commands

import (
	"log/slog"
	"time"

	"leakduck-backend/internal/chrono"
	"leakduck-backend/internal/telemetry"

	"github.com/spf13/cobra"
)

var scheduleCron string

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "Overrides schedule.cron from the config.")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [--cron <spec>]",
	Short: "Runs the scrape on a cron schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := loadConfig()
		entities, err := cfg.Enabled(nil)
		if err != nil {
			return err
		}
		spec := cfg.Schedule.Cron
		if scheduleCron != "" {
			spec = scheduleCron
		}

		telemetry.InstrumentPerfStats(ctx, 30*time.Second)

		scheduler := chrono.NewStandardCron(telemetry.NewSlogAPI(nil))
		err = scheduler.Cron(spec, func() {
			tel, id := runTelemetry()
			slog.Info("scheduled run", "run", id)
			// entity failures are already logged and reported
			_ = runOnce(ctx, cfg, entities, tel)
		})
		if err != nil {
			return err
		}

		slog.Info("scheduler started", "cron", spec, "entities", entities)
		<-ctx.Done()
		slog.Info("waiting for the running scrape to finish")
		<-scheduler.Stop().Done()
		return nil
	},
}
