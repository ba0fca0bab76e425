package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"leakduck-backend/internal/config"
	"leakduck-backend/internal/telemetry"
	"leakduck-backend/lib/util/serviceutil"

	"github.com/mazen160/go-random"
	"github.com/spf13/cobra"
)

const serviceName = "leakduck"

var (
	configPath string
	verbose    bool
)

// shutdown flushes the otel exporters, it is set up before any command runs.
var shutdown = func(context.Context) error { return nil }

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read, a <name>.local.json5 next to it overrides it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
}

var rootCmd = &cobra.Command{
	Use:   "leakduck",
	Short: "leakduck scrapes leekduck.com into JSON collections of events, eggs, raids, research and rocket lineups.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)

		providers, err := telemetry.SetupFromEnv(cmd.Context(), serviceName)
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		shutdown = providers.Shutdown
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig is the only place the process may exit because of bad input.
func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		serviceutil.Fatal("failed to load config", err)
	}
	return cfg
}

// runTelemetry returns the telemetry of a single run, every record carries the run id.
func runTelemetry() (telemetry.API, string) {
	id, err := random.String(8)
	if err != nil {
		id = fmt.Sprint(time.Now().Unix())
	}
	logger := slog.Default().With("run", id)
	return telemetry.NewSlogAPI(logger), id
}
