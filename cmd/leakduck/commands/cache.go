package commands

import (
	"log/slog"

	"leakduck-backend/internal/chrono"
	"leakduck-backend/internal/fetch"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manages the detail page cache.",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deletes every cached detail page.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		cache := fetch.NewPageCache(cfg.Cache.Dir, cfg.ScraperSettings.CacheExpiration(), chrono.NewStandardTime())
		err := cache.Clear()
		if err != nil {
			return err
		}
		slog.Info("cleared page cache", "dir", cfg.Cache.Dir)
		return nil
	},
}
