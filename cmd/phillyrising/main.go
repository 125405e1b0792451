// Command phillyrising runs the civic community platform: a REST API,
// social login, and a background RSS/Atom ingestion daemon, plus the
// management commands to go with them.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"phillyrising/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "phillyrising",
	Short:         "Neighborhood community platform",
	Long:          "phillyrising serves the community REST API and ingests neighborhood RSS/Atom feeds into local content items.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "phillyrising.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(feedsCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(neighborhoodsCmd)
	rootCmd.AddCommand(setIntervalCmd)
	rootCmd.AddCommand(setWorkersCmd)
	rootCmd.AddCommand(statusCmd)
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
