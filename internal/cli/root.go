package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openkin/arbor/internal/config"
	"github.com/openkin/arbor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Family relationship graph engine",
	Long:  "Arbor turns flat member, relationship and marriage rows into traversals, relationship labels, layouts, duplicate candidates and safe merges. Single Go binary.",
}

var configPath string

func Execute() error {
	return rootCmd.Execute()
}

// resolveDBPath picks the database path: ARBOR_DB env var, then the config
// file, then the default under the home directory.
func resolveDBPath(cfg config.Config) (string, error) {
	if env := os.Getenv("ARBOR_DB"); env != "" {
		return env, nil
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	path, err := store.DefaultDBPath()
	if err != nil {
		return "", fmt.Errorf("resolve db path: %w", err)
	}
	return path, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dupesCmd)
}
