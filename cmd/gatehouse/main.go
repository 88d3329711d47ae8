package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gatehouse/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "gatehouse",
	Short:   "Authenticated HTTP file gateway",
	Long: `Gatehouse serves a single shared directory over HTTP for download,
listing and upload. Requests authenticate with a bearer token or HTTP Basic
credentials, and every client path is confined to the storage root.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s), merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "user store: sqlite, postgres, memory (default: sqlite, env: GATEHOUSE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: gatehouse.db, env: GATEHOUSE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "shared directory root (default: ./data, env: GATEHOUSE_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: GATEHOUSE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
