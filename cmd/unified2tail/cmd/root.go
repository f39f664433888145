package cmd

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/arborwatch/unified2spool/internal/config"
	"github.com/arborwatch/unified2spool/internal/logging"
)

type ctxKey int

const configKey ctxKey = 0

var rootCmd = &cobra.Command{
	Use:   "unified2tail",
	Short: "Tail, aggregate and catalog unified2 IDS event logs",
	Long: `unified2tail follows a Suricata/Snort unified2 spool directory,
decodes its records, groups them into events, and durably bookmarks
progress so it can resume exactly where it left off.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		var cfg *config.Config
		if configPath != "" && config.Exists(configPath) {
			loaded, err := config.Load(configPath)
			if err != nil {
				return errors.Wrap(err, "loading config")
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig()
		}

		logLevel := 0
		if cfg.Logging.Level == "debug" {
			logLevel = -1
		}
		logging.Init(logging.Option{Level: logLevel})

		cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
		return nil
	},
}

// configFrom retrieves the config loaded by the root command's
// PersistentPreRunE.
func configFrom(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey).(*config.Config)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

// Execute runs the root command. It is called once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
}
