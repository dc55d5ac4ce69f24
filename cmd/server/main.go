package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yukikurage/watchtower-api/internal/config"
	"github.com/yukikurage/watchtower-api/internal/logs"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	log      *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if log == nil {
			log = logrus.New()
		}
		log.WithError(err).Fatal("Failed to execute command")
	}
}

var rootCmd = &cobra.Command{
	Use:   "watchtower",
	Short: "Watchtower shift board API",
	Long: `Watchtower tracks which controllers are on duty during a watch shift,
keeps an audit trail of every status change and issues personal access
tokens for scripted access.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			if err := os.Setenv("CONFIG_FILE", cfgFile); err != nil {
				return fmt.Errorf("setting config file: %w", err)
			}
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if cmd.Flags().Changed("log-level") {
			if _, err := logrus.ParseLevel(logLevel); err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			loaded.LogLevel = logLevel
		}

		cfg = loaded
		log = logs.New(logs.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level ("+strings.Join(logLevels(), ", ")+")")
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}

	return levels
}
