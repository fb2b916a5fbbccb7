package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
)

var (
	configPath string
	envName    string
	logLevel   string
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "trainer",
		Short:         "Train and evaluate a Q-learning agent on the mold maze",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			if err := config.Init(configPath); err != nil {
				return err
			}
			if err := config.LoadEnvironmentConfig(envName); err != nil {
				return err
			}
			cfg := config.Get()
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			setupLogging(level, cfg.Logging.Format)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	root.PersistentFlags().StringVar(&envName, "env", "", "Environment overlay (loads config.<env>.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")

	root.AddCommand(trainCommand())
	root.AddCommand(plotCommand())
	return root
}

func setupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
