package main

import (
	"fmt"

	"notice_bot/internal/config"
	"notice_bot/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	debug      bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "noticebot",
		Short:         "Crawls university notice boards and posts new notices to Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env необязателен: в контейнере переменные приходят из окружения.
			_ = godotenv.Load()

			logger.Init()
			if opts.debug {
				logger.SetDebug(true)
			}

			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validate: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to the YAML configuration")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newCrawlCmd(opts),
		newServeCmd(opts),
		newRelayCmd(opts),
		newSourcesCmd(opts),
	)
	return cmd
}
