package main

import (
	"context"
	"errors"
	"fmt"

	"notice_bot/internal/logger"
	"notice_bot/internal/queue"
	"notice_bot/internal/worker"

	"github.com/spf13/cobra"
)

func newRelayCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Forward notices from the AMQP queue to Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if cfg.Notifier.AMQPURL == "" {
				return errors.New("relay requires notifier.amqp_url or AMQP_URL")
			}

			tg, err := newTelegram(cfg)
			if err != nil {
				return err
			}

			consumer, err := queue.NewConsumer(cfg.Notifier.AMQPURL, cfg.Notifier.Queue, cfg.Notifier.RelayWorkers)
			if err != nil {
				return fmt.Errorf("rabbitmq consumer: %w", err)
			}
			defer consumer.Close()

			wrk := worker.NewWorker(tg)
			err = consumer.Consume(cmd.Context(), wrk.HandleTask)
			if errors.Is(err, context.Canceled) {
				logger.Log.Info("Relay stopped")
				return nil
			}
			return err
		},
	}
}
