package main

import (
	"context"
	"fmt"

	"notice_bot/internal/config"
	"notice_bot/internal/crawler"
	"notice_bot/internal/db"
	"notice_bot/internal/fetcher"
	"notice_bot/internal/logger"
	"notice_bot/internal/metrics"
	"notice_bot/internal/notifier"
	"notice_bot/internal/queue"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// app - собранные зависимости одного процесса.
type app struct {
	store   db.Store
	crawler *crawler.Crawler
	metrics *metrics.Metrics
	dryRun  bool

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newTelegram(cfg *config.Config) (*notifier.Telegram, error) {
	return notifier.NewTelegram(notifier.TelegramOptions{
		Token:        cfg.Bot.Token,
		Channel:      cfg.Bot.Channel,
		LogChannel:   cfg.Bot.LogChannel,
		MessageDelay: cfg.MessageDelay(),
	})
}

// buildApp связывает хранилище, загрузчик, канал доставки и оркестратор.
// Без токена бота и без AMQP процесс работает только в dry-run.
func buildApp(ctx context.Context, cfg *config.Config, dryRun bool) (*app, error) {
	a := &app{dryRun: dryRun}
	if err := tgbotapi.SetLogger(logger.Log); err != nil {
		return nil, err
	}

	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	var (
		out     notifier.Notifier
		alerter notifier.Alerter
	)

	if cfg.Bot.Token != "" && !a.dryRun {
		tg, err := newTelegram(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		out, alerter = tg, tg
	}

	if cfg.Notifier.Driver == config.NotifierAMQP && !a.dryRun {
		producer, err := queue.NewProducer(cfg.Notifier.AMQPURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("rabbitmq producer: %w", err)
		}
		a.closers = append(a.closers, producer.Close)
		out = notifier.NewAMQP(producer, cfg.Notifier.Queue)
	}

	if out == nil && !a.dryRun {
		logger.Log.Warn("TELEGRAM_TOKEN not set. Running in dry-run mode (no Telegram messages).")
		a.dryRun = true
	}

	a.metrics = metrics.New()
	f := fetcher.New(fetcher.Options{
		Timeout:            cfg.Crawl.RequestTimeout,
		UserAgent:          cfg.Crawl.UserAgent,
		InsecureSkipVerify: cfg.Crawl.InsecureSkipVerify,
	})

	opts := []crawler.Option{crawler.WithMetrics(a.metrics)}
	if alerter != nil {
		opts = append(opts, crawler.WithAlerter(alerter))
	}
	a.crawler = crawler.New(cfg.SourceList(), f, store, out, crawler.Settings{
		Concurrency:           cfg.Crawl.Concurrency,
		MaxPerSource:          cfg.Bot.MaxNoticesPerRun,
		FetchAttempts:         cfg.Crawl.FetchAttempts,
		FetchBackoff:          cfg.Crawl.FetchBackoff,
		NotifyAttempts:        cfg.Crawl.NotifyAttempts,
		NotifyBackoff:         cfg.Crawl.NotifyBackoff,
		FailureAlertThreshold: cfg.Crawl.FailureAlertThreshold,
	}, opts...)

	return a, nil
}
