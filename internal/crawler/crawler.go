package crawler

import (
	"context"
	"fmt"
	"time"

	"notice_bot/internal/db"
	"notice_bot/internal/fetcher"
	"notice_bot/internal/logger"
	"notice_bot/internal/metrics"
	"notice_bot/internal/models"
	"notice_bot/internal/notifier"
	"notice_bot/internal/parser"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// Settings - границы параллелизма и повторов одного прохода.
type Settings struct {
	Concurrency int
	// MaxPerSource ограничивает отправки одного источника за проход; 0 - без ограничения.
	MaxPerSource int

	FetchAttempts  int
	FetchBackoff   time.Duration
	NotifyAttempts int
	NotifyBackoff  time.Duration

	FailureAlertThreshold int
}

type Option func(*Crawler)

// WithAlerter задаёт служебный канал для предупреждений и сводки.
func WithAlerter(a notifier.Alerter) Option {
	return func(c *Crawler) { c.alerter = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// Crawler обходит источники: загрузка, разбор, отбор новых, доставка и фиксация.
// Фиксация записи всегда идёт после подтверждённой доставки.
type Crawler struct {
	sources  []models.Source
	fetcher  fetcher.Fetcher
	store    db.Store
	notifier notifier.Notifier
	settings Settings

	alerter notifier.Alerter
	metrics *metrics.Metrics
}

type RunOptions struct {
	// DryRun: загрузка, разбор и отбор без отправки и без записи в хранилище.
	DryRun bool
}

func New(sources []models.Source, f fetcher.Fetcher, store db.Store, n notifier.Notifier, settings Settings, opts ...Option) *Crawler {
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	if settings.FetchAttempts < 1 {
		settings.FetchAttempts = 4
	}
	if settings.NotifyAttempts < 1 {
		settings.NotifyAttempts = 3
	}
	if settings.FailureAlertThreshold < 1 {
		settings.FailureAlertThreshold = 5
	}

	c := &Crawler{
		sources:  sources,
		fetcher:  f,
		store:    store,
		notifier: n,
		settings: settings,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run выполняет один проход по всем включённым источникам.
// Сбой одного источника не прерывает остальные; каждый попадает в отчёт.
func (c *Crawler) Run(ctx context.Context, opts RunOptions) *Report {
	report := &Report{StartedAt: time.Now(), DryRun: opts.DryRun}

	var enabled []models.Source
	for _, src := range c.sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	report.Sources = make([]SourceReport, len(enabled))

	logger.Log.WithFields(map[string]interface{}{
		"sources":     len(enabled),
		"concurrency": c.settings.Concurrency,
		"dry_run":     opts.DryRun,
	}).Info("Starting crawl pass")

	var g errgroup.Group
	g.SetLimit(c.settings.Concurrency)
	for i, src := range enabled {
		g.Go(func() error {
			report.Sources[i] = c.crawlSource(ctx, src, opts.DryRun)
			return nil
		})
	}
	g.Wait()

	report.FinishedAt = time.Now()
	c.finish(ctx, report)
	return report
}

func (c *Crawler) crawlSource(ctx context.Context, src models.Source, dryRun bool) SourceReport {
	rep := SourceReport{Key: src.Key, Status: StatusDone}
	log := logger.Log.WithFields(map[string]interface{}{
		"source": src.Key,
		"parser": string(src.Kind),
	})

	raw, err := c.fetch(ctx, src, log)
	if err != nil {
		rep.fail(err)
		c.afterSource(ctx, src, &rep, dryRun, log)
		return rep
	}

	p, err := parser.For(src.Kind)
	if err != nil {
		rep.fail(err)
		c.afterSource(ctx, src, &rep, dryRun, log)
		return rep
	}
	page, err := p.Parse(raw, src)
	if err != nil {
		rep.fail(err)
		c.afterSource(ctx, src, &rep, dryRun, log)
		return rep
	}
	rep.Fetched = len(page.Notices)
	rep.Skipped = page.Skipped

	fresh, err := c.store.FilterNew(ctx, src.Key, page.Notices)
	if err != nil {
		rep.fail(err)
		c.afterSource(ctx, src, &rep, dryRun, log)
		return rep
	}
	rep.New = len(fresh)

	toSend := fresh
	if limit := c.settings.MaxPerSource; limit > 0 && len(toSend) > limit {
		rep.Deferred = len(toSend) - limit
		toSend = toSend[:limit]
	}

	if dryRun {
		rep.Pending = toSend
		for _, n := range toSend {
			log.WithFields(map[string]interface{}{
				"external_id": n.ExternalID,
				"title":       n.Title,
			}).Info("[DRY-RUN] Would send notice")
		}
		c.afterSource(ctx, src, &rep, dryRun, log)
		return rep
	}

	for i, n := range toSend {
		msg := notifier.Message{Notice: n, SourceName: src.DisplayName, Channel: src.Channel}
		nlog := log.WithField("external_id", n.ExternalID)

		if err := c.deliver(ctx, msg, nlog); err != nil {
			rep.Failed++
			rep.fail(err)
			// Отказ по содержимому касается только этой записи: остальные идут дальше.
			if !notifier.IsRetryable(err) {
				nlog.Errorf("Delivery rejected, notice left uncommitted: %v", err)
				continue
			}
			nlog.Errorf("Delivery failed, %d notices left for next run: %v", len(toSend)-i-1, err)
			break
		}
		if err := c.commit(ctx, src.Key, n.ExternalID, nlog); err != nil {
			rep.Failed++
			rep.fail(err)
			nlog.Errorf("Commit failed after delivery, notice may be sent again: %v", err)
			break
		}
		rep.Notified++
	}

	c.afterSource(ctx, src, &rep, dryRun, log)
	return rep
}

func retryPolicy(ctx context.Context, initial time.Duration, attempts int) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initial
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// fetch повторяет загрузку: любой сбой транспорта считается временным.
func (c *Crawler) fetch(ctx context.Context, src models.Source, log *logger.Entry) ([]byte, error) {
	var raw []byte
	err := backoff.RetryNotify(func() error {
		b, err := c.fetcher.Fetch(ctx, src)
		if err != nil {
			return err
		}
		raw = b
		return nil
	}, retryPolicy(ctx, c.settings.FetchBackoff, c.settings.FetchAttempts), func(err error, next time.Duration) {
		log.Warnf("Fetch failed, retrying in %s: %v", next, err)
	})
	return raw, err
}

// deliver повторяет отправку только при временной ошибке.
func (c *Crawler) deliver(ctx context.Context, msg notifier.Message, log *logger.Entry) error {
	return backoff.RetryNotify(func() error {
		err := c.notifier.Send(ctx, msg)
		if err != nil && !notifier.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, retryPolicy(ctx, c.settings.NotifyBackoff, c.settings.NotifyAttempts), func(err error, next time.Duration) {
		log.Warnf("Send failed, retrying in %s: %v", next, err)
	})
}

// commit повторяется ровно один раз.
func (c *Crawler) commit(ctx context.Context, sourceKey, externalID string, log *logger.Entry) error {
	err := c.store.Commit(ctx, sourceKey, externalID)
	if err == nil {
		return nil
	}
	log.Warnf("Commit failed, retrying once: %v", err)
	return c.store.Commit(ctx, sourceKey, externalID)
}

// afterSource ведёт счётчик подряд идущих сбоев и пишет итог источника.
func (c *Crawler) afterSource(ctx context.Context, src models.Source, rep *SourceReport, dryRun bool, log *logger.Entry) {
	log = log.WithFields(map[string]interface{}{
		"status":   string(rep.Status),
		"fetched":  rep.Fetched,
		"skipped":  rep.Skipped,
		"new":      rep.New,
		"notified": rep.Notified,
		"failed":   rep.Failed,
		"deferred": rep.Deferred,
	})

	if dryRun {
		log.Info("Crawl complete (dry run)")
		return
	}
	if c.metrics != nil {
		c.metrics.ObserveSource(src.Key, string(rep.Status), rep.Fetched, rep.New, rep.Notified, rep.Failed)
	}

	if rep.Status == StatusDone {
		if err := c.store.RecordSuccess(ctx, src.Key); err != nil {
			log.Warnf("Failed to reset failure counter: %v", err)
		}
		log.Info("Crawl complete")
		return
	}

	count, err := c.store.RecordFailure(ctx, src.Key, rep.Error)
	if err != nil {
		log.Warnf("Failed to record failure: %v", err)
	}
	log.WithField("consecutive_errors", count).Errorf("Crawl failed: %v", rep.Err)

	if count >= c.settings.FailureAlertThreshold {
		rep.alert = fmt.Sprintf("⚠️ 크롤링 경고\n\n소스: %s\n상태: 연속 %d회 실패\n에러: %v", src.Key, count, rep.Err)
	}
}

func (c *Crawler) finish(ctx context.Context, report *Report) {
	summary := report.Summary()
	logger.Log.WithField("duration", report.FinishedAt.Sub(report.StartedAt).String()).Info(summary)

	if report.DryRun {
		return
	}
	if c.metrics != nil {
		c.metrics.ObserveRun(report.FinishedAt.Sub(report.StartedAt))
	}

	// Служебный канал может тормозить; до этого места он не задерживает источники.
	for _, s := range report.Sources {
		if s.alert != "" {
			c.alert(ctx, s.alert)
		}
	}

	fresh, _, failed := report.Totals()
	if fresh > 0 || failed > 0 || len(report.Failed()) > 0 {
		c.alert(ctx, summary)
	}
}

// alert никогда не влияет на основной путь доставки.
func (c *Crawler) alert(ctx context.Context, text string) {
	if c.alerter == nil {
		return
	}
	if err := c.alerter.Alert(ctx, text); err != nil {
		logger.Log.Warnf("Failed to send alert: %v", err)
	}
}
