package poller

import (
	"context"
	"sync"
	"time"

	"notice_bot/internal/crawler"
	"notice_bot/internal/logger"

	"github.com/robfig/cron/v3"
)

// Runner - один проход обхода.
type Runner interface {
	Run(ctx context.Context, opts crawler.RunOptions) *crawler.Report
}

// Poller запускает обход сразу при старте и затем с фиксированным интервалом.
// Проход, начавшийся пока предыдущий ещё идёт, пропускается.
type Poller struct {
	runner   Runner
	interval time.Duration
	opts     crawler.RunOptions

	mu   sync.RWMutex
	last *crawler.Report
}

func New(runner Runner, interval time.Duration, opts crawler.RunOptions) *Poller {
	return &Poller{runner: runner, interval: interval, opts: opts}
}

// Last возвращает отчёт последнего завершённого прохода или nil.
func (p *Poller) Last() *crawler.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Start блокируется до отмены ctx и дожидается текущего прохода.
func (p *Poller) Start(ctx context.Context) {
	log := logger.Log.WithFields(map[string]interface{}{
		"service":  "poller",
		"interval": p.interval.String(),
	})

	cronLog := cron.PrintfLogger(logger.Log)
	job := cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).
		Then(cron.FuncJob(func() { p.runOnce(ctx) }))

	c := cron.New(cron.WithLogger(cronLog))
	c.Schedule(cron.Every(p.interval), job)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()
	c.Start()
	log.Info("Poller started")

	<-ctx.Done()
	log.Info("Stopping poller by context")
	<-c.Stop().Done()
	wg.Wait()
}

func (p *Poller) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	logger.Log.Info("Starting new polling cycle")
	report := p.runner.Run(ctx, p.opts)

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()
}
