package poller_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"notice_bot/internal/crawler"
	"notice_bot/internal/poller"

	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	runs  atomic.Int32
	dry   atomic.Bool
	delay time.Duration
}

func (r *countingRunner) Run(ctx context.Context, opts crawler.RunOptions) *crawler.Report {
	r.runs.Add(1)
	r.dry.Store(opts.DryRun)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
		}
	}
	return &crawler.Report{DryRun: opts.DryRun, Sources: []crawler.SourceReport{{Key: "phys", Status: crawler.StatusDone}}}
}

func TestPoller_RunsImmediatelyAndStops(t *testing.T) {
	runner := &countingRunner{}
	p := poller.New(runner, time.Hour, crawler.RunOptions{DryRun: true})
	require.Nil(t, p.Last())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.Last() != nil }, 2*time.Second, 10*time.Millisecond)
	require.EqualValues(t, 1, runner.runs.Load())
	require.True(t, runner.dry.Load())
	require.Equal(t, "phys", p.Last().Sources[0].Key)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPoller_RepeatsOnInterval(t *testing.T) {
	runner := &countingRunner{}
	p := poller.New(runner, time.Second, crawler.RunOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Start(ctx)

	require.Eventually(t, func() bool { return runner.runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
}

func TestPoller_SkipsOverlappingRuns(t *testing.T) {
	runner := &countingRunner{delay: 2500 * time.Millisecond}
	p := poller.New(runner, time.Second, crawler.RunOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	go p.Start(ctx)

	time.Sleep(2200 * time.Millisecond)
	require.EqualValues(t, 1, runner.runs.Load(), "ticks during a running pass are skipped")
	cancel()
}
