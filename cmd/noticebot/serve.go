package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"notice_bot/internal/crawler"
	"notice_bot/internal/logger"
	"notice_bot/internal/poller"
	"notice_bot/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Crawl on a fixed interval and expose health, report and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := root.cfg

			a, err := buildApp(ctx, cfg, dryRun)
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Log.Info("Application stopped")

			p := poller.New(a.crawler, cfg.Crawl.Interval, crawler.RunOptions{DryRun: a.dryRun})
			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           server.NewServer(a.store, p).Routes(a.metrics.Handler()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			pollCtx, stopPolling := context.WithCancel(ctx)
			defer stopPolling()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Start(pollCtx)
			}()

			errCh := make(chan error, 1)
			go func() {
				logger.Log.Infof("Starting HTTP server on %s", cfg.HTTP.Addr)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err = <-errCh:
				logger.Log.Errorf("Server error: %v", err)
			}

			logger.Log.Info("Shutting down...")
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if serr := srv.Shutdown(ctxShutdown); serr != nil {
				logger.Log.Errorf("Forced shutdown: %v", serr)
			}

			stopPolling()
			wg.Wait()
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "never send or commit")
	return cmd
}
