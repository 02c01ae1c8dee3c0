package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"notice_bot/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Log.Errorf("Command failed: %v", err)
		stop()
		os.Exit(1)
	}
}
