package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{})
	if err := runner.app().Run(ctx, os.Args); err != nil {
		runner.logger.Fatalf("application error: %v", err)
	}
}
