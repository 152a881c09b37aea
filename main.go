package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/liamtostring/schegen/cli"
)

func main() {
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
