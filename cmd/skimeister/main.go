package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/i474232898/skimeister/cmd/skimeister/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)
}
