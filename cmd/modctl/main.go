// Command modctl runs maintenance tasks against the moderation database
// without going through the HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangang/modsentry/backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("modctl failed")
		stop()
		os.Exit(1)
	}
}
