package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/brian-an/wisconsin-law-rag/internal/adapters/mcp"
	"github.com/brian-an/wisconsin-law-rag/internal/bootstrap"
	"github.com/brian-an/wisconsin-law-rag/internal/config"
	"github.com/brian-an/wisconsin-law-rag/internal/observability/logging"
)

const version = "0.1.0"

// Stdio MCP server exposing the retrieval pipeline as tools. Logs go
// to stderr; stdout belongs to the protocol.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewStderrLogger("mcp", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go func() {
		err := app.Queue.SubscribeCorpusReindexed(ctx, func(handlerCtx context.Context) error {
			return app.Lexical.Rebuild(handlerCtx)
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("reindex_subscription_failed", "error", err)
		}
	}()

	server := mcpadapter.NewServer(app.Retrieval, version, logger)
	if err := server.ServeStdio(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
