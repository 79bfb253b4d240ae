package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brian-an/wisconsin-law-rag/internal/bootstrap"
	"github.com/brian-an/wisconsin-law-rag/internal/config"
	"github.com/brian-an/wisconsin-law-rag/internal/observability/logging"
)

// The indexer is a one-shot batch job: scan the corpus directory,
// chunk, embed, swap the stores and announce the reindex.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger("indexer", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if app.IndexUC == nil {
		log.Fatalf("corpus directory not found: %s", cfg.CorpusPath)
	}

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	start := time.Now()
	chunks, err := app.IndexUC.Index(indexCtx)
	if err != nil {
		log.Fatalf("index error: %v", err)
	}
	logger.Info("index_complete", "chunks", chunks, "elapsed", time.Since(start).String())
}
