package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/brian-an/wisconsin-law-rag/internal/adapters/http"
	"github.com/brian-an/wisconsin-law-rag/internal/bootstrap"
	"github.com/brian-an/wisconsin-law-rag/internal/config"
	"github.com/brian-an/wisconsin-law-rag/internal/observability/logging"
	"github.com/brian-an/wisconsin-law-rag/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	// Rebuild the lexical index whenever the indexer announces a new
	// corpus.
	go func() {
		err := app.Queue.SubscribeCorpusReindexed(ctx, func(handlerCtx context.Context) error {
			rebuildCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
			defer cancel()
			return app.Lexical.Rebuild(rebuildCtx)
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("reindex_subscription_failed", "error", err)
		}
	}()

	serverMetrics := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(app.Answers, app.Retrieval, app.Corpus, serverMetrics, httpadapter.Options{
		Service:          "api",
		RateLimitRPS:     cfg.APIRateLimitRPS,
		RateLimitBurst:   cfg.APIRateLimitBurst,
		MaxInFlight:      cfg.APIMaxInFlight,
		BackpressureWait: time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
