package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brian-an/wisconsin-law-rag/internal/config"
	"github.com/brian-an/wisconsin-law-rag/internal/core/ports"
	"github.com/brian-an/wisconsin-law-rag/internal/core/usecase"
	"github.com/brian-an/wisconsin-law-rag/internal/infrastructure/chunking"
	"github.com/brian-an/wisconsin-law-rag/internal/infrastructure/corpusfs"
	"github.com/brian-an/wisconsin-law-rag/internal/infrastructure/lexical"
	"github.com/brian-an/wisconsin-law-rag/internal/infrastructure/llm/ollama"
	"github.com/brian-an/wisconsin-law-rag/internal/infrastructure/queue/nats"
	"github.com/brian-an/wisconsin-law-rag/internal/infrastructure/repository/postgres"
	"github.com/brian-an/wisconsin-law-rag/internal/infrastructure/resilience"
	"github.com/brian-an/wisconsin-law-rag/internal/infrastructure/tokens"
	"github.com/brian-an/wisconsin-law-rag/internal/infrastructure/vector/qdrant"
)

// App wires every adapter behind the core ports. The serving surfaces
// (HTTP router, MCP server) and the indexer binary all build on top of
// the same wiring.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Corpus    ports.CorpusStore
	Lexical   ports.LexicalSearcher
	Queue     *nats.Queue
	Retrieval ports.RetrievalService
	Answers   ports.AnswerService
	IndexUC   *usecase.IndexCorpusUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	corpus := postgres.NewChunkRepository(db)
	if err := corpus.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSReindexSubj, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init reindex queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).
		WithTemperature(cfg.LLMTemperature).
		WithExecutor(executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	counter := tokens.NewCounter(logger)

	index := lexical.NewIndex(corpus, cfg.BM25K1, cfg.BM25B, logger)
	if err := index.Rebuild(ctx); err != nil {
		// An empty or unreachable corpus at startup is survivable; the
		// reindex subscription rebuilds once the corpus lands.
		logger.Warn("initial_index_build_failed", "error", err)
	}

	resolver := usecase.NewCrossRefResolver(corpus, cfg.CrossRefMaxDepth, cfg.CrossRefMaxPerRef, logger)
	assembler := usecase.NewContextAssembler(counter, cfg.ContextTokenBudget)

	retrieveUC := usecase.NewRetrieveUseCase(index, embedder, vectorDB, resolver, assembler, usecase.PipelineConfig{
		Candidates:      cfg.RetrievalCandidates,
		TopK:            cfg.RetrievalTopK,
		RRFK:            cfg.FusionRRFK,
		SemanticTimeout: time.Duration(cfg.SemanticTimeoutMS) * time.Millisecond,
		Boost: usecase.BoostWeights{
			PolicyLocal:  cfg.BoostPolicyLocal,
			StateJuris:   cfg.BoostStateJuris,
			ExactStatute: cfg.BoostExactStatute,
			ChapterHint:  cfg.BoostChapterHint,
		},
		Confidence: usecase.ConfidenceWeights{
			Base:          cfg.ConfidenceBase,
			TopicWeight:   cfg.ConfidenceTopicWeight,
			TopScore:      cfg.ConfidenceTopScoreWeight,
			Variance:      cfg.ConfidenceVarianceWeight,
			DiversityStep: cfg.ConfidenceDiversityStep,
			DiversityCap:  cfg.ConfidenceDiversityCap,
		},
	}, logger)
	answerUC := usecase.NewAnswerUseCase(retrieveUC, generator, cfg.ConfidenceLowThreshold)

	scanner, scanErr := corpusfs.New(cfg.CorpusPath)
	var indexUC *usecase.IndexCorpusUseCase
	if scanErr != nil {
		// The api and mcp binaries run without a corpus directory; only
		// the indexer needs one and it checks IndexUC at startup.
		logger.Debug("corpus_dir_unavailable", "path", cfg.CorpusPath, "error", scanErr)
	} else {
		splitter := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
		indexUC = usecase.NewIndexCorpusUseCase(scanner, splitter, corpus, embedder, vectorDB, counter, queue, logger)
	}

	return &App{
		Config: cfg,
		Logger: logger,

		Corpus:    corpus,
		Lexical:   index,
		Queue:     queue,
		Retrieval: retrieveUC,
		Answers:   answerUC,
		IndexUC:   indexUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
