package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
	"github.com/brian-an/wisconsin-law-rag/internal/core/ports"
)

var errEmptyQuery = errors.New("query must not be empty")

// PipelineConfig carries every externally tunable retrieval knob.
type PipelineConfig struct {
	Candidates      int
	TopK            int
	RRFK            int
	SemanticTimeout time.Duration
	Boost           BoostWeights
	Confidence      ConfidenceWeights
}

func (c PipelineConfig) normalize() PipelineConfig {
	out := c
	if out.Candidates <= 0 {
		out.Candidates = 20
	}
	if out.TopK <= 0 {
		out.TopK = 8
	}
	if out.RRFK <= 0 {
		out.RRFK = 60
	}
	if out.SemanticTimeout <= 0 {
		out.SemanticTimeout = 5 * time.Second
	}
	out.Confidence.RRFK = out.RRFK
	return out
}

// RetrieveUseCase orchestrates the retrieval pipeline: expansion,
// concurrent lexical and semantic ranking, RRF fusion, relevance
// boosting, cross-reference expansion, context assembly and confidence
// scoring. Generation is a separate collaborator (AnswerUseCase).
type RetrieveUseCase struct {
	lexical   ports.LexicalSearcher
	embedder  ports.Embedder
	vector    ports.VectorSearcher
	resolver  *CrossRefResolver
	assembler *ContextAssembler
	cfg       PipelineConfig
	logger    *slog.Logger
}

func NewRetrieveUseCase(
	lexical ports.LexicalSearcher,
	embedder ports.Embedder,
	vector ports.VectorSearcher,
	resolver *CrossRefResolver,
	assembler *ContextAssembler,
	cfg PipelineConfig,
	logger *slog.Logger,
) *RetrieveUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		lexical:   lexical,
		embedder:  embedder,
		vector:    vector,
		resolver:  resolver,
		assembler: assembler,
		cfg:       cfg.normalize(),
		logger:    logger,
	}
}

type lexicalOutcome struct {
	hits []domain.LexicalHit
	err  error
}

type semanticOutcome struct {
	hits []domain.SemanticHit
	err  error
}

// rank runs both rankers concurrently and joins them. A lexical failure
// is fatal (the corpus index is local and must work); a semantic
// failure degrades the pipeline to lexical-only ranking.
func (uc *RetrieveUseCase) rank(ctx context.Context, query domain.ExpandedQuery) ([]domain.RankedResult, bool, error) {
	lexCh := make(chan lexicalOutcome, 1)
	semCh := make(chan semanticOutcome, 1)

	go func() {
		hits, err := uc.lexical.Search(ctx, query.CorrectedText, uc.cfg.Candidates)
		lexCh <- lexicalOutcome{hits: hits, err: err}
	}()

	go func() {
		semCtx, cancel := context.WithTimeout(ctx, uc.cfg.SemanticTimeout)
		defer cancel()

		vectorQuery, err := uc.embedder.EmbedQuery(semCtx, query.SemanticQuery)
		if err != nil {
			semCh <- semanticOutcome{err: domain.WrapError(domain.ErrSemanticUnavailable, "embed query", err)}
			return
		}
		hits, err := uc.vector.Search(semCtx, vectorQuery, uc.cfg.Candidates)
		if err != nil {
			semCh <- semanticOutcome{err: domain.WrapError(domain.ErrSemanticUnavailable, "vector search", err)}
			return
		}
		semCh <- semanticOutcome{hits: hits}
	}()

	lex := <-lexCh
	sem := <-semCh

	// Never surface partial results for a canceled request.
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if lex.err != nil {
		return nil, false, domain.WrapError(domain.ErrCorpusUnavailable, "lexical search", lex.err)
	}

	degraded := false
	if sem.err != nil {
		degraded = true
		uc.logger.Warn("semantic_ranking_degraded", "error", sem.err)
		sem.hits = nil
	}

	fused := fuseRRF(lex.hits, sem.hits, uc.cfg.RRFK)
	boosted := applyRelevanceBoost(fused, query, uc.cfg.Boost)
	return boosted, degraded, nil
}

// Search is the search-only entry point: ranked, fused, boosted results
// with the expanded query, no context assembly or generation.
func (uc *RetrieveUseCase) Search(ctx context.Context, query string, limit int) ([]domain.RankedResult, domain.ExpandedQuery, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ExpandedQuery{}, domain.WrapError(domain.ErrInvalidInput, "search", errEmptyQuery)
	}
	if limit <= 0 {
		limit = uc.cfg.Candidates
	}

	expanded := ExpandQuery(query)
	boosted, _, err := uc.rank(ctx, expanded)
	if err != nil {
		return nil, expanded, err
	}
	return trimResults(boosted, limit), expanded, nil
}

// Retrieve runs the full pipeline and returns the assembled context
// with its confidence score.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", errEmptyQuery)
	}

	start := time.Now()
	expanded := ExpandQuery(query)

	boosted, degraded, err := uc.rank(ctx, expanded)
	if err != nil {
		return nil, err
	}

	if len(boosted) == 0 {
		// No overlap from either ranker: empty context, zero
		// confidence, and the caller decides how to respond.
		return &domain.RetrievalResult{
			Query:    expanded,
			Signals:  domain.ConfidenceSignals{Degraded: degraded},
			Degraded: degraded,
		}, nil
	}

	top := trimResults(boosted, uc.cfg.TopK)

	// Signals come from the directly-ranked chunks only, before the
	// citation walk widens the set.
	signals := deriveConfidenceSignals(top, expanded, degraded)
	confidence := scoreConfidence(signals, uc.cfg.Confidence)

	seeds := make([]domain.Chunk, 0, len(top))
	for _, r := range top {
		seeds = append(seeds, r.Chunk)
	}
	crossRefs, edges := uc.resolver.Expand(ctx, seeds)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	window := uc.assembler.Assemble(top, crossRefs)

	uc.logger.Info("retrieval_complete",
		"candidates", len(boosted),
		"admitted", len(window.Sources),
		"cross_refs", len(crossRefs),
		"context_tokens", window.TotalTokens,
		"confidence", confidence,
		"degraded", degraded,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	return &domain.RetrievalResult{
		Query:      expanded,
		Ranked:     top,
		CrossRefs:  crossRefs,
		Edges:      edges,
		Context:    window,
		Signals:    signals,
		Confidence: confidence,
		Degraded:   degraded,
	}, nil
}
