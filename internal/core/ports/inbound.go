package ports

import (
	"context"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

// RetrievalService is the inbound contract for the retrieval pipeline.
// Search exposes ranked/fused/boosted output without context assembly
// or generation, for debugging and evaluation.
type RetrievalService interface {
	Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error)
	Search(ctx context.Context, query string, limit int) ([]domain.RankedResult, domain.ExpandedQuery, error)
}

// AnswerService is the inbound contract for question answering.
type AnswerService interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}
