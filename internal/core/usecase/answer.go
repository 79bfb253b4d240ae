package usecase

import (
	"context"
	"fmt"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
	"github.com/brian-an/wisconsin-law-rag/internal/core/ports"
)

// Disclaimer is appended to every generated answer.
const Disclaimer = "Disclaimer: This system provides legal information, not formal legal " +
	"advice. Always verify with current statutes."

const noResultsAnswer = "I could not find relevant information in the available legal documents " +
	"to answer your question. Please try rephrasing or ask about a specific " +
	"Wisconsin statute or policy."

// AnswerUseCase runs retrieval and hands the assembled context to the
// generation collaborator. Prose generation, safety flags beyond the
// low-confidence marker, and disclaimer wording live outside the
// retrieval core.
type AnswerUseCase struct {
	retrieval    ports.RetrievalService
	generator    ports.AnswerGenerator
	lowThreshold float64
}

func NewAnswerUseCase(retrieval ports.RetrievalService, generator ports.AnswerGenerator, lowThreshold float64) *AnswerUseCase {
	if lowThreshold <= 0 || lowThreshold > 1 {
		lowThreshold = 0.6
	}
	return &AnswerUseCase{
		retrieval:    retrieval,
		generator:    generator,
		lowThreshold: lowThreshold,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	result, err := uc.retrieval.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	if len(result.Ranked) == 0 {
		return &domain.Answer{
			Text:       noResultsAnswer + "\n\n" + Disclaimer,
			Sources:    []domain.SourceRef{},
			Confidence: 0.0,
			LowConf:    true,
			Disclaimer: Disclaimer,
		}, nil
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, result.Context)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:       text + "\n\n" + Disclaimer,
		Sources:    result.Context.Sources,
		Confidence: result.Confidence,
		LowConf:    result.Confidence < uc.lowThreshold,
		Disclaimer: Disclaimer,
	}, nil
}
