package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

type fakeRetrieval struct {
	result *domain.RetrievalResult
	err    error
}

func (f *fakeRetrieval) Retrieve(context.Context, string) (*domain.RetrievalResult, error) {
	return f.result, f.err
}

func (f *fakeRetrieval) Search(context.Context, string, int) ([]domain.RankedResult, domain.ExpandedQuery, error) {
	if f.err != nil {
		return nil, domain.ExpandedQuery{}, f.err
	}
	return f.result.Ranked, f.result.Query, nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) GenerateAnswer(context.Context, string, domain.ContextWindow) (string, error) {
	return f.text, f.err
}

func retrievalWithRanked(confidence float64) *domain.RetrievalResult {
	return &domain.RetrievalResult{
		Ranked: []domain.RankedResult{{Chunk: domain.Chunk{ID: "c1"}}},
		Context: domain.ContextWindow{
			Text:    "[Chapter 940]\nbody",
			Sources: []domain.SourceRef{{ChunkID: "c1"}},
		},
		Confidence: confidence,
	}
}

func TestAnswerAppendsDisclaimer(t *testing.T) {
	uc := NewAnswerUseCase(
		&fakeRetrieval{result: retrievalWithRanked(0.8)},
		&fakeGenerator{text: "Battery is defined in Wis. Stat. 940.19."},
		0.6,
	)

	answer, err := uc.Answer(context.Background(), "what is battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(answer.Text, Disclaimer) {
		t.Fatalf("answer must end with the disclaimer, got %q", answer.Text)
	}
	if answer.LowConf {
		t.Fatalf("confidence 0.8 must not be flagged low")
	}
	if len(answer.Sources) != 1 || answer.Sources[0].ChunkID != "c1" {
		t.Fatalf("expected context sources propagated, got %+v", answer.Sources)
	}
}

func TestAnswerFlagsLowConfidence(t *testing.T) {
	uc := NewAnswerUseCase(
		&fakeRetrieval{result: retrievalWithRanked(0.35)},
		&fakeGenerator{text: "answer"},
		0.6,
	)

	answer, err := uc.Answer(context.Background(), "obscure question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !answer.LowConf {
		t.Fatalf("confidence 0.35 must be flagged low against threshold 0.6")
	}
}

func TestAnswerNoResultsShortCircuitsGeneration(t *testing.T) {
	uc := NewAnswerUseCase(
		&fakeRetrieval{result: &domain.RetrievalResult{}},
		&fakeGenerator{err: errors.New("generator must not be called")},
		0.6,
	)

	answer, err := uc.Answer(context.Background(), "nothing matches this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer.Confidence != 0 || !answer.LowConf {
		t.Fatalf("no-results answer must have zero confidence and low flag, got %+v", answer)
	}
	if !strings.Contains(answer.Text, "could not find relevant information") {
		t.Fatalf("expected canned no-results text, got %q", answer.Text)
	}
	if !strings.HasSuffix(answer.Text, Disclaimer) {
		t.Fatalf("no-results answer still carries the disclaimer")
	}
}

func TestAnswerPropagatesRetrievalError(t *testing.T) {
	uc := NewAnswerUseCase(
		&fakeRetrieval{err: domain.WrapError(domain.ErrCorpusUnavailable, "lexical search", errors.New("down"))},
		&fakeGenerator{},
		0.6,
	)

	_, err := uc.Answer(context.Background(), "what is battery")
	if !domain.IsKind(err, domain.ErrCorpusUnavailable) {
		t.Fatalf("expected corpus-unavailable kind, got %v", err)
	}
}

func TestAnswerPropagatesGenerationError(t *testing.T) {
	uc := NewAnswerUseCase(
		&fakeRetrieval{result: retrievalWithRanked(0.8)},
		&fakeGenerator{err: errors.New("model overloaded")},
		0.6,
	)

	_, err := uc.Answer(context.Background(), "what is battery")
	if err == nil {
		t.Fatalf("expected generation error surfaced")
	}
}
