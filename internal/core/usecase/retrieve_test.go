package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

type fakeLexical struct {
	hits []domain.LexicalHit
	err  error
}

func (f *fakeLexical) Search(_ context.Context, _ string, _ int) ([]domain.LexicalHit, error) {
	return f.hits, f.err
}

func (f *fakeLexical) Rebuild(context.Context) error { return nil }
func (f *fakeLexical) Ready() bool                   { return true }

type fakeEmbedder struct {
	vector []float32
	err    error
	delay  time.Duration
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, _ string) ([]float32, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.vector, f.err
}

type fakeVector struct {
	hits []domain.SemanticHit
	err  error
}

func (f *fakeVector) Search(_ context.Context, _ []float32, _ int) ([]domain.SemanticHit, error) {
	return f.hits, f.err
}

func newPipeline(lex *fakeLexical, emb *fakeEmbedder, vec *fakeVector, cfg PipelineConfig) *RetrieveUseCase {
	resolver := NewCrossRefResolver(newFakeCorpus(), 1, 2, nil)
	assembler := NewContextAssembler(fieldTokens{}, 4000)
	return NewRetrieveUseCase(lex, emb, vec, resolver, assembler, cfg, nil)
}

func TestRetrieveFusesBothRankers(t *testing.T) {
	lex := &fakeLexical{hits: []domain.LexicalHit{lexHit("a", 8.0), lexHit("b", 4.0)}}
	emb := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	vec := &fakeVector{hits: []domain.SemanticHit{semHit("b", 0.9), semHit("c", 0.7)}}
	uc := newPipeline(lex, emb, vec, PipelineConfig{})

	result, err := uc.Retrieve(context.Background(), "what is battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Degraded {
		t.Fatalf("pipeline must not be degraded when both rankers succeed")
	}
	if len(result.Ranked) != 3 {
		t.Fatalf("expected union of 3 chunks, got %d", len(result.Ranked))
	}
	if result.Ranked[0].Chunk.ID != "b" {
		t.Fatalf("double-ranked chunk must lead, got %q", result.Ranked[0].Chunk.ID)
	}
	if result.Context.Text == "" {
		t.Fatalf("expected assembled context text")
	}
}

func TestRetrieveDegradesToLexicalOnSemanticFailure(t *testing.T) {
	lex := &fakeLexical{hits: []domain.LexicalHit{lexHit("a", 8.0), lexHit("b", 4.0)}}
	emb := &fakeEmbedder{err: errors.New("ollama connection refused")}
	vec := &fakeVector{}
	uc := newPipeline(lex, emb, vec, PipelineConfig{})

	result, err := uc.Retrieve(context.Background(), "what is battery")
	if err != nil {
		t.Fatalf("semantic failure must not fail the request: %v", err)
	}

	if !result.Degraded {
		t.Fatalf("expected degraded flag")
	}
	if !result.Signals.Degraded {
		t.Fatalf("degradation must reach the confidence signals")
	}
	if len(result.Ranked) != 2 {
		t.Fatalf("expected lexical-only ranking of 2 chunks, got %d", len(result.Ranked))
	}
	for _, r := range result.Ranked {
		if r.SemanticScore != nil {
			t.Fatalf("degraded results must carry no semantic score, got %+v", r)
		}
	}
}

func TestRetrieveDegradesOnSemanticTimeout(t *testing.T) {
	lex := &fakeLexical{hits: []domain.LexicalHit{lexHit("a", 8.0)}}
	emb := &fakeEmbedder{vector: []float32{0.1}, delay: 200 * time.Millisecond}
	vec := &fakeVector{hits: []domain.SemanticHit{semHit("a", 0.9)}}
	uc := newPipeline(lex, emb, vec, PipelineConfig{SemanticTimeout: 10 * time.Millisecond})

	result, err := uc.Retrieve(context.Background(), "what is battery")
	if err != nil {
		t.Fatalf("semantic timeout must not fail the request: %v", err)
	}
	if !result.Degraded {
		t.Fatalf("expected degradation after embed timeout")
	}
	if len(result.Ranked) != 1 || result.Ranked[0].Chunk.ID != "a" {
		t.Fatalf("expected lexical ranking to survive, got %+v", result.Ranked)
	}
}

func TestRetrieveLexicalFailureIsFatal(t *testing.T) {
	lex := &fakeLexical{err: errors.New("index not built")}
	emb := &fakeEmbedder{vector: []float32{0.1}}
	vec := &fakeVector{hits: []domain.SemanticHit{semHit("a", 0.9)}}
	uc := newPipeline(lex, emb, vec, PipelineConfig{})

	_, err := uc.Retrieve(context.Background(), "what is battery")
	if err == nil {
		t.Fatalf("expected error when the lexical index fails")
	}
	if !domain.IsKind(err, domain.ErrCorpusUnavailable) {
		t.Fatalf("expected corpus-unavailable kind, got %v", err)
	}
}

func TestRetrieveEmptyRankersYieldZeroConfidence(t *testing.T) {
	uc := newPipeline(&fakeLexical{}, &fakeEmbedder{vector: []float32{0.1}}, &fakeVector{}, PipelineConfig{})

	result, err := uc.Retrieve(context.Background(), "something the corpus has never seen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Confidence != 0 {
		t.Fatalf("expected confidence 0.0, got %v", result.Confidence)
	}
	if len(result.Ranked) != 0 || result.Context.Text != "" {
		t.Fatalf("expected empty ranking and context, got %+v", result)
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	uc := newPipeline(&fakeLexical{}, &fakeEmbedder{}, &fakeVector{}, PipelineConfig{})

	_, err := uc.Retrieve(context.Background(), "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input kind, got %v", err)
	}
}

func TestRetrieveCanceledContextReturnsNoPartialResults(t *testing.T) {
	lex := &fakeLexical{hits: []domain.LexicalHit{lexHit("a", 8.0)}}
	emb := &fakeEmbedder{vector: []float32{0.1}}
	vec := &fakeVector{hits: []domain.SemanticHit{semHit("a", 0.9)}}
	uc := newPipeline(lex, emb, vec, PipelineConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := uc.Retrieve(ctx, "what is battery")
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
	if result != nil {
		t.Fatalf("canceled request must not surface partial results, got %+v", result)
	}
}

func TestRetrieveTrimsToTopK(t *testing.T) {
	var hits []domain.LexicalHit
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		hits = append(hits, lexHit(id, float64(10-len(hits))))
	}
	lex := &fakeLexical{hits: hits}
	uc := newPipeline(lex, &fakeEmbedder{vector: []float32{0.1}}, &fakeVector{}, PipelineConfig{TopK: 3})

	result, err := uc.Retrieve(context.Background(), "what is battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Ranked) != 3 {
		t.Fatalf("expected top 3 results, got %d", len(result.Ranked))
	}
}

func TestSearchReturnsRankedResultsOnly(t *testing.T) {
	lex := &fakeLexical{hits: []domain.LexicalHit{lexHit("a", 8.0), lexHit("b", 4.0)}}
	emb := &fakeEmbedder{vector: []float32{0.1}}
	vec := &fakeVector{hits: []domain.SemanticHit{semHit("a", 0.9)}}
	uc := newPipeline(lex, emb, vec, PipelineConfig{})

	results, expanded, err := uc.Search(context.Background(), "OWI penalties", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected limit applied, got %d results", len(results))
	}
	if results[0].Chunk.ID != "a" {
		t.Fatalf("expected top fused chunk, got %q", results[0].Chunk.ID)
	}
	if expanded.Original != "OWI penalties" {
		t.Fatalf("expected expanded query returned, got %+v", expanded)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	uc := newPipeline(&fakeLexical{}, &fakeEmbedder{}, &fakeVector{}, PipelineConfig{})

	_, _, err := uc.Search(context.Background(), "", 5)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input kind, got %v", err)
	}
}
