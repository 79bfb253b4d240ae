package lexical

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

type stubCorpus struct {
	chunks []domain.Chunk
	err    error
}

func (s *stubCorpus) GetByID(_ context.Context, id string) (*domain.Chunk, error) {
	for _, c := range s.chunks {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, domain.ErrChunkNotFound
}

func (s *stubCorpus) ListAll(context.Context) ([]domain.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubCorpus) Count(context.Context) (int, error) { return len(s.chunks), nil }

func (s *stubCorpus) FindByStatuteNumber(context.Context, string, int) ([]domain.Chunk, error) {
	return nil, nil
}

func (s *stubCorpus) FindByChapterNumber(context.Context, string, int) ([]domain.Chunk, error) {
	return nil, nil
}

func (s *stubCorpus) FindByCaseCitation(context.Context, string, int) ([]domain.Chunk, error) {
	return nil, nil
}

func builtIndex(t *testing.T, chunks ...domain.Chunk) *Index {
	t.Helper()
	idx := NewIndex(&stubCorpus{chunks: chunks}, 1.5, 0.75, nil)
	if err := idx.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	return idx
}

func TestTokenizeKeepsStatuteNumbersWhole(t *testing.T) {
	got := Tokenize("Under § 346.63(1)(a), operating while intoxicated.")
	want := []string{"under", "346.63", "1", "a", "operating", "while", "intoxicated"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokenize mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestTokenizeSplitsSentenceDots(t *testing.T) {
	got := Tokenize("end.Start again")
	want := []string{"end", "start", "again"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokenize mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestSearchBeforeRebuildFails(t *testing.T) {
	idx := NewIndex(&stubCorpus{}, 1.5, 0.75, nil)

	_, err := idx.Search(context.Background(), "battery", 10)
	if !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady, got %v", err)
	}
	if idx.Ready() {
		t.Fatalf("index must not report ready before rebuild")
	}
}

func TestSearchRanksTermFrequency(t *testing.T) {
	idx := builtIndex(t,
		domain.Chunk{ID: "a", Text: "battery battery battery is a crime"},
		domain.Chunk{ID: "b", Text: "battery is mentioned once here in passing"},
		domain.Chunk{ID: "c", Text: "theft has nothing to do with it"},
	)

	hits, err := idx.Search(context.Background(), "battery", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Chunk.ID != "a" {
		t.Fatalf("higher term frequency must rank first, got %q", hits[0].Chunk.ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("scores must be strictly ordered: %v <= %v", hits[0].Score, hits[1].Score)
	}
}

func TestSearchExactStatuteNumber(t *testing.T) {
	idx := builtIndex(t,
		domain.Chunk{ID: "owi", Text: "Section 346.63 prohibits operating while intoxicated"},
		domain.Chunk{ID: "other", Text: "Section 940.19 defines battery"},
	)

	hits, err := idx.Search(context.Background(), "346.63", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.ID != "owi" {
		t.Fatalf("statute number must match its own chunk only, got %+v", hits)
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	idx := builtIndex(t,
		domain.Chunk{ID: "a", Text: "arrest procedure"},
		domain.Chunk{ID: "b", Text: "arrest warrant"},
		domain.Chunk{ID: "c", Text: "arrest record"},
	)

	hits, err := idx.Search(context.Background(), "arrest", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(hits))
	}
}

func TestSearchNoMatchReturnsEmpty(t *testing.T) {
	idx := builtIndex(t, domain.Chunk{ID: "a", Text: "battery statute"})

	hits, err := idx.Search(context.Background(), "zoning variance", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %+v", hits)
	}
}

func TestRebuildSwapsCorpus(t *testing.T) {
	corpus := &stubCorpus{chunks: []domain.Chunk{{ID: "a", Text: "battery"}}}
	idx := NewIndex(corpus, 1.5, 0.75, nil)
	if err := idx.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	corpus.chunks = []domain.Chunk{{ID: "b", Text: "theft"}}
	if err := idx.Rebuild(context.Background()); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	hits, err := idx.Search(context.Background(), "battery", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("old corpus must be gone after rebuild, got %+v", hits)
	}
	hits, _ = idx.Search(context.Background(), "theft", 10)
	if len(hits) != 1 || hits[0].Chunk.ID != "b" {
		t.Fatalf("new corpus must be searchable, got %+v", hits)
	}
}

func TestRebuildCorpusFailure(t *testing.T) {
	idx := NewIndex(&stubCorpus{err: errors.New("db down")}, 1.5, 0.75, nil)

	err := idx.Rebuild(context.Background())
	if !domain.IsKind(err, domain.ErrCorpusUnavailable) {
		t.Fatalf("expected corpus-unavailable kind, got %v", err)
	}
}
