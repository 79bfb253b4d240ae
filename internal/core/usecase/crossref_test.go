package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

type fakeCorpus struct {
	chunks  map[string]domain.Chunk
	failAll bool
}

func newFakeCorpus(chunks ...domain.Chunk) *fakeCorpus {
	m := make(map[string]domain.Chunk, len(chunks))
	for _, c := range chunks {
		m[c.ID] = c
	}
	return &fakeCorpus{chunks: m}
}

func (f *fakeCorpus) GetByID(_ context.Context, id string) (*domain.Chunk, error) {
	if f.failAll {
		return nil, errors.New("corpus down")
	}
	c, ok := f.chunks[id]
	if !ok {
		return nil, domain.ErrChunkNotFound
	}
	return &c, nil
}

func (f *fakeCorpus) ListAll(_ context.Context) ([]domain.Chunk, error) {
	if f.failAll {
		return nil, errors.New("corpus down")
	}
	out := make([]domain.Chunk, 0, len(f.chunks))
	for _, c := range f.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCorpus) Count(_ context.Context) (int, error) {
	return len(f.chunks), nil
}

func (f *fakeCorpus) findBy(match func(domain.Chunk) bool, limit int) []domain.Chunk {
	var out []domain.Chunk
	for _, c := range f.chunks {
		if match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeCorpus) FindByStatuteNumber(_ context.Context, statute string, limit int) ([]domain.Chunk, error) {
	if f.failAll {
		return nil, errors.New("corpus down")
	}
	return f.findBy(func(c domain.Chunk) bool {
		for _, s := range c.StatuteList() {
			if s == statute {
				return true
			}
		}
		return false
	}, limit), nil
}

func (f *fakeCorpus) FindByChapterNumber(_ context.Context, chapter string, limit int) ([]domain.Chunk, error) {
	if f.failAll {
		return nil, errors.New("corpus down")
	}
	return f.findBy(func(c domain.Chunk) bool {
		for _, ch := range c.ChapterList() {
			if ch == chapter {
				return true
			}
		}
		return false
	}, limit), nil
}

func (f *fakeCorpus) FindByCaseCitation(_ context.Context, citation string, limit int) ([]domain.Chunk, error) {
	if f.failAll {
		return nil, errors.New("corpus down")
	}
	return f.findBy(func(c domain.Chunk) bool {
		for _, cite := range c.CitationList() {
			if cite == citation {
				return true
			}
		}
		return false
	}, limit), nil
}

func TestDetectCrossReferencesPatternFamilies(t *testing.T) {
	text := "Liability attaches under § 940.01. See also § 939.05 for party " +
		"to a crime. Chapter 943 governs property crimes, per State v. Doe, " +
		"2023 WI App 45."

	refs := detectCrossReferences(text)

	want := map[string]bool{"940.01": true, "939.05": true, "943": true, "2023 WI App 45": true}
	if len(refs) != len(want) {
		t.Fatalf("expected %d refs, got %v", len(want), refs)
	}
	for _, r := range refs {
		if !want[r] {
			t.Fatalf("unexpected ref %q in %v", r, refs)
		}
	}
}

func TestDetectCrossReferencesDeduplicates(t *testing.T) {
	text := "see § 940.01 and see also § 940.01 pursuant to § 940.01 applies"

	refs := detectCrossReferences(text)

	count := 0
	for _, r := range refs {
		if r == "940.01" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected 940.01 once, got %v", refs)
	}
}

func TestCrossRefResolverFollowsStatuteCitation(t *testing.T) {
	seed := domain.Chunk{ID: "c1", Text: "First degree homicide, see also § 939.05.", StatuteNumbers: "940.01"}
	target := domain.Chunk{ID: "c2", Text: "Party to a crime.", StatuteNumbers: "939.05"}
	resolver := NewCrossRefResolver(newFakeCorpus(seed, target), 1, 2, nil)

	found, edges := resolver.Expand(context.Background(), []domain.Chunk{seed})

	if len(found) != 1 || found[0].Chunk.ID != "c2" {
		t.Fatalf("expected c2 pulled at depth 1, got %+v", found)
	}
	if found[0].Depth != 1 {
		t.Fatalf("expected depth 1, got %d", found[0].Depth)
	}
	if len(edges) != 1 || edges[0].FromChunkID != "c1" || edges[0].CitationText != "939.05" {
		t.Fatalf("unexpected edges %+v", edges)
	}
}

func TestCrossRefResolverTerminatesOnCycle(t *testing.T) {
	a := domain.Chunk{ID: "a", Text: "see also § 20.02", StatuteNumbers: "10.01"}
	b := domain.Chunk{ID: "b", Text: "see also § 10.01", StatuteNumbers: "20.02"}
	resolver := NewCrossRefResolver(newFakeCorpus(a, b), 5, 2, nil)

	found, _ := resolver.Expand(context.Background(), []domain.Chunk{a})

	if len(found) != 1 || found[0].Chunk.ID != "b" {
		t.Fatalf("cycle must resolve b exactly once, got %+v", found)
	}
}

func TestCrossRefResolverHonorsDepthBound(t *testing.T) {
	a := domain.Chunk{ID: "a", Text: "see also § 20.02", StatuteNumbers: "10.01"}
	b := domain.Chunk{ID: "b", Text: "see also § 30.03", StatuteNumbers: "20.02"}
	c := domain.Chunk{ID: "c", Text: "terminal", StatuteNumbers: "30.03"}
	corpus := newFakeCorpus(a, b, c)

	shallow := NewCrossRefResolver(corpus, 1, 2, nil)
	found, _ := shallow.Expand(context.Background(), []domain.Chunk{a})
	if len(found) != 1 {
		t.Fatalf("depth 1 walk must stop at b, got %+v", found)
	}

	deep := NewCrossRefResolver(corpus, 2, 2, nil)
	found, _ = deep.Expand(context.Background(), []domain.Chunk{a})
	if len(found) != 2 {
		t.Fatalf("depth 2 walk must reach c, got %+v", found)
	}
	if found[1].Chunk.ID != "c" || found[1].Depth != 2 {
		t.Fatalf("expected c at depth 2, got %+v", found[1])
	}
}

func TestCrossRefResolverDropsUnresolvedSilently(t *testing.T) {
	seed := domain.Chunk{ID: "c1", Text: "see also § 999.99 which does not exist"}
	resolver := NewCrossRefResolver(newFakeCorpus(seed), 1, 2, nil)

	found, edges := resolver.Expand(context.Background(), []domain.Chunk{seed})

	if len(found) != 0 {
		t.Fatalf("unresolved citation must yield no chunks, got %+v", found)
	}
	if len(edges) != 1 || len(edges[0].ResolvedChunkIDs) != 0 {
		t.Fatalf("expected one unresolved edge, got %+v", edges)
	}
}

func TestCrossRefResolverSkipsSupersededTargets(t *testing.T) {
	seed := domain.Chunk{ID: "c1", Text: "see also § 939.05"}
	old := domain.Chunk{ID: "c2", StatuteNumbers: "939.05", Superseded: true}
	resolver := NewCrossRefResolver(newFakeCorpus(seed, old), 1, 2, nil)

	found, _ := resolver.Expand(context.Background(), []domain.Chunk{seed})

	if len(found) != 0 {
		t.Fatalf("superseded target must be skipped, got %+v", found)
	}
}

func TestCrossRefResolverCapsChunksPerReference(t *testing.T) {
	seed := domain.Chunk{ID: "seed", Text: "see also § 939.05"}
	t1 := domain.Chunk{ID: "t1", StatuteNumbers: "939.05"}
	t2 := domain.Chunk{ID: "t2", StatuteNumbers: "939.05"}
	t3 := domain.Chunk{ID: "t3", StatuteNumbers: "939.05"}
	resolver := NewCrossRefResolver(newFakeCorpus(seed, t1, t2, t3), 1, 2, nil)

	found, _ := resolver.Expand(context.Background(), []domain.Chunk{seed})

	if len(found) != 2 {
		t.Fatalf("expected at most 2 chunks per reference, got %d", len(found))
	}
}

func TestCrossRefResolverSurvivesLookupFailure(t *testing.T) {
	seed := domain.Chunk{ID: "c1", Text: "see also § 939.05"}
	corpus := newFakeCorpus(seed)
	corpus.failAll = true
	resolver := NewCrossRefResolver(corpus, 1, 2, nil)

	found, _ := resolver.Expand(context.Background(), []domain.Chunk{seed})

	if len(found) != 0 {
		t.Fatalf("lookup failure must degrade to no chunks, got %+v", found)
	}
}
