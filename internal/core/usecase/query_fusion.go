package usecase

import (
	"sort"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

// fuseRRF merges the lexical and semantic rankings with Reciprocal Rank
// Fusion: each list contributes 1/(k + rank) per chunk, rank 1-based.
// BM25 and cosine scores live on incomparable scales, so fusion works
// on rank alone; the raw scores ride along for reporting. The output
// covers exactly the union of both input lists, symmetric in argument
// order, with ties broken by chunk id ascending.
func fuseRRF(lexical []domain.LexicalHit, semantic []domain.SemanticHit, rrfK int) []domain.RankedResult {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]*domain.RankedResult, len(lexical)+len(semantic))

	for rank, hit := range lexical {
		r := acc[hit.Chunk.ID]
		if r == nil {
			r = &domain.RankedResult{Chunk: hit.Chunk}
			acc[hit.Chunk.ID] = r
		}
		score := hit.Score
		r.LexicalScore = &score
		r.FusedScore += 1.0 / float64(rrfK+rank+1)
	}

	for rank, hit := range semantic {
		r := acc[hit.Chunk.ID]
		if r == nil {
			r = &domain.RankedResult{Chunk: hit.Chunk}
			acc[hit.Chunk.ID] = r
		} else if r.Chunk.Text == "" && hit.Chunk.Text != "" {
			r.Chunk = hit.Chunk
		}
		score := hit.Score
		r.SemanticScore = &score
		r.FusedScore += 1.0 / float64(rrfK+rank+1)
	}

	out := make([]domain.RankedResult, 0, len(acc))
	for _, r := range acc {
		out = append(out, *r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})

	return out
}

func trimResults(results []domain.RankedResult, limit int) []domain.RankedResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}
