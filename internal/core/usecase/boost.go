package usecase

import (
	"sort"
	"strings"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

// BoostWeights are the multiplicative relevance-boost factors. Each
// applicable rule contributes an independent factor, so combined boosts
// compose predictably and never reorder chunks that received identical
// multipliers.
type BoostWeights struct {
	PolicyLocal  float64
	StateJuris   float64
	ExactStatute float64
	ChapterHint  float64
}

// normalize floors each weight at its default: values at or below zero
// mean unset. A rule is disabled by setting its weight to 1, the
// multiplicative identity, never to 0 (a zero factor would annihilate
// the fused score instead of skipping the rule).
func (w BoostWeights) normalize() BoostWeights {
	out := w
	if out.PolicyLocal <= 0 {
		out.PolicyLocal = 1.5
	}
	if out.StateJuris <= 0 {
		out.StateJuris = 1.2
	}
	if out.ExactStatute <= 0 {
		out.ExactStatute = 1.3
	}
	if out.ChapterHint <= 0 {
		out.ChapterHint = 1.15
	}
	return out
}

// applyRelevanceBoost computes boosted scores from fused scores using
// metadata signals from the expanded query. Superseded chunks are
// dropped outright. A zero fused score is never boosted, and no boosted
// score can go negative since all factors are positive. Output is
// re-sorted by boosted score descending, ties by chunk id.
func applyRelevanceBoost(results []domain.RankedResult, query domain.ExpandedQuery, weights BoostWeights) []domain.RankedResult {
	weights = weights.normalize()

	exactKeywords := toSet(query.ExactKeywords)
	hints := toSet(query.ChapterHints)
	isPolicyQuery := strings.Contains(strings.ToLower(query.Original), "policy")

	boosted := make([]domain.RankedResult, 0, len(results))
	for _, r := range results {
		if r.Chunk.Superseded {
			continue
		}

		multiplier := 1.0
		if isPolicyQuery && r.Chunk.Jurisdiction == "local_department" {
			multiplier *= weights.PolicyLocal
		}
		if r.Chunk.Jurisdiction == "state" {
			multiplier *= weights.StateJuris
		}
		if len(exactKeywords) > 0 && intersects(r.Chunk.StatuteList(), exactKeywords) {
			multiplier *= weights.ExactStatute
		}
		if len(hints) > 0 && intersects(r.Chunk.ChapterList(), hints) {
			multiplier *= weights.ChapterHint
		}

		if r.FusedScore > 0 {
			r.BoostedScore = r.FusedScore * multiplier
		}
		boosted = append(boosted, r)
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		if boosted[i].BoostedScore != boosted[j].BoostedScore {
			return boosted[i].BoostedScore > boosted[j].BoostedScore
		}
		return boosted[i].Chunk.ID < boosted[j].Chunk.ID
	})

	return boosted
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func intersects(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
