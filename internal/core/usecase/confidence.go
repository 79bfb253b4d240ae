package usecase

import (
	"strings"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

// ConfidenceWeights parameterize the confidence formula. All terms are
// additive on top of Base and the sum is clamped to [0,1].
type ConfidenceWeights struct {
	Base          float64
	TopicWeight   float64
	TopScore      float64
	Variance      float64
	DiversityStep float64
	DiversityCap  float64
	// RRFK is the fusion constant, used to normalize the top boosted
	// score: the maximum attainable raw RRF score is 2/(k+1).
	RRFK int
}

// normalize floors every weight at its default: zero means unset, so
// partially built weight structs stay usable. A term is effectively
// disabled by tuning its weight to a value near zero (e.g. 0.001), not
// to exactly 0.
func (w ConfidenceWeights) normalize() ConfidenceWeights {
	out := w
	if out.Base <= 0 {
		out.Base = 0.20
	}
	if out.TopicWeight <= 0 {
		out.TopicWeight = 0.25
	}
	if out.TopScore <= 0 {
		out.TopScore = 0.30
	}
	if out.Variance <= 0 {
		out.Variance = 0.10
	}
	if out.DiversityStep <= 0 {
		out.DiversityStep = 0.10
	}
	if out.DiversityCap <= 0 {
		out.DiversityCap = 0.30
	}
	if out.RRFK <= 0 {
		out.RRFK = 60
	}
	return out
}

// deriveConfidenceSignals aggregates ranking signals from the top
// results, before cross-reference expansion.
func deriveConfidenceSignals(top []domain.RankedResult, query domain.ExpandedQuery, degraded bool) domain.ConfidenceSignals {
	if len(top) == 0 {
		return domain.ConfidenceSignals{Degraded: degraded}
	}

	head := top
	if len(head) > 5 {
		head = head[:5]
	}

	var sum float64
	types := make(map[domain.SourceType]struct{}, len(head))
	for _, r := range head {
		sum += r.BoostedScore
		types[r.Chunk.SourceType] = struct{}{}
	}
	mean := sum / float64(len(head))

	var variance float64
	if len(head) >= 2 {
		for _, r := range head {
			d := r.BoostedScore - mean
			variance += d * d
		}
		variance /= float64(len(head) - 1)
	}

	return domain.ConfidenceSignals{
		MeanTopScore:        mean,
		TopScore:            top[0].BoostedScore,
		ScoreVariance:       variance,
		SourceTypeDiversity: len(types),
		TopicRelevance:      topicRelevance(top, query),
		Degraded:            degraded,
	}
}

// topicRelevance is 1 when the query's exact statute/citation keywords
// match the top result's identifier metadata. Synonym matching against
// the top-3 result text applies only to queries without exact keywords;
// a query that names a statute is judged on that statute alone.
func topicRelevance(top []domain.RankedResult, query domain.ExpandedQuery) float64 {
	if len(top) == 0 {
		return 0
	}

	if len(query.ExactKeywords) > 0 {
		keywords := toSet(query.ExactKeywords)
		first := top[0].Chunk
		if intersects(first.StatuteList(), keywords) || intersects(first.CitationList(), keywords) {
			return 1
		}
		return 0
	}

	if len(query.Synonyms) == 0 {
		return 0
	}
	var b strings.Builder
	for i, r := range top {
		if i >= 3 {
			break
		}
		b.WriteString(r.Chunk.Text)
		b.WriteString(" ")
		b.WriteString(r.Chunk.Title)
		b.WriteString(" ")
		b.WriteString(r.Chunk.ContextHeader)
		b.WriteString(" ")
	}
	haystack := strings.ToLower(b.String())
	for _, syn := range query.Synonyms {
		if strings.Contains(haystack, strings.ToLower(syn)) {
			return 1
		}
	}
	return 0
}

// scoreConfidence combines the signals into a single [0,1] value. Pure:
// identical signals always produce the identical score, with no
// external calls.
func scoreConfidence(signals domain.ConfidenceSignals, weights ConfidenceWeights) float64 {
	weights = weights.normalize()

	if signals.TopScore == 0 && signals.MeanTopScore == 0 {
		return 0
	}

	score := weights.Base

	score += weights.TopicWeight * signals.TopicRelevance

	// Normalize the top boosted score against the best attainable raw
	// RRF score (rank 1 in both lists).
	maxRRF := 2.0 / float64(weights.RRFK+1)
	normalizedTop := signals.TopScore / maxRRF
	if normalizedTop > 1 {
		normalizedTop = 1
	}
	score += weights.TopScore * normalizedTop

	// High variance among the top scores means a clearly dominant
	// result; this term only ever adds.
	varianceFactor := signals.ScoreVariance / 0.0001
	if varianceFactor > 1 {
		varianceFactor = 1
	}
	score += weights.Variance * varianceFactor

	diversity := float64(signals.SourceTypeDiversity) * weights.DiversityStep
	if diversity > weights.DiversityCap {
		diversity = weights.DiversityCap
	}
	score += diversity

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
