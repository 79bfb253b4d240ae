package usecase

import (
	"strings"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
	"github.com/brian-an/wisconsin-law-rag/internal/core/ports"
)

const chunkSeparator = "\n\n---\n\n"

// ContextAssembler concatenates ranked and cross-referenced chunks into
// a single context string under a hard token budget. Admission is
// all-or-nothing per chunk; a chunk is never truncated to fit.
type ContextAssembler struct {
	tokens ports.TokenCounter
	budget int
}

func NewContextAssembler(tokens ports.TokenCounter, budget int) *ContextAssembler {
	if budget <= 0 {
		budget = 4000
	}
	return &ContextAssembler{tokens: tokens, budget: budget}
}

// Assemble admits chunks in priority order: directly-ranked chunks by
// boosted score first, then cross-referenced chunks in the order the
// walk discovered them. Each admitted chunk is rendered with its
// context header so the generator keeps hierarchical orientation.
// Duplicate ids are admitted once; the running token total never
// exceeds the budget.
func (a *ContextAssembler) Assemble(ranked []domain.RankedResult, crossRefs []domain.CrossRefChunk) domain.ContextWindow {
	var (
		parts        []string
		sources      []domain.SourceRef
		refsFollowed []string
		totalTokens  int
	)
	seen := make(map[string]struct{}, len(ranked)+len(crossRefs))

	admit := func(chunk domain.Chunk) (admitted, overBudget bool) {
		if _, ok := seen[chunk.ID]; ok {
			return false, false
		}
		cost := chunk.TokenCount
		if cost <= 0 {
			cost = a.tokens.Count(chunk.Text)
		}
		if totalTokens+cost > a.budget {
			return false, true
		}
		seen[chunk.ID] = struct{}{}
		totalTokens += cost
		parts = append(parts, renderChunk(chunk))
		sources = append(sources, domain.SourceRef{
			ChunkID:        chunk.ID,
			SourceFile:     chunk.SourceFile,
			ContextHeader:  chunk.ContextHeader,
			StatuteNumbers: chunk.StatuteNumbers,
			SourceType:     chunk.SourceType,
			Title:          chunk.Title,
		})
		return true, false
	}

	// Ranked chunks stop at the first candidate that would exceed the
	// budget; cross-referenced chunks are best-effort, so a later,
	// smaller one may still fit.
	for _, r := range ranked {
		if _, over := admit(r.Chunk); over {
			break
		}
	}
	for _, x := range crossRefs {
		if ok, _ := admit(x.Chunk); ok {
			refsFollowed = append(refsFollowed, x.Citation)
		}
	}

	return domain.ContextWindow{
		Text:              strings.Join(parts, chunkSeparator),
		Sources:           sources,
		CrossRefsFollowed: dedupeInOrder(refsFollowed),
		TotalTokens:       totalTokens,
	}
}

func renderChunk(chunk domain.Chunk) string {
	if chunk.ContextHeader == "" {
		return chunk.Text
	}
	return "[" + chunk.ContextHeader + "]\n" + chunk.Text
}
