package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
	"github.com/brian-an/wisconsin-law-rag/internal/core/ports"
)

// Pattern families for in-text citation language. Each pattern captures
// a statute number ("940.01"), a chapter number ("943") or a case
// citation.
var crossRefPatterns = []*regexp.Regexp{
	// "see also § 940.01", "see section 346.63"
	regexp.MustCompile(`(?i)see\s+(?:also\s+)?(?:§|section|sec\.)\s*(\d{2,4}\.\d{2,4})`),
	// "under § 940.01", "per section 346.63", "pursuant to § 940.01"
	regexp.MustCompile(`(?i)(?:under|per|pursuant\s+to)\s+(?:§|section|sec\.)\s*(\d{2,4}\.\d{2,4})`),
	// "§ 940.01 applies", "section 346.63 governs"
	regexp.MustCompile(`(?i)(?:§|section|sec\.)\s*(\d{2,4}\.\d{2,4})\s+(?:applies|governs|provides|requires|prohibits)`),
	// "Chapter 943", "Chapter 346A"
	regexp.MustCompile(`(?i)Chapter\s+(\d+[A-Z]?)\b`),
	// "State v. Smith, 2023 WI App 45"
	regexp.MustCompile(`(\d{4}\s*WI\s*(?:App\s*)?\d+)`),
}

// detectCrossReferences extracts statute, chapter and case references
// from citation language in text, deduplicated in discovery order.
func detectCrossReferences(text string) []string {
	var refs []string
	for _, p := range crossRefPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			refs = append(refs, m[1])
		}
	}
	return dedupeInOrder(refs)
}

// CrossRefResolver walks citation edges outward from the top-ranked
// chunks, treating chunks as nodes and detected citations as directed
// edges. The walk is bounded by MaxDepth and a visited set, so cyclic
// citations (A cites B, B cites A) terminate.
type CrossRefResolver struct {
	corpus    ports.CorpusStore
	logger    *slog.Logger
	maxDepth  int
	maxPerRef int
}

func NewCrossRefResolver(corpus ports.CorpusStore, maxDepth, maxPerRef int, logger *slog.Logger) *CrossRefResolver {
	if maxDepth <= 0 {
		maxDepth = 1
	}
	if maxPerRef <= 0 {
		maxPerRef = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CrossRefResolver{
		corpus:    corpus,
		logger:    logger,
		maxDepth:  maxDepth,
		maxPerRef: maxPerRef,
	}
}

// Expand resolves citations found in the seed chunks and pulls cited
// chunks from the corpus, up to maxDepth hops out. Chunks pulled here
// rank below every directly-ranked chunk; the assembler decides which
// of them fit the token budget. Unresolvable citations are dropped
// silently: citation chasing is best-effort enrichment.
func (r *CrossRefResolver) Expand(ctx context.Context, seeds []domain.Chunk) ([]domain.CrossRefChunk, []domain.CitationEdge) {
	visited := make(map[string]struct{}, len(seeds))
	followed := make(map[string]struct{})
	for _, c := range seeds {
		visited[c.ID] = struct{}{}
	}

	var (
		found    []domain.CrossRefChunk
		edges    []domain.CitationEdge
		frontier = seeds
	)

	for depth := 1; depth <= r.maxDepth && len(frontier) > 0; depth++ {
		var next []domain.Chunk

		for _, node := range frontier {
			if ctx.Err() != nil {
				return found, edges
			}

			for _, ref := range detectCrossReferences(node.Text) {
				if _, ok := followed[ref]; ok {
					continue
				}
				followed[ref] = struct{}{}

				targets, err := r.resolve(ctx, ref)
				if err != nil {
					// Lookup failures degrade to "citation unresolved".
					r.logger.Warn("crossref_lookup_failed", "ref", ref, "error", err)
					continue
				}

				edge := domain.CitationEdge{
					FromChunkID:  node.ID,
					CitationText: ref,
					Depth:        depth,
				}

				admitted := 0
				for _, target := range targets {
					if target.Superseded {
						continue
					}
					if _, ok := visited[target.ID]; ok {
						continue
					}
					if admitted >= r.maxPerRef {
						break
					}
					visited[target.ID] = struct{}{}
					edge.ResolvedChunkIDs = append(edge.ResolvedChunkIDs, target.ID)
					found = append(found, domain.CrossRefChunk{
						Chunk:    target,
						Citation: ref,
						Depth:    depth,
					})
					next = append(next, target)
					admitted++
				}

				edges = append(edges, edge)
			}
		}

		frontier = next
	}

	return found, edges
}

func (r *CrossRefResolver) resolve(ctx context.Context, ref string) ([]domain.Chunk, error) {
	// A reference with a dot is a statute number, a bare number is a
	// chapter, anything with "WI" is a case citation.
	switch {
	case strings.Contains(ref, "WI"):
		return r.corpus.FindByCaseCitation(ctx, ref, r.maxPerRef*2)
	case strings.Contains(ref, "."):
		return r.corpus.FindByStatuteNumber(ctx, ref, r.maxPerRef*2)
	default:
		return r.corpus.FindByChapterNumber(ctx, ref, r.maxPerRef*2)
	}
}
