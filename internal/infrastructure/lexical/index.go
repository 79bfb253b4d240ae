package lexical

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
	"github.com/brian-an/wisconsin-law-rag/internal/core/ports"
)

var ErrIndexNotReady = errors.New("lexical index not built")

// Index is an in-memory BM25 inverted index over the chunk corpus. It
// is rebuilt wholesale from the corpus store, either at startup or when
// a reindex event arrives, and serves reads lock-free-ish behind an
// RWMutex in between.
type Index struct {
	corpus ports.CorpusStore
	logger *slog.Logger
	k1     float64
	b      float64

	mu       sync.RWMutex
	ready    bool
	chunks   []domain.Chunk
	postings map[string][]posting
	docLen   []int
	avgLen   float64
}

type posting struct {
	doc  int
	freq int
}

func NewIndex(corpus ports.CorpusStore, k1, b float64, logger *slog.Logger) *Index {
	if k1 <= 0 {
		k1 = 1.5
	}
	if b <= 0 || b > 1 {
		b = 0.75
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		corpus: corpus,
		logger: logger,
		k1:     k1,
		b:      b,
	}
}

func (idx *Index) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ready
}

// Rebuild loads every chunk and rebuilds the postings. The swap is
// atomic under the write lock, so concurrent searches see either the
// old index or the new one, never a partial state.
func (idx *Index) Rebuild(ctx context.Context) error {
	chunks, err := idx.corpus.ListAll(ctx)
	if err != nil {
		return domain.WrapError(domain.ErrCorpusUnavailable, "rebuild lexical index", err)
	}

	postings := make(map[string][]posting, len(chunks)*8)
	docLen := make([]int, len(chunks))
	totalLen := 0

	for i, chunk := range chunks {
		freq := make(map[string]int, 32)
		tokens := Tokenize(chunk.Text)
		for _, tok := range tokens {
			freq[tok]++
		}
		docLen[i] = len(tokens)
		totalLen += len(tokens)
		for tok, n := range freq {
			postings[tok] = append(postings[tok], posting{doc: i, freq: n})
		}
	}

	avgLen := 0.0
	if len(chunks) > 0 {
		avgLen = float64(totalLen) / float64(len(chunks))
	}

	idx.mu.Lock()
	idx.chunks = chunks
	idx.postings = postings
	idx.docLen = docLen
	idx.avgLen = avgLen
	idx.ready = true
	idx.mu.Unlock()

	idx.logger.Info("lexical_index_rebuilt", "chunks", len(chunks), "terms", len(postings))
	return nil
}

// Search scores the query against the index with BM25 Okapi and
// returns up to limit hits with a positive score, best first, ties
// broken by chunk id.
func (idx *Index) Search(ctx context.Context, queryText string, limit int) ([]domain.LexicalHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.ready {
		return nil, ErrIndexNotReady
	}
	if limit <= 0 || len(idx.chunks) == 0 {
		return nil, nil
	}

	n := float64(len(idx.chunks))
	scores := make(map[int]float64, 64)

	for _, term := range dedupe(Tokenize(queryText)) {
		plist := idx.postings[term]
		if len(plist) == 0 {
			continue
		}
		df := float64(len(plist))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		for _, p := range plist {
			tf := float64(p.freq)
			norm := 1 - idx.b + idx.b*float64(idx.docLen[p.doc])/idx.avgLen
			scores[p.doc] += idf * (tf * (idx.k1 + 1)) / (tf + idx.k1*norm)
		}
	}

	hits := make([]domain.LexicalHit, 0, len(scores))
	for doc, score := range scores {
		if score <= 0 {
			continue
		}
		hits = append(hits, domain.LexicalHit{Chunk: idx.chunks[doc], Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Tokenize lowercases and splits on non-alphanumeric runes, but keeps
// statute numbers such as "346.63" or "940.225(2)(a)" digits intact as
// "346.63" so exact statute queries hit the right postings.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 32)
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		r = unicode.ToLower(r)
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			continue
		case r == '.' && b.Len() > 0 && isDigit(lastRune(&b)) && i+1 < len(runes) && isDigit(runes[i+1]):
			// A dot between digits keeps statute numbers whole.
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func lastRune(b *strings.Builder) rune {
	s := b.String()
	if s == "" {
		return 0
	}
	return rune(s[len(s)-1])
}

func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
