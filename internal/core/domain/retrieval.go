package domain

// ExpandedQuery is the query-expansion output consumed by both rankers
// and by the booster/confidence stages.
type ExpandedQuery struct {
	Original      string   `json:"original"`
	CorrectedText string   `json:"corrected_text"`
	SemanticQuery string   `json:"semantic_query"`
	ExactKeywords []string `json:"exact_keywords,omitempty"`
	Synonyms      []string `json:"synonyms,omitempty"`
	ChapterHints  []string `json:"chapter_hints,omitempty"`
}

// LexicalHit is one BM25 result.
type LexicalHit struct {
	Chunk Chunk
	Score float64
}

// SemanticHit is one vector-index result with a score normalized to [0,1].
type SemanticHit struct {
	Chunk Chunk
	Score float64
}

// RankedResult carries a chunk through fusion and boosting. A nil
// lexical or semantic score means the chunk was absent from that
// ranker's list; that ranker then contributes no rank weight.
type RankedResult struct {
	Chunk         Chunk    `json:"chunk"`
	LexicalScore  *float64 `json:"lexical_score,omitempty"`
	SemanticScore *float64 `json:"semantic_score,omitempty"`
	FusedScore    float64  `json:"fused_score"`
	BoostedScore  float64  `json:"boosted_score"`
}

// CitationEdge records one detected in-text citation during
// cross-reference resolution. ResolvedChunkIDs is empty when the
// citation matched nothing in the corpus. Transient, never persisted.
type CitationEdge struct {
	FromChunkID      string   `json:"from_chunk_id"`
	CitationText     string   `json:"citation_text"`
	ResolvedChunkIDs []string `json:"resolved_chunk_ids,omitempty"`
	Depth            int      `json:"depth"`
}

// CrossRefChunk is a chunk pulled in by the citation walk, ordered
// after all directly-ranked chunks.
type CrossRefChunk struct {
	Chunk    Chunk  `json:"chunk"`
	Citation string `json:"citation"`
	Depth    int    `json:"depth"`
}

// SourceRef is the per-chunk metadata surfaced for citation display.
type SourceRef struct {
	ChunkID        string     `json:"id"`
	SourceFile     string     `json:"source_file,omitempty"`
	ContextHeader  string     `json:"context_header,omitempty"`
	StatuteNumbers string     `json:"statute_numbers,omitempty"`
	SourceType     SourceType `json:"source_type"`
	Title          string     `json:"title,omitempty"`
}

// ContextWindow is the assembled, token-budgeted context handed to the
// generation collaborator. TotalTokens never exceeds the configured
// budget.
type ContextWindow struct {
	Text              string      `json:"context_text"`
	Sources           []SourceRef `json:"sources"`
	CrossRefsFollowed []string    `json:"cross_refs_followed,omitempty"`
	TotalTokens       int         `json:"total_tokens"`
}

// ConfidenceSignals aggregates the ranking signals the confidence
// formula consumes. Computed over the admitted top chunks before
// cross-reference expansion.
type ConfidenceSignals struct {
	MeanTopScore        float64 `json:"mean_top_score"`
	TopScore            float64 `json:"top_score"`
	ScoreVariance       float64 `json:"score_variance"`
	SourceTypeDiversity int     `json:"source_type_diversity"`
	TopicRelevance      float64 `json:"topic_relevance"`
	Degraded            bool    `json:"degraded"`
}

// RetrievalResult is the full pipeline output for one query.
type RetrievalResult struct {
	Query      ExpandedQuery     `json:"query"`
	Ranked     []RankedResult    `json:"ranked"`
	CrossRefs  []CrossRefChunk   `json:"cross_refs,omitempty"`
	Edges      []CitationEdge    `json:"-"`
	Context    ContextWindow     `json:"context"`
	Signals    ConfidenceSignals `json:"signals"`
	Confidence float64           `json:"confidence"`
	Degraded   bool              `json:"degraded"`
}

// Answer is the generated response with its supporting material.
type Answer struct {
	Text       string      `json:"text"`
	Sources    []SourceRef `json:"sources"`
	Confidence float64     `json:"confidence_score"`
	LowConf    bool        `json:"low_confidence"`
	Disclaimer string      `json:"disclaimer"`
}
