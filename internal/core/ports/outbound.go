package ports

import (
	"context"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

// CorpusStore is read-only access to the chunk corpus. The corpus is
// immutable during serving; reindexing happens out of band and is
// announced via ReindexEvents.
type CorpusStore interface {
	GetByID(ctx context.Context, id string) (*domain.Chunk, error)
	// ListAll returns every chunk, used to build the lexical index.
	ListAll(ctx context.Context) ([]domain.Chunk, error)
	Count(ctx context.Context) (int, error)
	FindByStatuteNumber(ctx context.Context, statute string, limit int) ([]domain.Chunk, error)
	FindByChapterNumber(ctx context.Context, chapter string, limit int) ([]domain.Chunk, error)
	FindByCaseCitation(ctx context.Context, citation string, limit int) ([]domain.Chunk, error)
}

// LexicalSearcher ranks chunks by BM25 against the query text.
type LexicalSearcher interface {
	Search(ctx context.Context, queryText string, limit int) ([]domain.LexicalHit, error)
	// Rebuild reloads the index from the corpus store.
	Rebuild(ctx context.Context) error
	Ready() bool
}

// Embedder builds a vector for query text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher performs nearest-neighbor search over chunk
// embeddings. Scores are normalized to [0,1] before they leave the
// adapter.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.SemanticHit, error)
}

// CorpusWriter is the ingestion-side write surface. ReplaceCorpus
// swaps the whole corpus in one transaction; serving reads never see a
// half-written state.
type CorpusWriter interface {
	ReplaceCorpus(ctx context.Context, chunks []domain.Chunk) error
}

// BatchEmbedder embeds chunk texts during indexing.
type BatchEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndexer writes chunk embeddings to the vector index.
type VectorIndexer interface {
	UpsertChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
}

// SourceScanner lists raw corpus documents from wherever they live.
type SourceScanner interface {
	Scan(ctx context.Context) ([]domain.SourceDocument, error)
}

// Chunker splits document text into retrievable units.
type Chunker interface {
	Split(text string) []string
}

// TokenCounter counts tokens under the corpus tokenization scheme.
type TokenCounter interface {
	Count(text string) int
}

// AnswerGenerator turns an assembled context into prose.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, window domain.ContextWindow) (string, error)
}

// ReindexEvents announces out-of-band corpus reindexing so serving
// processes can rebuild derived indices.
type ReindexEvents interface {
	PublishCorpusReindexed(ctx context.Context) error
	SubscribeCorpusReindexed(ctx context.Context, handler func(context.Context) error) error
}
