package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
	"github.com/brian-an/wisconsin-law-rag/internal/core/ports"
)

var chapterMentionPattern = regexp.MustCompile(`\bChapter\s+(\d{1,4})\b`)

const embedBatchSize = 32

// IndexCorpusUseCase rebuilds the whole corpus from source documents:
// scan, chunk, annotate with legal metadata, embed, swap the stores
// and announce the reindex so serving processes rebuild their lexical
// indices.
type IndexCorpusUseCase struct {
	scanner  ports.SourceScanner
	chunker  ports.Chunker
	writer   ports.CorpusWriter
	embedder ports.BatchEmbedder
	vectors  ports.VectorIndexer
	tokens   ports.TokenCounter
	events   ports.ReindexEvents
	logger   *slog.Logger
}

func NewIndexCorpusUseCase(
	scanner ports.SourceScanner,
	chunker ports.Chunker,
	writer ports.CorpusWriter,
	embedder ports.BatchEmbedder,
	vectors ports.VectorIndexer,
	tokens ports.TokenCounter,
	events ports.ReindexEvents,
	logger *slog.Logger,
) *IndexCorpusUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexCorpusUseCase{
		scanner:  scanner,
		chunker:  chunker,
		writer:   writer,
		embedder: embedder,
		vectors:  vectors,
		tokens:   tokens,
		events:   events,
		logger:   logger,
	}
}

func (uc *IndexCorpusUseCase) Index(ctx context.Context) (int, error) {
	docs, err := uc.scanner.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan corpus sources: %w", err)
	}
	if len(docs) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "index corpus", errors.New("no source documents found"))
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, uc.chunkDocument(doc)...)
	}
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "index corpus", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embedAll(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed corpus: %w", err)
	}

	if err := uc.writer.ReplaceCorpus(ctx, chunks); err != nil {
		return 0, fmt.Errorf("replace corpus store: %w", err)
	}
	if err := uc.vectors.UpsertChunks(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("upsert vector index: %w", err)
	}
	if err := uc.events.PublishCorpusReindexed(ctx); err != nil {
		// The corpus is already swapped; serving processes pick it up
		// on their next restart even if the announcement is lost.
		uc.logger.Warn("reindex_announcement_failed", "error", err)
	}

	uc.logger.Info("corpus_indexed", "documents", len(docs), "chunks", len(chunks))
	return len(chunks), nil
}

func (uc *IndexCorpusUseCase) chunkDocument(doc domain.SourceDocument) []domain.Chunk {
	title := documentTitle(doc)
	superseded := isSuperseded(doc.Text, doc.Filename)

	parts := uc.chunker.Split(doc.Text)
	out := make([]domain.Chunk, 0, len(parts))
	for i, text := range parts {
		statutes := extractStatuteNumbers(text)
		chapters := deriveChapters(text, statutes)
		citations := extractCaseCitations(text)

		out = append(out, domain.Chunk{
			ID:             fmt.Sprintf("%s#%04d", pathSlug(doc.Path), i),
			Text:           text,
			SourceType:     doc.SourceType,
			SourceFile:     doc.Filename,
			Title:          title,
			ContextHeader:  contextHeader(chapters, title),
			StatuteNumbers: strings.Join(statutes, ","),
			CaseCitations:  strings.Join(citations, ","),
			ChapterNumbers: strings.Join(chapters, ","),
			Jurisdiction:   doc.Jurisdiction,
			Superseded:     superseded,
			TokenCount:     uc.tokens.Count(text),
		})
	}
	return out
}

func (uc *IndexCorpusUseCase) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		batch, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("vectors/chunks mismatch: %d/%d", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func extractStatuteNumbers(text string) []string {
	matches := statuteNumberPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return dedupeInOrder(out)
}

func extractCaseCitations(text string) []string {
	matches := caseCitationPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return dedupeInOrder(out)
}

// deriveChapters collects chapter numbers from explicit "Chapter N"
// mentions and from the integer part of every statute number.
func deriveChapters(text string, statutes []string) []string {
	var out []string
	for _, m := range chapterMentionPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	for _, s := range statutes {
		if idx := strings.IndexRune(s, '.'); idx > 0 {
			out = append(out, s[:idx])
		}
	}
	return dedupeInOrder(out)
}

func documentTitle(doc domain.SourceDocument) string {
	for _, line := range strings.Split(doc.Text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return doc.Filename
}

func contextHeader(chapters []string, title string) string {
	if len(chapters) > 0 {
		return fmt.Sprintf("Chapter %s > %s", chapters[0], title)
	}
	return title
}

func isSuperseded(text, filename string) bool {
	marker := strings.ToLower(filename)
	if strings.Contains(marker, "superseded") {
		return true
	}
	head := text
	if len(head) > 400 {
		head = head[:400]
	}
	return strings.Contains(strings.ToLower(head), "superseded")
}

func pathSlug(path string) string {
	slug := strings.ToLower(path)
	slug = strings.TrimSuffix(slug, ".txt")
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	return strings.Trim(slug, "-")
}
