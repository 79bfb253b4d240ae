package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

// ChunkRepository is the Postgres-backed corpus store. The corpus is
// written by the ingestion pipeline and read-only during serving.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ChunkRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/indexer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS legal_chunks (
	id TEXT PRIMARY KEY,
	chunk_text TEXT NOT NULL,
	source_type TEXT NOT NULL,
	source_file TEXT NOT NULL,
	title TEXT,
	context_header TEXT,
	statute_numbers TEXT NOT NULL DEFAULT '',
	case_citations TEXT NOT NULL DEFAULT '',
	chapter_numbers TEXT NOT NULL DEFAULT '',
	jurisdiction TEXT,
	superseded BOOLEAN NOT NULL DEFAULT FALSE,
	token_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_legal_chunks_source_type ON legal_chunks(source_type);
CREATE INDEX IF NOT EXISTS idx_legal_chunks_statutes ON legal_chunks USING gin (string_to_array(statute_numbers, ','));
CREATE INDEX IF NOT EXISTS idx_legal_chunks_chapters ON legal_chunks USING gin (string_to_array(chapter_numbers, ','));
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// ReplaceCorpus swaps the entire corpus in one transaction so serving
// reads never observe a half-written state.
func (r *ChunkRepository) ReplaceCorpus(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin corpus tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM legal_chunks`); err != nil {
		return fmt.Errorf("clear corpus: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO legal_chunks (
	id, chunk_text, source_type, source_file, title, context_header,
	statute_numbers, case_citations, chapter_numbers, jurisdiction, superseded, token_count
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		_, err := stmt.ExecContext(ctx,
			c.ID, c.Text, string(c.SourceType), c.SourceFile, c.Title, c.ContextHeader,
			c.StatuteNumbers, c.CaseCitations, c.ChapterNumbers, c.Jurisdiction,
			c.Superseded, c.TokenCount,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit corpus tx: %w", err)
	}
	return nil
}

const chunkColumns = `id, chunk_text, source_type, source_file, title, context_header,
	statute_numbers, case_citations, chapter_numbers, jurisdiction, superseded, token_count`

func scanChunk(row interface{ Scan(...any) error }) (*domain.Chunk, error) {
	var c domain.Chunk
	var sourceType string
	err := row.Scan(
		&c.ID, &c.Text, &sourceType, &c.SourceFile, &c.Title, &c.ContextHeader,
		&c.StatuteNumbers, &c.CaseCitations, &c.ChapterNumbers, &c.Jurisdiction,
		&c.Superseded, &c.TokenCount,
	)
	if err != nil {
		return nil, err
	}
	c.SourceType = domain.ParseSourceType(sourceType)
	return &c, nil
}

func (r *ChunkRepository) GetByID(ctx context.Context, id string) (*domain.Chunk, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+chunkColumns+`
FROM legal_chunks
WHERE id = $1
`, id)

	chunk, err := scanChunk(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrChunkNotFound, "get chunk", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan chunk: %w", err)
	}
	return chunk, nil
}

func (r *ChunkRepository) ListAll(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+chunkColumns+`
FROM legal_chunks
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()
	return collectChunks(rows)
}

func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM legal_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (r *ChunkRepository) FindByStatuteNumber(ctx context.Context, statute string, limit int) ([]domain.Chunk, error) {
	return r.findByListColumn(ctx, "statute_numbers", statute, limit)
}

func (r *ChunkRepository) FindByChapterNumber(ctx context.Context, chapter string, limit int) ([]domain.Chunk, error) {
	return r.findByListColumn(ctx, "chapter_numbers", chapter, limit)
}

func (r *ChunkRepository) FindByCaseCitation(ctx context.Context, citation string, limit int) ([]domain.Chunk, error) {
	return r.findByListColumn(ctx, "case_citations", citation, limit)
}

// findByListColumn matches a single value inside a comma-joined column.
// The column name comes from a fixed call-site set, never user input.
func (r *ChunkRepository) findByListColumn(ctx context.Context, column, value string, limit int) ([]domain.Chunk, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
SELECT ` + chunkColumns + `
FROM legal_chunks
WHERE $1 = ANY(string_to_array(` + column + `, ','))
ORDER BY id
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, query, value, limit)
	if err != nil {
		return nil, fmt.Errorf("find by %s: %w", column, err)
	}
	defer rows.Close()
	return collectChunks(rows)
}

func collectChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}
