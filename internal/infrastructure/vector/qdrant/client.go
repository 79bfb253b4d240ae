package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

// Client talks to Qdrant over its HTTP API. Cosine scores come back in
// [-1,1] and are normalized to [0,1] here, so the fusion layer never
// sees raw distances.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// pointNamespace anchors UUIDv5 point ids derived from chunk ids, so a
// chunk maps to the same point across reindex runs.
var pointNamespace = uuid.MustParse("6d1f5fce-9347-4c62-8f3e-1f1b2a78c4d0")

func pointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

// UpsertChunks replaces the whole collection with the given chunks,
// mirroring the full-corpus swap on the relational side: the previous
// generation of points is dropped first, so semantic search can never
// return chunk ids the corpus store no longer knows. Each point carries
// the full chunk payload, so search results can be turned back into
// domain chunks without a trip to Postgres.
func (c *Client) UpsertChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.recreateCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID:      pointID(chunk.ID),
			Vector:  vectors[i],
			Payload: chunkPayload(chunk),
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return nil
}

func (c *Client) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.SemanticHit, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.SemanticHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.SemanticHit{
			Chunk: chunkFromPayload(r.Payload),
			Score: normalizeCosine(r.Score),
		})
	}
	return out, nil
}

// normalizeCosine maps a cosine similarity in [-1,1] onto [0,1].
func normalizeCosine(score float64) float64 {
	normalized := (score + 1) / 2
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

func chunkPayload(chunk domain.Chunk) map[string]any {
	return map[string]any{
		"chunk_id":        chunk.ID,
		"text":            chunk.Text,
		"source_type":     string(chunk.SourceType),
		"source_file":     chunk.SourceFile,
		"title":           chunk.Title,
		"context_header":  chunk.ContextHeader,
		"statute_numbers": chunk.StatuteNumbers,
		"case_citations":  chunk.CaseCitations,
		"chapter_numbers": chunk.ChapterNumbers,
		"jurisdiction":    chunk.Jurisdiction,
		"superseded":      chunk.Superseded,
		"token_count":     chunk.TokenCount,
	}
}

func chunkFromPayload(payload map[string]any) domain.Chunk {
	return domain.Chunk{
		ID:             getStringPayload(payload, "chunk_id"),
		Text:           getStringPayload(payload, "text"),
		SourceType:     domain.ParseSourceType(getStringPayload(payload, "source_type")),
		SourceFile:     getStringPayload(payload, "source_file"),
		Title:          getStringPayload(payload, "title"),
		ContextHeader:  getStringPayload(payload, "context_header"),
		StatuteNumbers: getStringPayload(payload, "statute_numbers"),
		CaseCitations:  getStringPayload(payload, "case_citations"),
		ChapterNumbers: getStringPayload(payload, "chapter_numbers"),
		Jurisdiction:   getStringPayload(payload, "jurisdiction"),
		Superseded:     getBoolPayload(payload, "superseded"),
		TokenCount:     getIntPayload(payload, "token_count"),
	}
}

// recreateCollection drops and recreates the collection. A missing
// collection on delete is fine (first index run).
func (c *Client) recreateCollection(ctx context.Context, vectorSize int) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)

	del, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("delete collection request: %w", err)
	}
	delResp, err := c.httpClient.Do(del)
	if err != nil {
		return fmt.Errorf("qdrant delete collection request: %w", err)
	}
	_, _ = io.Copy(io.Discard, delResp.Body)
	delResp.Body.Close()
	if delResp.StatusCode >= 300 && delResp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("qdrant delete collection status: %s", delResp.Status)
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant create collection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant create collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant create collection status: %s", resp.Status)
	}
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getBoolPayload(payload map[string]any, key string) bool {
	b, _ := payload[key].(bool)
	return b
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
