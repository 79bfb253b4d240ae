package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
	"github.com/brian-an/wisconsin-law-rag/internal/core/ports"
	"github.com/brian-an/wisconsin-law-rag/internal/observability/metrics"
)

const searchSnippetLimit = 500

type Options struct {
	Service          string
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	answers   ports.AnswerService
	retrieval ports.RetrievalService
	corpus    ports.CorpusStore
	metrics   *metrics.HTTPServerMetrics
	opts      Options
}

func NewRouter(
	answers ports.AnswerService,
	retrieval ports.RetrievalService,
	corpus ports.CorpusStore,
	serverMetrics *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	if opts.Service == "" {
		opts.Service = "api"
	}
	if opts.BackpressureWait <= 0 {
		opts.BackpressureWait = 200 * time.Millisecond
	}
	return &Router{
		answers:   answers,
		retrieval: retrieval,
		corpus:    corpus,
		metrics:   serverMetrics,
		opts:      opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chat)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/chunks/", rt.getChunkByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.opts.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if rt.corpus != nil {
		if _, err := rt.corpus.Count(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": "corpus unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.answers.Answer(r.Context(), req.Question)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(rt.opts.Service, "chat", metrics.RetrievalObservation{
			SourceCount:   len(answer.Sources),
			Confidence:    answer.Confidence,
			LowConfidence: answer.LowConf,
			Duration:      time.Since(start),
		})
	}
	writeJSON(w, http.StatusOK, answer)
}

type searchResult struct {
	ChunkID       string   `json:"chunk_id"`
	Text          string   `json:"text"`
	SourceType    string   `json:"source_type"`
	SourceFile    string   `json:"source_file,omitempty"`
	Title         string   `json:"title,omitempty"`
	LexicalScore  *float64 `json:"lexical_score,omitempty"`
	SemanticScore *float64 `json:"semantic_score,omitempty"`
	FusedScore    float64  `json:"fused_score"`
	BoostedScore  float64  `json:"boosted_score"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	ranked, expanded, err := rt.retrieval.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	results := make([]searchResult, 0, len(ranked))
	for _, res := range ranked {
		results = append(results, searchResult{
			ChunkID:       res.Chunk.ID,
			Text:          truncateSnippet(res.Chunk.Text, searchSnippetLimit),
			SourceType:    string(res.Chunk.SourceType),
			SourceFile:    res.Chunk.SourceFile,
			Title:         res.Chunk.Title,
			LexicalScore:  res.LexicalScore,
			SemanticScore: res.SemanticScore,
			FusedScore:    res.FusedScore,
			BoostedScore:  res.BoostedScore,
		})
	}

	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(rt.opts.Service, "search", metrics.RetrievalObservation{
			SourceCount: len(results),
			Duration:    time.Since(start),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":          expanded.Original,
		"expanded_query": expanded.SemanticQuery,
		"results":        results,
	})
}

func (rt *Router) getChunkByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/chunks/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "chunk id is required"})
		return
	}

	chunk, err := rt.corpus.GetByID(r.Context(), id)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		if domain.IsKind(err, domain.ErrChunkNotFound) {
			writeJSON(w, status, map[string]string{"error": "chunk not found"})
			return
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

// truncateSnippet cuts display text at limit characters, never inside
// a multi-byte rune (statute text is full of section signs).
func truncateSnippet(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
