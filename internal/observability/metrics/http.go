package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal     *prometheus.CounterVec
	retrievalHitTotal  *prometheus.CounterVec
	retrievalNoContext *prometheus.CounterVec
	retrievalDegraded  *prometheus.CounterVec
	retrievedChunks    *prometheus.HistogramVec
	retrievalDuration  *prometheus.HistogramVec
	confidenceScore    *prometheus.HistogramVec
	contextTokens      *prometheus.HistogramVec
	crossRefsFollowed  *prometheus.HistogramVec
	lowConfidenceTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wislaw",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wislaw",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wislaw",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total successful retrieval requests.",
		},
		[]string{"service", "endpoint"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "hit_total",
			Help:      "Total retrieval requests with at least one admitted source.",
		},
		[]string{"service", "endpoint"},
	)
	retrievalNoContext := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total retrieval requests with an empty context window.",
		},
		[]string{"service", "endpoint"},
	)
	retrievalDegraded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "degraded_total",
			Help:      "Total retrieval requests served lexical-only after a semantic failure.",
		},
		[]string{"service", "endpoint"},
	)
	retrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "retrieved_chunks",
			Help:      "Distribution of admitted chunks per retrieval request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Retrieval pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	confidenceScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "confidence",
			Help:      "Distribution of confidence scores per retrieval request.",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service", "endpoint"},
	)
	contextTokens := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "context_tokens",
			Help:      "Distribution of assembled context window token counts.",
			Buckets:   []float64{0, 250, 500, 1000, 2000, 3000, 4000, 6000},
		},
		[]string{"service", "endpoint"},
	)
	crossRefsFollowed := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "cross_refs_followed",
			Help:      "Distribution of citations followed per retrieval request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service", "endpoint"},
	)
	lowConfidenceTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wislaw",
			Subsystem: "retrieval",
			Name:      "low_confidence_total",
			Help:      "Total answers flagged below the confidence threshold.",
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalTotal,
		retrievalHitTotal,
		retrievalNoContext,
		retrievalDegraded,
		retrievedChunks,
		retrievalDuration,
		confidenceScore,
		contextTokens,
		crossRefsFollowed,
		lowConfidenceTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		retrievalTotal:     retrievalTotal,
		retrievalHitTotal:  retrievalHitTotal,
		retrievalNoContext: retrievalNoContext,
		retrievalDegraded:  retrievalDegraded,
		retrievedChunks:    retrievedChunks,
		retrievalDuration:  retrievalDuration,
		confidenceScore:    confidenceScore,
		contextTokens:      contextTokens,
		crossRefsFollowed:  crossRefsFollowed,
		lowConfidenceTotal: lowConfidenceTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/chunks/"):
		return "/v1/chunks/{chunk_id}"
	default:
		return path
	}
}

// RetrievalObservation carries one completed retrieval's figures.
type RetrievalObservation struct {
	SourceCount   int
	CrossRefs     int
	ContextTokens int
	Confidence    float64
	Degraded      bool
	LowConfidence bool
	Duration      time.Duration
}

func (m *HTTPServerMetrics) RecordRetrieval(service, endpoint string, obs RetrievalObservation) {
	m.retrievalTotal.WithLabelValues(service, endpoint).Inc()
	m.retrievedChunks.WithLabelValues(service, endpoint).Observe(float64(obs.SourceCount))
	m.retrievalDuration.WithLabelValues(service, endpoint).Observe(obs.Duration.Seconds())
	m.confidenceScore.WithLabelValues(service, endpoint).Observe(obs.Confidence)
	m.contextTokens.WithLabelValues(service, endpoint).Observe(float64(obs.ContextTokens))
	m.crossRefsFollowed.WithLabelValues(service, endpoint).Observe(float64(obs.CrossRefs))

	if obs.Degraded {
		m.retrievalDegraded.WithLabelValues(service, endpoint).Inc()
	}
	if obs.LowConfidence {
		m.lowConfidenceTotal.WithLabelValues(service, endpoint).Inc()
	}
	if obs.SourceCount > 0 {
		m.retrievalHitTotal.WithLabelValues(service, endpoint).Inc()
		return
	}
	m.retrievalNoContext.WithLabelValues(service, endpoint).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
