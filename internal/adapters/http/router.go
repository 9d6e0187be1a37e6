package httpadapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
	"github.com/kirillkom/catalogue-assistant/internal/core/ports"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/tabular"
	"github.com/kirillkom/catalogue-assistant/internal/observability/metrics"
)

const defaultMaxUploadBytes = 32 << 20

// Config carries the traffic-control knobs for the HTTP surface.
type Config struct {
	ServiceName    string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueTimeout   time.Duration
	MaxUploadBytes int64
}

type Router struct {
	ingestor  ports.CatalogueIngestor
	chat      ports.ChatService
	embedder  ports.Embedder
	store     ports.CatalogueStore
	parser    *tabular.Parser
	chunker   ports.Chunker
	extractor ports.PageExtractor
	storage   ports.ObjectStorage
	metrics   *metrics.HTTPServerMetrics
	cfg       Config
}

func NewRouter(
	ingestor ports.CatalogueIngestor,
	chat ports.ChatService,
	embedder ports.Embedder,
	store ports.CatalogueStore,
	parser *tabular.Parser,
	chunker ports.Chunker,
	extractor ports.PageExtractor,
	storage ports.ObjectStorage,
	serverMetrics *metrics.HTTPServerMetrics,
	cfg Config,
) *Router {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "catalogue-assistant"
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = 2 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Router{
		ingestor:  ingestor,
		chat:      chat,
		embedder:  embedder,
		store:     store,
		parser:    parser,
		chunker:   chunker,
		extractor: extractor,
		storage:   storage,
		metrics:   serverMetrics,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ingest", rt.ingest)
	mux.HandleFunc("/v1/embeddings", rt.embeddings)
	mux.HandleFunc("/v1/chat", rt.chatCompletion)
	mux.HandleFunc("/v1/catalogue", rt.catalogue)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.QueueTimeout)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ingest accepts a multipart upload with a "products" table part and/or a
// "faq" document part. Ingestion is synchronous: the response counts are
// what was committed.
func (rt *Router) ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(rt.cfg.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form expected"})
		return
	}

	productsData, productsName, productsOK := rt.formFile(r, "products")
	faqData, faqName, faqOK := rt.formFile(r, "faq")
	if !productsOK && !faqOK {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'products' or 'faq' is required"})
		return
	}

	response := map[string]int{}

	if productsOK {
		rt.archive(r, productsName, productsData)
		products, err := rt.parser.ParseProducts(bytes.NewReader(productsData), productsName)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		count, err := rt.ingestor.IngestProducts(r.Context(), products)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		response["products"] = count
		if rt.metrics != nil {
			rt.metrics.RecordIngestedItems(rt.cfg.ServiceName, "product", count)
		}
	}

	if faqOK {
		rt.archive(r, faqName, faqData)
		chunks, err := rt.faqChunks(faqData, faqName)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		count, err := rt.ingestor.IngestFAQ(r.Context(), chunks)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		response["faq_chunks"] = count
		if rt.metrics != nil {
			rt.metrics.RecordIngestedItems(rt.cfg.ServiceName, "faq_chunk", count)
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (rt *Router) formFile(r *http.Request, field string) ([]byte, string, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", false
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		slog.Warn("upload_read_failed", "field", field, "error", err)
		return nil, "", false
	}
	return buf.Bytes(), header.Filename, true
}

// archive keeps a copy of the raw upload; failures never block ingestion.
func (rt *Router) archive(r *http.Request, name string, data []byte) {
	if rt.storage == nil || name == "" {
		return
	}
	if err := rt.storage.Save(r.Context(), name, bytes.NewReader(data)); err != nil {
		slog.Warn("upload_archive_failed", "file", name, "error", err)
	}
}

func (rt *Router) faqChunks(data []byte, filename string) ([]domain.FAQChunk, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		pages, err := rt.extractor.ExtractPages(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "extract pdf", err)
		}
		return rt.chunker.PageSections(pages), nil
	}
	return rt.chunker.Chunk(string(data)), nil
}

func (rt *Router) embeddings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Texts []string `json:"texts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Texts) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "texts is required"})
		return
	}

	vectors, err := rt.embedder.Embed(r.Context(), req.Texts)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"vectors": vectors})
}

func (rt *Router) chatCompletion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Messages        []domain.Message        `json:"messages"`
		Mode            string                  `json:"mode"`
		ContextSnippets []domain.ContextSnippet `json:"context_snippets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "messages is required"})
		return
	}

	mode := domain.ParseMode(req.Mode)
	start := time.Now()

	completion, err := rt.chat.Chat(r.Context(), req.Messages, mode, req.ContextSnippets)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(rt.cfg.ServiceName, "/v1/chat", len(completion.Citations), time.Since(start))
		rt.metrics.RecordRAGModeRequest(rt.cfg.ServiceName, "/v1/chat", string(mode))
	}

	writeJSON(w, http.StatusOK, completion)
}

func (rt *Router) catalogue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	products, err := rt.store.ListProducts(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	chunks, err := rt.store.ListFAQChunks(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if products == nil {
		products = []domain.Product{}
	}
	if chunks == nil {
		chunks = []domain.FAQChunk{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":   products,
		"faq_chunks": chunks,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
