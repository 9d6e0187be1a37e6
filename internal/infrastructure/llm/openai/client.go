// Package openai is the external embedding and completion gateway, talking
// to an OpenAI-compatible HTTP API. Every failure path degrades to the
// deterministic gateway instead of surfacing an error to the caller.
package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
	"github.com/kirillkom/catalogue-assistant/internal/core/ports"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/llm/deterministic"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/resilience"
)

const indexWriteTimeout = 5 * time.Second

type Client struct {
	baseURL    string
	apiKey     string
	embedModel string
	chatModel  string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(baseURL, apiKey, embedModel, chatModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	executor := options.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultPolicy())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		embedModel: embedModel,
		chatModel:  chatModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (c *Client) embeddings(ctx context.Context, texts []string) ([][]float64, error) {
	request := map[string]any{
		"model": c.embedModel,
		"input": texts,
	}

	var raw json.RawMessage
	err := c.executor.Do(ctx, "openai.embeddings", classifyGatewayError, func(ctx context.Context) error {
		return c.postJSON(ctx, "/embeddings", request, &raw, "embeddings")
	})
	if err != nil {
		return nil, err
	}
	return normalizeEmbeddingResponse(raw)
}

func (c *Client) chatCompletion(
	ctx context.Context,
	messages []domain.Message,
	mode domain.Mode,
	snippets []domain.ContextSnippet,
) (string, error) {
	temperature := 0.2
	if mode == domain.ModeFast {
		temperature = 0.7
	}

	payload := make([]map[string]string, 0, len(messages)+1)
	payload = append(payload, map[string]string{
		"role":    "system",
		"content": buildSystemPrompt(snippets),
	})
	for _, m := range messages {
		payload = append(payload, map[string]string{"role": m.Role, "content": m.Content})
	}

	request := map[string]any{
		"model":       c.chatModel,
		"messages":    payload,
		"temperature": temperature,
		"max_tokens":  500,
	}

	var raw json.RawMessage
	err := c.executor.Do(ctx, "openai.chat", classifyGatewayError, func(ctx context.Context) error {
		return c.postJSON(ctx, "/chat/completions", request, &raw, "chat completion")
	})
	if err != nil {
		return "", err
	}
	return extractChatContent(raw)
}

// Embedder implements ports.Embedder over the external API. The document
// path additionally feeds the secondary vector index, best effort.
type Embedder struct {
	client     *Client
	index      ports.DocumentIndex
	fallback   *deterministic.Gateway
	onFallback func(path string)
}

func NewEmbedder(client *Client, index ports.DocumentIndex) *Embedder {
	return &Embedder{
		client:   client,
		index:    index,
		fallback: deterministic.New(),
	}
}

// SetFallbackHook registers an observer called whenever a batch degrades to
// the deterministic embedder. path is "documents" or "query".
func (e *Embedder) SetFallbackHook(fn func(path string)) {
	e.onFallback = fn
}

func (e *Embedder) fellBack(path string) {
	if e.onFallback != nil {
		e.onFallback(path)
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.client.embeddings(ctx, texts)
	if err != nil {
		slog.Warn("embedding_fallback", "error", err, "batch", len(texts))
		e.fellBack("documents")
		return e.fallback.Embed(ctx, texts)
	}
	if len(vectors) != len(texts) {
		// The caller zips vectors 1:1 with inputs; a partially usable
		// batch falls back as a whole rather than misaligning.
		slog.Warn("embedding_fallback", "reason", "vector count mismatch", "got", len(vectors), "want", len(texts))
		e.fellBack("documents")
		return e.fallback.Embed(ctx, texts)
	}

	e.indexDocuments(ctx, texts, vectors)
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.client.embeddings(ctx, []string{text})
	if err != nil || len(vectors) != 1 {
		if err != nil {
			slog.Warn("query_embedding_fallback", "error", err)
		}
		e.fellBack("query")
		return e.fallback.EmbedQuery(ctx, text)
	}
	return vectors[0], nil
}

func (e *Embedder) indexDocuments(ctx context.Context, texts []string, vectors [][]float64) {
	if e.index == nil {
		return
	}
	indexCtx, cancel := context.WithTimeout(ctx, indexWriteTimeout)
	defer cancel()
	if err := e.index.Index(indexCtx, texts, vectors); err != nil {
		slog.Warn("document_index_write_failed", "error", err)
	}
}

// Generator implements ports.CompletionGateway over the external API,
// degrading to the deterministic answer policy on any failure.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Complete(
	ctx context.Context,
	messages []domain.Message,
	mode domain.Mode,
	snippets []domain.ContextSnippet,
) (domain.Completion, error) {
	answer, err := g.client.chatCompletion(ctx, messages, mode, snippets)
	if err != nil {
		slog.Warn("completion_fallback", "error", err)
		return deterministic.Completion(messages, snippets), nil
	}

	cleaned, citations := extractSources(answer)
	return domain.Completion{Answer: cleaned, Citations: citations}, nil
}
