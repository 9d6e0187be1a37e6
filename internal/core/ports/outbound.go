package ports

import (
	"context"
	"io"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

// CatalogueStore persists products, FAQ chunks and their embedding records.
// Each batch call is atomic: either every pair in the batch is upserted or
// none are.
type CatalogueStore interface {
	UpsertProductBatch(ctx context.Context, items []domain.ProductEmbedding) error
	UpsertFAQBatch(ctx context.Context, items []domain.FAQEmbedding) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListFAQChunks(ctx context.Context) ([]domain.FAQChunk, error)
}

// VectorStore is the read side the retriever scans. Implementations must
// return records in a stable order so score ties break deterministically.
type VectorStore interface {
	ScanEmbeddings(ctx context.Context) ([]domain.EmbeddingRecord, error)
}

// Embedder turns texts into fixed-length vectors. Embed is the document
// path used during ingestion; EmbedQuery embeds a single query string and
// must never trigger ingestion-path side effects. Both return exactly one
// vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// CompletionGateway produces the final answer from message history and
// grounding snippets.
type CompletionGateway interface {
	Complete(ctx context.Context, messages []domain.Message, mode domain.Mode, snippets []domain.ContextSnippet) (domain.Completion, error)
}

// Retriever scores stored embeddings against a query vector and returns a
// thresholded, ranked top-k.
type Retriever interface {
	Retrieve(ctx context.Context, queryVector []float64, k int, threshold float64) ([]domain.RetrievedRecord, error)
}

// Chunker splits markdown-like FAQ text into labeled sections.
type Chunker interface {
	Chunk(text string) []domain.FAQChunk
	PageSections(pages []string) []domain.FAQChunk
}

// PageExtractor extracts per-page plain text from a paginated document.
// Pages that yield no text are skipped, not fatal.
type PageExtractor interface {
	ExtractPages(r io.ReaderAt, size int64) ([]string, error)
}

// DocumentIndex is a secondary, best-effort vector index fed on the
// ingestion path. Failures are the caller's to log and swallow.
type DocumentIndex interface {
	Index(ctx context.Context, texts []string, vectors [][]float64) error
}

// ObjectStorage archives uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
