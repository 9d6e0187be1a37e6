package ports

import (
	"context"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

// CatalogueIngestor is the inbound contract for batch ingestion.
type CatalogueIngestor interface {
	IngestProducts(ctx context.Context, products []domain.Product) (int, error)
	IngestFAQ(ctx context.Context, chunks []domain.FAQChunk) (int, error)
}

// ChatService is the inbound contract for answering one user query.
type ChatService interface {
	Chat(ctx context.Context, messages []domain.Message, mode domain.Mode, snippets []domain.ContextSnippet) (domain.Completion, error)
}
