package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
	"github.com/kirillkom/catalogue-assistant/internal/core/ports"
)

// IngestUseCase turns a parsed batch of products or FAQ chunks into stored
// entities plus embedding records. The rendering used for embedding is the
// exact text stored on the record, and each batch persists atomically.
type IngestUseCase struct {
	store    ports.CatalogueStore
	embedder ports.Embedder
}

func NewIngestUseCase(store ports.CatalogueStore, embedder ports.Embedder) *IngestUseCase {
	return &IngestUseCase{
		store:    store,
		embedder: embedder,
	}
}

func (uc *IngestUseCase) IngestProducts(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	texts := make([]string, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			return 0, domain.WrapError(domain.ErrInvalidInput, "ingest products", errors.New("product without id"))
		}
		texts = append(texts, p.EmbeddingText())
	}

	vectors, err := uc.embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	items := make([]domain.ProductEmbedding, 0, len(products))
	for i, p := range products {
		items = append(items, domain.ProductEmbedding{
			Product: p,
			Record: domain.EmbeddingRecord{
				ID:          domain.ProductRecordID(p.ID),
				Source:      domain.SourceProduct,
				SourceObjID: p.ID,
				Text:        texts[i],
				Vector:      vectors[i],
				CreatedAt:   now,
			},
		})
	}

	if err := uc.store.UpsertProductBatch(ctx, items); err != nil {
		return 0, fmt.Errorf("upsert product batch: %w", err)
	}
	return len(items), nil
}

func (uc *IngestUseCase) IngestFAQ(ctx context.Context, chunks []domain.FAQChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.ID == "" || c.Text == "" {
			return 0, domain.WrapError(domain.ErrInvalidInput, "ingest faq", errors.New("chunk without id or text"))
		}
		texts = append(texts, c.EmbeddingText())
	}

	vectors, err := uc.embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	items := make([]domain.FAQEmbedding, 0, len(chunks))
	for i, c := range chunks {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		items = append(items, domain.FAQEmbedding{
			Chunk: c,
			Record: domain.EmbeddingRecord{
				ID:          domain.FAQRecordID(c.ID),
				Source:      domain.SourceFAQ,
				SourceObjID: c.ID,
				Text:        texts[i],
				Vector:      vectors[i],
				CreatedAt:   now,
			},
		})
	}

	if err := uc.store.UpsertFAQBatch(ctx, items); err != nil {
		return 0, fmt.Errorf("upsert faq batch: %w", err)
	}
	return len(items), nil
}

func (uc *IngestUseCase) embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("vectors/texts mismatch: %d/%d", len(vectors), len(texts))
	}
	return vectors, nil
}
