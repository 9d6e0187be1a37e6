package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

type embedderFake struct {
	dim   int
	calls int
	err   error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	dim := f.dim
	if dim <= 0 {
		dim = 4
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, dim)
		vec[0] = float64(len(text))
		out[i] = vec
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type catalogueStoreFake struct {
	productBatches [][]domain.ProductEmbedding
	faqBatches     [][]domain.FAQEmbedding
	err            error
}

func (f *catalogueStoreFake) UpsertProductBatch(_ context.Context, items []domain.ProductEmbedding) error {
	if f.err != nil {
		return f.err
	}
	f.productBatches = append(f.productBatches, items)
	return nil
}

func (f *catalogueStoreFake) UpsertFAQBatch(_ context.Context, items []domain.FAQEmbedding) error {
	if f.err != nil {
		return f.err
	}
	f.faqBatches = append(f.faqBatches, items)
	return nil
}

func (f *catalogueStoreFake) ListProducts(context.Context) ([]domain.Product, error) {
	return nil, errors.New("not implemented")
}

func (f *catalogueStoreFake) ListFAQChunks(context.Context) ([]domain.FAQChunk, error) {
	return nil, errors.New("not implemented")
}

func TestIngestProductsStoresCanonicalText(t *testing.T) {
	store := &catalogueStoreFake{}
	embedder := &embedderFake{}
	uc := NewIngestUseCase(store, embedder)

	price := 45.0
	product := domain.Product{ID: "12", Name: "Rise Again", Notes: "citrus-woody", Price: &price}

	n, err := uc.IngestProducts(context.Background(), []domain.Product{product})
	if err != nil {
		t.Fatalf("IngestProducts() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 stored, got %d", n)
	}
	if len(store.productBatches) != 1 {
		t.Fatalf("expected one batch, got %d", len(store.productBatches))
	}

	item := store.productBatches[0][0]
	if item.Record.ID != "p_12" {
		t.Fatalf("expected record id p_12, got %s", item.Record.ID)
	}
	if item.Record.Source != domain.SourceProduct || item.Record.SourceObjID != "12" {
		t.Fatalf("unexpected record source fields: %+v", item.Record)
	}
	if item.Record.Text != product.EmbeddingText() {
		t.Fatalf("record text diverged from canonical rendering: %q", item.Record.Text)
	}
	if !strings.Contains(item.Record.Text, "$45.00") {
		t.Fatalf("expected formatted price in rendering, got %q", item.Record.Text)
	}
}

func TestIngestProductsMissingPriceRendersSentinel(t *testing.T) {
	store := &catalogueStoreFake{}
	uc := NewIngestUseCase(store, &embedderFake{})

	_, err := uc.IngestProducts(context.Background(), []domain.Product{{ID: "07", Name: "Lost Words"}})
	if err != nil {
		t.Fatalf("IngestProducts() error = %v", err)
	}
	text := store.productBatches[0][0].Record.Text
	if !strings.Contains(text, "Price: not available.") {
		t.Fatalf("expected price sentinel, got %q", text)
	}
}

func TestIngestProductsSingleBatchEmbedCall(t *testing.T) {
	embedder := &embedderFake{}
	uc := NewIngestUseCase(&catalogueStoreFake{}, embedder)

	products := []domain.Product{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	if _, err := uc.IngestProducts(context.Background(), products); err != nil {
		t.Fatalf("IngestProducts() error = %v", err)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected one batched embed call, got %d", embedder.calls)
	}
}

func TestIngestProductsRejectsMissingID(t *testing.T) {
	uc := NewIngestUseCase(&catalogueStoreFake{}, &embedderFake{})

	_, err := uc.IngestProducts(context.Background(), []domain.Product{{Name: "nameless"}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestProductsNoWritesOnEmbedFailure(t *testing.T) {
	store := &catalogueStoreFake{}
	uc := NewIngestUseCase(store, &embedderFake{err: errors.New("embed down")})

	if _, err := uc.IngestProducts(context.Background(), []domain.Product{{ID: "1"}}); err == nil {
		t.Fatalf("expected error")
	}
	if len(store.productBatches) != 0 {
		t.Fatalf("expected no writes after embed failure, got %d batches", len(store.productBatches))
	}
}

func TestIngestProductsEmptyBatch(t *testing.T) {
	uc := NewIngestUseCase(&catalogueStoreFake{}, &embedderFake{})

	n, err := uc.IngestProducts(context.Background(), nil)
	if err != nil {
		t.Fatalf("IngestProducts() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 stored, got %d", n)
	}
}

func TestIngestFAQStoresChunkAndRecordTogether(t *testing.T) {
	store := &catalogueStoreFake{}
	uc := NewIngestUseCase(store, &embedderFake{})

	chunks := []domain.FAQChunk{
		{ID: "faq_1", Heading: "Shipping", Text: "We ship worldwide."},
		{ID: "faq_2", Heading: "Returns", Text: "Returns accepted within 30 days."},
	}
	n, err := uc.IngestFAQ(context.Background(), chunks)
	if err != nil {
		t.Fatalf("IngestFAQ() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 stored, got %d", n)
	}

	items := store.faqBatches[0]
	if items[0].Record.ID != "f_faq_1" || items[1].Record.ID != "f_faq_2" {
		t.Fatalf("unexpected record ids: %s, %s", items[0].Record.ID, items[1].Record.ID)
	}
	for _, item := range items {
		if item.Record.Text != item.Chunk.Text {
			t.Fatalf("faq record text diverged from chunk text")
		}
		if item.Record.Source != domain.SourceFAQ {
			t.Fatalf("expected faq source, got %s", item.Record.Source)
		}
	}
}

func TestIngestFAQRejectsEmptyText(t *testing.T) {
	uc := NewIngestUseCase(&catalogueStoreFake{}, &embedderFake{})

	_, err := uc.IngestFAQ(context.Background(), []domain.FAQChunk{{ID: "faq_1"}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
