// Package memory is the in-process catalogue store used when no postgres
// DSN is configured. Upserts are last-writer-wins per id and each batch is
// applied under one lock, so a scan never observes a partial batch.
package memory

import (
	"context"
	"sync"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

type Store struct {
	mu sync.RWMutex

	products     map[string]domain.Product
	productOrder []string

	faqs     map[string]domain.FAQChunk
	faqOrder []string

	records     map[string]domain.EmbeddingRecord
	recordOrder []string
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]domain.Product),
		faqs:     make(map[string]domain.FAQChunk),
		records:  make(map[string]domain.EmbeddingRecord),
	}
}

func (s *Store) UpsertProductBatch(_ context.Context, items []domain.ProductEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if _, ok := s.products[item.Product.ID]; !ok {
			s.productOrder = append(s.productOrder, item.Product.ID)
		}
		s.products[item.Product.ID] = item.Product
		s.upsertRecordLocked(item.Record)
	}
	return nil
}

func (s *Store) UpsertFAQBatch(_ context.Context, items []domain.FAQEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if _, ok := s.faqs[item.Chunk.ID]; !ok {
			s.faqOrder = append(s.faqOrder, item.Chunk.ID)
		}
		s.faqs[item.Chunk.ID] = item.Chunk
		s.upsertRecordLocked(item.Record)
	}
	return nil
}

func (s *Store) upsertRecordLocked(record domain.EmbeddingRecord) {
	if _, ok := s.records[record.ID]; !ok {
		s.recordOrder = append(s.recordOrder, record.ID)
	}
	s.records[record.ID] = record
}

func (s *Store) ListProducts(context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		out = append(out, s.products[id])
	}
	return out, nil
}

func (s *Store) ListFAQChunks(context.Context) ([]domain.FAQChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FAQChunk, 0, len(s.faqOrder))
	for _, id := range s.faqOrder {
		out = append(out, s.faqs[id])
	}
	return out, nil
}

// ScanEmbeddings returns all records in first-insertion order, which keeps
// retrieval tie-breaking stable across calls.
func (s *Store) ScanEmbeddings(context.Context) ([]domain.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.EmbeddingRecord, 0, len(s.recordOrder))
	for _, id := range s.recordOrder {
		out = append(out, s.records[id])
	}
	return out, nil
}
