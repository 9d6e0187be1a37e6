package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
	"github.com/kirillkom/catalogue-assistant/internal/core/ports"
)

// RetrieveUseCase scans all stored embeddings, scores them by cosine
// similarity against the query vector, drops everything strictly below the
// threshold and returns the best k. The store must hold vectors of one
// dimensionality; a mismatching record is a hard error.
type RetrieveUseCase struct {
	vectors ports.VectorStore
}

func NewRetrieveUseCase(vectors ports.VectorStore) *RetrieveUseCase {
	return &RetrieveUseCase{vectors: vectors}
}

func (uc *RetrieveUseCase) Retrieve(
	ctx context.Context,
	queryVector []float64,
	k int,
	threshold float64,
) ([]domain.RetrievedRecord, error) {
	if len(queryVector) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("empty query vector"))
	}

	records, err := uc.vectors.ScanEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan embeddings: %w", err)
	}

	out := make([]domain.RetrievedRecord, 0, len(records))
	for _, rec := range records {
		score, err := cosineSimilarity(queryVector, rec.Vector)
		if err != nil {
			return nil, fmt.Errorf("score record %s: %w", rec.ID, err)
		}
		if score < threshold {
			continue
		}
		out = append(out, domain.RetrievedRecord{EmbeddingRecord: rec, Score: score})
	}

	// Stable sort keeps scan order for equal scores.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func cosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
