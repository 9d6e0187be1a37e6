// Package deterministic provides the network-free embedding and completion
// gateway. It is the default when no API key is configured and the fallback
// the external gateway degrades to, so its behavior is the baseline answer
// contract.
package deterministic

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

// VectorDim is the dimensionality of deterministic vectors.
const VectorDim = 16

type Gateway struct{}

func New() *Gateway {
	return &Gateway{}
}

func (g *Gateway) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = Vector(text)
	}
	return out, nil
}

func (g *Gateway) EmbedQuery(_ context.Context, text string) ([]float64, error) {
	return Vector(text), nil
}

// Vector maps a text to a fixed 16-dimensional vector: the first 16 bytes
// of its SHA-256 hash, each byte b at position i becoming (b mod 128)/127
// with alternating sign. Identical text always yields an identical vector.
func Vector(text string) []float64 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float64, VectorDim)
	for i, b := range sum[:VectorDim] {
		v := float64(b%128) / 127.0
		if i%2 == 1 {
			v = -v
		}
		vec[i] = v
	}
	return vec
}

func (g *Gateway) Complete(
	_ context.Context,
	messages []domain.Message,
	_ domain.Mode,
	snippets []domain.ContextSnippet,
) (domain.Completion, error) {
	return Completion(messages, snippets), nil
}

// Completion applies the fallback answer policy: a comparison request over
// at least two product snippets yields a fixed-template comparison citing
// those two products; anything else acknowledges the snippets and cites the
// first three in input order.
func Completion(messages []domain.Message, snippets []domain.ContextSnippet) domain.Completion {
	var productIDs []string
	for _, s := range snippets {
		if s.Source == domain.SourceProduct {
			productIDs = append(productIDs, s.ID)
		}
	}

	var last string
	if len(messages) > 0 {
		last = strings.ToLower(messages[len(messages)-1].Content)
	}

	if strings.Contains(last, "compare") && len(productIDs) >= 2 {
		return domain.Completion{
			Answer:    fmt.Sprintf("Based on the stored catalogue entries, %s compares favorably with %s.", productIDs[0], productIDs[1]),
			Citations: productIDs[:2],
		}
	}

	limit := 3
	if len(snippets) < limit {
		limit = len(snippets)
	}
	citations := make([]string, 0, limit)
	for _, s := range snippets[:limit] {
		citations = append(citations, s.ID)
	}
	return domain.Completion{
		Answer:    "I answered using the provided context snippets.",
		Citations: citations,
	}
}
