package openai

import (
	"encoding/json"
	"testing"
)

func TestNormalizeEmbeddingResponseObjectShape(t *testing.T) {
	raw := json.RawMessage(`{"data":[{"embedding":[0.1,0.2]},{"embedding":[0.3]}]}`)
	vectors, err := normalizeEmbeddingResponse(raw)
	if err != nil {
		t.Fatalf("normalizeEmbeddingResponse() error = %v", err)
	}
	if len(vectors) != 2 || vectors[0][1] != 0.2 || vectors[1][0] != 0.3 {
		t.Fatalf("unexpected vectors %v", vectors)
	}
}

func TestNormalizeEmbeddingResponseStringWrapped(t *testing.T) {
	// Some proxies double-encode the body as a JSON string.
	raw := json.RawMessage(`"{\"data\":[{\"embedding\":[1,2]}]}"`)
	vectors, err := normalizeEmbeddingResponse(raw)
	if err != nil {
		t.Fatalf("normalizeEmbeddingResponse() error = %v", err)
	}
	if len(vectors) != 1 || vectors[0][0] != 1 {
		t.Fatalf("unexpected vectors %v", vectors)
	}
}

func TestNormalizeEmbeddingResponseDropsMalformedItems(t *testing.T) {
	raw := json.RawMessage(`{"data":[{"embedding":"oops"},{"embedding":[1]},{"embedding":[]}]}`)
	vectors, err := normalizeEmbeddingResponse(raw)
	if err != nil {
		t.Fatalf("normalizeEmbeddingResponse() error = %v", err)
	}
	if len(vectors) != 1 || vectors[0][0] != 1 {
		t.Fatalf("expected the single usable vector, got %v", vectors)
	}
}

func TestNormalizeEmbeddingResponseNoUsableVectors(t *testing.T) {
	raw := json.RawMessage(`{"data":[{"embedding":"oops"}]}`)
	if _, err := normalizeEmbeddingResponse(raw); err == nil {
		t.Fatalf("expected error when no item is usable")
	}
}

func TestExtractSources(t *testing.T) {
	answer, citations := extractSources("Answer body.\nSOURCES: [p_1], f_2.")
	if answer != "Answer body." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if len(citations) != 2 || citations[0] != "p_1" || citations[1] != "f_2" {
		t.Fatalf("unexpected citations %v", citations)
	}
}

func TestExtractSourcesMissingLine(t *testing.T) {
	answer, citations := extractSources("  Plain answer.  ")
	if answer != "Plain answer." || citations != nil {
		t.Fatalf("unexpected result %q / %v", answer, citations)
	}
}

func TestExtractSourcesOnlySourcesLine(t *testing.T) {
	original := "SOURCES: p_1"
	answer, citations := extractSources(original)
	if answer != original {
		t.Fatalf("empty body must keep the original text, got %q", answer)
	}
	if len(citations) != 1 || citations[0] != "p_1" {
		t.Fatalf("unexpected citations %v", citations)
	}
}
