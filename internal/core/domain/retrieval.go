package domain

// RetrievedRecord is an embedding record with its similarity score against
// a query vector.
type RetrievedRecord struct {
	EmbeddingRecord
	Score float64 `json:"score"`
}

// Snippet converts a retrieved record into the grounding snippet shape.
func (r RetrievedRecord) Snippet() ContextSnippet {
	return ContextSnippet{
		ID:     r.ID,
		Source: r.Source,
		Text:   r.Text,
	}
}
