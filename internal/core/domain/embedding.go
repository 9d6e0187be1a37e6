package domain

import "time"

type Source string

const (
	SourceProduct Source = "product"
	SourceFAQ     Source = "faq"
)

// EmbeddingRecord is the unit the retriever scans: the embedded text, the
// vector it produced, and a non-owning back-reference to the source entity.
// Exactly one record exists per source entity; the derived id makes
// re-ingestion overwrite rather than duplicate.
type EmbeddingRecord struct {
	ID          string    `json:"id"`
	Source      Source    `json:"source"`
	SourceObjID string    `json:"source_obj_id"`
	Text        string    `json:"text"`
	Vector      []float64 `json:"vector"`
	CreatedAt   time.Time `json:"created_at"`
}

func ProductRecordID(productID string) string {
	return "p_" + productID
}

func FAQRecordID(chunkID string) string {
	return "f_" + chunkID
}

// ProductEmbedding pairs a product with its embedding record for atomic
// batch persistence.
type ProductEmbedding struct {
	Product Product
	Record  EmbeddingRecord
}

// FAQEmbedding pairs an FAQ chunk with its embedding record.
type FAQEmbedding struct {
	Chunk  FAQChunk
	Record EmbeddingRecord
}
