package domain

import (
	"fmt"
	"time"
)

// Product is one catalogue item, keyed by the stable id carried in the
// uploaded rows. Re-uploading a row with the same id overwrites the record.
type Product struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Notes      string   `json:"notes"`
	Accords    string   `json:"accords"`
	Price      *float64 `json:"price,omitempty"`
	Longevity  string   `json:"longevity"`
	Season     string   `json:"season"`
	ImageURL   string   `json:"image_url"`
	Popularity float64  `json:"popularity"`
}

// EmbeddingText is the canonical rendering of a product. The same string is
// embedded and stored as the record text, so retrieval always cites exactly
// what was embedded.
func (p Product) EmbeddingText() string {
	price := "not available"
	if p.Price != nil {
		price = fmt.Sprintf("$%.2f", *p.Price)
	}
	return fmt.Sprintf(
		"Product name: %s. Description: %s. Price: %s. Features/Accords: %s. Longevity: %s. Recommended season: %s.",
		p.Name, p.Notes, price, p.Accords, p.Longevity, p.Season,
	)
}

// FAQChunk is one bounded unit of FAQ content produced by chunking.
type FAQChunk struct {
	ID        string    `json:"id"`
	Heading   string    `json:"heading"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// EmbeddingText returns the chunk body verbatim; FAQ chunks are embedded
// exactly as stored.
func (c FAQChunk) EmbeddingText() string {
	return c.Text
}

// MarkdownChunkID names markdown-derived chunks by 1-based position.
func MarkdownChunkID(n int) string {
	return fmt.Sprintf("faq_%d", n)
}

// PDFChunkID names page-derived chunks by 1-based page number.
func PDFChunkID(page int) string {
	return fmt.Sprintf("faq_pdf_%d", page)
}
