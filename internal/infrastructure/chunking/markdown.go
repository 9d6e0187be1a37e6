package chunking

import (
	"fmt"
	"strings"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

// Splitter breaks flat markdown-like FAQ text into sections. A "##" heading
// line closes the accumulated body under the previous heading; a body that
// grows past the soft character budget is flushed under the current heading
// without clearing it, so several chunks may share one heading. The budget
// is approximate: the line that crosses it is kept in the flushed chunk.
type Splitter struct {
	chunkSize int
}

func NewSplitter(chunkSize int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 700
	}
	return &Splitter{chunkSize: chunkSize}
}

func (s *Splitter) Chunk(text string) []domain.FAQChunk {
	var (
		chunks  []domain.FAQChunk
		body    []string
		bodyLen int
		heading string
	)

	flush := func() {
		joined := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		bodyLen = 0
		if joined == "" {
			return
		}
		chunks = append(chunks, domain.FAQChunk{
			ID:      domain.MarkdownChunkID(len(chunks) + 1),
			Heading: heading,
			Text:    joined,
		})
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "##") {
			flush()
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			continue
		}

		body = append(body, line)
		// Joined-with-space length, counted incrementally.
		if bodyLen > 0 {
			bodyLen++
		}
		bodyLen += len(line)
		if bodyLen > s.chunkSize {
			flush()
		}
	}
	flush()

	return chunks
}

// PageSections wraps already-paginated text, one chunk per page, labeled by
// page number. Heading and size logic do not apply; empty pages are skipped.
func (s *Splitter) PageSections(pages []string) []domain.FAQChunk {
	chunks := make([]domain.FAQChunk, 0, len(pages))
	for i, page := range pages {
		text := strings.TrimSpace(page)
		if text == "" {
			continue
		}
		chunks = append(chunks, domain.FAQChunk{
			ID:      domain.PDFChunkID(i + 1),
			Heading: fmt.Sprintf("Page %d", i+1),
			Text:    text,
		})
	}
	return chunks
}
