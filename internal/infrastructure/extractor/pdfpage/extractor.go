package pdfpage

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Extractor pulls plain text out of a PDF page by page. Pages that fail to
// decode are skipped with a log line; a single damaged page must not sink
// the whole upload.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractPages returns one string per page, in page order. The returned
// slice keeps empty entries for unreadable pages so downstream chunk ids
// still reflect source page numbers.
func (e *Extractor) ExtractPages(r io.ReaderAt, size int64) ([]string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("pdf_page_skipped", "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}
