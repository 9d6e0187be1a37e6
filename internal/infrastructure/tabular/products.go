// Package tabular parses uploaded product catalogues. Two formats are
// accepted: CSV with a header row, and XLSX where the first sheet carries
// the same columns.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

// Parser turns an uploaded table into products. Rows with no id are skipped
// with a log line rather than failing the upload.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseProducts dispatches on the uploaded filename extension.
func (p *Parser) ParseProducts(r io.Reader, filename string) ([]domain.Product, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".xlsx"):
		return p.parseXLSX(r)
	case strings.HasSuffix(name, ".csv"), name == "":
		return p.parseCSV(r)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse products",
			fmt.Errorf("unsupported catalogue format: %s", filename))
	}
}

func (p *Parser) parseCSV(r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read csv", err)
	}
	return p.rowsToProducts(rows)
}

func (p *Parser) parseXLSX(r io.Reader) ([]domain.Product, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open xlsx", err)
	}
	defer func() {
		_ = file.Close()
	}()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open xlsx", fmt.Errorf("workbook has no sheets"))
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read xlsx rows", err)
	}
	return p.rowsToProducts(rows)
}

func (p *Parser) rowsToProducts(rows [][]string) ([]domain.Product, error) {
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse products", fmt.Errorf("empty table"))
	}

	columns := headerIndex(rows[0])
	if _, ok := columns["id"]; !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse products", fmt.Errorf("missing id column"))
	}

	var products []domain.Product
	for i, row := range rows[1:] {
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		id := cell("id")
		if id == "" {
			p.logger.Warn("product_row_skipped", "row", i+2, "reason", "missing id")
			continue
		}

		products = append(products, domain.Product{
			ID:         id,
			Name:       cell("name"),
			Notes:      cell("notes"),
			Accords:    cell("accords"),
			Price:      parsePrice(cell("price")),
			Longevity:  cell("longevity"),
			Season:     cell("season"),
			ImageURL:   firstNonEmpty(cell("imageurl"), cell("image_url")),
			Popularity: parseFloatOrZero(cell("popularity")),
		})
	}
	return products, nil
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	return columns
}

// parsePrice maps an absent or unusable price to nil so the canonical
// rendering says "not available" instead of inventing $0.00.
func parsePrice(raw string) *float64 {
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimPrefix(raw, "$"), 64)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

func parseFloatOrZero(raw string) float64 {
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
