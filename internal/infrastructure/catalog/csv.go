// Package catalog provides product catalog sources: a CSV file or a SQL table.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/producelens/backend/internal/domain"
)

// CSVProvider reads the catalog from a CSV file with a header row.
type CSVProvider struct {
	path string
}

// NewCSVProvider creates a provider for the CSV file at path.
func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{path: path}
}

// Name returns the file name, used as the evidence source label.
func (p *CSVProvider) Name() string {
	return filepath.Base(p.path)
}

// ListProducts reads every row of the file.
func (p *CSVProvider) ListProducts(ctx context.Context) ([]domain.CatalogRow, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses catalog rows. Columns are matched by header name, so their
// order is free and unknown columns are ignored; id and name are required.
func ReadCSV(r io.Reader) ([]domain.CatalogRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("catalog is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[name] = i
	}
	for _, required := range []string{"id", "name"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	var rows []domain.CatalogRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		rows = append(rows, domain.CatalogRow{
			ID:         field("id"),
			Name:       field("name"),
			Aliases:    field("aliases"),
			Category:   field("category"),
			Price:      field("price"),
			Region:     field("region"),
			Season:     field("season"),
			IsOrganic:  field("is_organic"),
			IsLocal:    field("is_local"),
			Store:      field("store"),
			UpdateTime: field("update_time"),
		})
	}

	return rows, nil
}
