package importer

import (
	"errors"
	"strings"

	"github.com/ithalat-ops/backoffice-api/internal/aggregate"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
)

// ErrMissingColumns is returned when a packing list header lacks the code or quantity column
var ErrMissingColumns = errors.New("header must contain product code and quantity columns")

// PackingSheet is a parsed packing list before aggregation
type PackingSheet struct {
	// Delimiter is empty for xlsx
	Delimiter string
	// Columns maps each recognised field to the header text that named it
	Columns map[textnorm.Field]string
	Lines   []aggregate.PackingLine
	// Skipped counts data rows without a product code
	Skipped int
}

// ParsePackingFile reads a packing list upload. The delimiter of text files is detected and
// the header row is resolved through the alias table. source is recorded on every line.
func ParsePackingFile(filename string, data []byte, source string) (*PackingSheet, error) {
	records, delim, err := readRecords(filename, data, 0)
	if err != nil {
		return nil, err
	}

	sheet, err := ParsePackingRecords(records, source)
	if err != nil {
		return nil, err
	}
	if delim != 0 {
		sheet.Delimiter = string(delim)
	}
	return sheet, nil
}

// ParsePackingRecords maps a header row plus data rows to packing lines.
// Unparseable numbers are treated as absent.
func ParsePackingRecords(records [][]string, source string) (*PackingSheet, error) {
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}

	header := records[0]
	cols := textnorm.MapHeaders(header)
	if _, ok := cols[textnorm.FieldProductCode]; !ok {
		return nil, ErrMissingColumns
	}
	if _, ok := cols[textnorm.FieldQuantity]; !ok {
		return nil, ErrMissingColumns
	}

	sheet := &PackingSheet{Columns: make(map[textnorm.Field]string, len(cols))}
	for field, idx := range cols {
		sheet.Columns[field] = strings.TrimSpace(header[idx])
	}

	get := func(rec []string, f textnorm.Field) string {
		idx, ok := cols[f]
		if !ok {
			return ""
		}
		return textnorm.Cell(rec, idx)
	}

	for i, rec := range records[1:] {
		code := textnorm.NormalizeCode(get(rec, textnorm.FieldProductCode))
		if code == "" {
			sheet.Skipped++
			continue
		}
		lineSource := source
		if doc := get(rec, textnorm.FieldDocument); doc != "" {
			lineSource = doc
		}
		sheet.Lines = append(sheet.Lines, aggregate.PackingLine{
			Index:       i + 2,
			Code:        code,
			Name:        get(rec, textnorm.FieldProductName),
			Quantity:    textnorm.ParseLocalizedNumberNull(get(rec, textnorm.FieldQuantity)),
			BoxCount:    textnorm.ParseLocalizedNumberNull(get(rec, textnorm.FieldBoxCount)),
			NetWeight:   textnorm.ParseLocalizedNumberNull(get(rec, textnorm.FieldNetWeight)),
			GrossWeight: textnorm.ParseLocalizedNumberNull(get(rec, textnorm.FieldGrossWeight)),
			Source:      lineSource,
		})
	}
	return sheet, nil
}
