// Package importer turns uploaded quote and packing-list files into typed rows.
// It reads bytes only; matching and persistence happen in the service layer.
package importer

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmptyFile is returned when a file has no data rows
	ErrEmptyFile = errors.New("file contains no rows")
	// ErrUnsupportedFormat is returned for extensions other than .csv, .txt and .xlsx
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")
)

// Format is the detected container of an upload
type Format string

const (
	FormatText Format = "text"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the reader from the file name
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", ".tsv":
		return FormatText, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ReadWorkbook returns the rows of the first sheet of an xlsx file.
func ReadWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, ErrEmptyFile
	}
	return out, nil
}

// readRecords decodes a text or xlsx upload into records. For text the delimiter is
// either forced or auto-detected; the chosen one is returned.
func readRecords(filename string, data []byte, forced rune) ([][]string, rune, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, 0, err
	}

	if format == FormatXLSX {
		rows, err := ReadWorkbook(data)
		return rows, 0, err
	}

	text, err := textnorm.DecodeText(data)
	if err != nil {
		return nil, 0, err
	}
	delim := forced
	if delim == 0 {
		delim = textnorm.DetectDelimiter(text)
	}
	records, err := textnorm.ReadDelimited(text, delim)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read delimited text: %w", err)
	}
	if len(records) == 0 {
		return nil, 0, ErrEmptyFile
	}
	return records, delim, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
