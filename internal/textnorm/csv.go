package textnorm

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// DetectDelimiter inspects the first non-blank line and prefers ';', then tab, then ','.
// Turkish-locale exports use ';' because ',' is the decimal separator.
func DetectDelimiter(text string) rune {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.Contains(line, ";"):
			return ';'
		case strings.Contains(line, "\t"):
			return '\t'
		default:
			return ','
		}
	}
	return ','
}

// ReadDelimited splits text into records using delim. Quoted fields may contain the
// delimiter, line breaks and doubled quotes (""). Blank lines are skipped and rows may
// have different lengths.
func ReadDelimited(text string, delim rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = delim != '\t'

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlankRecord(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Cell returns the trimmed cell at idx, or "" when the row is shorter.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
