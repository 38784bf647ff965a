package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
)

// QuoteDelimiter is mandatory for RFQ quote text; it is never auto-detected.
const QuoteDelimiter = ';'

// QuoteColumns is the fixed column order of an RFQ quote import without a header.
var QuoteColumns = []textnorm.Field{
	textnorm.FieldProductCode,
	textnorm.FieldSupplierName,
	textnorm.FieldUnitPrice,
	textnorm.FieldCurrency,
	textnorm.FieldQuantity,
	textnorm.FieldTransitDays,
	textnorm.FieldMinOrder,
	textnorm.FieldDeliveryTime,
	textnorm.FieldValidityDate,
	textnorm.FieldNotes,
}

var dateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006", "2.1.2006", "01-02-06", time.RFC3339}

// QuoteRow is one parsed line of a supplier price import
type QuoteRow struct {
	Line         int
	ProductCode  string
	ProductName  string
	SupplierName string
	UnitPrice    decimal.Decimal
	Currency     string
	Quantity     decimal.NullDecimal
	TransitDays  *int
	MinOrder     decimal.NullDecimal
	DeliveryTime string
	ValidityDate *time.Time
	Notes        string
}

// RowError describes one rejected cell
type RowError struct {
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// RowErrors is returned when any row fails validation. No rows are returned with it.
type RowErrors []RowError

func (e RowErrors) Error() string {
	if len(e) == 0 {
		return "invalid rows"
	}
	first := e[0]
	return fmt.Sprintf("line %d: %s %s (%d invalid cells)", first.Line, first.Field, first.Reason, len(e))
}

// ParseQuoteText parses ';'-delimited quote text.
func ParseQuoteText(text string) ([]QuoteRow, error) {
	records, err := textnorm.ReadDelimited(text, QuoteDelimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote text: %w", err)
	}
	return ParseQuoteRecords(records)
}

// ParseQuoteFile parses an uploaded .csv or .xlsx quote file.
func ParseQuoteFile(filename string, data []byte) ([]QuoteRow, error) {
	records, _, err := readRecords(filename, data, QuoteDelimiter)
	if err != nil {
		return nil, err
	}
	return ParseQuoteRecords(records)
}

// IsQuoteHeader reports whether a record is a header: its first cell mentions product or supplier.
func IsQuoteHeader(record []string) bool {
	first := strings.ToLower(textnorm.Cell(record, 0))
	return strings.Contains(first, "product") || strings.Contains(first, "supplier")
}

// ParseQuoteRecords converts records to rows. A header row, when present, replaces the
// fixed column order entirely; a field the header does not name is absent.
func ParseQuoteRecords(records [][]string) ([]QuoteRow, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	cols := fixedQuoteColumns()
	start := 0
	if IsQuoteHeader(records[0]) {
		cols = textnorm.MapHeaders(records[0])
		start = 1
	}
	if start >= len(records) {
		return nil, ErrEmptyFile
	}

	var (
		rows []QuoteRow
		errs RowErrors
	)
	for i := start; i < len(records); i++ {
		row, rowErrs := parseQuoteRecord(records[i], cols, i+1)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		rows = append(rows, row)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return rows, nil
}

func fixedQuoteColumns() map[textnorm.Field]int {
	cols := make(map[textnorm.Field]int, len(QuoteColumns))
	for i, f := range QuoteColumns {
		cols[f] = i
	}
	return cols
}

func parseQuoteRecord(rec []string, cols map[textnorm.Field]int, line int) (QuoteRow, RowErrors) {
	cell := func(f textnorm.Field) string {
		idx, ok := cols[f]
		if !ok {
			return ""
		}
		return textnorm.Cell(rec, idx)
	}
	var errs RowErrors
	fail := func(f textnorm.Field, value, reason string) {
		errs = append(errs, RowError{Line: line, Field: string(f), Value: value, Reason: reason})
	}

	row := QuoteRow{
		Line:         line,
		ProductCode:  textnorm.NormalizeCode(cell(textnorm.FieldProductCode)),
		ProductName:  textnorm.NormalizeCode(cell(textnorm.FieldProductName)),
		SupplierName: textnorm.NormalizeCode(cell(textnorm.FieldSupplierName)),
		Currency:     strings.ToUpper(cell(textnorm.FieldCurrency)),
		DeliveryTime: cell(textnorm.FieldDeliveryTime),
		Notes:        cell(textnorm.FieldNotes),
	}

	if row.ProductCode == "" && row.ProductName == "" {
		fail(textnorm.FieldProductCode, "", "is required when no product_name is given")
	}
	if row.SupplierName == "" {
		fail(textnorm.FieldSupplierName, "", "is required")
	}

	raw := cell(textnorm.FieldUnitPrice)
	if price, ok := textnorm.ParseLocalizedNumber(raw); !ok {
		fail(textnorm.FieldUnitPrice, raw, "is not a number")
	} else if price.IsNegative() {
		fail(textnorm.FieldUnitPrice, raw, "must not be negative")
	} else {
		row.UnitPrice = price
	}

	if row.Currency != "" && len(row.Currency) != 3 {
		fail(textnorm.FieldCurrency, row.Currency, "must be a 3-letter code")
	}

	row.Quantity = optionalNumber(cell(textnorm.FieldQuantity), textnorm.FieldQuantity, fail)
	row.MinOrder = optionalNumber(cell(textnorm.FieldMinOrder), textnorm.FieldMinOrder, fail)

	if raw := cell(textnorm.FieldTransitDays); raw != "" {
		if n, ok := textnorm.ParseLocalizedNumber(raw); ok && n.IsInteger() && !n.IsNegative() {
			days := int(n.IntPart())
			row.TransitDays = &days
		} else if d, err := strconv.Atoi(strings.Fields(raw)[0]); err == nil && d >= 0 {
			// "30 days"
			row.TransitDays = &d
		} else {
			fail(textnorm.FieldTransitDays, raw, "is not a whole number of days")
		}
	}

	if raw := cell(textnorm.FieldValidityDate); raw != "" {
		if t, ok := ParseDate(raw); ok {
			row.ValidityDate = &t
		} else {
			fail(textnorm.FieldValidityDate, raw, "is not a date")
		}
	}

	return row, errs
}

func optionalNumber(raw string, f textnorm.Field, fail func(textnorm.Field, string, string)) decimal.NullDecimal {
	if raw == "" {
		return decimal.NullDecimal{}
	}
	v := textnorm.ParseLocalizedNumberNull(raw)
	if !v.Valid {
		fail(f, raw, "is not a number")
	}
	return v
}

// ParseDate accepts ISO and day-first Turkish date spellings
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
