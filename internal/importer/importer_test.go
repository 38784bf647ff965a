package importer_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ithalat-ops/backoffice-api/internal/aggregate"
	"github.com/ithalat-ops/backoffice-api/internal/importer"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseQuoteText_FixedColumns(t *testing.T) {
	text := "P-1;Acme Trading Ltd;1.234,50;usd;100;30;10;4 weeks;31.12.2026;first\n" +
		"P-2;Acme Trading Ltd;12,5;;;;;;;\n"

	rows, err := importer.ParseQuoteText(text)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, "P-1", first.ProductCode)
	assert.Equal(t, "Acme Trading Ltd", first.SupplierName)
	assert.True(t, decimal.RequireFromString("1234.5").Equal(first.UnitPrice))
	assert.Equal(t, "USD", first.Currency)
	assert.True(t, first.Quantity.Valid)
	require.NotNil(t, first.TransitDays)
	assert.Equal(t, 30, *first.TransitDays)
	assert.Equal(t, "4 weeks", first.DeliveryTime)
	require.NotNil(t, first.ValidityDate)
	assert.Equal(t, 2026, first.ValidityDate.Year())

	second := rows[1]
	assert.True(t, decimal.RequireFromString("12.5").Equal(second.UnitPrice))
	assert.False(t, second.Quantity.Valid, "absent quantity stays absent")
	assert.Nil(t, second.TransitDays)
	assert.Empty(t, second.Currency)
}

func TestParseQuoteText_HeaderDetected(t *testing.T) {
	text := "Product Code;Supplier;Unit Price;Currency\n\"A;1\";Beta;5;EUR\n"

	rows, err := importer.ParseQuoteText(text)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A;1", rows[0].ProductCode)
	assert.Equal(t, 2, rows[0].Line)
}

func TestParseQuoteText_HeaderWithoutCurrency(t *testing.T) {
	rows, err := importer.ParseQuoteText("product_code;supplier_name;unit_price;quantity\nA-1;Acme;12,5;100\nA-2;Acme;3;5\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0].Currency, "a column the header does not name is absent")
	require.True(t, rows[0].Quantity.Valid)
	assert.True(t, decimal.NewFromInt(100).Equal(rows[0].Quantity.Decimal))
	assert.Empty(t, rows[1].Currency)
	assert.Nil(t, rows[1].TransitDays)
}

func TestParseQuoteText_ProductNameColumn(t *testing.T) {
	rows, err := importer.ParseQuoteText("product_code;product_name;supplier_name;unit_price\n;Hydraulic  Pump;Acme;12,5\nB-1;;Acme;1\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0].ProductCode)
	assert.Equal(t, "Hydraulic Pump", rows[0].ProductName)
	assert.Equal(t, "B-1", rows[1].ProductCode)

	_, err = importer.ParseQuoteText("product_code;product_name;supplier_name;unit_price\n;;Acme;1\n")
	var rowErrs importer.RowErrors
	require.True(t, errors.As(err, &rowErrs))
	assert.Equal(t, "product_code", rowErrs[0].Field)
}

func TestParseQuoteText_CommaIsNotADelimiter(t *testing.T) {
	rows, err := importer.ParseQuoteText("P-1;Beta;3,75;TRY\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, decimal.RequireFromString("3.75").Equal(rows[0].UnitPrice))
}

func TestParseQuoteText_RowErrors(t *testing.T) {
	_, err := importer.ParseQuoteText("P-1;Beta;abc;USD\n;Beta;1;USD\nP-3;Beta;1;USD;x\n")
	require.Error(t, err)

	var rowErrs importer.RowErrors
	require.True(t, errors.As(err, &rowErrs))
	require.Len(t, rowErrs, 3)
	assert.Equal(t, "unit_price", rowErrs[0].Field)
	assert.Equal(t, "product_code", rowErrs[1].Field)
	assert.Equal(t, 3, rowErrs[2].Line)
	assert.Equal(t, "quantity", rowErrs[2].Field)
}

func TestParseQuoteText_Empty(t *testing.T) {
	_, err := importer.ParseQuoteText("  \n\n")
	assert.ErrorIs(t, err, importer.ErrEmptyFile)

	_, err = importer.ParseQuoteText("product_code;supplier_name;unit_price\n")
	assert.ErrorIs(t, err, importer.ErrEmptyFile)
}

func TestDetectFormat(t *testing.T) {
	f, err := importer.DetectFormat("quotes.CSV")
	require.NoError(t, err)
	assert.Equal(t, importer.FormatText, f)

	f, err = importer.DetectFormat("list.xlsx")
	require.NoError(t, err)
	assert.Equal(t, importer.FormatXLSX, f)

	_, err = importer.DetectFormat("list.pdf")
	assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)
}

func TestParsePackingFile_CSVWithAliases(t *testing.T) {
	csv := "Ürün Kodu;Adet;Koli;NW\nA-1;10;5;1,5\nA-1;3;;\n;7;1;1\nB-2;2;0;4\n"

	sheet, err := importer.ParsePackingFile("pl.csv", []byte(csv), "PL-1")
	require.NoError(t, err)
	assert.Equal(t, ";", sheet.Delimiter)
	assert.Equal(t, 1, sheet.Skipped)
	assert.Equal(t, "Adet", sheet.Columns[textnorm.FieldQuantity])
	require.Len(t, sheet.Lines, 3)

	entries := aggregate.PackingList(sheet.Lines)
	a := entries["a-1"]
	require.NotNil(t, a)
	assert.True(t, decimal.NewFromInt(53).Equal(a.Quantity), a.Quantity.String())
	assert.True(t, decimal.NewFromInt(5).Equal(a.Boxes))
	assert.True(t, decimal.RequireFromString("7.5").Equal(a.NetWeight))
	assert.Equal(t, []string{"PL-1"}, a.Sources)

	b := entries["b-2"]
	require.NotNil(t, b)
	assert.True(t, decimal.NewFromInt(2).Equal(b.Quantity))
	assert.True(t, b.Boxes.IsZero())
}

func TestParsePackingFile_MissingColumns(t *testing.T) {
	_, err := importer.ParsePackingFile("pl.csv", []byte("foo,bar\n1,2\n"), "x")
	assert.ErrorIs(t, err, importer.ErrMissingColumns)
}

func TestParsePackingFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Product Code", "Qty", "Boxes", "Invoice No"},
		{"X-1", 4, 2, "INV-9"},
		{"X-2", 1, nil, ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	parsed, err := importer.ParsePackingFile("pl.xlsx", buf.Bytes(), "upload.xlsx")
	require.NoError(t, err)
	assert.Empty(t, parsed.Delimiter)
	require.Len(t, parsed.Lines, 2)
	assert.Equal(t, "INV-9", parsed.Lines[0].Source)
	assert.Equal(t, "upload.xlsx", parsed.Lines[1].Source)

	entries := aggregate.PackingList(parsed.Lines)
	assert.True(t, decimal.NewFromInt(8).Equal(entries["x-1"].Quantity))
}
