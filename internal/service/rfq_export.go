package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const comparisonSheet = "Comparison"

// comparisonFixedColumns precede the per-supplier triplets
var comparisonFixedColumns = []string{"Product Code", "Product Name", "Quantity"}

// ExportComparison renders the RFQ comparison as an xlsx workbook with one
// (price, net cost, lead time) column triplet per supplier. The minimum price of each row
// is filled green and missing values grey. Returns the file name and content.
func (s *RfqService) ExportComparison(ctx context.Context, rfqID uuid.UUID) (string, []byte, error) {
	cmp, err := s.Comparison(ctx, rfqID)
	if err != nil {
		return "", nil, err
	}

	data, err := renderComparison(cmp)
	if err != nil {
		s.logger.Error("failed to render comparison workbook", zap.String("rfq_id", rfqID.String()), zap.Error(err))
		return "", nil, err
	}

	s.logger.Info("rfq comparison exported",
		zap.String("rfq_id", rfqID.String()),
		zap.Int("rows", len(cmp.Rows)),
		zap.Int("bytes", len(data)))
	return fmt.Sprintf("%s-comparison.xlsx", cmp.Code), data, nil
}

func renderComparison(cmp *domain.RfqComparisonDTO) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", comparisonSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	minStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create min price style: %w", err)
	}
	missingStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#808080"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create missing value style: %w", err)
	}

	headers := append([]string(nil), comparisonFixedColumns...)
	for _, sup := range cmp.Suppliers {
		label := sup.SupplierName
		if sup.Currency != "" {
			label = fmt.Sprintf("%s (%s)", sup.SupplierName, sup.Currency)
		}
		headers = append(headers, label+" Price", label+" Net Cost", label+" Lead Time")
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(comparisonSheet, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(comparisonSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for r, row := range cmp.Rows {
		excelRow := r + 2
		set := func(col int, value interface{}, style int) error {
			cell, err := excelize.CoordinatesToCellName(col, excelRow)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(comparisonSheet, cell, value); err != nil {
				return err
			}
			if style != 0 {
				return f.SetCellStyle(comparisonSheet, cell, cell, style)
			}
			return nil
		}

		if err := set(1, row.ProductCode, 0); err != nil {
			return nil, err
		}
		if err := set(2, row.ProductName, 0); err != nil {
			return nil, err
		}
		if err := set(3, row.Quantity.InexactFloat64(), 0); err != nil {
			return nil, err
		}

		for i, c := range row.Cells {
			col := len(comparisonFixedColumns) + i*3 + 1

			if c.UnitPrice.Valid {
				style := 0
				if c.IsMinPrice {
					style = minStyle
				}
				if err := set(col, c.UnitPrice.Decimal.InexactFloat64(), style); err != nil {
					return nil, err
				}
			} else if err := set(col, "-", missingStyle); err != nil {
				return nil, err
			}

			if c.NetCost.Valid {
				if err := set(col+1, c.NetCost.Decimal.Round(4).InexactFloat64(), 0); err != nil {
					return nil, err
				}
			} else if err := set(col+1, "-", missingStyle); err != nil {
				return nil, err
			}

			if lead := leadTime(c); lead != "" {
				if err := set(col+2, lead, 0); err != nil {
					return nil, err
				}
			} else if err := set(col+2, "-", missingStyle); err != nil {
				return nil, err
			}
		}
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 16.0
		if i == 1 {
			width = 40
		}
		if err := f.SetColWidth(comparisonSheet, col, col, width); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(comparisonSheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      len(comparisonFixedColumns),
		YSplit:      1,
		TopLeftCell: "D2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// leadTime prefers transit days over the free-text delivery time
func leadTime(c domain.ComparisonCellDTO) string {
	if c.TransitDays != nil {
		return strconv.Itoa(*c.TransitDays) + " days"
	}
	return c.DeliveryTime
}
