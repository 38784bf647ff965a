package service

import (
	"context"
	"path/filepath"

	"github.com/ithalat-ops/backoffice-api/internal/aggregate"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/importer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PackingService parses packing lists into per-code totals. Nothing is persisted.
type PackingService struct {
	logger *zap.Logger
}

// NewPackingService creates a new packing list service instance
func NewPackingService(logger *zap.Logger) *PackingService {
	return &PackingService{logger: logger}
}

// Parse reads an uploaded packing list and aggregates it by product code, multiplying
// per-box values by the box count
func (s *PackingService) Parse(ctx context.Context, filename string, data []byte) (*domain.PackingParseResult, error) {
	source := filepath.Base(filename)
	sheet, err := importer.ParsePackingFile(filename, data, source)
	if err != nil {
		s.logger.Warn("packing list rejected", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	entries := aggregate.PackingList(sheet.Lines)
	result := &domain.PackingParseResult{
		Source:    source,
		Delimiter: sheet.Delimiter,
		Columns:   make(map[string]string, len(sheet.Columns)),
		Rows:      len(sheet.Lines),
		Skipped:   sheet.Skipped,
		Entries:   make([]aggregate.PackingEntry, 0, len(entries)),
		Totals: domain.PackingTotals{
			Quantity:    decimal.Zero,
			Boxes:       decimal.Zero,
			NetWeight:   decimal.Zero,
			GrossWeight: decimal.Zero,
		},
	}
	for field, header := range sheet.Columns {
		result.Columns[string(field)] = header
	}
	for _, key := range aggregate.SortedKeys(entries) {
		e := entries[key]
		result.Entries = append(result.Entries, *e)
		result.Totals.Quantity = result.Totals.Quantity.Add(e.Quantity)
		result.Totals.Boxes = result.Totals.Boxes.Add(e.Boxes)
		result.Totals.NetWeight = result.Totals.NetWeight.Add(e.NetWeight)
		result.Totals.GrossWeight = result.Totals.GrossWeight.Add(e.GrossWeight)
	}

	s.logger.Info("packing list parsed",
		zap.String("filename", filename),
		zap.Int("rows", result.Rows),
		zap.Int("codes", len(result.Entries)),
		zap.Int("skipped", result.Skipped))
	return result, nil
}
