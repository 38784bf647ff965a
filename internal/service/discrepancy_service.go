package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/aggregate"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultNumericCeiling is the exclusive bound of a numeric(20,4) column
var DefaultNumericCeiling = decimal.New(1, 16)

// DiscrepancyService compares ordered quantities with packed quantities per product code
// and stores the result as a run
type DiscrepancyService struct {
	repo      *repository.DiscrepancyRepository
	ceiling   decimal.Decimal
	chunkSize int
	logger    *zap.Logger
}

// NewDiscrepancyService creates a new discrepancy service instance. A non-positive ceiling
// falls back to DefaultNumericCeiling.
func NewDiscrepancyService(repo *repository.DiscrepancyRepository, ceiling decimal.Decimal, chunkSize int, logger *zap.Logger) *DiscrepancyService {
	if !ceiling.IsPositive() {
		ceiling = DefaultNumericCeiling
	}
	if chunkSize <= 0 {
		chunkSize = repository.DefaultChunkSize
	}
	return &DiscrepancyService{
		repo:      repo,
		ceiling:   ceiling,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Create aggregates both sides, rejects any value that would not fit the numeric column and
// persists the run with its rows
func (s *DiscrepancyService) Create(ctx context.Context, req *domain.CreateDiscrepancyRunRequest) (*domain.DiscrepancyRunDTO, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(req.OrderRows) == 0 && len(req.PackingRows) == 0 {
		return nil, ErrEmptyImport
	}

	rows, err := s.Compare(req.OrderRows, req.PackingRows)
	if err != nil {
		return nil, err
	}

	run := &domain.DiscrepancyRun{Title: title, OrderedTotal: decimal.Zero, PackedTotal: decimal.Zero}
	for _, r := range rows {
		run.OrderedTotal = run.OrderedTotal.Add(r.Ordered)
		run.PackedTotal = run.PackedTotal.Add(r.Packed)
	}
	var overflow []string
	if run.OrderedTotal.Abs().GreaterThanOrEqual(s.ceiling) || run.PackedTotal.Abs().GreaterThanOrEqual(s.ceiling) {
		for _, r := range rows {
			overflow = append(overflow, r.ProductCode)
		}
		return nil, &OverflowError{ProductCodes: overflow}
	}

	comp := NewCompensator(s.logger)
	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, mapper.FormatError("discrepancy run", "create", err)
	}
	comp.Add("delete run", func(ctx context.Context) error { return s.repo.DeleteRun(ctx, run.ID) })

	for i := range rows {
		rows[i].RunID = run.ID
	}
	if err := s.repo.CreateRows(ctx, rows, s.chunkSize); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("discrepancy rows", "create", err))
	}
	comp.Commit()

	s.logger.Info("discrepancy run created",
		zap.String("run_id", run.ID.String()),
		zap.Int("codes", len(rows)),
		zap.String("ordered_total", run.OrderedTotal.String()),
		zap.String("packed_total", run.PackedTotal.String()))

	run.Rows = rows
	dto := mapper.ToDiscrepancyRunDTO(run)
	return &dto, nil
}

// Compare builds one row per product code present on either side. Packing quantities are
// multiplied by their box count. Diff is packed minus ordered.
func (s *DiscrepancyService) Compare(orderRows, packingRows []domain.DiscrepancyInputRow) ([]domain.DiscrepancyRow, error) {
	orderAgg := aggregate.NewQuantityAggregator()
	for i, r := range orderRows {
		orderAgg.Add(aggregate.Line{
			Index:    i,
			Code:     r.ProductCode,
			Name:     r.ProductName,
			Quantity: r.Quantity.NullDecimal,
			Source:   r.Source,
		})
	}
	packAgg := aggregate.NewPackingAggregator()
	for i, r := range packingRows {
		packAgg.Add(aggregate.PackingLine{
			Index:    i,
			Code:     r.ProductCode,
			Name:     r.ProductName,
			Quantity: r.Quantity.NullDecimal,
			BoxCount: r.BoxCount.NullDecimal,
			Source:   r.Source,
		})
	}
	ordered := orderAgg.Result()
	packed := packAgg.Result()

	keys := make(map[string]struct{}, len(ordered)+len(packed))
	for k := range ordered {
		keys[k] = struct{}{}
	}
	for k := range packed {
		keys[k] = struct{}{}
	}

	rows := make([]domain.DiscrepancyRow, 0, len(keys))
	var overflow []string
	for _, key := range sortedSet(keys) {
		row := domain.DiscrepancyRow{Ordered: decimal.Zero, Packed: decimal.Zero, Boxes: decimal.Zero}
		sources := make(map[string]struct{})

		if o, ok := ordered[key]; ok {
			row.ProductCode = o.Code
			row.ProductName = o.Name
			row.Ordered = o.Quantity
			for _, src := range o.Sources {
				sources[src] = struct{}{}
			}
		}
		if p, ok := packed[key]; ok {
			if row.ProductCode == "" {
				row.ProductCode = p.Code
			}
			if row.ProductName == "" {
				row.ProductName = p.Name
			}
			row.Packed = p.Quantity
			row.Boxes = p.Boxes
			for _, src := range p.Sources {
				sources[src] = struct{}{}
			}
		}
		row.Diff = row.Packed.Sub(row.Ordered)
		row.Sources = sortedSet(sources)

		if s.exceeds(row.Ordered, row.Packed, row.Diff, row.Boxes) {
			overflow = append(overflow, row.ProductCode)
		}
		rows = append(rows, row)
	}

	if len(overflow) > 0 {
		sort.Strings(overflow)
		s.logger.Warn("discrepancy run rejected: numeric overflow", zap.Strings("product_codes", overflow))
		return nil, &OverflowError{ProductCodes: overflow}
	}
	return rows, nil
}

func (s *DiscrepancyService) exceeds(values ...decimal.Decimal) bool {
	for _, v := range values {
		if v.Abs().GreaterThanOrEqual(s.ceiling) {
			return true
		}
	}
	return false
}

// GetByID retrieves a run with its rows
func (s *DiscrepancyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiscrepancyRunDTO, error) {
	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrDiscrepancyRunNotFound, "discrepancy run")
	}
	dto := mapper.ToDiscrepancyRunDTO(run)
	return &dto, nil
}

// List returns a page of runs without rows
func (s *DiscrepancyService) List(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	runs, total, err := s.repo.ListRuns(ctx, page, pageSize)
	if err != nil {
		return nil, mapper.FormatError("discrepancy runs", "list", err)
	}
	dtos := make([]domain.DiscrepancyRunDTO, len(runs))
	for i := range runs {
		dtos[i] = mapper.ToDiscrepancyRunDTO(&runs[i])
	}
	resp := domain.NewPaginatedResponse(dtos, total, page, pageSize)
	return &resp, nil
}
