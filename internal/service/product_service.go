package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductService handles the product catalog
type ProductService struct {
	productRepo *repository.ProductRepository
	gtipRepo    *repository.GtipRepository
	chunkSize   int
	logger      *zap.Logger
}

// NewProductService creates a new product service instance
func NewProductService(
	productRepo *repository.ProductRepository,
	gtipRepo *repository.GtipRepository,
	chunkSize int,
	logger *zap.Logger,
) *ProductService {
	if chunkSize <= 0 {
		chunkSize = repository.DefaultChunkSize
	}
	return &ProductService{
		productRepo: productRepo,
		gtipRepo:    gtipRepo,
		chunkSize:   chunkSize,
		logger:      logger,
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.ProductDTO, error) {
	product := &domain.Product{}
	if err := s.apply(ctx, product, req); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.GetByCode(ctx, product.Code)
	if err != nil {
		return nil, mapper.FormatError("product", "check code of", err)
	}
	if existing != nil {
		return nil, ErrDuplicateProductCode
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, writeError(err, ErrDuplicateProductCode, "product", "create")
	}

	s.logger.Info("product created", zap.String("product_id", product.ID.String()), zap.String("code", product.Code))
	return s.GetByID(ctx, product.ID)
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrProductNotFound, "product")
	}
	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// List returns a paginated product list
func (s *ProductService) List(ctx context.Context, page, pageSize int, filters *repository.ProductFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	products, total, err := s.productRepo.ListWithSortConfig(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, mapper.FormatError("products", "list", err)
	}

	dtos := make([]domain.ProductDTO, len(products))
	for i := range products {
		dtos[i] = mapper.ToProductDTO(&products[i])
	}
	resp := domain.NewPaginatedResponse(dtos, total, page, pageSize)
	return &resp, nil
}

// Update replaces the editable product fields
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProductRequest) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrProductNotFound, "product")
	}

	oldCode := product.Code
	if err := s.apply(ctx, product, req); err != nil {
		return nil, err
	}
	if product.Code != oldCode {
		existing, err := s.productRepo.GetByCode(ctx, product.Code)
		if err != nil {
			return nil, mapper.FormatError("product", "check code of", err)
		}
		if existing != nil && existing.ID != product.ID {
			return nil, ErrDuplicateProductCode
		}
	}

	product.Gtip = nil
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, writeError(err, ErrDuplicateProductCode, "product", "update")
	}

	s.logger.Info("product updated", zap.String("product_id", id.String()))
	return s.GetByID(ctx, id)
}

// Delete removes a product that no RFQ or order line references
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.GetByID(ctx, id); err != nil {
		return lookupError(err, ErrProductNotFound, "product")
	}

	refs, err := s.productRepo.CountReferences(ctx, id)
	if err != nil {
		return mapper.FormatError("product", "count references of", err)
	}
	if refs > 0 {
		return ErrProductInUse
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return writeError(err, ErrProductInUse, "product", "delete")
	}

	s.logger.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

// Import upserts products from free-form rows. Each logical field is looked up under all
// of its known spellings; fields a row does not carry keep their stored value.
func (s *ProductService) Import(ctx context.Context, req *domain.ImportProductsRequest) (*domain.ImportProductsResult, error) {
	result := &domain.ImportProductsResult{Received: len(req.Rows)}

	type parsedRow struct {
		code     string
		name     *string
		netsis   *string
		gtipCode string
		domestic decimal.NullDecimal
		weight   decimal.NullDecimal
	}

	// later rows with the same code win
	byCode := make(map[string]*parsedRow)
	var order []string
	gtipCodes := make(map[string]struct{})

	for i, raw := range req.Rows {
		code, ok := textnorm.ResolveField(raw, textnorm.FieldProductCode)
		code = textnorm.NormalizeCode(code)
		if !ok || code == "" {
			result.Skipped++
			result.SkippedRows = append(result.SkippedRows, i)
			continue
		}

		row := &parsedRow{code: code}
		if v, ok := textnorm.ResolveField(raw, textnorm.FieldProductName); ok {
			name := textnorm.NormalizeCode(v)
			row.name = &name
		}
		if v, ok := textnorm.ResolveField(raw, textnorm.FieldNetsisCode); ok {
			netsis := textnorm.NormalizeCode(v)
			row.netsis = &netsis
		}
		if v, ok := textnorm.ResolveField(raw, textnorm.FieldGtipCode); ok {
			row.gtipCode = textnorm.NormalizeCode(v)
			gtipCodes[row.gtipCode] = struct{}{}
		}
		if v, ok := textnorm.ResolveField(raw, textnorm.FieldDomesticCost); ok {
			row.domestic = textnorm.ParseLocalizedNumberNull(v)
		}
		if v, ok := textnorm.ResolveField(raw, textnorm.FieldWeightKg); ok {
			row.weight = textnorm.ParseLocalizedNumberNull(v)
		}

		if _, seen := byCode[code]; !seen {
			order = append(order, code)
		}
		byCode[code] = row
	}

	if len(order) == 0 {
		return result, nil
	}

	gtips, err := s.gtipRepo.ListByCodes(ctx, sortedSet(gtipCodes))
	if err != nil {
		return nil, mapper.FormatError("gtips", "resolve", err)
	}
	existing, err := s.productRepo.ListByCodes(ctx, order)
	if err != nil {
		return nil, mapper.FormatError("products", "load", err)
	}

	products := make([]domain.Product, 0, len(order))
	for _, code := range order {
		row := byCode[code]
		p := domain.Product{Code: code}
		if cur, ok := existing[code]; ok {
			p = cur
			p.Gtip = nil
		}
		if row.name != nil {
			p.Name = *row.name
		}
		if row.netsis != nil {
			p.NetsisStokKodu = *row.netsis
		}
		if row.gtipCode != "" {
			if g, ok := gtips[row.gtipCode]; ok {
				id := g.ID
				p.GtipID = &id
			} else {
				s.logger.Warn("product import references unknown gtip",
					zap.String("code", code), zap.String("gtip", row.gtipCode))
			}
		}
		if row.domestic.Valid {
			p.DomesticCostPercent = row.domestic
		}
		if row.weight.Valid {
			p.WeightKg = row.weight
		}
		products = append(products, p)
	}

	written, err := s.productRepo.UpsertByCode(ctx, products, s.chunkSize)
	if err != nil {
		s.logger.Error("product import failed", zap.Int("written", written), zap.Error(err))
		return nil, fmt.Errorf("failed to upsert products after %d rows: %w", written, err)
	}
	result.Upserted = written

	s.logger.Info("products imported",
		zap.Int("received", result.Received),
		zap.Int("upserted", result.Upserted),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (s *ProductService) apply(ctx context.Context, product *domain.Product, req *domain.CreateProductRequest) error {
	code := textnorm.NormalizeCode(req.Code)
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	if req.DomesticCostPercent.Valid && req.DomesticCostPercent.Decimal.IsNegative() {
		return fmt.Errorf("%w: domestic cost percent must not be negative", ErrInvalidInput)
	}
	if req.WeightKg.Valid && req.WeightKg.Decimal.IsNegative() {
		return fmt.Errorf("%w: weight must not be negative", ErrInvalidInput)
	}
	if req.GtipID != nil {
		if _, err := s.gtipRepo.GetByID(ctx, *req.GtipID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGtipNotFound
			}
			return mapper.FormatError("gtip", "get", err)
		}
	}

	product.Code = code
	product.Name = textnorm.NormalizeCode(req.Name)
	product.NetsisStokKodu = textnorm.NormalizeCode(req.NetsisStokKodu)
	product.GtipID = req.GtipID
	product.DomesticCostPercent = req.DomesticCostPercent
	product.WeightKg = req.WeightKg
	return nil
}
