package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/cache"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultNameSyncBatch is the batch size used when the caller gives none
const DefaultNameSyncBatch = 200

// StockReader is the read-only view of the Netsis ERP the service needs.
// *netsis.Client implements it.
type StockReader interface {
	IsEnabled() bool
	StockNames(ctx context.Context, codes []string) (map[string]string, error)
	StockNamesByPrefix(ctx context.Context, prefix string) (map[string]string, error)
	StockQuantities(ctx context.Context, codes []string) (map[string]decimal.Decimal, error)
	SalesByYear(ctx context.Context, codes []string) (map[string]map[string]decimal.Decimal, error)
	Databases() []string
}

// NetsisService fills product names from the ERP and serves stock and sales figures
type NetsisService struct {
	reader      StockReader
	productRepo *repository.ProductRepository
	cache       cache.FiguresCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewNetsisService creates a new Netsis service instance. reader may be nil when the ERP
// is not configured; figuresCache may be nil to disable caching.
func NewNetsisService(reader StockReader, productRepo *repository.ProductRepository, figuresCache cache.FiguresCache, cacheTTL time.Duration, logger *zap.Logger) *NetsisService {
	if figuresCache == nil {
		figuresCache = cache.NoopFiguresCache{}
	}
	return &NetsisService{
		reader:      reader,
		productRepo: productRepo,
		cache:       figuresCache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

func (s *NetsisService) available() bool {
	return s.reader != nil && s.reader.IsEnabled()
}

// SyncNamesByPrefix fills empty product names for stock codes starting with prefix
func (s *NetsisService) SyncNamesByPrefix(ctx context.Context, prefix string) (*domain.NameSyncResult, error) {
	prefix = textnorm.NormalizeCode(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("%w: code prefix is required", ErrInvalidInput)
	}
	if !s.available() {
		return nil, fmt.Errorf("%w: netsis is not configured", ErrUnavailable)
	}

	products, err := s.productRepo.ListMissingNamesByPrefix(ctx, prefix)
	if err != nil {
		return nil, mapper.FormatError("products", "list unnamed", err)
	}
	if len(products) == 0 {
		return &domain.NameSyncResult{}, nil
	}

	names, err := s.reader.StockNamesByPrefix(ctx, prefix)
	if err != nil {
		s.logger.Error("netsis name lookup failed", zap.String("prefix", prefix), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	updated, err := s.fill(ctx, products, names)
	if err != nil {
		return nil, err
	}

	s.logger.Info("netsis names synced by prefix",
		zap.String("prefix", prefix),
		zap.Int("processed", len(products)),
		zap.Int("updated", updated))
	return &domain.NameSyncResult{Processed: len(products), Updated: updated}, nil
}

// SyncNamesBatch fills empty product names for the next limit products after cursor, in
// code order. NextCursor is empty once the last batch has been read.
func (s *NetsisService) SyncNamesBatch(ctx context.Context, cursor string, limit int) (*domain.NameSyncResult, error) {
	if limit <= 0 {
		limit = DefaultNameSyncBatch
	}
	if limit > repository.MaxPageSize*5 {
		limit = repository.MaxPageSize * 5
	}
	if !s.available() {
		return nil, fmt.Errorf("%w: netsis is not configured", ErrUnavailable)
	}

	products, err := s.productRepo.ListMissingNames(ctx, cursor, limit)
	if err != nil {
		return nil, mapper.FormatError("products", "list unnamed", err)
	}
	result := &domain.NameSyncResult{Processed: len(products)}
	if len(products) == 0 {
		return result, nil
	}
	if len(products) == limit {
		result.NextCursor = products[len(products)-1].Code
	}

	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		seen[p.StockCode()] = struct{}{}
	}
	names, err := s.reader.StockNames(ctx, sortedSet(seen))
	if err != nil {
		s.logger.Error("netsis name lookup failed", zap.String("cursor", cursor), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	result.Updated, err = s.fill(ctx, products, names)
	if err != nil {
		return nil, err
	}

	s.logger.Info("netsis name batch synced",
		zap.String("cursor", cursor),
		zap.Int("processed", result.Processed),
		zap.Int("updated", result.Updated))
	return result, nil
}

func (s *NetsisService) fill(ctx context.Context, products []domain.Product, names map[string]string) (int, error) {
	byCode := make(map[string]string, len(names))
	for code, name := range names {
		if name = textnorm.NormalizeCode(name); name != "" {
			byCode[strings.ToUpper(strings.TrimSpace(code))] = name
		}
	}

	updated := 0
	for _, p := range products {
		name, ok := byCode[strings.ToUpper(p.StockCode())]
		if !ok {
			continue
		}
		changed, err := s.productRepo.FillName(ctx, p.ID, name)
		if err != nil {
			return updated, mapper.FormatError("product", "fill name of", err)
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

// Figures returns on-hand stock and per-database sales for each stock code. When the ERP
// cannot be read the figures are zero and Available is false.
func (s *NetsisService) Figures(ctx context.Context, codes []string) (*domain.StockFiguresResponse, error) {
	unique := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c = textnorm.NormalizeCode(c); c != "" {
			unique[c] = struct{}{}
		}
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: at least one stock code is required", ErrInvalidInput)
	}
	ordered := sortedSet(unique)

	found := make(map[string]*domain.StockFiguresDTO, len(ordered))
	var misses []string
	for _, code := range ordered {
		v, ok, err := s.cache.Get(ctx, code)
		if err != nil {
			s.logger.Warn("figures cache read failed", zap.String("code", code), zap.Error(err))
		}
		if ok {
			found[code] = v
			continue
		}
		misses = append(misses, code)
	}

	resp := &domain.StockFiguresResponse{Available: true}
	if len(misses) > 0 {
		fresh, err := s.loadFigures(ctx, misses)
		if err != nil {
			s.logger.Warn("netsis figures unavailable, returning zeros", zap.Int("codes", len(misses)), zap.Error(err))
			resp.Available = false
			for _, code := range misses {
				found[code] = zeroFigures(code, s.databases())
			}
		} else {
			for _, f := range fresh {
				found[f.StockCode] = f
				if err := s.cache.Set(ctx, f, s.cacheTTL); err != nil {
					s.logger.Warn("figures cache write failed", zap.String("code", f.StockCode), zap.Error(err))
				}
			}
		}
	}

	resp.Figures = make([]domain.StockFiguresDTO, 0, len(ordered))
	for _, code := range ordered {
		resp.Figures = append(resp.Figures, *found[code])
	}
	return resp, nil
}

func (s *NetsisService) databases() []string {
	if !s.available() {
		return nil
	}
	return s.reader.Databases()
}

func (s *NetsisService) loadFigures(ctx context.Context, codes []string) ([]*domain.StockFiguresDTO, error) {
	if !s.available() {
		return nil, fmt.Errorf("%w: netsis is not configured", ErrUnavailable)
	}

	stock, err := s.reader.StockQuantities(ctx, codes)
	if err != nil {
		return nil, err
	}
	sales, err := s.reader.SalesByYear(ctx, codes)
	if err != nil {
		return nil, err
	}

	dbs := s.reader.Databases()
	out := make([]*domain.StockFiguresDTO, 0, len(codes))
	for _, code := range codes {
		f := zeroFigures(code, dbs)
		f.Stock = lookupDecimal(stock, code)
		for db, perCode := range sales {
			v := lookupDecimal(perCode, code)
			f.Sales[db] = v
			f.TotalSales = f.TotalSales.Add(v)
		}
		out = append(out, f)
	}
	return out, nil
}

// lookupDecimal matches codes case-insensitively; ERP codes come back as stored
func lookupDecimal(m map[string]decimal.Decimal, code string) decimal.Decimal {
	if v, ok := m[code]; ok {
		return v
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, code) {
			return m[k]
		}
	}
	return decimal.Zero
}

func zeroFigures(code string, dbs []string) *domain.StockFiguresDTO {
	f := &domain.StockFiguresDTO{
		StockCode:  code,
		Stock:      decimal.Zero,
		Sales:      make(map[string]decimal.Decimal, len(dbs)),
		TotalSales: decimal.Zero,
	}
	for _, db := range dbs {
		f.Sales[db] = decimal.Zero
	}
	return f
}
