package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/costing"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GtipService manages customs tariff codes, their per-country overrides and cost previews
type GtipService struct {
	gtipRepo *repository.GtipRepository
	logger   *zap.Logger
}

// NewGtipService creates a new GTIP service instance
func NewGtipService(gtipRepo *repository.GtipRepository, logger *zap.Logger) *GtipService {
	return &GtipService{
		gtipRepo: gtipRepo,
		logger:   logger,
	}
}

// Create creates a new GTIP
func (s *GtipService) Create(ctx context.Context, req *domain.CreateGtipRequest) (*domain.GtipDTO, error) {
	gtip := &domain.Gtip{}
	if err := applyGtip(gtip, req); err != nil {
		return nil, err
	}

	existing, err := s.gtipRepo.GetByCode(ctx, gtip.Code)
	if err != nil {
		return nil, mapper.FormatError("gtip", "check code of", err)
	}
	if existing != nil {
		return nil, ErrDuplicateGtipCode
	}

	if err := s.gtipRepo.Create(ctx, gtip); err != nil {
		return nil, writeError(err, ErrDuplicateGtipCode, "gtip", "create")
	}

	s.logger.Info("gtip created", zap.String("gtip_id", gtip.ID.String()), zap.String("code", gtip.Code))
	dto := mapper.ToGtipDTO(gtip)
	return &dto, nil
}

// GetByID retrieves a GTIP with its country overrides
func (s *GtipService) GetByID(ctx context.Context, id uuid.UUID) (*domain.GtipDTO, error) {
	gtip, err := s.gtipRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrGtipNotFound, "gtip")
	}
	dto := mapper.ToGtipDTO(gtip)
	return &dto, nil
}

// List returns a paginated GTIP list
func (s *GtipService) List(ctx context.Context, page, pageSize int, search string, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	gtips, total, err := s.gtipRepo.List(ctx, page, pageSize, search, sort)
	if err != nil {
		return nil, mapper.FormatError("gtips", "list", err)
	}

	dtos := make([]domain.GtipDTO, len(gtips))
	for i := range gtips {
		dtos[i] = mapper.ToGtipDTO(&gtips[i])
	}
	resp := domain.NewPaginatedResponse(dtos, total, page, pageSize)
	return &resp, nil
}

// Update replaces the base rates of a GTIP. Country overrides are untouched.
func (s *GtipService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateGtipRequest) (*domain.GtipDTO, error) {
	gtip, err := s.gtipRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrGtipNotFound, "gtip")
	}

	oldCode := gtip.Code
	if err := applyGtip(gtip, req); err != nil {
		return nil, err
	}
	if gtip.Code != oldCode {
		existing, err := s.gtipRepo.GetByCode(ctx, gtip.Code)
		if err != nil {
			return nil, mapper.FormatError("gtip", "check code of", err)
		}
		if existing != nil && existing.ID != gtip.ID {
			return nil, ErrDuplicateGtipCode
		}
	}

	if err := s.gtipRepo.Update(ctx, gtip); err != nil {
		return nil, writeError(err, ErrDuplicateGtipCode, "gtip", "update")
	}

	s.logger.Info("gtip updated", zap.String("gtip_id", id.String()))
	return s.GetByID(ctx, id)
}

// Delete removes a GTIP that no product is classified under
func (s *GtipService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.gtipRepo.GetByID(ctx, id); err != nil {
		return lookupError(err, ErrGtipNotFound, "gtip")
	}

	n, err := s.gtipRepo.CountProducts(ctx, id)
	if err != nil {
		return mapper.FormatError("gtip", "count products of", err)
	}
	if n > 0 {
		return ErrGtipInUse
	}

	if err := s.gtipRepo.Delete(ctx, id); err != nil {
		return writeError(err, ErrGtipInUse, "gtip", "delete")
	}

	s.logger.Info("gtip deleted", zap.String("gtip_id", id.String()))
	return nil
}

// UpsertCountryRate sets the override row for one origin country
func (s *GtipService) UpsertCountryRate(ctx context.Context, id uuid.UUID, req *domain.UpsertCountryRateRequest) (*domain.GtipDTO, error) {
	if _, err := s.gtipRepo.GetByID(ctx, id); err != nil {
		return nil, lookupError(err, ErrGtipNotFound, "gtip")
	}

	for _, v := range []decimal.NullDecimal{req.CustomsDutyRate, req.AdditionalDutyRate, req.VatRate, req.AntiDumpingRate, req.SurveillanceUnitValue} {
		if v.Valid && v.Decimal.IsNegative() {
			return nil, fmt.Errorf("%w: rates must not be negative", ErrInvalidInput)
		}
	}

	rate := &domain.GtipCountryRate{
		GtipID:                 id,
		Country:                strings.ToUpper(strings.TrimSpace(req.Country)),
		CustomsDutyRate:        req.CustomsDutyRate,
		AdditionalDutyRate:     req.AdditionalDutyRate,
		VatRate:                req.VatRate,
		AntiDumpingApplicable:  req.AntiDumpingApplicable,
		AntiDumpingRate:        req.AntiDumpingRate,
		SurveillanceApplicable: req.SurveillanceApplicable,
		SurveillanceUnitValue:  req.SurveillanceUnitValue,
	}
	if err := s.gtipRepo.UpsertCountryRate(ctx, rate); err != nil {
		return nil, mapper.FormatError("gtip country rate", "upsert", err)
	}

	s.logger.Info("gtip country rate saved", zap.String("gtip_id", id.String()), zap.String("country", rate.Country))
	return s.GetByID(ctx, id)
}

// DeleteCountryRate removes the override row for one origin country
func (s *GtipService) DeleteCountryRate(ctx context.Context, id uuid.UUID, country string) error {
	if _, err := s.gtipRepo.GetByID(ctx, id); err != nil {
		return lookupError(err, ErrGtipNotFound, "gtip")
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	deleted, err := s.gtipRepo.DeleteCountryRate(ctx, id, country)
	if err != nil {
		return mapper.FormatError("gtip country rate", "delete", err)
	}
	if !deleted {
		return ErrCountryRateNotFound
	}
	s.logger.Info("gtip country rate deleted", zap.String("gtip_id", id.String()), zap.String("country", country))
	return nil
}

// CostPreview runs the landed-cost cascade for one unit priced at price under the GTIP's
// effective rates for country
func (s *GtipService) CostPreview(ctx context.Context, id uuid.UUID, price, weight, domestic decimal.NullDecimal, country string) (*domain.CostPreviewDTO, error) {
	gtip, err := s.gtipRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrGtipNotFound, "gtip")
	}

	country = strings.ToUpper(strings.TrimSpace(country))
	rates := costing.EffectiveRates(mapper.GtipRates(gtip), mapper.CountryOverrides(gtip.CountryRates), country)
	breakdown := costing.Compute(costing.CostInput{
		BasePrice:           price,
		DomesticCostPercent: domestic,
		WeightKg:            weight,
		Rates:               rates,
	})

	return &domain.CostPreviewDTO{
		GtipID:              gtip.ID,
		GtipCode:            gtip.Code,
		Country:             country,
		Rates:               rates,
		SurveillanceApplied: breakdown.HasSurveillanceTrack(),
		Breakdown:           breakdown,
	}, nil
}

func applyGtip(gtip *domain.Gtip, req *domain.CreateGtipRequest) error {
	code := textnorm.NormalizeCode(req.Code)
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	for _, v := range []decimal.Decimal{req.CustomsDutyRate, req.AdditionalDutyRate, req.VatRate, req.AntiDumpingRate, req.SurveillanceUnitValue} {
		if v.IsNegative() {
			return fmt.Errorf("%w: rates must not be negative", ErrInvalidInput)
		}
	}

	vat := req.VatRate
	if vat.IsZero() {
		vat = costing.StatutoryVatRate
	}

	gtip.Code = code
	gtip.Description = strings.TrimSpace(req.Description)
	gtip.CustomsDutyRate = req.CustomsDutyRate
	gtip.AdditionalDutyRate = req.AdditionalDutyRate
	gtip.VatRate = vat
	gtip.AntiDumpingApplicable = req.AntiDumpingApplicable
	gtip.AntiDumpingRate = req.AntiDumpingRate
	gtip.SurveillanceApplicable = req.SurveillanceApplicable
	gtip.SurveillanceUnitValue = req.SurveillanceUnitValue
	return nil
}
