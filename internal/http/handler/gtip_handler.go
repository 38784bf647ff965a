package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GtipHandler handles customs tariff codes, their per-country overrides and cost previews
type GtipHandler struct {
	gtipService *service.GtipService
	logger      *zap.Logger
}

func NewGtipHandler(gtipService *service.GtipService, logger *zap.Logger) *GtipHandler {
	return &GtipHandler{
		gtipService: gtipService,
		logger:      logger,
	}
}

// List godoc
// @Summary List GTIP codes
// @Tags GTIP
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by code or description"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.GtipDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gtips [get]
func (h *GtipHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.gtipService.List(r.Context(), page, pageSize, r.URL.Query().Get("search"), parseSort(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list gtips")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get GTIP by ID
// @Tags GTIP
// @Produce json
// @Param id path string true "GTIP ID" format(uuid)
// @Success 200 {object} domain.GtipDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gtips/{id} [get]
func (h *GtipHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "GTIP")
	if !ok {
		return
	}

	gtip, err := h.gtipService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get gtip")
		return
	}
	respondJSON(w, http.StatusOK, gtip)
}

// Create godoc
// @Summary Create GTIP
// @Description A zero VAT rate is stored as the statutory 20%
// @Tags GTIP
// @Accept json
// @Produce json
// @Param request body domain.CreateGtipRequest true "GTIP data"
// @Success 201 {object} domain.GtipDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gtips [post]
func (h *GtipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGtipRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	gtip, err := h.gtipService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create gtip")
		return
	}
	w.Header().Set("Location", "/api/v1/gtips/"+gtip.ID.String())
	respondJSON(w, http.StatusCreated, gtip)
}

// Update godoc
// @Summary Update GTIP
// @Tags GTIP
// @Accept json
// @Produce json
// @Param id path string true "GTIP ID" format(uuid)
// @Param request body domain.UpdateGtipRequest true "GTIP data"
// @Success 200 {object} domain.GtipDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gtips/{id} [put]
func (h *GtipHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "GTIP")
	if !ok {
		return
	}
	var req domain.UpdateGtipRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	gtip, err := h.gtipService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update gtip")
		return
	}
	respondJSON(w, http.StatusOK, gtip)
}

// Delete godoc
// @Summary Delete GTIP
// @Tags GTIP
// @Param id path string true "GTIP ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Assigned to products"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gtips/{id} [delete]
func (h *GtipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "GTIP")
	if !ok {
		return
	}

	if err := h.gtipService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete gtip")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpsertCountryRate godoc
// @Summary Set country rates
// @Description Creates or replaces the rate overrides for one origin country
// @Tags GTIP
// @Accept json
// @Produce json
// @Param id path string true "GTIP ID" format(uuid)
// @Param request body domain.UpsertCountryRateRequest true "Overrides"
// @Success 200 {object} domain.GtipDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gtips/{id}/country-rates [put]
func (h *GtipHandler) UpsertCountryRate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "GTIP")
	if !ok {
		return
	}
	var req domain.UpsertCountryRateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	gtip, err := h.gtipService.UpsertCountryRate(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to save country rate")
		return
	}
	respondJSON(w, http.StatusOK, gtip)
}

// DeleteCountryRate godoc
// @Summary Remove country rates
// @Tags GTIP
// @Param id path string true "GTIP ID" format(uuid)
// @Param country path string true "ISO country code"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gtips/{id}/country-rates/{country} [delete]
func (h *GtipHandler) DeleteCountryRate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "GTIP")
	if !ok {
		return
	}

	if err := h.gtipService.DeleteCountryRate(r.Context(), id, chi.URLParam(r, "country")); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete country rate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Costs godoc
// @Summary Preview landed cost
// @Description Runs the cost cascade for one unit. Numbers may use Turkish or English separators.
// @Tags GTIP
// @Produce json
// @Param id path string true "GTIP ID" format(uuid)
// @Param price query string false "Unit price"
// @Param weight query string false "Unit weight in kg"
// @Param domestic query string false "Domestic cost percent"
// @Param country query string false "Origin country for rate overrides"
// @Success 200 {object} domain.CostPreviewDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gtips/{id}/costs [get]
func (h *GtipHandler) Costs(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "GTIP")
	if !ok {
		return
	}

	q := r.URL.Query()
	values := make(map[string]decimal.NullDecimal, 3)
	for _, key := range []string{"price", "weight", "domestic"} {
		raw := q.Get(key)
		if raw == "" {
			values[key] = decimal.NullDecimal{}
			continue
		}
		v, ok := textnorm.ParseLocalizedNumber(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Invalid number for "+key)
			return
		}
		values[key] = decimal.NewNullDecimal(v)
	}

	preview, err := h.gtipService.CostPreview(r.Context(), id, values["price"], values["weight"], values["domestic"], q.Get("country"))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to compute cost preview")
		return
	}
	respondJSON(w, http.StatusOK, preview)
}
