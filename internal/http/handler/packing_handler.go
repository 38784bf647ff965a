package handler

import (
	"net/http"

	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// PackingHandler parses packing lists and reconciles them against orders
type PackingHandler struct {
	packingService     *service.PackingService
	discrepancyService *service.DiscrepancyService
	maxUploadBytes     int64
	logger             *zap.Logger
}

func NewPackingHandler(packingService *service.PackingService, discrepancyService *service.DiscrepancyService, maxUploadMB int64, logger *zap.Logger) *PackingHandler {
	return &PackingHandler{
		packingService:     packingService,
		discrepancyService: discrepancyService,
		maxUploadBytes:     maxUploadMB << 20,
		logger:             logger,
	}
}

// Parse godoc
// @Summary Parse packing list
// @Description Reads a .csv or .xlsx packing list, detecting the delimiter and header aliases, and aggregates quantities per product code
// @Tags Packing
// @Accept mpfd
// @Produce json
// @Param file formData file true "Packing list"
// @Success 200 {object} domain.PackingParseResult
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /packing-lists/parse [post]
func (h *PackingHandler) Parse(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := readUpload(w, r, h.maxUploadBytes)
	if !ok {
		return
	}

	result, err := h.packingService.Parse(r.Context(), filename, data)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to parse packing list")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CreateRun godoc
// @Summary Run discrepancy check
// @Description Aggregates order and packing rows by code and stores packed minus ordered per code. Values at or above 1e16 are rejected with overflow_product_codes.
// @Tags Packing
// @Accept json
// @Produce json
// @Param request body domain.CreateDiscrepancyRunRequest true "Rows"
// @Success 201 {object} domain.DiscrepancyRunDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /discrepancy-runs [post]
func (h *PackingHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDiscrepancyRunRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	run, err := h.discrepancyService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create discrepancy run")
		return
	}
	w.Header().Set("Location", "/api/v1/discrepancy-runs/"+run.ID.String())
	respondJSON(w, http.StatusCreated, run)
}

// GetRun godoc
// @Summary Get discrepancy run
// @Tags Packing
// @Produce json
// @Param id path string true "Run ID" format(uuid)
// @Success 200 {object} domain.DiscrepancyRunDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /discrepancy-runs/{id} [get]
func (h *PackingHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "discrepancy run")
	if !ok {
		return
	}

	run, err := h.discrepancyService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get discrepancy run")
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// ListRuns godoc
// @Summary List discrepancy runs
// @Tags Packing
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.DiscrepancyRunDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /discrepancy-runs [get]
func (h *PackingHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.discrepancyService.List(r.Context(), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list discrepancy runs")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
