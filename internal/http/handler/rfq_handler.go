package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// RfqHandler handles RFQ management, quote imports, comparison and conversion
type RfqHandler struct {
	rfqService     *service.RfqService
	importService  *service.RfqImportService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewRfqHandler creates a new RFQ handler. maxUploadMB bounds quote file uploads.
func NewRfqHandler(rfqService *service.RfqService, importService *service.RfqImportService, maxUploadMB int64, logger *zap.Logger) *RfqHandler {
	return &RfqHandler{
		rfqService:     rfqService,
		importService:  importService,
		maxUploadBytes: maxUploadMB << 20,
		logger:         logger,
	}
}

// List godoc
// @Summary List RFQs
// @Tags RFQ
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by code or title"
// @Param status query string false "Filter by status" Enums(draft, sent, quoting, converted, cancelled)
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, code, status, responseDueDate)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.RfqDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs [get]
func (h *RfqHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	filters := &repository.RfqFilters{Search: r.URL.Query().Get("search")}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.RfqStatus(status)
		filters.Status = &s
	}

	result, err := h.rfqService.List(r.Context(), page, pageSize, filters, parseSort(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list rfqs")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get RFQ with items, suppliers and quotes
// @Tags RFQ
// @Produce json
// @Param id path string true "RFQ ID" format(uuid)
// @Success 200 {object} domain.RfqDetailDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs/{id} [get]
func (h *RfqHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}

	rfq, err := h.rfqService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get rfq")
		return
	}
	respondJSON(w, http.StatusOK, rfq)
}

// Create godoc
// @Summary Create RFQ
// @Description Duplicate product codes are merged and their quantities summed
// @Tags RFQ
// @Accept json
// @Produce json
// @Param request body domain.CreateRfqRequest true "RFQ data"
// @Success 201 {object} domain.RfqDetailDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs [post]
func (h *RfqHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRfqRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rfq, err := h.rfqService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create rfq")
		return
	}
	w.Header().Set("Location", "/api/v1/rfqs/"+rfq.ID.String())
	respondJSON(w, http.StatusCreated, rfq)
}

// UpdateStatus godoc
// @Summary Change RFQ status
// @Description Converted is reachable only through the convert endpoint
// @Tags RFQ
// @Accept json
// @Produce json
// @Param id path string true "RFQ ID" format(uuid)
// @Param request body domain.UpdateRfqStatusRequest true "New status"
// @Success 200 {object} domain.RfqDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs/{id}/status [put]
func (h *RfqHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}
	var req domain.UpdateRfqStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rfq, err := h.rfqService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update rfq status")
		return
	}
	respondJSON(w, http.StatusOK, rfq)
}

// Delete godoc
// @Summary Delete RFQ
// @Tags RFQ
// @Param id path string true "RFQ ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs/{id} [delete]
func (h *RfqHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}

	if err := h.rfqService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete rfq")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Convert godoc
// @Summary Convert RFQ to order
// @Description Selects the quote and creates an order from its prices. The quote currency must equal the RFQ currency and every item must be priced.
// @Tags RFQ
// @Accept json
// @Produce json
// @Param id path string true "RFQ ID" format(uuid)
// @Param request body domain.ConvertRfqRequest true "Quote to convert"
// @Success 201 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError "Currency mismatch or missing prices"
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "RFQ closed"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs/{id}/convert [post]
func (h *RfqHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}
	var req domain.ConvertRfqRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.rfqService.Convert(r.Context(), id, req.QuoteID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to convert rfq")
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.ID.String())
	respondJSON(w, http.StatusCreated, order)
}

// Import godoc
// @Summary Import supplier quotes
// @Description Accepts JSON {text} with ';'-delimited rows or a multipart .csv/.xlsx "file". Returns 422 with the pending question when product codes are missing or a supplier name is ambiguous; nothing is written in that case.
// @Tags RFQ
// @Accept json,mpfd
// @Produce json
// @Param id path string true "RFQ ID" format(uuid)
// @Param request body domain.RfqImportRequest false "Quote text"
// @Param file formData file false "Quote file"
// @Param add_missing_products formData bool false "Add unknown codes as new RFQ items"
// @Param supplier_choices formData string false "JSON object of supplier name to supplier ID"
// @Success 200 {object} domain.RfqImportResponse
// @Failure 400 {object} domain.APIError "Invalid rows or unknown suppliers"
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "RFQ closed"
// @Failure 422 {object} domain.RfqImportResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs/{id}/import [post]
func (h *RfqHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}

	var (
		outcome service.ImportOutcome
		err     error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		filename, data, ok := readUpload(w, r, h.maxUploadBytes)
		if !ok {
			return
		}
		opts, optErr := importOptionsFromForm(r)
		if optErr != nil {
			respondWithError(w, http.StatusBadRequest, optErr.Error())
			return
		}
		outcome, err = h.importService.ImportFile(r.Context(), id, filename, data, opts)
	} else {
		var req domain.RfqImportRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		outcome, err = h.importService.ImportText(r.Context(), id, req.Text, service.ImportOptions{
			AddMissingProducts: req.AddMissingProducts,
			SupplierChoices:    req.SupplierChoices,
		})
	}
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to import quotes")
		return
	}

	status := http.StatusOK
	if outcome.Status() != domain.ImportStatusCommitted {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, service.ImportResponse(outcome))
}

func importOptionsFromForm(r *http.Request) (service.ImportOptions, error) {
	var opts service.ImportOptions
	if raw := r.FormValue("add_missing_products"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("add_missing_products must be a boolean")
		}
		opts.AddMissingProducts = v
	}
	if raw := r.FormValue("supplier_choices"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.SupplierChoices); err != nil {
			return opts, fmt.Errorf("supplier_choices must be a JSON object of supplier IDs")
		}
	}
	return opts, nil
}

// Comparison godoc
// @Summary Compare quotes
// @Description Per item and supplier: unit price, landed net cost per unit and lead time. The lowest price in the RFQ currency is flagged.
// @Tags RFQ
// @Produce json
// @Param id path string true "RFQ ID" format(uuid)
// @Success 200 {object} domain.RfqComparisonDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs/{id}/comparison [get]
func (h *RfqHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}

	cmp, err := h.rfqService.Comparison(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to build comparison")
		return
	}
	respondJSON(w, http.StatusOK, cmp)
}

// Export godoc
// @Summary Export comparison workbook
// @Tags RFQ
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param rfq_id query string true "RFQ ID" format(uuid)
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfq/export [get]
func (h *RfqHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("rfq_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "rfq_id must be a valid UUID")
		return
	}

	filename, data, err := h.rfqService.ExportComparison(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to export comparison")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
