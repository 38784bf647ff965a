package handler

import (
	"net/http"

	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// ShipmentHandler handles shipments and forwarder quotes
type ShipmentHandler struct {
	shipmentService *service.ShipmentService
	logger          *zap.Logger
}

func NewShipmentHandler(shipmentService *service.ShipmentService, logger *zap.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		shipmentService: shipmentService,
		logger:          logger,
	}
}

// List godoc
// @Summary List shipments
// @Tags Shipments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ShipmentDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /shipments [get]
func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	var status *domain.ShipmentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.ShipmentStatus(raw)
		status = &s
	}

	result, err := h.shipmentService.List(r.Context(), page, pageSize, status, parseSort(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list shipments")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get shipment with forwarder quotes
// @Tags Shipments
// @Produce json
// @Param id path string true "Shipment ID" format(uuid)
// @Success 200 {object} domain.ShipmentDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /shipments/{id} [get]
func (h *ShipmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "shipment")
	if !ok {
		return
	}

	shipment, err := h.shipmentService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get shipment")
		return
	}
	respondJSON(w, http.StatusOK, shipment)
}

// Create godoc
// @Summary Create shipment
// @Tags Shipments
// @Accept json
// @Produce json
// @Param request body domain.CreateShipmentRequest true "Shipment data"
// @Success 201 {object} domain.ShipmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Order not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /shipments [post]
func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateShipmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	shipment, err := h.shipmentService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create shipment")
		return
	}
	w.Header().Set("Location", "/api/v1/shipments/"+shipment.ID.String())
	respondJSON(w, http.StatusCreated, shipment)
}

// AddQuote godoc
// @Summary Add forwarder quote
// @Tags Shipments
// @Accept json
// @Produce json
// @Param id path string true "Shipment ID" format(uuid)
// @Param request body domain.CreateForwarderQuoteRequest true "Quote"
// @Success 200 {object} domain.ShipmentDTO
// @Failure 400 {object} domain.APIError "Supplier is not a forwarder"
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /shipments/{id}/quotes [post]
func (h *ShipmentHandler) AddQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "shipment")
	if !ok {
		return
	}
	var req domain.CreateForwarderQuoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	shipment, err := h.shipmentService.AddQuote(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to add forwarder quote")
		return
	}
	respondJSON(w, http.StatusOK, shipment)
}

// SelectQuote godoc
// @Summary Select forwarder quote
// @Description Clears the previous selection, then marks this quote selected
// @Tags Shipments
// @Produce json
// @Param id path string true "Shipment ID" format(uuid)
// @Param quoteId path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.ShipmentDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /shipments/{id}/quotes/{quoteId}/select [post]
func (h *ShipmentHandler) SelectQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "shipment")
	if !ok {
		return
	}
	quoteID, ok := parseUUIDParam(w, r, "quoteId", "quote")
	if !ok {
		return
	}

	shipment, err := h.shipmentService.SelectQuote(r.Context(), id, quoteID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to select forwarder quote")
		return
	}
	respondJSON(w, http.StatusOK, shipment)
}
