package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// OrderHandler handles purchase orders and their lines
type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// List godoc
// @Summary List orders
// @Tags Orders
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by code"
// @Param status query string false "Filter by status"
// @Param supplierId query string false "Filter by supplier" format(uuid)
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, code, totalAmount)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.OrderDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	filters := &repository.OrderFilters{Search: r.URL.Query().Get("search")}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.OrderStatus(status)
		filters.Status = &s
	}
	if raw := r.URL.Query().Get("supplierId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid supplier ID format")
			return
		}
		filters.SupplierID = &id
	}

	result, err := h.orderService.List(r.Context(), page, pageSize, filters, parseSort(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list orders")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get order with items
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get order")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Create godoc
// @Summary Create order
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body domain.CreateOrderRequest true "Order data"
// @Success 201 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orderService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create order")
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.ID.String())
	respondJSON(w, http.StatusCreated, order)
}

// AddItem godoc
// @Summary Add order line
// @Description The order total is recomputed from its lines
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.OrderItemRequest true "Line"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/items [post]
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.OrderItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orderService.AddItem(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to add order item")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// UpdateItem godoc
// @Summary Update order line
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param itemId path string true "Item ID" format(uuid)
// @Param request body domain.UpdateOrderItemRequest true "Changes"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/items/{itemId} [put]
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}
	itemID, ok := parseUUIDParam(w, r, "itemId", "order item")
	if !ok {
		return
	}
	var req domain.UpdateOrderItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orderService.UpdateItem(r.Context(), id, itemID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update order item")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// RemoveItem godoc
// @Summary Remove order line
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param itemId path string true "Item ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/items/{itemId} [delete]
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}
	itemID, ok := parseUUIDParam(w, r, "itemId", "order item")
	if !ok {
		return
	}

	order, err := h.orderService.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to remove order item")
		return
	}
	respondJSON(w, http.StatusOK, order)
}
