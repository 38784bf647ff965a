package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ithalat-ops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// NetsisHandler exposes the ERP name sync and stock/sales figures
type NetsisHandler struct {
	netsisService *service.NetsisService
	logger        *zap.Logger
}

func NewNetsisHandler(netsisService *service.NetsisService, logger *zap.Logger) *NetsisHandler {
	return &NetsisHandler{
		netsisService: netsisService,
		logger:        logger,
	}
}

// NameSync godoc
// @Summary Fill product names from the ERP
// @Description With code, fills names for products whose code starts with it. Otherwise runs one batch of products without a name starting after cursor; repeat with nextCursor until it is empty.
// @Tags Netsis
// @Produce json
// @Param code query string false "Product code prefix"
// @Param limit query int false "Batch size" default(200)
// @Param cursor query string false "Continue after this product code"
// @Success 200 {object} domain.NameSyncResult
// @Failure 400 {object} domain.APIError
// @Failure 503 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /mssql-name-sync [post]
func (h *NetsisHandler) NameSync(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Has("code") {
		result, err := h.netsisService.SyncNamesByPrefix(r.Context(), q.Get("code"))
		if err != nil {
			respondServiceError(w, h.logger, err, "failed to sync product names")
			return
		}
		respondJSON(w, http.StatusOK, result)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	result, err := h.netsisService.SyncNamesBatch(r.Context(), q.Get("cursor"), limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to sync product names")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Figures godoc
// @Summary Stock and sales figures
// @Description Current stock and per-year sales for comma separated stock codes. When the ERP is unreachable the figures are zero and available is false.
// @Tags Netsis
// @Produce json
// @Param codes query string true "Comma separated stock codes"
// @Success 200 {object} domain.StockFiguresResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /netsis/figures [get]
func (h *NetsisHandler) Figures(w http.ResponseWriter, r *http.Request) {
	var codes []string
	for _, c := range strings.Split(r.URL.Query().Get("codes"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}

	result, err := h.netsisService.Figures(r.Context(), codes)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load stock figures")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
