package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/importer"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

var validate = validator.New()

// defaultMaxUploadBytes applies when a handler is built without an upload limit
const defaultMaxUploadBytes = 20 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			errs[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errs,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must contain at least %s", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

func respondWithDetails(w http.ResponseWriter, status int, message string, details interface{}) {
	respondJSON(w, status, domain.APIError{
		Type:    getErrorType(status),
		Title:   http.StatusText(status),
		Status:  status,
		Detail:  message,
		Details: details,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusUnprocessableEntity:
		return domain.ErrorTypeNeedsConfirmation
	case http.StatusServiceUnavailable:
		return domain.ErrorTypeUnavailable
	default:
		return domain.ErrorTypeInternal
	}
}

// respondServiceError maps service errors to status codes. Anything unrecognised is logged
// and reported as a 500 with the generic action message.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	var (
		rowErrs  importer.RowErrors
		missing  *service.MissingPricesError
		unknown  *service.UnknownSuppliersError
		overflow *service.OverflowError
	)

	switch {
	case errors.As(err, &rowErrs):
		respondWithDetails(w, http.StatusBadRequest, "One or more rows are invalid", map[string]interface{}{"rows": rowErrs})
	case errors.As(err, &missing):
		respondWithDetails(w, http.StatusBadRequest, service.ErrMissingQuotePrices.Error(), map[string]interface{}{"missing_product_codes": missing.ProductCodes})
	case errors.As(err, &unknown):
		respondWithDetails(w, http.StatusBadRequest, service.ErrUnknownSuppliers.Error(), map[string]interface{}{"unknown_suppliers": unknown.Names})
	case errors.As(err, &overflow):
		respondWithDetails(w, http.StatusBadRequest, service.ErrNumericOverflow.Error(), map[string]interface{}{"overflow_product_codes": overflow.ProductCodes})
	case errors.Is(err, service.ErrCurrencyMismatch),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrMissingColumns):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnavailable):
		logger.Warn(action, zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "ERP system is unavailable")
	default:
		logger.Error(action, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to "+strings.TrimPrefix(action, "failed to "))
	}
}

// decodeAndValidate decodes a JSON body into req and runs struct validation. It writes the
// error response itself and reports whether the handler should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// parseUUIDParam reads a UUID path parameter, answering 400 when malformed
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID format", label))
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads page and pageSize, defaulting to 1 and 20
func parsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}

func parseSort(r *http.Request) repository.SortConfig {
	sort := repository.DefaultSortConfig()
	if sortBy := r.URL.Query().Get("sortBy"); sortBy != "" {
		sort.Field = sortBy
	}
	if sortOrder := r.URL.Query().Get("sortOrder"); sortOrder != "" {
		sort.Order = repository.ParseSortOrder(sortOrder)
	}
	return sort
}

func parseBoolQuery(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// readUpload reads the "file" part of a multipart form, bounded by maxBytes
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (string, []byte, bool) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid upload or file larger than %d MB", maxBytes>>20))
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return "", nil, false
	}
	return header.Filename, data, true
}
