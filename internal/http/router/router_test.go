package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/auth"
	"github.com/ithalat-ops/backoffice-api/internal/config"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/http/handler"
	"github.com/ithalat-ops/backoffice-api/internal/http/middleware"
	"github.com/ithalat-ops/backoffice-api/internal/http/router"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"github.com/ithalat-ops/backoffice-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testAPIKey    = "test-api-key"
	testJWTSecret = "test-jwt-secret"
)

type testServer struct {
	db      *gorm.DB
	handler http.Handler
	jwt     *auth.JWTValidator
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	cfg := &config.Config{
		App:       config.AppConfig{Name: "backoffice-api", Environment: "test"},
		Auth:      config.AuthConfig{APIKey: testAPIKey, JWTSecret: testJWTSecret},
		RateLimit: config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100},
		Import:    config.ImportConfig{ChunkSize: 50, MaxUploadSizeMB: 5},
	}

	productRepo := repository.NewProductRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	gtipRepo := repository.NewGtipRepository(db)
	rfqRepo := repository.NewRfqRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger)

	rfqService := service.NewRfqService(rfqRepo, productRepo, supplierRepo, orderRepo, numbers, 50, logger)
	importService := service.NewRfqImportService(rfqRepo, productRepo, supplierRepo, nil, 50, logger)
	discrepancyService := service.NewDiscrepancyService(repository.NewDiscrepancyRepository(db), decimal.Zero, 50, logger)

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(),
		Product:  handler.NewProductHandler(service.NewProductService(productRepo, gtipRepo, 50, logger), logger),
		Supplier: handler.NewSupplierHandler(service.NewSupplierService(supplierRepo, logger), logger),
		Gtip:     handler.NewGtipHandler(service.NewGtipService(gtipRepo, logger), logger),
		Rfq:      handler.NewRfqHandler(rfqService, importService, 5, logger),
		Order:    handler.NewOrderHandler(service.NewOrderService(orderRepo, productRepo, supplierRepo, numbers, 50, logger), logger),
		Shipment: handler.NewShipmentHandler(service.NewShipmentService(shipmentRepo, supplierRepo, orderRepo, logger), logger),
		Packing:  handler.NewPackingHandler(service.NewPackingService(logger), discrepancyService, 5, logger),
		Netsis:   handler.NewNetsisHandler(service.NewNetsisService(nil, productRepo, nil, time.Minute, logger), logger),
	}

	rt := router.NewRouter(
		cfg,
		logger,
		db,
		nil,
		nil,
		auth.NewMiddleware(cfg, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handlers,
	)
	return &testServer{
		db:      db,
		handler: rt.Setup(),
		jwt:     auth.NewJWTValidator(testJWTSecret, ""),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, authHeader ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if len(authHeader) == 0 {
		req.Header.Set("x-api-key", testAPIKey)
	} else if authHeader[0] != "" {
		req.Header.Set("Authorization", authHeader[0])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) bearer(t *testing.T, role auth.Role) string {
	t.Helper()
	token, err := s.jwt.IssueToken("user-1", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	s := setupServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ready struct {
		Status string                     `json:"status"`
		Checks map[string]json.RawMessage `json:"checks"`
	}
	decodeBody(t, rec, &ready)
	assert.Equal(t, "healthy", ready.Status)
	assert.Contains(t, string(ready.Checks["netsis"]), "disabled")
	assert.Contains(t, string(ready.Checks["cache"]), "disabled")

	rec = s.do(t, http.MethodGet, "/health/db", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresAuthentication(t *testing.T) {
	s := setupServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/products", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products", nil, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestModuleAccessByRole(t *testing.T) {
	s := setupServer(t)

	viewer := s.bearer(t, auth.RoleViewer)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/products", nil, viewer).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/rfqs", nil, viewer).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/netsis/figures?codes=A", nil, viewer).Code)

	logistics := s.bearer(t, auth.RoleLogistics)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/shipments", nil, logistics).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/products", nil, logistics).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/auth/me", nil, s.bearer(t, auth.RolePurchasing))
	require.Equal(t, http.StatusOK, rec.Code)
	var me handler.MeResponse
	decodeBody(t, rec, &me)
	assert.Equal(t, auth.RolePurchasing, me.Role)
	assert.ElementsMatch(t, []auth.Module{auth.ModuleCatalog, auth.ModuleRfq, auth.ModuleOrders, auth.ModuleNetsis}, me.Modules)
}

func TestSupplierValidationAndNotFound(t *testing.T) {
	s := setupServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/suppliers", map[string]string{"country": "Turkey"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr domain.APIError
	decodeBody(t, rec, &apiErr)
	assert.Contains(t, apiErr.Errors, "name")
	assert.Contains(t, apiErr.Errors, "country")

	rec = s.do(t, http.MethodGet, "/api/v1/suppliers/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/suppliers/8d0f3c8e-2f55-4f1c-9d1e-6b1b7f0c2a11", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRfqImportOverHTTP(t *testing.T) {
	s := setupServer(t)
	p1 := testutil.CreateTestProduct(t, s.db, "A-100", "Valve")
	rfq := testutil.CreateTestRfq(t, s.db, "RFQ-FIXTURE-1", "USD", p1)
	testutil.CreateTestSupplier(t, s.db, "Acme Trading")
	path := "/api/v1/rfqs/" + rfq.ID.String() + "/import"

	// unknown supplier names are a client error listing the names
	rec := s.do(t, http.MethodPost, path, domain.RfqImportRequest{Text: "A-100;Nobody Ltd;5;USD;1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr domain.APIError
	decodeBody(t, rec, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, rec.Body.String(), "Nobody Ltd")

	// a code outside the catalog needs confirmation
	rec = s.do(t, http.MethodPost, path, domain.RfqImportRequest{Text: "Z-999;Acme Trading;5;USD;1"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var pending domain.RfqImportResponse
	decodeBody(t, rec, &pending)
	assert.Equal(t, domain.ImportStatusNeedsConfirmation, pending.Status)
	require.Len(t, pending.Missing, 1)
	assert.Equal(t, "Z-999", pending.Missing[0].ProductCode)

	rec = s.do(t, http.MethodPost, path, domain.RfqImportRequest{Text: "A-100;Acme Trading;12,50;USD;10"})
	require.Equal(t, http.StatusOK, rec.Code)
	var done domain.RfqImportResponse
	decodeBody(t, rec, &done)
	assert.Equal(t, domain.ImportStatusCommitted, done.Status)
	require.NotNil(t, done.Summary)
	assert.Equal(t, 1, done.Summary.QuoteItemsCreated)

	rec = s.do(t, http.MethodGet, "/api/v1/rfq/export?rfq_id="+rfq.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "RFQ-FIXTURE-1-comparison.xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")

	rec = s.do(t, http.MethodGet, "/api/v1/rfq/export?rfq_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNetsisUnavailable(t *testing.T) {
	s := setupServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/mssql-name-sync?code=A", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/mssql-name-sync?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
