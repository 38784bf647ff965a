package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ithalat-ops/backoffice-api/internal/auth"
	"github.com/ithalat-ops/backoffice-api/internal/config"
	"github.com/ithalat-ops/backoffice-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS_ExposesDownloadHeaders(t *testing.T) {
	cfg := &config.CORSConfig{AllowedOrigins: []string{"https://ops.example.com"}}
	h := middleware.CORS(cfg, "production", zap.NewNop())(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rfq/export", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, exposed, "Content-Disposition")
	assert.Contains(t, exposed, "X-Request-Id")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/rfq/export", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: "default-src 'self'",
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
	}
	h := middleware.SecurityHeaders(cfg)(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestRateLimiter(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:                 true,
		RequestsPerMinute:       2,
		ImportRequestsPerMinute: 1,
		WhitelistPaths:          []string{"/health/*"},
	}
	rl := middleware.NewRateLimiter(cfg, zap.NewNop())

	t.Run("general limit", func(t *testing.T) {
		h := rl.Limit(ok)
		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{200, 200, 429}, codes)
	})

	t.Run("imports keyed by caller", func(t *testing.T) {
		h := rl.LimitImports(ok)
		call := func(subject string) int {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/rfqs/x/import", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.9")
			req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Subject: subject, Role: auth.RolePurchasing}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec.Code
		}
		assert.Equal(t, http.StatusOK, call("alice"))
		assert.Equal(t, http.StatusTooManyRequests, call("alice"))
		assert.Equal(t, http.StatusOK, call("bob"), "same IP, different caller")
	})

	t.Run("whitelisted path", func(t *testing.T) {
		h := rl.Limit(ok)
		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rfqs", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestLogging_RequestID(t *testing.T) {
	h := middleware.Logging(zap.NewNop())(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
