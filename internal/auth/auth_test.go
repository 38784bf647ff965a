package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/auth"
	"github.com/ithalat-ops/backoffice-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-for-hs256-signing"

func newMiddleware() *auth.Middleware {
	cfg := &config.Config{}
	cfg.Auth.APIKey = "key-123"
	cfg.Auth.JWTSecret = testSecret
	return auth.NewMiddleware(cfg, zap.NewNop())
}

func protected(m *auth.Middleware, module auth.Module) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := auth.FromContext(r.Context())
		w.Header().Set("X-Role", string(user.Role))
		w.WriteHeader(http.StatusNoContent)
	})
	return m.Authenticate(m.RequireModule(module)(ok))
}

func serve(h http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/rfqs", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuthenticate_APIKey(t *testing.T) {
	h := protected(newMiddleware(), auth.ModuleNetsis)

	rr := serve(h, map[string]string{"x-api-key": "key-123"})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "admin", rr.Header().Get("X-Role"))

	rr = serve(h, map[string]string{"x-api-key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthenticate_Bearer(t *testing.T) {
	m := newMiddleware()
	issuer := auth.NewJWTValidator(testSecret, "")

	token, err := issuer.IssueToken("u-1", auth.RolePurchasing, time.Hour)
	require.NoError(t, err)

	rr := serve(protected(m, auth.ModuleRfq), map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "purchasing", rr.Header().Get("X-Role"))

	rr = serve(protected(m, auth.ModuleShipments), map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuthenticate_Rejections(t *testing.T) {
	m := newMiddleware()
	h := protected(m, auth.ModuleCatalog)

	assert.Equal(t, http.StatusUnauthorized, serve(h, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, map[string]string{"Authorization": "Basic abc"}).Code)

	foreign, err := auth.NewJWTValidator("another-secret", "").IssueToken("u-2", auth.RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, map[string]string{"Authorization": "Bearer " + foreign}).Code)

	expired, err := auth.NewJWTValidator(testSecret, "").IssueToken("u-3", auth.RoleAdmin, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, map[string]string{"Authorization": "Bearer " + expired}).Code)
}

func TestValidateToken(t *testing.T) {
	v := auth.NewJWTValidator(testSecret, "backoffice")

	token, err := v.IssueToken("u-1", auth.Role(" Warehouse "), time.Hour)
	require.NoError(t, err)
	user, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleWarehouse, user.Role)
	assert.Equal(t, "u-1", user.Name)

	_, err = auth.NewJWTValidator(testSecret, "other").ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, err := v.IssueToken("u-1", auth.RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = v.ValidateToken(expired)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)

	noRole, err := v.IssueToken("u-1", "", time.Hour)
	require.NoError(t, err)
	_, err = v.ValidateToken(noRole)
	assert.ErrorIs(t, err, auth.ErrMissingRole)

	_, err = auth.NewJWTValidator("", "").ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestCanAccess(t *testing.T) {
	admin := &auth.UserContext{Role: auth.RoleAdmin}
	viewer := &auth.UserContext{Role: auth.RoleViewer}
	unknown := &auth.UserContext{Role: "intern"}

	assert.True(t, admin.CanAccess(auth.ModuleDiscrepancy))
	assert.Len(t, admin.Modules(), 7)
	assert.True(t, viewer.CanAccess(auth.ModuleCatalog))
	assert.False(t, viewer.CanAccess(auth.ModuleRfq))
	assert.False(t, unknown.CanAccess(auth.ModuleCatalog))
	assert.Empty(t, unknown.Modules())

	var nobody *auth.UserContext
	assert.False(t, nobody.CanAccess(auth.ModuleCatalog))
}
