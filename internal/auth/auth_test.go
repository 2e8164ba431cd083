package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const secret = "test-secret-with-at-least-32-characters"

func chain(t *testing.T) http.Handler {
	logger := zaptest.NewLogger(t)
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-Tenant", p.TenantID)
		w.Header().Set("X-User", UserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	return NewJWTMiddleware(secret, logger).Middleware(NewAdminMiddleware(logger).Middleware(final))
}

func call(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ai/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminTokenPasses(t *testing.T) {
	token, err := GenerateToken(secret, Principal{UserID: "u1", Role: RoleAdmin, TenantID: "tenant-a"}, time.Hour)
	require.NoError(t, err)

	rec := call(chain(t), token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "tenant-a", rec.Header().Get("X-Tenant"))
	assert.Equal(t, "u1", rec.Header().Get("X-User"))
}

func TestRejectedTokens(t *testing.T) {
	expired, err := GenerateToken(secret, Principal{UserID: "u1", Role: RoleAdmin, TenantID: "t"}, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := GenerateToken("another-secret-with-at-least-32-chars", Principal{UserID: "u1", Role: RoleAdmin, TenantID: "t"}, time.Hour)
	require.NoError(t, err)
	noTenant, err := GenerateToken(secret, Principal{UserID: "u1", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)
	notAdmin, err := GenerateToken(secret, Principal{UserID: "u1", Role: "user", TenantID: "t"}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "role": RoleAdmin, "tenant_id": "t"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	h := chain(t)
	assert.Equal(t, http.StatusUnauthorized, call(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, expired).Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, wrongKey).Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, noTenant).Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, none).Code)
	assert.Equal(t, http.StatusForbidden, call(h, notAdmin).Code)
}

func TestParseLegacyUserIDClaim(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   "legacy",
		"tenant_id": "t",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	p, err := NewJWTMiddleware(secret, zaptest.NewLogger(t)).Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "legacy", Role: "user", TenantID: "t"}, p)
}

func TestEmptySecretUsesDevSecret(t *testing.T) {
	token, err := GenerateToken("", Principal{UserID: "u", Role: RoleAdmin, TenantID: "t"}, time.Hour)
	require.NoError(t, err)
	_, err = NewJWTMiddleware("", zaptest.NewLogger(t)).Parse(token)
	assert.NoError(t, err)
}
