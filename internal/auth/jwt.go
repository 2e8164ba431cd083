// Package auth provides JWT authentication and admin authorization
// middleware for the assistant endpoint.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoleAdmin is the only role allowed to query the assistant.
const RoleAdmin = "admin"

// DevSecret is used when no secret is configured. Never use it in production.
const DevSecret = "default-dev-secret-change-in-production-32chars"

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller taken from the token claims.
type Principal struct {
	UserID   string
	Role     string
	TenantID string
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the principal set by the JWT middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// UserID returns the authenticated user id or "anonymous".
func UserID(ctx context.Context) string {
	if p, ok := FromContext(ctx); ok && p.UserID != "" {
		return p.UserID
	}
	return "anonymous"
}

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrMissingSubject = errors.New("token missing user identifier")
	ErrMissingTenant  = errors.New("token missing tenant")
)

// JWTMiddleware validates HMAC signed bearer tokens.
type JWTMiddleware struct {
	secretKey []byte
	logger    *zap.Logger
}

// NewJWTMiddleware creates the middleware. An empty secret falls back to
// DevSecret with a warning.
func NewJWTMiddleware(secret string, logger *zap.Logger) *JWTMiddleware {
	logger = logger.Named("auth")
	if secret == "" {
		secret = DevSecret
		logger.Warn("Using default JWT secret - set JWT_SECRET in production")
	}
	return &JWTMiddleware{secretKey: []byte(secret), logger: logger}
}

// Parse verifies a raw token and extracts the principal.
func (m *JWTMiddleware) Parse(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secretKey, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	// "sub" first, then the legacy "user_id" claim
	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return Principal{}, ErrMissingSubject
	}

	tenantID, _ := claims["tenant_id"].(string)
	if tenantID == "" {
		return Principal{}, ErrMissingTenant
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = "user"
	}
	return Principal{UserID: userID, Role: role, TenantID: tenantID}, nil
}

// Middleware rejects requests without a valid bearer token.
func (m *JWTMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		p, err := m.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			m.logger.Warn("Rejected JWT", zap.Error(err), zap.String("path", r.URL.Path))
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		m.logger.Debug("Authenticated user",
			zap.String("user_id", p.UserID),
			zap.String("tenant_id", p.TenantID))
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// GenerateToken signs an HS256 token for p that expires after ttl.
func GenerateToken(secret string, p Principal, ttl time.Duration) (string, error) {
	if secret == "" {
		secret = DevSecret
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       p.UserID,
		"role":      p.Role,
		"tenant_id": p.TenantID,
		"iat":       jwt.NewNumericDate(now),
		"exp":       jwt.NewNumericDate(now.Add(ttl)),
		"jti":       uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
