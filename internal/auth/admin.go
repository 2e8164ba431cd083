package auth

import (
	"net/http"

	"go.uber.org/zap"
)

// AdminMiddleware lets through only principals with the admin role. It must
// run after JWTMiddleware.
type AdminMiddleware struct {
	logger *zap.Logger
}

// NewAdminMiddleware creates a new admin middleware.
func NewAdminMiddleware(logger *zap.Logger) *AdminMiddleware {
	return &AdminMiddleware{logger: logger.Named("auth")}
}

// Middleware checks the role of the authenticated principal.
func (m *AdminMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok || p.Role != RoleAdmin {
			m.logger.Warn("Admin access denied",
				zap.String("user_id", p.UserID),
				zap.String("role", p.Role),
				zap.String("path", r.URL.Path))
			http.Error(w, "Forbidden: Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
