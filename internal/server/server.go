// Package server exposes the admin assistant over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/corporate-insurance/insights/internal/assistant"
	"github.com/corporate-insurance/insights/internal/audit"
	"github.com/corporate-insurance/insights/internal/auth"
	"github.com/corporate-insurance/insights/internal/jsonx"
	"github.com/corporate-insurance/insights/internal/policy"
)

const maxBodyBytes = 64 << 10

// Asker answers one assistant question for a tenant.
type Asker interface {
	Ask(ctx context.Context, tenantID string, req assistant.Request) (assistant.Response, error)
}

// Deps are the collaborators of the HTTP layer. Limiter, Filter and Audit
// may be nil.
type Deps struct {
	Assistant Asker
	JWTSecret string
	Limiter   *policy.RateLimiter
	Filter    *policy.PromptFilter
	Audit     *audit.Logger
	Logger    *zap.Logger
}

// Server provides the assistant HTTP endpoints.
type Server struct {
	assistant Asker
	jwt       *auth.JWTMiddleware
	admin     *auth.AdminMiddleware
	limiter   *policy.RateLimiter
	filter    *policy.PromptFilter
	audit     *audit.Logger
	validate  *validator.Validate
	logger    *zap.Logger
}

// New creates the server.
func New(d Deps) *Server {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{
		assistant: d.Assistant,
		jwt:       auth.NewJWTMiddleware(d.JWTSecret, d.Logger),
		admin:     auth.NewAdminMiddleware(d.Logger),
		limiter:   d.Limiter,
		filter:    d.Filter,
		audit:     d.Audit,
		validate:  v,
		logger:    d.Logger.Named("http"),
	}
}

// Router returns the mux with every route registered.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	protect := func(h http.HandlerFunc) http.Handler {
		return s.jwt.Middleware(s.admin.Middleware(s.limiter.Middleware(h)))
	}
	r.Handle("/ai/admin", protect(s.handleAsk)).Methods(http.MethodPost)
	return r
}

// askRequest is the wire form of assistant.Request. Prompt is a pointer so
// a missing field is told apart from an empty prompt.
type askRequest struct {
	Prompt  *string            `json:"prompt" validate:"required"`
	Filters *assistant.Filters `json:"filters"`
	UseLLM  *bool              `json:"useLlm"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	principal, _ := auth.FromContext(r.Context())

	var body askRequest
	if err := jsonx.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if err := s.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err), "")
		return
	}
	if err := s.filter.Validate(*body.Prompt); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	req := assistant.Request{Prompt: *body.Prompt, UseLLM: body.UseLLM}
	if body.Filters != nil {
		req.Filters = *body.Filters
	}

	resp, err := s.assistant.Ask(r.Context(), principal.TenantID, req)
	event := audit.QueryEvent{
		TenantID:   principal.TenantID,
		UserID:     principal.UserID,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		ref := uuid.NewString()
		s.logger.Error("Assistant query failed",
			zap.String("ref", ref),
			zap.String("tenant_id", principal.TenantID),
			zap.String("error", SanitizeError(err)))
		event.Status = audit.StatusError
		s.audit.Log(r.Context(), event)
		writeError(w, http.StatusInternalServerError, SafeErrorWithID("Assistant query", ref), ref)
		return
	}

	event.Status = audit.StatusOK
	event.Intent = string(resp.Intent)
	event.Source = string(resp.Source)
	s.audit.Log(r.Context(), event)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "askRequest.")
		if fe.Tag() == "required" {
			parts = append(parts, fmt.Sprintf("%s is required", field))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s is invalid", field))
	}
	return strings.Join(parts, "; ")
}
