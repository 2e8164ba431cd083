package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/corporate-insurance/insights/internal/store"
)

// Service answers assistant questions for one tenant at a time. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	store    store.Reader
	resolver *Resolver
	clock    func() time.Time
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService creates the assistant. planner may be nil to run rules only.
func NewService(reader store.Reader, planner *Planner, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    reader,
		resolver: NewResolver(planner, logger),
		clock:    time.Now,
		logger:   logger.Named("assistant"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the plan for a prompt without running a report.
func (s *Service) Resolve(ctx context.Context, prompt string, useLLM *bool) (Plan, Source) {
	return s.resolver.Resolve(ctx, strings.TrimSpace(prompt), useLLM, s.clock().UTC())
}

// Ask resolves the question and runs exactly one report. Missing data never
// fails; only datastore errors are returned.
func (s *Service) Ask(ctx context.Context, tenantID string, req Request) (Response, error) {
	if tenantID == "" {
		return Response{}, fmt.Errorf("tenant id is required")
	}
	now := s.clock().UTC()
	prompt := strings.TrimSpace(req.Prompt)

	plan, source := s.resolver.Resolve(ctx, prompt, req.UseLLM, now)
	intent, run := dispatch(plan.Intent)
	plan.Intent = intent

	start := time.Now()
	resp, err := run(s, ctx, &query{
		tenantID: tenantID,
		prompt:   prompt,
		filters:  req.Filters,
		plan:     plan,
		now:      now,
	})
	reportDurationSeconds.WithLabelValues(string(intent)).Observe(time.Since(start).Seconds())
	if err != nil {
		reportErrorsTotal.WithLabelValues(string(intent)).Inc()
		return Response{}, fmt.Errorf("%s report: %w", intent, err)
	}

	requestsTotal.WithLabelValues(string(intent), string(source)).Inc()
	resp.Intent = intent
	resp.Source = source

	s.logger.Debug("Answered assistant question",
		zap.String("tenant_id", tenantID),
		zap.String("intent", string(intent)),
		zap.String("source", string(source)),
		zap.Int("tables", len(resp.Tables)),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}
