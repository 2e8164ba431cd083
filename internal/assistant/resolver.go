package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Resolver picks the intent for a prompt: the LLM plan when it succeeds,
// the keyword classifier otherwise.
type Resolver struct {
	planner *Planner
	logger  *zap.Logger
}

// NewResolver creates a resolver. planner may be nil.
func NewResolver(planner *Planner, logger *zap.Logger) *Resolver {
	return &Resolver{planner: planner, logger: logger.Named("resolver")}
}

// Resolve never fails. Planner errors are logged and counted, then the
// keyword classifier decides. When the LLM names an intent outside the
// enumeration its slots are kept as hints and only the intent is replaced.
func (r *Resolver) Resolve(ctx context.Context, prompt string, useLLM *bool, now time.Time) (Plan, Source) {
	if r.planner.Enabled() && (useLLM == nil || *useLLM) && strings.TrimSpace(prompt) != "" {
		plan, err := r.planner.Plan(ctx, prompt, now)
		if err == nil {
			return plan, SourceLLM
		}

		var pe *PlanError
		kind := PlanErrTransport
		if errors.As(err, &pe) {
			kind = pe.Kind
		}
		plannerFallbacksTotal.WithLabelValues(string(kind)).Inc()
		r.logger.Warn("LLM plan unavailable, using keyword classifier",
			zap.String("kind", string(kind)),
			zap.Error(err))

		if kind == PlanErrUnknownIntent {
			plan.Intent = Classify(prompt)
			return plan, SourceRules
		}
	}
	return Plan{Intent: Classify(prompt)}, SourceRules
}
