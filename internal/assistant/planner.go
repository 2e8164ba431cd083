package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/corporate-insurance/insights/internal/jsonx"
	"github.com/corporate-insurance/insights/internal/llm"
)

// Completer is the chat completion call the planner needs.
type Completer interface {
	Configured() bool
	CompleteJSON(ctx context.Context, messages []llm.Message) (string, error)
}

// Redactor masks personal data in text that leaves the service.
type Redactor interface {
	Mask(text string) string
}

// Planner asks an LLM to turn a prompt into a Plan. It makes one bounded
// attempt per prompt.
type Planner struct {
	client   Completer
	timeout  time.Duration
	redactor Redactor
	logger   *zap.Logger
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithRedactor masks prompts before they are sent to the provider.
func WithRedactor(r Redactor) PlannerOption {
	return func(p *Planner) { p.redactor = r }
}

// NewPlanner creates a planner. A zero timeout defaults to 8s.
func NewPlanner(client Completer, timeout time.Duration, logger *zap.Logger, opts ...PlannerOption) *Planner {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	p := &Planner{client: client, timeout: timeout, logger: logger.Named("planner")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether a provider is configured.
func (p *Planner) Enabled() bool {
	return p != nil && p.client != nil && p.client.Configured()
}

// Plan returns the provider's plan for prompt. Every failure is a *PlanError.
// An unknown intent returns the decoded plan together with a
// PlanErrUnknownIntent error so the slots can still be used as hints.
func (p *Planner) Plan(ctx context.Context, prompt string, now time.Time) (Plan, error) {
	if !p.Enabled() {
		return Plan{}, &PlanError{Kind: PlanErrDisabled, Err: llm.ErrNotConfigured}
	}

	if p.redactor != nil {
		prompt = p.redactor.Mask(prompt)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	content, err := p.client.CompleteJSON(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt(now)},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return Plan{}, classifyPlanError(err)
	}

	var plan Plan
	if err := jsonx.UnmarshalFromString(jsonObject(content), &plan); err != nil {
		return Plan{}, &PlanError{Kind: PlanErrDecode, Err: err}
	}
	plan.Intent = Intent(strings.TrimSpace(string(plan.Intent)))
	if !plan.Intent.Known() {
		return plan, &PlanError{Kind: PlanErrUnknownIntent, Err: fmt.Errorf("intent %q", plan.Intent)}
	}

	p.logger.Debug("LLM plan resolved", zap.String("intent", string(plan.Intent)))
	return plan, nil
}

func classifyPlanError(err error) *PlanError {
	var status *llm.StatusError
	switch {
	case errors.As(err, &status):
		return &PlanError{Kind: PlanErrStatus, Err: err}
	case errors.Is(err, llm.ErrEmptyContent):
		return &PlanError{Kind: PlanErrEmpty, Err: err}
	case errors.Is(err, llm.ErrMalformedResponse):
		return &PlanError{Kind: PlanErrDecode, Err: err}
	case errors.Is(err, llm.ErrNotConfigured):
		return &PlanError{Kind: PlanErrDisabled, Err: err}
	default:
		return &PlanError{Kind: PlanErrTransport, Err: err}
	}
}

// jsonObject trims prose or code fences some providers wrap around the
// object despite the JSON response format.
func jsonObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}

func systemPrompt(now time.Time) string {
	names := make([]string, len(Intents))
	for i, in := range Intents {
		names[i] = string(in)
	}
	return `You route questions from insurance platform administrators to analytics reports.
Answer with ONLY a JSON object, no prose, with exactly these keys:
{"intent": string, "dateFrom": "YYYY-MM-DD"|null, "dateTo": "YYYY-MM-DD"|null, "windowDays": integer|null,
 "companyName": string|null, "companyNameA": string|null, "companyNameB": string|null,
 "employeeName": string|null, "departmentName": string|null, "policyType": string|null}
"intent" must be one of: ` + strings.Join(names, ", ") + `.
Use "general" when no report fits. Questions are usually in Turkish ("gun" = day, "son 30 gun" = last 30 days).
Only fill a slot when the question states it. Today is ` + now.UTC().Format(time.DateOnly) + `.`
}
