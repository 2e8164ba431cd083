package policy

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// MaxPromptLength bounds a prompt in bytes.
const MaxPromptLength = 2000

// MaskKind names a class of personal or secret data found in a prompt.
type MaskKind string

const (
	MaskEmail      MaskKind = "email"
	MaskPhone      MaskKind = "phone"
	MaskNationalID MaskKind = "national_id"
	MaskIBAN       MaskKind = "iban"
	MaskCard       MaskKind = "card"
	MaskSecret     MaskKind = "secret"
)

var promptMasked = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "insights_policy_prompt_masked_total",
	Help: "Prompt fragments masked before leaving the service, by kind.",
}, []string{"kind"})

type maskRule struct {
	kind    MaskKind
	pattern *regexp.Regexp
}

// Applied in order; a masked fragment no longer matches later rules.
var maskRules = []maskRule{
	{MaskSecret, regexp.MustCompile(`(?i)(password|parola|sifre|api[-_]?key|secret)\s*[:=]\s*\S+`)},
	{MaskSecret, regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]+`)},
	{MaskEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{MaskIBAN, regexp.MustCompile(`(?i)\bTR\d{2}\s?(?:\d{4}\s?){5}\d{2}\b`)},
	{MaskCard, regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)},
	{MaskPhone, regexp.MustCompile(`(?:\+90\s?|\b0)?5\d{2}[\s.-]?\d{3}[\s.-]?\d{2}[\s.-]?\d{2}\b`)},
	{MaskNationalID, regexp.MustCompile(`\b[1-9]\d{10}\b`)},
}

// InputError describes a prompt rejected before classification.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "prompt " + e.Reason
}

// PromptFilter validates incoming prompts and masks personal data in the
// copy sent to the external LLM provider. Keyword classification always
// sees the original text.
type PromptFilter struct {
	logger *zap.Logger
}

// NewPromptFilter creates a prompt filter.
func NewPromptFilter(logger *zap.Logger) *PromptFilter {
	return &PromptFilter{logger: logger.Named("prompt_filter")}
}

// Validate rejects oversized, NUL-carrying or non UTF-8 prompts.
// A nil filter accepts everything.
func (f *PromptFilter) Validate(prompt string) error {
	if f == nil {
		return nil
	}
	if len(prompt) > MaxPromptLength {
		return &InputError{Reason: fmt.Sprintf("exceeds maximum length of %d bytes", MaxPromptLength)}
	}
	if strings.ContainsRune(prompt, 0) {
		return &InputError{Reason: "contains a null byte"}
	}
	if !utf8.ValidString(prompt) {
		return &InputError{Reason: "is not valid UTF-8"}
	}
	return nil
}

// Mask returns prompt with every personal or secret fragment masked.
func (f *PromptFilter) Mask(prompt string) string {
	if f == nil || prompt == "" {
		return prompt
	}
	masked := prompt
	for _, rule := range maskRules {
		n := 0
		masked = rule.pattern.ReplaceAllStringFunc(masked, func(match string) string {
			n++
			return maskFragment(match)
		})
		if n > 0 {
			promptMasked.WithLabelValues(string(rule.kind)).Add(float64(n))
			f.logger.Debug("Masked prompt fragment", zap.String("kind", string(rule.kind)), zap.Int("count", n))
		}
	}
	return masked
}

// maskFragment keeps the first and last two characters for context.
func maskFragment(match string) string {
	if len(match) <= 4 {
		return strings.Repeat("*", len(match))
	}
	return match[:2] + strings.Repeat("*", len(match)-4) + match[len(match)-2:]
}
