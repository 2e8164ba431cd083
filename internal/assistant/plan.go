package assistant

import (
	"fmt"
	"strings"
)

// Plan is the resolved intent plus the slot values suggested for it. Nil
// slots are unset.
type Plan struct {
	Intent         Intent  `json:"intent"`
	DateFrom       *string `json:"dateFrom"`
	DateTo         *string `json:"dateTo"`
	WindowDays     *int    `json:"windowDays"`
	CompanyName    *string `json:"companyName"`
	CompanyNameA   *string `json:"companyNameA"`
	CompanyNameB   *string `json:"companyNameB"`
	EmployeeName   *string `json:"employeeName"`
	DepartmentName *string `json:"departmentName"`
	PolicyType     *string `json:"policyType"`
}

// Filters are explicit request filters. They win over every other source.
type Filters struct {
	DateFrom   string `json:"dateFrom,omitempty" validate:"omitempty,datetime=2006-01-02|datetime=2006-01-02T15:04:05Z07:00"`
	DateTo     string `json:"dateTo,omitempty" validate:"omitempty,datetime=2006-01-02|datetime=2006-01-02T15:04:05Z07:00"`
	WindowDays *int   `json:"windowDays,omitempty" validate:"omitempty,min=1,max=3650"`
}

// Request is one assistant question. A nil UseLLM means "use the planner if
// a provider key is configured".
type Request struct {
	Prompt  string  `json:"prompt"`
	Filters Filters `json:"filters"`
	UseLLM  *bool   `json:"useLlm,omitempty"`
}

// PlanErrorKind classifies why the LLM planner produced no usable plan.
type PlanErrorKind string

const (
	PlanErrTransport     PlanErrorKind = "transport"
	PlanErrStatus        PlanErrorKind = "status"
	PlanErrEmpty         PlanErrorKind = "empty"
	PlanErrDecode        PlanErrorKind = "decode"
	PlanErrUnknownIntent PlanErrorKind = "unknown_intent"
	PlanErrDisabled      PlanErrorKind = "disabled"
)

// PlanError is returned by the planner. The resolver never passes it on;
// every kind degrades to rule-based classification.
type PlanError struct {
	Kind PlanErrorKind
	Err  error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("llm plan %s: %v", e.Kind, e.Err)
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

// slot returns the trimmed value of an optional string, treating the empty
// string and a literal "null" as unset.
func slot(p *string) string {
	if p == nil {
		return ""
	}
	s := strings.TrimSpace(*p)
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}
