package assistant

import (
	"strings"
	"time"
)

// query carries one request through a report handler. Slot accessors apply
// the precedence explicit filter > LLM plan > prompt text > report default.
type query struct {
	tenantID string
	prompt   string
	filters  Filters
	plan     Plan
	now      time.Time
}

// dateRange resolves each end of the range independently.
func (q *query) dateRange(fallbackDays int) (from, to time.Time) {
	from, to = ResolveDateRange(q.prompt, fallbackDays, q.now)

	if t, ok := parseFilterDate(slot(q.plan.DateFrom), false); ok {
		from = t
	}
	if t, ok := parseFilterDate(slot(q.plan.DateTo), true); ok {
		to = t
	}
	if t, ok := parseFilterDate(q.filters.DateFrom, false); ok {
		from = t
	}
	if t, ok := parseFilterDate(q.filters.DateTo, true); ok {
		to = t
	}
	return from, to
}

func (q *query) windowDays(fallback int) int {
	if q.filters.WindowDays != nil && *q.filters.WindowDays > 0 {
		return clampDays(*q.filters.WindowDays)
	}
	if q.plan.WindowDays != nil && *q.plan.WindowDays > 0 {
		return clampDays(*q.plan.WindowDays)
	}
	return ResolveWindowDays(q.prompt, fallback)
}

func (q *query) companyName() string {
	if s := slot(q.plan.CompanyName); s != "" {
		return s
	}
	return ExtractName(q.prompt, companyKeywords)
}

func (q *query) employeeName() string {
	if s := slot(q.plan.EmployeeName); s != "" {
		return s
	}
	return ExtractName(q.prompt, employeeKeywords)
}

func (q *query) departmentName() string {
	if s := slot(q.plan.DepartmentName); s != "" {
		return s
	}
	return ExtractName(q.prompt, departmentKeywords)
}

func (q *query) companyPair() (a, b string, ok bool) {
	if a, b := slot(q.plan.CompanyNameA), slot(q.plan.CompanyNameB); a != "" && b != "" {
		return a, b, true
	}
	return ExtractCompanyPair(q.prompt)
}

// policyType is only taken from the plan; the distribution report matches
// type names in the prompt text itself.
func (q *query) policyType() string {
	return strings.TrimSpace(slot(q.plan.PolicyType))
}
