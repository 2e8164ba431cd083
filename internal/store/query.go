package store

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// TimeRange is an inclusive bound on a timestamp column. Nil ends are open.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// Between returns a closed range.
func Between(from, to time.Time) TimeRange {
	return TimeRange{From: &from, To: &to}
}

// Before returns a range open at the start.
func Before(t time.Time) TimeRange {
	return TimeRange{To: &t}
}

// Order names a whitelisted ORDER BY clause.
type Order string

const (
	OrderDefault     Order = ""
	OrderNameAsc     Order = "name_asc"
	OrderCreatedAsc  Order = "created_asc"
	OrderCreatedDesc Order = "created_desc"
	OrderDueAsc      Order = "due_asc"
	OrderPaidDesc    Order = "paid_desc"
	OrderEndAsc      Order = "end_asc"
)

// CompanyQuery filters companies. NameContains is folded like
// EmployeeQuery's name filters.
type CompanyQuery struct {
	NameContains string
	IDs          []string
	Created      TimeRange
	Order        Order
	Limit        int
}

// DepartmentQuery filters departments.
type DepartmentQuery struct {
	NameContains string
	CompanyID    string
}

// EmployeeQuery filters employees. FirstNameContains and LastNameContains
// must both match; AnyNameContains matches either name part or the full
// name. Name filters fold Turkish casing and diacritics on both sides, so
// "celik" matches "Çelik".
type EmployeeQuery struct {
	FirstNameContains string
	LastNameContains  string
	AnyNameContains   string
	CompanyID         string
	Created           TimeRange
	Order             Order
	Limit             int
}

// PolicyQuery filters policies.
type PolicyQuery struct {
	Statuses    []string
	Types       []string
	CompanyIDs  []string
	EmployeeIDs []string
	Start       TimeRange
	End         TimeRange
	Created     TimeRange
	AutoRenew   *bool
	Order       Order
	Limit       int
}

// PaymentQuery filters payments.
type PaymentQuery struct {
	Statuses    []string
	CompanyIDs  []string
	EmployeeIDs []string
	Due         TimeRange
	Paid        TimeRange
	Order       Order
	Limit       int
}

// ApplicationQuery filters applications.
type ApplicationQuery struct {
	Statuses []string
	Created  TimeRange
	Order    Order
	Limit    int
}

// CorporatePolicyQuery filters corporate policies.
type CorporatePolicyQuery struct {
	Statuses []string
	End      TimeRange
	Order    Order
	Limit    int
}

// TicketQuery filters support tickets.
type TicketQuery struct {
	Statuses []string
	Created  TimeRange
	Order    Order
	Limit    int
}

// BulkOperationQuery filters bulk operations.
type BulkOperationQuery struct {
	Created TimeRange
	Order   Order
	Limit   int
}

// ActivityQuery filters the activity log.
type ActivityQuery struct {
	Created TimeRange
	Limit   int
}

// Collection names a tenant-owned table for counting.
type Collection string

const (
	Companies         Collection = "companies"
	Departments       Collection = "departments"
	Employees         Collection = "employees"
	Policies          Collection = "policies"
	Payments          Collection = "policy_payments"
	Applications      Collection = "applications"
	CorporatePolicies Collection = "corporate_policies"
	SupportTickets    Collection = "support_tickets"
	BulkOperations    Collection = "bulk_operations"
	Activities        Collection = "activities"
)

// Grouping names a whitelisted group-by aggregation.
type Grouping string

const (
	PoliciesByStatus          Grouping = "policies_by_status"
	PoliciesByType            Grouping = "policies_by_type"
	PaymentsByStatus          Grouping = "payments_by_status"
	ApplicationsByStatus      Grouping = "applications_by_status"
	CorporatePoliciesByStatus Grouping = "corporate_policies_by_status"
	TicketsByCategory         Grouping = "tickets_by_category"
	BulkOperationsByStatus    Grouping = "bulk_operations_by_status"
	BulkOperationsByType      Grouping = "bulk_operations_by_type"
)

type groupingSpec struct {
	table   string
	key     string
	sum     string
	timeCol string
}

var groupings = map[Grouping]groupingSpec{
	PoliciesByStatus:          {table: "policies", key: "status", sum: "premium", timeCol: "start_date"},
	PoliciesByType:            {table: "policies", key: "policy_type", sum: "premium", timeCol: "start_date"},
	PaymentsByStatus:          {table: "policy_payments", key: "status", sum: "amount", timeCol: "due_date"},
	ApplicationsByStatus:      {table: "applications", key: "status", sum: "0", timeCol: "created_at"},
	CorporatePoliciesByStatus: {table: "corporate_policies", key: "status", sum: "0", timeCol: "created_at"},
	TicketsByCategory:         {table: "support_tickets", key: "category", sum: "0", timeCol: "created_at"},
	BulkOperationsByStatus:    {table: "bulk_operations", key: "status", sum: "total_rows", timeCol: "created_at"},
	BulkOperationsByType:      {table: "bulk_operations", key: "op_type", sum: "total_rows", timeCol: "created_at"},
}

// builder accumulates a WHERE clause and its positional arguments.
// Every query starts with the tenant predicate.
type builder struct {
	where []string
	args  []any
}

func newBuilder(tenantCol, tenantID string) *builder {
	return &builder{
		where: []string{tenantCol + " = ?"},
		args:  []any{tenantID},
	}
}

func (b *builder) eq(col string, v any) {
	b.where = append(b.where, col+" = ?")
	b.args = append(b.args, v)
}

func (b *builder) in(col string, vals []string) {
	if len(vals) == 0 {
		return
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(vals)), ",")
	b.where = append(b.where, col+" IN ("+marks+")")
	for _, v := range vals {
		b.args = append(b.args, v)
	}
}

func (b *builder) within(col string, r TimeRange) {
	if r.From != nil {
		b.where = append(b.where, col+" >= ?")
		b.args = append(b.args, millis(*r.From))
	}
	if r.To != nil {
		b.where = append(b.where, col+" <= ?")
		b.args = append(b.args, millis(*r.To))
	}
}

func (b *builder) clause() string {
	return " WHERE " + strings.Join(b.where, " AND ")
}

// sqlLimit drops the LIMIT when rows are still filtered by name in Go.
func sqlLimit(n int, nameFiltered bool) int {
	if nameFiltered {
		return 0
	}
	return n
}

func truncate[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

func limitClause(n int) string {
	if n <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(n)
}

func orderClause(o Order, allowed map[Order]string, fallback string) string {
	if expr, ok := allowed[o]; ok {
		return " ORDER BY " + expr
	}
	return " ORDER BY " + fallback
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMillis(ms.Int64)
	return &t
}
