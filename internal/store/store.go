package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/corporate-insurance/insights/internal/textnorm"
)

// Reader is the read-only, tenant-scoped view of the datastore consumed by
// the analytics assistant. Every method takes the tenant id as a mandatory
// argument and never returns rows of another tenant.
type Reader interface {
	Companies(ctx context.Context, tenantID string, q CompanyQuery) ([]Company, error)
	Departments(ctx context.Context, tenantID string, q DepartmentQuery) ([]Department, error)
	Employees(ctx context.Context, tenantID string, q EmployeeQuery) ([]Employee, error)
	Policies(ctx context.Context, tenantID string, q PolicyQuery) ([]Policy, error)
	Payments(ctx context.Context, tenantID string, q PaymentQuery) ([]Payment, error)
	Applications(ctx context.Context, tenantID string, q ApplicationQuery) ([]Application, error)
	CorporatePolicies(ctx context.Context, tenantID string, q CorporatePolicyQuery) ([]CorporatePolicy, error)
	SupportTickets(ctx context.Context, tenantID string, q TicketQuery) ([]SupportTicket, error)
	BulkOperations(ctx context.Context, tenantID string, q BulkOperationQuery) ([]BulkOperation, error)
	Activities(ctx context.Context, tenantID string, q ActivityQuery) ([]Activity, error)
	PolicyTypeLabels(ctx context.Context, tenantID string) (map[string]string, error)
	Count(ctx context.Context, tenantID string, c Collection, statuses ...string) (int, error)
	GroupCount(ctx context.Context, tenantID string, g Grouping, r TimeRange) ([]Group, error)
}

// SQLStore implements Reader on database/sql. Queries use "?" placeholders
// only, which both supported drivers accept.
type SQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects to the configured driver ("sqlite" or "mysql") and pings it.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// SQLite allows one writer; readers share the single connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	return db, nil
}

// New wraps an open database.
func New(db *sql.DB, logger *zap.Logger) *SQLStore {
	return &SQLStore{db: db, logger: logger.Named("store")}
}

var _ Reader = (*SQLStore)(nil)

// Companies returns companies with counts of their employees, policies and
// departments.
func (s *SQLStore) Companies(ctx context.Context, tenantID string, q CompanyQuery) ([]Company, error) {
	b := newBuilder("c.tenant_id", tenantID)
	b.in("c.id", q.IDs)
	b.within("c.created_at", q.Created)

	query := `SELECT c.id, c.name, c.tax_id, c.email, c.phone, c.address, c.created_at,
		(SELECT COUNT(*) FROM employees e WHERE e.tenant_id = c.tenant_id AND e.company_id = c.id),
		(SELECT COUNT(*) FROM policies p WHERE p.tenant_id = c.tenant_id AND p.company_id = c.id),
		(SELECT COUNT(*) FROM departments d WHERE d.tenant_id = c.tenant_id AND d.company_id = c.id)
		FROM companies c` + b.clause() +
		orderClause(q.Order, map[Order]string{
			OrderNameAsc:     "c.name ASC, c.id ASC",
			OrderCreatedDesc: "c.created_at DESC, c.id ASC",
		}, "c.name ASC, c.id ASC") + limitClause(sqlLimit(q.Limit, q.NameContains != ""))

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		var c Company
		var created int64
		if err := rows.Scan(&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Address, &created,
			&c.EmployeeCount, &c.PolicyCount, &c.DepartmentCount); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		c.CreatedAt = fromMillis(created)
		if !textnorm.Contains(c.Name, q.NameContains) {
			continue
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return truncate(out, q.Limit), nil
}

// Departments returns departments with their company name.
func (s *SQLStore) Departments(ctx context.Context, tenantID string, q DepartmentQuery) ([]Department, error) {
	b := newBuilder("d.tenant_id", tenantID)
	if q.CompanyID != "" {
		b.eq("d.company_id", q.CompanyID)
	}

	query := `SELECT d.id, d.name, d.company_id, COALESCE(c.name, '')
		FROM departments d
		LEFT JOIN companies c ON c.id = d.company_id AND c.tenant_id = d.tenant_id` +
		b.clause() + " ORDER BY c.name ASC, d.name ASC, d.id ASC"

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CompanyID, &d.CompanyName); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		if !textnorm.Contains(d.Name, q.NameContains) {
			continue
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Employees returns employees with company and department names.
func (s *SQLStore) Employees(ctx context.Context, tenantID string, q EmployeeQuery) ([]Employee, error) {
	b := newBuilder("e.tenant_id", tenantID)
	if q.CompanyID != "" {
		b.eq("e.company_id", q.CompanyID)
	}
	b.within("e.created_at", q.Created)

	query := `SELECT e.id, e.first_name, e.last_name, e.birth_date, e.company_id, COALESCE(c.name, ''),
		COALESCE(e.department_id, ''), COALESCE(d.name, ''), e.created_at
		FROM employees e
		LEFT JOIN companies c ON c.id = e.company_id AND c.tenant_id = e.tenant_id
		LEFT JOIN departments d ON d.id = e.department_id AND d.tenant_id = e.tenant_id` +
		b.clause() +
		orderClause(q.Order, map[Order]string{
			OrderNameAsc:     "e.first_name ASC, e.last_name ASC, e.id ASC",
			OrderCreatedDesc: "e.created_at DESC, e.id ASC",
		}, "e.first_name ASC, e.last_name ASC, e.id ASC") + limitClause(sqlLimit(q.Limit, q.nameFiltered()))

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		var birth sql.NullInt64
		var created int64
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &birth, &e.CompanyID, &e.CompanyName,
			&e.DepartmentID, &e.DepartmentName, &created); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		e.BirthDate = fromNullMillis(birth)
		e.CreatedAt = fromMillis(created)
		if !q.matches(e) {
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return truncate(out, q.Limit), nil
}

func (q EmployeeQuery) nameFiltered() bool {
	return q.FirstNameContains != "" || q.LastNameContains != "" || q.AnyNameContains != ""
}

func (q EmployeeQuery) matches(e Employee) bool {
	if !textnorm.Contains(e.FirstName, q.FirstNameContains) || !textnorm.Contains(e.LastName, q.LastNameContains) {
		return false
	}
	if q.AnyNameContains == "" {
		return true
	}
	return textnorm.Contains(e.FirstName, q.AnyNameContains) ||
		textnorm.Contains(e.LastName, q.AnyNameContains) ||
		textnorm.Contains(e.FirstName+" "+e.LastName, q.AnyNameContains)
}

// Policies returns policies joined with employee and company.
func (s *SQLStore) Policies(ctx context.Context, tenantID string, q PolicyQuery) ([]Policy, error) {
	b := newBuilder("p.tenant_id", tenantID)
	b.in("p.status", q.Statuses)
	b.in("p.policy_type", q.Types)
	b.in("p.company_id", q.CompanyIDs)
	b.in("p.employee_id", q.EmployeeIDs)
	b.within("p.start_date", q.Start)
	b.within("p.end_date", q.End)
	b.within("p.created_at", q.Created)
	if q.AutoRenew != nil {
		v := 0
		if *q.AutoRenew {
			v = 1
		}
		b.eq("p.auto_renew", v)
	}

	query := `SELECT p.id, p.policy_number, p.policy_type, p.status, p.start_date, p.end_date, p.premium, p.auto_renew,
		COALESCE(p.employee_id, ''), COALESCE(e.first_name, ''), COALESCE(e.last_name, ''),
		p.company_id, COALESCE(c.name, ''), COALESCE(e.department_id, ''), p.created_at
		FROM policies p
		LEFT JOIN employees e ON e.id = p.employee_id AND e.tenant_id = p.tenant_id
		LEFT JOIN companies c ON c.id = p.company_id AND c.tenant_id = p.tenant_id` +
		b.clause() +
		orderClause(q.Order, map[Order]string{
			OrderEndAsc:      "p.end_date ASC, p.id ASC",
			OrderCreatedDesc: "p.created_at DESC, p.id ASC",
		}, "p.id ASC") + limitClause(q.Limit)

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		var p Policy
		var start, end, created int64
		var first, last string
		if err := rows.Scan(&p.ID, &p.PolicyNumber, &p.Type, &p.Status, &start, &end, &p.Premium, &p.AutoRenew,
			&p.EmployeeID, &first, &last, &p.CompanyID, &p.CompanyName, &p.DepartmentID, &created); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		p.StartDate = fromMillis(start)
		p.EndDate = fromMillis(end)
		p.CreatedAt = fromMillis(created)
		p.EmployeeName = Employee{FirstName: first, LastName: last}.FullName()
		out = append(out, p)
	}
	return out, rows.Err()
}

// Payments returns installments joined with policy, company and employee.
func (s *SQLStore) Payments(ctx context.Context, tenantID string, q PaymentQuery) ([]Payment, error) {
	b := newBuilder("pp.tenant_id", tenantID)
	b.in("pp.status", q.Statuses)
	b.in("p.company_id", q.CompanyIDs)
	b.in("p.employee_id", q.EmployeeIDs)
	b.within("pp.due_date", q.Due)
	b.within("pp.paid_date", q.Paid)

	query := `SELECT pp.id, pp.installment_no, pp.amount, pp.due_date, pp.paid_date, pp.status,
		p.id, p.policy_number, p.company_id, COALESCE(c.name, ''),
		COALESCE(p.employee_id, ''), COALESCE(e.first_name, ''), COALESCE(e.last_name, ''), COALESCE(e.department_id, '')
		FROM policy_payments pp
		JOIN policies p ON p.id = pp.policy_id AND p.tenant_id = pp.tenant_id
		LEFT JOIN companies c ON c.id = p.company_id AND c.tenant_id = p.tenant_id
		LEFT JOIN employees e ON e.id = p.employee_id AND e.tenant_id = p.tenant_id` +
		b.clause() +
		orderClause(q.Order, map[Order]string{
			OrderDueAsc:   "pp.due_date ASC, pp.id ASC",
			OrderPaidDesc: "pp.paid_date DESC, pp.id ASC",
		}, "pp.due_date ASC, pp.id ASC") + limitClause(q.Limit)

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		var due int64
		var paid sql.NullInt64
		var first, last string
		if err := rows.Scan(&p.ID, &p.Installment, &p.Amount, &due, &paid, &p.Status,
			&p.PolicyID, &p.PolicyNumber, &p.CompanyID, &p.CompanyName,
			&p.EmployeeID, &first, &last, &p.DepartmentID); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.DueDate = fromMillis(due)
		p.PaidDate = fromNullMillis(paid)
		p.EmployeeName = Employee{FirstName: first, LastName: last}.FullName()
		out = append(out, p)
	}
	return out, rows.Err()
}

// Applications returns applications with package, carrier and company names.
func (s *SQLStore) Applications(ctx context.Context, tenantID string, q ApplicationQuery) ([]Application, error) {
	b := newBuilder("a.tenant_id", tenantID)
	b.in("a.status", q.Statuses)
	b.within("a.created_at", q.Created)

	query := `SELECT a.id, a.status, COALESCE(c.name, ''), COALESCE(ip.name, ''), COALESCE(cr.name, ''),
		a.created_at, a.updated_at
		FROM applications a
		LEFT JOIN companies c ON c.id = a.company_id AND c.tenant_id = a.tenant_id
		LEFT JOIN insurance_packages ip ON ip.id = a.package_id AND ip.tenant_id = a.tenant_id
		LEFT JOIN carriers cr ON cr.id = a.carrier_id AND cr.tenant_id = a.tenant_id` +
		b.clause() +
		orderClause(q.Order, map[Order]string{
			OrderCreatedAsc:  "a.created_at ASC, a.id ASC",
			OrderCreatedDesc: "a.created_at DESC, a.id ASC",
		}, "a.created_at ASC, a.id ASC") + limitClause(q.Limit)

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		var a Application
		var created, updated int64
		if err := rows.Scan(&a.ID, &a.Status, &a.CompanyName, &a.PackageName, &a.CarrierName, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		a.CreatedAt = fromMillis(created)
		a.UpdatedAt = fromMillis(updated)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CorporatePolicies returns company-level policies.
func (s *SQLStore) CorporatePolicies(ctx context.Context, tenantID string, q CorporatePolicyQuery) ([]CorporatePolicy, error) {
	b := newBuilder("cp.tenant_id", tenantID)
	b.in("cp.status", q.Statuses)
	b.within("cp.end_date", q.End)

	query := `SELECT cp.id, cp.company_id, COALESCE(c.name, ''), cp.status, cp.end_date, cp.created_at
		FROM corporate_policies cp
		LEFT JOIN companies c ON c.id = cp.company_id AND c.tenant_id = cp.tenant_id` +
		b.clause() +
		orderClause(q.Order, map[Order]string{
			OrderEndAsc:      "cp.end_date ASC, cp.id ASC",
			OrderCreatedDesc: "cp.created_at DESC, cp.id ASC",
		}, "cp.id ASC") + limitClause(q.Limit)

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query corporate policies: %w", err)
	}
	defer rows.Close()

	var out []CorporatePolicy
	for rows.Next() {
		var cp CorporatePolicy
		var end sql.NullInt64
		var created int64
		if err := rows.Scan(&cp.ID, &cp.CompanyID, &cp.CompanyName, &cp.Status, &end, &created); err != nil {
			return nil, fmt.Errorf("failed to scan corporate policy: %w", err)
		}
		cp.EndDate = fromNullMillis(end)
		cp.CreatedAt = fromMillis(created)
		out = append(out, cp)
	}
	return out, rows.Err()
}

// SupportTickets returns support tickets.
func (s *SQLStore) SupportTickets(ctx context.Context, tenantID string, q TicketQuery) ([]SupportTicket, error) {
	b := newBuilder("tenant_id", tenantID)
	b.in("status", q.Statuses)
	b.within("created_at", q.Created)

	query := `SELECT id, category, status, subject, created_at, updated_at FROM support_tickets` +
		b.clause() +
		orderClause(q.Order, map[Order]string{
			OrderCreatedDesc: "created_at DESC, id ASC",
		}, "created_at ASC, id ASC") + limitClause(q.Limit)

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query support tickets: %w", err)
	}
	defer rows.Close()

	var out []SupportTicket
	for rows.Next() {
		var t SupportTicket
		var created, updated int64
		if err := rows.Scan(&t.ID, &t.Category, &t.Status, &t.Subject, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan support ticket: %w", err)
		}
		t.CreatedAt = fromMillis(created)
		t.UpdatedAt = fromMillis(updated)
		out = append(out, t)
	}
	return out, rows.Err()
}

// BulkOperations returns bulk jobs, newest first unless ordered otherwise.
func (s *SQLStore) BulkOperations(ctx context.Context, tenantID string, q BulkOperationQuery) ([]BulkOperation, error) {
	b := newBuilder("tenant_id", tenantID)
	b.within("created_at", q.Created)

	query := `SELECT id, op_type, status, total_rows, success_rows, failed_rows, created_at, completed_at FROM bulk_operations` +
		b.clause() +
		orderClause(q.Order, map[Order]string{
			OrderCreatedAsc: "created_at ASC, id ASC",
		}, "created_at DESC, id ASC") + limitClause(q.Limit)

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bulk operations: %w", err)
	}
	defer rows.Close()

	var out []BulkOperation
	for rows.Next() {
		var op BulkOperation
		var created int64
		var completed sql.NullInt64
		if err := rows.Scan(&op.ID, &op.Type, &op.Status, &op.TotalRows, &op.SuccessRows, &op.FailedRows, &created, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan bulk operation: %w", err)
		}
		op.CreatedAt = fromMillis(created)
		op.CompletedAt = fromNullMillis(completed)
		out = append(out, op)
	}
	return out, rows.Err()
}

// Activities returns activity log entries, newest first.
func (s *SQLStore) Activities(ctx context.Context, tenantID string, q ActivityQuery) ([]Activity, error) {
	b := newBuilder("tenant_id", tenantID)
	b.within("created_at", q.Created)

	query := `SELECT id, activity_type, title, description, created_at FROM activities` +
		b.clause() + " ORDER BY created_at DESC, id ASC" + limitClause(q.Limit)

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		var created int64
		if err := rows.Scan(&a.ID, &a.Type, &a.Title, &a.Description, &created); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.CreatedAt = fromMillis(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// PolicyTypeLabels returns the tenant's policy type code to label lookup.
func (s *SQLStore) PolicyTypeLabels(ctx context.Context, tenantID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT code, label FROM policy_types WHERE tenant_id = ?", tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query policy types: %w", err)
	}
	defer rows.Close()

	labels := make(map[string]string)
	for rows.Next() {
		var code, label string
		if err := rows.Scan(&code, &label); err != nil {
			return nil, fmt.Errorf("failed to scan policy type: %w", err)
		}
		labels[code] = label
	}
	return labels, rows.Err()
}

var countable = map[Collection]bool{
	Companies: true, Departments: true, Employees: true, Policies: true, Payments: true,
	Applications: true, CorporatePolicies: true, SupportTickets: true, BulkOperations: true, Activities: true,
}

// Count returns the number of rows of a collection, optionally restricted to
// a set of statuses.
func (s *SQLStore) Count(ctx context.Context, tenantID string, c Collection, statuses ...string) (int, error) {
	if !countable[c] {
		return 0, fmt.Errorf("unknown collection %q", c)
	}
	b := newBuilder("tenant_id", tenantID)
	b.in("status", statuses)

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+string(c)+b.clause(), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c, err)
	}
	return n, nil
}

// GroupCount groups a collection by a whitelisted column, returning the row
// count and the summed measure of each bucket ordered by key.
func (s *SQLStore) GroupCount(ctx context.Context, tenantID string, g Grouping, r TimeRange) ([]Group, error) {
	spec, ok := groupings[g]
	if !ok {
		return nil, fmt.Errorf("unknown grouping %q", g)
	}
	b := newBuilder("tenant_id", tenantID)
	b.within(spec.timeCol, r)

	query := fmt.Sprintf("SELECT %s, COUNT(*), COALESCE(SUM(%s), 0) FROM %s%s GROUP BY %s ORDER BY %s",
		spec.key, spec.sum, spec.table, b.clause(), spec.key, spec.key)

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group %s: %w", g, err)
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		var grp Group
		if err := rows.Scan(&grp.Key, &grp.Count, &grp.Sum); err != nil {
			return nil, fmt.Errorf("failed to scan %s group: %w", g, err)
		}
		out = append(out, grp)
	}
	return out, rows.Err()
}
