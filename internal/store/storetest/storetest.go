// Package storetest provides an in-memory SQLite datastore with the read
// projection schema applied, plus helpers to seed it.
package storetest

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/corporate-insurance/insights/internal/store"
)

var dbSeq atomic.Int64

// NewDB opens a fresh in-memory database migrated to the latest schema. It
// is closed when the test finishes.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	// A single connection keeps the shared-cache database alive and serializes access.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, store.Migrate(context.Background(), db))
	return db
}

// Seeder inserts rows for one tenant.
type Seeder struct {
	t      testing.TB
	db     *sql.DB
	tenant string
	seq    int
}

// Seed returns a Seeder writing rows owned by tenant.
func Seed(t testing.TB, db *sql.DB, tenant string) *Seeder {
	return &Seeder{t: t, db: db, tenant: tenant}
}

func (s *Seeder) exec(query string, args ...any) {
	s.t.Helper()
	_, err := s.db.ExecContext(context.Background(), query, args...)
	require.NoError(s.t, err)
}

func (s *Seeder) id(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%s-%03d", s.tenant, prefix, s.seq)
}

func ms(t time.Time) int64 { return t.UnixMilli() }

func nullMs(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Company inserts a company and returns its id.
func (s *Seeder) Company(name string, created time.Time) string {
	s.t.Helper()
	id := s.id("co")
	s.exec(`INSERT INTO companies (id, tenant_id, name, tax_id, email, phone, address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.tenant, name, "TX"+id, "info@"+id+".test", "+90 212 000 0000", "Istanbul", ms(created))
	return id
}

// Department inserts a department and returns its id.
func (s *Seeder) Department(companyID, name string) string {
	s.t.Helper()
	id := s.id("dep")
	s.exec(`INSERT INTO departments (id, tenant_id, company_id, name) VALUES (?, ?, ?, ?)`,
		id, s.tenant, companyID, name)
	return id
}

// Employee inserts an employee and returns its id. departmentID may be empty.
func (s *Seeder) Employee(companyID, departmentID, first, last string, created time.Time) string {
	s.t.Helper()
	id := s.id("emp")
	s.exec(`INSERT INTO employees (id, tenant_id, company_id, department_id, first_name, last_name, birth_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.tenant, companyID, nullString(departmentID), first, last, nil, ms(created))
	return id
}

// PolicyType registers a human label for a policy type code.
func (s *Seeder) PolicyType(code, label string) {
	s.t.Helper()
	s.exec(`INSERT INTO policy_types (tenant_id, code, label) VALUES (?, ?, ?)`, s.tenant, code, label)
}

// PolicySpec describes a policy row. Zero dates default to Start.
type PolicySpec struct {
	CompanyID  string
	EmployeeID string
	Type       string
	Status     string
	Start      time.Time
	End        time.Time
	Premium    float64
	AutoRenew  bool
	Created    time.Time
}

// Policy inserts a policy and returns its id.
func (s *Seeder) Policy(p PolicySpec) string {
	s.t.Helper()
	id := s.id("pol")
	if p.Type == "" {
		p.Type = "HEALTH"
	}
	if p.Status == "" {
		p.Status = store.PolicyActive
	}
	if p.End.IsZero() {
		p.End = p.Start.AddDate(1, 0, 0)
	}
	if p.Created.IsZero() {
		p.Created = p.Start
	}
	renew := 0
	if p.AutoRenew {
		renew = 1
	}
	s.exec(`INSERT INTO policies (id, tenant_id, policy_number, policy_type, status, start_date, end_date, premium, auto_renew, employee_id, company_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.tenant, "PN-"+id, p.Type, p.Status, ms(p.Start), ms(p.End), p.Premium, renew,
		nullString(p.EmployeeID), p.CompanyID, ms(p.Created))
	return id
}

// Payment inserts an installment of a policy and returns its id.
func (s *Seeder) Payment(policyID string, installment int, amount float64, due time.Time, paid *time.Time, status string) string {
	s.t.Helper()
	id := s.id("pay")
	s.exec(`INSERT INTO policy_payments (id, tenant_id, policy_id, installment_no, amount, due_date, paid_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.tenant, policyID, installment, amount, ms(due), nullMs(paid), status)
	return id
}

// Application inserts an application with a package and carrier.
func (s *Seeder) Application(companyID, pkg, carrier, status string, created time.Time) string {
	s.t.Helper()
	pkgID, carrierID := s.id("pkg"), s.id("car")
	s.exec(`INSERT INTO insurance_packages (id, tenant_id, name) VALUES (?, ?, ?)`, pkgID, s.tenant, pkg)
	s.exec(`INSERT INTO carriers (id, tenant_id, name) VALUES (?, ?, ?)`, carrierID, s.tenant, carrier)
	id := s.id("app")
	s.exec(`INSERT INTO applications (id, tenant_id, company_id, package_id, carrier_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.tenant, nullString(companyID), pkgID, carrierID, status, ms(created), ms(created))
	return id
}

// CorporatePolicy inserts a company-level policy.
func (s *Seeder) CorporatePolicy(companyID, status string, end *time.Time, created time.Time) string {
	s.t.Helper()
	id := s.id("cp")
	s.exec(`INSERT INTO corporate_policies (id, tenant_id, company_id, status, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, s.tenant, companyID, status, nullMs(end), ms(created))
	return id
}

// Ticket inserts a support ticket.
func (s *Seeder) Ticket(category, status, subject string, created time.Time) string {
	s.t.Helper()
	id := s.id("tk")
	s.exec(`INSERT INTO support_tickets (id, tenant_id, category, status, subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, s.tenant, category, status, subject, ms(created), ms(created))
	return id
}

// BulkOperation inserts a bulk job.
func (s *Seeder) BulkOperation(opType, status string, total, success, failed int, created time.Time, completed *time.Time) string {
	s.t.Helper()
	id := s.id("bulk")
	s.exec(`INSERT INTO bulk_operations (id, tenant_id, op_type, status, total_rows, success_rows, failed_rows, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.tenant, opType, status, total, success, failed, ms(created), nullMs(completed))
	return id
}

// Activity inserts an activity log entry.
func (s *Seeder) Activity(activityType, title, description string, created time.Time) string {
	s.t.Helper()
	id := s.id("act")
	s.exec(`INSERT INTO activities (id, tenant_id, activity_type, title, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, s.tenant, activityType, title, description, ms(created))
	return id
}
