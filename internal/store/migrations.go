package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Migration is one ordered schema step of the development read projection.
// Production deployments point at the database owned by the CRUD services and
// never run these.
type Migration struct {
	Version     int
	Description string
	Up          string
}

// Migrations returns the schema steps in order. Timestamps are stored as
// unix milliseconds so the same queries run on SQLite and MySQL.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "companies, departments and employees",
			Up: `
				CREATE TABLE IF NOT EXISTS companies (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					name TEXT NOT NULL,
					tax_id TEXT NOT NULL DEFAULT '',
					email TEXT NOT NULL DEFAULT '',
					phone TEXT NOT NULL DEFAULT '',
					address TEXT NOT NULL DEFAULT '',
					created_at INTEGER NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_companies_tenant ON companies(tenant_id);

				CREATE TABLE IF NOT EXISTS departments (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					company_id TEXT NOT NULL,
					name TEXT NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_departments_tenant ON departments(tenant_id, company_id);

				CREATE TABLE IF NOT EXISTS employees (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					company_id TEXT NOT NULL,
					department_id TEXT,
					first_name TEXT NOT NULL,
					last_name TEXT NOT NULL DEFAULT '',
					birth_date INTEGER,
					created_at INTEGER NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_employees_tenant ON employees(tenant_id, company_id);
			`,
		},
		{
			Version:     2,
			Description: "policies, payments and policy types",
			Up: `
				CREATE TABLE IF NOT EXISTS policy_types (
					tenant_id TEXT NOT NULL,
					code TEXT NOT NULL,
					label TEXT NOT NULL,
					PRIMARY KEY (tenant_id, code)
				);

				CREATE TABLE IF NOT EXISTS policies (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					policy_number TEXT NOT NULL,
					policy_type TEXT NOT NULL,
					status TEXT NOT NULL,
					start_date INTEGER NOT NULL,
					end_date INTEGER NOT NULL,
					premium REAL NOT NULL DEFAULT 0,
					auto_renew INTEGER NOT NULL DEFAULT 0,
					employee_id TEXT,
					company_id TEXT NOT NULL,
					created_at INTEGER NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_policies_tenant ON policies(tenant_id, status);

				CREATE TABLE IF NOT EXISTS policy_payments (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					policy_id TEXT NOT NULL,
					installment_no INTEGER NOT NULL,
					amount REAL NOT NULL,
					due_date INTEGER NOT NULL,
					paid_date INTEGER,
					status TEXT NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_payments_tenant ON policy_payments(tenant_id, status, due_date);
			`,
		},
		{
			Version:     3,
			Description: "applications and corporate policies",
			Up: `
				CREATE TABLE IF NOT EXISTS insurance_packages (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					name TEXT NOT NULL
				);

				CREATE TABLE IF NOT EXISTS carriers (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					name TEXT NOT NULL
				);

				CREATE TABLE IF NOT EXISTS applications (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					company_id TEXT,
					package_id TEXT,
					carrier_id TEXT,
					status TEXT NOT NULL,
					created_at INTEGER NOT NULL,
					updated_at INTEGER NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_applications_tenant ON applications(tenant_id, status);

				CREATE TABLE IF NOT EXISTS corporate_policies (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					company_id TEXT NOT NULL,
					status TEXT NOT NULL,
					end_date INTEGER,
					created_at INTEGER NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_corporate_policies_tenant ON corporate_policies(tenant_id, status);
			`,
		},
		{
			Version:     4,
			Description: "support tickets, bulk operations and activity log",
			Up: `
				CREATE TABLE IF NOT EXISTS support_tickets (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					category TEXT NOT NULL,
					status TEXT NOT NULL,
					subject TEXT NOT NULL DEFAULT '',
					created_at INTEGER NOT NULL,
					updated_at INTEGER NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_tickets_tenant ON support_tickets(tenant_id, created_at);

				CREATE TABLE IF NOT EXISTS bulk_operations (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					op_type TEXT NOT NULL,
					status TEXT NOT NULL,
					total_rows INTEGER NOT NULL DEFAULT 0,
					success_rows INTEGER NOT NULL DEFAULT 0,
					failed_rows INTEGER NOT NULL DEFAULT 0,
					created_at INTEGER NOT NULL,
					completed_at INTEGER
				);
				CREATE INDEX IF NOT EXISTS idx_bulk_operations_tenant ON bulk_operations(tenant_id, created_at);

				CREATE TABLE IF NOT EXISTS activities (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					activity_type TEXT NOT NULL,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					created_at INTEGER NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_activities_tenant ON activities(tenant_id, created_at);
			`,
		},
	}
}

// Migrate applies pending migrations and records them in schema_migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range Migrations() {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&count); err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		for _, stmt := range statements(m.Up) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Description, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UnixMilli()); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// statements splits a migration body so drivers without multi-statement
// support (MySQL by default) can apply it.
func statements(body string) []string {
	var out []string
	for _, stmt := range strings.Split(body, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
