package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/corporate-insurance/insights/internal/store"
	"github.com/corporate-insurance/insights/internal/store/storetest"
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*store.SQLStore, *storetest.Seeder, *storetest.Seeder) {
	db := storetest.NewDB(t)
	return store.New(db, zaptest.NewLogger(t)),
		storetest.Seed(t, db, "tenant-a"),
		storetest.Seed(t, db, "tenant-b")
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := storetest.NewDB(t)
	require.NoError(t, store.Migrate(context.Background(), db))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, len(store.Migrations()), n)
}

func TestTenantIsolation(t *testing.T) {
	s, a, b := newStore(t)
	ctx := context.Background()

	acme := a.Company("Acme", base)
	a.Employee(acme, "", "Ayse", "Yilmaz", base)
	other := b.Company("Acme Other", base)
	b.Employee(other, "", "Mehmet", "Kaya", base)
	polB := b.Policy(storetest.PolicySpec{CompanyID: other, Start: base, Premium: 100})
	b.Payment(polB, 1, 500, base, nil, store.PaymentOverdue)

	companies, err := s.Companies(ctx, "tenant-a", store.CompanyQuery{NameContains: "acme"})
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
	assert.Equal(t, 1, companies[0].EmployeeCount)

	payments, err := s.Payments(ctx, "tenant-a", store.PaymentQuery{})
	require.NoError(t, err)
	assert.Empty(t, payments)

	n, err := s.Count(ctx, "tenant-b", store.Payments, store.PaymentOverdue)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Count(ctx, "tenant-a", store.Employees)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPaymentsJoinAndFilters(t *testing.T) {
	s, a, _ := newStore(t)
	ctx := context.Background()

	acme := a.Company("Acme", base)
	emp := a.Employee(acme, "", "Ayse", "Yilmaz", base)
	pol := a.Policy(storetest.PolicySpec{CompanyID: acme, EmployeeID: emp, Start: base, Premium: 1200})
	paid := base.AddDate(0, 0, -1)
	a.Payment(pol, 1, 100, base.AddDate(0, 0, -2), &paid, store.PaymentPaid)
	a.Payment(pol, 2, 100, base.AddDate(0, 0, -10), nil, store.PaymentOverdue)
	a.Payment(pol, 3, 100, base.AddDate(0, 0, 5), nil, store.PaymentPending)

	got, err := s.Payments(ctx, "tenant-a", store.PaymentQuery{
		Statuses: []string{store.PaymentPending, store.PaymentOverdue},
		Order:    store.OrderDueAsc,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Installment)
	assert.Equal(t, "Acme", got[0].CompanyName)
	assert.Equal(t, "Ayse Yilmaz", got[0].EmployeeName)
	assert.Nil(t, got[0].PaidDate)

	got, err = s.Payments(ctx, "tenant-a", store.PaymentQuery{Paid: store.Before(base)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].PaidDate)
	assert.True(t, got[0].PaidDate.Equal(paid))

	got, err = s.Payments(ctx, "tenant-a", store.PaymentQuery{Due: store.Between(base, base.AddDate(0, 0, 7))})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Installment)
}

func TestEmployeeNameMatching(t *testing.T) {
	s, a, _ := newStore(t)
	ctx := context.Background()

	acme := a.Company("Acme", base)
	dep := a.Department(acme, "Finans")
	a.Employee(acme, dep, "Ayse", "Yilmaz", base)
	a.Employee(acme, "", "Ali", "Ayse", base)
	a.Employee(acme, "", "Zeynep", "Demir", base)

	got, err := s.Employees(ctx, "tenant-a", store.EmployeeQuery{FirstNameContains: "ayse", LastNameContains: "yil"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Finans", got[0].DepartmentName)

	got, err = s.Employees(ctx, "tenant-a", store.EmployeeQuery{AnyNameContains: "AYSE"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Employees(ctx, "tenant-a", store.EmployeeQuery{AnyNameContains: "ayse yilmaz"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Yilmaz", got[0].LastName)
}

func TestNameMatchingFoldsTurkishLetters(t *testing.T) {
	s, a, _ := newStore(t)
	ctx := context.Background()

	celik := a.Company("Çelik Holding", base)
	a.Company("ŞAHİN Sigorta", base)
	a.Company("Acme", base)
	a.Department(celik, "Müşteri Hizmetleri")
	a.Employee(celik, "", "Ömer", "Işık", base)

	for _, name := range []string{"Çelik Holding", "çelik holding", "CELIK", "celik"} {
		got, err := s.Companies(ctx, "tenant-a", store.CompanyQuery{NameContains: name})
		require.NoError(t, err)
		require.Len(t, got, 1, name)
		assert.Equal(t, "Çelik Holding", got[0].Name)
	}

	got, err := s.Companies(ctx, "tenant-a", store.CompanyQuery{NameContains: "Şahin sigorta"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ŞAHİN Sigorta", got[0].Name)

	deps, err := s.Departments(ctx, "tenant-a", store.DepartmentQuery{NameContains: "musteri"})
	require.NoError(t, err)
	assert.Len(t, deps, 1)

	emps, err := s.Employees(ctx, "tenant-a", store.EmployeeQuery{FirstNameContains: "ömer", LastNameContains: "ISIK"})
	require.NoError(t, err)
	assert.Len(t, emps, 1)
}

func TestNameFilterAppliesLimitAfterMatching(t *testing.T) {
	s, a, _ := newStore(t)
	a.Company("Acme", base)
	a.Company("Beta", base)
	a.Company("Çelik A", base)
	a.Company("Çelik B", base)

	got, err := s.Companies(context.Background(), "tenant-a", store.CompanyQuery{NameContains: "celik", Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Çelik A", got[0].Name)
}

func TestContainsTreatsWildcardsLiterally(t *testing.T) {
	s, a, _ := newStore(t)
	a.Company("100% Sigorta", base)
	a.Company("1000 Sigorta", base)

	got, err := s.Companies(context.Background(), "tenant-a", store.CompanyQuery{NameContains: "100%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100% Sigorta", got[0].Name)
}

func TestGroupCount(t *testing.T) {
	s, a, b := newStore(t)
	ctx := context.Background()

	acme := a.Company("Acme", base)
	a.Policy(storetest.PolicySpec{CompanyID: acme, Type: "HEALTH", Start: base, Premium: 100})
	a.Policy(storetest.PolicySpec{CompanyID: acme, Type: "HEALTH", Start: base, Premium: 50})
	a.Policy(storetest.PolicySpec{CompanyID: acme, Type: "LIFE", Start: base.AddDate(-2, 0, 0), Premium: 10})
	other := b.Company("Other", base)
	b.Policy(storetest.PolicySpec{CompanyID: other, Type: "HEALTH", Start: base, Premium: 999})

	groups, err := s.GroupCount(ctx, "tenant-a", store.PoliciesByType, store.TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, []store.Group{
		{Key: "HEALTH", Count: 2, Sum: 150},
		{Key: "LIFE", Count: 1, Sum: 10},
	}, groups)

	groups, err = s.GroupCount(ctx, "tenant-a", store.PoliciesByType, store.Between(base.AddDate(0, -1, 0), base))
	require.NoError(t, err)
	assert.Equal(t, []store.Group{{Key: "HEALTH", Count: 2, Sum: 150}}, groups)

	_, err = s.GroupCount(ctx, "tenant-a", store.Grouping("nope"), store.TimeRange{})
	assert.Error(t, err)
}

func TestPolicyTypeLabels(t *testing.T) {
	s, a, b := newStore(t)
	a.PolicyType("HEALTH", "Tamamlayici Saglik")
	b.PolicyType("HEALTH", "Baska")

	labels, err := s.PolicyTypeLabels(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"HEALTH": "Tamamlayici Saglik"}, labels)
}

func TestCountRejectsUnknownCollection(t *testing.T) {
	s, _, _ := newStore(t)
	_, err := s.Count(context.Background(), "tenant-a", store.Collection("users; DROP TABLE companies"))
	assert.Error(t, err)
}
