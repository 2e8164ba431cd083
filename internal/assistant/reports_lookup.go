package assistant

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/corporate-insurance/insights/internal/store"
)

// CompareNotFound is the summary returned when one side of a comparison
// matches no company.
const CompareNotFound = "Karsilastirilacak sirketlerden biri bulunamadi."

func (s *Service) companyInfo(ctx context.Context, q *query) (Response, error) {
	name := q.companyName()
	if name == "" {
		return guidance("Hangi sirketi incelemek istediginizi yazin.",
			"Acme sirketi hakkinda bilgi", "Globex firmasi detay"), nil
	}

	companies, err := s.store.Companies(ctx, q.tenantID, store.CompanyQuery{
		NameContains: name,
		Order:        store.OrderNameAsc,
		Limit:        listLimit,
	})
	if err != nil {
		return Response{}, err
	}
	if len(companies) == 0 {
		return guidance(fmt.Sprintf("'%s' ile eslesen sirket bulunamadi.", name),
			"Sirket adini kontrol edip tekrar deneyin", "Son eklenen sirketler"), nil
	}

	ids := make([]string, len(companies))
	for i, c := range companies {
		ids[i] = c.ID
	}
	groups, err := s.policyStatusCounts(ctx, q.tenantID, ids)
	if err != nil {
		return Response{}, err
	}

	table := newTable("Sirket Bilgileri",
		col("name", "Sirket"),
		col("taxId", "Vergi No"),
		col("email", "E-posta"),
		col("phone", "Telefon"),
		col("address", "Adres"),
		col("employees", "Calisan"),
		col("policies", "Police"),
		col("departments", "Departman"),
		col("createdAt", "Kayit tarihi"))
	for _, c := range companies {
		table.add(Row{
			"name":        c.Name,
			"taxId":       orDash(c.TaxID),
			"email":       orDash(c.Email),
			"phone":       orDash(c.Phone),
			"address":     orDash(c.Address),
			"employees":   c.EmployeeCount,
			"policies":    c.PolicyCount,
			"departments": c.DepartmentCount,
			"createdAt":   date(c.CreatedAt),
		})
	}

	summary := fmt.Sprintf("%s: %d calisan, %d police, %d departman.",
		companies[0].Name, companies[0].EmployeeCount, companies[0].PolicyCount, companies[0].DepartmentCount)
	if len(companies) > 1 {
		summary = fmt.Sprintf("'%s' ile eslesen %d sirket bulundu.", name, len(companies))
	}
	labels := make([]string, len(groups.labels))
	for i, st := range groups.labels {
		labels[i] = policyStatusLabel(st)
	}
	chart := newChart("Police Durumlari", ChartDoughnut, labels,
		Dataset{Label: "Police sayisi", Data: append([]float64(nil), groups.values...)})
	return respond(summary, tables(table), charts(chart),
		"Riskli sirketler", fmt.Sprintf("%s ve Globex karsilastir", companies[0].Name)), nil
}

func (s *Service) policyStatusCounts(ctx context.Context, tenantID string, companyIDs []string) (*series, error) {
	policies, err := s.store.Policies(ctx, tenantID, store.PolicyQuery{CompanyIDs: companyIDs})
	if err != nil {
		return nil, err
	}
	counts := newSeries(policyStatusOrder...)
	for _, p := range policies {
		counts.add(p.Status, 1)
	}
	return counts, nil
}

func (s *Service) employeeInfo(ctx context.Context, q *query) (Response, error) {
	name := q.employeeName()
	if name == "" {
		return guidance("Hangi calisani aradiginizi yazin.",
			"Ayse Yilmaz calisan bilgisi", "Mehmet personel detay"), nil
	}

	eq := store.EmployeeQuery{Order: store.OrderNameAsc, Limit: listLimit}
	if parts := strings.Fields(name); len(parts) > 1 {
		eq.FirstNameContains = parts[0]
		eq.LastNameContains = strings.Join(parts[1:], " ")
	} else {
		eq.AnyNameContains = name
	}
	employees, err := s.store.Employees(ctx, q.tenantID, eq)
	if err != nil {
		return Response{}, err
	}
	if len(employees) == 0 && eq.AnyNameContains == "" {
		// compound first names: "Ayse Nur", "Ayse Nur Yilmaz"
		employees, err = s.store.Employees(ctx, q.tenantID, store.EmployeeQuery{
			AnyNameContains: name,
			Order:           store.OrderNameAsc,
			Limit:           listLimit,
		})
		if err != nil {
			return Response{}, err
		}
	}
	if len(employees) == 0 {
		return guidance(fmt.Sprintf("'%s' ile eslesen calisan bulunamadi.", name),
			"Ad ve soyadi birlikte yazmayi deneyin", "Son eklenen calisanlar"), nil
	}

	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	policies, err := s.store.Policies(ctx, q.tenantID, store.PolicyQuery{EmployeeIDs: ids, Order: store.OrderEndAsc, Limit: listLimit})
	if err != nil {
		return Response{}, err
	}

	people := newTable("Calisan Bilgileri",
		col("name", "Ad Soyad"),
		col("company", "Sirket"),
		col("department", "Departman"),
		col("birthDate", "Dogum tarihi"),
		col("createdAt", "Kayit tarihi"))
	for _, e := range employees {
		people.add(Row{
			"name":       e.FullName(),
			"company":    e.CompanyName,
			"department": orDash(e.DepartmentName),
			"birthDate":  nullableDate(e.BirthDate),
			"createdAt":  date(e.CreatedAt),
		})
	}
	held := newTable("Policeler",
		col("employee", "Calisan"),
		col("policyNumber", "Police No"),
		col("type", "Tur"),
		col("status", "Durum"),
		col("endDate", "Bitis"),
		col("premium", "Prim"))
	for _, p := range policies {
		held.add(Row{
			"employee":     p.EmployeeName,
			"policyNumber": p.PolicyNumber,
			"type":         p.Type,
			"status":       policyStatusLabel(p.Status),
			"endDate":      date(p.EndDate),
			"premium":      round2(p.Premium),
		})
	}

	summary := fmt.Sprintf("%s (%s): %d police.", employees[0].FullName(), employees[0].CompanyName, len(policies))
	if len(employees) > 1 {
		summary = fmt.Sprintf("'%s' ile eslesen %d calisan bulundu, toplam %d police.", name, len(employees), len(policies))
	}
	return respond(summary, tables(people, held), nil,
		"Riskli calisanlar", "Geciken odemeler son 30 gun"), nil
}

type companyFigures struct {
	company        store.Company
	activePolicies int
	premium        float64
	overdueCount   int
	overdueAmount  float64
	paidAmount     float64
}

func (s *Service) companyFigures(ctx context.Context, q *query, c store.Company) (*companyFigures, error) {
	f := &companyFigures{company: c}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		policies, err := s.store.Policies(gctx, q.tenantID, store.PolicyQuery{CompanyIDs: []string{c.ID}})
		for _, p := range policies {
			if p.Status == store.PolicyActive {
				f.activePolicies++
				f.premium += p.Premium
			}
		}
		return err
	})
	g.Go(func() error {
		payments, err := s.store.Payments(gctx, q.tenantID, store.PaymentQuery{CompanyIDs: []string{c.ID}})
		for _, p := range payments {
			switch {
			case p.Status == store.PaymentPaid:
				f.paidAmount += p.Amount
			case !p.DueDate.After(q.now):
				f.overdueCount++
				f.overdueAmount += p.Amount
			}
		}
		return err
	})
	return f, g.Wait()
}

func (s *Service) firstCompany(ctx context.Context, tenantID, name string) (store.Company, bool, error) {
	found, err := s.store.Companies(ctx, tenantID, store.CompanyQuery{NameContains: name, Order: store.OrderNameAsc, Limit: 1})
	if err != nil || len(found) == 0 {
		return store.Company{}, false, err
	}
	return found[0], true, nil
}

func (s *Service) companyCompare(ctx context.Context, q *query) (Response, error) {
	nameA, nameB, ok := q.companyPair()
	if !ok {
		return guidance("Karsilastirmak icin iki sirket adi yazin.",
			"Acme ve Globex karsilastir", "Acme ile Initech kiyasla"), nil
	}

	a, okA, err := s.firstCompany(ctx, q.tenantID, nameA)
	if err != nil {
		return Response{}, err
	}
	b, okB, err := s.firstCompany(ctx, q.tenantID, nameB)
	if err != nil {
		return Response{}, err
	}
	if !okA || !okB {
		return guidance(CompareNotFound, "Sirket adlarini kontrol edip tekrar deneyin", "Son eklenen sirketler"), nil
	}

	fa, err := s.companyFigures(ctx, q, a)
	if err != nil {
		return Response{}, err
	}
	fb, err := s.companyFigures(ctx, q, b)
	if err != nil {
		return Response{}, err
	}

	type metric struct {
		key, label string
		value      func(*companyFigures) float64
	}
	metrics := []metric{
		{"employees", "Calisan sayisi", func(f *companyFigures) float64 { return float64(f.company.EmployeeCount) }},
		{"policies", "Police sayisi", func(f *companyFigures) float64 { return float64(f.company.PolicyCount) }},
		{"activePolicies", "Aktif police", func(f *companyFigures) float64 { return float64(f.activePolicies) }},
		{"premium", "Aktif prim toplami", func(f *companyFigures) float64 { return round2(f.premium) }},
		{"paidAmount", "Odenen tutar", func(f *companyFigures) float64 { return round2(f.paidAmount) }},
		{"overdueCount", "Geciken taksit", func(f *companyFigures) float64 { return float64(f.overdueCount) }},
		{"overdueAmount", "Geciken tutar", func(f *companyFigures) float64 { return round2(f.overdueAmount) }},
	}

	table := newTable(fmt.Sprintf("%s / %s Karsilastirmasi", a.Name, b.Name),
		col("metric", "Gosterge"),
		col("a", a.Name),
		col("b", b.Name))
	var labels []string
	var dataA, dataB []float64
	for _, m := range metrics {
		table.add(Row{"metric": m.label, "a": m.value(fa), "b": m.value(fb)})
		if m.key == "employees" || m.key == "policies" || m.key == "activePolicies" || m.key == "overdueCount" {
			labels = append(labels, m.label)
			dataA = append(dataA, m.value(fa))
			dataB = append(dataB, m.value(fb))
		}
	}

	chart := newChart("Sirket Karsilastirmasi", ChartBar, labels,
		Dataset{Label: a.Name, Data: dataA},
		Dataset{Label: b.Name, Data: dataB})
	return respond(
		fmt.Sprintf("%s: %d police, %d geciken taksit. %s: %d police, %d geciken taksit.",
			a.Name, a.PolicyCount, fa.overdueCount, b.Name, b.PolicyCount, fb.overdueCount),
		tables(table), charts(chart),
		"Riskli sirketler", "En cok odeme yapan sirketler"), nil
}
