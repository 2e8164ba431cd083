package assistant

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/corporate-insurance/insights/internal/store"
)

type stat struct {
	label      string
	collection store.Collection
	statuses   []string
	value      int
}

func (s *Service) globalStats(ctx context.Context, q *query) (Response, error) {
	stats := []*stat{
		{label: "Sirket", collection: store.Companies},
		{label: "Calisan", collection: store.Employees},
		{label: "Police", collection: store.Policies},
		{label: "Aktif police", collection: store.Policies, statuses: []string{store.PolicyActive}},
		{label: "Geciken taksit", collection: store.Payments, statuses: []string{store.PaymentOverdue}},
		{label: "Bekleyen basvuru", collection: store.Applications, statuses: openApplications},
		{label: "Acik destek talebi", collection: store.SupportTickets, statuses: []string{store.TicketOpen, store.TicketInProgress}},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, st := range stats {
		st := st
		g.Go(func() error {
			var err error
			st.value, err = s.store.Count(gctx, q.tenantID, st.collection, st.statuses...)
			return err
		})
	}
	var groups []store.Group
	g.Go(func() error {
		var err error
		groups, err = s.store.GroupCount(gctx, q.tenantID, store.PoliciesByStatus, store.TimeRange{})
		return err
	})
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	table := newTable("Genel Istatistikler",
		col("metric", "Gosterge"),
		col("value", "Deger"))
	for _, st := range stats {
		table.add(Row{"metric": st.label, "value": st.value})
	}

	counts := newSeries(policyStatusOrder...)
	for _, gr := range groups {
		counts.add(gr.Key, float64(gr.Count))
	}
	labels := make([]string, len(counts.labels))
	for i, key := range counts.labels {
		labels[i] = policyStatusLabel(key)
	}
	chart := newChart("Police Durumlari", ChartDoughnut, labels,
		Dataset{Label: "Police sayisi", Data: append([]float64(nil), counts.values...)})

	return respond(
		fmt.Sprintf("%d sirket, %d calisan ve %d police kayitli. %d taksit gecikmede.",
			stats[0].value, stats[1].value, stats[2].value, stats[4].value),
		tables(table), charts(chart),
		"Riskli sirketler", "Geciken odemeler son 30 gun", "Bekleyen basvurular"), nil
}

func (s *Service) activityFeed(ctx context.Context, q *query) (Response, error) {
	activities, err := s.store.Activities(ctx, q.tenantID, store.ActivityQuery{Limit: 50})
	if err != nil {
		return Response{}, err
	}

	table := newTable("Son Aktiviteler",
		col("createdAt", "Zaman"),
		col("type", "Tur"),
		col("title", "Baslik"),
		col("description", "Aciklama"))
	for _, a := range activities {
		table.add(Row{
			"createdAt":   a.CreatedAt.Format("2006-01-02 15:04"),
			"type":        a.Type,
			"title":       a.Title,
			"description": orDash(a.Description),
		})
	}

	summary := "Henuz aktivite kaydi yok."
	if len(activities) > 0 {
		summary = fmt.Sprintf("Son %d aktivite listelendi.", len(activities))
	}
	return respond(summary, tables(table), nil, "Toplu islemler", "Son eklenen kayitlar"), nil
}

func (s *Service) recentEntities(ctx context.Context, q *query) (Response, error) {
	var (
		companies []store.Company
		employees []store.Employee
		policies  []store.Policy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		companies, err = s.store.Companies(gctx, q.tenantID, store.CompanyQuery{Order: store.OrderCreatedDesc, Limit: 10})
		return err
	})
	g.Go(func() error {
		var err error
		employees, err = s.store.Employees(gctx, q.tenantID, store.EmployeeQuery{Order: store.OrderCreatedDesc, Limit: 10})
		return err
	})
	g.Go(func() error {
		var err error
		policies, err = s.store.Policies(gctx, q.tenantID, store.PolicyQuery{Order: store.OrderCreatedDesc, Limit: 10})
		return err
	})
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	ct := newTable("Son Eklenen Sirketler", col("name", "Sirket"), col("createdAt", "Kayit tarihi"))
	for _, c := range companies {
		ct.add(Row{"name": c.Name, "createdAt": date(c.CreatedAt)})
	}
	et := newTable("Son Eklenen Calisanlar", col("name", "Ad Soyad"), col("company", "Sirket"), col("createdAt", "Kayit tarihi"))
	for _, e := range employees {
		et.add(Row{"name": e.FullName(), "company": e.CompanyName, "createdAt": date(e.CreatedAt)})
	}
	pt := newTable("Son Eklenen Policeler", col("policyNumber", "Police No"), col("company", "Sirket"), col("status", "Durum"), col("createdAt", "Kayit tarihi"))
	for _, p := range policies {
		pt.add(Row{"policyNumber": p.PolicyNumber, "company": p.CompanyName, "status": policyStatusLabel(p.Status), "createdAt": date(p.CreatedAt)})
	}

	summary := "Henuz kayit eklenmemis."
	if len(companies)+len(employees)+len(policies) > 0 {
		summary = fmt.Sprintf("Son eklenen %d sirket, %d calisan ve %d police listelendi.", len(companies), len(employees), len(policies))
	}
	return respond(summary, tables(ct, et, pt), nil, "Buyume trendi son 6 ay", "Son aktiviteler"), nil
}

var onboardingExamples = []struct{ prompt, topic string }{
	{"Geciken odemeler son 30 gun", "Odemeler"},
	{"Suresi yaklasan policeler 30 gun", "Policeler"},
	{"Riskli sirketler", "Risk"},
	{"Riskli calisanlari goster", "Risk"},
	{"Acme ve Globex karsilastir", "Sirketler"},
	{"Basvuru hunisi", "Basvurular"},
	{"Prim trendi son 12 ay", "Trendler"},
	{"Genel istatistikler", "Ozet"},
}

// Onboarding is returned for general or unrecognized questions.
func Onboarding() Response {
	table := newTable("Ornek Sorular", col("prompt", "Soru"), col("topic", "Konu"))
	for _, ex := range onboardingExamples {
		table.add(Row{"prompt": ex.prompt, "topic": ex.topic})
	}
	return respond(
		"Yonetim asistani sirket, calisan, police, odeme, basvuru ve destek verileriniz hakkindaki sorulari yanitlar. Asagidaki orneklerden birini deneyin.",
		tables(table), nil,
		"Geciken odemeler son 30 gun", "Riskli sirketler", "Genel istatistikler")
}

func (s *Service) general(_ context.Context, _ *query) (Response, error) {
	return Onboarding(), nil
}
