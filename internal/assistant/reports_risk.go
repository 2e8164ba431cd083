package assistant

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/corporate-insurance/insights/internal/store"
)

const (
	riskThreshold   = 7
	riskUpcomingDay = 30
	topRiskyLimit   = 10
)

// riskSignals are the rows every entity-level risk score is built from.
type riskSignals struct {
	overdue   []store.Payment
	upcoming  []store.Policy
	cancelled []store.Policy
}

// loadRiskSignals fetches past-due unpaid payments, live policies ending in
// the next 30 days and cancelled policies concurrently.
func (s *Service) loadRiskSignals(ctx context.Context, q *query, g *errgroup.Group) *riskSignals {
	sig := &riskSignals{}
	g.Go(func() error {
		var err error
		sig.overdue, err = s.store.Payments(ctx, q.tenantID, store.PaymentQuery{
			Statuses: unpaid,
			Due:      store.Before(q.now),
			Order:    store.OrderDueAsc,
		})
		return err
	})
	g.Go(func() error {
		var err error
		sig.upcoming, err = s.store.Policies(ctx, q.tenantID, store.PolicyQuery{
			Statuses: livePolicies,
			End:      store.Between(q.now, q.now.Add(riskUpcomingDay*day)),
		})
		return err
	})
	g.Go(func() error {
		var err error
		sig.cancelled, err = s.store.Policies(ctx, q.tenantID, store.PolicyQuery{
			Statuses: []string{store.PolicyCancelled},
		})
		return err
	})
	return sig
}

type riskScore struct {
	overdue, upcoming, cancelled int
}

func (r riskScore) total() int {
	return r.overdue*3 + r.upcoming*2 + r.cancelled*2
}

func riskLabel(score int) string {
	if score >= riskThreshold {
		return "Riskli"
	}
	return "Normal"
}

func (s *Service) riskyCompanies(ctx context.Context, q *query) (Response, error) {
	g, gctx := errgroup.WithContext(ctx)
	var companies []store.Company
	g.Go(func() error {
		var err error
		companies, err = s.store.Companies(gctx, q.tenantID, store.CompanyQuery{Order: store.OrderNameAsc})
		return err
	})
	sig := s.loadRiskSignals(gctx, q, g)
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	scores := make(map[string]*riskScore, len(companies))
	for _, c := range companies {
		scores[c.ID] = &riskScore{}
	}
	for _, p := range sig.overdue {
		if sc, ok := scores[p.CompanyID]; ok {
			sc.overdue++
		}
	}
	for _, p := range sig.upcoming {
		if sc, ok := scores[p.CompanyID]; ok {
			sc.upcoming++
		}
	}
	for _, p := range sig.cancelled {
		if sc, ok := scores[p.CompanyID]; ok {
			sc.cancelled++
		}
	}

	ranked := make([]store.Company, 0, len(companies))
	for _, c := range companies {
		if scores[c.ID].total() > 0 {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID].total() > scores[ranked[j].ID].total()
	})
	if len(ranked) > listLimit {
		ranked = ranked[:listLimit]
	}

	table := newTable("Riskli Sirketler",
		col("company", "Sirket"),
		col("overdue", "Geciken odeme"),
		col("upcoming", "30 gunde biten police"),
		col("cancelled", "Iptal police"),
		col("score", "Risk skoru"),
		col("level", "Durum"))
	bars := newRanking()
	risky := 0
	for _, c := range ranked {
		sc := scores[c.ID]
		table.add(Row{
			"company":   c.Name,
			"overdue":   sc.overdue,
			"upcoming":  sc.upcoming,
			"cancelled": sc.cancelled,
			"score":     sc.total(),
			"level":     riskLabel(sc.total()),
		})
		if sc.total() >= riskThreshold {
			risky++
		}
		if bars.len() < topRiskyLimit {
			bars.add(c.ID, c.Name, float64(sc.total()))
		}
	}

	suggestions := []string{"Departman risk analizi", "Riskli calisanlar", "Geciken odemeler son 30 gun"}
	if len(ranked) == 0 {
		return respond("Risk sinyali olan sirket bulunamadi.", tables(table), nil, suggestions...), nil
	}
	return respond(
		fmt.Sprintf("%d sirketten %d tanesi riskli (skor >= %d). En yuksek skor: %s (%d).",
			len(companies), risky, riskThreshold, ranked[0].Name, scores[ranked[0].ID].total()),
		tables(table),
		charts(bars.chart("Risk Skoru En Yuksek Sirketler", ChartBar, "Risk skoru")),
		suggestions...), nil
}

func (s *Service) departmentRisk(ctx context.Context, q *query) (Response, error) {
	name := q.departmentName()

	g, gctx := errgroup.WithContext(ctx)
	var departments []store.Department
	g.Go(func() error {
		var err error
		departments, err = s.store.Departments(gctx, q.tenantID, store.DepartmentQuery{NameContains: name})
		return err
	})
	sig := s.loadRiskSignals(gctx, q, g)
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	table := newTable("Departman Risk Analizi",
		col("department", "Departman"),
		col("company", "Sirket"),
		col("overdue", "Geciken odeme"),
		col("upcoming", "30 gunde biten police"),
		col("cancelled", "Iptal police"),
		col("score", "Risk skoru"),
		col("level", "Durum"))
	suggestions := []string{"Riskli sirketler", "Riskli calisanlar"}
	if len(departments) == 0 {
		summary := "Departman kaydi bulunamadi."
		if name != "" {
			summary = fmt.Sprintf("'%s' ile eslesen departman bulunamadi.", name)
		}
		return respond(summary, tables(table), nil, suggestions...), nil
	}

	scores := make(map[string]*riskScore, len(departments))
	for _, d := range departments {
		scores[d.ID] = &riskScore{}
	}
	for _, p := range sig.overdue {
		if sc, ok := scores[p.DepartmentID]; ok {
			sc.overdue++
		}
	}
	for _, p := range sig.upcoming {
		if sc, ok := scores[p.DepartmentID]; ok {
			sc.upcoming++
		}
	}
	for _, p := range sig.cancelled {
		if sc, ok := scores[p.DepartmentID]; ok {
			sc.cancelled++
		}
	}

	ranked := append([]store.Department(nil), departments...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID].total() > scores[ranked[j].ID].total()
	})
	if len(ranked) > listLimit {
		ranked = ranked[:listLimit]
	}

	bars := newRanking()
	risky := 0
	for _, d := range ranked {
		sc := scores[d.ID]
		table.add(Row{
			"department": d.Name,
			"company":    d.CompanyName,
			"overdue":    sc.overdue,
			"upcoming":   sc.upcoming,
			"cancelled":  sc.cancelled,
			"score":      sc.total(),
			"level":      riskLabel(sc.total()),
		})
		if sc.total() >= riskThreshold {
			risky++
		}
		if bars.len() < topRiskyLimit {
			bars.add(d.ID, d.Name+" ("+d.CompanyName+")", float64(sc.total()))
		}
	}

	return respond(
		fmt.Sprintf("%d departmandan %d tanesi riskli (skor >= %d).", len(departments), risky, riskThreshold),
		tables(table),
		charts(bars.chart("Departman Risk Skorlari", ChartBar, "Risk skoru")),
		suggestions...), nil
}

type employeeRisk struct {
	id, name, company string
	count             int
	amount            float64
}

func (e *employeeRisk) score() int {
	return e.count*3 + int(math.Round(e.amount/1000))
}

func (s *Service) topRiskyEmployees(ctx context.Context, q *query) (Response, error) {
	overdue, err := s.store.Payments(ctx, q.tenantID, store.PaymentQuery{
		Statuses: unpaid,
		Due:      store.Before(q.now),
		Order:    store.OrderDueAsc,
	})
	if err != nil {
		return Response{}, err
	}

	var ranked []*employeeRisk
	byID := make(map[string]*employeeRisk)
	for _, p := range overdue {
		if p.EmployeeID == "" {
			continue
		}
		e, ok := byID[p.EmployeeID]
		if !ok {
			e = &employeeRisk{id: p.EmployeeID, name: p.EmployeeName, company: p.CompanyName}
			byID[p.EmployeeID] = e
			ranked = append(ranked, e)
		}
		e.count++
		e.amount += p.Amount
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score() > ranked[j].score() })
	if len(ranked) > topRiskyLimit {
		ranked = ranked[:topRiskyLimit]
	}

	table := newTable("Riskli Calisanlar",
		col("rank", "Sira"),
		col("employee", "Calisan"),
		col("company", "Sirket"),
		col("overdueCount", "Geciken taksit"),
		col("overdueAmount", "Geciken tutar"),
		col("score", "Risk skoru"))
	bars := newRanking()
	for i, e := range ranked {
		table.add(Row{
			"rank":          i + 1,
			"employee":      e.name,
			"company":       e.company,
			"overdueCount":  e.count,
			"overdueAmount": round2(e.amount),
			"score":         e.score(),
		})
		bars.add(e.id, employeeLabel(e.name, e.company), float64(e.score()))
	}

	suggestions := []string{"Geciken odemeler son 30 gun", "Departman risk analizi"}
	if len(ranked) == 0 {
		return respond("Geciken odemesi olan calisan bulunamadi.", tables(table), nil, suggestions...), nil
	}
	return respond(
		fmt.Sprintf("Geciken odemesi olan en riskli %d calisan listelendi. En yuksek skor: %s (%d).",
			len(ranked), ranked[0].name, ranked[0].score()),
		tables(table),
		charts(bars.chart("Calisan Risk Skorlari", ChartBar, "Risk skoru")),
		suggestions...), nil
}

func employeeLabel(name, company string) string {
	if company == "" {
		return name
	}
	return name + " (" + company + ")"
}
