package assistant

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corporate-insurance/insights/internal/store"
)

const monthKey = "2006-01"

// monthSeries returns the keys of the n calendar months ending with the
// month of now, oldest first, and the instant the first month starts.
func monthSeries(now time.Time, n int) ([]string, time.Time) {
	y, m, _ := now.UTC().Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	keys := make([]string, n)
	for i := range keys {
		keys[i] = first.AddDate(0, i, 0).Format(monthKey)
	}
	return keys, first
}

func (s *Service) premiumTrend(ctx context.Context, q *query) (Response, error) {
	months, first := monthSeries(q.now, 12)

	policies, err := s.store.Policies(ctx, q.tenantID, store.PolicyQuery{Start: store.Between(first, q.now)})
	if err != nil {
		return Response{}, err
	}

	premiums, counts := newSeries(months...), newSeries(months...)
	var total float64
	for _, p := range policies {
		key := p.StartDate.UTC().Format(monthKey)
		premiums.addExisting(key, p.Premium)
		counts.addExisting(key, 1)
		total += p.Premium
	}

	table := newTable("Aylik Prim Trendi",
		col("month", "Ay"),
		col("policies", "Yeni police"),
		col("premium", "Prim"))
	for _, mk := range months {
		table.add(Row{"month": mk, "policies": int(counts.get(mk)), "premium": round2(premiums.get(mk))})
	}

	summary := "Son 12 ayda baslayan police yok."
	if len(policies) > 0 {
		last, prev := premiums.get(months[11]), premiums.get(months[10])
		summary = fmt.Sprintf("Son 12 ayda %d policeden toplam %s TL prim uretildi. Bu ay %s TL, gecen ay %s TL.",
			len(policies), money(total), money(last), money(prev))
	}
	chart := newChart("Aylik Prim", ChartLine, months,
		Dataset{Label: "Prim", Data: roundAll(premiums.values)})
	return respond(summary, tables(table), charts(chart),
		"Buyume trendi son 6 ay", "Police turu dagilimi"), nil
}

func (s *Service) growthTrends(ctx context.Context, q *query) (Response, error) {
	months, first := monthSeries(q.now, 6)
	created := store.Between(first, q.now)

	var (
		companies []store.Company
		employees []store.Employee
		policies  []store.Policy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		companies, err = s.store.Companies(gctx, q.tenantID, store.CompanyQuery{Created: created})
		return err
	})
	g.Go(func() error {
		var err error
		employees, err = s.store.Employees(gctx, q.tenantID, store.EmployeeQuery{Created: created})
		return err
	})
	g.Go(func() error {
		var err error
		policies, err = s.store.Policies(gctx, q.tenantID, store.PolicyQuery{Created: created})
		return err
	})
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	cs, es, ps := newSeries(months...), newSeries(months...), newSeries(months...)
	for _, c := range companies {
		cs.addExisting(c.CreatedAt.Format(monthKey), 1)
	}
	for _, e := range employees {
		es.addExisting(e.CreatedAt.Format(monthKey), 1)
	}
	for _, p := range policies {
		ps.addExisting(p.CreatedAt.Format(monthKey), 1)
	}

	table := newTable("Buyume Trendi",
		col("month", "Ay"),
		col("companies", "Yeni sirket"),
		col("employees", "Yeni calisan"),
		col("policies", "Yeni police"))
	for _, mk := range months {
		table.add(Row{
			"month":     mk,
			"companies": int(cs.get(mk)),
			"employees": int(es.get(mk)),
			"policies":  int(ps.get(mk)),
		})
	}

	summary := fmt.Sprintf("Son 6 ayda %d yeni sirket, %d yeni calisan ve %d yeni police eklendi.",
		len(companies), len(employees), len(policies))
	chart := newChart("Aylik Buyume", ChartLine, months,
		Dataset{Label: "Sirket", Data: append([]float64(nil), cs.values...)},
		Dataset{Label: "Calisan", Data: append([]float64(nil), es.values...)},
		Dataset{Label: "Police", Data: append([]float64(nil), ps.values...)})
	return respond(summary, tables(table), charts(chart),
		"Prim trendi son 12 ay", "Son eklenen kayitlar"), nil
}
