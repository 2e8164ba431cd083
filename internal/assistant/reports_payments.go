package assistant

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/corporate-insurance/insights/internal/store"
)

const listLimit = 200

var unpaid = []string{store.PaymentPending, store.PaymentOverdue}

var paymentStatusLabels = map[string]string{
	store.PaymentPending: "Bekliyor",
	store.PaymentPaid:    "Odendi",
	store.PaymentOverdue: "Gecikmis",
}

func paymentStatusLabel(s string) string {
	if l, ok := paymentStatusLabels[s]; ok {
		return l
	}
	return s
}

func (s *Service) overduePayments(ctx context.Context, q *query) (Response, error) {
	from, to := q.dateRange(30)
	if to.After(q.now) {
		to = q.now
	}

	payments, err := s.store.Payments(ctx, q.tenantID, store.PaymentQuery{
		Statuses: unpaid,
		Due:      store.Between(from, to),
		Order:    store.OrderDueAsc,
		Limit:    listLimit,
	})
	if err != nil {
		return Response{}, err
	}

	table := newTable("Geciken Odemeler",
		col("policyNumber", "Police No"),
		col("company", "Sirket"),
		col("employee", "Calisan"),
		col("installment", "Taksit"),
		col("amount", "Tutar"),
		col("dueDate", "Vade"),
		col("daysOverdue", "Gecikme (gun)"),
		col("status", "Durum"))
	byCompany := newRanking()
	var total float64
	for _, p := range payments {
		table.add(Row{
			"policyNumber": p.PolicyNumber,
			"company":      p.CompanyName,
			"employee":     orDash(p.EmployeeName),
			"installment":  p.Installment,
			"amount":       round2(p.Amount),
			"dueDate":      date(p.DueDate),
			"daysOverdue":  daysBetween(p.DueDate, q.now),
			"status":       paymentStatusLabel(p.Status),
		})
		byCompany.add(p.CompanyID, p.CompanyName, 1)
		total += p.Amount
	}

	suggestions := []string{"Odeme yaslandirma raporu", "Gecikmesi en yuksek riskli calisanlar", "Odeme hatirlatmalari 7 gun"}
	if len(payments) == 0 {
		return respond(fmt.Sprintf("%s - %s arasinda geciken odeme bulunamadi.", date(from), date(to)),
			tables(table), nil, suggestions...), nil
	}
	return respond(
		fmt.Sprintf("%s - %s arasinda %d geciken odeme var, toplam %s TL.", date(from), date(to), len(payments), money(total)),
		tables(table),
		charts(byCompany.chart("Sirket Bazinda Geciken Odemeler", ChartBar, "Odeme sayisi")),
		suggestions...), nil
}

func (s *Service) paymentReminders(ctx context.Context, q *query) (Response, error) {
	n := q.windowDays(7)
	until := q.now.Add(time.Duration(n) * day)

	payments, err := s.store.Payments(ctx, q.tenantID, store.PaymentQuery{
		Statuses: []string{store.PaymentPending},
		Due:      store.Between(q.now, until),
		Order:    store.OrderDueAsc,
		Limit:    listLimit,
	})
	if err != nil {
		return Response{}, err
	}

	table := newTable("Odeme Hatirlatmalari",
		col("policyNumber", "Police No"),
		col("company", "Sirket"),
		col("employee", "Calisan"),
		col("amount", "Tutar"),
		col("dueDate", "Vade"),
		col("daysLeft", "Kalan gun"))
	byDay := newSeries()
	var total float64
	for _, p := range payments {
		table.add(Row{
			"policyNumber": p.PolicyNumber,
			"company":      p.CompanyName,
			"employee":     orDash(p.EmployeeName),
			"amount":       round2(p.Amount),
			"dueDate":      date(p.DueDate),
			"daysLeft":     daysBetween(q.now, p.DueDate),
		})
		byDay.add(date(p.DueDate), 1)
		total += p.Amount
	}

	suggestions := []string{"Geciken odemeler son 30 gun", "Tahsilat tahmini 30 gun"}
	if len(payments) == 0 {
		return respond(fmt.Sprintf("Onumuzdeki %d gunde vadesi gelen bekleyen odeme yok.", n), tables(table), nil, suggestions...), nil
	}
	return respond(
		fmt.Sprintf("Onumuzdeki %d gunde %d odeme icin hatirlatma gonderilmeli, toplam %s TL.", n, len(payments), money(total)),
		tables(table),
		charts(byDay.chart("Vade Gunune Gore Hatirlatmalar", ChartBar, "Odeme sayisi")),
		suggestions...), nil
}

type agingBucket struct {
	label    string
	min, max int
}

var agingBuckets = []agingBucket{
	{"0-7 gun", 0, 7},
	{"8-30 gun", 8, 30},
	{"31-60 gun", 31, 60},
	{"61+ gun", 61, -1},
}

func agingBucketOf(days int) string {
	for _, b := range agingBuckets {
		if days >= b.min && (b.max < 0 || days <= b.max) {
			return b.label
		}
	}
	return ""
}

func (s *Service) paymentsAging(ctx context.Context, q *query) (Response, error) {
	payments, err := s.store.Payments(ctx, q.tenantID, store.PaymentQuery{
		Statuses: unpaid,
		Due:      store.Before(q.now),
		Order:    store.OrderDueAsc,
	})
	if err != nil {
		return Response{}, err
	}

	labels := make([]string, len(agingBuckets))
	for i, b := range agingBuckets {
		labels[i] = b.label
	}
	counts, amounts := newSeries(labels...), newSeries(labels...)
	var total float64
	for _, p := range payments {
		bucket := agingBucketOf(daysBetween(p.DueDate, q.now))
		counts.addExisting(bucket, 1)
		amounts.addExisting(bucket, p.Amount)
		total += p.Amount
	}

	table := newTable("Odeme Yaslandirma",
		col("bucket", "Gecikme araligi"),
		col("count", "Odeme sayisi"),
		col("amount", "Tutar"),
		col("share", "Pay (%)"))
	for _, l := range labels {
		table.add(Row{
			"bucket": l,
			"count":  int(counts.get(l)),
			"amount": round2(amounts.get(l)),
			"share":  percent(amounts.get(l), total),
		})
	}

	summary := "Vadesi gecmis odenmemis taksit yok."
	if len(payments) > 0 {
		summary = fmt.Sprintf("%d vadesi gecmis taksit, toplam %s TL. En eski grupta %d taksit var.",
			len(payments), money(total), int(counts.get(labels[len(labels)-1])))
	}
	chart := newChart("Yaslandirma Dagilimi", ChartBar, labels,
		Dataset{Label: "Tutar", Data: roundAll(amounts.values)})
	return respond(summary, tables(table), charts(chart),
		"Geciken odemeler son 30 gun", "Riskli sirketler"), nil
}

func (s *Service) collectionForecast(ctx context.Context, q *query) (Response, error) {
	n := q.windowDays(30)
	until := q.now.Add(time.Duration(n) * day)

	payments, err := s.store.Payments(ctx, q.tenantID, store.PaymentQuery{
		Statuses: unpaid,
		Due:      store.Between(q.now, until),
		Order:    store.OrderDueAsc,
	})
	if err != nil {
		return Response{}, err
	}

	days := make([]string, 0, n+1)
	for d := startOfDay(q.now); !d.After(until); d = d.Add(day) {
		days = append(days, date(d))
	}
	amounts, counts := newSeries(days...), newSeries(days...)
	var total float64
	for _, p := range payments {
		amounts.addExisting(date(p.DueDate), p.Amount)
		counts.addExisting(date(p.DueDate), 1)
		total += p.Amount
	}

	table := newTable("Beklenen Tahsilat",
		col("date", "Tarih"),
		col("count", "Taksit sayisi"),
		col("amount", "Beklenen tutar"))
	for _, d := range days {
		if counts.get(d) == 0 {
			continue
		}
		table.add(Row{"date": d, "count": int(counts.get(d)), "amount": round2(amounts.get(d))})
	}

	summary := fmt.Sprintf("Onumuzdeki %d gunde beklenen tahsilat yok.", n)
	if len(payments) > 0 {
		summary = fmt.Sprintf("Onumuzdeki %d gunde %d taksitten toplam %s TL tahsilat bekleniyor.", n, len(payments), money(total))
	}
	chart := newChart("Gunluk Beklenen Tahsilat", ChartLine, days,
		Dataset{Label: "Tutar", Data: roundAll(amounts.values)})
	return respond(summary, tables(table), charts(chart),
		"Odeme hatirlatmalari 7 gun", "Odeme sagligi son 90 gun"), nil
}

func (s *Service) topPayingCompanies(ctx context.Context, q *query) (Response, error) {
	from, to := q.dateRange(365)

	payments, err := s.store.Payments(ctx, q.tenantID, store.PaymentQuery{
		Statuses: []string{store.PaymentPaid},
		Paid:     store.Between(from, to),
		Order:    store.OrderPaidDesc,
	})
	if err != nil {
		return Response{}, err
	}

	type payer struct {
		id     string
		name   string
		count  int
		amount float64
	}
	var payers []*payer
	byID := make(map[string]*payer)
	for _, p := range payments {
		pr, ok := byID[p.CompanyID]
		if !ok {
			pr = &payer{id: p.CompanyID, name: p.CompanyName}
			byID[p.CompanyID] = pr
			payers = append(payers, pr)
		}
		pr.count++
		pr.amount += p.Amount
	}
	sort.SliceStable(payers, func(i, j int) bool { return payers[i].amount > payers[j].amount })
	if len(payers) > 10 {
		payers = payers[:10]
	}

	table := newTable("En Cok Odeme Yapan Sirketler",
		col("rank", "Sira"),
		col("company", "Sirket"),
		col("payments", "Odeme sayisi"),
		col("amount", "Toplam tutar"))
	bars := newRanking()
	for i, pr := range payers {
		table.add(Row{"rank": i + 1, "company": pr.name, "payments": pr.count, "amount": round2(pr.amount)})
		bars.add(pr.id, pr.name, round2(pr.amount))
	}

	suggestions := []string{"Acme ve Globex karsilastir", "Prim trendi son 12 ay"}
	if len(payers) == 0 {
		return respond(fmt.Sprintf("%s - %s arasinda odenmis taksit bulunamadi.", date(from), date(to)),
			tables(table), nil, suggestions...), nil
	}
	return respond(
		fmt.Sprintf("%s - %s arasinda en cok odeme yapan sirket %s (%s TL).", date(from), date(to), payers[0].name, money(payers[0].amount)),
		tables(table),
		charts(bars.chart("Sirket Bazinda Odenen Tutar", ChartBar, "Tutar")),
		suggestions...), nil
}

func (s *Service) paymentHealth(ctx context.Context, q *query) (Response, error) {
	from, to := q.dateRange(90)

	groups, err := s.store.GroupCount(ctx, q.tenantID, store.PaymentsByStatus, store.Between(from, to))
	if err != nil {
		return Response{}, err
	}

	order := []string{store.PaymentPaid, store.PaymentPending, store.PaymentOverdue}
	counts, amounts := newSeries(order...), newSeries(order...)
	var totalCount, totalAmount float64
	for _, g := range groups {
		counts.add(g.Key, float64(g.Count))
		amounts.add(g.Key, g.Sum)
		totalCount += float64(g.Count)
		totalAmount += g.Sum
	}

	table := newTable("Odeme Sagligi",
		col("status", "Durum"),
		col("count", "Taksit sayisi"),
		col("amount", "Tutar"),
		col("share", "Pay (%)"))
	labels := make([]string, 0, counts.len())
	for _, st := range counts.labels {
		table.add(Row{
			"status": paymentStatusLabel(st),
			"count":  int(counts.get(st)),
			"amount": round2(amounts.get(st)),
			"share":  percent(counts.get(st), totalCount),
		})
		labels = append(labels, paymentStatusLabel(st))
	}

	summary := fmt.Sprintf("%s - %s arasinda vadesi gelen taksit yok.", date(from), date(to))
	if totalCount > 0 {
		summary = fmt.Sprintf("%s - %s arasinda %d taksitin tahsilat orani %%%.2f, gecikme orani %%%.2f.",
			date(from), date(to), int(totalCount),
			percent(amounts.get(store.PaymentPaid), totalAmount),
			percent(counts.get(store.PaymentOverdue), totalCount))
	}
	chart := newChart("Taksit Durumlari", ChartDoughnut, labels,
		Dataset{Label: "Taksit sayisi", Data: append([]float64(nil), counts.values...), Colors: statusColors(counts.labels)})
	return respond(summary, tables(table), charts(chart),
		"Odeme yaslandirma raporu", "Geciken odemeler son 30 gun"), nil
}

var palette = map[string]string{
	store.PaymentPaid:    "#16a34a",
	store.PaymentPending: "#f59e0b",
	store.PaymentOverdue: "#dc2626",
}

func statusColors(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if c, ok := palette[k]; ok {
			out[i] = c
		} else {
			out[i] = "#64748b"
		}
	}
	return out
}

func roundAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = round2(v)
	}
	return out
}
