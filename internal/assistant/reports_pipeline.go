package assistant

import (
	"context"
	"fmt"
	"sort"

	"github.com/corporate-insurance/insights/internal/store"
)

var applicationFunnelOrder = []string{
	store.ApplicationSubmitted,
	store.ApplicationInReview,
	store.ApplicationNeedsInfo,
	store.ApplicationApproved,
	store.ApplicationActive,
	store.ApplicationRejected,
}

var applicationStatusLabels = map[string]string{
	store.ApplicationSubmitted: "Gonderildi",
	store.ApplicationInReview:  "Incelemede",
	store.ApplicationNeedsInfo: "Bilgi bekleniyor",
	store.ApplicationApproved:  "Onaylandi",
	store.ApplicationActive:    "Aktif",
	store.ApplicationRejected:  "Reddedildi",
}

var openApplications = []string{store.ApplicationSubmitted, store.ApplicationInReview, store.ApplicationNeedsInfo}

func applicationStatusLabel(s string) string {
	if l, ok := applicationStatusLabels[s]; ok {
		return l
	}
	return s
}

func (s *Service) pendingApplications(ctx context.Context, q *query) (Response, error) {
	apps, err := s.store.Applications(ctx, q.tenantID, store.ApplicationQuery{
		Statuses: openApplications,
		Order:    store.OrderCreatedAsc,
		Limit:    listLimit,
	})
	if err != nil {
		return Response{}, err
	}

	table := newTable("Bekleyen Basvurular",
		col("company", "Sirket"),
		col("package", "Paket"),
		col("carrier", "Sigorta sirketi"),
		col("status", "Durum"),
		col("createdAt", "Basvuru tarihi"),
		col("ageDays", "Bekleme (gun)"))
	byStatus := newSeries(openApplications...)
	for _, a := range apps {
		table.add(Row{
			"company":   orDash(a.CompanyName),
			"package":   orDash(a.PackageName),
			"carrier":   orDash(a.CarrierName),
			"status":    applicationStatusLabel(a.Status),
			"createdAt": date(a.CreatedAt),
			"ageDays":   daysBetween(a.CreatedAt, q.now),
		})
		byStatus.add(a.Status, 1)
	}

	labels := make([]string, len(byStatus.labels))
	for i, st := range byStatus.labels {
		labels[i] = applicationStatusLabel(st)
	}
	chart := newChart("Bekleyen Basvuru Durumlari", ChartBar, labels,
		Dataset{Label: "Basvuru sayisi", Data: append([]float64(nil), byStatus.values...)})

	suggestions := []string{"Basvuru hunisi", "Kurumsal police durumu"}
	if len(apps) == 0 {
		return respond("Bekleyen basvuru yok.", tables(table), charts(chart), suggestions...), nil
	}
	return respond(
		fmt.Sprintf("%d basvuru islem bekliyor, en eskisi %d gundur bekliyor.", len(apps), daysBetween(apps[0].CreatedAt, q.now)),
		tables(table), charts(chart), suggestions...), nil
}

func (s *Service) applicationsFunnel(ctx context.Context, q *query) (Response, error) {
	groups, err := s.store.GroupCount(ctx, q.tenantID, store.ApplicationsByStatus, store.TimeRange{})
	if err != nil {
		return Response{}, err
	}

	counts := newSeries(applicationFunnelOrder...)
	var total float64
	for _, g := range groups {
		counts.add(g.Key, float64(g.Count))
		total += float64(g.Count)
	}
	converted := counts.get(store.ApplicationApproved) + counts.get(store.ApplicationActive)

	table := newTable("Basvuru Hunisi",
		col("status", "Asama"),
		col("count", "Basvuru sayisi"),
		col("share", "Pay (%)"))
	labels := make([]string, len(counts.labels))
	for i, st := range counts.labels {
		labels[i] = applicationStatusLabel(st)
		table.add(Row{
			"status": labels[i],
			"count":  int(counts.get(st)),
			"share":  percent(counts.get(st), total),
		})
	}

	summary := "Henuz basvuru yok."
	if total > 0 {
		summary = fmt.Sprintf("%d basvurunun donusum orani %%%.2f, red orani %%%.2f.",
			int(total), percent(converted, total), percent(counts.get(store.ApplicationRejected), total))
	}
	chart := newChart("Basvuru Hunisi", ChartBar, labels,
		Dataset{Label: "Basvuru sayisi", Data: append([]float64(nil), counts.values...)})
	return respond(summary, tables(table), charts(chart),
		"Bekleyen basvurular", "Kurumsal police durumu"), nil
}

func (s *Service) supportHotspots(ctx context.Context, q *query) (Response, error) {
	from, to := q.dateRange(30)

	tickets, err := s.store.SupportTickets(ctx, q.tenantID, store.TicketQuery{Created: store.Between(from, to)})
	if err != nil {
		return Response{}, err
	}

	type hotspot struct {
		category    string
		total, open int
	}
	var spots []*hotspot
	byCategory := make(map[string]*hotspot)
	openTotal := 0
	for _, t := range tickets {
		h, ok := byCategory[t.Category]
		if !ok {
			h = &hotspot{category: t.Category}
			byCategory[t.Category] = h
			spots = append(spots, h)
		}
		h.total++
		if t.Open() {
			h.open++
			openTotal++
		}
	}
	sort.SliceStable(spots, func(i, j int) bool { return spots[i].total > spots[j].total })

	table := newTable("Destek Yogunlugu",
		col("category", "Kategori"),
		col("total", "Talep sayisi"),
		col("open", "Acik"),
		col("share", "Pay (%)"))
	labels := make([]string, 0, len(spots))
	totals := make([]float64, 0, len(spots))
	opens := make([]float64, 0, len(spots))
	for _, h := range spots {
		table.add(Row{
			"category": h.category,
			"total":    h.total,
			"open":     h.open,
			"share":    percent(float64(h.total), float64(len(tickets))),
		})
		labels = append(labels, h.category)
		totals = append(totals, float64(h.total))
		opens = append(opens, float64(h.open))
	}

	suggestions := []string{"Son aktiviteler", "Genel istatistikler"}
	if len(tickets) == 0 {
		return respond(fmt.Sprintf("%s - %s arasinda destek talebi yok.", date(from), date(to)), tables(table), nil, suggestions...), nil
	}
	chart := newChart("Kategori Bazinda Talepler", ChartBar, labels,
		Dataset{Label: "Toplam", Data: totals},
		Dataset{Label: "Acik", Data: opens})
	return respond(
		fmt.Sprintf("%s - %s arasinda %d destek talebi acildi, %d tanesi hala acik. En yogun kategori: %s.",
			date(from), date(to), len(tickets), openTotal, spots[0].category),
		tables(table), charts(chart), suggestions...), nil
}

func (s *Service) bulkOperations(ctx context.Context, q *query) (Response, error) {
	ops, err := s.store.BulkOperations(ctx, q.tenantID, store.BulkOperationQuery{Limit: 20})
	if err != nil {
		return Response{}, err
	}
	groups, err := s.store.GroupCount(ctx, q.tenantID, store.BulkOperationsByStatus, store.TimeRange{})
	if err != nil {
		return Response{}, err
	}
	types, err := s.store.GroupCount(ctx, q.tenantID, store.BulkOperationsByType, store.TimeRange{})
	if err != nil {
		return Response{}, err
	}

	table := newTable("Toplu Islemler",
		col("type", "Islem"),
		col("status", "Durum"),
		col("totalRows", "Toplam satir"),
		col("successRows", "Basarili"),
		col("failedRows", "Hatali"),
		col("createdAt", "Baslangic"),
		col("completedAt", "Bitis"))
	var failed, rows int
	for _, op := range ops {
		table.add(Row{
			"type":        op.Type,
			"status":      op.Status,
			"totalRows":   op.TotalRows,
			"successRows": op.SuccessRows,
			"failedRows":  op.FailedRows,
			"createdAt":   date(op.CreatedAt),
			"completedAt": nullableDate(op.CompletedAt),
		})
		failed += op.FailedRows
		rows += op.TotalRows
	}

	byType := newTable("Islem Turleri",
		col("type", "Islem"),
		col("count", "Islem sayisi"),
		col("rows", "Toplam satir"))
	for _, g := range types {
		byType.add(Row{"type": g.Key, "count": g.Count, "rows": int(g.Sum)})
	}

	statuses := newSeries()
	for _, g := range groups {
		statuses.add(g.Key, float64(g.Count))
	}

	suggestions := []string{"Son aktiviteler", "Son eklenen kayitlar"}
	if len(ops) == 0 {
		return respond("Toplu islem kaydi yok.", tables(table, byType), nil, suggestions...), nil
	}
	return respond(
		fmt.Sprintf("Son %d toplu islemde %d satirdan %d tanesi hatali.", len(ops), rows, failed),
		tables(table, byType),
		charts(statuses.chart("Toplu Islem Durumlari", ChartDoughnut, "Islem sayisi")),
		suggestions...), nil
}
