package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/corporate-insurance/insights/internal/store"
)

var livePolicies = []string{store.PolicyActive, store.PolicyPendingRenewal}

var policyStatusLabels = map[string]string{
	store.PolicyActive:         "Aktif",
	store.PolicyPendingRenewal: "Yenileme bekliyor",
	store.PolicyExpired:        "Suresi doldu",
	store.PolicyCancelled:      "Iptal",
}

var policyStatusOrder = []string{store.PolicyActive, store.PolicyPendingRenewal, store.PolicyExpired, store.PolicyCancelled}

func policyStatusLabel(s string) string {
	if l, ok := policyStatusLabels[s]; ok {
		return l
	}
	return s
}

// typeLabel translates a policy type code, falling back to the raw code.
func typeLabel(labels map[string]string, code string) string {
	if l, ok := labels[code]; ok && l != "" {
		return l
	}
	return code
}

func (s *Service) upcomingPolicies(ctx context.Context, q *query) (Response, error) {
	n := q.windowDays(30)
	until := q.now.Add(time.Duration(n) * day)

	policies, err := s.store.Policies(ctx, q.tenantID, store.PolicyQuery{
		Statuses: livePolicies,
		End:      store.Between(q.now, until),
		Order:    store.OrderEndAsc,
		Limit:    listLimit,
	})
	if err != nil {
		return Response{}, err
	}
	labels, err := s.store.PolicyTypeLabels(ctx, q.tenantID)
	if err != nil {
		return Response{}, err
	}

	table := newTable("Suresi Yaklasan Policeler",
		col("policyNumber", "Police No"),
		col("company", "Sirket"),
		col("employee", "Calisan"),
		col("type", "Tur"),
		col("endDate", "Bitis"),
		col("daysLeft", "Kalan gun"),
		col("premium", "Prim"),
		col("autoRenew", "Otomatik yenileme"))
	byDay := newSeries()
	for _, p := range policies {
		table.add(Row{
			"policyNumber": p.PolicyNumber,
			"company":      p.CompanyName,
			"employee":     orDash(p.EmployeeName),
			"type":         typeLabel(labels, p.Type),
			"endDate":      date(p.EndDate),
			"daysLeft":     daysBetween(q.now, p.EndDate),
			"premium":      round2(p.Premium),
			"autoRenew":    yesNo(p.AutoRenew),
		})
		byDay.add(date(p.EndDate), 1)
	}

	suggestions := []string{"Yenileme riski 60 gun", "Kurumsal police durumu"}
	if len(policies) == 0 {
		return respond(fmt.Sprintf("Onumuzdeki %d gunde suresi dolacak police yok.", n), tables(table), nil, suggestions...), nil
	}
	return respond(
		fmt.Sprintf("Onumuzdeki %d gunde %d policenin suresi doluyor.", n, len(policies)),
		tables(table),
		charts(byDay.chart("Bitis Tarihine Gore Policeler", ChartBar, "Police sayisi")),
		suggestions...), nil
}

const (
	riskHigh   = "Yuksek"
	riskMedium = "Orta"
	riskLow    = "Dusuk"
)

func renewalLevel(daysLeft int) string {
	switch {
	case daysLeft <= 15:
		return riskHigh
	case daysLeft <= 30:
		return riskMedium
	default:
		return riskLow
	}
}

func (s *Service) renewalRisk(ctx context.Context, q *query) (Response, error) {
	n := q.windowDays(60)
	until := q.now.Add(time.Duration(n) * day)
	manual := false

	policies, err := s.store.Policies(ctx, q.tenantID, store.PolicyQuery{
		Statuses:  livePolicies,
		End:       store.Between(q.now, until),
		AutoRenew: &manual,
		Order:     store.OrderEndAsc,
		Limit:     listLimit,
	})
	if err != nil {
		return Response{}, err
	}

	table := newTable("Yenileme Riski",
		col("policyNumber", "Police No"),
		col("company", "Sirket"),
		col("employee", "Calisan"),
		col("endDate", "Bitis"),
		col("daysLeft", "Kalan gun"),
		col("premium", "Prim"),
		col("level", "Risk"))
	levels := newSeries(riskHigh, riskMedium, riskLow)
	var premium float64
	for _, p := range policies {
		left := daysBetween(q.now, p.EndDate)
		level := renewalLevel(left)
		table.add(Row{
			"policyNumber": p.PolicyNumber,
			"company":      p.CompanyName,
			"employee":     orDash(p.EmployeeName),
			"endDate":      date(p.EndDate),
			"daysLeft":     left,
			"premium":      round2(p.Premium),
			"level":        level,
		})
		levels.add(level, 1)
		premium += p.Premium
	}

	summary := fmt.Sprintf("Onumuzdeki %d gunde otomatik yenilenmeyen police yok.", n)
	if len(policies) > 0 {
		summary = fmt.Sprintf("%d police %d gun icinde otomatik yenilenmeden bitiyor (%d yuksek riskli), risk altindaki prim %s TL.",
			len(policies), n, int(levels.get(riskHigh)), money(premium))
	}
	chart := levels.chart("Risk Seviyeleri", ChartDoughnut, "Police sayisi")
	chart.Datasets[0].Colors = []string{"#dc2626", "#f59e0b", "#16a34a"}
	return respond(summary, tables(table), charts(chart),
		"Suresi yaklasan policeler 30 gun", "Riskli sirketler"), nil
}

func (s *Service) policyTypeDistribution(ctx context.Context, q *query) (Response, error) {
	groups, err := s.store.GroupCount(ctx, q.tenantID, store.PoliciesByType, store.TimeRange{})
	if err != nil {
		return Response{}, err
	}
	labels, err := s.store.PolicyTypeLabels(ctx, q.tenantID)
	if err != nil {
		return Response{}, err
	}

	filter := q.policyType()
	if filter == "" {
		filter = mentionedPolicyType(q.prompt, groups, labels)
	}
	if filter != "" {
		kept := groups[:0:0]
		for _, g := range groups {
			if strings.EqualFold(g.Key, filter) || Normalize(typeLabel(labels, g.Key)) == Normalize(filter) {
				kept = append(kept, g)
			}
		}
		groups = kept
	}

	table := newTable("Police Turu Dagilimi",
		col("type", "Tur kodu"),
		col("label", "Tur"),
		col("count", "Police sayisi"),
		col("premium", "Toplam prim"),
		col("share", "Pay (%)"))
	var total int
	for _, g := range groups {
		total += g.Count
	}
	bars := newRanking()
	for _, g := range groups {
		table.add(Row{
			"type":    g.Key,
			"label":   typeLabel(labels, g.Key),
			"count":   g.Count,
			"premium": round2(g.Sum),
			"share":   percent(float64(g.Count), float64(total)),
		})
		bars.add(g.Key, typeLabel(labels, g.Key), float64(g.Count))
	}

	suggestions := []string{"Police durum ozeti", "Prim trendi son 12 ay"}
	if len(groups) == 0 {
		return respond("Eslesen police turu bulunamadi.", tables(table), nil, suggestions...), nil
	}
	return respond(
		fmt.Sprintf("%d turde toplam %d police var.", len(groups), total),
		tables(table),
		charts(bars.chart("Police Turleri", ChartDoughnut, "Police sayisi")),
		suggestions...), nil
}

// mentionedPolicyType returns the code of a policy type whose code or label
// appears in the prompt.
func mentionedPolicyType(prompt string, groups []store.Group, labels map[string]string) string {
	text := " " + Normalize(prompt) + " "
	for _, g := range groups {
		if strings.Contains(text, " "+Normalize(g.Key)+" ") {
			return g.Key
		}
		if l, ok := labels[g.Key]; ok && l != "" && strings.Contains(text, Normalize(l)) {
			return g.Key
		}
	}
	return ""
}

func (s *Service) policyStatusSummary(ctx context.Context, q *query) (Response, error) {
	groups, err := s.store.GroupCount(ctx, q.tenantID, store.PoliciesByStatus, store.TimeRange{})
	if err != nil {
		return Response{}, err
	}

	counts, premiums := newSeries(policyStatusOrder...), newSeries(policyStatusOrder...)
	var total float64
	for _, g := range groups {
		counts.add(g.Key, float64(g.Count))
		premiums.add(g.Key, g.Sum)
		total += float64(g.Count)
	}

	table := newTable("Police Durum Ozeti",
		col("status", "Durum"),
		col("count", "Police sayisi"),
		col("premium", "Toplam prim"),
		col("share", "Pay (%)"))
	labels := make([]string, 0, counts.len())
	for _, st := range counts.labels {
		table.add(Row{
			"status":  policyStatusLabel(st),
			"count":   int(counts.get(st)),
			"premium": round2(premiums.get(st)),
			"share":   percent(counts.get(st), total),
		})
		labels = append(labels, policyStatusLabel(st))
	}

	summary := "Henuz police yok."
	if total > 0 {
		summary = fmt.Sprintf("Toplam %d policenin %d tanesi aktif, %d tanesi yenileme bekliyor.",
			int(total), int(counts.get(store.PolicyActive)), int(counts.get(store.PolicyPendingRenewal)))
	}
	chart := newChart("Police Durumlari", ChartDoughnut, labels,
		Dataset{Label: "Police sayisi", Data: append([]float64(nil), counts.values...)})
	return respond(summary, tables(table), charts(chart),
		"Police turu dagilimi", "Suresi yaklasan policeler 30 gun"), nil
}

var corporateStatusOrder = []string{
	store.CorporatePending, store.CorporateActive, store.CorporateSuspended, store.CorporateExpired, store.CorporateCancelled,
}

var corporateStatusLabels = map[string]string{
	store.CorporatePending:   "Onay bekliyor",
	store.CorporateActive:    "Aktif",
	store.CorporateSuspended: "Askida",
	store.CorporateExpired:   "Suresi doldu",
	store.CorporateCancelled: "Iptal",
}

func (s *Service) corporatePolicyPipeline(ctx context.Context, q *query) (Response, error) {
	n := q.windowDays(30)

	groups, err := s.store.GroupCount(ctx, q.tenantID, store.CorporatePoliciesByStatus, store.TimeRange{})
	if err != nil {
		return Response{}, err
	}
	expiring, err := s.store.CorporatePolicies(ctx, q.tenantID, store.CorporatePolicyQuery{
		Statuses: []string{store.CorporateActive},
		End:      store.Between(q.now, q.now.Add(time.Duration(n)*day)),
		Order:    store.OrderEndAsc,
		Limit:    listLimit,
	})
	if err != nil {
		return Response{}, err
	}

	counts := newSeries(corporateStatusOrder...)
	var total int
	for _, g := range groups {
		counts.add(g.Key, float64(g.Count))
		total += g.Count
	}

	pipeline := newTable("Kurumsal Police Hatti",
		col("status", "Durum"),
		col("count", "Police sayisi"))
	labels := make([]string, 0, counts.len())
	for _, st := range counts.labels {
		label := st
		if l, ok := corporateStatusLabels[st]; ok {
			label = l
		}
		pipeline.add(Row{"status": label, "count": int(counts.get(st))})
		labels = append(labels, label)
	}

	soon := newTable("Suresi Yaklasan Kurumsal Policeler",
		col("company", "Sirket"),
		col("endDate", "Bitis"),
		col("daysLeft", "Kalan gun"))
	for _, cp := range expiring {
		soon.add(Row{
			"company":  cp.CompanyName,
			"endDate":  nullableDate(cp.EndDate),
			"daysLeft": daysBetween(q.now, *cp.EndDate),
		})
	}

	summary := "Kurumsal police kaydi yok."
	if total > 0 {
		summary = fmt.Sprintf("%d kurumsal policeden %d aktif, %d onay bekliyor; %d tanesinin suresi %d gun icinde doluyor.",
			total, int(counts.get(store.CorporateActive)), int(counts.get(store.CorporatePending)), len(expiring), n)
	}
	chart := newChart("Kurumsal Police Durumlari", ChartBar, labels,
		Dataset{Label: "Police sayisi", Data: append([]float64(nil), counts.values...)})
	return respond(summary, tables(pipeline, soon), charts(chart),
		"Basvuru hunisi", "Bekleyen basvurular"), nil
}
