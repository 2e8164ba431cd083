package assistant

import "strings"

// rule maps a predicate over the normalized prompt to an intent.
type rule struct {
	intent Intent
	match  func(text string, words []string) bool
}

// rules is evaluated top to bottom and the first match wins. Compound
// conditions come before the single keyword fallbacks that share their
// vocabulary, so reordering entries changes routing.
var rules = []rule{
	{IntentTopRiskyEmployees, all(has("risk"), has("calisan", "personel", "employee"))},
	{IntentCompanyCompare, has("karsilastir", "kiyasla", " vs ", "compare")},
	{IntentDepartmentRisk, all(has("risk"), has("departman", "bolum", "department"))},
	{IntentCorporatePolicyPipeline, all(has("kurumsal", "corporate"), has("police", "policy"))},
	{IntentRenewalRisk, all(has("yenileme", "renewal"), has("risk"))},
	{IntentPaymentReminders, has("hatirlat", "reminder")},
	{IntentPaymentsAging, has("yaslandirma", "aging")},
	{IntentCollectionForecast, either(all(has("tahsilat"), has("tahmin", "beklenen")), has("forecast"))},
	{IntentPaymentHealth, all(has("odeme", "payment"), has("saglik", "health", "durum"))},
	{IntentOverduePayments, has("gecik", "overdue", "vadesi gecmis")},
	{IntentTopPayingCompanies, all(either(has("en cok"), hasWord("top")), has("odeme", "oden", "prim", "paying", "tahsilat"))},
	{IntentPremiumTrend, all(has("prim", "premium"), has("trend", "aylik", "monthly"))},
	{IntentGrowthTrends, has("buyume", "growth", "trend")},
	{IntentPolicyTypeDistribution, all(has("police", "policy"), has("tur", "tip", "dagilim", "type"))},
	{IntentPolicyStatusSummary, all(has("police", "policy"), has("durum", "status", "ozet"))},
	{IntentApplicationsFunnel, all(has("basvuru", "application"), has("huni", "funnel", "donusum"))},
	{IntentPendingApplications, has("basvuru", "application")},
	{IntentSupportHotspots, has("destek", "talep", "ticket", "support")},
	{IntentBulkOperations, has("toplu", "bulk", "yukleme")},
	{IntentActivityFeed, has("aktivite", "etkinlik", "activity", "son islemler")},
	{IntentRecentEntities, has("son eklenen", "yeni eklenen", "recent")},
	{IntentRiskyCompanies, has("risk")},
	{IntentEmployeeInfo, has("calisan", "personel", "employee")},
	{IntentCompanyInfo, has("sirket", "firma", "company")},
	{IntentUpcomingPolicies, has("police", "policy", "yaklasan", "bitecek", "suresi dolan")},
	{IntentGlobalStats, has("genel", "istatistik", "ozet", "stats", "dashboard")},
}

// Classify maps a prompt to an intent with the ordered keyword rules,
// defaulting to general.
func Classify(prompt string) Intent {
	text := Normalize(prompt)
	if text == "" {
		return IntentGeneral
	}
	// padded so " vs " also matches at the edges
	padded := " " + text + " "
	words := strings.Fields(text)
	for _, r := range rules {
		if r.match(padded, words) {
			return r.intent
		}
	}
	return IntentGeneral
}

func has(subs ...string) func(string, []string) bool {
	return func(text string, _ []string) bool {
		for _, s := range subs {
			if strings.Contains(text, s) {
				return true
			}
		}
		return false
	}
}

func hasWord(ws ...string) func(string, []string) bool {
	return func(_ string, words []string) bool {
		for _, w := range words {
			for _, want := range ws {
				if w == want {
					return true
				}
			}
		}
		return false
	}
}

func all(preds ...func(string, []string) bool) func(string, []string) bool {
	return func(text string, words []string) bool {
		for _, p := range preds {
			if !p(text, words) {
				return false
			}
		}
		return true
	}
}

func either(preds ...func(string, []string) bool) func(string, []string) bool {
	return func(text string, words []string) bool {
		for _, p := range preds {
			if p(text, words) {
				return true
			}
		}
		return false
	}
}
