package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		prompt string
		want   Intent
	}{
		{"son 30 gun odeme gecikmeleri", IntentOverduePayments},
		{"Gecikmiş ödemeler son 30 gün", IntentOverduePayments},
		{"suresi yaklasan policeler", IntentUpcomingPolicies},
		{"riskli sirketler", IntentRiskyCompanies},
		{"Acme sirketi hakkinda bilgi", IntentCompanyInfo},
		{"Ayse Yilmaz personel bilgisi", IntentEmployeeInfo},
		{"departman risk analizi", IntentDepartmentRisk},
		{"poliçe türü dağılımı", IntentPolicyTypeDistribution},
		{"beklenen tahsilat tahmini", IntentCollectionForecast},
		{"en cok odeme yapan sirketler", IntentTopPayingCompanies},
		{"top paying companies", IntentTopPayingCompanies},
		{"bekleyen başvurular", IntentPendingApplications},
		{"destek talepleri yogunlugu", IntentSupportHotspots},
		{"Acme ve Globex sirketlerini karsilastir", IntentCompanyCompare},
		{"odeme hatirlatmalari", IntentPaymentReminders},
		{"yenileme riski olan policeler", IntentRenewalRisk},
		{"odeme yaslandirma raporu", IntentPaymentsAging},
		{"son aktiviteler", IntentActivityFeed},
		{"police durum ozeti", IntentPolicyStatusSummary},
		{"basvuru hunisi", IntentApplicationsFunnel},
		{"kurumsal police durumu", IntentCorporatePolicyPipeline},
		{"toplu yukleme islemleri", IntentBulkOperations},
		{"odeme sagligi", IntentPaymentHealth},
		{"aylik prim trendi", IntentPremiumTrend},
		{"buyume trendi", IntentGrowthTrends},
		{"riskli calisanlari goster", IntentTopRiskyEmployees},
		{"son eklenen kayitlar", IntentRecentEntities},
		{"genel istatistikler", IntentGlobalStats},
		{"merhaba", IntentGeneral},
		{"", IntentGeneral},
	}
	for _, tc := range cases {
		t.Run(tc.prompt, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.prompt))
		})
	}
}

func TestClassifyRiskAndEmployeeAlwaysTopRiskyEmployees(t *testing.T) {
	risks := []string{"risk", "riskli", "RİSKLİ", "risk skoru"}
	people := []string{"calisan", "çalışanlar", "personel", "employee", "PERSONELLER"}
	extras := []string{"", "sirket", "odeme gecikmesi", "bilgi", "firma bazinda"}
	for _, r := range risks {
		for _, p := range people {
			for _, x := range extras {
				assert.Equal(t, IntentTopRiskyEmployees, Classify(r+" "+p+" "+x), "%s %s %s", r, p, x)
				assert.Equal(t, IntentTopRiskyEmployees, Classify(x+" "+p+" "+r), "%s %s %s", x, p, r)
			}
		}
	}
}

func TestClassifyCompoundRulesBeatSingleKeywords(t *testing.T) {
	assert.Equal(t, IntentCorporatePolicyPipeline, Classify("kurumsal policeler"))
	assert.Equal(t, IntentUpcomingPolicies, Classify("policeler"))
	assert.Equal(t, IntentBulkOperations, Classify("toplu odeme yuklemeleri"))
}

func TestRulesOnlyNameKnownIntents(t *testing.T) {
	seen := map[Intent]bool{}
	for _, r := range rules {
		assert.True(t, r.intent.Known())
		seen[r.intent] = true
	}
	// every intent except general is reachable by some rule
	for _, in := range Intents {
		if in != IntentGeneral {
			assert.True(t, seen[in], string(in))
		}
	}
	assert.Len(t, Intents, 27)
}
