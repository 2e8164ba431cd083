// Package assistant answers free-text admin analytics questions: it resolves
// a prompt to a report intent, extracts report parameters from the text and
// runs the matching tenant-scoped report.
package assistant

// Intent is the category of analytical question the assistant believes the
// operator asked.
type Intent string

const (
	IntentOverduePayments         Intent = "overdue_payments"
	IntentUpcomingPolicies        Intent = "upcoming_policies"
	IntentRiskyCompanies          Intent = "risky_companies"
	IntentCompanyInfo             Intent = "company_info"
	IntentEmployeeInfo            Intent = "employee_info"
	IntentDepartmentRisk          Intent = "department_risk"
	IntentPolicyTypeDistribution  Intent = "policy_type_distribution"
	IntentCollectionForecast      Intent = "collection_forecast"
	IntentTopPayingCompanies      Intent = "top_paying_companies"
	IntentPendingApplications     Intent = "pending_applications"
	IntentSupportHotspots         Intent = "support_hotspots"
	IntentCompanyCompare          Intent = "company_compare"
	IntentPaymentReminders        Intent = "payment_reminders"
	IntentRenewalRisk             Intent = "renewal_risk"
	IntentPaymentsAging           Intent = "payments_aging"
	IntentActivityFeed            Intent = "activity_feed"
	IntentPolicyStatusSummary     Intent = "policy_status_summary"
	IntentApplicationsFunnel      Intent = "applications_funnel"
	IntentCorporatePolicyPipeline Intent = "corporate_policy_pipeline"
	IntentBulkOperations          Intent = "bulk_operations"
	IntentPaymentHealth           Intent = "payment_health"
	IntentPremiumTrend            Intent = "premium_trend"
	IntentGrowthTrends            Intent = "growth_trends"
	IntentTopRiskyEmployees       Intent = "top_risky_employees"
	IntentRecentEntities          Intent = "recent_entities"
	IntentGlobalStats             Intent = "global_stats"
	IntentGeneral                 Intent = "general"
)

// Intents lists every known intent, general last.
var Intents = []Intent{
	IntentOverduePayments,
	IntentUpcomingPolicies,
	IntentRiskyCompanies,
	IntentCompanyInfo,
	IntentEmployeeInfo,
	IntentDepartmentRisk,
	IntentPolicyTypeDistribution,
	IntentCollectionForecast,
	IntentTopPayingCompanies,
	IntentPendingApplications,
	IntentSupportHotspots,
	IntentCompanyCompare,
	IntentPaymentReminders,
	IntentRenewalRisk,
	IntentPaymentsAging,
	IntentActivityFeed,
	IntentPolicyStatusSummary,
	IntentApplicationsFunnel,
	IntentCorporatePolicyPipeline,
	IntentBulkOperations,
	IntentPaymentHealth,
	IntentPremiumTrend,
	IntentGrowthTrends,
	IntentTopRiskyEmployees,
	IntentRecentEntities,
	IntentGlobalStats,
	IntentGeneral,
}

var knownIntents = func() map[Intent]bool {
	m := make(map[Intent]bool, len(Intents))
	for _, i := range Intents {
		m[i] = true
	}
	return m
}()

// Known reports whether i is one of the enumerated intents.
func (i Intent) Known() bool {
	return knownIntents[i]
}

// Source tells which classification stage produced the intent.
type Source string

const (
	SourceLLM   Source = "llm"
	SourceRules Source = "rules"
)
