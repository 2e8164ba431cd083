package assistant

import "context"

type handler func(s *Service, ctx context.Context, q *query) (Response, error)

var handlers = map[Intent]handler{
	IntentOverduePayments:         (*Service).overduePayments,
	IntentUpcomingPolicies:        (*Service).upcomingPolicies,
	IntentRiskyCompanies:          (*Service).riskyCompanies,
	IntentCompanyInfo:             (*Service).companyInfo,
	IntentEmployeeInfo:            (*Service).employeeInfo,
	IntentDepartmentRisk:          (*Service).departmentRisk,
	IntentPolicyTypeDistribution:  (*Service).policyTypeDistribution,
	IntentCollectionForecast:      (*Service).collectionForecast,
	IntentTopPayingCompanies:      (*Service).topPayingCompanies,
	IntentPendingApplications:     (*Service).pendingApplications,
	IntentSupportHotspots:         (*Service).supportHotspots,
	IntentCompanyCompare:          (*Service).companyCompare,
	IntentPaymentReminders:        (*Service).paymentReminders,
	IntentRenewalRisk:             (*Service).renewalRisk,
	IntentPaymentsAging:           (*Service).paymentsAging,
	IntentActivityFeed:            (*Service).activityFeed,
	IntentPolicyStatusSummary:     (*Service).policyStatusSummary,
	IntentApplicationsFunnel:      (*Service).applicationsFunnel,
	IntentCorporatePolicyPipeline: (*Service).corporatePolicyPipeline,
	IntentBulkOperations:          (*Service).bulkOperations,
	IntentPaymentHealth:           (*Service).paymentHealth,
	IntentPremiumTrend:            (*Service).premiumTrend,
	IntentGrowthTrends:            (*Service).growthTrends,
	IntentTopRiskyEmployees:       (*Service).topRiskyEmployees,
	IntentRecentEntities:          (*Service).recentEntities,
	IntentGlobalStats:             (*Service).globalStats,
	IntentGeneral:                 (*Service).general,
}

// dispatch returns the handler for intent. Unrecognized intents get the
// general onboarding handler.
func dispatch(intent Intent) (Intent, handler) {
	if h, ok := handlers[intent]; ok {
		return intent, h
	}
	return IntentGeneral, handlers[IntentGeneral]
}
