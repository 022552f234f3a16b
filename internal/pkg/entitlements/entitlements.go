package entitlements

import "strings"

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
	PlanSchool  Plan = "school"
)

// Limits are per-plan usage quotas. Zero means unlimited.
type Limits struct {
	TokenQuota      int64 `json:"token_quota"`
	UnlockQuota     int64 `json:"unlock_quota"`
	ExecutionQuota  int64 `json:"execution_quota"`
	CollectionQuota int64 `json:"collection_quota"`
}

// NormalizePlan maps arbitrary input to a known plan, defaulting to free.
func NormalizePlan(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanPro):
		return PlanPro
	case string(PlanPremium):
		return PlanPremium
	case string(PlanSchool):
		return PlanSchool
	default:
		return PlanFree
	}
}

// PlanRank orders plans so reconciliation can pick the best entitlement.
func PlanRank(plan Plan) int {
	switch plan {
	case PlanSchool:
		return 3
	case PlanPremium:
		return 2
	case PlanPro:
		return 1
	default:
		return 0
	}
}

// PlanLimits returns the quota set for a plan.
func PlanLimits(plan Plan) Limits {
	switch plan {
	case PlanSchool:
		return Limits{} // unlimited
	case PlanPremium:
		return Limits{TokenQuota: 500000, UnlockQuota: 200, ExecutionQuota: 1000, CollectionQuota: 0}
	case PlanPro:
		return Limits{TokenQuota: 100000, UnlockQuota: 50, ExecutionQuota: 300, CollectionQuota: 20}
	default:
		return Limits{TokenQuota: 10000, UnlockQuota: 5, ExecutionQuota: 30, CollectionQuota: 3}
	}
}

// WithinQuota reports whether used+1 still fits the quota (0 = unlimited).
func WithinQuota(quota, used int64) bool {
	if quota <= 0 {
		return true
	}
	return used < quota
}
