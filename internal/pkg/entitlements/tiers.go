package entitlements

import "strconv"

// ExchangeRate converts the reference USD price into the VND settlement
// amount. Display and checkout both go through AmountVND so the user is
// always charged exactly what they were shown.
const ExchangeRate = 25000

// AmountVND converts a USD price in cents to whole VND. ExchangeRate is a
// multiple of 100, so the division is exact and free of rounding drift.
func AmountVND(priceUSDCents int64) int64 {
	return priceUSDCents * ExchangeRate / 100
}

// TierPlan is one subscription tier as shown on the pricing page, already
// resolved against the viewing user's entitlement state.
type TierPlan struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	PriceUSDCents int64    `json:"price_usd_cents"`
	PriceDisplay  string   `json:"price_display"`
	Features      []string `json:"features"`
	Limits        Limits   `json:"limits"`
	Recommended   bool     `json:"recommended"`
	IsCurrent     bool     `json:"is_current"`
	ContactOnly   bool     `json:"contact_only"`
	ButtonLabel   string   `json:"button_label"`
	ButtonVariant string   `json:"button_variant"`
}

// Entitlement is the caller-supplied view of the current user. It is passed
// in explicitly so the catalog stays a pure function.
type Entitlement struct {
	Plan                  Plan
	HasSchoolSubscription bool
}

type tierMeta struct {
	id            string
	name          string
	priceUSDCents int64
	features      []string
	recommended   bool
	contactOnly   bool
}

var tierTable = []tierMeta{
	{
		id:            string(PlanFree),
		name:          "Free",
		priceUSDCents: 0,
		features: []string{
			"Personal prompt library",
			"3 collections",
			"30 prompt runs per month",
		},
	},
	{
		id:            string(PlanPro),
		name:          "Pro",
		priceUSDCents: 499,
		features: []string{
			"Everything in Free",
			"20 collections",
			"300 prompt runs per month",
			"Share prompts with groups",
		},
	},
	{
		id:            string(PlanPremium),
		name:          "Premium",
		priceUSDCents: 999,
		recommended:   true,
		features: []string{
			"Everything in Pro",
			"Unlimited collections",
			"1000 prompt runs per month",
			"Priority support",
		},
	},
	{
		id:          string(PlanSchool),
		name:        "School",
		contactOnly: true,
		features: []string{
			"Seats for your whole school",
			"Unlimited usage for every teacher",
			"School admin console",
			"Dedicated onboarding",
		},
	},
}

var schoolMemberFeatures = []string{
	"Covered by your school subscription",
	"Unlimited usage for every teacher",
	"All Premium features included",
	"Managed by your school admin",
}

// Catalog returns the ordered tier list for the given user. A member of a
// subscribed school only ever sees the School tier; everyone else sees all
// tiers with button state reflecting their current plan.
func Catalog(e Entitlement) []TierPlan {
	if e.HasSchoolSubscription {
		school := buildTier(tierTable[len(tierTable)-1], e)
		school.Features = schoolMemberFeatures
		school.IsCurrent = true
		school.ButtonLabel = "Your school plan"
		school.ButtonVariant = "current"
		return []TierPlan{school}
	}

	tiers := make([]TierPlan, 0, len(tierTable))
	for _, meta := range tierTable {
		tiers = append(tiers, buildTier(meta, e))
	}
	return tiers
}

func buildTier(meta tierMeta, e Entitlement) TierPlan {
	tier := TierPlan{
		ID:            meta.id,
		Name:          meta.name,
		PriceUSDCents: meta.priceUSDCents,
		PriceDisplay:  FormatVND(AmountVND(meta.priceUSDCents)),
		Features:      meta.features,
		Limits:        PlanLimits(Plan(meta.id)),
		Recommended:   meta.recommended,
		ContactOnly:   meta.contactOnly,
		IsCurrent:     meta.id == string(e.Plan),
	}

	switch {
	case tier.IsCurrent:
		tier.ButtonLabel = "Current plan"
		tier.ButtonVariant = "outline"
	case tier.ContactOnly:
		tier.ButtonLabel = "Contact sales"
		tier.ButtonVariant = "ghost"
	case tier.PriceUSDCents == 0:
		tier.ButtonLabel = "Get started"
		tier.ButtonVariant = "secondary"
	default:
		tier.ButtonLabel = "Upgrade"
		tier.ButtonVariant = "primary"
	}
	return tier
}

// FindTier returns the static tier metadata for a known tier id.
func FindTier(id string) (TierPlan, bool) {
	for _, meta := range tierTable {
		if meta.id == id {
			return buildTier(meta, Entitlement{Plan: PlanFree}), true
		}
	}
	return TierPlan{}, false
}

// FormatVND renders a VND amount with dot thousand separators, e.g. 124750
// -> "124.750 ₫".
func FormatVND(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	if neg {
		out = append([]byte{'-'}, out...)
	}
	return string(out) + " ₫"
}
