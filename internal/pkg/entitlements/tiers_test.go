package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountVND_ExactConversion(t *testing.T) {
	// 4.99 USD at 25000 VND/USD must come out to exactly 124750.
	assert.Equal(t, int64(124750), AmountVND(499))
	assert.Equal(t, int64(249750), AmountVND(999))
	assert.Equal(t, int64(0), AmountVND(0))
}

func TestCatalog_SchoolSubscriberSeesOnlySchoolTier(t *testing.T) {
	tiers := Catalog(Entitlement{Plan: PlanPro, HasSchoolSubscription: true})

	require.Len(t, tiers, 1)
	assert.Equal(t, string(PlanSchool), tiers[0].ID)
	assert.True(t, tiers[0].IsCurrent)
	assert.Equal(t, "Your school plan", tiers[0].ButtonLabel)
	assert.Equal(t, schoolMemberFeatures, tiers[0].Features)
}

func TestCatalog_RegularUserSeesAllTiers(t *testing.T) {
	tiers := Catalog(Entitlement{Plan: PlanPro})

	require.Len(t, tiers, 4)
	assert.Equal(t, []string{"free", "pro", "premium", "school"}, []string{
		tiers[0].ID, tiers[1].ID, tiers[2].ID, tiers[3].ID,
	})

	for _, tier := range tiers {
		if tier.ID == string(PlanPro) {
			assert.True(t, tier.IsCurrent)
			assert.Equal(t, "Current plan", tier.ButtonLabel)
			assert.Equal(t, "outline", tier.ButtonVariant)
		} else {
			assert.False(t, tier.IsCurrent)
		}
	}
}

func TestCatalog_SchoolTierHasNoCheckout(t *testing.T) {
	tiers := Catalog(Entitlement{Plan: PlanFree})

	require.Len(t, tiers, 4)
	school := tiers[3]
	assert.True(t, school.ContactOnly)
	assert.Equal(t, "Contact sales", school.ButtonLabel)
}

func TestCatalog_PriceDisplayMatchesCheckoutAmount(t *testing.T) {
	tiers := Catalog(Entitlement{Plan: PlanFree})

	for _, tier := range tiers {
		assert.Equal(t, FormatVND(AmountVND(tier.PriceUSDCents)), tier.PriceDisplay,
			"tier %s display price must be derived from the checkout amount", tier.ID)
	}
}

func TestFindTier(t *testing.T) {
	tier, ok := FindTier("pro")
	require.True(t, ok)
	assert.Equal(t, int64(499), tier.PriceUSDCents)

	_, ok = FindTier("enterprise")
	assert.False(t, ok)
}

func TestFormatVND(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "0 ₫"},
		{in: 950, want: "950 ₫"},
		{in: 124750, want: "124.750 ₫"},
		{in: 1234567, want: "1.234.567 ₫"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatVND(tt.in))
	}
}
