package entitlements

import "testing"

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "free", want: PlanFree},
		{in: "pro", want: PlanPro},
		{in: "premium", want: PlanPremium},
		{in: "school", want: PlanSchool},
		{in: "SCHOOL", want: PlanSchool},
		{in: "  pro ", want: PlanPro},
		{in: "invalid", want: PlanFree},
		{in: "", want: PlanFree},
	}

	for _, tt := range tests {
		if got := NormalizePlan(tt.in); got != tt.want {
			t.Fatalf("NormalizePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanRank(t *testing.T) {
	if PlanRank(PlanFree) >= PlanRank(PlanPro) {
		t.Fatalf("expected pro to outrank free")
	}
	if PlanRank(PlanPro) >= PlanRank(PlanPremium) {
		t.Fatalf("expected premium to outrank pro")
	}
	if PlanRank(PlanPremium) >= PlanRank(PlanSchool) {
		t.Fatalf("expected school to outrank premium")
	}
}

func TestWithinQuota(t *testing.T) {
	if !WithinQuota(0, 999999) {
		t.Fatalf("zero quota must mean unlimited")
	}
	if !WithinQuota(10, 9) {
		t.Fatalf("expected 9/10 to be within quota")
	}
	if WithinQuota(10, 10) {
		t.Fatalf("expected 10/10 to be exhausted")
	}
}
