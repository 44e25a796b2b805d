package domain

import "testing"

func TestQualityTierFor(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1.0, TierHot},
		{0.8, TierHot},
		{0.79, TierWarm},
		{0.6, TierWarm},
		{0.59, TierCold},
		{0.3, TierCold},
		{0.29, TierDead},
		{0.0, TierDead},
	}

	for _, tc := range tests {
		if got := QualityTierFor(tc.score); got != tc.want {
			t.Errorf("QualityTierFor(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestIsValidRollbackReason(t *testing.T) {
	tests := []struct {
		reason string
		want   bool
	}{
		{"wrong qualification", true},
		{"oops!", true},
		{"oops", false},
		{"   padded out   ", true},
		{"  ab  ", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := IsValidRollbackReason(tc.reason); got != tc.want {
			t.Errorf("IsValidRollbackReason(%q) = %v, want %v", tc.reason, got, tc.want)
		}
	}
}

func TestKnownTaxonomies(t *testing.T) {
	for _, src := range []string{SourceScanner, SourcePartner, SourceManual} {
		if !IsKnownSource(src) {
			t.Errorf("IsKnownSource(%q) = false, want true", src)
		}
	}
	if IsKnownSource("billboard") {
		t.Error("IsKnownSource(billboard) = true, want false")
	}

	for _, rec := range []string{RecommendationTransferToSales, RecommendationContinueNurturing, RecommendationLost} {
		if !IsKnownRecommendation(rec) {
			t.Errorf("IsKnownRecommendation(%q) = false, want true", rec)
		}
	}
	if IsKnownRecommendation("escalate") {
		t.Error("IsKnownRecommendation(escalate) = true, want false")
	}

	reasons := []string{
		LostReasonNoBudget,
		LostReasonNoResponse,
		LostReasonCompetitor,
		LostReasonNotInterested,
		LostReasonInvalidContact,
		LostReasonOther,
	}
	for _, r := range reasons {
		if !IsKnownLostReason(r) {
			t.Errorf("IsKnownLostReason(%q) = false, want true", r)
		}
	}
	if IsKnownLostReason("moved_abroad") {
		t.Error("IsKnownLostReason(moved_abroad) = true, want false")
	}
}

func TestLeadHasContact(t *testing.T) {
	tests := []struct {
		email string
		phone string
		want  bool
	}{
		{"a@b.com", "+31612345678", true},
		{"a@b.com", "", true},
		{"", "+31612345678", true},
		{"", "", false},
	}

	for _, tc := range tests {
		lead := Lead{Email: tc.email, Phone: tc.phone}
		if got := lead.HasContact(); got != tc.want {
			t.Errorf("HasContact() with email=%q phone=%q = %v, want %v", tc.email, tc.phone, got, tc.want)
		}
	}
}
