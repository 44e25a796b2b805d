package advisor

import (
	"strings"
	"testing"

	"leadflow_backend/internal/leads/domain"
)

func TestFallbackScoreWeights(t *testing.T) {
	tests := []struct {
		name    string
		lead    domain.Lead
		want    float64
		wantRec string
	}{
		{
			name: "everything maxed caps at 1.0",
			lead: domain.Lead{
				Source: domain.SourcePartner, Stage: domain.LeadStageQualified,
				Email: "a@b.com", Phone: "+31612345678",
				BusinessDomain: "logistics", MessageCount: 12,
			},
			want:    1.0,
			wantRec: domain.RecommendationTransferToSales,
		},
		{
			name: "scanner with medium activity and partial contact",
			lead: domain.Lead{
				Source: domain.SourceScanner, Stage: domain.LeadStageContacted,
				Email: "a@b.com", MessageCount: 5,
			},
			// 0.20 source + 0.15 activity + 0.07 contact + 0.10 stage
			want:    0.52,
			wantRec: domain.RecommendationContinueNurturing,
		},
		{
			name:    "cold manual lead",
			lead:    domain.Lead{Source: domain.SourceManual, Stage: domain.LeadStageNew},
			want:    0.1,
			wantRec: domain.RecommendationLost,
		},
		{
			name: "transfer threshold boundary",
			lead: domain.Lead{
				Source: domain.SourcePartner, Stage: domain.LeadStageContacted,
				Email: "a@b.com", Phone: "+31612345678", MessageCount: 2,
			},
			// 0.30 + 0.08 + 0.15 + 0.10 = 0.63
			want:    0.63,
			wantRec: domain.RecommendationTransferToSales,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := FallbackScore(tc.lead)
			if result.Score != tc.want {
				t.Errorf("score = %v, want %v", result.Score, tc.want)
			}
			if result.Recommendation != tc.wantRec {
				t.Errorf("recommendation = %q, want %q", result.Recommendation, tc.wantRec)
			}
			if !strings.HasPrefix(result.Reason, fallbackReasonPrefix) {
				t.Errorf("reason %q must carry the offline prefix", result.Reason)
			}
		})
	}
}

func TestFallbackScoreIsDeterministic(t *testing.T) {
	lead := domain.Lead{
		Source: domain.SourceScanner, Stage: domain.LeadStageContacted,
		Email: "a@b.com", MessageCount: 7, BusinessDomain: "retail",
	}

	first := FallbackScore(lead)
	second := FallbackScore(lead)
	if first.Score != second.Score || first.Recommendation != second.Recommendation || first.Reason != second.Reason {
		t.Errorf("fallback not deterministic: %+v vs %+v", first, second)
	}
}
