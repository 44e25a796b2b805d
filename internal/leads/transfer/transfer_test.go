package transfer

import (
	"reflect"
	"testing"

	"leadflow_backend/internal/leads/domain"
)

func TestGateEvaluate(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		lead domain.Lead
		want []string
	}{
		{
			name: "all conditions met",
			lead: domain.Lead{Stage: domain.LeadStageQualified, AIScore: score(0.75), BusinessDomain: "solar"},
			want: []string{},
		},
		{
			name: "score exactly at threshold passes",
			lead: domain.Lead{Stage: domain.LeadStageQualified, AIScore: score(0.6), BusinessDomain: "hvac"},
			want: []string{},
		},
		{
			name: "wrong stage",
			lead: domain.Lead{Stage: domain.LeadStageContacted, AIScore: score(0.9), BusinessDomain: "solar"},
			want: []string{domain.TransferConditionStage},
		},
		{
			name: "score below threshold",
			lead: domain.Lead{Stage: domain.LeadStageQualified, AIScore: score(0.59), BusinessDomain: "solar"},
			want: []string{domain.TransferConditionScore},
		},
		{
			name: "score never computed",
			lead: domain.Lead{Stage: domain.LeadStageQualified, BusinessDomain: "solar"},
			want: []string{domain.TransferConditionScore},
		},
		{
			name: "business domain blank",
			lead: domain.Lead{Stage: domain.LeadStageQualified, AIScore: score(0.8), BusinessDomain: "   "},
			want: []string{domain.TransferConditionDomain},
		},
		{
			name: "everything missing at once",
			lead: domain.Lead{Stage: domain.LeadStageNew},
			want: []string{
				domain.TransferConditionStage,
				domain.TransferConditionScore,
				domain.TransferConditionDomain,
			},
		},
	}

	gate := NewGate(0.6)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gate.Evaluate(tt.lead)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
