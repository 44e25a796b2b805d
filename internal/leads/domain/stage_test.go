package domain

import "testing"

func TestNextLeadStage(t *testing.T) {
	tests := []struct {
		current string
		want    string
		ok      bool
	}{
		{LeadStageNew, LeadStageContacted, true},
		{LeadStageContacted, LeadStageQualified, true},
		{LeadStageQualified, LeadStageTransferred, true},
		{LeadStageTransferred, "", false},
		{LeadStageLost, "", false},
		{"bogus", "", false},
	}

	for _, tc := range tests {
		got, ok := NextLeadStage(tc.current)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NextLeadStage(%q) = (%q, %v), want (%q, %v)", tc.current, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNextSaleStage(t *testing.T) {
	tests := []struct {
		current string
		want    string
		ok      bool
	}{
		{SaleStageNew, SaleStageKYC, true},
		{SaleStageKYC, SaleStageAgreement, true},
		{SaleStageAgreement, SaleStagePaid, true},
		{SaleStagePaid, "", false},
		{SaleStageLost, "", false},
	}

	for _, tc := range tests {
		got, ok := NextSaleStage(tc.current)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NextSaleStage(%q) = (%q, %v), want (%q, %v)", tc.current, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTerminalStages(t *testing.T) {
	for _, stage := range []string{LeadStageTransferred, LeadStageLost} {
		if !IsTerminalLeadStage(stage) {
			t.Errorf("IsTerminalLeadStage(%q) = false, want true", stage)
		}
	}
	for _, stage := range []string{LeadStageNew, LeadStageContacted, LeadStageQualified} {
		if IsTerminalLeadStage(stage) {
			t.Errorf("IsTerminalLeadStage(%q) = true, want false", stage)
		}
	}

	for _, stage := range []string{SaleStagePaid, SaleStageLost} {
		if !IsTerminalSaleStage(stage) {
			t.Errorf("IsTerminalSaleStage(%q) = false, want true", stage)
		}
	}
	for _, stage := range []string{SaleStageNew, SaleStageKYC, SaleStageAgreement} {
		if IsTerminalSaleStage(stage) {
			t.Errorf("IsTerminalSaleStage(%q) = true, want false", stage)
		}
	}
}

func TestLeadRollbackTarget(t *testing.T) {
	tests := []struct {
		current string
		want    string
		ok      bool
	}{
		{LeadStageContacted, LeadStageNew, true},
		{LeadStageQualified, LeadStageContacted, true},
		{LeadStageNew, "", false},
		{LeadStageTransferred, "", false},
		{LeadStageLost, "", false},
	}

	for _, tc := range tests {
		got, ok := LeadRollbackTarget(tc.current)
		if got != tc.want || ok != tc.ok {
			t.Errorf("LeadRollbackTarget(%q) = (%q, %v), want (%q, %v)", tc.current, got, ok, tc.want, tc.ok)
		}
	}
}

func TestKnownStages(t *testing.T) {
	for _, stage := range LeadStageOrder {
		if !IsKnownLeadStage(stage) {
			t.Errorf("IsKnownLeadStage(%q) = false, want true", stage)
		}
	}
	if !IsKnownLeadStage(LeadStageLost) {
		t.Error("IsKnownLeadStage(lost) = false, want true")
	}
	if IsKnownLeadStage("estimation") {
		t.Error("IsKnownLeadStage(estimation) = true, want false")
	}

	for _, stage := range SaleStageOrder {
		if !IsKnownSaleStage(stage) {
			t.Errorf("IsKnownSaleStage(%q) = false, want true", stage)
		}
	}
	if !IsKnownSaleStage(SaleStageLost) {
		t.Error("IsKnownSaleStage(lost) = false, want true")
	}
	if IsKnownSaleStage(LeadStageContacted) {
		t.Error("IsKnownSaleStage(contacted) = true, want false")
	}
}
