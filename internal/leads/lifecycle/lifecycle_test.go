package lifecycle

import (
	"errors"
	"testing"
	"time"

	"leadflow_backend/internal/leads/domain"
)

func TestPlanLeadTransitionSequential(t *testing.T) {
	machine := NewStageMachine()

	tests := []struct {
		current    string
		target     string
		wantErr    bool
		wantReason string // expected StageTransitionError reason
		wantNext   string // expected stage named in a skip error
	}{
		{domain.LeadStageNew, domain.LeadStageContacted, false, "", ""},
		{domain.LeadStageContacted, domain.LeadStageQualified, false, "", ""},
		{domain.LeadStageQualified, domain.LeadStageTransferred, false, "", ""},
		{domain.LeadStageNew, domain.LeadStageQualified, true, domain.TransitionReasonSkip, domain.LeadStageContacted},
		{domain.LeadStageNew, domain.LeadStageTransferred, true, domain.TransitionReasonSkip, domain.LeadStageContacted},
		{domain.LeadStageContacted, domain.LeadStageNew, true, domain.TransitionReasonSkip, domain.LeadStageQualified},
		{domain.LeadStageContacted, domain.LeadStageContacted, true, domain.TransitionReasonSkip, domain.LeadStageQualified},
		{domain.LeadStageTransferred, domain.LeadStageContacted, true, domain.TransitionReasonTerminal, ""},
		{domain.LeadStageLost, domain.LeadStageContacted, true, domain.TransitionReasonTerminal, ""},
		{domain.LeadStageTransferred, domain.LeadStageLost, true, domain.TransitionReasonTerminal, ""},
		{domain.LeadStageNew, "estimation", true, domain.TransitionReasonUnknownStage, ""},
	}

	for _, tc := range tests {
		lead := domain.Lead{Stage: tc.current}
		plan, err := machine.PlanLeadTransition(lead, tc.target, "because")

		if !tc.wantErr {
			if err != nil {
				t.Errorf("PlanLeadTransition(%q, %q) unexpected error: %v", tc.current, tc.target, err)
				continue
			}
			if plan.From != tc.current || plan.To != tc.target || plan.EventKind != domain.EventKindStageChange {
				t.Errorf("PlanLeadTransition(%q, %q) = %+v, want stage_change %s -> %s", tc.current, tc.target, plan, tc.current, tc.target)
			}
			continue
		}

		var stErr *domain.StageTransitionError
		if !errors.As(err, &stErr) {
			t.Errorf("PlanLeadTransition(%q, %q) error = %v, want StageTransitionError", tc.current, tc.target, err)
			continue
		}
		if stErr.Reason != tc.wantReason {
			t.Errorf("PlanLeadTransition(%q, %q) reason = %q, want %q", tc.current, tc.target, stErr.Reason, tc.wantReason)
		}
		if tc.wantNext != "" && stErr.Expected != tc.wantNext {
			t.Errorf("PlanLeadTransition(%q, %q) expected stage = %q, want %q", tc.current, tc.target, stErr.Expected, tc.wantNext)
		}
	}
}

func TestPlanLeadTransitionLost(t *testing.T) {
	machine := NewStageMachine()

	// Lost is reachable from any non-terminal stage.
	for _, current := range []string{domain.LeadStageNew, domain.LeadStageContacted, domain.LeadStageQualified} {
		plan, err := machine.PlanLeadTransition(domain.Lead{Stage: current}, domain.LeadStageLost, "  no response  ")
		if err != nil {
			t.Fatalf("PlanLeadTransition(%q, lost) unexpected error: %v", current, err)
		}
		if plan.LostReason == nil || *plan.LostReason != "no response" {
			t.Errorf("PlanLeadTransition(%q, lost) lost reason = %v, want trimmed %q", current, plan.LostReason, "no response")
		}
	}

	// Without a reason the move is rejected.
	if _, err := machine.PlanLeadTransition(domain.Lead{Stage: domain.LeadStageNew}, domain.LeadStageLost, "   "); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("PlanLeadTransition(new, lost) with blank reason = %v, want ErrReasonRequired", err)
	}

	// Repeating lost is an idempotent no-op.
	plan, err := machine.PlanLeadTransition(domain.Lead{Stage: domain.LeadStageLost}, domain.LeadStageLost, "")
	if err != nil {
		t.Fatalf("repeated lost unexpected error: %v", err)
	}
	if !plan.NoOp {
		t.Error("repeated lost should plan a no-op")
	}
}

func TestPlanTerminalSelfTransition(t *testing.T) {
	machine := NewStageMachine()
	now := time.Now()

	// Repeating a terminal stage never errors; nothing is applied.
	plan, err := machine.PlanLeadTransition(domain.Lead{Stage: domain.LeadStageTransferred}, domain.LeadStageTransferred, "")
	if err != nil || !plan.NoOp {
		t.Errorf("transferred -> transferred = (%+v, %v), want no-op", plan, err)
	}

	salePlan, err := machine.PlanSaleTransition(domain.Sale{Stage: domain.SaleStagePaid}, domain.SaleStagePaid, nil, "", now)
	if err != nil || !salePlan.NoOp {
		t.Errorf("paid -> paid = (%+v, %v), want no-op", salePlan, err)
	}
}

func TestPlanLeadRollback(t *testing.T) {
	machine := NewStageMachine()

	tests := []struct {
		current string
		reason  string
		wantTo  string
		wantErr error  // sentinel, when expected
		wantStr string // StageTransitionError reason, when expected
	}{
		{domain.LeadStageQualified, "misjudged qualification", domain.LeadStageContacted, nil, ""},
		{domain.LeadStageContacted, "wrong person reached", domain.LeadStageNew, nil, ""},
		{domain.LeadStageQualified, "oops", "", ErrRollbackReasonTooShort, ""},
		{domain.LeadStageNew, "valid reason here", "", nil, domain.TransitionReasonNotReversible},
		{domain.LeadStageTransferred, "valid reason here", "", nil, domain.TransitionReasonTerminal},
		{domain.LeadStageLost, "valid reason here", "", nil, domain.TransitionReasonTerminal},
	}

	for _, tc := range tests {
		plan, err := machine.PlanLeadRollback(domain.Lead{Stage: tc.current}, tc.reason)

		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("PlanLeadRollback(%q) error = %v, want %v", tc.current, err, tc.wantErr)
			}
			continue
		}
		if tc.wantStr != "" {
			var stErr *domain.StageTransitionError
			if !errors.As(err, &stErr) || stErr.Reason != tc.wantStr {
				t.Errorf("PlanLeadRollback(%q) error = %v, want StageTransitionError reason %q", tc.current, err, tc.wantStr)
			}
			continue
		}
		if err != nil {
			t.Errorf("PlanLeadRollback(%q) unexpected error: %v", tc.current, err)
			continue
		}
		if plan.To != tc.wantTo || plan.EventKind != domain.EventKindRollback {
			t.Errorf("PlanLeadRollback(%q) = %+v, want rollback to %q", tc.current, plan, tc.wantTo)
		}
	}
}

func TestPlanSaleTransitionGates(t *testing.T) {
	machine := NewStageMachine()
	now := time.Now()
	amount := int64(250000)

	// Agreement without any amount fails the gate.
	_, err := machine.PlanSaleTransition(domain.Sale{Stage: domain.SaleStageKYC}, domain.SaleStageAgreement, nil, "", now)
	var gateErr *domain.SaleGateError
	if !errors.As(err, &gateErr) || gateErr.Missing != "amount" {
		t.Fatalf("agreement without amount = %v, want SaleGateError missing amount", err)
	}

	// Amount arriving with the request satisfies the gate.
	plan, err := machine.PlanSaleTransition(domain.Sale{Stage: domain.SaleStageKYC}, domain.SaleStageAgreement, &amount, "", now)
	if err != nil {
		t.Fatalf("agreement with amount param unexpected error: %v", err)
	}
	if plan.AmountCents == nil || *plan.AmountCents != amount {
		t.Errorf("agreement plan amount = %v, want %d", plan.AmountCents, amount)
	}

	// A pre-set amount also satisfies it.
	if _, err := machine.PlanSaleTransition(domain.Sale{Stage: domain.SaleStageKYC, AmountCents: &amount}, domain.SaleStageAgreement, nil, "", now); err != nil {
		t.Errorf("agreement with stored amount unexpected error: %v", err)
	}

	// Lost requires a reason.
	if _, err := machine.PlanSaleTransition(domain.Sale{Stage: domain.SaleStageKYC}, domain.SaleStageLost, nil, "", now); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("sale lost with blank reason = %v, want ErrReasonRequired", err)
	}
}

func TestPlanSaleTransitionPaidStampsClosure(t *testing.T) {
	machine := NewStageMachine()
	now := time.Now().UTC()
	amount := int64(99000)
	sale := domain.Sale{
		Stage:       domain.SaleStageAgreement,
		AmountCents: &amount,
		CreatedAt:   now.Add(-73 * time.Hour),
	}

	plan, err := machine.PlanSaleTransition(sale, domain.SaleStagePaid, nil, "", now)
	if err != nil {
		t.Fatalf("paid transition unexpected error: %v", err)
	}
	if plan.ClosedAt == nil || !plan.ClosedAt.Equal(now) {
		t.Errorf("paid plan closed_at = %v, want %v", plan.ClosedAt, now)
	}
	if plan.DurationDays == nil || *plan.DurationDays != 3 {
		t.Errorf("paid plan duration_days = %v, want 3 whole days", plan.DurationDays)
	}
}

func TestPlanSaleTransitionSequenceAndTerminal(t *testing.T) {
	machine := NewStageMachine()
	now := time.Now()

	// Skipping kyc is rejected and the error names the expected stage.
	_, err := machine.PlanSaleTransition(domain.Sale{Stage: domain.SaleStageNew}, domain.SaleStageAgreement, nil, "", now)
	var stErr *domain.StageTransitionError
	if !errors.As(err, &stErr) || stErr.Reason != domain.TransitionReasonSkip || stErr.Expected != domain.SaleStageKYC {
		t.Fatalf("new -> agreement = %v, want skip error expecting kyc", err)
	}

	// Paid locks the sale.
	if _, err := machine.PlanSaleTransition(domain.Sale{Stage: domain.SaleStagePaid}, domain.SaleStageLost, nil, "changed mind", now); err == nil {
		t.Error("paid -> lost should be rejected")
	}

	// Repeated lost is an idempotent no-op.
	plan, err := machine.PlanSaleTransition(domain.Sale{Stage: domain.SaleStageLost}, domain.SaleStageLost, nil, "", now)
	if err != nil {
		t.Fatalf("repeated sale lost unexpected error: %v", err)
	}
	if !plan.NoOp {
		t.Error("repeated sale lost should plan a no-op")
	}
}
