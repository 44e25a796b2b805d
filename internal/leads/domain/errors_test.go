package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestStageTransitionErrorMessages(t *testing.T) {
	tests := []struct {
		err  *StageTransitionError
		want string
	}{
		{
			&StageTransitionError{Entity: EntityLead, Current: LeadStageTransferred, Reason: TransitionReasonTerminal},
			`lead is in terminal stage "transferred" and cannot be changed`,
		},
		{
			&StageTransitionError{Entity: EntityLead, Current: LeadStageNew, Requested: LeadStageQualified, Reason: TransitionReasonSkip, Expected: LeadStageContacted},
			`cannot transition lead from "new" to "qualified": expected next stage "contacted"`,
		},
		{
			&StageTransitionError{Entity: EntitySale, Current: SaleStageNew, Requested: SaleStageAgreement, Reason: TransitionReasonSkip, Expected: SaleStageKYC},
			`cannot transition sale from "new" to "agreement": expected next stage "kyc"`,
		},
		{
			&StageTransitionError{Entity: EntityLead, Current: LeadStageNew, Requested: LeadStageContacted, Reason: TransitionReasonNotReversible},
			`lead transition from "new" to "contacted" is not reversible`,
		},
		{
			&StageTransitionError{Entity: EntityLead, Current: LeadStageNew, Reason: TransitionReasonNotReversible},
			`lead stage "new" cannot be rolled back`,
		},
		{
			&StageTransitionError{Entity: EntitySale, Requested: "shipped", Reason: TransitionReasonUnknownStage},
			`unknown sale stage "shipped"`,
		},
	}

	for _, tc := range tests {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestScorerUnavailableErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ScorerUnavailableError{Provider: "kimi", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the wrapped cause")
	}
	if !strings.Contains(err.Error(), "kimi") {
		t.Errorf("Error() = %q, want provider name included", err.Error())
	}
}

func TestTransferGateErrorListsConditions(t *testing.T) {
	err := &TransferGateError{Missing: []string{TransferConditionStage, TransferConditionScore}}
	msg := err.Error()

	if !strings.Contains(msg, TransferConditionStage) || !strings.Contains(msg, TransferConditionScore) {
		t.Errorf("Error() = %q, want both unmet conditions listed", msg)
	}
}

func TestDuplicateLeadError(t *testing.T) {
	id := uuid.New()
	err := &DuplicateLeadError{ExistingID: id, Field: "email"}

	if !strings.Contains(err.Error(), id.String()) {
		t.Errorf("Error() = %q, want existing lead id included", err.Error())
	}
	if !strings.Contains(err.Error(), "email") {
		t.Errorf("Error() = %q, want matched field included", err.Error())
	}
}

func TestSaleGateError(t *testing.T) {
	tests := []struct {
		err  *SaleGateError
		want string
	}{
		{&SaleGateError{Stage: SaleStagePaid, Missing: "amount"}, `cannot move sale to "paid": amount is required`},
		{&SaleGateError{Stage: SaleStageLost, Missing: "lost_reason"}, `cannot move sale to "lost": lost_reason is required`},
	}

	for _, tc := range tests {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}
