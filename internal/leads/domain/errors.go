package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Reasons carried by StageTransitionError.
const (
	TransitionReasonSkip          = "skip"
	TransitionReasonTerminal      = "terminal"
	TransitionReasonNotReversible = "not-reversible"
	TransitionReasonUnknownStage  = "unknown-stage"
)

// Unmet transfer conditions carried by TransferGateError.
const (
	TransferConditionStage  = "stage_not_qualified"
	TransferConditionScore  = "score_below_threshold"
	TransferConditionDomain = "business_domain_missing"
)

// StageTransitionError rejects an invalid stage move for a lead or sale.
type StageTransitionError struct {
	Entity    string // EntityLead or EntitySale
	Current   string
	Requested string
	Reason    string // one of the TransitionReason constants
	Expected  string // next stage in order, set when Reason is skip
}

func (e *StageTransitionError) Error() string {
	switch e.Reason {
	case TransitionReasonTerminal:
		return fmt.Sprintf("%s is in terminal stage %q and cannot be changed", e.Entity, e.Current)
	case TransitionReasonSkip:
		return fmt.Sprintf("cannot transition %s from %q to %q: expected next stage %q", e.Entity, e.Current, e.Requested, e.Expected)
	case TransitionReasonNotReversible:
		if e.Requested == "" {
			return fmt.Sprintf("%s stage %q cannot be rolled back", e.Entity, e.Current)
		}
		return fmt.Sprintf("%s transition from %q to %q is not reversible", e.Entity, e.Current, e.Requested)
	default:
		return fmt.Sprintf("unknown %s stage %q", e.Entity, e.Requested)
	}
}

// SaleGateError rejects a sale stage move whose preconditions are not met.
type SaleGateError struct {
	Stage   string // requested stage
	Missing string // "amount" or "lost_reason"
}

func (e *SaleGateError) Error() string {
	return fmt.Sprintf("cannot move sale to %q: %s is required", e.Stage, e.Missing)
}

// DuplicateLeadError rejects creation of a lead whose email or phone
// already belongs to another lead.
type DuplicateLeadError struct {
	ExistingID uuid.UUID
	Field      string // "email" or "phone"
}

func (e *DuplicateLeadError) Error() string {
	return fmt.Sprintf("duplicate lead detected by %s: existing lead %s", e.Field, e.ExistingID)
}

// CapacityExceededError rejects an assignment that would push an assignee
// over their active lead ceiling.
type CapacityExceededError struct {
	AssigneeID uuid.UUID
	Active     int
	Limit      int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("assignee %s already has %d active leads (limit %d)", e.AssigneeID, e.Active, e.Limit)
}

// FeatureValidationError marks a lead whose persisted enum values cannot
// be turned into a scorer payload. This is fatal for the analysis; it is
// never silently corrected.
type FeatureValidationError struct {
	Field string
	Value string
}

func (e *FeatureValidationError) Error() string {
	return fmt.Sprintf("invalid %s value %q in lead features", e.Field, e.Value)
}

// ScorerUnavailableError wraps a primary scorer failure. Callers treat it
// as a signal to fall back, never as a user-facing error.
type ScorerUnavailableError struct {
	Provider string
	Err      error
}

func (e *ScorerUnavailableError) Error() string {
	return fmt.Sprintf("scorer %s unavailable: %v", e.Provider, e.Err)
}

func (e *ScorerUnavailableError) Unwrap() error { return e.Err }

// QuotaExceededError rejects an analysis once the daily ceiling is spent.
type QuotaExceededError struct {
	Used    int
	Ceiling int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily analysis quota exhausted (%d/%d)", e.Used, e.Ceiling)
}

// TransferGateError rejects a transfer and names every unmet condition.
type TransferGateError struct {
	Missing []string
}

func (e *TransferGateError) Error() string {
	return "transfer conditions not met: " + strings.Join(e.Missing, ", ")
}

// TransitionRateError rejects transitions that exceed the per-entity ceiling.
type TransitionRateError struct {
	Entity   string
	EntityID uuid.UUID
}

func (e *TransitionRateError) Error() string {
	return fmt.Sprintf("%s %s is changing stage too quickly", e.Entity, e.EntityID)
}
