// Package lifecycle validates stage movements for leads and sales. It is
// pure: callers load the entity, ask for a plan, and apply it through the
// repository inside their own transaction.
package lifecycle

import (
	"errors"
	"strings"
	"time"

	"leadflow_backend/internal/leads/domain"
)

var (
	// ErrReasonRequired rejects a lost transition without an explanation.
	ErrReasonRequired = errors.New("a reason is required when marking an entity lost")

	// ErrRollbackReasonTooShort rejects rollbacks with throwaway reasons.
	ErrRollbackReasonTooShort = errors.New("rollback requires a reason of at least 5 characters")
)

// StageMachine is the single authority on which stage movements are legal.
type StageMachine struct{}

func NewStageMachine() *StageMachine {
	return &StageMachine{}
}

// LeadPlan describes an accepted lead stage move.
type LeadPlan struct {
	From       string
	To         string
	EventKind  string // stage_change or rollback
	LostReason *string
	// NoOp marks a repeated lost request: the entity is already where the
	// caller wants it, nothing is applied and no history is written.
	NoOp bool
}

// PlanLeadTransition validates a forward (or lost) move for a lead.
func (m *StageMachine) PlanLeadTransition(lead domain.Lead, target, reason string) (LeadPlan, error) {
	if !domain.IsKnownLeadStage(target) {
		return LeadPlan{}, &domain.StageTransitionError{
			Entity:    domain.EntityLead,
			Current:   lead.Stage,
			Requested: target,
			Reason:    domain.TransitionReasonUnknownStage,
		}
	}

	if domain.IsTerminalLeadStage(lead.Stage) {
		// Repeating the terminal stage is an idempotent no-op, not an error.
		if target == lead.Stage {
			return LeadPlan{From: lead.Stage, To: target, NoOp: true}, nil
		}
		return LeadPlan{}, &domain.StageTransitionError{
			Entity:    domain.EntityLead,
			Current:   lead.Stage,
			Requested: target,
			Reason:    domain.TransitionReasonTerminal,
		}
	}

	if target == domain.LeadStageLost {
		trimmed := strings.TrimSpace(reason)
		if trimmed == "" {
			return LeadPlan{}, ErrReasonRequired
		}
		return LeadPlan{
			From:       lead.Stage,
			To:         target,
			EventKind:  domain.EventKindStageChange,
			LostReason: &trimmed,
		}, nil
	}

	next, ok := domain.NextLeadStage(lead.Stage)
	if !ok || target != next {
		return LeadPlan{}, &domain.StageTransitionError{
			Entity:    domain.EntityLead,
			Current:   lead.Stage,
			Requested: target,
			Reason:    domain.TransitionReasonSkip,
			Expected:  next,
		}
	}

	return LeadPlan{From: lead.Stage, To: target, EventKind: domain.EventKindStageChange}, nil
}

// PlanLeadRollback validates a one-step backward move for a lead.
func (m *StageMachine) PlanLeadRollback(lead domain.Lead, reason string) (LeadPlan, error) {
	if domain.IsTerminalLeadStage(lead.Stage) {
		return LeadPlan{}, &domain.StageTransitionError{
			Entity:  domain.EntityLead,
			Current: lead.Stage,
			Reason:  domain.TransitionReasonTerminal,
		}
	}

	target, ok := domain.LeadRollbackTarget(lead.Stage)
	if !ok {
		return LeadPlan{}, &domain.StageTransitionError{
			Entity:  domain.EntityLead,
			Current: lead.Stage,
			Reason:  domain.TransitionReasonNotReversible,
		}
	}

	if !domain.IsValidRollbackReason(reason) {
		return LeadPlan{}, ErrRollbackReasonTooShort
	}

	return LeadPlan{From: lead.Stage, To: target, EventKind: domain.EventKindRollback}, nil
}

// SalePlan describes an accepted sale stage move, including the fields the
// move stamps on the row.
type SalePlan struct {
	From         string
	To           string
	AmountCents  *int64
	LostReason   *string
	ClosedAt     *time.Time
	DurationDays *int
	NoOp         bool
}

// PlanSaleTransition validates a forward (or lost) move for a sale.
// amountCents, when non-nil, is stamped with the move; the agreement gate
// accepts either a pre-set amount or one arriving with this request.
func (m *StageMachine) PlanSaleTransition(sale domain.Sale, target string, amountCents *int64, reason string, now time.Time) (SalePlan, error) {
	if !domain.IsKnownSaleStage(target) {
		return SalePlan{}, &domain.StageTransitionError{
			Entity:    domain.EntitySale,
			Current:   sale.Stage,
			Requested: target,
			Reason:    domain.TransitionReasonUnknownStage,
		}
	}

	if domain.IsTerminalSaleStage(sale.Stage) {
		if target == sale.Stage {
			return SalePlan{From: sale.Stage, To: target, NoOp: true}, nil
		}
		return SalePlan{}, &domain.StageTransitionError{
			Entity:    domain.EntitySale,
			Current:   sale.Stage,
			Requested: target,
			Reason:    domain.TransitionReasonTerminal,
		}
	}

	if target == domain.SaleStageLost {
		trimmed := strings.TrimSpace(reason)
		if trimmed == "" {
			return SalePlan{}, ErrReasonRequired
		}
		return SalePlan{
			From:        sale.Stage,
			To:          target,
			AmountCents: amountCents,
			LostReason:  &trimmed,
		}, nil
	}

	next, ok := domain.NextSaleStage(sale.Stage)
	if !ok || target != next {
		return SalePlan{}, &domain.StageTransitionError{
			Entity:    domain.EntitySale,
			Current:   sale.Stage,
			Requested: target,
			Reason:    domain.TransitionReasonSkip,
			Expected:  next,
		}
	}

	plan := SalePlan{From: sale.Stage, To: target, AmountCents: amountCents}

	if target == domain.SaleStageAgreement && sale.AmountCents == nil && amountCents == nil {
		return SalePlan{}, &domain.SaleGateError{Stage: target, Missing: "amount"}
	}

	if target == domain.SaleStagePaid {
		closedAt := now.UTC()
		duration := int(closedAt.Sub(sale.CreatedAt).Hours() / 24)
		plan.ClosedAt = &closedAt
		plan.DurationDays = &duration
	}

	return plan, nil
}
