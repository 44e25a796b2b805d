package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/lifecycle"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// transitionLimiters enforces a per-entity ceiling on stage changes. Each
// lead or sale gets its own token bucket, created lazily on first use.
type transitionLimiters struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

func newTransitionLimiters(perSecond float64, burst int) *transitionLimiters {
	return &transitionLimiters{
		rate:  rate.Limit(perSecond),
		burst: burst,
	}
}

func (t *transitionLimiters) allow(entityID uuid.UUID) bool {
	limiter, _ := t.limiters.LoadOrStore(entityID, rate.NewLimiter(t.rate, t.burst))
	return limiter.(*rate.Limiter).Allow()
}

func (s *Service) TransitionStage(ctx context.Context, id uuid.UUID, req transport.TransitionStageRequest) (transport.LeadResponse, error) {
	if !s.limiters.allow(id) {
		return transport.LeadResponse{}, &domain.TransitionRateError{Entity: domain.EntityLead, EntityID: id}
	}

	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	// A transferred target is a handoff, not a plain stage write: it has
	// to pass the transfer gate and open the sale in the same transaction.
	// An already-transferred lead falls through to the machine's no-op.
	if req.Stage == domain.LeadStageTransferred && lead.Stage != domain.LeadStageTransferred {
		result, err := s.runTransfer(ctx, lead, req.Actor, req.Reason)
		if err != nil {
			return transport.LeadResponse{}, err
		}
		return result.Lead, nil
	}

	plan, err := s.machine.PlanLeadTransition(lead, req.Stage, req.Reason)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if plan.NoOp {
		return toLeadResponse(lead), nil
	}

	actor := actorOrSystem(req.Actor)
	updated, err := s.applyLeadPlan(ctx, id, plan, actor, req.Reason)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.publishLeadStageChange(ctx, id, plan.From, updated.Stage, actor, req.Reason)
	return toLeadResponse(updated), nil
}

func (s *Service) RollbackStage(ctx context.Context, id uuid.UUID, req transport.RollbackStageRequest) (transport.LeadResponse, error) {
	if !s.limiters.allow(id) {
		return transport.LeadResponse{}, &domain.TransitionRateError{Entity: domain.EntityLead, EntityID: id}
	}

	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	plan, err := s.machine.PlanLeadRollback(lead, req.Reason)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	actor := actorOrSystem(req.Actor)
	updated, err := s.applyLeadPlan(ctx, id, plan, actor, req.Reason)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.publishLeadStageChange(ctx, id, plan.From, updated.Stage, actor, req.Reason)
	return toLeadResponse(updated), nil
}

// Transfer hands a qualified lead to sales. The gate must pass in full; the
// lead flip and the sale creation commit together.
func (s *Service) Transfer(ctx context.Context, id uuid.UUID, req transport.TransferLeadRequest) (transport.TransferResponse, error) {
	if !s.limiters.allow(id) {
		return transport.TransferResponse{}, &domain.TransitionRateError{Entity: domain.EntityLead, EntityID: id}
	}

	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.TransferResponse{}, ErrLeadNotFound
		}
		return transport.TransferResponse{}, err
	}

	return s.runTransfer(ctx, lead, req.Actor, "")
}

func (s *Service) runTransfer(ctx context.Context, lead domain.Lead, rawActor, reason string) (transport.TransferResponse, error) {
	if missing := s.gate.Evaluate(lead); len(missing) > 0 {
		return transport.TransferResponse{}, &domain.TransferGateError{Missing: missing}
	}

	actor := actorOrSystem(rawActor)
	updated, sale, err := s.repo.ApplyTransfer(ctx, repository.ApplyTransferParams{
		LeadID:    lead.ID,
		FromStage: lead.Stage,
		Actor:     actor,
		Reason:    historyReason(nil, reason),
	})
	if err != nil {
		// A concurrent move invalidates the gate evaluation, so no silent
		// retry here: the caller has to look at the lead again.
		if errors.Is(err, repository.ErrStaleStage) {
			return transport.TransferResponse{}, ErrConcurrentUpdate
		}
		return transport.TransferResponse{}, err
	}

	s.publishLeadStageChange(ctx, lead.ID, lead.Stage, updated.Stage, actor, reason)

	var score float64
	if updated.AIScore != nil {
		score = *updated.AIScore
	}
	s.bus.Publish(ctx, events.LeadTransferred{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		SaleID:    sale.ID,
		FullName:  updated.FullName,
		AIScore:   score,
		Actor:     actor,
	})

	return transport.TransferResponse{
		Lead: toLeadResponse(updated),
		Sale: toSaleResponse(sale),
	}, nil
}

func (s *Service) AdvanceSale(ctx context.Context, saleID uuid.UUID, req transport.AdvanceSaleRequest) (transport.SaleResponse, error) {
	if !s.limiters.allow(saleID) {
		return transport.SaleResponse{}, &domain.TransitionRateError{Entity: domain.EntitySale, EntityID: saleID}
	}

	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return transport.SaleResponse{}, ErrSaleNotFound
		}
		return transport.SaleResponse{}, err
	}

	plan, err := s.machine.PlanSaleTransition(sale, req.Stage, req.AmountCents, req.Reason, time.Now())
	if err != nil {
		return transport.SaleResponse{}, err
	}
	if plan.NoOp {
		return toSaleResponse(sale), nil
	}

	actor := actorOrSystem(req.Actor)
	updated, err := s.applySalePlan(ctx, saleID, plan, actor, req.Reason)
	if err != nil {
		return transport.SaleResponse{}, err
	}

	s.log.StageChanged(domain.EntitySale, saleID, plan.From, updated.Stage, actor)
	s.bus.Publish(ctx, events.SaleStageChanged{
		BaseEvent: events.NewBaseEvent(),
		SaleID:    saleID,
		LeadID:    updated.LeadID,
		OldStage:  plan.From,
		NewStage:  updated.Stage,
		Actor:     actor,
	})
	s.publishSaleClose(ctx, updated)

	return toSaleResponse(updated), nil
}

func (s *Service) GetSale(ctx context.Context, saleID uuid.UUID) (transport.SaleResponse, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return transport.SaleResponse{}, ErrSaleNotFound
		}
		return transport.SaleResponse{}, err
	}
	return toSaleResponse(sale), nil
}

// GetSaleForLead resolves the sale a lead's transfer opened.
func (s *Service) GetSaleForLead(ctx context.Context, leadID uuid.UUID) (transport.SaleResponse, error) {
	sale, err := s.repo.GetSaleByLeadID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return transport.SaleResponse{}, ErrSaleNotFound
		}
		return transport.SaleResponse{}, err
	}
	return toSaleResponse(sale), nil
}

// applyLeadPlan writes an accepted plan. When another writer got in between
// the read and the locked re-check, it re-reads and re-plans once; a second
// collision surfaces as ErrConcurrentUpdate.
func (s *Service) applyLeadPlan(ctx context.Context, id uuid.UUID, plan lifecycle.LeadPlan, actor, reason string) (domain.Lead, error) {
	updated, err := s.repo.ApplyLeadTransition(ctx, leadTransitionParams(id, plan, actor, reason))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, repository.ErrStaleStage) {
		return domain.Lead{}, err
	}

	fresh, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Lead{}, ErrLeadNotFound
		}
		return domain.Lead{}, err
	}

	var replanned lifecycle.LeadPlan
	if plan.EventKind == domain.EventKindRollback {
		replanned, err = s.machine.PlanLeadRollback(fresh, reason)
	} else {
		replanned, err = s.machine.PlanLeadTransition(fresh, plan.To, reason)
	}
	if err != nil {
		return domain.Lead{}, err
	}
	if replanned.NoOp {
		return fresh, nil
	}

	updated, err = s.repo.ApplyLeadTransition(ctx, leadTransitionParams(id, replanned, actor, reason))
	if err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return domain.Lead{}, ErrConcurrentUpdate
		}
		return domain.Lead{}, err
	}
	return updated, nil
}

func (s *Service) applySalePlan(ctx context.Context, saleID uuid.UUID, plan lifecycle.SalePlan, actor, reason string) (domain.Sale, error) {
	updated, err := s.repo.ApplySaleTransition(ctx, saleTransitionParams(saleID, plan, actor, reason))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, repository.ErrStaleStage) {
		return domain.Sale{}, err
	}

	fresh, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return domain.Sale{}, ErrSaleNotFound
		}
		return domain.Sale{}, err
	}

	replanned, err := s.machine.PlanSaleTransition(fresh, plan.To, plan.AmountCents, reason, time.Now())
	if err != nil {
		return domain.Sale{}, err
	}
	if replanned.NoOp {
		return fresh, nil
	}

	updated, err = s.repo.ApplySaleTransition(ctx, saleTransitionParams(saleID, replanned, actor, reason))
	if err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return domain.Sale{}, ErrConcurrentUpdate
		}
		return domain.Sale{}, err
	}
	return updated, nil
}

func (s *Service) publishLeadStageChange(ctx context.Context, id uuid.UUID, from, to, actor, reason string) {
	s.log.StageChanged(domain.EntityLead, id, from, to, actor)
	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		OldStage:  from,
		NewStage:  to,
		Actor:     actor,
		Reason:    strings.TrimSpace(reason),
	})
}

func (s *Service) publishSaleClose(ctx context.Context, sale domain.Sale) {
	switch sale.Stage {
	case domain.SaleStagePaid:
		var amount int64
		if sale.AmountCents != nil {
			amount = *sale.AmountCents
		}
		var duration int
		if sale.DurationDays != nil {
			duration = *sale.DurationDays
		}
		// Best effort: the name only feeds notifications.
		var leadName string
		if lead, err := s.repo.GetLeadByID(ctx, sale.LeadID); err == nil {
			leadName = lead.FullName
		}
		s.bus.Publish(ctx, events.SaleClosedWon{
			BaseEvent:    events.NewBaseEvent(),
			SaleID:       sale.ID,
			LeadID:       sale.LeadID,
			LeadName:     leadName,
			AmountCents:  amount,
			DurationDays: duration,
		})
	case domain.SaleStageLost:
		var reason string
		if sale.LostReason != nil {
			reason = *sale.LostReason
		}
		s.bus.Publish(ctx, events.SaleClosedLost{
			BaseEvent: events.NewBaseEvent(),
			SaleID:    sale.ID,
			LeadID:    sale.LeadID,
			Reason:    reason,
		})
	}
}

func leadTransitionParams(id uuid.UUID, plan lifecycle.LeadPlan, actor, reason string) repository.ApplyLeadTransitionParams {
	return repository.ApplyLeadTransitionParams{
		LeadID:     id,
		FromStage:  plan.From,
		ToStage:    plan.To,
		LostReason: plan.LostReason,
		EventKind:  plan.EventKind,
		Actor:      actor,
		Reason:     historyReason(plan.LostReason, reason),
	}
}

func saleTransitionParams(id uuid.UUID, plan lifecycle.SalePlan, actor, reason string) repository.ApplySaleTransitionParams {
	return repository.ApplySaleTransitionParams{
		SaleID:       id,
		FromStage:    plan.From,
		ToStage:      plan.To,
		AmountCents:  plan.AmountCents,
		LostReason:   plan.LostReason,
		ClosedAt:     plan.ClosedAt,
		DurationDays: plan.DurationDays,
		Actor:        actor,
		Reason:       historyReason(plan.LostReason, reason),
	}
}

// historyReason picks what lands in the audit row: the lost reason when the
// move carries one, otherwise the caller's note if present.
func historyReason(lostReason *string, raw string) *string {
	if lostReason != nil {
		return lostReason
	}
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return &trimmed
	}
	return nil
}
