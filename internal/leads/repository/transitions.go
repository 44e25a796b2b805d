package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leadflow_backend/internal/leads/domain"
)

// historyParams is one append-only audit row, written inside the same
// transaction as the mutation it records.
type historyParams struct {
	EntityType string
	EntityID   uuid.UUID
	EventKind  string
	OldValue   *string
	NewValue   string
	Actor      string
	Reason     *string
}

func insertHistory(ctx context.Context, tx pgx.Tx, params historyParams) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lead_history (entity_type, entity_id, event_kind, old_value, new_value, actor, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, params.EntityType, params.EntityID, params.EventKind, params.OldValue, params.NewValue, params.Actor, params.Reason)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

func lockLead(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Lead, error) {
	var lead domain.Lead
	err := tx.QueryRow(ctx, `
		SELECT id, full_name, COALESCE(email, ''), COALESCE(phone, ''), source, stage,
			COALESCE(business_domain, ''), message_count, ai_score, ai_recommendation, ai_reason,
			last_ai_analysis_at, quality_tier, lost_reason, assigned_to, version,
			created_at, updated_at, deleted_at
		FROM leads WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, id).Scan(
		&lead.ID, &lead.FullName, &lead.Email, &lead.Phone, &lead.Source, &lead.Stage,
		&lead.BusinessDomain, &lead.MessageCount, &lead.AIScore, &lead.AIRecommendation, &lead.AIReason,
		&lead.LastAIAnalysisAt, &lead.QualityTier, &lead.LostReason, &lead.AssignedTo, &lead.Version,
		&lead.CreatedAt, &lead.UpdatedAt, &lead.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func lockSale(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Sale, error) {
	var sale domain.Sale
	err := tx.QueryRow(ctx, `
		SELECT id, lead_id, stage, amount_cents, lost_reason, closed_at, duration_days, version, created_at, updated_at
		FROM sales WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&sale.ID, &sale.LeadID, &sale.Stage, &sale.AmountCents, &sale.LostReason,
		&sale.ClosedAt, &sale.DurationDays, &sale.Version, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Sale{}, ErrSaleNotFound
	}
	return sale, err
}

type ApplyLeadTransitionParams struct {
	LeadID     uuid.UUID
	FromStage  string
	ToStage    string
	LostReason *string // set when ToStage is lost
	EventKind  string  // stage_change or rollback
	Actor      string
	Reason     *string
}

// ApplyLeadTransition moves a lead to an already-validated target stage.
// The row is locked, the stage re-checked against FromStage, and the stage
// update plus exactly one history entry commit or roll back together.
func (r *Repository) ApplyLeadTransition(ctx context.Context, params ApplyLeadTransitionParams) (domain.Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := lockLead(ctx, tx, params.LeadID)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Stage != params.FromStage {
		return domain.Lead{}, ErrStaleStage
	}

	err = tx.QueryRow(ctx, `
		UPDATE leads
		SET stage = $2, lost_reason = COALESCE($3, lost_reason), version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING stage, lost_reason, version, updated_at
	`, params.LeadID, params.ToStage, params.LostReason).Scan(
		&lead.Stage, &lead.LostReason, &lead.Version, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to update lead stage: %w", err)
	}

	oldStage := params.FromStage
	if err := insertHistory(ctx, tx, historyParams{
		EntityType: domain.EntityLead,
		EntityID:   params.LeadID,
		EventKind:  params.EventKind,
		OldValue:   &oldStage,
		NewValue:   params.ToStage,
		Actor:      params.Actor,
		Reason:     params.Reason,
	}); err != nil {
		return domain.Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

type ApplyTransferParams struct {
	LeadID    uuid.UUID
	FromStage string
	Actor     string
	Reason    *string
}

// ApplyTransfer moves a qualified lead to transferred and opens its sale in
// one transaction. Two history entries record the handoff: the lead's stage
// change and the sale's birth.
func (r *Repository) ApplyTransfer(ctx context.Context, params ApplyTransferParams) (domain.Lead, domain.Sale, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Lead{}, domain.Sale{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := lockLead(ctx, tx, params.LeadID)
	if err != nil {
		return domain.Lead{}, domain.Sale{}, err
	}
	if lead.Stage != params.FromStage {
		return domain.Lead{}, domain.Sale{}, ErrStaleStage
	}

	err = tx.QueryRow(ctx, `
		UPDATE leads
		SET stage = $2, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING stage, version, updated_at
	`, params.LeadID, domain.LeadStageTransferred).Scan(&lead.Stage, &lead.Version, &lead.UpdatedAt)
	if err != nil {
		return domain.Lead{}, domain.Sale{}, fmt.Errorf("failed to update lead stage: %w", err)
	}

	var sale domain.Sale
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (lead_id)
		VALUES ($1)
		RETURNING id, lead_id, stage, amount_cents, lost_reason, closed_at, duration_days, version, created_at, updated_at
	`, params.LeadID).Scan(
		&sale.ID, &sale.LeadID, &sale.Stage, &sale.AmountCents, &sale.LostReason,
		&sale.ClosedAt, &sale.DurationDays, &sale.Version, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, domain.Sale{}, fmt.Errorf("failed to create sale: %w", err)
	}

	oldStage := params.FromStage
	if err := insertHistory(ctx, tx, historyParams{
		EntityType: domain.EntityLead,
		EntityID:   params.LeadID,
		EventKind:  domain.EventKindStageChange,
		OldValue:   &oldStage,
		NewValue:   domain.LeadStageTransferred,
		Actor:      params.Actor,
		Reason:     params.Reason,
	}); err != nil {
		return domain.Lead{}, domain.Sale{}, err
	}
	if err := insertHistory(ctx, tx, historyParams{
		EntityType: domain.EntitySale,
		EntityID:   sale.ID,
		EventKind:  domain.EventKindStageChange,
		NewValue:   domain.SaleStageNew,
		Actor:      params.Actor,
	}); err != nil {
		return domain.Lead{}, domain.Sale{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, domain.Sale{}, err
	}
	return lead, sale, nil
}

type ApplySaleTransitionParams struct {
	SaleID       uuid.UUID
	FromStage    string
	ToStage      string
	AmountCents  *int64     // set when provided by the caller
	LostReason   *string    // set when ToStage is lost
	ClosedAt     *time.Time // set exactly once, when ToStage is paid
	DurationDays *int
	Actor        string
	Reason       *string
}

// ApplySaleTransition moves a sale to an already-validated target stage
// under the same lock-recheck-mutate-record contract as leads.
func (r *Repository) ApplySaleTransition(ctx context.Context, params ApplySaleTransitionParams) (domain.Sale, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sale, err := lockSale(ctx, tx, params.SaleID)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale.Stage != params.FromStage {
		return domain.Sale{}, ErrStaleStage
	}

	err = tx.QueryRow(ctx, `
		UPDATE sales
		SET stage = $2,
			amount_cents = COALESCE($3, amount_cents),
			lost_reason = COALESCE($4, lost_reason),
			closed_at = COALESCE($5, closed_at),
			duration_days = COALESCE($6, duration_days),
			version = version + 1,
			updated_at = now()
		WHERE id = $1
		RETURNING stage, amount_cents, lost_reason, closed_at, duration_days, version, updated_at
	`, params.SaleID, params.ToStage, params.AmountCents, params.LostReason, params.ClosedAt, params.DurationDays).Scan(
		&sale.Stage, &sale.AmountCents, &sale.LostReason, &sale.ClosedAt, &sale.DurationDays, &sale.Version, &sale.UpdatedAt,
	)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("failed to update sale stage: %w", err)
	}

	oldStage := params.FromStage
	if err := insertHistory(ctx, tx, historyParams{
		EntityType: domain.EntitySale,
		EntityID:   params.SaleID,
		EventKind:  domain.EventKindStageChange,
		OldValue:   &oldStage,
		NewValue:   params.ToStage,
		Actor:      params.Actor,
		Reason:     params.Reason,
	}); err != nil {
		return domain.Sale{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

type AssignLeadParams struct {
	LeadID     uuid.UUID
	AssigneeID uuid.UUID
	Actor      string
}

// AssignLead points a lead at an assignee and records the handover.
// Capacity checks happen in the assign package before this call.
func (r *Repository) AssignLead(ctx context.Context, params AssignLeadParams) (domain.Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := lockLead(ctx, tx, params.LeadID)
	if err != nil {
		return domain.Lead{}, err
	}

	var oldValue *string
	if lead.AssignedTo != nil {
		s := lead.AssignedTo.String()
		oldValue = &s
	}

	err = tx.QueryRow(ctx, `
		UPDATE leads
		SET assigned_to = $2, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING assigned_to, version, updated_at
	`, params.LeadID, params.AssigneeID).Scan(&lead.AssignedTo, &lead.Version, &lead.UpdatedAt)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to assign lead: %w", err)
	}

	if err := insertHistory(ctx, tx, historyParams{
		EntityType: domain.EntityLead,
		EntityID:   params.LeadID,
		EventKind:  domain.EventKindAssignmentChange,
		OldValue:   oldValue,
		NewValue:   params.AssigneeID.String(),
		Actor:      params.Actor,
	}); err != nil {
		return domain.Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// RecordNurture appends a nurture entry and touches the lead's activity
// clock so the next sweep skips it. The stage never changes.
func (r *Repository) RecordNurture(ctx context.Context, leadID uuid.UUID, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := lockLead(ctx, tx, leadID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE leads SET updated_at = now() WHERE id = $1`, leadID); err != nil {
		return fmt.Errorf("failed to touch lead: %w", err)
	}

	if err := insertHistory(ctx, tx, historyParams{
		EntityType: domain.EntityLead,
		EntityID:   leadID,
		EventKind:  domain.EventKindNurture,
		NewValue:   lead.Stage,
		Actor:      domain.ActorAutomation,
		Reason:     &reason,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
