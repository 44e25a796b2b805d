package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/domain"
)

type SaveAnalysisParams struct {
	LeadID         uuid.UUID
	Score          float64
	Recommendation string
	Reason         string
	QualityTier    string
	AnalyzedBy     string // primary or fallback
	AnalyzedAt     time.Time
	InputHash      string
	LatencyMS      int64
	Model          string
}

// SaveAnalysis persists one scoring outcome: the lead's advisory fields,
// a score history entry, and a scorer audit row, atomically.
func (r *Repository) SaveAnalysis(ctx context.Context, params SaveAnalysisParams) (domain.Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := lockLead(ctx, tx, params.LeadID)
	if err != nil {
		return domain.Lead{}, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE leads
		SET ai_score = $2, ai_recommendation = $3, ai_reason = $4, quality_tier = $5,
			last_ai_analysis_at = $6, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING ai_score, ai_recommendation, ai_reason, quality_tier, last_ai_analysis_at, version, updated_at
	`, params.LeadID, params.Score, params.Recommendation, params.Reason, params.QualityTier, params.AnalyzedAt).Scan(
		&lead.AIScore, &lead.AIRecommendation, &lead.AIReason, &lead.QualityTier,
		&lead.LastAIAnalysisAt, &lead.Version, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to update lead analysis fields: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO score_history (lead_id, score, recommendation, reason, analyzed_by, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, params.LeadID, params.Score, params.Recommendation, params.Reason, params.AnalyzedBy, params.AnalyzedAt); err != nil {
		return domain.Lead{}, fmt.Errorf("failed to insert score history: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO scorer_audit (lead_id, input_hash, score, recommendation, latency_ms, is_fallback, model)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, params.LeadID, params.InputHash, params.Score, params.Recommendation, params.LatencyMS,
		params.AnalyzedBy == domain.AnalyzedByFallback, params.Model); err != nil {
		return domain.Lead{}, fmt.Errorf("failed to insert scorer audit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// ListScoreHistory returns a lead's scoring trend, newest first.
func (r *Repository) ListScoreHistory(ctx context.Context, leadID uuid.UUID, limit, offset int) ([]domain.ScoreHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, score, recommendation, reason, analyzed_by, analyzed_at
		FROM score_history
		WHERE lead_id = $1
		ORDER BY analyzed_at DESC
		LIMIT $2 OFFSET $3
	`, leadID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ScoreHistoryEntry, 0)
	for rows.Next() {
		var entry domain.ScoreHistoryEntry
		if err := rows.Scan(
			&entry.ID, &entry.LeadID, &entry.Score, &entry.Recommendation,
			&entry.Reason, &entry.AnalyzedBy, &entry.AnalyzedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}

// ListStaleLeads returns active early-funnel leads whose activity clock is
// older than the cutoff, oldest first. Used by the nurture sweep.
func (r *Repository) ListStaleLeads(ctx context.Context, stages []string, cutoff time.Time, limit int) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, COALESCE(email, ''), COALESCE(phone, ''), source, stage,
			COALESCE(business_domain, ''), message_count, ai_score, ai_recommendation, ai_reason,
			last_ai_analysis_at, quality_tier, lost_reason, assigned_to, version,
			created_at, updated_at, deleted_at
		FROM leads
		WHERE stage = ANY($1) AND deleted_at IS NULL AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`, stages, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(
			&lead.ID, &lead.FullName, &lead.Email, &lead.Phone, &lead.Source, &lead.Stage,
			&lead.BusinessDomain, &lead.MessageCount, &lead.AIScore, &lead.AIRecommendation, &lead.AIReason,
			&lead.LastAIAnalysisAt, &lead.QualityTier, &lead.LostReason, &lead.AssignedTo, &lead.Version,
			&lead.CreatedAt, &lead.UpdatedAt, &lead.DeletedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

// ListStaleAnalyses returns ids of active leads whose last analysis is
// missing or older than the cutoff. Used by the re-analysis sweep.
func (r *Repository) ListStaleAnalyses(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM leads
		WHERE deleted_at IS NULL
			AND stage NOT IN ($1, $2)
			AND (last_ai_analysis_at IS NULL OR last_ai_analysis_at < $3)
		ORDER BY last_ai_analysis_at ASC NULLS FIRST
		LIMIT $4
	`, domain.LeadStageTransferred, domain.LeadStageLost, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}
