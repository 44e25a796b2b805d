package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/leads/domain"
)

var (
	ErrNotFound     = errors.New("lead not found")
	ErrSaleNotFound = errors.New("sale not found")

	// ErrStaleStage means the row's stage changed between the caller's read
	// and the locked write. Callers re-read and re-validate.
	ErrStaleStage = errors.New("stage changed concurrently")

	// Unique index violations on active (non-deleted) leads.
	ErrDuplicateEmail = errors.New("email already belongs to an active lead")
	ErrDuplicatePhone = errors.New("phone already belongs to an active lead")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type CreateLeadParams struct {
	FullName       string
	Email          string
	Phone          string
	Source         string
	BusinessDomain string
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (full_name, email, phone, source, business_domain)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''))
		RETURNING id, full_name, COALESCE(email, ''), COALESCE(phone, ''), source, stage,
			COALESCE(business_domain, ''), message_count, ai_score, ai_recommendation, ai_reason,
			last_ai_analysis_at, quality_tier, lost_reason, assigned_to, version,
			created_at, updated_at, deleted_at
	`, params.FullName, params.Email, params.Phone, params.Source, params.BusinessDomain).Scan(
		&lead.ID, &lead.FullName, &lead.Email, &lead.Phone, &lead.Source, &lead.Stage,
		&lead.BusinessDomain, &lead.MessageCount, &lead.AIScore, &lead.AIRecommendation, &lead.AIReason,
		&lead.LastAIAnalysisAt, &lead.QualityTier, &lead.LostReason, &lead.AssignedTo, &lead.Version,
		&lead.CreatedAt, &lead.UpdatedAt, &lead.DeletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return domain.Lead{}, ErrDuplicateEmail
			}
			return domain.Lead{}, ErrDuplicatePhone
		}
		return domain.Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetLeadByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, COALESCE(email, ''), COALESCE(phone, ''), source, stage,
			COALESCE(business_domain, ''), message_count, ai_score, ai_recommendation, ai_reason,
			last_ai_analysis_at, quality_tier, lost_reason, assigned_to, version,
			created_at, updated_at, deleted_at
		FROM leads WHERE id = $1 AND deleted_at IS NULL
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

// FindLeadIDByEmail returns the id of the newest active lead with the given
// email, case-insensitively. The bool reports whether a match exists.
func (r *Repository) FindLeadIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM leads
		WHERE lower(email) = lower($1) AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// FindLeadIDByPhone returns the id of the newest active lead with the given
// phone. Callers normalize the number before lookup.
func (r *Repository) FindLeadIDByPhone(ctx context.Context, phone string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM leads
		WHERE phone = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`, phone).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

type ListLeadsParams struct {
	Stage       *string
	Source      *string
	QualityTier *string
	AssignedTo  *uuid.UUID
	Search      string
	SortBy      string
	SortOrder   string
	Limit       int
	Offset      int
}

func (r *Repository) ListLeads(ctx context.Context, params ListLeadsParams) ([]domain.Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortColumn := mapLeadSortColumn(params.SortBy)
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)

	query := fmt.Sprintf(`
		SELECT id, full_name, COALESCE(email, ''), COALESCE(phone, ''), source, stage,
			COALESCE(business_domain, ''), message_count, ai_score, ai_recommendation, ai_reason,
			last_ai_analysis_at, quality_tier, lost_reason, assigned_to, version,
			created_at, updated_at, deleted_at
		FROM leads
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
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
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func buildLeadListWhere(params ListLeadsParams) (string, []interface{}, int) {
	whereClauses := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	argIdx := 1

	addEquals := func(column string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Stage != nil {
		addEquals("stage", *params.Stage)
	}
	if params.Source != nil {
		addEquals("source", *params.Source)
	}
	if params.QualityTier != nil {
		addEquals("quality_tier", *params.QualityTier)
	}
	if params.AssignedTo != nil {
		addEquals("assigned_to", *params.AssignedTo)
	}
	if params.Search != "" {
		searchPattern := "%" + params.Search + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(full_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			argIdx, argIdx, argIdx,
		))
		args = append(args, searchPattern)
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func mapLeadSortColumn(sortBy string) string {
	switch sortBy {
	case "updated_at":
		return "updated_at"
	case "ai_score":
		return "ai_score"
	case "message_count":
		return "message_count"
	default:
		return "created_at"
	}
}

// RecordMessages adds count to the lead's message counter and touches
// updated_at, which also feeds the activity clock.
func (r *Repository) RecordMessages(ctx context.Context, id uuid.UUID, count int) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET message_count = message_count + $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, full_name, COALESCE(email, ''), COALESCE(phone, ''), source, stage,
			COALESCE(business_domain, ''), message_count, ai_score, ai_recommendation, ai_reason,
			last_ai_analysis_at, quality_tier, lost_reason, assigned_to, version,
			created_at, updated_at, deleted_at
	`, id, count).Scan(
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

func (r *Repository) SoftDeleteLead(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE leads SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) RestoreLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		UPDATE leads SET deleted_at = NULL, updated_at = now()
		WHERE id = $1 AND deleted_at IS NOT NULL
		RETURNING id, full_name, COALESCE(email, ''), COALESCE(phone, ''), source, stage,
			COALESCE(business_domain, ''), message_count, ai_score, ai_recommendation, ai_reason,
			last_ai_analysis_at, quality_tier, lost_reason, assigned_to, version,
			created_at, updated_at, deleted_at
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

func (r *Repository) GetSaleByID(ctx context.Context, id uuid.UUID) (domain.Sale, error) {
	var sale domain.Sale
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, stage, amount_cents, lost_reason, closed_at, duration_days, version, created_at, updated_at
		FROM sales WHERE id = $1
	`, id).Scan(
		&sale.ID, &sale.LeadID, &sale.Stage, &sale.AmountCents, &sale.LostReason,
		&sale.ClosedAt, &sale.DurationDays, &sale.Version, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Sale{}, ErrSaleNotFound
	}
	return sale, err
}

func (r *Repository) GetSaleByLeadID(ctx context.Context, leadID uuid.UUID) (domain.Sale, error) {
	var sale domain.Sale
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, stage, amount_cents, lost_reason, closed_at, duration_days, version, created_at, updated_at
		FROM sales WHERE lead_id = $1
	`, leadID).Scan(
		&sale.ID, &sale.LeadID, &sale.Stage, &sale.AmountCents, &sale.LostReason,
		&sale.ClosedAt, &sale.DurationDays, &sale.Version, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Sale{}, ErrSaleNotFound
	}
	return sale, err
}

// CountActiveLeads recomputes the assignee's load from ground truth. Never
// cached and never maintained incrementally.
func (r *Repository) CountActiveLeads(ctx context.Context, assigneeID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM leads
		WHERE assigned_to = $1 AND deleted_at IS NULL AND stage NOT IN ($2, $3)
	`, assigneeID, domain.LeadStageTransferred, domain.LeadStageLost).Scan(&count)
	return count, err
}
