package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"

	"github.com/google/uuid"
)

// Analyze scores a lead through the advisor pipeline. force bypasses the
// cache and always produces a fresh score.
func (s *Service) Analyze(ctx context.Context, id uuid.UUID, force bool) (transport.AnalysisResponse, error) {
	result, err := s.advisor.Analyze(ctx, id, force)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AnalysisResponse{}, ErrLeadNotFound
		}
		return transport.AnalysisResponse{}, err
	}

	if !result.FromCache {
		s.bus.Publish(ctx, events.LeadAnalyzed{
			BaseEvent:      events.NewBaseEvent(),
			LeadID:         id,
			Score:          result.Score,
			Recommendation: result.Recommendation,
			QualityTier:    result.QualityTier,
			AnalyzedBy:     result.AnalyzedBy,
		})
	}

	return transport.AnalysisResponse{
		LeadID:         result.LeadID,
		Score:          result.Score,
		Recommendation: result.Recommendation,
		Reason:         result.Reason,
		QualityTier:    result.QualityTier,
		AnalyzedBy:     result.AnalyzedBy,
		AnalyzedAt:     result.AnalyzedAt,
		FromCache:      result.FromCache,
	}, nil
}

// ScoreHistory returns a lead's scoring trend, newest first.
func (s *Service) ScoreHistory(ctx context.Context, leadID uuid.UUID, limit, offset int) (transport.ScoreHistoryListResponse, error) {
	if _, err := s.repo.GetLeadByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ScoreHistoryListResponse{}, ErrLeadNotFound
		}
		return transport.ScoreHistoryListResponse{}, err
	}

	entries, err := s.repo.ListScoreHistory(ctx, leadID, clampLimit(limit), clampOffset(offset))
	if err != nil {
		return transport.ScoreHistoryListResponse{}, err
	}

	items := make([]transport.ScoreHistoryEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = transport.ScoreHistoryEntryResponse{
			ID:             entry.ID,
			LeadID:         entry.LeadID,
			Score:          entry.Score,
			Recommendation: entry.Recommendation,
			Reason:         entry.Reason,
			AnalyzedBy:     entry.AnalyzedBy,
			AnalyzedAt:     entry.AnalyzedAt,
		}
	}
	return transport.ScoreHistoryListResponse{Items: items}, nil
}

// NurtureSweep flags early-funnel leads that have sat still past the
// configured window. Each flagged lead gets a nurture history entry; the
// touch also resets the activity clock, so a lead is flagged once per
// window, not once per sweep. Returns how many leads were flagged.
func (s *Service) NurtureSweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.NurtureAfter)
	stale, err := s.repo.ListStaleLeads(ctx, []string{domain.LeadStageNew, domain.LeadStageContacted}, cutoff, nurtureBatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, lead := range stale {
		days := int(time.Since(lead.UpdatedAt).Hours() / 24)
		reason := fmt.Sprintf("NURTURE: no activity for %d days in stage %s", days, lead.Stage)
		if err := s.repo.RecordNurture(ctx, lead.ID, reason); err != nil {
			// One bad row should not sink the sweep.
			s.log.DatabaseError("record_nurture", err)
			continue
		}
		swept++
	}
	return swept, nil
}

// StaleAnalysisCandidates lists ids of active leads whose last analysis is
// missing or older than the configured window. The scheduler fans these out
// as individual analyze tasks.
func (s *Service) StaleAnalysisCandidates(ctx context.Context, limit int) ([]uuid.UUID, error) {
	cutoff := time.Now().Add(-s.cfg.AnalysisStaleAfter)
	return s.repo.ListStaleAnalyses(ctx, cutoff, clampLimit(limit))
}
