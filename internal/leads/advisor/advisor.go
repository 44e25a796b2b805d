// Package advisor orchestrates lead analysis: feature extraction, cache,
// daily quota, the primary scorer, and the rule-based fallback. Its output
// is advisory. Nothing here ever moves a stage.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/ai/scorer"
	"leadflow_backend/platform/logger"
)

// Repo is the persistence surface the advisor needs.
type Repo interface {
	GetLeadByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	SaveAnalysis(ctx context.Context, params repository.SaveAnalysisParams) (domain.Lead, error)
}

type Config struct {
	CacheTTL   time.Duration
	DailyQuota int
}

type Advisor struct {
	repo    Repo
	primary scorer.Scorer // nil runs every analysis on the fallback
	cache   *analysisCache
	quota   *quotaGuard
	log     *logger.Logger
	group   singleflight.Group
	now     func() time.Time
}

func New(repo Repo, primary scorer.Scorer, rdb *redis.Client, cfg Config, log *logger.Logger) *Advisor {
	return &Advisor{
		repo:    repo,
		primary: primary,
		cache:   newAnalysisCache(rdb, cfg.CacheTTL, log),
		quota:   newQuotaGuard(rdb, cfg.DailyQuota),
		log:     log,
		now:     time.Now,
	}
}

// Analyze scores one lead. force skips the cache but never the quota.
//
// The scorer call happens before any row lock is taken; only the persist
// step touches the lead row. Concurrent calls for the same lead and the
// same inputs share a single in-flight scorer call.
func (a *Advisor) Analyze(ctx context.Context, leadID uuid.UUID, force bool) (*domain.AIAnalysisResult, error) {
	lead, err := a.repo.GetLeadByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	payload, err := ExtractFeatures(lead, a.now())
	if err != nil {
		var fvErr *domain.FeatureValidationError
		if errors.As(err, &fvErr) {
			a.log.FeatureValidationFailed(lead.ID, fvErr.Field, fvErr.Value)
		}
		return nil, err
	}
	inputHash := InputHash(payload)

	if !force {
		if entry := a.cache.get(ctx, inputHash); entry != nil && !entry.staleFor(lead) {
			return &domain.AIAnalysisResult{
				LeadID:         lead.ID,
				Score:          entry.Score,
				Recommendation: entry.Recommendation,
				Reason:         entry.Reason,
				QualityTier:    domain.QualityTierFor(entry.Score),
				AnalyzedBy:     entry.AnalyzedBy,
				AnalyzedAt:     entry.AnalyzedAt,
				FromCache:      true,
			}, nil
		}
	}

	flightKey := lead.ID.String() + ":" + inputHash
	v, err, _ := a.group.Do(flightKey, func() (interface{}, error) {
		return a.analyzeOnce(ctx, lead, payload, inputHash)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.AIAnalysisResult), nil
}

func (a *Advisor) analyzeOnce(ctx context.Context, lead domain.Lead, payload scorer.Payload, inputHash string) (*domain.AIAnalysisResult, error) {
	usePrimary := a.primary != nil

	if usePrimary {
		if err := a.quota.spend(ctx); err != nil {
			var quotaErr *domain.QuotaExceededError
			if errors.As(err, &quotaErr) {
				a.log.QuotaExhausted(lead.ID, quotaErr.Used, quotaErr.Ceiling)
				return nil, err
			}
			// Quota store unreachable: protect the budget by skipping the
			// paid scorer, keep the workflow alive on the fallback.
			a.log.Warn("quota check failed, skipping primary scorer", "lead_id", lead.ID.String(), "error", err)
			usePrimary = false
		}
	}

	start := time.Now()
	var result *scorer.Result
	analyzedBy := domain.AnalyzedByFallback
	model := fallbackModel

	if usePrimary {
		res, err := a.primary.Score(ctx, payload)
		if err == nil {
			err = validateResult(res)
		}
		if err != nil {
			a.log.ScorerUnavailable(lead.ID, &domain.ScorerUnavailableError{Provider: a.primary.Name(), Err: err})
		} else {
			result = res
			analyzedBy = domain.AnalyzedByPrimary
			model = a.primary.Name()
		}
	}
	if result == nil {
		result = FallbackScore(lead)
	}
	latencyMS := time.Since(start).Milliseconds()

	analyzedAt := a.now().UTC()
	tier := domain.QualityTierFor(result.Score)

	if _, err := a.repo.SaveAnalysis(ctx, repository.SaveAnalysisParams{
		LeadID:         lead.ID,
		Score:          result.Score,
		Recommendation: result.Recommendation,
		Reason:         result.Reason,
		QualityTier:    tier,
		AnalyzedBy:     analyzedBy,
		AnalyzedAt:     analyzedAt,
		InputHash:      inputHash,
		LatencyMS:      latencyMS,
		Model:          model,
	}); err != nil {
		return nil, err
	}

	a.cache.put(ctx, inputHash, cachedAnalysis{
		Score:          result.Score,
		Recommendation: result.Recommendation,
		Reason:         result.Reason,
		AnalyzedBy:     analyzedBy,
		AnalyzedAt:     analyzedAt,
		MessageCount:   lead.MessageCount,
		Stage:          lead.Stage,
		BusinessDomain: lead.BusinessDomain,
	})

	a.log.AnalysisCompleted(lead.ID, result.Score, result.Recommendation, analyzedBy == domain.AnalyzedByFallback, latencyMS)

	return &domain.AIAnalysisResult{
		LeadID:         lead.ID,
		Score:          result.Score,
		Recommendation: result.Recommendation,
		Reason:         result.Reason,
		QualityTier:    tier,
		AnalyzedBy:     analyzedBy,
		AnalyzedAt:     analyzedAt,
	}, nil
}

// validateResult enforces the scorer response contract. Anything outside it
// is indistinguishable from an outage and routes to the fallback.
func validateResult(res *scorer.Result) error {
	if res == nil {
		return errors.New("empty scorer result")
	}
	if res.Score < 0 || res.Score > 1 {
		return fmt.Errorf("score %v out of range", res.Score)
	}
	if !domain.IsKnownRecommendation(res.Recommendation) {
		return fmt.Errorf("unknown recommendation %q", res.Recommendation)
	}
	if strings.TrimSpace(res.Reason) == "" {
		return errors.New("empty reason")
	}
	return nil
}
