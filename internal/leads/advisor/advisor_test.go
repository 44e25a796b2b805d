package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/ai/scorer"
	"leadflow_backend/platform/logger"
)

type fakeRepo struct {
	mu    sync.Mutex
	lead  domain.Lead
	saved []repository.SaveAnalysisParams
}

func (f *fakeRepo) GetLeadByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.lead.ID {
		return domain.Lead{}, repository.ErrNotFound
	}
	return f.lead, nil
}

func (f *fakeRepo) SaveAnalysis(_ context.Context, params repository.SaveAnalysisParams) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, params)
	lead := f.lead
	lead.AIScore = &params.Score
	return lead, nil
}

type fakeScorer struct {
	mu     sync.Mutex
	result *scorer.Result
	err    error
	delay  time.Duration
	calls  int
}

func (f *fakeScorer) Name() string { return "test-model" }

func (f *fakeScorer) Score(_ context.Context, _ scorer.Payload) (*scorer.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

func (f *fakeScorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLead() domain.Lead {
	return domain.Lead{
		ID:           uuid.New(),
		FullName:     "Jan Jansen",
		Email:        "jan@example.com",
		Phone:        "+31612345678",
		Source:       domain.SourcePartner,
		Stage:        domain.LeadStageContacted,
		MessageCount: 6,
		CreatedAt:    time.Now().Add(-96 * time.Hour),
		UpdatedAt:    time.Now().Add(-2 * time.Hour),
	}
}

func newTestAdvisor(t *testing.T, repo Repo, primary scorer.Scorer, quota int) (*Advisor, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(repo, primary, rdb, Config{CacheTTL: time.Hour, DailyQuota: quota}, logger.New("development")), mr
}

func TestAnalyzePrimaryPathAndCacheHit(t *testing.T) {
	repo := &fakeRepo{lead: testLead()}
	primary := &fakeScorer{result: &scorer.Result{Score: 0.82, Recommendation: domain.RecommendationTransferToSales, Reason: "strong signals"}}
	adv, _ := newTestAdvisor(t, repo, primary, 100)

	result, err := adv.Analyze(context.Background(), repo.lead.ID, false)
	if err != nil {
		t.Fatalf("Analyze unexpected error: %v", err)
	}
	if result.FromCache {
		t.Error("first analysis should not come from cache")
	}
	if result.AnalyzedBy != domain.AnalyzedByPrimary || result.QualityTier != domain.TierHot {
		t.Errorf("result = %+v, want primary analysis in HOT tier", result)
	}

	if len(repo.saved) != 1 {
		t.Fatalf("SaveAnalysis called %d times, want 1", len(repo.saved))
	}
	saved := repo.saved[0]
	if saved.Model != "test-model" || saved.AnalyzedBy != domain.AnalyzedByPrimary || saved.InputHash == "" {
		t.Errorf("saved analysis = %+v, want primary model with input hash", saved)
	}

	// Identical inputs now come from the cache without a second scorer call.
	cached, err := adv.Analyze(context.Background(), repo.lead.ID, false)
	if err != nil {
		t.Fatalf("second Analyze unexpected error: %v", err)
	}
	if !cached.FromCache {
		t.Error("second analysis should come from cache")
	}
	if primary.callCount() != 1 {
		t.Errorf("scorer called %d times, want 1", primary.callCount())
	}
}

func TestAnalyzeForceSkipsCache(t *testing.T) {
	repo := &fakeRepo{lead: testLead()}
	primary := &fakeScorer{result: &scorer.Result{Score: 0.5, Recommendation: domain.RecommendationContinueNurturing, Reason: "steady"}}
	adv, _ := newTestAdvisor(t, repo, primary, 100)

	if _, err := adv.Analyze(context.Background(), repo.lead.ID, false); err != nil {
		t.Fatalf("Analyze unexpected error: %v", err)
	}
	result, err := adv.Analyze(context.Background(), repo.lead.ID, true)
	if err != nil {
		t.Fatalf("forced Analyze unexpected error: %v", err)
	}
	if result.FromCache {
		t.Error("forced analysis must not come from cache")
	}
	if primary.callCount() != 2 {
		t.Errorf("scorer called %d times, want 2", primary.callCount())
	}
}

func TestAnalyzeFallbackOnScorerFailure(t *testing.T) {
	tests := []struct {
		name   string
		scorer *fakeScorer
	}{
		{"transport error", &fakeScorer{err: errors.New("connection refused")}},
		{"score out of range", &fakeScorer{result: &scorer.Result{Score: 1.4, Recommendation: domain.RecommendationLost, Reason: "x"}}},
		{"unknown recommendation", &fakeScorer{result: &scorer.Result{Score: 0.5, Recommendation: "escalate", Reason: "x"}}},
		{"empty reason", &fakeScorer{result: &scorer.Result{Score: 0.5, Recommendation: domain.RecommendationLost, Reason: "  "}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{lead: testLead()}
			adv, _ := newTestAdvisor(t, repo, tc.scorer, 100)

			result, err := adv.Analyze(context.Background(), repo.lead.ID, false)
			if err != nil {
				t.Fatalf("Analyze unexpected error: %v", err)
			}
			if result.AnalyzedBy != domain.AnalyzedByFallback {
				t.Errorf("analyzed_by = %q, want fallback", result.AnalyzedBy)
			}
			if len(repo.saved) != 1 || repo.saved[0].Model != fallbackModel {
				t.Errorf("saved = %+v, want one rule-based entry", repo.saved)
			}
		})
	}
}

func TestAnalyzeQuotaExhaustedStopsHard(t *testing.T) {
	repo := &fakeRepo{lead: testLead()}
	primary := &fakeScorer{result: &scorer.Result{Score: 0.7, Recommendation: domain.RecommendationTransferToSales, Reason: "fine"}}
	adv, _ := newTestAdvisor(t, repo, primary, 1)

	if _, err := adv.Analyze(context.Background(), repo.lead.ID, false); err != nil {
		t.Fatalf("first Analyze unexpected error: %v", err)
	}

	_, err := adv.Analyze(context.Background(), repo.lead.ID, true)
	var quotaErr *domain.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("second Analyze = %v, want QuotaExceededError", err)
	}
	if quotaErr.Ceiling != 1 {
		t.Errorf("ceiling = %d, want 1", quotaErr.Ceiling)
	}
	// Over quota means no scorer call and no fallback write.
	if primary.callCount() != 1 {
		t.Errorf("scorer called %d times, want 1", primary.callCount())
	}
	if len(repo.saved) != 1 {
		t.Errorf("SaveAnalysis called %d times, want 1", len(repo.saved))
	}
}

func TestAnalyzeWithoutPrimarySkipsQuota(t *testing.T) {
	repo := &fakeRepo{lead: testLead()}
	adv, mr := newTestAdvisor(t, repo, nil, 100)

	result, err := adv.Analyze(context.Background(), repo.lead.ID, false)
	if err != nil {
		t.Fatalf("Analyze unexpected error: %v", err)
	}
	if result.AnalyzedBy != domain.AnalyzedByFallback {
		t.Errorf("analyzed_by = %q, want fallback", result.AnalyzedBy)
	}

	// The daily budget meters external calls only.
	for _, key := range mr.Keys() {
		if len(key) >= len(quotaKeyPrefix) && key[:len(quotaKeyPrefix)] == quotaKeyPrefix {
			t.Errorf("quota key %q written without a primary scorer", key)
		}
	}
}

func TestAnalyzeRejectsUnknownEnums(t *testing.T) {
	lead := testLead()
	lead.Source = "billboard"
	repo := &fakeRepo{lead: lead}
	primary := &fakeScorer{result: &scorer.Result{Score: 0.5, Recommendation: domain.RecommendationLost, Reason: "x"}}
	adv, _ := newTestAdvisor(t, repo, primary, 100)

	_, err := adv.Analyze(context.Background(), lead.ID, false)
	var fvErr *domain.FeatureValidationError
	if !errors.As(err, &fvErr) {
		t.Fatalf("Analyze = %v, want FeatureValidationError", err)
	}
	if fvErr.Field != "source" || fvErr.Value != "billboard" {
		t.Errorf("FeatureValidationError = %+v, want source/billboard", fvErr)
	}
	if primary.callCount() != 0 {
		t.Error("scorer must not run on invalid features")
	}
	if len(repo.saved) != 0 {
		t.Error("nothing may be persisted on invalid features")
	}
}

func TestAnalyzeIgnoresStaleCacheEntries(t *testing.T) {
	repo := &fakeRepo{lead: testLead()}
	primary := &fakeScorer{result: &scorer.Result{Score: 0.6, Recommendation: domain.RecommendationTransferToSales, Reason: "ok"}}
	adv, mr := newTestAdvisor(t, repo, primary, 100)

	// Seed an entry under the lead's current input hash whose recorded
	// inputs describe an older lead state.
	payload, err := ExtractFeatures(repo.lead, time.Now())
	if err != nil {
		t.Fatalf("ExtractFeatures unexpected error: %v", err)
	}
	stale := cachedAnalysis{
		Score:          0.9,
		Recommendation: domain.RecommendationTransferToSales,
		Reason:         "old",
		AnalyzedBy:     domain.AnalyzedByPrimary,
		AnalyzedAt:     time.Now().Add(-30 * time.Minute),
		MessageCount:   repo.lead.MessageCount - 3,
		Stage:          domain.LeadStageNew,
		BusinessDomain: repo.lead.BusinessDomain,
	}
	raw, _ := json.Marshal(stale)
	if err := mr.Set(cacheKeyPrefix+InputHash(payload), string(raw)); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	result, err := adv.Analyze(context.Background(), repo.lead.ID, false)
	if err != nil {
		t.Fatalf("Analyze unexpected error: %v", err)
	}
	if result.FromCache {
		t.Error("stale entry must be treated as a miss")
	}
	if primary.callCount() != 1 {
		t.Errorf("scorer called %d times, want 1", primary.callCount())
	}
}

func TestAnalyzeSharesConcurrentFlight(t *testing.T) {
	repo := &fakeRepo{lead: testLead()}
	primary := &fakeScorer{
		result: &scorer.Result{Score: 0.65, Recommendation: domain.RecommendationTransferToSales, Reason: "ok"},
		delay:  50 * time.Millisecond,
	}
	adv, _ := newTestAdvisor(t, repo, primary, 100)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := adv.Analyze(context.Background(), repo.lead.ID, true); err != nil {
				t.Errorf("concurrent Analyze unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if primary.callCount() != 1 {
		t.Errorf("scorer called %d times, want 1 shared flight", primary.callCount())
	}
}
