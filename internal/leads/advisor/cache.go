package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/logger"
)

const cacheKeyPrefix = "ai:lead:analysis:"

// cachedAnalysis is one cache entry. It carries the inputs that produced
// the result so staleness is decided against data, not guesses.
type cachedAnalysis struct {
	Score          float64   `json:"score"`
	Recommendation string    `json:"recommendation"`
	Reason         string    `json:"reason"`
	AnalyzedBy     string    `json:"analyzed_by"`
	AnalyzedAt     time.Time `json:"analyzed_at"`

	MessageCount   int    `json:"message_count"`
	Stage          string `json:"stage"`
	BusinessDomain string `json:"business_domain"`
}

// staleFor reports whether the entry no longer describes the lead.
func (c *cachedAnalysis) staleFor(lead domain.Lead) bool {
	return c.MessageCount != lead.MessageCount ||
		c.Stage != lead.Stage ||
		c.BusinessDomain != lead.BusinessDomain
}

// analysisCache stores scoring results in Redis. An unreachable Redis is
// treated as a cache miss, never as an analysis failure.
type analysisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func newAnalysisCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *analysisCache {
	return &analysisCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *analysisCache) get(ctx context.Context, inputHash string) *cachedAnalysis {
	raw, err := c.rdb.Get(ctx, cacheKeyPrefix+inputHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		c.log.Warn("analysis cache read failed", "error", err)
		return nil
	}

	var entry cachedAnalysis
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn("analysis cache entry corrupt", "error", err)
		return nil
	}
	return &entry
}

func (c *analysisCache) put(ctx context.Context, inputHash string, entry cachedAnalysis) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+inputHash, raw, c.ttl).Err(); err != nil {
		c.log.Warn("analysis cache write failed", "error", err)
	}
}
