package advisor

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"leadflow_backend/internal/leads/domain"
)

const (
	quotaKeyPrefix = "ai:quota:"

	// quotaKeyTTL outlives the day it counts so clock skew around midnight
	// cannot reset the ceiling early.
	quotaKeyTTL = 48 * time.Hour
)

// quotaGuard meters primary scorer calls against a shared daily ceiling.
type quotaGuard struct {
	rdb     *redis.Client
	ceiling int
	now     func() time.Time
}

func newQuotaGuard(rdb *redis.Client, ceiling int) *quotaGuard {
	return &quotaGuard{rdb: rdb, ceiling: ceiling, now: time.Now}
}

// spend consumes one unit of today's budget. The check runs after the
// increment, so two racing calls cannot both slip under the wire.
func (q *quotaGuard) spend(ctx context.Context) error {
	key := quotaKeyPrefix + q.now().UTC().Format("2006-01-02")

	used, err := q.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if used == 1 {
		if err := q.rdb.Expire(ctx, key, quotaKeyTTL).Err(); err != nil {
			return err
		}
	}

	if int(used) > q.ceiling {
		return &domain.QuotaExceededError{Used: int(used), Ceiling: q.ceiling}
	}
	return nil
}
