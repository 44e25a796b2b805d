package advisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"leadflow_backend/internal/leads/domain"
)

func TestQuotaGuardCeiling(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	guard := newQuotaGuard(rdb, 2)
	ctx := context.Background()

	if err := guard.spend(ctx); err != nil {
		t.Fatalf("first spend unexpected error: %v", err)
	}
	if err := guard.spend(ctx); err != nil {
		t.Fatalf("second spend unexpected error: %v", err)
	}

	err = guard.spend(ctx)
	var quotaErr *domain.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("third spend = %v, want QuotaExceededError", err)
	}
	if quotaErr.Used != 3 || quotaErr.Ceiling != 2 {
		t.Errorf("QuotaExceededError = %+v, want used 3 of 2", quotaErr)
	}
}

func TestQuotaGuardKeyExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	guard := newQuotaGuard(rdb, 10)
	fixed := time.Date(2026, 3, 14, 23, 50, 0, 0, time.UTC)
	guard.now = func() time.Time { return fixed }

	if err := guard.spend(context.Background()); err != nil {
		t.Fatalf("spend unexpected error: %v", err)
	}

	key := quotaKeyPrefix + "2026-03-14"
	if !mr.Exists(key) {
		t.Fatalf("expected quota key %q to exist", key)
	}
	if ttl := mr.TTL(key); ttl != quotaKeyTTL {
		t.Errorf("quota key TTL = %v, want %v", ttl, quotaKeyTTL)
	}
}

func TestQuotaGuardSeparateDays(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	guard := newQuotaGuard(rdb, 1)
	day := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return day }

	if err := guard.spend(context.Background()); err != nil {
		t.Fatalf("spend unexpected error: %v", err)
	}
	if err := guard.spend(context.Background()); err == nil {
		t.Fatal("same-day spend over ceiling should fail")
	}

	// A new day starts a fresh budget.
	day = day.Add(24 * time.Hour)
	if err := guard.spend(context.Background()); err != nil {
		t.Errorf("next-day spend unexpected error: %v", err)
	}
}
