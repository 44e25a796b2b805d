package service

import (
	"testing"

	"github.com/google/uuid"
)

func TestTransitionLimitersExhaustBurst(t *testing.T) {
	limiters := newTransitionLimiters(0.5, 2)
	id := uuid.New()

	if !limiters.allow(id) {
		t.Fatalf("expected first transition to be allowed")
	}
	if !limiters.allow(id) {
		t.Fatalf("expected second transition within burst to be allowed")
	}
	if limiters.allow(id) {
		t.Fatalf("expected third transition to exceed the burst")
	}
}

func TestTransitionLimitersPerEntity(t *testing.T) {
	limiters := newTransitionLimiters(0.5, 1)
	first := uuid.New()
	second := uuid.New()

	if !limiters.allow(first) {
		t.Fatalf("expected first entity to be allowed")
	}
	if limiters.allow(first) {
		t.Fatalf("expected first entity to be throttled after its burst")
	}
	if !limiters.allow(second) {
		t.Fatalf("expected second entity to have its own bucket")
	}
}

func TestMapSortKey(t *testing.T) {
	tests := []struct {
		sortBy string
		want   string
	}{
		{"createdAt", "created_at"},
		{"updatedAt", "updated_at"},
		{"aiScore", "ai_score"},
		{"messageCount", "message_count"},
		{"", "created_at"},
		{"drop table", "created_at"},
	}

	for _, tt := range tests {
		if got := mapSortKey(tt.sortBy); got != tt.want {
			t.Errorf("mapSortKey(%q) = %q, want %q", tt.sortBy, got, tt.want)
		}
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, defaultListLimit},
		{-5, defaultListLimit},
		{1, 1},
		{maxListLimit, maxListLimit},
		{maxListLimit + 1, maxListLimit},
	}

	for _, tt := range tests {
		if got := clampLimit(tt.limit); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestClampOffset(t *testing.T) {
	if got := clampOffset(-1); got != 0 {
		t.Errorf("clampOffset(-1) = %d, want 0", got)
	}
	if got := clampOffset(40); got != 40 {
		t.Errorf("clampOffset(40) = %d, want 40", got)
	}
}

func TestActorOrSystem(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain actor passes through", "alice@ops", "alice@ops"},
		{"blank defaults to system", "", "System"},
		{"whitespace defaults to system", "   ", "System"},
		{"html is stripped", "<b>alice</b>", "alice"},
		{"only markup defaults to system", "<script></script>", "System"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := actorOrSystem(tt.raw); got != tt.want {
				t.Errorf("actorOrSystem(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestHistoryReason(t *testing.T) {
	lost := "budget cut"

	if got := historyReason(&lost, "operator note"); got == nil || *got != lost {
		t.Fatalf("expected lost reason to win over the caller note, got %v", got)
	}
	if got := historyReason(nil, "  operator note  "); got == nil || *got != "operator note" {
		t.Fatalf("expected trimmed caller note, got %v", got)
	}
	if got := historyReason(nil, "   "); got != nil {
		t.Fatalf("expected nil reason for blank input, got %q", *got)
	}
}
