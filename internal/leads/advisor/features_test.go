package advisor

import (
	"errors"
	"testing"
	"time"

	"leadflow_backend/internal/leads/domain"
)

func TestExtractFeaturesVelocity(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name         string
		messageCount int
		age          time.Duration
		wantDays     int
		wantVelocity float64
	}{
		{"fresh lead clamps to one day", 4, 30 * time.Minute, 1, 4.0},
		{"two full days", 7, 49 * time.Hour, 2, 3.5},
		{"repeating fraction rounds to 3 decimals", 1, 73 * time.Hour, 3, 0.333},
		{"silent lead", 0, 10 * 24 * time.Hour, 10, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lead := domain.Lead{
				Source:       domain.SourceScanner,
				Stage:        domain.LeadStageNew,
				MessageCount: tc.messageCount,
				CreatedAt:    now.Add(-tc.age),
				UpdatedAt:    now,
			}
			payload, err := ExtractFeatures(lead, now)
			if err != nil {
				t.Fatalf("ExtractFeatures unexpected error: %v", err)
			}
			if payload.DaysSinceCreated != tc.wantDays {
				t.Errorf("days_since_created = %d, want %d", payload.DaysSinceCreated, tc.wantDays)
			}
			if payload.MessageVelocity != tc.wantVelocity {
				t.Errorf("message_velocity = %v, want %v", payload.MessageVelocity, tc.wantVelocity)
			}
		})
	}
}

func TestExtractFeaturesContactCompleteness(t *testing.T) {
	now := time.Now()
	base := domain.Lead{
		Source:    domain.SourceManual,
		Stage:     domain.LeadStageNew,
		CreatedAt: now.Add(-48 * time.Hour),
		UpdatedAt: now,
	}

	tests := []struct {
		email string
		phone string
		want  bool
	}{
		{"a@b.com", "+31612345678", true},
		{"a@b.com", "", false},
		{"", "+31612345678", false},
		{"", "", false},
	}

	for _, tc := range tests {
		lead := base
		lead.Email = tc.email
		lead.Phone = tc.phone
		payload, err := ExtractFeatures(lead, now)
		if err != nil {
			t.Fatalf("ExtractFeatures unexpected error: %v", err)
		}
		if payload.ContactCompleteness != tc.want {
			t.Errorf("contact_completeness with email=%q phone=%q = %v, want %v", tc.email, tc.phone, payload.ContactCompleteness, tc.want)
		}
	}
}

func TestExtractFeaturesRejectsUnknownEnums(t *testing.T) {
	now := time.Now()

	lead := domain.Lead{Source: "carrier_pigeon", Stage: domain.LeadStageNew, CreatedAt: now, UpdatedAt: now}
	_, err := ExtractFeatures(lead, now)
	var fvErr *domain.FeatureValidationError
	if !errors.As(err, &fvErr) || fvErr.Field != "source" {
		t.Errorf("unknown source = %v, want FeatureValidationError on source", err)
	}

	lead = domain.Lead{Source: domain.SourceManual, Stage: "estimation", CreatedAt: now, UpdatedAt: now}
	_, err = ExtractFeatures(lead, now)
	if !errors.As(err, &fvErr) || fvErr.Field != "stage" {
		t.Errorf("unknown stage = %v, want FeatureValidationError on stage", err)
	}
}

func TestInputHashIsStableAndSensitive(t *testing.T) {
	now := time.Now()
	lead := domain.Lead{
		Source:       domain.SourcePartner,
		Stage:        domain.LeadStageContacted,
		Email:        "a@b.com",
		MessageCount: 3,
		CreatedAt:    now.Add(-72 * time.Hour),
		UpdatedAt:    now,
	}

	first, err := ExtractFeatures(lead, now)
	if err != nil {
		t.Fatalf("ExtractFeatures unexpected error: %v", err)
	}
	second, err := ExtractFeatures(lead, now)
	if err != nil {
		t.Fatalf("ExtractFeatures unexpected error: %v", err)
	}
	if InputHash(first) != InputHash(second) {
		t.Error("identical payloads must hash identically")
	}

	lead.MessageCount = 4
	changed, err := ExtractFeatures(lead, now)
	if err != nil {
		t.Fatalf("ExtractFeatures unexpected error: %v", err)
	}
	if InputHash(first) == InputHash(changed) {
		t.Error("changed inputs must change the hash")
	}
}
