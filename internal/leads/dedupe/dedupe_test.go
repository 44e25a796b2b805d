package dedupe

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type fakeFinder struct {
	byEmail map[string]uuid.UUID
	byPhone map[string]uuid.UUID

	phoneQueries []string
}

func (f *fakeFinder) FindLeadIDByEmail(_ context.Context, email string) (uuid.UUID, bool, error) {
	id, ok := f.byEmail[email]
	return id, ok, nil
}

func (f *fakeFinder) FindLeadIDByPhone(_ context.Context, phone string) (uuid.UUID, bool, error) {
	f.phoneQueries = append(f.phoneQueries, phone)
	id, ok := f.byPhone[phone]
	return id, ok, nil
}

func TestCheckEmailWinsOverPhone(t *testing.T) {
	emailLead := uuid.New()
	phoneLead := uuid.New()
	finder := &fakeFinder{
		byEmail: map[string]uuid.UUID{"jan@example.com": emailLead},
		byPhone: map[string]uuid.UUID{"+31612345678": phoneLead},
	}
	detector := NewDetector(finder)

	match, err := detector.Check(context.Background(), "jan@example.com", "+31612345678")
	if err != nil {
		t.Fatalf("Check unexpected error: %v", err)
	}
	if match == nil || match.Field != "email" || match.ExistingID != emailLead {
		t.Errorf("Check = %+v, want email match on %s", match, emailLead)
	}
}

func TestCheckNormalizesPhoneVariants(t *testing.T) {
	existing := uuid.New()
	finder := &fakeFinder{
		byEmail: map[string]uuid.UUID{},
		byPhone: map[string]uuid.UUID{"+31612345678": existing},
	}
	detector := NewDetector(finder)

	// National formatting should collide with the stored E.164 form.
	match, err := detector.Check(context.Background(), "", "06 12 34 56 78")
	if err != nil {
		t.Fatalf("Check unexpected error: %v", err)
	}
	if match == nil || match.ExistingID != existing || match.Field != "phone" {
		t.Errorf("Check = %+v, want phone match on %s", match, existing)
	}
	if len(finder.phoneQueries) != 1 || finder.phoneQueries[0] != "+31612345678" {
		t.Errorf("phone queried as %v, want normalized +31612345678", finder.phoneQueries)
	}
}

func TestCheckNoContactMeansNoDuplicate(t *testing.T) {
	finder := &fakeFinder{byEmail: map[string]uuid.UUID{}, byPhone: map[string]uuid.UUID{}}
	detector := NewDetector(finder)

	match, err := detector.Check(context.Background(), "   ", "")
	if err != nil {
		t.Fatalf("Check unexpected error: %v", err)
	}
	if match != nil {
		t.Errorf("Check = %+v, want nil for blank contact fields", match)
	}
}
