// Package dedupe detects intake collisions against active leads before a
// new lead row is created.
package dedupe

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"leadflow_backend/platform/phone"
)

// Finder is the lookup surface the detector needs from the repository.
type Finder interface {
	FindLeadIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error)
	FindLeadIDByPhone(ctx context.Context, phone string) (uuid.UUID, bool, error)
}

// Match reports which field collided and with whom.
type Match struct {
	ExistingID uuid.UUID
	Field      string // email or phone
}

type Detector struct {
	repo Finder
}

func NewDetector(repo Finder) *Detector {
	return &Detector{repo: repo}
}

// Check looks for an active lead already holding the email or phone.
// Email is checked first, so when both fields collide the email match wins.
// Phone numbers are normalized to E.164 before comparison, so formatting
// variants of the same number collide. Both fields blank means no duplicate.
func (d *Detector) Check(ctx context.Context, email, phoneNumber string) (*Match, error) {
	email = strings.TrimSpace(email)
	phoneNumber = strings.TrimSpace(phoneNumber)

	if email != "" {
		id, found, err := d.repo.FindLeadIDByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if found {
			return &Match{ExistingID: id, Field: "email"}, nil
		}
	}

	if phoneNumber != "" {
		normalized := phone.NormalizeE164(phoneNumber)
		id, found, err := d.repo.FindLeadIDByPhone(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if found {
			return &Match{ExistingID: id, Field: "phone"}, nil
		}
	}

	return nil, nil
}
