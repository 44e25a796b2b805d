package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sale tracks a transferred lead through the sales pipeline.
// Exactly one sale exists per transferred lead.
type Sale struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	Stage        string
	AmountCents  *int64
	LostReason   *string
	ClosedAt     *time.Time
	DurationDays *int
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsClosed reports whether the deal has been settled, either way.
func (s *Sale) IsClosed() bool {
	return IsTerminalSaleStage(s.Stage)
}
