// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the funnel.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Source   string    `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStageChanged is published on every lead funnel move, including
// rollbacks and marks as lost.
type LeadStageChanged struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	OldStage string    `json:"oldStage"`
	NewStage string    `json:"newStage"`
	Actor    string    `json:"actor"`
	Reason   string    `json:"reason,omitempty"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// LeadAssigned is published when a lead changes owner.
type LeadAssigned struct {
	BaseEvent
	LeadID        uuid.UUID  `json:"leadId"`
	PreviousOwner *uuid.UUID `json:"previousOwner,omitempty"`
	NewOwner      uuid.UUID  `json:"newOwner"`
	Actor         string     `json:"actor"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// LeadAnalyzed is published when an AI analysis lands on a lead.
// Cache hits do not publish; only fresh scores do.
type LeadAnalyzed struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	Score          float64   `json:"score"`
	Recommendation string    `json:"recommendation"`
	QualityTier    string    `json:"qualityTier"`
	AnalyzedBy     string    `json:"analyzedBy"`
}

func (e LeadAnalyzed) EventName() string { return "leads.analyzed" }

// LeadTransferred is published when a lead crosses into the sales pipeline.
type LeadTransferred struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	SaleID   uuid.UUID `json:"saleId"`
	FullName string    `json:"fullName"`
	AIScore  float64   `json:"aiScore"`
	Actor    string    `json:"actor"`
}

func (e LeadTransferred) EventName() string { return "leads.transferred" }

// =============================================================================
// Sale Domain Events
// =============================================================================

// SaleStageChanged is published on every sale pipeline move.
type SaleStageChanged struct {
	BaseEvent
	SaleID   uuid.UUID `json:"saleId"`
	LeadID   uuid.UUID `json:"leadId"`
	OldStage string    `json:"oldStage"`
	NewStage string    `json:"newStage"`
	Actor    string    `json:"actor"`
}

func (e SaleStageChanged) EventName() string { return "sales.stage.changed" }

// SaleClosedWon is published when a sale reaches paid. Downstream handlers
// use it for revenue notifications.
type SaleClosedWon struct {
	BaseEvent
	SaleID       uuid.UUID `json:"saleId"`
	LeadID       uuid.UUID `json:"leadId"`
	LeadName     string    `json:"leadName"`
	AmountCents  int64     `json:"amountCents"`
	DurationDays int       `json:"durationDays"`
}

func (e SaleClosedWon) EventName() string { return "sales.closed_won" }

// SaleClosedLost is published when a sale is marked lost.
type SaleClosedLost struct {
	BaseEvent
	SaleID uuid.UUID `json:"saleId"`
	LeadID uuid.UUID `json:"leadId"`
	Reason string    `json:"reason"`
}

func (e SaleClosedLost) EventName() string { return "sales.closed_lost" }

// =============================================================================
// Attachment Domain Events
// =============================================================================

// AttachmentUploaded is published when a lead attachment upload is confirmed.
type AttachmentUploaded struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	AttachmentID uuid.UUID `json:"attachmentId"`
	FileName     string    `json:"fileName"`
	FileKey      string    `json:"fileKey"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
}

func (e AttachmentUploaded) EventName() string { return "leads.attachment.uploaded" }
