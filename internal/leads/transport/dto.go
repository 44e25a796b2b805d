package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs
type CreateLeadRequest struct {
	FullName       string `json:"fullName" validate:"required,min=1,max=200"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Source         string `json:"source" validate:"required,oneof=scanner partner manual"`
	BusinessDomain string `json:"businessDomain,omitempty" validate:"omitempty,max=200"`
}

// TransitionStageRequest moves a lead one stage forward, or to lost.
// Reason is mandatory for lost; the stage machine enforces that so the
// rule lives in one place.
type TransitionStageRequest struct {
	Stage  string `json:"stage" validate:"required,oneof=new contacted qualified transferred lost"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
	Actor  string `json:"actor,omitempty" validate:"omitempty,max=100"`
}

type RollbackStageRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
	Actor  string `json:"actor,omitempty" validate:"omitempty,max=100"`
}

type RecordMessagesRequest struct {
	Count int `json:"count" validate:"required,min=1,max=1000"`
}

type AssignLeadRequest struct {
	AssigneeID uuid.UUID `json:"assigneeId" validate:"required"`
	Actor      string    `json:"actor,omitempty" validate:"omitempty,max=100"`
}

type TransferLeadRequest struct {
	Actor string `json:"actor,omitempty" validate:"omitempty,max=100"`
}

type AdvanceSaleRequest struct {
	Stage       string `json:"stage" validate:"required,oneof=new kyc agreement paid lost"`
	AmountCents *int64 `json:"amountCents,omitempty" validate:"omitempty,min=0"`
	Reason      string `json:"reason,omitempty" validate:"omitempty,max=500"`
	Actor       string `json:"actor,omitempty" validate:"omitempty,max=100"`
}

type ListLeadsRequest struct {
	Stage       *string    `form:"stage" validate:"omitempty,oneof=new contacted qualified transferred lost"`
	Source      *string    `form:"source" validate:"omitempty,oneof=scanner partner manual"`
	QualityTier *string    `form:"qualityTier" validate:"omitempty,oneof=HOT WARM COLD DEAD"`
	AssignedTo  *uuid.UUID `form:"assignedTo" validate:"omitempty"`
	Search      string     `form:"search" validate:"max=100"`
	Page        int        `form:"page" validate:"min=0"`
	PageSize    int        `form:"pageSize" validate:"min=0,max=100"`
	SortBy      string     `form:"sortBy" validate:"omitempty,oneof=createdAt updatedAt aiScore messageCount"`
	SortOrder   string     `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// Response DTOs
type LeadResponse struct {
	ID               uuid.UUID  `json:"id"`
	FullName         string     `json:"fullName"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Source           string     `json:"source"`
	Stage            string     `json:"stage"`
	BusinessDomain   string     `json:"businessDomain,omitempty"`
	MessageCount     int        `json:"messageCount"`
	AIScore          *float64   `json:"aiScore,omitempty"`
	AIRecommendation *string    `json:"aiRecommendation,omitempty"`
	AIReason         *string    `json:"aiReason,omitempty"`
	LastAIAnalysisAt *time.Time `json:"lastAiAnalysisAt,omitempty"`
	QualityTier      *string    `json:"qualityTier,omitempty"`
	LostReason       *string    `json:"lostReason,omitempty"`
	AssignedTo       *uuid.UUID `json:"assignedTo,omitempty"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type SaleResponse struct {
	ID           uuid.UUID  `json:"id"`
	LeadID       uuid.UUID  `json:"leadId"`
	Stage        string     `json:"stage"`
	AmountCents  *int64     `json:"amountCents,omitempty"`
	LostReason   *string    `json:"lostReason,omitempty"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
	DurationDays *int       `json:"durationDays,omitempty"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TransferResponse carries both sides of the handoff.
type TransferResponse struct {
	Lead LeadResponse `json:"lead"`
	Sale SaleResponse `json:"sale"`
}

type AnalysisResponse struct {
	LeadID         uuid.UUID `json:"leadId"`
	Score          float64   `json:"score"`
	Recommendation string    `json:"recommendation"`
	Reason         string    `json:"reason"`
	QualityTier    string    `json:"qualityTier"`
	AnalyzedBy     string    `json:"analyzedBy"`
	AnalyzedAt     time.Time `json:"analyzedAt"`
	FromCache      bool      `json:"fromCache"`
}

type HistoryEntryResponse struct {
	ID         uuid.UUID `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   uuid.UUID `json:"entityId"`
	EventKind  string    `json:"eventKind"`
	OldValue   *string   `json:"oldValue,omitempty"`
	NewValue   string    `json:"newValue"`
	Actor      string    `json:"actor"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type HistoryListResponse struct {
	Items []HistoryEntryResponse `json:"items"`
}

type ScoreHistoryEntryResponse struct {
	ID             uuid.UUID `json:"id"`
	LeadID         uuid.UUID `json:"leadId"`
	Score          float64   `json:"score"`
	Recommendation string    `json:"recommendation"`
	Reason         string    `json:"reason"`
	AnalyzedBy     string    `json:"analyzedBy"`
	AnalyzedAt     time.Time `json:"analyzedAt"`
}

type ScoreHistoryListResponse struct {
	Items []ScoreHistoryEntryResponse `json:"items"`
}

// DuplicateCheckResponse reports a contact collision before a create is attempted.
type DuplicateCheckResponse struct {
	Duplicate  bool       `json:"duplicate"`
	ExistingID *uuid.UUID `json:"existingId,omitempty"`
	Field      string     `json:"field,omitempty"`
}
