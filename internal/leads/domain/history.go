package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds recorded in the history log.
const (
	EventKindStageChange      = "stage_change"
	EventKindAssignmentChange = "assignment_change"
	EventKindNoteAdded        = "note_added"
	EventKindNurture          = "nurture"
	EventKindRollback         = "rollback"
)

// Who produced a score.
const (
	AnalyzedByPrimary  = "primary"
	AnalyzedByFallback = "fallback"
)

// Note types.
const (
	NoteTypeComment = "comment"
	NoteTypeCall    = "call"
	NoteTypeEmail   = "email"
	NoteTypeSystem  = "system"
)

// HistoryEntry is one append-only audit record for a lead or sale.
// Old/new values are stage names for stage changes, assignee ids for
// assignment changes, and empty otherwise.
type HistoryEntry struct {
	ID         uuid.UUID
	EntityType string // EntityLead or EntitySale
	EntityID   uuid.UUID
	EventKind  string
	OldValue   *string
	NewValue   string
	Actor      string
	Reason     *string
	CreatedAt  time.Time
}

// ScoreHistoryEntry is one append-only scoring outcome for a lead.
type ScoreHistoryEntry struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	Score          float64
	Recommendation string
	Reason         string
	AnalyzedBy     string // primary or fallback
	AnalyzedAt     time.Time
}

// ScorerAuditEntry is one row of the scorer call audit trail.
type ScorerAuditEntry struct {
	ID             uuid.UUID
	LeadID         *uuid.UUID
	InputHash      string
	Score          float64
	Recommendation string
	LatencyMS      int64
	IsFallback     bool
	Model          string
	CreatedAt      time.Time
}

// Note is a free-form annotation attached to a lead.
type Note struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Author    string
	Content   string
	NoteType  string
	CreatedAt time.Time
}

// Attachment is the metadata row for a lead file stored in object storage.
type Attachment struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  string
	CreatedAt   time.Time
}

// AIAnalysisResult is what the advisor hands back to callers, whether it
// came from the cache, the primary scorer, or the rule-based fallback.
type AIAnalysisResult struct {
	LeadID         uuid.UUID
	Score          float64
	Recommendation string
	Reason         string
	QualityTier    string
	AnalyzedBy     string
	AnalyzedAt     time.Time
	FromCache      bool
}
