package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Lead sources.
const (
	SourceScanner = "scanner"
	SourcePartner = "partner"
	SourceManual  = "manual"
)

var knownSources = map[string]struct{}{
	SourceScanner: {},
	SourcePartner: {},
	SourceManual:  {},
}

// IsKnownSource reports whether source belongs to the intake taxonomy.
func IsKnownSource(source string) bool {
	_, ok := knownSources[source]
	return ok
}

// Quality tiers derived from the AI score.
const (
	TierHot  = "HOT"  // score >= 0.8
	TierWarm = "WARM" // 0.6 <= score < 0.8
	TierCold = "COLD" // 0.3 <= score < 0.6
	TierDead = "DEAD" // score < 0.3
)

// QualityTierFor maps an AI score onto a quality tier.
func QualityTierFor(score float64) string {
	switch {
	case score >= 0.8:
		return TierHot
	case score >= 0.6:
		return TierWarm
	case score >= 0.3:
		return TierCold
	default:
		return TierDead
	}
}

// Scorer recommendations. The scorer is advisory; these values never
// trigger a transition by themselves.
const (
	RecommendationTransferToSales   = "transfer_to_sales"
	RecommendationContinueNurturing = "continue_nurturing"
	RecommendationLost              = "lost"
)

var knownRecommendations = map[string]struct{}{
	RecommendationTransferToSales:   {},
	RecommendationContinueNurturing: {},
	RecommendationLost:              {},
}

// IsKnownRecommendation reports whether value is a valid scorer recommendation.
func IsKnownRecommendation(value string) bool {
	_, ok := knownRecommendations[value]
	return ok
}

// Reasons a sale can be lost.
const (
	LostReasonNoBudget       = "no_budget"
	LostReasonNoResponse     = "no_response"
	LostReasonCompetitor     = "competitor"
	LostReasonNotInterested  = "not_interested"
	LostReasonInvalidContact = "invalid_contact"
	LostReasonOther          = "other"
)

var knownLostReasons = map[string]struct{}{
	LostReasonNoBudget:       {},
	LostReasonNoResponse:     {},
	LostReasonCompetitor:     {},
	LostReasonNotInterested:  {},
	LostReasonInvalidContact: {},
	LostReasonOther:          {},
}

// IsKnownLostReason reports whether reason belongs to the loss taxonomy.
func IsKnownLostReason(reason string) bool {
	_, ok := knownLostReasons[reason]
	return ok
}

// Actor names recorded in history when no human is involved.
const (
	ActorSystem     = "System"
	ActorAutomation = "Automation"
)

// MinRollbackReasonLen is the minimum trimmed length of a rollback reason.
const MinRollbackReasonLen = 5

// IsValidRollbackReason reports whether reason is substantial enough to
// justify a backward transition.
func IsValidRollbackReason(reason string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(reason)) >= MinRollbackReasonLen
}

// Lead is the aggregate tracked through the cold funnel.
type Lead struct {
	ID               uuid.UUID
	FullName         string
	Email            string
	Phone            string
	Source           string
	Stage            string
	BusinessDomain   string
	MessageCount     int
	AIScore          *float64
	AIRecommendation *string
	AIReason         *string
	LastAIAnalysisAt *time.Time
	QualityTier      *string
	LostReason       *string
	AssignedTo       *uuid.UUID
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// IsDeleted reports whether the lead has been soft deleted.
func (l *Lead) IsDeleted() bool {
	return l.DeletedAt != nil
}

// HasContact reports whether the lead carries at least one contact channel.
func (l *Lead) HasContact() bool {
	return strings.TrimSpace(l.Email) != "" || strings.TrimSpace(l.Phone) != ""
}

// HasFullContact reports whether both email and phone are present.
func (l *Lead) HasFullContact() bool {
	return strings.TrimSpace(l.Email) != "" && strings.TrimSpace(l.Phone) != ""
}
