package advisor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strings"
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/ai/scorer"
)

// ExtractFeatures builds the scorer payload from a lead. Enum fields are
// validated exhaustively: a lead carrying an unknown source or stage is a
// data defect and fails loudly, it is never coerced into a default.
func ExtractFeatures(lead domain.Lead, now time.Time) (scorer.Payload, error) {
	if !domain.IsKnownSource(lead.Source) {
		return scorer.Payload{}, &domain.FeatureValidationError{Field: "source", Value: lead.Source}
	}
	if !domain.IsKnownLeadStage(lead.Stage) {
		return scorer.Payload{}, &domain.FeatureValidationError{Field: "stage", Value: lead.Stage}
	}

	daysSinceCreated := int(now.Sub(lead.CreatedAt).Hours() / 24)
	if daysSinceCreated < 1 {
		daysSinceCreated = 1
	}

	daysSinceActivity := int(now.Sub(lead.UpdatedAt).Hours() / 24)
	if daysSinceActivity < 0 {
		daysSinceActivity = 0
	}

	velocity := math.Round(float64(lead.MessageCount)/float64(daysSinceCreated)*1000) / 1000

	businessDomain := strings.TrimSpace(lead.BusinessDomain)

	return scorer.Payload{
		Source:                lead.Source,
		Stage:                 lead.Stage,
		MessageCount:          lead.MessageCount,
		MessageVelocity:       velocity,
		HasBusinessDomain:     businessDomain != "",
		BusinessDomain:        businessDomain,
		DaysSinceCreated:      daysSinceCreated,
		ContactCompleteness:   lead.HasFullContact(),
		DaysSinceLastActivity: daysSinceActivity,
	}, nil
}

// InputHash fingerprints a payload. The payload is serialized through a map
// so keys come out sorted and the same inputs always produce the same hash.
func InputHash(payload scorer.Payload) string {
	canonical := map[string]interface{}{
		"source":                   payload.Source,
		"stage":                    payload.Stage,
		"message_count":            payload.MessageCount,
		"message_velocity":         payload.MessageVelocity,
		"has_business_domain":      payload.HasBusinessDomain,
		"business_domain":          payload.BusinessDomain,
		"days_since_created":       payload.DaysSinceCreated,
		"contact_completeness":     payload.ContactCompleteness,
		"days_since_last_activity": payload.DaysSinceLastActivity,
	}
	raw, _ := json.Marshal(canonical)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
