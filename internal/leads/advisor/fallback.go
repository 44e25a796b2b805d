package advisor

import (
	"fmt"
	"math"
	"strings"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/ai/scorer"
)

// fallbackModel is the model name recorded in the audit trail when the
// rule-based path produced the score.
const fallbackModel = "rule-based"

// fallbackReasonPrefix marks results that did not come from the primary
// scorer so downstream consumers can tell them apart.
const fallbackReasonPrefix = "[RULE-BASED / AI OFFLINE]"

// Source quality baselines.
var fallbackSourceWeights = map[string]float64{
	domain.SourcePartner: 0.30,
	domain.SourceScanner: 0.20,
	domain.SourceManual:  0.10,
}

// FallbackScore computes a deterministic rule-based score directly from the
// lead. Same lead state, same result, always. It exists so a primary scorer
// outage degrades the signal instead of the workflow.
func FallbackScore(lead domain.Lead) *scorer.Result {
	score := 0.0
	signals := make([]string, 0, 6)

	srcWeight, ok := fallbackSourceWeights[lead.Source]
	if !ok {
		srcWeight = 0.10
	}
	score += srcWeight
	signals = append(signals, fmt.Sprintf("source=%s(+%.2f)", lead.Source, srcWeight))

	switch {
	case lead.MessageCount >= 10:
		score += 0.25
		signals = append(signals, "high-activity")
	case lead.MessageCount >= 5:
		score += 0.15
		signals = append(signals, "medium-activity")
	case lead.MessageCount >= 2:
		score += 0.08
		signals = append(signals, "low-activity")
	}

	if lead.HasFullContact() {
		score += 0.15
		signals = append(signals, "full-contact")
	} else if lead.HasContact() {
		score += 0.07
		signals = append(signals, "partial-contact")
	}

	if strings.TrimSpace(lead.BusinessDomain) != "" {
		score += 0.15
		signals = append(signals, "domain-set")
	}

	switch lead.Stage {
	case domain.LeadStageQualified:
		score += 0.20
		signals = append(signals, fmt.Sprintf("stage=%s(+0.20)", lead.Stage))
	case domain.LeadStageContacted:
		score += 0.10
		signals = append(signals, fmt.Sprintf("stage=%s(+0.10)", lead.Stage))
	}

	if score > 1.0 {
		score = 1.0
	}
	score = math.Round(score*1000) / 1000

	var recommendation string
	switch {
	case score >= 0.6:
		recommendation = domain.RecommendationTransferToSales
	case score >= 0.3:
		recommendation = domain.RecommendationContinueNurturing
	default:
		recommendation = domain.RecommendationLost
	}

	reason := fmt.Sprintf("%s Signals: %s. Score: %.2f.",
		fallbackReasonPrefix, strings.Join(signals, ", "), score)

	return &scorer.Result{
		Score:          score,
		Recommendation: recommendation,
		Reason:         reason,
	}
}
