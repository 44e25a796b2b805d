package transfer

import (
	"strings"

	"leadflow_backend/internal/leads/domain"
)

// Gate decides whether a lead may cross into the sales pipeline.
// Every unmet condition is reported, not just the first, so callers can
// surface the full checklist in one response.
type Gate struct {
	minScore float64
}

func NewGate(minScore float64) *Gate {
	return &Gate{minScore: minScore}
}

// Evaluate returns the conditions the lead still fails. An empty slice
// means the lead is transferable.
func (g *Gate) Evaluate(lead domain.Lead) []string {
	missing := make([]string, 0)

	if lead.Stage != domain.LeadStageQualified {
		missing = append(missing, domain.TransferConditionStage)
	}
	if lead.AIScore == nil || *lead.AIScore < g.minScore {
		missing = append(missing, domain.TransferConditionScore)
	}
	if strings.TrimSpace(lead.BusinessDomain) == "" {
		missing = append(missing, domain.TransferConditionDomain)
	}

	return missing
}
