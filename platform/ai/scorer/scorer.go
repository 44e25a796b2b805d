// Package scorer provides LLM-backed lead scoring clients.
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the feature vector sent to the scorer. Field order is not
// significant; cache keys are derived from a canonical encoding elsewhere.
type Payload struct {
	Source                string  `json:"source"`
	Stage                 string  `json:"stage"`
	MessageCount          int     `json:"message_count"`
	MessageVelocity       float64 `json:"message_velocity"`
	HasBusinessDomain     bool    `json:"has_business_domain"`
	BusinessDomain        string  `json:"business_domain"`
	DaysSinceCreated      int     `json:"days_since_created"`
	ContactCompleteness   bool    `json:"contact_completeness"`
	DaysSinceLastActivity int     `json:"days_since_last_activity"`
}

// Result is the scorer's verdict for a single lead. Values are returned
// exactly as produced by the provider; callers enforce the contract
// (score range, recommendation enum, non-empty reason).
type Result struct {
	Score          float64 `json:"score"`
	Recommendation string  `json:"recommendation"`
	Reason         string  `json:"reason"`
}

// Scorer produces a quality verdict for a lead from its feature payload.
type Scorer interface {
	Name() string
	Score(ctx context.Context, payload Payload) (*Result, error)
}

const systemPrompt = `You are a senior CRM analyst specializing in lead qualification and scoring.

Your role is to analyze leads and provide a score (0.0-1.0) with a recommendation and reason.

## Scoring Guidelines

- **Score 0.0-0.3**: Low quality lead, continue nurturing or mark as lost
- **Score 0.3-0.6**: Medium quality, needs more nurturing
- **Score 0.6-1.0**: High quality, ready for sales transfer

## Key Factors

1. **Source**: Partner leads are typically warmer than scanner leads
2. **Stage**: Qualified stage indicates confirmed need
3. **Message Count**: Higher activity suggests engagement
4. **Business Domain**: Having a clear domain is critical for sales
5. **Days Since Created**: Fresh leads are more likely to convert

## Output Format

You must respond with valid JSON in this exact format:
{
    "score": <float between 0.0 and 1.0>,
    "recommendation": "<one of: transfer_to_sales, continue_nurturing, lost>",
    "reason": "<2-3 sentence explanation of the score>"
}

## Important

- You are ADVISORY only - you do not make business decisions
- Your recommendation is a suggestion, not a final decision
- Always provide a clear reason for your scoring
- Be consistent in your reasoning across similar leads`

func buildUserPrompt(p Payload) string {
	domain := p.BusinessDomain
	if domain == "" {
		domain = "None"
	}
	return fmt.Sprintf(`Analyze this lead and provide a score and recommendation:

Lead Data:
- Source: %s
- Stage: %s
- Message Count: %d
- Message Velocity: %.3f
- Has Business Domain: %t
- Business Domain: %s
- Days Since Created: %d
- Contact Completeness: %t
- Days Since Last Activity: %d

Provide your analysis in JSON format.`,
		p.Source, p.Stage, p.MessageCount, p.MessageVelocity,
		p.HasBusinessDomain, domain, p.DaysSinceCreated,
		p.ContactCompleteness, p.DaysSinceLastActivity)
}

// parseResult decodes the provider's JSON answer, tolerating markdown fences.
func parseResult(content string) (*Result, error) {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("decode scorer response: %w", err)
	}
	return &result, nil
}
