// Package domain provides core business rules for the lead lifecycle bounded context.
package domain

// Lead funnel stages. The funnel is strictly sequential: forward moves
// advance exactly one position, and lost is reachable from any
// non-terminal stage.
const (
	LeadStageNew         = "new"
	LeadStageContacted   = "contacted"
	LeadStageQualified   = "qualified"
	LeadStageTransferred = "transferred"
	LeadStageLost        = "lost"
)

// Sale pipeline stages.
const (
	SaleStageNew       = "new"
	SaleStageKYC       = "kyc"
	SaleStageAgreement = "agreement"
	SaleStagePaid      = "paid"
	SaleStageLost      = "lost"
)

// Entity discriminators for transitions, history, and events.
const (
	EntityLead = "lead"
	EntitySale = "sale"
)

// LeadStageOrder is the authoritative forward sequence for the lead funnel.
// Lost sits outside the forward order.
var LeadStageOrder = []string{LeadStageNew, LeadStageContacted, LeadStageQualified, LeadStageTransferred}

// SaleStageOrder is the authoritative forward sequence for the sale pipeline.
var SaleStageOrder = []string{SaleStageNew, SaleStageKYC, SaleStageAgreement, SaleStagePaid}

var knownLeadStages = map[string]struct{}{
	LeadStageNew:         {},
	LeadStageContacted:   {},
	LeadStageQualified:   {},
	LeadStageTransferred: {},
	LeadStageLost:        {},
}

var knownSaleStages = map[string]struct{}{
	SaleStageNew:       {},
	SaleStageKYC:       {},
	SaleStageAgreement: {},
	SaleStagePaid:      {},
	SaleStageLost:      {},
}

// terminalLeadStages cannot be left once entered.
var terminalLeadStages = map[string]bool{
	LeadStageTransferred: true,
	LeadStageLost:        true,
}

// terminalSaleStages cannot be left once entered.
var terminalSaleStages = map[string]bool{
	SaleStagePaid: true,
	SaleStageLost: true,
}

// reversibleLeadTransitions are the only permitted backward moves.
var reversibleLeadTransitions = map[string]string{
	LeadStageContacted: LeadStageNew,
	LeadStageQualified: LeadStageContacted,
}

var leadStageIndex = indexStages(LeadStageOrder)
var saleStageIndex = indexStages(SaleStageOrder)

func indexStages(order []string) map[string]int {
	index := make(map[string]int, len(order))
	for i, stage := range order {
		index[stage] = i
	}
	return index
}

// IsKnownLeadStage reports whether stage belongs to the lead funnel.
func IsKnownLeadStage(stage string) bool {
	_, ok := knownLeadStages[stage]
	return ok
}

// IsKnownSaleStage reports whether stage belongs to the sale pipeline.
func IsKnownSaleStage(stage string) bool {
	_, ok := knownSaleStages[stage]
	return ok
}

// IsTerminalLeadStage reports whether a lead in this stage is locked.
func IsTerminalLeadStage(stage string) bool {
	return terminalLeadStages[stage]
}

// IsTerminalSaleStage reports whether a sale in this stage is locked.
func IsTerminalSaleStage(stage string) bool {
	return terminalSaleStages[stage]
}

// NextLeadStage returns the stage one position forward of current.
// The second result is false when current has no forward successor.
func NextLeadStage(current string) (string, bool) {
	idx, ok := leadStageIndex[current]
	if !ok || idx+1 >= len(LeadStageOrder) {
		return "", false
	}
	return LeadStageOrder[idx+1], true
}

// NextSaleStage returns the stage one position forward of current.
func NextSaleStage(current string) (string, bool) {
	idx, ok := saleStageIndex[current]
	if !ok || idx+1 >= len(SaleStageOrder) {
		return "", false
	}
	return SaleStageOrder[idx+1], true
}

// LeadRollbackTarget returns the stage a rollback from current lands on.
// The second result is false when the stage is not reversible.
func LeadRollbackTarget(current string) (string, bool) {
	target, ok := reversibleLeadTransitions[current]
	return target, ok
}
