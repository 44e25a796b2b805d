package email

const (
	subjectSaleWonFmt         = "Deal won: %s"
	subjectLeadTransferredFmt = "New sales handoff: %s"
)
