package audithook

// Action constants for audit events.
const (
	// Invoice actions
	ActionInvoiceRecorded = "invoice.recorded"
	ActionInvoiceDeleted  = "invoice.deleted"

	// Claim actions
	ActionClaimExecuted = "claim.executed"
	ActionClaimRejected = "claim.rejected"

	// Funding actions
	ActionCreditsRefilled = "credits.refilled"
	ActionSurplusReturned = "surplus.returned"

	// Governance actions
	ActionBufferSet   = "buffer.set"
	ActionStreamBound = "stream.bound"
	ActionConfigSet   = "config.set"
)

// Resource constants for audit events.
const (
	ResourceInvoice = "invoice"
	ResourceClaim   = "claim"
	ResourceCredit  = "credit"
	ResourceBuffer  = "buffer"
	ResourceStream  = "stream"
	ResourceConfig  = "config"
)

// Category constants for audit events.
const (
	CategoryTreasury   = "treasury"
	CategoryFunding    = "funding"
	CategoryGovernance = "governance"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
