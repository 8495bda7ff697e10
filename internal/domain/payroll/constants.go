package payroll

const (
	StatusDraft      = "DRAFT"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusLocked     = "LOCKED"
)

// Statutory parameters for Indian payroll. PF contributions are capped at a
// wage ceiling; ESI applies only below a monthly gross threshold.
const (
	PFWageCeiling   = 15000.0
	PFRate          = 0.12
	ESIGrossLimit   = 21000.0
	ESIEmployeeRate = 0.0075
	ESIEmployerRate = 0.0325

	DefaultTotalDays = 30.0
	MaxPaidDays      = 31.0
)
