package payroll

type Operation string

const (
	OpUpdateItem       Operation = "update_item"
	OpImportAttendance Operation = "import_attendance"
	OpCalculate        Operation = "calculate"
	OpProcess          Operation = "process"
	OpLock             Operation = "lock"
)

// allowedOps is the run lifecycle. PROCESSING is a transient state held only
// inside the processing transaction, so no operation is accepted there.
// Locking a locked run is a no-op; a run must be processed before it can be
// locked.
var allowedOps = map[string]map[Operation]bool{
	StatusDraft: {
		OpUpdateItem:       true,
		OpImportAttendance: true,
		OpCalculate:        true,
		OpProcess:          true,
	},
	StatusProcessing: {},
	StatusCompleted: {
		OpCalculate: true,
		OpProcess:   true,
		OpLock:      true,
	},
	StatusLocked: {
		OpLock: true,
	},
}

func Allows(status string, op Operation) bool {
	ops, ok := allowedOps[status]
	if !ok {
		return false
	}
	return ops[op]
}
