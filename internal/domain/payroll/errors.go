package payroll

import "errors"

var (
	ErrRunNotFound   = errors.New("payroll run not found")
	ErrItemNotFound  = errors.New("payroll item not found")
	ErrDuplicateRun  = errors.New("payroll run already exists for this month")
	ErrInvalidMonth  = errors.New("month must be in YYYY-MM format")
	ErrStateConflict = errors.New("operation not allowed in current run status")
)
