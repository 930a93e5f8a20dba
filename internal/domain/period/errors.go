package period

import "errors"

var (
	ErrPeriodNotFound          = errors.New("payroll period not found")
	ErrPeriodAlreadyExists     = errors.New("payroll period already exists for this year and month")
	ErrPeriodLocked            = errors.New("payroll period is referenced by non-draft payrolls and cannot be modified")
	ErrInvalidStatusTransition = errors.New("invalid period status transition")
)
