package payroll

import "errors"

var (
	ErrPayrollNotFound         = errors.New("payroll record not found")
	ErrPayrollAlreadyExists    = errors.New("payroll record already exists for this employee and period")
	ErrComponentNotFound       = errors.New("salary component not found")
	ErrItemAlreadyExists       = errors.New("payroll already has an item for this component")
	ErrItemNotFound            = errors.New("payroll item not found")
	ErrInvalidStatusTransition = errors.New("invalid payroll status transition")
	ErrPayrollNotEditable      = errors.New("payroll is not in an editable status")
	ErrNoGrossPayHistory       = errors.New("employee has no payroll gross pay history")
)
