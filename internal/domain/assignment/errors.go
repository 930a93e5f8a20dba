package assignment

import "errors"

var (
	ErrCategoryAssignmentNotFound = errors.New("category assignment not found")
	ErrJobAssignmentNotFound      = errors.New("job assignment not found")
	ErrCategoryNotFound           = errors.New("employee category not found")
	ErrPositionNotFound           = errors.New("position not found")
)
