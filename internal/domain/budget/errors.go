package budget

import "errors"

var (
	// ErrBudgetNotFound indicates no budget is set for the entity and year.
	ErrBudgetNotFound = errors.New("budget not found")
	// ErrInvalidInput indicates invalid budget input.
	ErrInvalidInput = errors.New("invalid budget input")
)
