package program

import "errors"

var (
	// ErrProgramNotFound indicates the program doesn't exist.
	ErrProgramNotFound = errors.New("program not found")
	// ErrInvalidInput indicates invalid program input.
	ErrInvalidInput = errors.New("invalid program input")
)
