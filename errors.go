package usl

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by this package. Match them with errors.Is.
var (
	ErrNegativeRadicand = errors.New("peak concurrency undefined: (1-alpha)/beta is negative")
	ErrInsufficientData = errors.New("insufficient measurements")
	ErrInvalidGrid      = errors.New("invalid load grid")
	ErrUnknownFitter    = errors.New("unknown fitter")
	ErrEmptySpan        = errors.New("span must have stop > start")
	ErrInvalidLevel     = errors.New("invalid load level")
)

// DomainError reports coefficients outside the domain of an operation.
type DomainError struct {
	Op    string
	Alpha float64
	Beta  float64
	Err   error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s(alpha=%g, beta=%g): %v", e.Op, e.Alpha, e.Beta, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }
