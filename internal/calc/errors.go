package calc

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why a cost analysis could not be produced.
type Kind string

const (
	KindExtractionIncomplete Kind = "EXTRACTION_INCOMPLETE"
	KindInvalidAmount        Kind = "INVALID_AMOUNT"
	KindRateUnavailable      Kind = "RATE_UNAVAILABLE"
	KindTimeout              Kind = "TIMEOUT"
	KindUnknown              Kind = "UNKNOWN"
)

// CalculationError is the only error type the engine returns.
type CalculationError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *CalculationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, err error) *CalculationError {
	return &CalculationError{Kind: kind, Message: msg, Err: err}
}

// NewError builds a CalculationError for callers outside the engine, e.g. an
// extractor failure reported as KindExtractionIncomplete.
func NewError(kind Kind, msg string, err error) *CalculationError {
	return newError(kind, msg, err)
}

// KindOf classifies any error into the calculation taxonomy. Deadline and
// cancellation always win over the wrapping kind so a timed-out rate lookup is
// reported as KindTimeout rather than KindRateUnavailable.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	var ce *CalculationError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// AsCalculationError normalizes err into a *CalculationError.
func AsCalculationError(err error) *CalculationError {
	if err == nil {
		return nil
	}
	kind := KindOf(err)
	var ce *CalculationError
	if errors.As(err, &ce) && ce.Kind == kind {
		return ce
	}
	switch kind {
	case KindTimeout:
		return newError(kind, "analysis exceeded its time budget", err)
	default:
		return newError(kind, "unexpected failure", err)
	}
}
