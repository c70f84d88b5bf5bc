package domain

import "fmt"

// ValidationError reports malformed or inconsistent input data, such as an
// OHLC inversion or a negative volume. It is always surfaced to the caller.
type ValidationError struct {
	// Index is the offending bar position, or -1 when the error is not tied
	// to a single bar.
	Index int
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid bar data at index %d: %s", e.Index, e.Msg)
	}
	return "invalid bar data: " + e.Msg
}

// InsufficientDataError reports that a bar series is shorter than the
// strategy's minimum warm-up window.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d bars, need at least %d", e.Have, e.Need)
}

// ConfigurationError reports an unknown strategy name or an invalid
// parameter combination, detected before any simulation work begins.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// InvalidParameterError reports an out-of-range generation parameter, such
// as a non-positive initial price or an inverted date range.
type InvalidParameterError struct {
	Param string
	Msg   string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Msg)
}
