package helpers

import "fmt"

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type StockPulseError struct {
	Message string
	Cause   error
}

func (e *StockPulseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StockPulseError) Unwrap() error {
	return e.Cause
}

// Distinct error classes for type assertions: upstream transport failures,
// provider/content failures, and bad client input.
type NetworkError struct{ StockPulseError }
type DataSourceError struct{ StockPulseError }
type ValidationError struct{ StockPulseError }

// -----------------------------------------------------------------------------

func NewNetworkError(msg string, cause error) *NetworkError {
	return &NetworkError{StockPulseError{Message: msg, Cause: cause}}
}

func NewDataSourceError(msg string, cause error) *DataSourceError {
	return &DataSourceError{StockPulseError{Message: msg, Cause: cause}}
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{StockPulseError{Message: msg}}
}
