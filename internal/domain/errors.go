package domain

import "fmt"

// ConfigurationError means the connection or credential settings needed to
// reach the warehouse are missing. It is shown inline and halts the cycle.
type ConfigurationError struct {
	Backend string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Backend == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Backend, e.Reason)
}

// QueryExecutionError wraps a failure reported by the warehouse or its driver.
type QueryExecutionError struct {
	Backend string
	Err     error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query failed on %s: %v", e.Backend, e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// ValidationError rejects filter input that cannot be mapped onto the catalog.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
