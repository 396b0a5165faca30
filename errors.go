package pivotsql

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy. Every error returned by this package wraps exactly one of
// these sentinels; test with errors.Is.
var (
	// ErrConfiguration indicates invalid or insufficient construction parameters:
	// no data source, a pivot column missing from the table, an aggregation
	// template without exactly one slot, a measure suffix switched off for
	// several measures, and similar.
	ErrConfiguration = errors.New("pivotsql: configuration error")

	// ErrDiscovery indicates that the data source failed to yield pivot values
	ErrDiscovery = errors.New("pivotsql: discovery error")

	// ErrAssemblyInvariant indicates an internal inconsistency while assembling
	// a statement, such as pivot values and column names of different lengths.
	// It signals a bug, not a user error.
	ErrAssemblyInvariant = errors.New("pivotsql: assembly invariant violation")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	Column    string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
	}
}

// WithColumn adds column context to the error
func (ec *ErrorContext) WithColumn(column string) *ErrorContext {
	ec.Column = column
	return ec
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(format string, args ...any) *ErrorContext {
	ec.Details = fmt.Sprintf(format, args...)
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("pivotsql: %s failed", ec.Operation))

	if ec.Column != "" {
		parts = append(parts, "column: "+ec.Column)
	}

	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}

// Wrap is Error for failures caused by a collaborator: the result matches
// both sentinel and cause with errors.Is.
func (ec *ErrorContext) Wrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", ec.Error(sentinel), cause)
}

// configError is shorthand for a configuration failure with details.
func configError(operation, format string, args ...any) error {
	return NewErrorContext(operation).WithDetails(format, args...).Error(ErrConfiguration)
}
