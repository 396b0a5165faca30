// Package model provides domain model for pivotsql
package model

import "errors"

var (
	// ErrDuplicateColumnName is returned when a file contains duplicate column names
	ErrDuplicateColumnName = errors.New("duplicate column name")

	// ErrColumnNotFound is returned when a table has no column with the requested name
	ErrColumnNotFound = errors.New("column not found")
)
