// Package model provides domain model for pivotsql
package model

import (
	"fmt"
	"strings"
)

// Header is the ordered list of column names of a table.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Index returns the position of the named column, or -1 when the header
// does not contain it. Names are compared after trimming surrounding spaces.
func (h Header) Index(name string) int {
	name = strings.TrimSpace(name)
	for i, col := range h {
		if strings.TrimSpace(col) == name {
			return i
		}
	}
	return -1
}

// Contains reports whether the header has the named column.
func (h Header) Contains(name string) bool {
	return h.Index(name) >= 0
}

// Validate returns ErrDuplicateColumnName when two columns share a name.
func (h Header) Validate() error {
	seen := make(map[string]bool, len(h))
	for _, col := range h {
		trimmed := strings.TrimSpace(col)
		if seen[trimmed] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumnName, col)
		}
		seen[trimmed] = true
	}
	return nil
}

// Record is one row of a table, one string per header column.
type Record []string

// NewRecord create new Record.
func NewRecord(r []string) Record {
	return Record(r)
}

// Equal compare Record.
func (r Record) Equal(r2 Record) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if v != r2[i] {
			return false
		}
	}
	return true
}

// Field returns the value at position i, or "" when the record is shorter
// than the header (ragged XLSX rows, LTSV lines missing a label).
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}
