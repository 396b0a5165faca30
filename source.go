package pivotsql

import (
	"context"

	"github.com/nao1215/pivotsql/domain/model"
)

// ValueQuerier runs a query against a warehouse and returns the first column
// of every row. It is the collaborator behind remote-table discovery.
type ValueQuerier interface {
	QueryValues(ctx context.Context, query string) ([]any, error)
}

// Submitter runs a generated statement in a warehouse and fetches its result.
// An empty table asks for a temporary (anonymous) result table.
type Submitter interface {
	Submit(ctx context.Context, query, table string) (*model.ResultSet, error)
}

// SourceKind tags the variant held by a Source.
type SourceKind int

const (
	// SourceUnset is the zero Source; building a pivot from it fails.
	SourceUnset SourceKind = iota
	// SourceInMemory is a table snapshot already held in memory.
	SourceInMemory
	// SourceRemoteTable is a table living in a warehouse, discovered by query.
	SourceRemoteTable
)

// String returns the kind name used in logs.
func (k SourceKind) String() string {
	switch k {
	case SourceInMemory:
		return "in-memory"
	case SourceRemoteTable:
		return "remote-table"
	default:
		return "unset"
	}
}

// Source is where pivot values are discovered: either an in-memory table or
// a named remote table plus the querier that can reach it.
type Source struct {
	kind    SourceKind
	table   *model.Table
	name    string
	querier ValueQuerier
}

// FromTable returns an in-memory source.
func FromTable(table *model.Table) Source {
	return Source{kind: SourceInMemory, table: table}
}

// FromRemoteTable returns a source that discovers values by running
// "select distinct" against the fully qualified table name through querier.
func FromRemoteTable(name string, querier ValueQuerier) Source {
	return Source{kind: SourceRemoteTable, name: name, querier: querier}
}

// Kind returns the variant tag.
func (s Source) Kind() SourceKind {
	return s.kind
}

// Table returns the in-memory table, nil for other kinds.
func (s Source) Table() *model.Table {
	return s.table
}

// Name returns the remote table name, "" for other kinds.
func (s Source) Name() string {
	return s.name
}

// Measures is one measure column (Single) or several (Many).
type Measures struct {
	names []string
}

// SingleMeasure returns the one-measure variant.
func SingleMeasure(name string) Measures {
	return Measures{names: []string{name}}
}

// ManyMeasures returns the multi-measure variant. A list with one element is
// the same as SingleMeasure.
func ManyMeasures(names ...string) Measures {
	return Measures{names: append([]string(nil), names...)}
}

// Names returns the measure columns in configured order.
func (m Measures) Names() []string {
	return append([]string(nil), m.names...)
}

// Len returns the number of measures.
func (m Measures) Len() int {
	return len(m.names)
}

// IsMulti reports whether the rank/array form is required.
func (m Measures) IsMulti() bool {
	return len(m.names) > 1
}
