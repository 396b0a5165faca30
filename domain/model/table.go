package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Table is an in-memory snapshot of tabular data: a header and its records.
// Every cell is kept as the string it was read as.
type Table struct {
	// name is derived from the file path the table was loaded from.
	name string
	// header is table header.
	header Header
	// records is table records.
	records []Record
}

// NewTable create new Table.
func NewTable(
	name string,
	header Header,
	records []Record,
) *Table {
	return &Table{
		name:    name,
		header:  header,
		records: records,
	}
}

// Name return table name.
func (t *Table) Name() string {
	return t.name
}

// Header return table header.
func (t *Table) Header() Header {
	return t.header
}

// Records return table records.
func (t *Table) Records() []Record {
	return t.records
}

// Column returns every value of the named column in record order.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.header.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	values := make([]string, 0, len(t.records))
	for _, record := range t.records {
		values = append(values, record.Field(idx))
	}
	return values, nil
}

// Equal compare Table.
func (t *Table) Equal(t2 *Table) bool {
	if t.Name() != t2.Name() {
		return false
	}
	if !t.header.Equal(t2.header) {
		return false
	}
	if len(t.Records()) != len(t2.Records()) {
		return false
	}
	for i, record := range t.Records() {
		if !record.Equal(t2.Records()[i]) {
			return false
		}
	}
	return true
}

// TableFromFilePath creates table name from file path.
// "s3://bucket/dir/sales.csv.gz" becomes "sales".
func TableFromFilePath(filePath string) string {
	fileName := filepath.Base(filePath)
	for _, c := range []CompressionType{CompressionGZ, CompressionBZ2, CompressionXZ, CompressionZSTD} {
		if strings.HasSuffix(strings.ToLower(fileName), c.Extension()) {
			fileName = fileName[:len(fileName)-len(c.Extension())]
			break
		}
	}
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
