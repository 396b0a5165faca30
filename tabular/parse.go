package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/pivotsql/domain/model"
	"github.com/xuri/excelize/v2"
)

const (
	csvDelimiter = ','
	tsvDelimiter = '\t'
	utf8BOM      = "\uFEFF"
)

// ErrEmptyData is returned when a file holds no header row or no records.
var ErrEmptyData = errors.New("tabular: empty data")

// ErrUnsupportedFormat is returned for file types that cannot be parsed.
var ErrUnsupportedFormat = errors.New("tabular: unsupported file format")

// Parse reads an uncompressed stream of the given type into a table named
// name. The first row (or, for LTSV, the union of labels) is the header.
func Parse(ctx context.Context, r io.Reader, name string, fileType model.FileType) (*model.Table, error) {
	switch fileType {
	case model.FileTypeCSV:
		return parseDelimited(r, name, csvDelimiter, "CSV")
	case model.FileTypeTSV:
		return parseDelimited(r, name, tsvDelimiter, "TSV")
	case model.FileTypeLTSV:
		return parseLTSV(r, name)
	case model.FileTypeParquet:
		return parseParquet(ctx, r, name)
	case model.FileTypeXLSX:
		return parseXLSX(r, name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	}
}

func parseDelimited(r io.Reader, name string, delimiter rune, typeName string) (*model.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", typeName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", ErrEmptyData, typeName)
	}
	if len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return newTable(name, rows[0], rows[1:])
}

// parseLTSV keeps labels in first-seen order; a record without a label
// gets an empty cell for it.
func parseLTSV(r io.Reader, name string) (*model.Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read LTSV: %w", err)
	}

	var (
		labels  []string
		seen    = make(map[string]bool)
		records []map[string]string
	)
	for line := range strings.SplitSeq(strings.TrimPrefix(string(content), utf8BOM), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rec := make(map[string]string)
		for pair := range strings.SplitSeq(line, "\t") {
			kv := strings.SplitN(pair, ":", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.TrimSpace(kv[0])
			rec[key] = strings.TrimSpace(kv[1])
			if !seen[key] {
				seen[key] = true
				labels = append(labels, key)
			}
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no valid LTSV records found", ErrEmptyData)
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(labels))
		for j, label := range labels {
			row[j] = rec[label]
		}
		rows[i] = row
	}
	return newTable(name, labels, rows)
}

// parseParquet buffers the stream since Parquet needs random access.
func parseParquet(ctx context.Context, r io.Reader, name string) (*model.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty parquet file", ErrEmptyData)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}
	tbl, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet table: %w", err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	header := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}

	tr := array.NewTableReader(tbl, 0)
	defer tr.Release()

	rows := make([][]string, 0, tbl.NumRows())
	for tr.Next() {
		batch := tr.Record()
		for i := range int(batch.NumRows()) {
			row := make([]string, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValue(col, i)
			}
			rows = append(rows, row)
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("failed to read parquet records: %w", err)
	}
	return newTable(name, header, rows)
}

// arrowValue renders one cell the way discovery formats warehouse values.
// Nulls become "".
func arrowValue(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	switch a := col.(type) {
	case *array.Boolean:
		return strconv.FormatBool(a.Value(i))
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Int8:
		return strconv.FormatInt(int64(a.Value(i)), 10)
	case *array.Int16:
		return strconv.FormatInt(int64(a.Value(i)), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(i)), 10)
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10)
	case *array.Uint8:
		return strconv.FormatUint(uint64(a.Value(i)), 10)
	case *array.Uint16:
		return strconv.FormatUint(uint64(a.Value(i)), 10)
	case *array.Uint32:
		return strconv.FormatUint(uint64(a.Value(i)), 10)
	case *array.Uint64:
		return strconv.FormatUint(a.Value(i), 10)
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(i)), 'f', -1, 32)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'f', -1, 64)
	case *array.Binary:
		return string(a.Value(i))
	case *array.Date32:
		return a.Value(i).ToTime().Format("2006-01-02")
	default:
		return col.ValueStr(i)
	}
}

// parseXLSX reads the first sheet. Leading empty rows are skipped.
func parseXLSX(r io.Reader, name string) (*model.Table, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer func() {
		_ = book.Close()
	}()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets found in XLSX file", ErrEmptyData)
	}
	sheet := sheets[0]
	iter, err := book.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open rows of sheet %s: %w", sheet, err)
	}
	defer func() {
		_ = iter.Close()
	}()

	var (
		header []string
		rows   [][]string
	)
	for iter.Next() {
		row, err := iter.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row in sheet %s: %w", sheet, err)
		}
		if header == nil {
			if len(row) == 0 {
				continue
			}
			header = row
			continue
		}
		rows = append(rows, row)
	}
	if header == nil {
		return nil, fmt.Errorf("%w: sheet %s is empty", ErrEmptyData, sheet)
	}
	return newTable(name, header, rows)
}

// newTable validates the header and pads or truncates every row to it.
func newTable(name string, header []string, rows [][]string) (*model.Table, error) {
	h := model.NewHeader(header)
	if err := h.Validate(); err != nil {
		return nil, err
	}
	records := make([]model.Record, len(rows))
	for i, row := range rows {
		rec := make([]string, len(h))
		copy(rec, row)
		records[i] = model.NewRecord(rec)
	}
	return model.NewTable(name, h, records), nil
}
