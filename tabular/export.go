package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/pivotsql/domain/model"
	"github.com/xuri/excelize/v2"
)

// xlsxSheet is the sheet name of exported workbooks.
const xlsxSheet = "Sheet1"

// Save writes rs to path. Format and compression come from the extension;
// unknown extensions are written as CSV.
func Save(path string, rs *model.ResultSet) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()
	return WriteResults(f, rs, model.ExportOptionsFromPath(path))
}

// WriteResults writes rs to w in the format and compression of opts.
func WriteResults(w io.Writer, rs *model.ResultSet, opts model.ExportOptions) (err error) {
	if rs == nil {
		rs = &model.ResultSet{}
	}
	cw, closeWriter, err := NewCompressionHandler(opts.Compression).NewWriter(w)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeWriter(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to flush compressed output: %w", closeErr)
		}
	}()

	switch opts.Format {
	case model.FileTypeCSV:
		return writeDelimited(cw, rs, csvDelimiter)
	case model.FileTypeTSV:
		return writeDelimited(cw, rs, tsvDelimiter)
	case model.FileTypeLTSV:
		return writeLTSV(cw, rs)
	case model.FileTypeXLSX:
		return writeXLSX(cw, rs)
	default:
		return fmt.Errorf("%w: cannot export %s", ErrUnsupportedFormat, opts.Format)
	}
}

func writeDelimited(w io.Writer, rs *model.ResultSet, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	if err := cw.Write(rs.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(rs.StringRows()); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// writeLTSV replaces tabs and newlines in values, which LTSV cannot carry.
func writeLTSV(w io.Writer, rs *model.ResultSet) error {
	clean := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	for _, row := range rs.StringRows() {
		pairs := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			value := ""
			if i < len(row) {
				value = clean.Replace(row[i])
			}
			pairs[i] = col + ":" + value
		}
		if _, err := io.WriteString(w, strings.Join(pairs, "\t")+"\n"); err != nil {
			return fmt.Errorf("failed to write LTSV record: %w", err)
		}
	}
	return nil
}

func writeXLSX(w io.Writer, rs *model.ResultSet) error {
	book := excelize.NewFile()
	defer func() {
		_ = book.Close()
	}()

	header := make([]any, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = col
	}
	if err := book.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write XLSX header: %w", err)
	}
	for i, row := range rs.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address XLSX row %d: %w", i+2, err)
		}
		if err := book.SetSheetRow(xlsxSheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write XLSX row %d: %w", i+2, err)
		}
	}
	if err := book.Write(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}
