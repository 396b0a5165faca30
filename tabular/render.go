package tabular

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/pivotsql/domain/model"
	"golang.org/x/term"
)

// Render prints rs as a box table when w is a terminal and as CSV otherwise,
// so that piped output stays machine readable.
func Render(w io.Writer, rs *model.ResultSet) error {
	if IsTerminal(w) {
		return RenderTable(w, rs)
	}
	return WriteResults(w, rs, model.NewExportOptions())
}

// RenderTable prints rs as a box table followed by the row count.
func RenderTable(w io.Writer, rs *model.ResultSet) error {
	if rs.Len() == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, cells := range rs.StringRows() {
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()

	_, err := fmt.Fprintf(w, "(%d rows)\n", rs.Len())
	return err
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
