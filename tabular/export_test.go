package tabular

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/pivotsql/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func pivotResult() *model.ResultSet {
	return &model.ResultSet{
		Columns: []string{"region", "jan_amount", "feb_amount"},
		Rows: [][]any{
			{"eu", int64(10), 20.5},
			{"us\twest", nil, []byte("7")},
		},
	}
}

func TestWriteResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format model.FileType
		want   string
	}{
		{
			name:   "csv",
			format: model.FileTypeCSV,
			want:   "region,jan_amount,feb_amount\neu,10,20.5\nus\twest,,7\n",
		},
		{
			name:   "tsv",
			format: model.FileTypeTSV,
			want:   "region\tjan_amount\tfeb_amount\neu\t10\t20.5\n\"us\twest\"\t\t7\n",
		},
		{
			name:   "ltsv",
			format: model.FileTypeLTSV,
			want:   "region:eu\tjan_amount:10\tfeb_amount:20.5\nregion:us west\tjan_amount:\tfeb_amount:7\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, WriteResults(&buf, pivotResult(), model.NewExportOptions().WithFormat(tt.format)))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteResults_XLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, pivotResult(), model.NewExportOptions().WithFormat(model.FileTypeXLSX)))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() {
		_ = book.Close()
	}()
	rows, err := book.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"region", "jan_amount", "feb_amount"}, rows[0])
	assert.Equal(t, []string{"eu", "10", "20.5"}, rows[1])
	assert.Equal(t, "7", rows[2][2])
}

func TestWriteResults_Errors(t *testing.T) {
	t.Parallel()

	err := WriteResults(io.Discard, pivotResult(), model.NewExportOptions().WithFormat(model.FileTypeParquet))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	err = WriteResults(io.Discard, pivotResult(), model.NewExportOptions().WithCompression(model.CompressionBZ2))
	assert.ErrorContains(t, err, "bzip2")

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, nil, model.NewExportOptions()))
	assert.Equal(t, "\n", buf.String())
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		"out.csv", "out.tsv", "out.ltsv", "out.xlsx",
		"out.csv.gz", "out.tsv.zst", "out.ltsv.xz",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, Save(path, pivotResult()))

			table, err := Load(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, "out", table.Name())
			assert.Equal(t, model.NewHeader([]string{"region", "jan_amount", "feb_amount"}), table.Header())
			require.Len(t, table.Records(), 2)
			assert.Equal(t, model.NewRecord([]string{"eu", "10", "20.5"}), table.Records()[0])
		})
	}
}

func TestSave_UnknownExtensionIsCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "result.txt")
	require.NoError(t, Save(path, pivotResult()))

	got, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got), "region,jan_amount,feb_amount\n"))
}
