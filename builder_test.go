package pivotsql

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilder(t *testing.T) {
	t.Parallel()

	builder := NewBuilder()
	require.NotNil(t, builder, "NewBuilder() should not return nil")
	assert.Empty(t, builder.spec.IndexColumns)
	assert.Equal(t, SourceUnset, builder.spec.Source.Kind())
	assert.Nil(t, builder.measureSuffix)
}

func TestPivotBuilder_Lists(t *testing.T) {
	t.Parallel()

	t.Run("comma separated entries are split", func(t *testing.T) {
		t.Parallel()

		b := NewBuilder().Index("a, b", "c").Measures("x,,y ")
		assert.Equal(t, []string{"a", "b", "c"}, b.spec.IndexColumns)
		assert.Equal(t, []string{"x", "y"}, b.spec.Measures.Names())
	})

	t.Run("chained calls append", func(t *testing.T) {
		t.Parallel()

		b := NewBuilder().Index("a").Index("b").Measures("x").Measures("y")
		assert.Equal(t, []string{"a", "b"}, b.spec.IndexColumns)
		assert.True(t, b.spec.Measures.IsMulti())
	})
}

func TestPivotBuilder_Aggregation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "max({})", NewBuilder().AggFunc("max").spec.Aggregation.String())
	assert.Equal(t, "avg({})", NewBuilder().AggFunc("max").CustomAgg("avg({})").spec.Aggregation.String())
	assert.Equal(t, "max({})", NewBuilder().AggFunc("max").CustomAgg("  ").spec.Aggregation.String(),
		"a blank template keeps the function")
}

func TestPivotBuilder_SourceSelection(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	b := NewBuilder().FromPath("a.csv").FromRemoteTable("ds.t", q)
	assert.Empty(t, b.path)
	assert.Equal(t, SourceRemoteTable, b.spec.Source.Kind())

	b = NewBuilder().FromTable(salesTable()).FromPath("a.csv")
	assert.Equal(t, "a.csv", b.path)
	assert.Equal(t, SourceUnset, b.spec.Source.Kind())
}

func TestPivotBuilder_Build(t *testing.T) {
	t.Parallel()

	t.Run("from in-memory table", func(t *testing.T) {
		t.Parallel()

		p, err := NewBuilder().
			FromTable(salesTable()).
			Index("region", "channel").
			Pivot("month").
			Measures("amount").
			Prefix("m").
			MeasureSuffix(true).
			TableName("ds.sales").
			Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"m_jan_amount", "m_feb_amount", "m_mar_amount"}, p.ColumnNames())
		assert.Equal(t, "ds.sales", p.Spec().TableName)
	})

	t.Run("from csv file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sales.csv")
		require.NoError(t, os.WriteFile(path, []byte("region,month,amount\neu,jan,1\nus,feb,2\n"), 0o600))

		p, err := NewBuilder().
			FromPath(path).
			Index("region").
			Pivot("month").
			Measures("amount").
			Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"jan", "feb"}, p.Values())
		assert.Equal(t, TablePlaceholder, p.Spec().TableName)
	})

	t.Run("from csv file with byte order mark", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "excel.csv")
		require.NoError(t, os.WriteFile(path, []byte("\uFEFFregion,month,amount\neu,jan,1\n"), 0o600))

		p, err := NewBuilder().
			FromPath(path).
			Index("region").
			Pivot("month").
			Measures("amount").
			Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"region"}, p.Spec().IndexColumns)
		assert.Equal(t, []string{"jan"}, p.Values())
	})

	t.Run("from gzip compressed tsv", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := io.WriteString(zw, "region\tcity\tamount\neu\tSão Paulo\t1\n")
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		path := filepath.Join(t.TempDir(), "sales.tsv.gz")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

		p, err := NewBuilder().
			FromPath(path).
			Index("region").
			Pivot("city").
			Measures("amount").
			Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"so_paulo"}, p.ColumnNames())
	})

	t.Run("from remote object through opener", func(t *testing.T) {
		t.Parallel()

		opener := &fakeOpener{data: "region,month,amount\neu,jan,1\n"}
		p, err := NewBuilder().
			FromPath("gs://bucket/dir/sales.csv").
			WithOpener(opener).
			Index("region").
			Pivot("month").
			Measures("amount").
			Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"gs://bucket/dir/sales.csv"}, opener.uris)
		assert.Equal(t, []string{"jan"}, p.Values())
	})

	t.Run("unreadable file is a configuration error", func(t *testing.T) {
		t.Parallel()

		_, err := NewBuilder().
			FromPath(filepath.Join(t.TempDir(), "missing.csv")).
			Index("region").
			Pivot("month").
			Measures("amount").
			Build(context.Background())
		assert.True(t, errors.Is(err, ErrConfiguration))
		assert.Contains(t, err.Error(), "load data failed")
	})

	t.Run("no source", func(t *testing.T) {
		t.Parallel()

		_, err := NewBuilder().Index("region").Pivot("month").Measures("amount").Build(context.Background())
		assert.True(t, errors.Is(err, ErrConfiguration))
	})

	t.Run("measure suffix cannot be disabled for several measures", func(t *testing.T) {
		t.Parallel()

		_, err := NewBuilder().
			FromTable(salesTable()).
			Index("region").
			Pivot("month").
			Measures("amount,qty").
			MeasureSuffix(false).
			Build(context.Background())
		assert.True(t, errors.Is(err, ErrConfiguration))
	})
}

type fakeOpener struct {
	data string
	uris []string
}

func (f *fakeOpener) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	f.uris = append(f.uris, uri)
	return io.NopCloser(strings.NewReader(f.data)), nil
}
