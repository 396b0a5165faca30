package pivotsql

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/pivotsql/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	result  *model.ResultSet
	err     error
	queries []string
	tables  []string
}

func (f *fakeSubmitter) Submit(_ context.Context, query, table string) (*model.ResultSet, error) {
	f.queries = append(f.queries, query)
	f.tables = append(f.tables, table)
	return f.result, f.err
}

func newSalesPivot(t *testing.T) *Pivot {
	t.Helper()

	p, err := New(context.Background(), Spec{
		IndexColumns: []string{"region"},
		PivotColumn:  "month",
		Measures:     SingleMeasure("amount"),
		Source:       FromTable(salesTable()),
		TableName:    "ds.sales",
	})
	require.NoError(t, err)
	return p
}

func TestDestination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dst       Destination
		name      string
		submitted bool
	}{
		{dst: Console(), name: "console"},
		{dst: QueryFile("q.sql"), name: "query-file"},
		{dst: Table("ds.t"), name: "table", submitted: true},
		{dst: TempTable(), name: "temp-table", submitted: true},
		{dst: LocalFile("r.csv"), name: "local-file", submitted: true},
		{dst: Destination{Kind: DestinationKind(42)}, name: "destination(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.name, tt.dst.Kind.String())
			assert.Equal(t, tt.submitted, tt.dst.IsSubmitted())
		})
	}
}

func TestPivot_Write(t *testing.T) {
	t.Parallel()

	p := newSalesPivot(t)
	stmt, err := p.Statement()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))
	assert.Equal(t, stmt+"\n", buf.String())
}

func TestPivot_WriteFile(t *testing.T) {
	t.Parallel()

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		p := newSalesPivot(t)
		path := filepath.Join(t.TempDir(), "a", "b", "pivot.sql")
		require.NoError(t, p.WriteFile(path))

		got, err := os.ReadFile(path) //nolint:gosec // test path
		require.NoError(t, err)
		stmt, err := p.Statement()
		require.NoError(t, err)
		assert.Equal(t, stmt+"\n", string(got))
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()

		err := newSalesPivot(t).WriteFile(" ")
		assert.True(t, errors.Is(err, ErrConfiguration))
	})
}

func TestPivot_Deliver(t *testing.T) {
	t.Parallel()

	result := &model.ResultSet{Columns: []string{"region", "jan"}, Rows: [][]any{{"eu", int64(10)}}}

	t.Run("console", func(t *testing.T) {
		t.Parallel()

		p := newSalesPivot(t)
		var out bytes.Buffer
		rs, err := p.Deliver(context.Background(), Console(), nil, &out)
		require.NoError(t, err)
		assert.Nil(t, rs)
		assert.Contains(t, out.String(), "from ds.sales\ngroup by 1\n")
	})

	t.Run("query file", func(t *testing.T) {
		t.Parallel()

		p := newSalesPivot(t)
		path := filepath.Join(t.TempDir(), "q.sql")
		rs, err := p.Deliver(context.Background(), QueryFile(path), nil, nil)
		require.NoError(t, err)
		assert.Nil(t, rs)
		assert.FileExists(t, path)
	})

	t.Run("named table", func(t *testing.T) {
		t.Parallel()

		p := newSalesPivot(t)
		sub := &fakeSubmitter{result: result}
		rs, err := p.Deliver(context.Background(), Table(" ds.out "), sub, nil)
		require.NoError(t, err)
		assert.Equal(t, result, rs)
		assert.Equal(t, []string{"ds.out"}, sub.tables)

		stmt, err := p.Statement()
		require.NoError(t, err)
		assert.Equal(t, []string{stmt}, sub.queries)
	})

	t.Run("temp table and local file use anonymous tables", func(t *testing.T) {
		t.Parallel()

		p := newSalesPivot(t)
		sub := &fakeSubmitter{result: result}
		_, err := p.Deliver(context.Background(), TempTable(), sub, nil)
		require.NoError(t, err)
		_, err = p.Deliver(context.Background(), LocalFile("out.csv"), sub, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"", ""}, sub.tables)
	})

	t.Run("configuration errors", func(t *testing.T) {
		t.Parallel()

		p := newSalesPivot(t)
		sub := &fakeSubmitter{result: result}
		for _, dst := range []Destination{Table(""), LocalFile(""), {Kind: DestinationKind(9)}} {
			_, err := p.Deliver(context.Background(), dst, sub, nil)
			assert.True(t, errors.Is(err, ErrConfiguration), dst.Kind.String())
		}
		_, err := p.Deliver(context.Background(), TempTable(), nil, nil)
		assert.True(t, errors.Is(err, ErrConfiguration))
		assert.Empty(t, sub.queries)
	})

	t.Run("submit failure", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("quota exceeded")
		_, err := newSalesPivot(t).Deliver(context.Background(), TempTable(), &fakeSubmitter{err: cause}, nil)
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "failed to submit pivot statement")
	})
}
