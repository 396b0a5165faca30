package pivotsql

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nao1215/pivotsql/domain/model"
	"github.com/nao1215/pivotsql/tabular"
)

// PivotBuilder configures a pivot step by step. Use NewBuilder to create one,
// chain the setters and finish with Build.
//
// The typical usage pattern is:
//
//	p, err := pivotsql.NewBuilder().
//		FromPath("sales.csv").
//		Index("region").
//		Pivot("month").
//		Measures("amount").
//		Build(ctx)
//	if err != nil {
//		return err
//	}
//	sql, err := p.Statement()
type PivotBuilder struct {
	spec Spec
	// path is loaded during Build when no other source is set
	path   string
	opener tabular.Opener
	// measureSuffix records an explicit setting; nil leaves the default
	measureSuffix *bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *PivotBuilder {
	return &PivotBuilder{}
}

// Index appends index columns. Comma separated lists are split.
func (b *PivotBuilder) Index(columns ...string) *PivotBuilder {
	b.spec.IndexColumns = append(b.spec.IndexColumns, splitList(columns)...)
	return b
}

// Pivot sets the pivot column.
func (b *PivotBuilder) Pivot(column string) *PivotBuilder {
	b.spec.PivotColumn = column
	return b
}

// Measures appends measure columns. Comma separated lists are split.
func (b *PivotBuilder) Measures(columns ...string) *PivotBuilder {
	b.spec.Measures = ManyMeasures(append(b.spec.Measures.names, splitList(columns)...)...)
	return b
}

// AggFunc sets a named aggregation function such as "sum" or "max".
func (b *PivotBuilder) AggFunc(name string) *PivotBuilder {
	b.spec.Aggregation = AggFunc(name)
	return b
}

// CustomAgg sets a custom aggregation template with exactly one "{}" slot.
// It takes precedence over AggFunc.
func (b *PivotBuilder) CustomAgg(tmpl string) *PivotBuilder {
	if strings.TrimSpace(tmpl) != "" {
		b.spec.Aggregation = AggTemplate(tmpl)
	}
	return b
}

// NotEqDefault sets the ELSE literal of CASE expressions.
func (b *PivotBuilder) NotEqDefault(literal string) *PivotBuilder {
	b.spec.NotEqDefault = literal
	return b
}

// Prefix sets the column name prefix.
func (b *PivotBuilder) Prefix(prefix string) *PivotBuilder {
	b.spec.Prefix = prefix
	return b
}

// Suffix sets the column name suffix.
func (b *PivotBuilder) Suffix(suffix string) *PivotBuilder {
	b.spec.Suffix = suffix
	return b
}

// MeasureSuffix switches the measure name segment of column names on or off.
func (b *PivotBuilder) MeasureSuffix(on bool) *PivotBuilder {
	b.measureSuffix = &on
	return b
}

// FromTable discovers values in an in-memory table.
func (b *PivotBuilder) FromTable(table *model.Table) *PivotBuilder {
	b.spec.Source = FromTable(table)
	b.path = ""
	return b
}

// FromPath loads a local file, or a gs:// or s3:// object when an opener is
// set, during Build and discovers values in it.
func (b *PivotBuilder) FromPath(path string) *PivotBuilder {
	b.path = path
	b.spec.Source = Source{}
	return b
}

// WithOpener sets the object store used by FromPath for remote URIs.
func (b *PivotBuilder) WithOpener(opener tabular.Opener) *PivotBuilder {
	b.opener = opener
	return b
}

// FromRemoteTable discovers values by querying name through querier.
func (b *PivotBuilder) FromRemoteTable(name string, querier ValueQuerier) *PivotBuilder {
	b.spec.Source = FromRemoteTable(name, querier)
	b.path = ""
	return b
}

// TableName sets the FROM target of the generated statement.
func (b *PivotBuilder) TableName(name string) *PivotBuilder {
	b.spec.TableName = name
	return b
}

// Logger sets the logger handed to the pivot.
func (b *PivotBuilder) Logger(logger *slog.Logger) *PivotBuilder {
	b.spec.Logger = logger
	return b
}

// Build loads the data source if a path was given, then validates the
// configuration and discovers pivot values as New does.
func (b *PivotBuilder) Build(ctx context.Context) (*Pivot, error) {
	spec := b.spec
	spec.MeasureSuffix = b.measureSuffix

	if b.path != "" {
		var opts []tabular.LoadOption
		if b.opener != nil {
			opts = append(opts, tabular.WithOpener(b.opener))
		}
		table, err := tabular.Load(ctx, b.path, opts...)
		if err != nil {
			return nil, NewErrorContext("load data").
				WithTable(b.path).
				Wrap(ErrConfiguration, err)
		}
		spec.Source = FromTable(table)
	}
	return New(ctx, spec)
}

// splitList flattens comma separated entries and drops blanks.
func splitList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
