package pivotsql

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// TablePlaceholder is emitted in the FROM clause when no table name is known,
// typically when values were discovered from a local file.
const TablePlaceholder = "<--insert-table-name-here-->"

// DefaultNotEqDefault is the ELSE literal of CASE expressions when none is
// configured. It is the identity of sum and count.
const DefaultNotEqDefault = "0"

// Spec is the configuration of one generation run.
type Spec struct {
	// IndexColumns are kept as GROUP BY keys, in output order.
	IndexColumns []string
	// PivotColumn holds the values that become output columns.
	PivotColumn string
	// Measures are aggregated into each pivoted cell.
	Measures Measures
	// Aggregation defaults to sum.
	Aggregation Aggregation
	// NotEqDefault is the ELSE literal of the CASE form. Defaults to "0".
	NotEqDefault string
	// Prefix and Suffix decorate every synthesized column name.
	Prefix string
	Suffix string
	// MeasureSuffix appends the measure name to column names. nil means off
	// for a single measure; several measures always carry it and reject an
	// explicit false.
	MeasureSuffix *bool
	// Source is where pivot values are discovered.
	Source Source
	// TableName is the FROM target. Defaults to the remote source name, then
	// to TablePlaceholder.
	TableName string
	// Logger receives debug and warning records. nil discards them.
	Logger *slog.Logger
}

// Pivot is a validated Spec together with the pivot values discovered for
// it and the column names synthesized from them. A Pivot is immutable.
type Pivot struct {
	spec     Spec
	logger   *slog.Logger
	values   []string
	names    [][]string // one row per measure, one column per value
	ordinals []string

	mu        sync.Mutex
	statement string
}

// New validates spec, discovers the distinct pivot values and synthesizes
// the output column names. Discovery against a remote table blocks on the
// querier; ctx is passed through to it.
func New(ctx context.Context, spec Spec) (*Pivot, error) {
	logger := spec.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	spec, err := normalize(spec)
	if err != nil {
		return nil, err
	}
	if err := validateSourceColumns(spec); err != nil {
		return nil, err
	}

	values, err := discoverValues(ctx, spec.Source, spec.PivotColumn, logger)
	if err != nil {
		return nil, err
	}

	p := &Pivot{
		spec:   spec,
		logger: logger,
		values: values,
	}
	p.synthesize()
	return p, nil
}

// normalize trims identifiers, applies defaults and rejects inconsistent
// settings.
func normalize(spec Spec) (Spec, error) {
	const op = "validate spec"

	spec.PivotColumn = strings.TrimSpace(spec.PivotColumn)
	if spec.PivotColumn == "" {
		return spec, configError(op, "pivot column is required")
	}

	index, err := cleanIdentifiers("index column", spec.IndexColumns)
	if err != nil {
		return spec, err
	}
	if len(index) == 0 {
		return spec, configError(op, "at least one index column is required")
	}
	spec.IndexColumns = index

	measures, err := cleanIdentifiers("measure column", spec.Measures.names)
	if err != nil {
		return spec, err
	}
	if len(measures) == 0 {
		return spec, configError(op, "at least one measure column is required")
	}
	spec.Measures = Measures{names: measures}

	for _, col := range append(append([]string(nil), index...), measures...) {
		if col == spec.PivotColumn {
			return spec, configError(op, "column %q cannot be both the pivot column and an index or measure column", col)
		}
	}
	for _, m := range measures {
		for _, i := range index {
			if m == i {
				return spec, configError(op, "column %q cannot be both an index and a measure column", m)
			}
		}
	}

	if spec.Measures.IsMulti() && spec.MeasureSuffix != nil && !*spec.MeasureSuffix {
		return spec, configError(op, "measure suffix cannot be disabled with %d measures", spec.Measures.Len())
	}

	if spec.Aggregation.IsZero() {
		spec.Aggregation = AggFunc(DefaultAggregation)
	}
	if err := spec.Aggregation.validate(); err != nil {
		return spec, err
	}

	if strings.TrimSpace(spec.NotEqDefault) == "" {
		spec.NotEqDefault = DefaultNotEqDefault
	}

	spec.TableName = strings.TrimSpace(spec.TableName)
	if spec.TableName == "" && spec.Source.kind == SourceRemoteTable {
		spec.TableName = strings.TrimSpace(spec.Source.name)
	}
	if spec.TableName == "" {
		spec.TableName = TablePlaceholder
	}
	return spec, nil
}

// cleanIdentifiers trims every name and rejects blanks and duplicates.
func cleanIdentifiers(kind string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, configError("validate spec", "%s name is empty", kind)
		}
		if seen[n] {
			return nil, configError("validate spec", "%s %q listed twice", kind, n)
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// validateSourceColumns checks index and measure columns against an
// in-memory table header. The pivot column is checked by discovery.
func validateSourceColumns(spec Spec) error {
	if spec.Source.kind != SourceInMemory || spec.Source.table == nil {
		return nil
	}
	header := spec.Source.table.Header()
	columns := append(append([]string(nil), spec.IndexColumns...), spec.Measures.names...)
	for _, col := range columns {
		if !header.Contains(col) {
			return NewErrorContext("validate spec").
				WithColumn(col).
				WithTable(spec.Source.table.Name()).
				WithDetails("column not in columns %v", []string(header)).
				Error(ErrConfiguration)
		}
	}
	return nil
}

// synthesize derives every output column name from the discovered values.
// It never fails; values that share a name are only logged.
func (p *Pivot) synthesize() {
	measures := p.spec.Measures.names
	withMeasure := p.spec.Measures.IsMulti() || (p.spec.MeasureSuffix != nil && *p.spec.MeasureSuffix)

	p.names = make([][]string, len(measures))
	for i, m := range measures {
		segment := ""
		if withMeasure {
			segment = m
		}
		p.names[i] = columnNames(p.values, p.spec.Prefix, segment, p.spec.Suffix)
	}
	if p.spec.Measures.IsMulti() {
		p.ordinals = ordinalNames(p.values)
	}

	for name, values := range p.Collisions() {
		p.logger.Warn("pivot values share a column name",
			slog.String("column", name),
			slog.Any("values", values))
	}
}

// Spec returns the normalized configuration, defaults applied.
func (p *Pivot) Spec() Spec {
	spec := p.spec
	spec.IndexColumns = append([]string(nil), p.spec.IndexColumns...)
	spec.Measures = ManyMeasures(p.spec.Measures.names...)
	return spec
}

// Values returns the discovered pivot values in discovery order.
func (p *Pivot) Values() []string {
	return append([]string(nil), p.values...)
}

// ColumnNames returns the synthesized output column names: one per value for
// a single measure, measure-major (every value of the first measure, then
// the second, ...) for several.
func (p *Pivot) ColumnNames() []string {
	out := make([]string, 0, len(p.values)*len(p.names))
	for _, row := range p.names {
		out = append(out, row...)
	}
	return out
}

// IsMultiMeasure reports whether Generate emits the rank/array form.
func (p *Pivot) IsMultiMeasure() bool {
	return p.spec.Measures.IsMulti()
}

// Collisions maps each column name produced by two or more distinct pivot
// values to those values. Colliding names are emitted as they are; the
// warehouse will reject or shadow the duplicates.
func (p *Pivot) Collisions() map[string][]string {
	out := make(map[string][]string)
	for _, row := range p.names {
		for name, values := range findCollisions(p.values, row) {
			out[name] = values
		}
	}
	return out
}

// CollidingNames returns the keys of Collisions, sorted.
func (p *Pivot) CollidingNames() []string {
	collisions := p.Collisions()
	names := make([]string, 0, len(collisions))
	for name := range collisions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate assembles the statement from scratch. Repeated calls return
// identical text.
func (p *Pivot) Generate() (string, error) {
	if p.spec.Measures.IsMulti() {
		return p.rankArrayStatement()
	}
	return p.caseStatement()
}

// Statement returns the statement generated on first use and reused after.
func (p *Pivot) Statement() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.statement != "" {
		return p.statement, nil
	}
	stmt, err := p.Generate()
	if err != nil {
		return "", err
	}
	p.statement = stmt
	return stmt, nil
}
