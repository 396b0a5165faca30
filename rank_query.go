package pivotsql

import (
	"fmt"
	"log/slog"
	"strings"
)

// Block names of the multi-measure statement.
const (
	wideRankedName          = "wide_ranked"
	longArrayAggregatedName = "long_array_aggregated"
)

// Helper column and relation aliases. The prefix keeps them apart from
// user column names.
const (
	rankColumn = "__pivot_rnk"
	baseAlias  = "__pivot_base"
	gridAlias  = "__pivot_grid"
	indexAlias = "__pivot_index"
	valueAlias = "__pivot_value"
	longAlias  = "__pivot_long"
	wideAlias  = "__pivot_wide"
)

// rankArrayStatement assembles the multi-measure form. A CASE query per
// measure would need either a cross join explosion or one scan per measure;
// instead each pivot value gets one rank, computed once (wide_ranked), every
// measure is collected into an array ordered by that rank per index tuple
// (long_array_aggregated), and the projection reads array elements back by
// the shared rank.
func (p *Pivot) rankArrayStatement() (string, error) {
	if len(p.ordinals) != len(p.values) || len(p.names) != p.spec.Measures.Len() {
		return "", NewErrorContext("assemble rank statement").
			WithDetails("%d pivot values, %d ordinal names, %d name rows for %d measures",
				len(p.values), len(p.ordinals), len(p.names), p.spec.Measures.Len()).
			Error(ErrAssemblyInvariant)
	}

	wide, err := wideRankedBlock(p.spec.TableName, p.spec.PivotColumn, p.values, p.ordinals)
	if err != nil {
		return "", err
	}
	long := longArrayBlock(p.spec.TableName, p.spec.IndexColumns, p.spec.PivotColumn, p.spec.Measures.names, p.spec.Aggregation)
	projection, err := projectionBlock(p.spec.IndexColumns, p.spec.Measures.names, p.ordinals, p.names)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("with ")
	sb.WriteString(wideRankedName)
	sb.WriteString(" as (\n")
	sb.WriteString(indent(wide))
	sb.WriteString("\n),\n")
	sb.WriteString(longArrayAggregatedName)
	sb.WriteString(" as (\n")
	sb.WriteString(indent(long))
	sb.WriteString("\n)\n")
	sb.WriteString(projection)

	p.logger.Debug("assembled rank statement",
		slog.Int("values", len(p.values)),
		slog.Int("measures", p.spec.Measures.Len()))
	return sb.String(), nil
}

// wideRankedBlock ranks the distinct pivot values by value and collapses the
// ranks into a single row holding one column per value, named by its ordinal
// name.
func wideRankedBlock(table, pivotCol string, values, ordinals []string) (string, error) {
	if len(values) != len(ordinals) {
		return "", NewErrorContext("assemble wide_ranked").
			WithDetails("%d pivot values but %d ordinal names", len(values), len(ordinals)).
			Error(ErrAssemblyInvariant)
	}

	cols := make([]string, len(values))
	for i, v := range values {
		cols[i] = fmt.Sprintf("  max(if(%s = %s, %s, null)) as %s", pivotCol, QuoteLiteral(v), rankColumn, quoteIdent(ordinals[i]))
	}

	var sb strings.Builder
	sb.WriteString("select\n")
	sb.WriteString(strings.Join(cols, ",\n"))
	sb.WriteString("\nfrom (\n")
	fmt.Fprintf(&sb, "  select %s, row_number() over (order by %s) as %s\n", pivotCol, pivotCol, rankColumn)
	fmt.Fprintf(&sb, "  from (select distinct %s from %s)\n", pivotCol, table)
	sb.WriteString(")")
	return sb.String(), nil
}

// longArrayBlock aggregates every measure into one array per index tuple,
// ordered by pivot value rank. The right join against the full cross product
// of index tuples and pivot values puts a NULL at the rank of every missing
// combination, so all arrays share the layout of wide_ranked. The join uses
// "is not distinct from" so that a NULL index value keeps its measures.
func longArrayBlock(table string, index []string, pivotCol string, measures []string, agg Aggregation) string {
	qualify := func(alias string, cols []string) []string {
		out := make([]string, len(cols))
		for i, c := range cols {
			out[i] = alias + "." + c
		}
		return out
	}

	arrays := make([]string, len(measures))
	preAgg := make([]string, len(measures))
	for i, m := range measures {
		arrays[i] = fmt.Sprintf("  array_agg(%s.%s order by %s.%s) as %s", baseAlias, m, gridAlias, rankColumn, m)
		preAgg[i] = fmt.Sprintf("%s as %s", agg.Apply(m), m)
	}

	joinOn := make([]string, 0, len(index)+1)
	for _, c := range append(append([]string(nil), index...), pivotCol) {
		joinOn = append(joinOn, fmt.Sprintf("%s.%s is not distinct from %s.%s", baseAlias, c, gridAlias, c))
	}

	indexList := strings.Join(index, ", ")
	gridIndex := strings.Join(qualify(gridAlias, index), ", ")
	crossIndex := strings.Join(qualify(indexAlias, index), ", ")

	var sb strings.Builder
	sb.WriteString("select\n")
	fmt.Fprintf(&sb, "  %s,\n", gridIndex)
	sb.WriteString(strings.Join(arrays, ",\n"))
	sb.WriteString("\nfrom (\n")
	fmt.Fprintf(&sb, "  select %s, %s, %s\n", indexList, pivotCol, strings.Join(preAgg, ", "))
	fmt.Fprintf(&sb, "  from %s\n", table)
	fmt.Fprintf(&sb, "  group by %s, %s\n", indexList, pivotCol)
	fmt.Fprintf(&sb, ") %s\n", baseAlias)
	sb.WriteString("right join (\n")
	fmt.Fprintf(&sb, "  select %s, %s.%s, rank() over (partition by %s order by %s.%s) as %s\n",
		crossIndex, valueAlias, pivotCol, crossIndex, valueAlias, pivotCol, rankColumn)
	fmt.Fprintf(&sb, "  from (select distinct %s from %s) %s\n", indexList, table, indexAlias)
	fmt.Fprintf(&sb, "  cross join (select distinct %s from %s) %s\n", pivotCol, table, valueAlias)
	fmt.Fprintf(&sb, ") %s\n", gridAlias)
	fmt.Fprintf(&sb, "on %s\n", strings.Join(joinOn, " and "))
	fmt.Fprintf(&sb, "group by %s", gridIndex)
	return sb.String()
}

// projectionBlock reads every (measure, value) cell out of the aggregated
// arrays at the value's shared rank and aliases it with the decorated name.
func projectionBlock(index, measures, ordinals []string, names [][]string) (string, error) {
	if len(names) != len(measures) {
		return "", NewErrorContext("assemble projection").
			WithDetails("%d measures but %d name rows", len(measures), len(names)).
			Error(ErrAssemblyInvariant)
	}

	cols := make([]string, 0, len(index)+len(measures)*len(ordinals))
	for _, c := range index {
		cols = append(cols, "  "+longAlias+"."+c)
	}
	for i, m := range measures {
		if len(names[i]) != len(ordinals) {
			return "", NewErrorContext("assemble projection").
				WithColumn(m).
				WithDetails("%d ordinal names but %d column names", len(ordinals), len(names[i])).
				Error(ErrAssemblyInvariant)
		}
		for j, ord := range ordinals {
			cols = append(cols, fmt.Sprintf("  %s.%s[ordinal(%s.%s)] as %s",
				longAlias, m, wideAlias, quoteIdent(ord), quoteIdent(names[i][j])))
		}
	}

	var sb strings.Builder
	sb.WriteString("select\n")
	sb.WriteString(strings.Join(cols, ",\n"))
	fmt.Fprintf(&sb, "\nfrom %s %s\n", longArrayAggregatedName, longAlias)
	fmt.Fprintf(&sb, "cross join %s %s", wideRankedName, wideAlias)
	return sb.String(), nil
}

// indent prefixes every line of a block with two spaces.
func indent(block string) string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
