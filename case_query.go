package pivotsql

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// caseStatement assembles the single-measure CASE form:
//
//	select <index columns>,
//	<agg>(case when <pivot> = "<value>" then <measure> else <default> end) as <name>, ...
//	from <table>
//	group by 1, ..., N
func (p *Pivot) caseStatement() (string, error) {
	caseExprs, err := caseStage(
		p.spec.PivotColumn,
		p.spec.Measures.names[0],
		p.spec.NotEqDefault,
		p.spec.Aggregation,
		p.values,
		p.names[0],
	)
	if err != nil {
		return "", err
	}

	stmt := strings.Join([]string{
		selectStage(p.spec.IndexColumns),
		caseExprs,
		fromStage(p.spec.TableName),
		groupByStage(len(p.spec.IndexColumns)),
	}, "\n")

	p.logger.Debug("assembled case statement",
		slog.Int("columns", len(p.values)),
		slog.String("aggregation", p.spec.Aggregation.String()))
	return stmt, nil
}

// selectStage emits the select keyword and the index columns. The trailing
// comma separates them from the CASE expressions that follow.
func selectStage(index []string) string {
	return "select " + strings.Join(index, ", ") + ","
}

// caseStage emits one aggregated CASE expression per pivot value, in
// discovery order, separated by ",\n" with no trailing comma.
func caseStage(pivotCol, measure, notEqDefault string, agg Aggregation, values, names []string) (string, error) {
	if len(values) != len(names) {
		return "", NewErrorContext("assemble case expressions").
			WithDetails("%d pivot values but %d column names", len(values), len(names)).
			Error(ErrAssemblyInvariant)
	}

	exprs := make([]string, len(values))
	for i, v := range values {
		caseExpr := fmt.Sprintf("case when %s = %s then %s else %s end",
			pivotCol, QuoteLiteral(v), measure, notEqDefault)
		exprs[i] = agg.Apply(caseExpr) + " as " + quoteIdent(names[i])
	}
	return strings.Join(exprs, ",\n"), nil
}

// fromStage emits the FROM clause.
func fromStage(table string) string {
	return "from " + table
}

// groupByStage groups by the 1-based positions of the n index columns.
func groupByStage(n int) string {
	positions := make([]string, n)
	for i := range n {
		positions[i] = strconv.Itoa(i + 1)
	}
	return "group by " + strings.Join(positions, ", ")
}
