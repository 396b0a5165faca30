package pivotsql

import (
	"strings"
)

// AggregationSlot is the placeholder a custom aggregation template must
// contain exactly once, e.g. "round(avg({}), 2)".
const AggregationSlot = "{}"

// DefaultAggregation is the aggregation function used when none is configured.
const DefaultAggregation = "sum"

// Aggregation is either a named function applied as func(expr), or a custom
// template whose single slot receives the expression.
type Aggregation struct {
	function string
	template string
}

// AggFunc returns the aggregation that wraps expressions in name(...).
func AggFunc(name string) Aggregation {
	return Aggregation{function: strings.TrimSpace(name)}
}

// AggTemplate returns the aggregation that substitutes expressions into tmpl.
// The template is validated when the pivot is built.
func AggTemplate(tmpl string) Aggregation {
	return Aggregation{template: tmpl}
}

// IsTemplate reports whether the aggregation is a custom template.
func (a Aggregation) IsTemplate() bool {
	return a.template != ""
}

// IsZero reports whether no aggregation was configured.
func (a Aggregation) IsZero() bool {
	return a.function == "" && a.template == ""
}

// Apply wraps expr with the aggregation.
func (a Aggregation) Apply(expr string) string {
	if a.IsTemplate() {
		return strings.Replace(a.template, AggregationSlot, expr, 1)
	}
	return a.function + "(" + expr + ")"
}

// String returns the aggregation with an empty slot, for logs.
func (a Aggregation) String() string {
	return a.Apply(AggregationSlot)
}

func (a Aggregation) validate() error {
	if a.IsTemplate() {
		if n := strings.Count(a.template, AggregationSlot); n != 1 {
			return configError("validate aggregation",
				"custom aggregation %q must contain exactly one %s slot, found %d", a.template, AggregationSlot, n)
		}
		return nil
	}
	if a.function == "" {
		return configError("validate aggregation", "aggregation function is empty")
	}
	for _, r := range a.function {
		if !(r == underscoreChar || r == '.' ||
			(r >= firstLowerChar && r <= lastLowerChar) ||
			(r >= firstUpperChar && r <= lastUpperChar) ||
			(r >= firstDigitChar && r <= lastDigitChar)) {
			return configError("validate aggregation",
				"aggregation function %q is not an identifier; use a custom template instead", a.function)
		}
	}
	return nil
}
