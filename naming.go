package pivotsql

import (
	"strings"
)

// Character validation constants
const (
	// firstDigitChar represents the first numeric character
	firstDigitChar = '0'
	// lastDigitChar represents the last numeric character
	lastDigitChar = '9'
	// firstLowerChar represents the first lowercase letter
	firstLowerChar = 'a'
	// lastLowerChar represents the last lowercase letter
	lastLowerChar = 'z'
	// firstUpperChar represents the first uppercase letter
	firstUpperChar = 'A'
	// lastUpperChar represents the last uppercase letter
	lastUpperChar = 'Z'
	// underscoreChar represents the underscore character
	underscoreChar = '_'
)

// Sanitize turns an arbitrary pivot value into a restricted identifier.
// The steps run in this order:
//
//  1. every space becomes an underscore
//  2. every character other than an ASCII letter, digit or underscore is removed
//  3. runs of underscores collapse into one
//  4. the result is lowercased
//  5. leading and trailing underscores are stripped
//
// Sanitize is total and idempotent. Distinct inputs may map to the same
// name ("A B" and "A_B" both become "a_b").
func Sanitize(value string) string {
	var sb strings.Builder
	sb.Grow(len(value))

	lastUnderscore := false
	for _, r := range value {
		if r == ' ' {
			r = underscoreChar
		}
		switch {
		case r == underscoreChar:
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		case r >= firstUpperChar && r <= lastUpperChar:
			r += firstLowerChar - firstUpperChar
			lastUnderscore = false
		case (r >= firstLowerChar && r <= lastLowerChar) || (r >= firstDigitChar && r <= lastDigitChar):
			lastUnderscore = false
		default:
			continue
		}
		sb.WriteRune(r)
	}
	return strings.Trim(sb.String(), "_")
}

// ColumnName assembles the output column name for one pivot value:
// prefix, sanitized value, measure and suffix, each sanitized, joined with
// underscores. Empty segments are omitted, so an unset prefix does not leave
// a dangling underscore. Pass an empty measure to leave it out. When every
// segment is empty the name is a single underscore.
func ColumnName(prefix, value, measure, suffix string) string {
	segments := make([]string, 0, 4)
	for _, s := range []string{prefix, value, measure, suffix} {
		if clean := Sanitize(s); clean != "" {
			segments = append(segments, clean)
		}
	}
	if len(segments) == 0 {
		return "_"
	}
	return strings.Join(segments, "_")
}

// OrdinalName is the measure-independent key that links a pivot value's rank
// in the wide_ranked block to its array position. It never appears in the
// final output columns.
func OrdinalName(value string) string {
	return Sanitize(value) + "_"
}

// reservedKeywords are the BigQuery keywords that cannot be used as
// unquoted identifiers, lowercased.
var reservedKeywords = map[string]bool{
	"all": true, "and": true, "any": true, "array": true, "as": true, "asc": true,
	"assert_rows_modified": true, "at": true, "between": true, "by": true, "case": true,
	"cast": true, "collate": true, "contains": true, "create": true, "cross": true,
	"cube": true, "current": true, "default": true, "define": true, "desc": true,
	"distinct": true, "else": true, "end": true, "enum": true, "escape": true,
	"except": true, "exclude": true, "exists": true, "extract": true, "false": true,
	"fetch": true, "following": true, "for": true, "from": true, "full": true,
	"group": true, "grouping": true, "groups": true, "hash": true, "having": true,
	"if": true, "ignore": true, "in": true, "inner": true, "intersect": true,
	"interval": true, "into": true, "is": true, "join": true, "lateral": true,
	"left": true, "like": true, "limit": true, "lookup": true, "merge": true,
	"natural": true, "new": true, "no": true, "not": true, "null": true, "nulls": true,
	"of": true, "on": true, "or": true, "order": true, "outer": true, "over": true,
	"partition": true, "preceding": true, "proto": true, "qualify": true, "range": true,
	"recursive": true, "respect": true, "right": true, "rollup": true, "rows": true,
	"select": true, "set": true, "some": true, "struct": true, "tablesample": true,
	"then": true, "to": true, "treat": true, "true": true, "unbounded": true,
	"union": true, "unnest": true, "using": true, "when": true, "where": true,
	"window": true, "with": true, "within": true,
}

// quoteIdent backtick-quotes a synthesized name that BigQuery would not
// accept bare: one starting with a digit, or a reserved keyword. Synthesized
// names only hold [a-z0-9_], so nothing inside needs escaping.
func quoteIdent(name string) string {
	if name == "" || (name[0] >= firstDigitChar && name[0] <= lastDigitChar) || reservedKeywords[name] {
		return "`" + name + "`"
	}
	return name
}

// QuoteLiteral renders value as a double-quoted string literal. Backslashes,
// double quotes and line breaks are escaped so that no pivot value can end
// the literal early.
func QuoteLiteral(value string) string {
	var sb strings.Builder
	sb.Grow(len(value) + 2)
	sb.WriteByte('"')
	for _, r := range value {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// columnNames synthesizes one name per value. measure is "" when the
// measure segment is switched off.
func columnNames(values []string, prefix, measure, suffix string) []string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = ColumnName(prefix, v, measure, suffix)
	}
	return names
}

// ordinalNames synthesizes the ordinal key of every value.
func ordinalNames(values []string) []string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = OrdinalName(v)
	}
	return names
}

// findCollisions maps every name produced by more than one distinct value
// to those values, in discovery order.
func findCollisions(values, names []string) map[string][]string {
	byName := make(map[string][]string, len(names))
	for i, name := range names {
		byName[name] = append(byName[name], values[i])
	}
	for name, vs := range byName {
		if len(vs) < 2 {
			delete(byName, name)
		}
	}
	return byName
}
