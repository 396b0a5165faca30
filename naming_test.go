package pivotsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "space becomes underscore", value: "A B", want: "a_b"},
		{name: "hyphen is removed", value: "a-b", want: "ab"},
		{name: "underscore is kept", value: "A_B", want: "a_b"},
		{name: "punctuation is removed", value: "Foo Bar!", want: "foo_bar"},
		{name: "runs of underscores collapse", value: "a__ _b", want: "a_b"},
		{name: "leading and trailing underscores stripped", value: "  _x_  ", want: "x"},
		{name: "removed characters do not split underscores", value: "a_-_b", want: "a_b"},
		{name: "digits survive", value: "Q1 2024", want: "q1_2024"},
		{name: "non-ASCII letters are removed", value: "Café Noël", want: "caf_nol"},
		{name: "only symbols", value: "!@#", want: ""},
		{name: "empty", value: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Sanitize(tt.value)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Sanitize(got), "sanitize must be idempotent")
		})
	}
}

func TestSanitize_Alphabet(t *testing.T) {
	t.Parallel()

	inputs := []string{"Mr. O'Brien", "São Paulo", "tab\there", "__init__", "x\x00y", "100%", "a  b  c"}
	for _, in := range inputs {
		got := Sanitize(in)
		for _, r := range got {
			ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
			assert.Truef(t, ok, "Sanitize(%q) = %q contains %q", in, got, r)
		}
		assert.NotContains(t, got, "__")
		if got != "" {
			assert.NotEqual(t, byte('_'), got[0])
			assert.NotEqual(t, byte('_'), got[len(got)-1])
		}
	}
}

func TestColumnName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prefix  string
		value   string
		measure string
		suffix  string
		want    string
	}{
		{name: "value only", value: "Jan", want: "jan"},
		{name: "prefix and suffix", prefix: "p", value: "Foo Bar!", suffix: "s", want: "p_foo_bar_s"},
		{name: "prefix and suffix without space", prefix: "p", value: "FooBar!", suffix: "s", want: "p_foobar_s"},
		{name: "with measure", value: "Jan", measure: "Amount", want: "jan_amount"},
		{name: "all segments", prefix: "Tot", value: "2024 Q1", measure: "qty", suffix: "v", want: "tot_2024_q1_qty_v"},
		{name: "segments are sanitized", prefix: "my pre!", value: "x", suffix: "-s-", want: "my_pre_x_s"},
		{name: "blank segment leaves no underscore", prefix: "!!", value: "x", want: "x"},
		{name: "everything empty", value: "?", want: "_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ColumnName(tt.prefix, tt.value, tt.measure, tt.suffix))
		})
	}
}

func TestColumnNames_Collisions(t *testing.T) {
	t.Parallel()

	values := []string{"A B", "a-b", "A_B"}
	names := columnNames(values, "", "", "")
	assert.Equal(t, []string{"a_b", "ab", "a_b"}, names)
	assert.Equal(t, map[string][]string{"a_b": {"A B", "A_B"}}, findCollisions(values, names))
}

func TestOrdinalName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jan_", OrdinalName("Jan"))
	assert.Equal(t, "new_york_", OrdinalName("New York"))
	assert.Equal(t, []string{"a_", "b_"}, ordinalNames([]string{"a", "B"}))
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain name", in: "jan_amount", want: "jan_amount"},
		{name: "leading digit", in: "2024", want: "`2024`"},
		{name: "leading digit ordinal", in: "2024_", want: "`2024_`"},
		{name: "digit inside", in: "q1_2024", want: "q1_2024"},
		{name: "reserved keyword", in: "from", want: "`from`"},
		{name: "keyword with suffix", in: "from_", want: "from_"},
		{name: "underscore", in: "_", want: "_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, quoteIdent(tt.in))
		})
	}
}

func TestQuoteLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain", value: "jan", want: `"jan"`},
		{name: "empty", value: "", want: `""`},
		{name: "double quote", value: `say "hi"`, want: `"say \"hi\""`},
		{name: "backslash", value: `a\b`, want: `"a\\b"`},
		{name: "backslash before quote", value: `a\"`, want: `"a\\\""`},
		{name: "line breaks and tab", value: "a\nb\r\tc", want: `"a\nb\r\tc"`},
		{name: "single quote untouched", value: "O'Brien", want: `"O'Brien"`},
		{name: "unicode untouched", value: "Zürich", want: `"Zürich"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, QuoteLiteral(tt.value))
		})
	}
}
