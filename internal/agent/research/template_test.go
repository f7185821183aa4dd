package research

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTemplate(t *testing.T) {
	tests := []struct {
		name  string
		tmpl  string
		input string
		want  string
	}{
		{name: "substitution", tmpl: "Research this: {user_input}", input: "climate change", want: "Research this: climate change"},
		{name: "repeated", tmpl: "{user_input} / {user_input}", input: "x", want: "x / x"},
		{name: "escaped braces", tmpl: "{{json}} {user_input} }}", input: "q", want: "{json} q }"},
		{name: "no placeholder", tmpl: "static prompt", input: "ignored", want: "static prompt"},
		{name: "input with braces", tmpl: "Q: {user_input}", input: "{not a field}", want: "Q: {not a field}"},
		{name: "unicode", tmpl: "Recherche: {user_input} ✓", input: "énergie", want: "Recherche: énergie ✓"},
		{name: "str conversion", tmpl: "Q: {user_input!s}", input: "climate", want: "Q: climate"},
		{name: "repr conversion", tmpl: "Q: {user_input!r}", input: "climate", want: "Q: 'climate'"},
		{name: "repr single quote", tmpl: "{user_input!r}", input: "it's", want: `"it's"`},
		{name: "repr both quotes", tmpl: "{user_input!r}", input: `it's "x"`, want: `'it\'s "x"'`},
		{name: "repr escapes", tmpl: "{user_input!r}", input: "a\tb\n\\", want: `'a\tb\n\\'`},
		{name: "repr keeps unicode", tmpl: "{user_input!r}", input: "énergie", want: "'énergie'"},
		{name: "ascii conversion", tmpl: "{user_input!a}", input: "é€😀", want: `'\xe9\u20ac\U0001f600'`},
		{name: "index", tmpl: "Q: {user_input[0]}", input: "climate", want: "Q: c"},
		{name: "index unicode", tmpl: "{user_input[1]}", input: "énergie", want: "n"},
		{name: "chained index", tmpl: "{user_input[2][0]}", input: "abc", want: "c"},
		{name: "right align", tmpl: "[{user_input:>10}]", input: "q", want: "[         q]"},
		{name: "left align default", tmpl: "[{user_input:5}]", input: "ab", want: "[ab   ]"},
		{name: "center fill", tmpl: "[{user_input:*^7}]", input: "ab", want: "[**ab***]"},
		{name: "zero fill", tmpl: "{user_input:05}", input: "ab", want: "ab000"},
		{name: "precision", tmpl: "{user_input:.3}", input: "climate", want: "cli"},
		{name: "width precision type", tmpl: "[{user_input:>6.2s}]", input: "climate", want: "[    cl]"},
		{name: "conversion and width", tmpl: "[{user_input!r:>9}]", input: "abc", want: "[    'abc']"},
		{name: "empty format", tmpl: "{user_input:}", input: "x", want: "x"},
		{name: "width shorter than value", tmpl: "{user_input:2}", input: "climate", want: "climate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatTemplate(tt.tmpl, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTemplateErrors(t *testing.T) {
	tests := []struct {
		name  string
		tmpl  string
		field string
	}{
		{name: "unknown field", tmpl: "Research {topic}", field: "topic"},
		{name: "positional", tmpl: "Research {}", field: ""},
		{name: "unknown field with width", tmpl: "Research {topic:>10}", field: "topic:>10"},
		{name: "numeric field", tmpl: "Research {0}", field: "0"},
		{name: "unknown conversion", tmpl: "{user_input!x}", field: "user_input!x"},
		{name: "long conversion", tmpl: "{user_input!ss}", field: "user_input!ss"},
		{name: "empty conversion", tmpl: "{user_input!}", field: "user_input!"},
		{name: "index out of range", tmpl: "{user_input[9]}", field: "user_input[9]"},
		{name: "string index", tmpl: "{user_input[a]}", field: "user_input[a]"},
		{name: "negative index", tmpl: "{user_input[-1]}", field: "user_input[-1]"},
		{name: "unclosed index", tmpl: "{user_input[0}", field: "user_input[0"},
		{name: "attribute", tmpl: "{user_input.upper}", field: "user_input.upper"},
		{name: "junk after index", tmpl: "{user_input[0]x}", field: "user_input[0]x"},
		{name: "sign", tmpl: "{user_input:+}", field: "user_input:+"},
		{name: "alternate form", tmpl: "{user_input:#}", field: "user_input:#"},
		{name: "equals align", tmpl: "{user_input:=5}", field: "user_input:=5"},
		{name: "grouping", tmpl: "{user_input:,}", field: "user_input:,"},
		{name: "numeric type", tmpl: "{user_input:d}", field: "user_input:d"},
		{name: "missing precision", tmpl: "{user_input:.}", field: "user_input:."},
		{name: "huge width", tmpl: "{user_input:99999999999999999999}", field: "user_input:99999999999999999999"},
		{name: "nested", tmpl: "{user_input:{width}}", field: "user_input:{width"},
		{name: "unclosed", tmpl: "Research {user_input", field: ""},
		{name: "stray close", tmpl: "Research } now", field: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := formatTemplate(tt.tmpl, "x")
			var tmplErr *TemplateFormatError
			require.True(t, errors.As(err, &tmplErr), "got %v", err)
			assert.Equal(t, tt.field, tmplErr.Field)
			assert.Equal(t, tt.tmpl, tmplErr.Template)
		})
	}
}
