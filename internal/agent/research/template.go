package research

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	userInputField = "user_input"
	maxFieldWidth  = 1 << 16
)

// TemplateFormatError reports a user prompt template that cannot be filled
// from the request.
type TemplateFormatError struct {
	Template string
	Field    string
	Reason   string
}

func (e *TemplateFormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("prompt template: %s %q", e.Reason, e.Field)
	}
	return "prompt template: " + e.Reason
}

// formatTemplate fills replacement fields in tmpl from userInput. A field is
// {user_input[index]!conversion:format} where the index, conversion (s, r, a)
// and format options are optional. "{{" and "}}" produce literal braces.
// Fields naming anything other than user_input are errors.
func formatTemplate(tmpl, userInput string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl) + len(userInput))

	for i := 0; i < len(tmpl); i++ {
		ch := tmpl[i]
		switch ch {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", &TemplateFormatError{Template: tmpl, Reason: "single '{' encountered"}
			}
			field := tmpl[i+1 : i+1+end]
			value, err := renderField(field, userInput)
			if err != nil {
				return "", &TemplateFormatError{Template: tmpl, Field: field, Reason: err.Error()}
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", &TemplateFormatError{Template: tmpl, Reason: "single '}' encountered"}
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), nil
}

func renderField(field, userInput string) (string, error) {
	if strings.ContainsRune(field, '{') {
		return "", errors.New("nested placeholder not supported")
	}

	nameEnd := strings.IndexAny(field, ".[!:")
	if nameEnd < 0 {
		nameEnd = len(field)
	}
	switch name := field[:nameEnd]; {
	case name == "":
		return "", errors.New("positional placeholder not supported")
	case name != userInputField:
		return "", errors.New("unknown placeholder")
	}

	value := userInput
	rest := field[nameEnd:]
	for rest != "" && (rest[0] == '[' || rest[0] == '.') {
		if rest[0] == '.' {
			return "", errors.New("attribute access not supported")
		}
		closing := strings.IndexByte(rest, ']')
		if closing < 0 {
			return "", errors.New("missing ']' in placeholder")
		}
		var err error
		if value, err = indexRune(value, rest[1:closing]); err != nil {
			return "", err
		}
		rest = rest[closing+1:]
	}

	if strings.HasPrefix(rest, "!") {
		if len(rest) < 2 || (len(rest) > 2 && rest[2] != ':') {
			return "", errors.New("conversion must be a single character")
		}
		switch rest[1] {
		case 's':
		case 'r':
			value = quoteRepr(value, false)
		case 'a':
			value = quoteRepr(value, true)
		default:
			return "", fmt.Errorf("unknown conversion %q", rest[1:2])
		}
		rest = rest[2:]
	}

	if rest == "" {
		return value, nil
	}
	if rest[0] != ':' {
		return "", errors.New("expected ':' after placeholder name")
	}
	return applyFormat(value, rest[1:])
}

// indexRune returns the code point of s at a non-negative decimal index.
func indexRune(s, key string) (string, error) {
	if key == "" || strings.TrimLeft(key, "0123456789") != "" {
		return "", fmt.Errorf("string indices must be integers, got %q", key)
	}
	idx, err := strconv.Atoi(key)
	if err != nil {
		return "", fmt.Errorf("index %q out of range", key)
	}
	runes := []rune(s)
	if idx >= len(runes) {
		return "", fmt.Errorf("index %d out of range", idx)
	}
	return string(runes[idx]), nil
}

// quoteRepr renders s as a single-quoted string literal with escapes,
// switching to double quotes when s contains only single quotes. asciiOnly
// also escapes every non-ASCII code point.
func quoteRepr(s string, asciiOnly bool) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r >= 0x80 && (asciiOnly || !unicode.IsPrint(r)):
			switch {
			case r <= 0xff:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r <= 0xffff:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}

// applyFormat applies [[fill]align][0][width][.precision][s] to value.
// Widths and precision count code points. Numeric-only options are errors.
func applyFormat(value, format string) (string, error) {
	if format == "" {
		return value, nil
	}
	runes := []rune(format)
	i := 0
	fill, align, fillSet := ' ', rune(0), false

	isAlign := func(r rune) bool { return r == '<' || r == '>' || r == '^' || r == '=' }
	switch {
	case len(runes) >= 2 && isAlign(runes[1]):
		fill, align, fillSet = runes[0], runes[1], true
		i = 2
	case len(runes) >= 1 && isAlign(runes[0]):
		align = runes[0]
		i = 1
	}
	if align == '=' {
		return "", errors.New("'=' alignment not allowed in string format specifier")
	}

	if i < len(runes) {
		switch runes[i] {
		case '+', '-', ' ':
			return "", errors.New("sign not allowed in string format specifier")
		case 'z':
			return "", errors.New("'z' not allowed in string format specifier")
		case '#':
			return "", errors.New("alternate form not allowed in string format specifier")
		}
	}
	if i < len(runes) && runes[i] == '0' {
		if !fillSet {
			fill = '0'
		}
		i++
	}

	width, i := readDigits(runes, i)
	if width > maxFieldWidth {
		return "", fmt.Errorf("width %d too large", width)
	}
	if i < len(runes) && (runes[i] == ',' || runes[i] == '_') {
		return "", fmt.Errorf("cannot specify %q with 's'", runes[i])
	}

	precision := -1
	if i < len(runes) && runes[i] == '.' {
		start := i + 1
		precision, i = readDigits(runes, start)
		if i == start {
			return "", errors.New("format specifier missing precision")
		}
	}

	if i < len(runes) {
		if runes[i] != 's' || i+1 != len(runes) {
			return "", fmt.Errorf("unknown format code %q for string", string(runes[i:]))
		}
	}

	if precision >= 0 {
		if vr := []rune(value); len(vr) > precision {
			value = string(vr[:precision])
		}
	}
	pad := width - utf8.RuneCountInString(value)
	if pad <= 0 {
		return value, nil
	}
	padding := func(n int) string { return strings.Repeat(string(fill), n) }
	switch align {
	case '>':
		return padding(pad) + value, nil
	case '^':
		return padding(pad/2) + value + padding(pad-pad/2), nil
	default:
		return value + padding(pad), nil
	}
}

// readDigits parses a decimal run starting at i, saturating above
// maxFieldWidth, and returns the value and the index after it.
func readDigits(runes []rune, i int) (int, int) {
	n := 0
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		if n <= maxFieldWidth {
			n = n*10 + int(runes[i]-'0')
		}
		i++
	}
	return n, i
}
