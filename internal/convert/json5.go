package convert

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// maxNestingDepth bounds how deeply objects and arrays may nest.
const maxNestingDepth = 10000

// json5Parser reads a JSON5 document into a node tree. Object members keep
// their source order; a repeated key replaces the earlier value in place.
type json5Parser struct {
	src   []byte
	pos   int
	depth int
}

// parseJSON5 parses data as JSON5: comments, trailing commas, unquoted keys,
// single-quoted strings, hexadecimal numbers, Infinity and NaN.
func parseJSON5(data []byte) (*yaml.Node, error) {
	p := &json5Parser{src: data}

	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	root, err := p.value()
	if err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		r, _ := p.peek()
		return nil, p.errorf("unexpected %q after top-level value", r)
	}
	return root, nil
}

func (p *json5Parser) errorf(format string, args ...any) error {
	before := p.src[:p.pos]
	line := 1 + bytes.Count(before, []byte("\n"))
	col := 1 + utf8.RuneCount(before[bytes.LastIndexByte(before, '\n')+1:])
	return fmt.Errorf("line %d, column %d: %s", line, col, fmt.Sprintf(format, args...))
}

// peek returns the rune at the current position, or -1 at the end of input.
func (p *json5Parser) peek() (rune, int) {
	if p.pos >= len(p.src) {
		return -1, 0
	}
	return utf8.DecodeRune(p.src[p.pos:])
}

func (p *json5Parser) hasPrefix(s string) bool {
	return bytes.HasPrefix(p.src[p.pos:], []byte(s))
}

func (p *json5Parser) skipSpace() error {
	for p.pos < len(p.src) {
		r, size := p.peek()
		switch {
		case isJSON5Space(r):
			p.pos += size

		case p.hasPrefix("//"):
			for p.pos < len(p.src) {
				r, size := p.peek()
				if isLineTerminator(r) {
					break
				}
				p.pos += size
			}

		case p.hasPrefix("/*"):
			end := bytes.Index(p.src[p.pos+2:], []byte("*/"))
			if end < 0 {
				return p.errorf("unterminated comment")
			}
			p.pos += 2 + end + 2

		default:
			return nil
		}
	}
	return nil
}

func (p *json5Parser) value() (*yaml.Node, error) {
	r, _ := p.peek()
	switch {
	case r == -1:
		return nil, p.errorf("unexpected end of input")
	case r == '{':
		return p.object()
	case r == '[':
		return p.array()
	case r == '"' || r == '\'':
		s, err := p.quoted(r)
		if err != nil {
			return nil, err
		}
		return stringNode(s), nil
	case r == '-' || r == '+' || r == '.' || isDigit(r):
		return p.number()
	}

	start := p.pos
	word, err := p.identifier()
	if err != nil {
		p.pos = start
		return nil, p.errorf("unexpected %q", r)
	}
	switch word {
	case "null":
		return nullNode(), nil
	case "true", "false":
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: word}, nil
	case "Infinity":
		return floatNode(".inf"), nil
	case "NaN":
		return floatNode(".nan"), nil
	}
	p.pos = start
	return nil, p.errorf("invalid value %q", word)
}

func (p *json5Parser) enter() error {
	p.depth++
	if p.depth > maxNestingDepth {
		return p.errorf("nesting exceeds %d levels", maxNestingDepth)
	}
	return nil
}

func (p *json5Parser) object() (*yaml.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.pos++ // {

	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	index := make(map[string]int)

	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if r, _ := p.peek(); r == '}' {
			p.pos++
			return n, nil
		}

		key, err := p.key()
		if err != nil {
			return nil, err
		}
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if r, _ := p.peek(); r != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.pos++
		if err := p.skipSpace(); err != nil {
			return nil, err
		}

		value, err := p.value()
		if err != nil {
			return nil, err
		}
		if i, ok := index[key]; ok {
			n.Content[i+1] = value
		} else {
			index[key] = len(n.Content)
			n.Content = append(n.Content, stringNode(key), value)
		}

		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		switch r, _ := p.peek(); r {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return n, nil
		case -1:
			return nil, p.errorf("unterminated object")
		default:
			return nil, p.errorf("expected ',' or '}', found %q", r)
		}
	}
}

func (p *json5Parser) array() (*yaml.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.pos++ // [

	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}

	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if r, _ := p.peek(); r == ']' {
			p.pos++
			return n, nil
		}

		value, err := p.value()
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, value)

		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		switch r, _ := p.peek(); r {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return n, nil
		case -1:
			return nil, p.errorf("unterminated array")
		default:
			return nil, p.errorf("expected ',' or ']', found %q", r)
		}
	}
}

func (p *json5Parser) key() (string, error) {
	if r, _ := p.peek(); r == '"' || r == '\'' {
		return p.quoted(r)
	}
	return p.identifier()
}

// identifier reads an ECMAScript IdentifierName, including \uXXXX escapes.
func (p *json5Parser) identifier() (string, error) {
	var sb strings.Builder

	for first := true; ; first = false {
		r, size := p.peek()
		escaped := false
		if r == '\\' {
			if !p.hasPrefix(`\u`) {
				return "", p.errorf("invalid escape in identifier")
			}
			p.pos += 2
			code, err := p.hex(4)
			if err != nil {
				return "", err
			}
			r, size, escaped = rune(code), 0, true
		}

		if !isIdentStart(r) && (first || !isIdentPart(r)) {
			if escaped {
				return "", p.errorf("invalid character %q in identifier", r)
			}
			break
		}
		sb.WriteRune(r)
		p.pos += size
	}

	if sb.Len() == 0 {
		r, _ := p.peek()
		if r == -1 {
			return "", p.errorf("unexpected end of input")
		}
		return "", p.errorf("expected key, found %q", r)
	}
	return sb.String(), nil
}

func (p *json5Parser) quoted(quote rune) (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder

	for {
		r, size := p.peek()
		switch {
		case r == -1:
			return "", p.errorf("unterminated string")
		case r == quote:
			p.pos += size
			return sb.String(), nil
		case r == '\\':
			p.pos++
			if err := p.escape(&sb); err != nil {
				return "", err
			}
		case r == '\n' || r == '\r':
			return "", p.errorf("line break in string")
		case r == utf8.RuneError && size == 1:
			return "", p.errorf("invalid UTF-8 in string")
		default:
			sb.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *json5Parser) escape(sb *strings.Builder) error {
	r, size := p.peek()
	if r == -1 {
		return p.errorf("unterminated string")
	}
	p.pos += size

	switch r {
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		if next, _ := p.peek(); isDigit(next) {
			return p.errorf("octal escape in string")
		}
		sb.WriteByte(0)
	case 'x':
		code, err := p.hex(2)
		if err != nil {
			return err
		}
		sb.WriteRune(rune(code))
	case 'u':
		code, err := p.hex(4)
		if err != nil {
			return err
		}
		r1 := rune(code)
		if utf16.IsSurrogate(r1) && p.hasPrefix(`\u`) {
			save := p.pos
			p.pos += 2
			low, err := p.hex(4)
			if err != nil {
				return err
			}
			if pair := utf16.DecodeRune(r1, rune(low)); pair != unicode.ReplacementChar {
				sb.WriteRune(pair)
				return nil
			}
			p.pos = save
		}
		sb.WriteRune(r1)
	case '\r':
		if next, _ := p.peek(); next == '\n' {
			p.pos++
		}
	case '\n', '\u2028', '\u2029':
		// line continuation
	default:
		if isDigit(r) {
			return p.errorf("invalid escape \\%c in string", r)
		}
		sb.WriteRune(r)
	}
	return nil
}

func (p *json5Parser) hex(digits int) (uint64, error) {
	if p.pos+digits > len(p.src) {
		return 0, p.errorf("truncated hex escape")
	}
	s := string(p.src[p.pos : p.pos+digits])
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, p.errorf("invalid hex escape %q", s)
	}
	p.pos += digits
	return v, nil
}

// number reads a JSON5 numeric literal. The result is spelled so both YAML
// and JSON read it as the same number: hex becomes decimal and bare points
// get a zero digit.
func (p *json5Parser) number() (*yaml.Node, error) {
	start := p.pos
	sign := ""
	switch p.src[p.pos] {
	case '-':
		sign = "-"
		p.pos++
	case '+':
		p.pos++
	}

	if r, _ := p.peek(); r == 'I' || r == 'N' {
		word, err := p.identifier()
		if err == nil && word == "Infinity" {
			return floatNode(sign + ".inf"), nil
		}
		if err == nil && word == "NaN" {
			return floatNode(".nan"), nil
		}
		p.pos = start
		return nil, p.errorf("invalid number")
	}

	var value string
	if p.hasPrefix("0x") || p.hasPrefix("0X") {
		p.pos += 2
		digits := p.scan(isHexDigit)
		v, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			p.pos = start
			return nil, p.errorf("invalid hexadecimal number")
		}
		if sign == "-" {
			v.Neg(v)
		}
		value = v.String()
	} else {
		intPart := p.scan(isDigit)
		hasPoint, frac := false, ""
		if p.pos < len(p.src) && p.src[p.pos] == '.' {
			p.pos++
			hasPoint = true
			frac = p.scan(isDigit)
		}
		if intPart == "" && frac == "" {
			p.pos = start
			return nil, p.errorf("invalid number")
		}
		if len(intPart) > 1 && intPart[0] == '0' {
			p.pos = start
			return nil, p.errorf("leading zero in number")
		}

		if intPart == "" {
			intPart = "0"
		}
		value = sign + intPart
		if hasPoint {
			if frac == "" {
				frac = "0"
			}
			value += "." + frac
		}

		if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
			exp := string(p.src[p.pos])
			p.pos++
			if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
				exp += string(p.src[p.pos])
				p.pos++
			}
			digits := p.scan(isDigit)
			if digits == "" {
				p.pos = start
				return nil, p.errorf("invalid exponent")
			}
			value += exp + digits
		}
	}

	if r, _ := p.peek(); isIdentPart(r) || r == '.' {
		return nil, p.errorf("unexpected %q after number", r)
	}

	// The tag is left to YAML resolution so the number is emitted plain.
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}, nil
}

func (p *json5Parser) scan(accept func(rune) bool) string {
	start := p.pos
	for p.pos < len(p.src) && accept(rune(p.src[p.pos])) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func floatNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: v}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

func isJSON5Space(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\ufeff', '\u2028', '\u2029':
		return true
	}
	return r > unicode.MaxASCII && unicode.Is(unicode.Zs, r)
}

func isIdentStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc) ||
		r == '\u200c' || r == '\u200d'
}
