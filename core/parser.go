package mal

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/nukata/goarith"
)

type parser struct {
	input []rune
	pos   int
}

// Read parses exactly one form from input.
func Read(input string) (Value, error) {
	p := &parser{input: []rune(input)}
	p.skipWhitespace()
	if p.pos >= len(p.input) {
		return Value{}, fmt.Errorf("empty input")
	}
	v, err := p.parseForm()
	if err != nil {
		return Value{}, err
	}
	p.skipWhitespace()
	if p.pos < len(p.input) {
		return Value{}, fmt.Errorf("unexpected input after expression at position %d", p.pos)
	}
	return v, nil
}

// ReadAll parses every form in input.
func ReadAll(input string) ([]Value, error) {
	p := &parser{input: []rune(input)}
	var forms []Value
	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			return forms, nil
		}
		v, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, v)
	}
}

func (p *parser) parseForm() (Value, error) {
	if p.pos >= len(p.input) {
		return Value{}, fmt.Errorf("unexpected end of input")
	}
	switch ch := p.input[p.pos]; ch {
	case '(':
		elems, err := p.parseSeq(')')
		if err != nil {
			return Value{}, err
		}
		return ListVal(elems), nil
	case '[':
		elems, err := p.parseSeq(']')
		if err != nil {
			return Value{}, err
		}
		return VectorVal(elems), nil
	case '{':
		elems, err := p.parseSeq('}')
		if err != nil {
			return Value{}, err
		}
		m, err := NewHashMap(elems)
		if err != nil {
			return Value{}, fmt.Errorf("map literal: odd number of elements")
		}
		return HashMapVal(m), nil
	case ')', ']', '}':
		return Value{}, fmt.Errorf("unexpected %c at position %d", ch, p.pos)
	case '"':
		return p.parseString()
	default:
		return p.parseAtom()
	}
}

func (p *parser) parseSeq(closer rune) ([]Value, error) {
	p.pos++ // skip opener
	elems := []Value{}
	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			return nil, fmt.Errorf("unbalanced input: expected %c", closer)
		}
		if p.input[p.pos] == closer {
			p.pos++
			return elems, nil
		}
		elem, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
}

func (p *parser) parseString() (Value, error) {
	p.pos++ // skip opening '"'
	var buf strings.Builder
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if ch == '\\' {
			p.pos++
			if p.pos >= len(p.input) {
				return Value{}, fmt.Errorf("unexpected end of input in string escape")
			}
			switch esc := p.input[p.pos]; esc {
			case 'n':
				buf.WriteRune('\n')
			case 't':
				buf.WriteRune('\t')
			case '\\':
				buf.WriteRune('\\')
			case '"':
				buf.WriteRune('"')
			default:
				return Value{}, fmt.Errorf("unknown escape sequence: \\%c", esc)
			}
			p.pos++
			continue
		}
		if ch == '"' {
			p.pos++
			return StringVal(buf.String()), nil
		}
		buf.WriteRune(ch)
		p.pos++
	}
	return Value{}, fmt.Errorf("unclosed string")
}

func (p *parser) parseAtom() (Value, error) {
	start := p.pos
	for p.pos < len(p.input) && !isDelimiter(p.input[p.pos]) {
		p.pos++
	}
	token := string(p.input[start:p.pos])
	if token == "" {
		return Value{}, fmt.Errorf("unexpected character: %c", p.input[start])
	}

	switch token {
	case "nil":
		return NilVal(), nil
	case "true":
		return BoolVal(true), nil
	case "false":
		return BoolVal(false), nil
	}
	if looksNumeric(token) {
		if n, ok := readNumber(token); ok {
			return NumberVal(n), nil
		}
		return Value{}, fmt.Errorf("malformed number: %s", token)
	}
	return SymbolVal(token), nil
}

// looksNumeric keeps symbols such as -, +, inf and NaN out of number parsing.
func looksNumeric(token string) bool {
	s := strings.TrimLeft(token, "+-")
	if len(token)-len(s) > 1 || s == "" {
		return false
	}
	if s[0] == '.' {
		return len(s) > 1 && s[1] >= '0' && s[1] <= '9'
	}
	return s[0] >= '0' && s[0] <= '9'
}

func readNumber(s string) (goarith.Number, bool) {
	z := new(big.Int)
	if _, ok := z.SetString(s, 10); ok {
		return goarith.AsNumber(z), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return goarith.AsNumber(f), true
	}
	return nil, false
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if ch == ';' {
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		if !unicode.IsSpace(ch) && ch != ',' {
			break
		}
		p.pos++
	}
}

func isDelimiter(ch rune) bool {
	switch ch {
	case '(', ')', '[', ']', '{', '}', '"', ';', ',':
		return true
	}
	return unicode.IsSpace(ch)
}
