package dcborpattern

import (
	"strconv"
	"time"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"
)

// ParsePattern parses a CBOR sub-matcher pattern expression — the text
// handed verbatim to this package from `cbor(/…/)` fragments, and the
// balanced-delimiter substrings the envelope parser extracts from
// `array([…])`, `map({…})` and `tagged(t, p)` (spec.md §4.2).
func ParsePattern(text string) (Pattern, error) {
	p := &parser{lex: newLexer(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	pat, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, parseErrorf("unexpected trailing token %q", p.tok.text)
	}
	return pat, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expectPunct(s string) error {
	if p.tok.kind != tokPunct || p.tok.text != s {
		return parseErrorf("expected %q, found %q", s, p.tok.text)
	}
	return p.advance()
}

func (p *parser) parseOr() (Pattern, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	pats := []Pattern{left}
	for p.tok.kind == tokPunct && p.tok.text == "|" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		pats = append(pats, next)
	}
	if len(pats) == 1 {
		return pats[0], nil
	}
	return Or(pats...), nil
}

func (p *parser) parseAnd() (Pattern, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	pats := []Pattern{left}
	for p.tok.kind == tokPunct && p.tok.text == "&" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		pats = append(pats, next)
	}
	if len(pats) == 1 {
		return pats[0], nil
	}
	return And(pats...), nil
}

// parsePostfix accepts a quantifier after an operand and discards the range,
// since Pattern has no notion of repetition outside of an array context.
// Array element specs do not go through here: parseArray reads each
// element's quantifier itself and keeps it in the ElementSpec.
func (p *parser) parsePostfix() (Pattern, error) {
	pat, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	_, _, err = p.tryParseQuantifier()
	if err != nil {
		return nil, err
	}
	return pat, nil
}

func (p *parser) tryParseQuantifier() (min, max int, err error) {
	if p.tok.kind != tokPunct {
		return 1, 1, nil
	}
	switch p.tok.text {
	case "*":
		if err := p.advance(); err != nil {
			return 0, 0, err
		}
		return 0, -1, nil
	case "+":
		if err := p.advance(); err != nil {
			return 0, 0, err
		}
		return 1, -1, nil
	case "?":
		if err := p.advance(); err != nil {
			return 0, 0, err
		}
		return 0, 1, nil
	case "{":
		return p.parseBraceQuantifier()
	}
	return 1, 1, nil
}

func (p *parser) parseBraceQuantifier() (int, int, error) {
	if err := p.advance(); err != nil {
		return 0, 0, err
	}
	if p.tok.kind != tokInt {
		return 0, 0, parseErrorf("expected integer in quantifier")
	}
	lo := int(p.tok.ival)
	hi := lo
	if err := p.advance(); err != nil {
		return 0, 0, err
	}
	if p.tok.kind == tokPunct && p.tok.text == "," {
		if err := p.advance(); err != nil {
			return 0, 0, err
		}
		if p.tok.kind == tokInt {
			hi = int(p.tok.ival)
			if err := p.advance(); err != nil {
				return 0, 0, err
			}
		} else {
			hi = -1
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func (p *parser) parsePrefix() (Pattern, error) {
	if p.tok.kind == tokPunct && p.tok.text == "!" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		return Not(inner), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Pattern, error) {
	switch {
	case p.tok.kind == tokPunct && p.tok.text == "*":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Any(), nil
	case p.tok.kind == tokPunct && p.tok.text == "@":
		return p.parseCapture()
	case p.tok.kind == tokPunct && p.tok.text == "(":
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case p.tok.kind == tokPunct && p.tok.text == "[":
		return p.parseArray()
	case p.tok.kind == tokPunct && p.tok.text == "{":
		return p.parseMap()
	case p.tok.kind == tokIdent:
		return p.parseKeywordAtom()
	case p.tok.kind == tokInt || p.tok.kind == tokFloat || p.tok.kind == tokString || p.tok.kind == tokHexString:
		return p.parseBareLiteral()
	}
	return nil, parseErrorf("unexpected token %q", p.tok.text)
}

// parseBareLiteral lowers a bare scalar literal to an exact-value match —
// spec §8 scenario S7's `[42, (*)*]` relies on an array element being
// writable as a plain `42` with no enclosing `number(...)` keyword.
func (p *parser) parseBareLiteral() (Pattern, error) {
	switch p.tok.kind {
	case tokInt:
		v := float64(p.tok.ival)
		return NumberCmp("==", v), p.advance()
	case tokFloat:
		v := p.tok.fval
		return NumberCmp("==", v), p.advance()
	case tokString:
		s := p.tok.text
		return TextExact(s), p.advance()
	case tokHexString:
		b, err := decodeHex(p.tok.text)
		if err != nil {
			return nil, err
		}
		return BstrExact(b), p.advance()
	}
	return nil, parseErrorf("unexpected token %q", p.tok.text)
}

func (p *parser) parseCapture() (Pattern, error) {
	if err := p.advance(); err != nil { // consume '@'
		return nil, err
	}
	if p.tok.kind != tokIdent {
		return nil, parseErrorf("expected capture name after '@'")
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return Capture(name, body), nil
}

func (p *parser) parseKeywordAtom() (Pattern, error) {
	kw := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch kw {
	case "null":
		return Null(), nil
	case "bool":
		return p.parseBool()
	case "number":
		return p.parseNumber()
	case "text":
		return p.parseText()
	case "bstr":
		return p.parseBstr()
	case "date":
		return p.parseDate()
	case "known":
		return p.parseKnown()
	case "tagged":
		return p.parseTagged()
	case "cbor":
		return p.parseCBORLiteral()
	default:
		return nil, parseErrorf("unknown keyword %q", kw)
	}
}

func (p *parser) parseParenOptional() (bool, error) {
	if p.tok.kind == tokPunct && p.tok.text == "(" {
		return true, p.advance()
	}
	return false, nil
}

func (p *parser) parseBool() (Pattern, error) {
	has, err := p.parseParenOptional()
	if err != nil {
		return nil, err
	}
	if !has {
		return BoolAny(), nil
	}
	if p.tok.kind != tokIdent {
		return nil, parseErrorf("expected true/false in bool(...)")
	}
	val := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	switch val {
	case "true":
		return BoolTrue(), nil
	case "false":
		return BoolFalse(), nil
	default:
		return nil, parseErrorf("expected true/false, found %q", val)
	}
}

func (p *parser) parseNumber() (Pattern, error) {
	has, err := p.parseParenOptional()
	if err != nil {
		return nil, err
	}
	if !has {
		return NumberAny(), nil
	}
	if p.tok.kind == tokIdent && (p.tok.text == "NaN" || p.tok.text == "Infinity") {
		op := "nan"
		if p.tok.text == "Infinity" {
			op = "inf"
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return NumberCmp(op, 0), nil
	}
	op := "=="
	if p.tok.kind == tokPunct {
		switch p.tok.text {
		case "<", "<=", ">", ">=":
			op = p.tok.text
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	val, err := p.parseSignedNumber()
	if err != nil {
		return nil, err
	}
	if op == "==" && p.tok.kind == tokPunct && p.tok.text == ".." {
		if err := p.advance(); err != nil {
			return nil, err
		}
		hi, err := p.parseSignedNumber()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return NumberRange(val, hi), nil
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return NumberCmp(op, val), nil
}

func (p *parser) parseSignedNumber() (float64, error) {
	switch p.tok.kind {
	case tokInt:
		v := float64(p.tok.ival)
		return v, p.advance()
	case tokFloat:
		v := p.tok.fval
		return v, p.advance()
	default:
		return 0, parseErrorf("expected a number, found %q", p.tok.text)
	}
}

func (p *parser) parseText() (Pattern, error) {
	has, err := p.parseParenOptional()
	if err != nil {
		return nil, err
	}
	if !has {
		return TextAny(), nil
	}
	var pat Pattern
	switch p.tok.kind {
	case tokString:
		pat = TextExact(p.tok.text)
	case tokRegex:
		re, err := CompileRegex(p.tok.text)
		if err != nil {
			return nil, parseErrorWrap(err, "invalid regex")
		}
		pat = TextRegex(re)
	default:
		return nil, parseErrorf("expected string or regex in text(...)")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return pat, p.expectPunct(")")
}

func (p *parser) parseBstr() (Pattern, error) {
	has, err := p.parseParenOptional()
	if err != nil {
		return nil, err
	}
	if !has {
		return BstrAny(), nil
	}
	var pat Pattern
	switch p.tok.kind {
	case tokHexString:
		b, err := decodeHex(p.tok.text)
		if err != nil {
			return nil, err
		}
		pat = BstrExact(b)
	case tokRegex:
		re, err := CompileRegex(p.tok.text)
		if err != nil {
			return nil, parseErrorWrap(err, "invalid regex")
		}
		pat = BstrRegex(re)
	default:
		return nil, parseErrorf("expected hex string or regex in bstr(...)")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return pat, p.expectPunct(")")
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, parseErrorf("odd-length hex string %q", s)
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		b, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, parseErrorf("invalid hex string %q", s)
		}
		out[i] = byte(b)
	}
	return out, nil
}

func (p *parser) parseDate() (Pattern, error) {
	has, err := p.parseParenOptional()
	if err != nil {
		return nil, err
	}
	if !has {
		return DateAny(), nil
	}
	if p.tok.kind == tokRegex {
		re, err := CompileRegex(p.tok.text)
		if err != nil {
			return nil, parseErrorWrap(err, "invalid regex")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return DateRegex(re), p.expectPunct(")")
	}
	mode := "exact"
	if p.tok.kind == tokPunct {
		switch p.tok.text {
		case ">=":
			mode = "earliest"
			if err := p.advance(); err != nil {
				return nil, err
			}
		case "<=":
			mode = "latest"
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	lo, err := p.parseDateLiteral()
	if err != nil {
		return nil, err
	}
	if mode == "earliest" {
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return DateEarliest(lo), nil
	}
	if mode == "latest" {
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return DateLatest(lo), nil
	}
	if p.tok.kind == tokPunct && p.tok.text == ".." {
		if err := p.advance(); err != nil {
			return nil, err
		}
		hi, err := p.parseDateLiteral()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return DateRange(lo, hi), nil
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return DateExact(lo), nil
}

func (p *parser) parseDateLiteral() (time.Time, error) {
	if p.tok.kind != tokQuotedName {
		return time.Time{}, parseErrorf("expected a quoted date literal, found %q", p.tok.text)
	}
	t, err := ParseDateLiteral(p.tok.text)
	if err != nil {
		return time.Time{}, parseErrorWrap(err, "invalid date literal %q", p.tok.text)
	}
	return t, p.advance()
}

func (p *parser) parseKnown() (Pattern, error) {
	has, err := p.parseParenOptional()
	if err != nil {
		return nil, err
	}
	if !has {
		return KnownAny(), nil
	}
	switch p.tok.kind {
	case tokInt:
		v := uint64(p.tok.ival)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return KnownValue(v), p.expectPunct(")")
	case tokQuotedName:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return KnownName(name), p.expectPunct(")")
	case tokRegex:
		re, err := CompileRegex(p.tok.text)
		if err != nil {
			return nil, parseErrorWrap(err, "invalid regex")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return KnownRegex(re), p.expectPunct(")")
	default:
		return nil, parseErrorf("expected integer, quoted name or regex in known(...)")
	}
}

func (p *parser) parseTagged() (Pattern, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var pat Pattern
	switch p.tok.kind {
	case tokInt:
		tag := uint64(p.tok.ival)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		content, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		pat = TaggedValue(tag, content)
	case tokQuotedName:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		content, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		pat = TaggedName(name, 0, content)
	case tokRegex:
		re, err := CompileRegex(p.tok.text)
		if err != nil {
			return nil, parseErrorWrap(err, "invalid regex")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		content, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		pat = TaggedRegex(re, content)
	default:
		return nil, parseErrorf("expected tag number/name/regex in tagged(...)")
	}
	return pat, p.expectPunct(")")
}

func (p *parser) parseCBORLiteral() (Pattern, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var pat Pattern
	var err error
	switch p.tok.kind {
	case tokRegex:
		pat, err = ParsePattern(p.tok.text)
	case tokString:
		pat, err = diagnosticLiteral(p.tok.text)
	case tokURToken:
		pat, err = urLiteral(p.tok.text)
	default:
		return nil, parseErrorf("expected embedded pattern, diagnostic literal or UR in cbor(...)")
	}
	if err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return pat, p.expectPunct(")")
}

func (p *parser) parseArray() (Pattern, error) {
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}
	var elements []ElementSpec
	for !(p.tok.kind == tokPunct && p.tok.text == "]") {
		elemPat, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		min, max, err := p.tryParseQuantifier()
		if err != nil {
			return nil, err
		}
		elements = append(elements, ElementSpec{Pattern: elemPat, Min: min, Max: max})
		if p.tok.kind == tokPunct && p.tok.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return NewArray(elements), nil
}

func (p *parser) parseMap() (Pattern, error) {
	if err := p.advance(); err != nil { // consume '{'
		return nil, err
	}
	if p.tok.kind == tokInt {
		min, max, err := p.parseBraceRangeBody()
		if err != nil {
			return nil, err
		}
		return NewMap(min, max, nil), nil
	}
	var entries []KVSpec
	for !(p.tok.kind == tokPunct && p.tok.text == "}") {
		key, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		val, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		entries = append(entries, KVSpec{Key: key, Value: val})
		if p.tok.kind == tokPunct && p.tok.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return NewMap(0, -1, entries), nil
}

// parseBraceRangeBody parses "n,m}" / "n}" after the opening brace and a
// leading integer have already signalled the `map({n,m})` pair-count form.
func (p *parser) parseBraceRangeBody() (int, int, error) {
	lo := int(p.tok.ival)
	hi := lo
	if err := p.advance(); err != nil {
		return 0, 0, err
	}
	if p.tok.kind == tokPunct && p.tok.text == "," {
		if err := p.advance(); err != nil {
			return 0, 0, err
		}
		if p.tok.kind == tokInt {
			hi = int(p.tok.ival)
			if err := p.advance(); err != nil {
				return 0, 0, err
			}
		} else {
			hi = -1
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// exactValuePattern matches a value equal (by deterministic encoding) to a
// fixed dCBOR value — the shared tail of cbor("…") and cbor(ur:…) literals.
type exactValuePattern struct{ want dcbor.Value }

func (p exactValuePattern) matchValue(v dcbor.Value) []Match {
	if !dcbor.Equal(v, p.want) {
		return nil
	}
	return []Match{{Path: Path{v}}}
}
func (exactValuePattern) String() string { return "cbor(literal)" }
