package dcborpattern

import (
	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"
	"github.com/BlockchainCommons/bc-envelope-pattern-go/ur"
)

// diagnosticLiteral decodes a small subset of dCBOR diagnostic notation —
// null/true/false, integers, floats, quoted text, h'..' byte strings,
// arrays and maps, and tag(content) — into an exact-value pattern. A full
// diagnostic-notation parser is explicitly out of scope (spec.md §1); this
// is just enough to let `cbor("...")` literals compare against a concrete
// value.
func diagnosticLiteral(text string) (Pattern, error) {
	p := &diagParser{lex: newLexer(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, parseErrorf("trailing content after diagnostic literal")
	}
	return exactValuePattern{want: v}, nil
}

// ParseDiagnostic decodes the same dCBOR diagnostic-notation subset
// diagnosticLiteral accepts inside `cbor("...")`, but returns the bare
// Value instead of wrapping it in a pattern — for callers (example/envquery)
// that need to build a concrete leaf value from diagnostic text rather than
// match against one.
func ParseDiagnostic(text string) (dcbor.Value, error) {
	p := &diagParser{lex: newLexer(text)}
	if err := p.advance(); err != nil {
		return dcbor.Value{}, err
	}
	v, err := p.parseValue()
	if err != nil {
		return dcbor.Value{}, err
	}
	if p.tok.kind != tokEOF {
		return dcbor.Value{}, parseErrorf("trailing content after diagnostic literal")
	}
	return v, nil
}

// urLiteral decodes a `ur:type/payload` literal into an exact-value pattern.
func urLiteral(text string) (Pattern, error) {
	parsed, err := ur.Parse(text)
	if err != nil {
		return nil, parseErrorWrap(err, "invalid UR literal")
	}
	raw, err := parsed.DecodeHexPayload()
	if err != nil {
		return nil, parseErrorWrap(err, "invalid UR payload")
	}
	v, err := dcbor.Unmarshal(raw)
	if err != nil {
		return nil, parseErrorWrap(err, "UR payload is not valid dCBOR")
	}
	return exactValuePattern{want: v}, nil
}

type diagParser struct {
	lex *lexer
	tok token
}

func (p *diagParser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *diagParser) parseValue() (dcbor.Value, error) {
	switch p.tok.kind {
	case tokInt:
		n := p.tok.ival
		if err := p.advance(); err != nil {
			return dcbor.Value{}, err
		}
		if p.tok.kind == tokPunct && p.tok.text == "(" {
			if err := p.advance(); err != nil {
				return dcbor.Value{}, err
			}
			content, err := p.parseValue()
			if err != nil {
				return dcbor.Value{}, err
			}
			if p.tok.kind != tokPunct || p.tok.text != ")" {
				return dcbor.Value{}, parseErrorf("expected ')' after tagged content")
			}
			return dcbor.Tagged(uint64(n), content), p.advance()
		}
		return dcbor.Int(n), nil
	case tokFloat:
		v := dcbor.Float(p.tok.fval)
		return v, p.advance()
	case tokString:
		v := dcbor.Text(p.tok.text)
		return v, p.advance()
	case tokHexString:
		b, err := decodeHex(p.tok.text)
		if err != nil {
			return dcbor.Value{}, err
		}
		return dcbor.Bytes(b), p.advance()
	case tokIdent:
		switch p.tok.text {
		case "true":
			return dcbor.Bool(true), p.advance()
		case "false":
			return dcbor.Bool(false), p.advance()
		case "null":
			return dcbor.Null(), p.advance()
		default:
			return dcbor.Value{}, parseErrorf("unknown diagnostic identifier %q", p.tok.text)
		}
	case tokPunct:
		switch p.tok.text {
		case "[":
			return p.parseArray()
		case "{":
			return p.parseMap()
		}
	}
	return dcbor.Value{}, parseErrorf("unexpected token %q in diagnostic literal", p.tok.text)
}

func (p *diagParser) parseArray() (dcbor.Value, error) {
	if err := p.advance(); err != nil {
		return dcbor.Value{}, err
	}
	var items []dcbor.Value
	for !(p.tok.kind == tokPunct && p.tok.text == "]") {
		v, err := p.parseValue()
		if err != nil {
			return dcbor.Value{}, err
		}
		items = append(items, v)
		if p.tok.kind == tokPunct && p.tok.text == "," {
			if err := p.advance(); err != nil {
				return dcbor.Value{}, err
			}
			continue
		}
		break
	}
	if p.tok.kind != tokPunct || p.tok.text != "]" {
		return dcbor.Value{}, parseErrorf("expected ']'")
	}
	return dcbor.Array(items...), p.advance()
}

func (p *diagParser) parseMap() (dcbor.Value, error) {
	if err := p.advance(); err != nil {
		return dcbor.Value{}, err
	}
	var entries []dcbor.MapEntry
	for !(p.tok.kind == tokPunct && p.tok.text == "}") {
		k, err := p.parseValue()
		if err != nil {
			return dcbor.Value{}, err
		}
		if p.tok.kind != tokPunct || p.tok.text != ":" {
			return dcbor.Value{}, parseErrorf("expected ':' in map literal")
		}
		if err := p.advance(); err != nil {
			return dcbor.Value{}, err
		}
		v, err := p.parseValue()
		if err != nil {
			return dcbor.Value{}, err
		}
		entries = append(entries, dcbor.MapEntry{Key: k, Value: v})
		if p.tok.kind == tokPunct && p.tok.text == "," {
			if err := p.advance(); err != nil {
				return dcbor.Value{}, err
			}
			continue
		}
		break
	}
	if p.tok.kind != tokPunct || p.tok.text != "}" {
		return dcbor.Value{}, parseErrorf("expected '}'")
	}
	return dcbor.Map(entries...), p.advance()
}
