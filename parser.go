package pattern

import (
	"strconv"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcborpattern"
	"github.com/BlockchainCommons/bc-envelope-pattern-go/envelope"
)

// parser implements the precedence-climbing grammar of spec §4.2/§6:
//
//	pattern := or
//	or       := and ('|' and)*
//	and      := trav ('&' trav)*
//	trav     := not ('->' not)*
//	not      := '!' not | repeat
//	repeat   := primary quant?
//	quant    := ('*'|'?'|'+'|'{' N (',' N?)? '}') ('?'|'+')?
//	primary  := '(' pattern ')' | '@' NAME '(' pattern ')' | 'search(' pattern ')' | atom
type parser struct {
	src string
	lex *lexer
	tok token
}

func newParser(src string) *parser {
	return &parser{src: src, lex: newLexer(src)}
}

// parsePattern is the package's one entry into the grammar (api.go's Parse
// calls this, then Compile on the result).
func parsePattern(src string) (node, error) {
	p := newParser(src)
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, parseError(p.tok.start, p.tok.end, "end of input", p.tok.text)
	}
	return n, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) isPunct(s string) bool {
	return p.tok.kind == tokPunct && p.tok.text == s
}

func (p *parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return parseError(p.tok.start, p.tok.end, "'"+s+"'", p.tok.text)
	}
	return p.advance()
}

// --- precedence levels 4-6: or, and, traversal --------------------------

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	subs := []node{left}
	for p.isPunct("|") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		subs = append(subs, next)
	}
	if len(subs) == 1 {
		return subs[0], nil
	}
	return orNode{subs: subs}, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseTrav()
	if err != nil {
		return nil, err
	}
	subs := []node{left}
	for p.isPunct("&") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseTrav()
		if err != nil {
			return nil, err
		}
		subs = append(subs, next)
	}
	if len(subs) == 1 {
		return subs[0], nil
	}
	return andNode{subs: subs}, nil
}

func (p *parser) parseTrav() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	subs := []node{left}
	for p.isPunct("->") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		subs = append(subs, next)
	}
	if len(subs) == 1 {
		return subs[0], nil
	}
	return travNode{subs: subs}, nil
}

// --- precedence level 3: prefix not --------------------------------------

func (p *parser) parseNot() (node, error) {
	if p.isPunct("!") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notNode{sub: inner}, nil
	}
	return p.parseRepeat()
}

// --- precedence level 2: postfix repeat ----------------------------------

func (p *parser) parseRepeat() (node, error) {
	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !(p.isPunct("*") || p.isPunct("?") || p.isPunct("+") || p.isPunct("{")) {
		return prim, nil
	}
	var min, max int
	switch {
	case p.isPunct("*"):
		min, max = 0, -1
		if err := p.advance(); err != nil {
			return nil, err
		}
	case p.isPunct("+"):
		min, max = 1, -1
		if err := p.advance(); err != nil {
			return nil, err
		}
	case p.isPunct("?"):
		min, max = 0, 1
		if err := p.advance(); err != nil {
			return nil, err
		}
	default: // '{'
		min, max, err = p.parseBraceQuantifier()
		if err != nil {
			return nil, err
		}
	}
	mode := greedy
	switch {
	case p.isPunct("?"):
		mode = lazy
		if err := p.advance(); err != nil {
			return nil, err
		}
	case p.isPunct("+"):
		mode = possessive
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if max >= 0 && max < min {
		return nil, compileError("quantifier upper bound is less than its lower bound")
	}
	return repeatNode{sub: prim, min: min, max: max, mode: mode}, nil
}

func (p *parser) parseBraceQuantifier() (int, int, error) {
	if err := p.advance(); err != nil { // consume '{'
		return 0, 0, err
	}
	if p.tok.kind != tokInt {
		return 0, 0, parseError(p.tok.start, p.tok.end, "an integer", p.tok.text)
	}
	lo := int(p.tok.ival)
	hi := lo
	if err := p.advance(); err != nil {
		return 0, 0, err
	}
	if p.isPunct(",") {
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

// --- precedence level 1: primary ------------------------------------------

func (p *parser) parsePrimary() (node, error) {
	switch {
	case p.isPunct("*"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return anyNode{}, nil
	case p.isPunct("("):
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
	case p.tok.kind == tokCaptureName:
		return p.parseCapture()
	case p.isPunct("[") || p.isPunct("{"):
		return p.parseBareCBORFragment()
	case p.tok.kind == tokIdent:
		return p.parseKeywordOrStructure()
	case p.tok.kind == tokInt || p.tok.kind == tokFloat || p.tok.kind == tokString || p.tok.kind == tokHexString:
		return p.parseBareLiteral()
	}
	return nil, parseError(p.tok.start, p.tok.end, "a pattern", p.tok.text)
}

// parseBareLiteral lowers a bare scalar literal (int, float, quoted string,
// or hex byte string) encountered where a pattern is expected into an exact
// leaf value match — spec §8 scenario S3's `search("Alice")` and scenario
// S7's `[42, (*)*]` both rely on array/search accepting a literal directly,
// with no enclosing `number(...)`/`text(...)`/`bstr(...)` keyword.
func (p *parser) parseBareLiteral() (node, error) {
	switch p.tok.kind {
	case tokInt:
		v := float64(p.tok.ival)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return leafNode(dcborpattern.NumberCmp("==", v), false), nil
	case tokFloat:
		v := p.tok.fval
		if err := p.advance(); err != nil {
			return nil, err
		}
		return leafNode(dcborpattern.NumberCmp("==", v), false), nil
	case tokString:
		s := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return leafNode(dcborpattern.TextExact(s), false), nil
	case tokHexString:
		raw, err := decodeHexDigits(p.tok.text)
		if err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return leafNode(dcborpattern.BstrExact(raw), false), nil
	}
	return nil, parseError(p.tok.start, p.tok.end, "a literal", p.tok.text)
}

func (p *parser) parseCapture() (node, error) {
	name := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	inner, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return captureNode{name: name, sub: inner}, nil
}

// parseBareCBORFragment handles the `[…]` / `{…}` shorthand for a leaf
// array/map pattern (spec §8 scenario S7: `[42, (*)*]` with no `array(...)`
// wrapper) — the same balanced-bracket substring the CBOR sub-matcher's own
// grammar accepts as a primary.
func (p *parser) parseBareCBORFragment() (node, error) {
	start := p.tok.start
	end, err := scanBalanced(p.src, start)
	if err != nil {
		return nil, err
	}
	raw := p.src[start:end]
	sub, serr := dcborpattern.ParsePattern(raw)
	if serr != nil {
		return nil, subMatcherError(start, end, serr)
	}
	if err := p.resyncPast(end); err != nil {
		return nil, err
	}
	return leafNode(sub, false), nil
}

func (p *parser) parseKeywordOrStructure() (node, error) {
	kw := p.tok.text
	kwStart := p.tok.start
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch kw {
	case "bool", "null", "number", "text", "bstr", "date", "known", "tagged", "cbor", "array", "map":
		return p.parseLeafFragment(kw, kwStart)
	case "leaf":
		return leafCaseNode(), nil
	case "assert":
		return assertNode(), nil
	case "assertpred":
		return p.parseAssertSub(assertPredNode)
	case "assertobj":
		return p.parseAssertSub(assertObjNode)
	case "node":
		return p.parseNodeRange()
	case "subj":
		return p.parseFilterOrBare(subjNode(), subjFilterNode)
	case "pred":
		return p.parseFilterOrBare(predNode(), predFilterNode)
	case "obj":
		return p.parseFilterOrBare(objNode(), objFilterNode)
	case "wrapped":
		return wrappedNode(), nil
	case "unwrap":
		return unwrapNode(), nil
	case "digest":
		return p.parseDigest()
	case "obscured":
		return p.parseObscured()
	case "elided":
		return obscuredKindNode(envelope.ObscuredElided), nil
	case "encrypted":
		return obscuredKindNode(envelope.ObscuredEncrypted), nil
	case "compressed":
		return obscuredKindNode(envelope.ObscuredCompressed), nil
	case "search":
		return p.parseSearch()
	default:
		return nil, parseError(kwStart, p.tok.start, "a pattern keyword", kw)
	}
}

// parseLeafFragment extracts the balanced `(...)` content following a
// leaf-pattern keyword and delegates to the CBOR sub-matcher's own parser
// (spec §4.2). `array`/`map` are envelope-level sugar over the sub-matcher's
// own bracket/brace primaries, so only the inner `[...]`/`{...}` substring is
// forwarded for those two; every other keyword forwards its own name plus
// parenthesised body verbatim, since the sub-matcher's grammar understands
// those keywords directly.
func (p *parser) parseLeafFragment(kw string, kwStart int) (node, error) {
	lift := kw == "cbor"
	if !p.isPunct("(") {
		sub, err := dcborpattern.ParsePattern(kw)
		if err != nil {
			return nil, subMatcherError(kwStart, p.tok.end, err)
		}
		return leafNode(sub, lift), nil
	}
	parenStart := p.tok.start
	var end int
	var err error
	if kw == "cbor" {
		// cbor(...) content is exactly one of a slash-delimited embedded
		// pattern, a quoted diagnostic literal, or a bare `ur:...` token;
		// none of those can contain an unmatched '/' the way a UR payload
		// can, so this gets its own narrower scan instead of scanBalanced's
		// generic (and here wrong) slash-literal skipping.
		end, err = scanCBORArgEnd(p.src, parenStart)
	} else {
		end, err = scanBalanced(p.src, parenStart)
	}
	if err != nil {
		return nil, err
	}
	var raw string
	switch kw {
	case "array", "map":
		raw, err = innerBracketSpan(p.src, parenStart, end)
		if err != nil {
			return nil, err
		}
	default:
		raw = p.src[kwStart:end]
	}
	sub, serr := dcborpattern.ParsePattern(raw)
	if serr != nil {
		return nil, subMatcherError(kwStart, end, serr)
	}
	if err := p.resyncPast(end); err != nil {
		return nil, err
	}
	return leafNode(sub, lift), nil
}

// parseFilterOrBare handles `subj`/`pred`/`obj`, which accept either the
// bare form (no argument, every subject/predicate/object) or a `(p)`
// argument restricting to candidates the sub-pattern matches (spec §3:
// "subject(p), pred(p), obj(p)").
func (p *parser) parseFilterOrBare(bare node, ctor func(node) node) (node, error) {
	if !p.isPunct("(") {
		return bare, nil
	}
	return p.parseAssertSub(ctor)
}

func (p *parser) parseAssertSub(ctor func(node) node) (node, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	inner, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ctor(inner), nil
}

func (p *parser) parseSearch() (node, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	inner, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return searchNode{sub: inner}, nil
}

// parseNodeRange parses `node`, `node(n)`, `node(n,m)`, `node(n,)` (unbounded
// above n) and `node(n..m)` / `node(n..)`.
func (p *parser) parseNodeRange() (node, error) {
	if !p.isPunct("(") {
		return nodeRangeNode(0, -1), nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	min, max := 0, -1
	if p.tok.kind == tokInt {
		min = int(p.tok.ival)
		max = min
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct(",") || p.isPunct("..") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind == tokInt {
				max = int(p.tok.ival)
				if err := p.advance(); err != nil {
					return nil, err
				}
			} else {
				max = -1
			}
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if max >= 0 && max < min {
		return nil, compileError("node range upper bound is less than its lower bound")
	}
	return nodeRangeNode(min, max), nil
}

// parseDigest parses `digest(h'...')`: a full 32-byte hex digest is an exact
// match, anything shorter is a prefix match.
func (p *parser) parseDigest() (node, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	if p.tok.kind != tokHexString {
		return nil, parseError(p.tok.start, p.tok.end, "a hex byte string", p.tok.text)
	}
	raw, err := decodeHexDigits(p.tok.text)
	if err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if len(raw) == 32 {
		var d envelope.Digest
		copy(d[:], raw)
		return digestExactNode(d), nil
	}
	return digestPrefixNode(raw), nil
}

func (p *parser) parseObscured() (node, error) {
	if !p.isPunct("(") {
		return obscuredAnyNode(), nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokIdent {
		return nil, parseError(p.tok.start, p.tok.end, "any/elided/encrypted/compressed", p.tok.text)
	}
	kind := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	switch kind {
	case "any":
		return obscuredAnyNode(), nil
	case "elided":
		return obscuredKindNode(envelope.ObscuredElided), nil
	case "encrypted":
		return obscuredKindNode(envelope.ObscuredEncrypted), nil
	case "compressed":
		return obscuredKindNode(envelope.ObscuredCompressed), nil
	default:
		return nil, parseError(p.tok.start, p.tok.end, "any/elided/encrypted/compressed", kind)
	}
}

// resyncPast repositions the lexer to just past a raw-text span this parser
// consumed by direct source slicing (leaf-fragment delegation) rather than
// by tokenising, then fetches the next real token from there.
func (p *parser) resyncPast(end int) error {
	p.lex.pos = end
	return p.advance()
}

func decodeHexDigits(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, lexError(0, "odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		b, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, lexError(0, "invalid hex string "+s)
		}
		out[i] = byte(b)
	}
	return out, nil
}

// scanBalanced scans src starting at the position of an opening delimiter
// ('(', '[' or '{') and returns the index just past its matching closing
// delimiter, skipping nested delimiters and the contents of string/regex/
// quoted-name/hex-string literals so that punctuation inside them is never
// mistaken for structure (spec §4.2).
func scanBalanced(src string, start int) (int, error) {
	var want byte
	switch src[start] {
	case '(':
		want = ')'
	case '[':
		want = ']'
	case '{':
		want = '}'
	default:
		return 0, internalInvariant("scanBalanced called on non-delimiter %q", string(src[start]))
	}
	depth := 0
	i := start
	for i < len(src) {
		switch c := src[i]; c {
		case '"', '\'', '/':
			j, err := skipDelimitedSpan(src, i, c)
			if err != nil {
				return 0, err
			}
			i = j
		case '(', '[', '{':
			depth++
			i++
		case ')', ']', '}':
			depth--
			i++
			if depth == 0 {
				if c != want {
					return 0, parseError(start, i, string(want), string(c))
				}
				return i, nil
			}
			if depth < 0 {
				return 0, parseError(start, i, "balanced delimiter", string(c))
			}
		default:
			i++
		}
	}
	return 0, lexError(start, "unterminated delimiter")
}

func skipDelimitedSpan(src string, i int, delim byte) (int, error) {
	start := i
	i++
	for i < len(src) && src[i] != delim {
		if src[i] == '\\' && i+1 < len(src) {
			i++
		}
		i++
	}
	if i >= len(src) {
		return 0, lexError(start, "unterminated literal")
	}
	return i + 1, nil
}

// scanCBORArgEnd finds the end of a `cbor(...)` argument, which is exactly
// one slash-delimited embedded pattern, one quoted diagnostic literal, or a
// bare `ur:...` token running to the closing paren.
func scanCBORArgEnd(src string, parenStart int) (int, error) {
	i := parenStart + 1
	for i < len(src) && isSpaceByte(src[i]) {
		i++
	}
	if i >= len(src) {
		return 0, lexError(parenStart, "unterminated cbor(...) fragment")
	}
	switch src[i] {
	case '"', '/':
		j, err := skipDelimitedSpan(src, i, src[i])
		if err != nil {
			return 0, err
		}
		i = j
	default:
		for i < len(src) && src[i] != ')' {
			i++
		}
	}
	for i < len(src) && isSpaceByte(src[i]) {
		i++
	}
	if i >= len(src) || src[i] != ')' {
		return 0, parseError(parenStart, i, "')'", "")
	}
	return i + 1, nil
}

// innerBracketSpan extracts the `[...]`/`{...}` substring immediately inside
// an `array(...)`/`map(...)` keyword's parentheses.
func innerBracketSpan(src string, parenStart, parenEnd int) (string, error) {
	i := parenStart + 1
	for i < parenEnd && isSpaceByte(src[i]) {
		i++
	}
	if i >= parenEnd || (src[i] != '[' && src[i] != '{') {
		return "", parseError(parenStart, parenEnd, "'[' or '{'", "")
	}
	innerEnd, err := scanBalanced(src, i)
	if err != nil {
		return "", err
	}
	return src[i:innerEnd], nil
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
