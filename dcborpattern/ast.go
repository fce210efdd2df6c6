// Package dcborpattern is the CBOR sub-matcher referenced throughout
// spec.md as an external collaborator (§1, §4.1, §4.2, §4.6). No such
// package is retrievable from the example pack, so this is a complete,
// independent reference implementation: its own tiny pattern algebra,
// lexer/parser and matcher over dcbor.Value trees. The envelope-level
// pattern package treats this package as a black box reached only through
// Parse and Match (spec.md §4.6's adapter contract) — it never reimplements
// CBOR matching itself.
package dcborpattern

import (
	"math"
	"math/big"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"
)

// Path is a sequence of dCBOR values from the matched root down to (and
// including) the accepted value, mirroring the envelope package's Path
// concept one level down (spec.md §3, §4.6).
type Path []dcbor.Value

// Captures maps a capture name to every path captured under it.
type Captures map[string][]Path

// Match is one accepted path together with whatever captures were recorded
// while reaching it.
type Match struct {
	Path     Path
	Captures Captures
}

func mergeCaptures(dst Captures, src Captures) Captures {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = Captures{}
	}
	for name, paths := range src {
		dst[name] = append(dst[name], paths...)
	}
	return dst
}

// Pattern is the closed algebra this sub-matcher evaluates. Every node
// implements matchValue, returning every accepted extension path (each
// prefixed with the value it was evaluated against) plus any captures
// recorded along the way.
type Pattern interface {
	matchValue(v dcbor.Value) []Match
	String() string
}

// Match runs pat against root and returns every accepted path plus the
// union of their captures — the two return values spec.md §4.6 expects the
// adapter to lift into envelope paths/captures.
func Match(pat Pattern, root dcbor.Value) (paths []Path, captures Captures) {
	for _, m := range pat.matchValue(root) {
		paths = append(paths, m.Path)
		captures = mergeCaptures(captures, m.Captures)
	}
	return paths, captures
}

// --- leaf patterns -------------------------------------------------------

type anyPattern struct{}

func Any() Pattern { return anyPattern{} }

func (anyPattern) matchValue(v dcbor.Value) []Match {
	return []Match{{Path: Path{v}}}
}
func (anyPattern) String() string { return "*" }

type boolPattern struct {
	mode int // 0=any, 1=true, 2=false
}

func BoolAny() Pattern   { return boolPattern{0} }
func BoolTrue() Pattern  { return boolPattern{1} }
func BoolFalse() Pattern { return boolPattern{2} }

func (p boolPattern) matchValue(v dcbor.Value) []Match {
	if v.Kind != dcbor.KindBool {
		return nil
	}
	switch p.mode {
	case 1:
		if !v.Bool {
			return nil
		}
	case 2:
		if v.Bool {
			return nil
		}
	}
	return []Match{{Path: Path{v}}}
}
func (p boolPattern) String() string {
	switch p.mode {
	case 1:
		return "bool(true)"
	case 2:
		return "bool(false)"
	default:
		return "bool"
	}
}

type nullPattern struct{}

func Null() Pattern { return nullPattern{} }

func (nullPattern) matchValue(v dcbor.Value) []Match {
	if v.Kind != dcbor.KindNull {
		return nil
	}
	return []Match{{Path: Path{v}}}
}
func (nullPattern) String() string { return "null" }

// NumberConstraint describes one of number's comparison forms.
type NumberConstraint struct {
	Op    string // "", "==", "!=", "<", "<=", ">", ">=", "nan", "inf"
	Value float64
}

type numberPattern struct {
	any        bool
	constraint NumberConstraint
	isRange    bool
	lo, hi     float64
}

func NumberAny() Pattern { return numberPattern{any: true} }
func NumberCmp(op string, value float64) Pattern {
	return numberPattern{constraint: NumberConstraint{Op: op, Value: value}}
}

// NumberRange matches a number in the inclusive range [lo, hi] — spec §3's
// number(range) form, e.g. number(1..10).
func NumberRange(lo, hi float64) Pattern {
	return numberPattern{isRange: true, lo: lo, hi: hi}
}

func asFloat(v dcbor.Value) (float64, bool) {
	switch v.Kind {
	case dcbor.KindInt:
		f := new(big.Float).SetInt(v.Int)
		out, _ := f.Float64()
		return out, true
	case dcbor.KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

func (p numberPattern) matchValue(v dcbor.Value) []Match {
	f, ok := asFloat(v)
	if !ok {
		return nil
	}
	if p.any {
		return []Match{{Path: Path{v}}}
	}
	if p.isRange {
		if f < p.lo || f > p.hi {
			return nil
		}
		return []Match{{Path: Path{v}}}
	}
	switch p.constraint.Op {
	case "nan":
		ok = math.IsNaN(f)
	case "inf":
		ok = math.IsInf(f, 0)
	case "==", "":
		ok = f == p.constraint.Value
	case "!=":
		ok = f != p.constraint.Value
	case "<":
		ok = f < p.constraint.Value
	case "<=":
		ok = f <= p.constraint.Value
	case ">":
		ok = f > p.constraint.Value
	case ">=":
		ok = f >= p.constraint.Value
	default:
		ok = false
	}
	if !ok {
		return nil
	}
	return []Match{{Path: Path{v}}}
}
func (p numberPattern) String() string {
	if p.any {
		return "number"
	}
	if p.isRange {
		return "number(range)"
	}
	return "number(" + p.constraint.Op + ")"
}

type textPattern struct {
	any    bool
	exact  *string
	regexp *compiledRegex
}

func TextAny() Pattern              { return textPattern{any: true} }
func TextExact(s string) Pattern    { return textPattern{exact: &s} }
func TextRegex(r *compiledRegex) Pattern { return textPattern{regexp: r} }

func (p textPattern) matchValue(v dcbor.Value) []Match {
	if v.Kind != dcbor.KindText {
		return nil
	}
	if p.any {
		return []Match{{Path: Path{v}}}
	}
	if p.exact != nil {
		if v.Text != *p.exact {
			return nil
		}
		return []Match{{Path: Path{v}}}
	}
	if p.regexp != nil && p.regexp.MatchString(v.Text) {
		return []Match{{Path: Path{v}}}
	}
	return nil
}
func (p textPattern) String() string { return "text" }

type bstrPattern struct {
	any    bool
	exact  []byte
	regexp *compiledRegex
}

func BstrAny() Pattern             { return bstrPattern{any: true} }
func BstrExact(b []byte) Pattern   { return bstrPattern{exact: b} }
func BstrRegex(r *compiledRegex) Pattern { return bstrPattern{regexp: r} }

func (p bstrPattern) matchValue(v dcbor.Value) []Match {
	if v.Kind != dcbor.KindBytes {
		return nil
	}
	if p.any {
		return []Match{{Path: Path{v}}}
	}
	if p.exact != nil {
		if string(p.exact) != string(v.Bytes) {
			return nil
		}
		return []Match{{Path: Path{v}}}
	}
	if p.regexp != nil && p.regexp.MatchBytes(v.Bytes) {
		return []Match{{Path: Path{v}}}
	}
	return nil
}
func (p bstrPattern) String() string { return "bstr" }

type capturePattern struct {
	name string
	pat  Pattern
}

func Capture(name string, pat Pattern) Pattern {
	return capturePattern{name: name, pat: pat}
}

func (p capturePattern) matchValue(v dcbor.Value) []Match {
	inner := p.pat.matchValue(v)
	out := make([]Match, 0, len(inner))
	for _, m := range inner {
		caps := Captures{p.name: []Path{m.Path}}
		out = append(out, Match{Path: m.Path, Captures: mergeCaptures(caps, m.Captures)})
	}
	return out
}
func (p capturePattern) String() string { return "@" + p.name + "(" + p.pat.String() + ")" }

type notPattern struct{ pat Pattern }

func Not(pat Pattern) Pattern { return notPattern{pat} }

func (p notPattern) matchValue(v dcbor.Value) []Match {
	if len(p.pat.matchValue(v)) > 0 {
		return nil
	}
	return []Match{{Path: Path{v}}}
}
func (p notPattern) String() string { return "!" + p.pat.String() }

type andPattern struct{ pats []Pattern }

func And(pats ...Pattern) Pattern { return andPattern{pats} }

func (p andPattern) matchValue(v dcbor.Value) []Match {
	var caps Captures
	for _, sub := range p.pats {
		ms := sub.matchValue(v)
		if len(ms) == 0 {
			return nil
		}
		caps = mergeCaptures(caps, ms[0].Captures)
	}
	return []Match{{Path: Path{v}, Captures: caps}}
}
func (p andPattern) String() string { return "and(...)" }

// orPattern: the first alternative that matches wins, not the union of all
// alternatives; later alternatives are not tried.
type orPattern struct{ pats []Pattern }

func Or(pats ...Pattern) Pattern { return orPattern{pats} }

func (p orPattern) matchValue(v dcbor.Value) []Match {
	for _, sub := range p.pats {
		if ms := sub.matchValue(v); len(ms) > 0 {
			return ms
		}
	}
	return nil
}
func (p orPattern) String() string { return "or(...)" }
