package pattern

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"
	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcborpattern"
	"github.com/BlockchainCommons/bc-envelope-pattern-go/envelope"
)

// atomic is what a compiled MatchPredicate instruction invokes (spec §4.4).
// It is given the thread's current path and returns zero or more successor
// paths, plus any captures contributed by a CBOR sub-match along the way.
// Whether the returned paths are longer than the input (the common case) or
// the same length (and/not, which verify rather than descend) is a property
// of the atomic itself — the ISA carries no separate "extend" flag.
type atomic interface {
	extend(path Path) ([]Path, Captures, error)
	String() string
}

// --- leaf atoms: delegate to the CBOR sub-matcher (C6) -----------------

// leafAtom backs every leaf-pattern keyword (`bool`, `number`, `text`, …,
// and `cbor(...)`). Per spec §4.5/§4.6 only `cbor(...)` represents genuine
// CBOR-internal addressing — it is the one fragment form that may select a
// value *within* the leaf, so only it lifts the sub-matcher's path into
// extra envelope-leaf hops (spec §8 scenario S6: `cbor(/@n(number)/)` on
// leaf `42` produces the two-step path `[42, 42]`). Every other leaf
// keyword is a case check against the whole leaf value and, on success,
// leaves the path untouched (scenario S1: `bool` on leaf `true` produces
// the one-step path `[true]`) — it still lifts any *captures* the
// sub-pattern recorded (e.g. `array([@x(number)])`), just not the overall
// matched path.
type leafAtom struct {
	sub  dcborpattern.Pattern
	lift bool
}

func (a leafAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	if tail == nil {
		return nil, nil, internalInvariant("leaf atom invoked on empty path")
	}
	v, ok := tail.LeafValue()
	if !ok {
		return nil, nil, nil
	}
	cborPaths, subCaps := dcborpattern.Match(a.sub, v)
	if len(cborPaths) == 0 {
		return nil, nil, nil
	}

	var out []Path
	if a.lift {
		out = make([]Path, 0, len(cborPaths))
		for _, cp := range cborPaths {
			ext := path.clone()
			for _, cv := range cp[skipRootCBOR(cp, v):] {
				ext = ext.extend(envelope.NewLeaf(cv))
			}
			out = append(out, ext)
		}
	} else {
		out = []Path{path.clone()}
	}

	var caps Captures
	for name, subPaths := range subCaps {
		for _, cp := range subPaths {
			lifted := Path{tail}
			for _, cv := range cp[skipRootCBOR(cp, v):] {
				lifted = lifted.extend(envelope.NewLeaf(cv))
			}
			if caps == nil {
				caps = Captures{}
			}
			caps[name] = append(caps[name], lifted)
		}
	}
	return out, caps, nil
}

// skipRootCBOR reports how many leading cbor-path entries to drop before
// lifting the rest into envelope leaves. A sub-matcher path that merely
// echoes the root value before going deeper (tagged nesting prepends the
// tagged value itself) would otherwise double-count the
// base envelope; a single-entry path never gets skipped, since then it is
// the match itself, not a redundant echo (spec §8, scenario S6).
func skipRootCBOR(cp dcborpattern.Path, root dcbor.Value) int {
	if len(cp) > 1 && dcbor.Equal(cp[0], root) {
		return 1
	}
	return 0
}

func (a leafAtom) String() string { return "leaf(" + a.sub.String() + ")" }

// anyAtom backs the bare `*` primary: it matches every envelope without
// growing the path (spec §8 property 2: `paths(*, e) = [[e]]`).
type anyAtom struct{}

func (anyAtom) extend(path Path) ([]Path, Captures, error) {
	return []Path{path.clone()}, nil, nil
}
func (anyAtom) String() string { return "*" }

// --- structure atoms (spec §4.5) ---------------------------------------

type subjAtom struct{}

func (subjAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	return []Path{path.extend(tail.Subject())}, nil, nil
}
func (subjAtom) String() string { return "subj" }

type predAtom struct{}

// extend enumerates every predicate of a Node tail, or — when the tail is
// itself a single Assertion (e.g. reached via `assert`/`assertpred(p)` —
// spec §8 scenario S4's `assertpred("name") -> obj`) — extends by that one
// assertion's own predicate.
func (predAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	switch tail.Case() {
	case envelope.CaseNode:
		var out []Path
		for _, a := range tail.Assertions() {
			out = append(out, path.extend(a.Predicate))
		}
		return out, nil, nil
	case envelope.CaseAssertion:
		p, _, _ := tail.AssertionPair()
		return []Path{path.extend(p)}, nil, nil
	default:
		return nil, nil, nil
	}
}
func (predAtom) String() string { return "pred" }

type objAtom struct{}

// extend enumerates every object of a Node tail, or — when the tail is
// itself a single Assertion — extends by that one assertion's own object
// (spec §8 scenario S4).
func (objAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	switch tail.Case() {
	case envelope.CaseNode:
		var out []Path
		for _, a := range tail.Assertions() {
			out = append(out, path.extend(a.Object))
		}
		return out, nil, nil
	case envelope.CaseAssertion:
		_, o, _ := tail.AssertionPair()
		return []Path{path.extend(o)}, nil, nil
	default:
		return nil, nil, nil
	}
}
func (objAtom) String() string { return "obj" }

// subjFilterAtom / predFilterAtom / objFilterAtom back the restricted
// `subj(p)` / `pred(p)` / `obj(p)` structure patterns (spec §3): they
// extend by the subject/predicate/object itself, but only once it
// satisfies the sub-pattern — tested against a fresh one-element path, the
// same "shared snapshot" style assertpred/assertobj use (spec §4.4).
type subjFilterAtom struct{ sub Matcher }

func (a subjFilterAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	subject := tail.Subject()
	matched, caps, err := a.sub.run(Path{subject})
	if err != nil {
		return nil, nil, err
	}
	if len(matched) == 0 {
		return nil, nil, nil
	}
	return []Path{path.extend(subject)}, caps, nil
}
func (a subjFilterAtom) String() string { return fmt.Sprintf("subj(%s)", a.sub) }

type predFilterAtom struct{ sub Matcher }

func (a predFilterAtom) extend(path Path) ([]Path, Captures, error) {
	return filterEachAssertion(path, a.sub, true)
}
func (a predFilterAtom) String() string { return fmt.Sprintf("pred(%s)", a.sub) }

type objFilterAtom struct{ sub Matcher }

func (a objFilterAtom) extend(path Path) ([]Path, Captures, error) {
	return filterEachAssertion(path, a.sub, false)
}
func (a objFilterAtom) String() string { return fmt.Sprintf("obj(%s)", a.sub) }

// filterEachAssertion enumerates every assertion's predicate (or object),
// testing each one against sub and extending the outer path by the
// predicate/object itself when it matches — as opposed to
// matchEachAssertion (assertpred/assertobj), which extends by the
// enclosing assertion envelope instead.
func filterEachAssertion(path Path, sub Matcher, byPredicate bool) ([]Path, Captures, error) {
	tail := path.Tail()
	if tail.Case() != envelope.CaseNode {
		return nil, nil, nil
	}
	var out []Path
	var caps Captures
	for _, a := range tail.Assertions() {
		target := a.Object
		if byPredicate {
			target = a.Predicate
		}
		matched, subCaps, err := sub.run(Path{target})
		if err != nil {
			return nil, nil, err
		}
		if len(matched) == 0 {
			continue
		}
		out = append(out, path.extend(target))
		caps = mergeCaptures(caps, subCaps)
	}
	return out, caps, nil
}

type assertAtom struct{}

func (assertAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	if tail.Case() != envelope.CaseNode {
		return nil, nil, nil
	}
	var out []Path
	for _, a := range tail.Assertions() {
		assertion := envelope.NewAssertion(a.Predicate, a.Object)
		out = append(out, path.extend(assertion))
	}
	return out, nil, nil
}
func (assertAtom) String() string { return "assert" }

// assertpredAtom / assertobjAtom enumerate assertions whose predicate/object
// satisfies a sub-pattern, extending by the assertion envelope itself.
type assertpredAtom struct{ sub Matcher }
type assertobjAtom struct{ sub Matcher }

func (a assertpredAtom) extend(path Path) ([]Path, Captures, error) {
	return matchEachAssertion(path, a.sub, true)
}
func (a assertpredAtom) String() string { return fmt.Sprintf("assertpred(%s)", a.sub) }

func (a assertobjAtom) extend(path Path) ([]Path, Captures, error) {
	return matchEachAssertion(path, a.sub, false)
}
func (a assertobjAtom) String() string { return fmt.Sprintf("assertobj(%s)", a.sub) }

func matchEachAssertion(path Path, sub Matcher, byPredicate bool) ([]Path, Captures, error) {
	tail := path.Tail()
	if tail.Case() != envelope.CaseNode {
		return nil, nil, nil
	}
	var out []Path
	var caps Captures
	for _, a := range tail.Assertions() {
		target := a.Object
		if byPredicate {
			target = a.Predicate
		}
		matched, subCaps, err := sub.run(Path{target})
		if err != nil {
			return nil, nil, err
		}
		if len(matched) == 0 {
			continue
		}
		assertion := envelope.NewAssertion(a.Predicate, a.Object)
		out = append(out, path.extend(assertion))
		caps = mergeCaptures(caps, subCaps)
	}
	return out, caps, nil
}

type nodeAtom struct{ min, max int } // max < 0 means unbounded

func (a nodeAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	if tail.Case() != envelope.CaseNode {
		return nil, nil, nil
	}
	n := len(tail.Assertions())
	if n < a.min || (a.max >= 0 && n > a.max) {
		return nil, nil, nil
	}
	return []Path{path.extend(tail)}, nil, nil
}
func (a nodeAtom) String() string {
	if a.max < 0 {
		return fmt.Sprintf("node(%d..)", a.min)
	}
	return fmt.Sprintf("node(%d..%d)", a.min, a.max)
}

type leafCaseAtom struct{}

func (leafCaseAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	if !tail.IsLeaf() {
		return nil, nil, nil
	}
	return []Path{path.extend(tail)}, nil, nil
}
func (leafCaseAtom) String() string { return "leaf" }

type wrappedAtom struct{}

func (wrappedAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	if tail.Case() != envelope.CaseWrapped {
		return nil, nil, nil
	}
	return []Path{path.extend(tail)}, nil, nil
}
func (wrappedAtom) String() string { return "wrapped" }

type unwrapAtom struct{}

func (unwrapAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	content, ok := tail.Unwrap()
	if !ok {
		return nil, nil, nil
	}
	return []Path{path.extend(content)}, nil, nil
}
func (unwrapAtom) String() string { return "unwrap" }

type digestAtom struct {
	exact  *envelope.Digest
	prefix []byte
}

func (a digestAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	d := tail.Digest()
	if a.exact != nil {
		if d != *a.exact {
			return nil, nil, nil
		}
	} else if !bytes.HasPrefix(d[:], a.prefix) {
		return nil, nil, nil
	}
	return []Path{path.extend(tail)}, nil, nil
}
func (a digestAtom) String() string { return "digest(...)" }

type obscuredAtom struct {
	kind  envelope.ObscuredKind
	exact bool // true: any one of kind; false: accepts any obscured kind
}

func (a obscuredAtom) extend(path Path) ([]Path, Captures, error) {
	tail := path.Tail()
	kind, ok := tail.Obscured()
	if !ok {
		return nil, nil, nil
	}
	if a.exact && kind != a.kind {
		return nil, nil, nil
	}
	return []Path{path.extend(tail)}, nil, nil
}
func (a obscuredAtom) String() string {
	if a.exact {
		return "obscured(" + a.kind.String() + ")"
	}
	return "obscured(any)"
}

// --- specialised atoms (and / not / search) -----------------------------

// andAtom verifies every conjunct against the same input path and, per
// spec §4.4, replaces rather than extends: it succeeds with the unchanged
// path iff every conjunct accepts it.
type andAtom struct{ subs []Matcher }

func (a andAtom) extend(path Path) ([]Path, Captures, error) {
	var caps Captures
	for _, sub := range a.subs {
		matched, subCaps, err := sub.run(path)
		if err != nil {
			return nil, nil, err
		}
		if len(matched) == 0 {
			return nil, nil, nil
		}
		caps = mergeCaptures(caps, subCaps)
	}
	return []Path{path}, caps, nil
}
func (a andAtom) String() string { return joinMatchers(a.subs, " & ") }

// notAtom succeeds with the unchanged path iff its sub-pattern yields no
// paths; captures from inside a negation are never exported (spec §8.3).
type notAtom struct{ sub Matcher }

func (a notAtom) extend(path Path) ([]Path, Captures, error) {
	matched, _, err := a.sub.run(path)
	if err != nil {
		return nil, nil, err
	}
	if len(matched) != 0 {
		return nil, nil, nil
	}
	return []Path{path}, nil, nil
}
func (a notAtom) String() string { return "!" + a.sub.String() }

// searchAtom walks the whole tree in depth-first pre-order (subject, then
// each assertion's predicate then object, then wrapped content — spec §9)
// and emits one successor path per position at which the sub-pattern
// accepts.
type searchAtom struct{ sub Matcher }

func (a searchAtom) extend(path Path) ([]Path, Captures, error) {
	var out []Path
	var caps Captures
	var walk func(cur Path)
	walk = func(cur Path) {
		matched, subCaps, err := a.sub.run(cur)
		_ = err // search never fails the whole match on a sub-pattern error; it simply doesn't accept there
		out = append(out, matched...)
		caps = mergeCaptures(caps, subCaps)
		node := cur.Tail()
		switch node.Case() {
		case envelope.CaseNode:
			walk(cur.extend(node.Subject()))
			for _, asn := range node.Assertions() {
				walk(cur.extend(asn.Predicate))
				walk(cur.extend(asn.Object))
			}
		case envelope.CaseWrapped:
			if content, ok := node.Unwrap(); ok {
				walk(cur.extend(content))
			}
		case envelope.CaseAssertion:
			if p, o, ok := node.AssertionPair(); ok {
				walk(cur.extend(p))
				walk(cur.extend(o))
			}
		}
	}
	// Test the sub-pattern at the current position itself before descending
	// (depth-first pre-order, spec §9) — not a duplicated extension of it,
	// since a match exactly at the search root should not lengthen the path.
	walk(path)
	return out, caps, nil
}
func (a searchAtom) String() string { return "search(" + a.sub.String() + ")" }

func joinMatchers(ms []Matcher, sep string) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.String()
	}
	return strings.Join(parts, sep)
}
