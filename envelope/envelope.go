// Package envelope implements the Gordian Envelope tree shape that the
// pattern matcher walks. Construction, digesting and elision are treated as
// a thin, deliberately minimal data model here — this repository's concern
// is matching, not the envelope ecosystem itself (encryption, compression
// and UR transport belong to other packages in a full Gordian stack).
package envelope

import (
	"crypto/sha256"
	"fmt"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"
)

// Case distinguishes the six envelope shapes from spec.md §3.
type Case int

const (
	CaseLeaf Case = iota
	CaseKnownValue
	CaseAssertion
	CaseNode
	CaseWrapped
	CaseObscured
)

func (c Case) String() string {
	switch c {
	case CaseLeaf:
		return "leaf"
	case CaseKnownValue:
		return "knownValue"
	case CaseAssertion:
		return "assertion"
	case CaseNode:
		return "node"
	case CaseWrapped:
		return "wrapped"
	case CaseObscured:
		return "obscured"
	default:
		return "unknown"
	}
}

// ObscuredKind distinguishes the three ways a branch can be hidden.
type ObscuredKind int

const (
	ObscuredElided ObscuredKind = iota
	ObscuredEncrypted
	ObscuredCompressed
)

func (k ObscuredKind) String() string {
	switch k {
	case ObscuredElided:
		return "elided"
	case ObscuredEncrypted:
		return "encrypted"
	case ObscuredCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// Digest is the deterministic content digest of an envelope.
type Digest [32]byte

func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:])
}

// HexPrefix returns the first n hex characters of the digest, used by the
// canonical path text format (spec.md §6, "8-hex-digit prefix").
func (d Digest) HexPrefix(n int) string {
	s := d.String()
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Assertion is a (predicate, object) pair attached to a subject.
type Assertion struct {
	Predicate *Envelope
	Object    *Envelope
}

// Envelope is the recursive tree node described in spec.md §3. Exactly one
// of the fields matching Case is meaningful; callers should always branch on
// Case() rather than probing fields directly.
type Envelope struct {
	kind Case

	leaf       dcbor.Value
	knownValue uint64
	knownName  string

	assertion *Assertion

	subject    *Envelope
	assertions []Assertion

	wrapped *Envelope

	obscuredKind   ObscuredKind
	obscuredDigest Digest

	digest     Digest
	digestSet  bool
}

// NewLeaf wraps a dCBOR value as a leaf envelope.
func NewLeaf(v dcbor.Value) *Envelope {
	e := &Envelope{kind: CaseLeaf, leaf: v}
	e.computeDigest(v)
	return e
}

// NewKnownValue wraps a well-known integer identifier, optionally named.
func NewKnownValue(value uint64, name string) *Envelope {
	e := &Envelope{kind: CaseKnownValue, knownValue: value, knownName: name}
	e.computeDigest(dcbor.Tagged(40000, dcbor.Uint(value)))
	return e
}

// NewAssertion builds a predicate/object pair.
func NewAssertion(predicate, object *Envelope) *Envelope {
	a := &Assertion{Predicate: predicate, Object: object}
	e := &Envelope{kind: CaseAssertion, assertion: a}
	e.digest = combineDigests(predicate.Digest(), object.Digest())
	e.digestSet = true
	return e
}

// NewNode attaches assertions (in the given order — callers are responsible
// for any semantic ordering; the matcher visits them in this order, spec.md
// §3/§9) to a non-Node subject.
func NewNode(subject *Envelope, assertions ...Assertion) (*Envelope, error) {
	if subject.kind == CaseNode {
		return nil, fmt.Errorf("envelope: node subject must not itself be a node")
	}
	e := &Envelope{kind: CaseNode, subject: subject, assertions: assertions}
	d := subject.Digest()
	for _, a := range assertions {
		ad := combineDigests(a.Predicate.Digest(), a.Object.Digest())
		d = combineDigests(d, ad)
	}
	e.digest = d
	e.digestSet = true
	return e, nil
}

// NewWrapped wraps content in a one-level capsule.
func NewWrapped(content *Envelope) *Envelope {
	e := &Envelope{kind: CaseWrapped, wrapped: content}
	e.digest = combineDigests(Digest{0x01}, content.Digest())
	e.digestSet = true
	return e
}

// NewObscured constructs an opaque branch exposing only its digest. This
// never actually encrypts/elides/compresses anything (out of scope per
// spec.md §1) — it simply records which transform would have produced the
// given digest, for matchers that test `obscured`/`elided`/`encrypted`/
// `compressed`.
func NewObscured(kind ObscuredKind, digest Digest) *Envelope {
	return &Envelope{kind: CaseObscured, obscuredKind: kind, obscuredDigest: digest, digest: digest, digestSet: true}
}

func (e *Envelope) computeDigest(v dcbor.Value) {
	enc, err := dcbor.Marshal(v)
	if err != nil {
		// A dCBOR value built through this package's own constructors is
		// always encodable; surfacing a panic here would only hide a bug
		// in the value model, not a caller mistake.
		panic(fmt.Sprintf("envelope: unencodable leaf value: %v", err))
	}
	e.digest = sha256.Sum256(enc)
	e.digestSet = true
}

func combineDigests(a, b Digest) Digest {
	buf := make([]byte, 0, 64)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return sha256.Sum256(buf)
}

// Case reports which of the six envelope shapes this is.
func (e *Envelope) Case() Case { return e.kind }

// Digest returns the envelope's deterministic content digest.
func (e *Envelope) Digest() Digest {
	if !e.digestSet {
		panic("envelope: digest requested before it was computed")
	}
	return e.digest
}

// IsLeaf reports whether this envelope is a Leaf or a KnownValue — the two
// cases the matcher's `leaf` structure pattern accepts (spec.md §4.5).
func (e *Envelope) IsLeaf() bool {
	return e.kind == CaseLeaf || e.kind == CaseKnownValue
}

// LeafValue returns the dCBOR value for a Leaf envelope, or the known-value
// tagged representation for a KnownValue envelope, so the CBOR sub-matcher
// adapter can treat both uniformly (spec.md §4.6).
func (e *Envelope) LeafValue() (dcbor.Value, bool) {
	switch e.kind {
	case CaseLeaf:
		return e.leaf, true
	case CaseKnownValue:
		return dcbor.Tagged(40000, dcbor.Uint(e.knownValue)), true
	default:
		return dcbor.Value{}, false
	}
}

// KnownValue returns the numeric identifier and optional name of a
// KnownValue envelope.
func (e *Envelope) KnownValue() (value uint64, name string, ok bool) {
	if e.kind != CaseKnownValue {
		return 0, "", false
	}
	return e.knownValue, e.knownName, true
}

// Subject returns the subject of a Node envelope, or the envelope itself for
// any other case (spec.md §4.5: "on a non-Node, extends by the envelope
// itself").
func (e *Envelope) Subject() *Envelope {
	if e.kind == CaseNode {
		return e.subject
	}
	return e
}

// Assertions returns a Node's assertions in the stable order they were
// attached. Returns nil for any other case.
func (e *Envelope) Assertions() []Assertion {
	if e.kind != CaseNode {
		return nil
	}
	return e.assertions
}

// AssertionPair returns the predicate and object of an Assertion envelope.
func (e *Envelope) AssertionPair() (predicate, object *Envelope, ok bool) {
	if e.kind != CaseAssertion {
		return nil, nil, false
	}
	return e.assertion.Predicate, e.assertion.Object, true
}

// Unwrap returns the content of a Wrapped envelope.
func (e *Envelope) Unwrap() (*Envelope, bool) {
	if e.kind != CaseWrapped {
		return nil, false
	}
	return e.wrapped, true
}

// Obscured returns the obscured kind of an Obscured envelope.
func (e *Envelope) Obscured() (ObscuredKind, bool) {
	if e.kind != CaseObscured {
		return 0, false
	}
	return e.obscuredKind, true
}

// Format renders the envelope's canonical one-line representation used by
// the path text formatter (spec.md §6).
func (e *Envelope) Format() string {
	switch e.kind {
	case CaseLeaf:
		return e.leaf.Diagnostic()
	case CaseKnownValue:
		if e.knownName != "" {
			return "'" + e.knownName + "'"
		}
		return fmt.Sprintf("'%d'", e.knownValue)
	case CaseAssertion:
		return fmt.Sprintf("%s: %s", e.assertion.Predicate.Format(), e.assertion.Object.Format())
	case CaseNode:
		return fmt.Sprintf("NODE(%s, %d assertions)", e.subject.Format(), len(e.assertions))
	case CaseWrapped:
		return "WRAPPED"
	case CaseObscured:
		return "OBSCURED(" + e.obscuredKind.String() + ")"
	default:
		return "?"
	}
}
