package envelope

import (
	"testing"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"
)

func TestNewLeafIsLeafCase(t *testing.T) {
	e := NewLeaf(dcbor.Int(42))
	if e.Case() != CaseLeaf {
		t.Fatalf("expected CaseLeaf, got %v", e.Case())
	}
	if !e.IsLeaf() {
		t.Fatalf("expected IsLeaf() true for a leaf envelope")
	}
	v, ok := e.LeafValue()
	if !ok || v.Int.Int64() != 42 {
		t.Fatalf("expected LeafValue to round-trip 42, got %v ok=%v", v, ok)
	}
}

func TestKnownValueNameAndValue(t *testing.T) {
	e := NewKnownValue(7, "unknown")
	if e.Case() != CaseKnownValue {
		t.Fatalf("expected CaseKnownValue, got %v", e.Case())
	}
	if !e.IsLeaf() {
		t.Fatalf("expected known values to report IsLeaf() true")
	}
	v, name, ok := e.KnownValue()
	if !ok || v != 7 || name != "unknown" {
		t.Fatalf("expected (7, \"unknown\", true), got (%d, %q, %v)", v, name, ok)
	}
}

func TestNodeSubjectMustNotBeNode(t *testing.T) {
	subject := NewLeaf(dcbor.Text("s"))
	a := Assertion{Predicate: NewLeaf(dcbor.Text("p")), Object: NewLeaf(dcbor.Int(1))}
	node, err := NewNode(subject, a)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	if _, err := NewNode(node, a); err == nil {
		t.Fatalf("expected an error when a Node's subject is itself a Node")
	}
}

func TestNodeSubjectAndAssertionOrder(t *testing.T) {
	subject := NewLeaf(dcbor.Text("root"))
	a1 := Assertion{Predicate: NewLeaf(dcbor.Text("p1")), Object: NewLeaf(dcbor.Int(1))}
	a2 := Assertion{Predicate: NewLeaf(dcbor.Text("p2")), Object: NewLeaf(dcbor.Int(2))}
	node, err := NewNode(subject, a1, a2)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	if node.Subject() != subject {
		t.Fatalf("expected Subject() to return the original subject")
	}
	got := node.Assertions()
	if len(got) != 2 || got[0].Predicate != a1.Predicate || got[1].Predicate != a2.Predicate {
		t.Fatalf("expected assertions to be kept in attachment order, got %+v", got)
	}
}

func TestSubjectOfNonNodeIsIdentity(t *testing.T) {
	leaf := NewLeaf(dcbor.Int(1))
	if leaf.Subject() != leaf {
		t.Fatalf("expected Subject() on a non-Node to return itself")
	}
}

func TestWrappedUnwrap(t *testing.T) {
	inner := NewLeaf(dcbor.Text("content"))
	outer := NewWrapped(inner)
	if outer.Case() != CaseWrapped {
		t.Fatalf("expected CaseWrapped, got %v", outer.Case())
	}
	got, ok := outer.Unwrap()
	if !ok || got != inner {
		t.Fatalf("expected Unwrap() to return the original content")
	}
	if _, ok := inner.Unwrap(); ok {
		t.Fatalf("expected Unwrap() on a non-Wrapped envelope to fail")
	}
}

func TestObscuredKind(t *testing.T) {
	var d Digest
	e := NewObscured(ObscuredEncrypted, d)
	kind, ok := e.Obscured()
	if !ok || kind != ObscuredEncrypted {
		t.Fatalf("expected (encrypted, true), got (%v, %v)", kind, ok)
	}
	if e.Digest() != d {
		t.Fatalf("expected an obscured envelope's digest to be the one supplied")
	}
}

func TestAssertionEnvelopeDigestDependsOnParts(t *testing.T) {
	p := NewLeaf(dcbor.Text("p"))
	o1 := NewLeaf(dcbor.Int(1))
	o2 := NewLeaf(dcbor.Int(2))
	a1 := NewAssertion(p, o1)
	a2 := NewAssertion(p, o2)
	if a1.Digest() == a2.Digest() {
		t.Fatalf("expected assertions with different objects to have different digests")
	}
}

func TestDigestDeterministic(t *testing.T) {
	e1 := NewLeaf(dcbor.Text("same"))
	e2 := NewLeaf(dcbor.Text("same"))
	if e1.Digest() != e2.Digest() {
		t.Fatalf("expected equal leaves to have equal digests")
	}
}

func TestHexPrefix(t *testing.T) {
	e := NewLeaf(dcbor.Int(1))
	d := e.Digest()
	full := d.String()
	if got := d.HexPrefix(8); got != full[:8] {
		t.Fatalf("expected an 8-char prefix, got %q", got)
	}
	if got := d.HexPrefix(1000); got != full {
		t.Fatalf("expected HexPrefix to clamp to the full digest length")
	}
}

func TestCaseStringers(t *testing.T) {
	cases := map[Case]string{
		CaseLeaf:       "leaf",
		CaseKnownValue: "knownValue",
		CaseAssertion:  "assertion",
		CaseNode:       "node",
		CaseWrapped:    "wrapped",
		CaseObscured:   "obscured",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Errorf("Case(%d).String() = %q, want %q", c, got, want)
		}
	}
}
