package dcborpattern

import (
	"testing"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"
)

func TestBoolMatches(t *testing.T) {
	pat, err := ParsePattern("bool")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	paths, _ := Match(pat, dcbor.Bool(true))
	if len(paths) != 1 {
		t.Fatalf("expected one path, got %d", len(paths))
	}
}

func TestNumberComparison(t *testing.T) {
	pat, err := ParsePattern("number(>= 10)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if paths, _ := Match(pat, dcbor.Int(42)); len(paths) != 1 {
		t.Fatalf("expected match for 42, got %d paths", len(paths))
	}
	if paths, _ := Match(pat, dcbor.Int(5)); len(paths) != 0 {
		t.Fatalf("expected no match for 5, got %d paths", len(paths))
	}
}

func TestCaptureNumber(t *testing.T) {
	pat, err := ParsePattern("@n(number)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	paths, caps := Match(pat, dcbor.Int(42))
	if len(paths) != 1 {
		t.Fatalf("expected one path, got %d", len(paths))
	}
	if len(caps["n"]) != 1 {
		t.Fatalf("expected one capture for n, got %d", len(caps["n"]))
	}
}

func TestArrayWithTrailingAnyRepeat(t *testing.T) {
	pat, err := ParsePattern("[42, (*)*]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ok := dcbor.Array(dcbor.Int(42), dcbor.Int(1), dcbor.Int(2))
	if paths, _ := Match(pat, ok); len(paths) != 1 {
		t.Fatalf("expected match, got %d paths", len(paths))
	}
	bad := dcbor.Array(dcbor.Int(1), dcbor.Int(42))
	if paths, _ := Match(pat, bad); len(paths) != 0 {
		t.Fatalf("expected no match, got %d paths", len(paths))
	}
}

func TestMapAssignmentBacktracks(t *testing.T) {
	pat, err := ParsePattern(`{*: *, text("A"): *}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v := dcbor.Map(
		dcbor.MapEntry{Key: dcbor.Text("A"), Value: dcbor.Int(1)},
		dcbor.MapEntry{Key: dcbor.Text("B"), Value: dcbor.Int(2)},
	)
	// A first-fit assignment lets the `*: *` spec greedily claim A, leaving
	// `text("A"): *` with only B to match against and failing the whole
	// pattern. The only valid assignment gives B to the first spec and A to
	// the second, so this only matches with backtracking.
	if paths, _ := Match(pat, v); len(paths) != 1 {
		t.Fatalf("expected match via backtracking assignment, got %d paths", len(paths))
	}
}

func TestTextRegex(t *testing.T) {
	pat, err := ParsePattern(`text(/^A.*/)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if paths, _ := Match(pat, dcbor.Text("Alice")); len(paths) != 1 {
		t.Fatalf("expected match, got %d", len(paths))
	}
	if paths, _ := Match(pat, dcbor.Text("Bob")); len(paths) != 0 {
		t.Fatalf("expected no match, got %d", len(paths))
	}
}
