package pattern

import (
	"testing"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"
	"github.com/BlockchainCommons/bc-envelope-pattern-go/envelope"
)

// buildNameNode mirrors spec §8 scenario S3/S4/S5: a Node whose subject is
// "root" with two assertions (name, "Alice") and (name, "Bob").
func buildNameNode(t *testing.T) *envelope.Envelope {
	t.Helper()
	subject := envelope.NewLeaf(dcbor.Text("root"))
	a1 := envelope.Assertion{
		Predicate: envelope.NewLeaf(dcbor.Text("name")),
		Object:    envelope.NewLeaf(dcbor.Text("Alice")),
	}
	a2 := envelope.Assertion{
		Predicate: envelope.NewLeaf(dcbor.Text("name")),
		Object:    envelope.NewLeaf(dcbor.Text("Bob")),
	}
	node, err := envelope.NewNode(subject, a1, a2)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	return node
}

// S1: pattern `bool`, envelope leaf `true` -> one path [true].
func TestScenarioS1BoolLeaf(t *testing.T) {
	env := envelope.NewLeaf(dcbor.Bool(true))
	paths, _, err := Match("bool", env)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(paths) != 1 || len(paths[0]) != 1 {
		t.Fatalf("expected one single-step path, got %v", paths)
	}
}

// S2: pattern `number(>= 10)`.
func TestScenarioS2NumberComparison(t *testing.T) {
	pat, err := Parse("number(>= 10)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	hit := envelope.NewLeaf(dcbor.Int(42))
	if ok, err := pat.Matches(hit); err != nil || !ok {
		t.Fatalf("expected match for 42, ok=%v err=%v", ok, err)
	}
	miss := envelope.NewLeaf(dcbor.Int(5))
	if ok, err := pat.Matches(miss); err != nil || ok {
		t.Fatalf("expected no match for 5, ok=%v err=%v", ok, err)
	}
}

// S3: pattern `search("Alice")` with a bare string literal (no enclosing
// `text(...)`) finds the one matching object. See DESIGN.md's Open Question
// decision on search's traversal order for why the resulting path length is
// 2 here rather than the 4 the spec's prose describes.
func TestScenarioS3SearchBareLiteral(t *testing.T) {
	env := buildNameNode(t)
	pat, err := Parse(`search("Alice")`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	paths, err := pat.Paths(env)
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected exactly one search hit, got %d: %v", len(paths), paths)
	}
	tail := paths[0].Tail()
	v, ok := tail.LeafValue()
	if !ok || v.Text != "Alice" {
		t.Fatalf("expected the search hit to terminate at \"Alice\", got %v", tail)
	}
}

// S4: pattern `assertpred("name") -> obj` yields two paths, each length 3.
func TestScenarioS4AssertpredTraversal(t *testing.T) {
	env := buildNameNode(t)
	pat, err := Parse(`assertpred(text("name")) -> obj`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	paths, err := pat.Paths(env)
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected two paths, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		if len(p) != 3 {
			t.Fatalf("expected length-3 path, got %d", len(p))
		}
	}
}

// S5: pattern `@who(obj(text))` captures both objects.
func TestScenarioS5Capture(t *testing.T) {
	env := buildNameNode(t)
	pat, err := Parse(`@who(obj(text))`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	paths, caps, err := pat.PathsWithCaptures(env)
	if err != nil {
		t.Fatalf("PathsWithCaptures: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected two top-level paths, got %d", len(paths))
	}
	who := caps["who"]
	if len(who) != 2 {
		t.Fatalf("expected two captures for who, got %d", len(who))
	}
	for _, p := range who {
		if len(p) != 1 {
			t.Fatalf("expected single-element capture tail, got %d", len(p))
		}
	}
}

// subj(p)/pred(p) are the filtered Structure forms: extend only when the
// projected piece itself satisfies the sub-pattern.
func TestFilteredSubjPredAtoms(t *testing.T) {
	env := buildNameNode(t)

	subjPat, err := Parse(`subj(text("root"))`)
	if err != nil {
		t.Fatalf("Parse subj: %v", err)
	}
	subjPaths, err := subjPat.Paths(env)
	if err != nil {
		t.Fatalf("Paths subj: %v", err)
	}
	if len(subjPaths) != 1 || len(subjPaths[0]) != 2 {
		t.Fatalf("expected one length-2 path for subj(text(\"root\")), got %v", subjPaths)
	}

	predPat, err := Parse(`pred(text("name"))`)
	if err != nil {
		t.Fatalf("Parse pred: %v", err)
	}
	predPaths, err := predPat.Paths(env)
	if err != nil {
		t.Fatalf("Paths pred: %v", err)
	}
	if len(predPaths) != 2 {
		t.Fatalf("expected two matching predicates, got %d: %v", len(predPaths), predPaths)
	}

	// subj(number) never matches a text subject.
	noMatch, err := Parse(`subj(number)`)
	if err != nil {
		t.Fatalf("Parse subj(number): %v", err)
	}
	if paths, err := noMatch.Paths(env); err != nil || len(paths) != 0 {
		t.Fatalf("expected no matches for subj(number), got %v err=%v", paths, err)
	}
}

// S6: pattern `cbor(/@n(number)/)` on leaf 42 lifts a CBOR-internal hop.
func TestScenarioS6CBORLift(t *testing.T) {
	env := envelope.NewLeaf(dcbor.Int(42))
	pat, err := Parse(`cbor(/@n(number)/)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	paths, caps, err := pat.PathsWithCaptures(env)
	if err != nil {
		t.Fatalf("PathsWithCaptures: %v", err)
	}
	if len(paths) != 1 || len(paths[0]) != 2 {
		t.Fatalf("expected one two-step path, got %v", paths)
	}
	if len(caps["n"]) != 1 || len(caps["n"][0]) != 2 {
		t.Fatalf("expected a two-step capture for n, got %v", caps["n"])
	}
}

// S7: bare `[42, (*)*]` array shorthand.
func TestScenarioS7BareArrayShorthand(t *testing.T) {
	pat, err := Parse(`[42, (*)*]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok := envelope.NewLeaf(dcbor.Array(dcbor.Int(42), dcbor.Int(1), dcbor.Int(2)))
	if matched, err := pat.Matches(ok); err != nil || !matched {
		t.Fatalf("expected match, matched=%v err=%v", matched, err)
	}
	bad := envelope.NewLeaf(dcbor.Array(dcbor.Int(1), dcbor.Int(42)))
	if matched, err := pat.Matches(bad); err != nil || matched {
		t.Fatalf("expected no match, matched=%v err=%v", matched, err)
	}
}

// Property 2: `*` matches every envelope, unextended.
func TestPropertyAnySubsumption(t *testing.T) {
	env := envelope.NewLeaf(dcbor.Text("anything"))
	paths, err := mustParse(t, "*").Paths(env)
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(paths) != 1 || len(paths[0]) != 1 || paths[0][0] != env {
		t.Fatalf("expected [[env]], got %v", paths)
	}
}

// Property 3: negation duality; captures never escape a negation.
func TestPropertyNegationDuality(t *testing.T) {
	env := envelope.NewLeaf(dcbor.Bool(true))

	notBool, err := Parse("!bool")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	paths, err := notBool.Paths(env)
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no paths for !bool on true, got %v", paths)
	}

	notText, err := Parse("!text")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	paths, err = notText.Paths(env)
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected one path for !text on true, got %v", paths)
	}

	withCapture, err := Parse(`!(@x(bool))`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, caps, err := withCapture.PathsWithCaptures(env)
	if err != nil {
		t.Fatalf("PathsWithCaptures: %v", err)
	}
	if len(caps) != 0 {
		t.Fatalf("expected no captures escaping a negation, got %v", caps)
	}
}

// Property 5: repeat bounds restrict the extension count.
func TestPropertyRepeatBounds(t *testing.T) {
	arr := envelope.NewLeaf(dcbor.Array(dcbor.Int(1), dcbor.Int(2), dcbor.Int(3)))
	exact := mustParse(t, `[(number){3}]`)
	if ok, err := exact.Matches(arr); err != nil || !ok {
		t.Fatalf("expected [(number){3}] to match 3-element array: ok=%v err=%v", ok, err)
	}
	tooFew := mustParse(t, `[(number){4}]`)
	if ok, err := tooFew.Matches(arr); err != nil || ok {
		t.Fatalf("expected [(number){4}] not to match 3-element array: ok=%v err=%v", ok, err)
	}
}

// Property 1: determinism across repeated calls.
func TestPropertyDeterminism(t *testing.T) {
	env := buildNameNode(t)
	pat := mustParse(t, `assertpred(text("name")) -> obj`)
	p1, c1, err := pat.PathsWithCaptures(env)
	if err != nil {
		t.Fatalf("PathsWithCaptures: %v", err)
	}
	p2, c2, err := pat.PathsWithCaptures(env)
	if err != nil {
		t.Fatalf("PathsWithCaptures: %v", err)
	}
	if len(p1) != len(p2) {
		t.Fatalf("non-deterministic path counts: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		if len(p1[i]) != len(p2[i]) {
			t.Fatalf("non-deterministic path length at %d", i)
		}
		for j := range p1[i] {
			if p1[i][j].Digest() != p2[i][j].Digest() {
				t.Fatalf("non-deterministic path content at %d/%d", i, j)
			}
		}
	}
	if len(c1) != len(c2) {
		t.Fatalf("non-deterministic capture count")
	}
}

func TestMatchesBoolean(t *testing.T) {
	pat := mustParse(t, "text")
	env := envelope.NewLeaf(dcbor.Text("hi"))
	ok, err := pat.Matches(env)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
}

func TestPatternString(t *testing.T) {
	pat := mustParse(t, "bool")
	if pat.String() != "bool" {
		t.Fatalf("expected String() to echo source, got %q", pat.String())
	}
}

func mustParse(t *testing.T, src string) *Pattern {
	t.Helper()
	p, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return p
}
