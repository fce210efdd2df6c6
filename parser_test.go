package pattern

import "testing"

func TestParserAcceptsGrammar(t *testing.T) {
	valid := []string{
		"*",
		"bool",
		"bool(true)",
		"null",
		`number(>= 10)`,
		`text("Alice")`,
		`text(/^A/)`,
		"leaf",
		"assert",
		`assertpred(text("name"))`,
		`assertobj(text("Alice"))`,
		"node",
		"node(2)",
		"node(1,3)",
		"node(1,)",
		"subj",
		`subj(text)`,
		"pred",
		`pred(text("name"))`,
		"obj",
		`obj(text)`,
		"wrapped",
		"unwrap",
		"digest(h'deadbeef')",
		"obscured",
		"obscured(any)",
		"elided",
		"encrypted",
		"compressed",
		"!bool",
		"bool & leaf",
		"bool | null",
		"subj -> obj",
		"bool*",
		"bool+",
		"bool?",
		"bool{2}",
		"bool{2,4}",
		"bool{2,}",
		"bool*?",
		"bool*+",
		"@x(bool)",
		"search(bool)",
		"(bool | null)",
		"[42, (*)*]",
	}
	for _, src := range valid {
		if _, err := Parse(src); err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", src, err)
		}
	}
}

func TestParserRejectsMalformed(t *testing.T) {
	invalid := []string{
		"",
		"&",
		"bool &",
		"(bool",
		"bool)",
		"unknownkeyword",
		"node(3,1)",
		"bool{4,1}",
		`digest(h'zz')`,
	}
	for _, src := range invalid {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q): expected an error, got none", src)
		}
	}
}

func TestParserPrecedence(t *testing.T) {
	// '&' binds tighter than '|': "bool & leaf | null" should parse as
	// "(bool & leaf) | null", not "bool & (leaf | null)".
	n, err := parsePattern("bool & leaf | null")
	if err != nil {
		t.Fatalf("parsePattern: %v", err)
	}
	or, ok := n.(orNode)
	if !ok {
		t.Fatalf("expected top-level orNode, got %T", n)
	}
	if len(or.subs) != 2 {
		t.Fatalf("expected 2 or-branches, got %d", len(or.subs))
	}
	if _, ok := or.subs[0].(andNode); !ok {
		t.Fatalf("expected first or-branch to be an andNode, got %T", or.subs[0])
	}
}

func TestParserDuplicateCaptureIsCompileError(t *testing.T) {
	_, err := Parse("@x(bool) & @x(null)")
	if err == nil {
		t.Fatalf("expected a duplicate-capture compile error")
	}
}

func TestParserEmbeddedCBORArrayFragment(t *testing.T) {
	_, err := Parse("array([42, (*)*])")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestParserEmbeddedCBORTaggedFragment(t *testing.T) {
	_, err := Parse("tagged(1, number)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
}
