package pattern

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	lex := newLexer(`bool -> ! & | * ? + { } ( ) , @cap`)
	var kinds []tokenKind
	for {
		tok, err := lex.next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if tok.kind == tokEOF {
			break
		}
		kinds = append(kinds, tok.kind)
	}
	if len(kinds) == 0 {
		t.Fatalf("expected tokens, got none")
	}
}

func TestLexerCaptureName(t *testing.T) {
	lex := newLexer("@who(obj)")
	tok, err := lex.next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if tok.kind != tokCaptureName || tok.text != "who" {
		t.Fatalf("expected capture name 'who', got %+v", tok)
	}
}

func TestLexerHexString(t *testing.T) {
	lex := newLexer(`h'deadbeef'`)
	tok, err := lex.next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if tok.kind != tokHexString || tok.text != "deadbeef" {
		t.Fatalf("expected hex string token, got %+v", tok)
	}
}

func TestLexerNumberLiterals(t *testing.T) {
	cases := []struct {
		src  string
		kind tokenKind
	}{
		{"42", tokInt},
		{"-7", tokInt},
		{"3.14", tokFloat},
		{"1e10", tokFloat},
	}
	for _, c := range cases {
		lex := newLexer(c.src)
		tok, err := lex.next()
		if err != nil {
			t.Fatalf("next(%q): %v", c.src, err)
		}
		if tok.kind != c.kind {
			t.Fatalf("next(%q): expected kind %v, got %v", c.src, c.kind, tok.kind)
		}
	}
}

func TestLexerUnterminatedLiteral(t *testing.T) {
	lex := newLexer(`"unterminated`)
	if _, err := lex.next(); err == nil {
		t.Fatalf("expected an error for an unterminated string literal")
	}
}

func TestLexerRegexLiteral(t *testing.T) {
	lex := newLexer(`/^A.*/`)
	tok, err := lex.next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if tok.kind != tokRegex || tok.text != "^A.*" {
		t.Fatalf("expected regex token '^A.*', got %+v", tok)
	}
}

func TestLexerThreeCharPunct(t *testing.T) {
	lex := newLexer("...")
	tok, err := lex.next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if tok.kind != tokPunct || tok.text != "..." {
		t.Fatalf("expected '...' punct token, got %+v", tok)
	}
}
