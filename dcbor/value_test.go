package dcbor

import "testing"

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	cases := []Value{
		Null(),
		Bool(true),
		Bool(false),
		Int(-7),
		Uint(42),
		Float(3.5),
		Text("hello"),
		Bytes([]byte{1, 2, 3}),
		Array(Int(1), Text("x"), Bool(true)),
		Map(MapEntry{Key: Text("a"), Value: Int(1)}, MapEntry{Key: Text("b"), Value: Int(2)}),
		Tagged(100, Text("tagged")),
	}
	for _, v := range cases {
		enc, err := Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", v, err)
		}
		got, err := Unmarshal(enc)
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if !Equal(v, got) {
			t.Errorf("round-trip mismatch: original %v, got %v", v.Diagnostic(), got.Diagnostic())
		}
	}
}

func TestMapDeterministicOrdering(t *testing.T) {
	m1 := Map(MapEntry{Key: Text("z"), Value: Int(1)}, MapEntry{Key: Text("a"), Value: Int(2)})
	m2 := Map(MapEntry{Key: Text("a"), Value: Int(2)}, MapEntry{Key: Text("z"), Value: Int(1)})
	e1, err := Marshal(m1)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	e2, err := Marshal(m2)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(e1) != string(e2) {
		t.Fatalf("expected maps built in different key order to encode identically")
	}
}

func TestEqualDistinguishesDifferentValues(t *testing.T) {
	if Equal(Int(1), Int(2)) {
		t.Fatalf("expected Int(1) != Int(2)")
	}
	if !Equal(Int(1), Int(1)) {
		t.Fatalf("expected Int(1) == Int(1)")
	}
}

func TestDiagnosticRendering(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Null(), "null"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(42), "42"},
		{Text("hi"), `"hi"`},
		{Array(Int(1), Int(2)), "[1, 2]"},
	}
	for _, c := range cases {
		if got := c.v.Diagnostic(); got != c.want {
			t.Errorf("Diagnostic() = %q, want %q", got, c.want)
		}
	}
}
