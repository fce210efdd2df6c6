package knownvalue

import "testing"

func TestLookupBuiltins(t *testing.T) {
	v, ok := Lookup("isA")
	if !ok || v != IsA {
		t.Fatalf("expected isA -> %d, got %d ok=%v", IsA, v, ok)
	}
}

func TestNameResolvesBack(t *testing.T) {
	name, ok := Name(ID)
	if !ok || name != "id" {
		t.Fatalf("expected %d -> \"id\", got %q ok=%v", ID, name, ok)
	}
}

func TestLookupUnknownName(t *testing.T) {
	if _, ok := Lookup("doesNotExist"); ok {
		t.Fatalf("expected an unregistered name to fail lookup")
	}
}

func TestRegisterAddsBothDirections(t *testing.T) {
	Register("testOnlyValue", 9001)
	v, ok := Lookup("testOnlyValue")
	if !ok || v != 9001 {
		t.Fatalf("expected registered name to resolve, got %d ok=%v", v, ok)
	}
	name, ok := Name(9001)
	if !ok || name != "testOnlyValue" {
		t.Fatalf("expected registered value to resolve back to its name, got %q ok=%v", name, ok)
	}
}
