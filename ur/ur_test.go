package ur

import "testing"

func TestParseValidUR(t *testing.T) {
	u, err := Parse("ur:envelope/abcd1234")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Type != "envelope" || u.Payload != "abcd1234" {
		t.Fatalf("expected type=envelope payload=abcd1234, got %+v", u)
	}
	if u.String() != "ur:envelope/abcd1234" {
		t.Fatalf("expected String() to round-trip, got %q", u.String())
	}
}

func TestParseRejectsMissingScheme(t *testing.T) {
	if _, err := Parse("envelope/abcd1234"); err == nil {
		t.Fatalf("expected an error for a missing ur: scheme")
	}
}

func TestParseRejectsMissingSeparator(t *testing.T) {
	if _, err := Parse("ur:envelope"); err == nil {
		t.Fatalf("expected an error for a missing type/payload separator")
	}
}

func TestParseRejectsEmptyParts(t *testing.T) {
	if _, err := Parse("ur:/abcd"); err == nil {
		t.Fatalf("expected an error for an empty type")
	}
	if _, err := Parse("ur:envelope/"); err == nil {
		t.Fatalf("expected an error for an empty payload")
	}
}

func TestEncodeDecodeHexPayloadRoundTrip(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	u := EncodeHexPayload("envelope", data)
	got, err := u.DecodeHexPayload()
	if err != nil {
		t.Fatalf("DecodeHexPayload: %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("expected %d bytes, got %d", len(data), len(got))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d mismatch: want %x, got %x", i, data[i], got[i])
		}
	}
}
