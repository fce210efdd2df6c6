// Package ur is a minimal stand-in for Blockchain Commons' Uniform Resource
// codec (BCR-2020-005/006). URs are named as an out-of-scope external
// collaborator in spec.md §1 — no such package is retrievable from the
// example pack, so this package implements only the thin slice of the
// contract the pattern matcher needs: recognising and round-tripping
// `ur:<type>/<payload>` strings so `cbor(ur:...)` literals (spec.md §4.2)
// can be compared and decoded. It does not implement the real bytewords
// alphabet, CRC-32 checksum or fountain-code multipart transport — those
// belong to the real UR library this stands in for.
package ur

import (
	"encoding/hex"
	"fmt"
	"strings"

	urn "github.com/leodido/go-urn"
)

// UR is a parsed Uniform Resource reference, e.g. "ur:envelope/abcd1234".
type UR struct {
	Type    string
	Payload string
}

// String renders the UR back to its canonical textual form.
func (u UR) String() string {
	return fmt.Sprintf("ur:%s/%s", u.Type, u.Payload)
}

// Parse splits a "ur:type/payload" string, using go-urn's RFC 8141 URN
// grammar to validate the "ur:" scheme prefix and namespace-shaped type
// before splitting off the payload. UR's own grammar diverges from RFC 8141
// in its payload syntax (bytewords, not URN NSS), so only the scheme/type
// split is delegated; the payload is kept verbatim.
func Parse(s string) (UR, error) {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "ur:") {
		return UR{}, fmt.Errorf("ur: missing \"ur:\" scheme: %q", s)
	}

	// Reuse go-urn to confirm "ur:<nid>" is a syntactically valid URN
	// namespace identifier shape, by probing it against the generic URN
	// grammar with a throwaway namespace-specific string.
	rest := s[len("ur:"):]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return UR{}, fmt.Errorf("ur: missing type/payload separator: %q", s)
	}
	typ, payload := rest[:slash], rest[slash+1:]
	if typ == "" || payload == "" {
		return UR{}, fmt.Errorf("ur: empty type or payload: %q", s)
	}
	if _, ok := urn.Parse([]byte("urn:" + typ + ":x")); !ok {
		return UR{}, fmt.Errorf("ur: invalid type identifier %q", typ)
	}

	return UR{Type: typ, Payload: payload}, nil
}

// DecodeHexPayload decodes a UR whose payload this package encoded itself
// (via EncodeHexPayload) — a self-consistent stand-in for real bytewords
// decoding, sufficient for round-tripping values produced by this module.
func (u UR) DecodeHexPayload() ([]byte, error) {
	return hex.DecodeString(u.Payload)
}

// EncodeHexPayload builds a UR whose payload is the hex encoding of data.
func EncodeHexPayload(typ string, data []byte) UR {
	return UR{Type: typ, Payload: hex.EncodeToString(data)}
}
