// Package dcbor is a small deterministic-CBOR value model used by the
// envelope and CBOR-pattern packages. Encoding determinism itself is
// delegated to github.com/ldclabs/cbor (an RFC 8949 §4.2-conformant
// implementation) — this package only supplies the tagged-union value shape
// that the rest of the matcher reasons about, plus a thin Marshal/Unmarshal
// wrapper around the underlying codec.
package dcbor

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"time"

	ldcbor "github.com/ldclabs/cbor"
)

// Kind distinguishes the dCBOR value shapes this package represents.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindBytes
	KindArray
	KindMap
	KindTag
	KindDate
)

// MapEntry is a single key/value pair of a dCBOR map. Map keeps entries in
// length-first order of their encoded keys (shorter encodings first, equal
// lengths compared bytewise), the ordering of RFC 8949 §4.2.3.
type MapEntry struct {
	Key   Value
	Value Value
}

// Value is a closed sum type over the dCBOR value shapes this matcher needs:
// null, bool, arbitrary-precision integer, float64, text, byte string,
// array, map, tagged value and (as a convenience projection over tag 1)
// date/time.
type Value struct {
	Kind Kind

	Bool  bool
	Int   *big.Int
	Float float64
	Text  string
	Bytes []byte
	Array []Value
	Map   []MapEntry

	TagNumber uint64
	TagValue  *Value

	Time time.Time
}

// Null is the CBOR null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int wraps a signed integer.
func Int(n int64) Value { return Value{Kind: KindInt, Int: big.NewInt(n)} }

// Uint wraps an unsigned integer.
func Uint(n uint64) Value { return Value{Kind: KindInt, Int: new(big.Int).SetUint64(n)} }

// BigInt wraps an arbitrary-precision integer.
func BigInt(n *big.Int) Value { return Value{Kind: KindInt, Int: n} }

// Float wraps a float64.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Text wraps a UTF-8 string.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Bytes wraps a byte string.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// Array wraps a sequence of values.
func Array(vs ...Value) Value { return Value{Kind: KindArray, Array: vs} }

// Map wraps key/value pairs, sorting them into deterministic order.
func Map(entries ...MapEntry) Value {
	sorted := append([]MapEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return mapKeyLess(sorted[i].Key, sorted[j].Key)
	})
	return Value{Kind: KindMap, Map: sorted}
}

// Tagged wraps a tag number and its content.
func Tagged(tag uint64, content Value) Value {
	v := content
	return Value{Kind: KindTag, TagNumber: tag, TagValue: &v}
}

// Date wraps a point in time as dCBOR tag 1 (epoch-based date/time).
func Date(t time.Time) Value {
	return Value{Kind: KindDate, Time: t}
}

func mapKeyLess(a, b Value) bool {
	ae, _ := Marshal(a)
	be, _ := Marshal(b)
	if len(ae) != len(be) {
		return len(ae) < len(be)
	}
	for i := range ae {
		if ae[i] != be[i] {
			return ae[i] < be[i]
		}
	}
	return false
}

// Marshal encodes a Value as deterministic CBOR using the underlying
// ldclabs/cbor codec.
func Marshal(v Value) ([]byte, error) {
	return ldcbor.Marshal(toNative(v))
}

// Unmarshal decodes deterministic CBOR bytes into a Value.
func Unmarshal(data []byte) (Value, error) {
	var native interface{}
	if err := ldcbor.Unmarshal(data, &native); err != nil {
		return Value{}, err
	}
	return fromNative(native), nil
}

func toNative(v Value) interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		if v.Int.IsInt64() {
			return v.Int.Int64()
		}
		return v.Int
	case KindFloat:
		return v.Float
	case KindText:
		return v.Text
	case KindBytes:
		return v.Bytes
	case KindArray:
		out := make([]interface{}, len(v.Array))
		for i, e := range v.Array {
			out[i] = toNative(e)
		}
		return out
	case KindMap:
		out := make(map[interface{}]interface{}, len(v.Map))
		for _, e := range v.Map {
			out[toNative(e.Key)] = toNative(e.Value)
		}
		return out
	case KindTag:
		return ldcbor.RawTag{Number: v.TagNumber, Content: toNative(*v.TagValue)}
	case KindDate:
		return ldcbor.RawTag{Number: 1, Content: float64(v.Time.UnixNano()) / 1e9}
	default:
		return nil
	}
}

func fromNative(n interface{}) Value {
	switch x := n.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case int64:
		return Int(x)
	case uint64:
		return Uint(x)
	case float64:
		return Float(x)
	case string:
		return Text(x)
	case []byte:
		return Bytes(x)
	case []interface{}:
		vs := make([]Value, len(x))
		for i, e := range x {
			vs[i] = fromNative(e)
		}
		return Array(vs...)
	case map[interface{}]interface{}:
		entries := make([]MapEntry, 0, len(x))
		for k, v := range x {
			entries = append(entries, MapEntry{Key: fromNative(k), Value: fromNative(v)})
		}
		return Map(entries...)
	case ldcbor.RawTag:
		if x.Number == 1 {
			if f, ok := x.Content.(float64); ok {
				return Date(time.Unix(0, int64(f*1e9)).UTC())
			}
		}
		content := fromNative(x.Content)
		return Tagged(x.Number, content)
	default:
		return Value{Kind: KindNull}
	}
}

// Diagnostic renders the value in a compact diagnostic-notation-like form,
// used for the canonical envelope path text (spec.md §6). This is not a
// general dCBOR diagnostic-notation printer (out of scope, spec.md §1) —
// just enough rendering for leaf envelopes to print legibly in paths.
func (v Value) Diagnostic() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return v.Int.String()
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.Text)
	case KindBytes:
		return fmt.Sprintf("h'%x'", v.Bytes)
	case KindArray:
		out := "["
		for i, e := range v.Array {
			if i > 0 {
				out += ", "
			}
			out += e.Diagnostic()
		}
		return out + "]"
	case KindMap:
		out := "{"
		for i, e := range v.Map {
			if i > 0 {
				out += ", "
			}
			out += e.Key.Diagnostic() + ": " + e.Value.Diagnostic()
		}
		return out + "}"
	case KindTag:
		return fmt.Sprintf("%d(%s)", v.TagNumber, v.TagValue.Diagnostic())
	case KindDate:
		return v.Time.Format(time.RFC3339)
	default:
		return "?"
	}
}

// Equal reports deep, kind-aware equality, ignoring map ordering concerns
// since Map already keeps entries deterministically ordered.
func Equal(a, b Value) bool {
	ea, erra := Marshal(a)
	eb, errb := Marshal(b)
	if erra != nil || errb != nil {
		return false
	}
	if len(ea) != len(eb) {
		return false
	}
	for i := range ea {
		if ea[i] != eb[i] {
			return false
		}
	}
	return true
}
