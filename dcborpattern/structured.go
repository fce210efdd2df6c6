package dcborpattern

import (
	"time"

	"github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"
	"github.com/BlockchainCommons/bc-envelope-pattern-go/knownvalue"
)

// --- date ------------------------------------------------------------

type datePattern struct {
	mode    string // "any", "exact", "range", "earliest", "latest", "regex"
	exact   time.Time
	lo, hi  time.Time
	regexp  *compiledRegex
}

func DateAny() Pattern                        { return datePattern{mode: "any"} }
func DateExact(t time.Time) Pattern           { return datePattern{mode: "exact", exact: t} }
func DateRange(lo, hi time.Time) Pattern      { return datePattern{mode: "range", lo: lo, hi: hi} }
func DateEarliest(lo time.Time) Pattern       { return datePattern{mode: "earliest", lo: lo} }
func DateLatest(hi time.Time) Pattern         { return datePattern{mode: "latest", hi: hi} }
func DateRegex(r *compiledRegex) Pattern      { return datePattern{mode: "regex", regexp: r} }

func (p datePattern) matchValue(v dcbor.Value) []Match {
	if v.Kind != dcbor.KindDate {
		return nil
	}
	switch p.mode {
	case "any":
		// fallthrough to accept
	case "exact":
		if !v.Time.Equal(p.exact) {
			return nil
		}
	case "range":
		if v.Time.Before(p.lo) || v.Time.After(p.hi) {
			return nil
		}
	case "earliest":
		if v.Time.Before(p.lo) {
			return nil
		}
	case "latest":
		if v.Time.After(p.hi) {
			return nil
		}
	case "regex":
		if p.regexp == nil || !p.regexp.MatchString(v.Time.Format(time.RFC3339)) {
			return nil
		}
	}
	return []Match{{Path: Path{v}}}
}
func (p datePattern) String() string { return "date(" + p.mode + ")" }

// --- known -------------------------------------------------------------

type knownPattern struct {
	mode   string // "any", "value", "name", "regex"
	value  uint64
	name   string
	regexp *compiledRegex
}

func KnownAny() Pattern                  { return knownPattern{mode: "any"} }
func KnownValue(v uint64) Pattern        { return knownPattern{mode: "value", value: v} }
func KnownName(name string) Pattern      { return knownPattern{mode: "name", name: name} }
func KnownRegex(r *compiledRegex) Pattern { return knownPattern{mode: "regex", regexp: r} }

func (p knownPattern) matchValue(v dcbor.Value) []Match {
	if v.Kind != dcbor.KindTag || v.TagNumber != 40000 {
		return nil
	}
	num := v.TagValue
	if num.Kind != dcbor.KindInt {
		return nil
	}
	value := num.Int.Uint64()

	switch p.mode {
	case "any":
		// accept any known value
	case "value":
		if value != p.value {
			return nil
		}
	case "name":
		want, ok := knownvalue.Lookup(p.name)
		if !ok || want != value {
			return nil
		}
	case "regex":
		name, ok := knownvalue.Name(value)
		if !ok || p.regexp == nil || !p.regexp.MatchString(name) {
			return nil
		}
	}
	return []Match{{Path: Path{v}}}
}
func (p knownPattern) String() string { return "known(" + p.mode + ")" }

// --- tagged --------------------------------------------------------------

type taggedPattern struct {
	mode    string // "value", "name", "regex"
	value   uint64
	name    string
	regexp  *compiledRegex
	content Pattern
}

// tagNames is a minimal, process-wide CBOR tag name registry — tag
// registries are named as an out-of-scope external collaborator in
// spec.md §1, so this is deliberately small.
var tagNames = map[string]uint64{
	"date":        0,
	"epoch-date":  1,
	"known-value": 40000,
	"envelope":    200,
}

func TaggedValue(tag uint64, content Pattern) Pattern {
	return taggedPattern{mode: "value", value: tag, content: content}
}
func TaggedName(name string, tag uint64, content Pattern) Pattern {
	return taggedPattern{mode: "name", name: name, content: content}
}
func TaggedRegex(r *compiledRegex, content Pattern) Pattern {
	return taggedPattern{mode: "regex", regexp: r, content: content}
}

func (p taggedPattern) matchValue(v dcbor.Value) []Match {
	if v.Kind != dcbor.KindTag {
		return nil
	}
	switch p.mode {
	case "value":
		if v.TagNumber != p.value {
			return nil
		}
	case "name":
		want, ok := tagNames[p.name]
		if !ok || v.TagNumber != want {
			return nil
		}
	case "regex":
		if p.regexp == nil || !p.regexp.MatchString(tagNumberString(v.TagNumber)) {
			return nil
		}
	}
	inner := p.content.matchValue(*v.TagValue)
	if len(inner) == 0 {
		return nil
	}
	out := make([]Match, 0, len(inner))
	for _, m := range inner {
		out = append(out, Match{Path: append(Path{v}, m.Path...), Captures: m.Captures})
	}
	return out
}
func (p taggedPattern) String() string { return "tagged(...)" }

func tagNumberString(n uint64) string {
	// minimal decimal formatting without pulling in strconv at call sites
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
