package dcborpattern

import "github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"

// KVSpec is one key-pattern/value-pattern requirement of a map pattern.
type KVSpec struct {
	Key   Pattern
	Value Pattern
}

type mapPattern struct {
	min, max int // pair-count range, max -1 unbounded
	entries  []KVSpec
}

// NewMap builds a map pattern. When entries is empty, only the pair-count
// range constrains the match (the `map({n,m})` quantifier form of spec.md
// §3); otherwise every KVSpec must be satisfied by some distinct pair in
// the map, backtracking over which pair each spec claims (assignEntries
// below) so an earlier, more permissive spec can't starve a later, more
// restrictive one of the only entry it could use.
func NewMap(min, max int, entries []KVSpec) Pattern {
	return mapPattern{min: min, max: max, entries: entries}
}

func (p mapPattern) matchValue(v dcbor.Value) []Match {
	if v.Kind != dcbor.KindMap {
		return nil
	}
	n := len(v.Map)
	if n < p.min || (p.max >= 0 && n > p.max) {
		return nil
	}
	if len(p.entries) == 0 {
		return []Match{{Path: Path{v}}}
	}

	used := make([]bool, n)
	caps, ok := assignEntries(p.entries, 0, v.Map, used)
	if !ok {
		return nil
	}
	return []Match{{Path: Path{v}, Captures: caps}}
}
func (p mapPattern) String() string { return "map(...)" }

// assignEntries backtracks over which unused map entry satisfies each
// KVSpec in turn, undoing a tentative assignment and trying the next
// candidate entry whenever it leaves a later spec with no match — the map
// counterpart of matchArraySeq's backtracking (array.go) over repetition
// counts, needed for the same reason: a greedy first-fit choice for one
// spec can claim the only entry a different spec could have used.
func assignEntries(specs []KVSpec, si int, entries []dcbor.MapEntry, used []bool) (Captures, bool) {
	if si == len(specs) {
		return nil, true
	}
	spec := specs[si]
	for i, entry := range entries {
		if used[i] {
			continue
		}
		km := spec.Key.matchValue(entry.Key)
		if len(km) == 0 {
			continue
		}
		vm := spec.Value.matchValue(entry.Value)
		if len(vm) == 0 {
			continue
		}
		used[i] = true
		rest, ok := assignEntries(specs, si+1, entries, used)
		if ok {
			caps := mergeCaptures(cloneCaptures(km[0].Captures), vm[0].Captures)
			caps = mergeCaptures(caps, rest)
			return caps, true
		}
		used[i] = false
	}
	return nil, false
}
