package dcborpattern

import "github.com/BlockchainCommons/bc-envelope-pattern-go/dcbor"

// ElementSpec is one element-pattern plus its repeat range inside an array
// pattern, e.g. `(*)*` in spec.md's S7 example is ElementSpec{Any(), 0, -1}.
type ElementSpec struct {
	Pattern Pattern
	Min     int
	Max     int // -1 means unbounded
}

type arrayPattern struct {
	elements []ElementSpec
}

// NewArray builds an array pattern matching a sequence of element specs in
// order, Thompson-style: each spec may repeat within [Min, Max] before the
// next spec is tried, mirroring the greedy quantifier semantics spec.md
// §4.4 defines for the envelope-level repeat operator.
func NewArray(elements []ElementSpec) Pattern {
	return arrayPattern{elements: elements}
}

func (p arrayPattern) matchValue(v dcbor.Value) []Match {
	if v.Kind != dcbor.KindArray {
		return nil
	}
	results := matchArraySeq(p.elements, 0, v.Array, 0)
	out := make([]Match, 0, len(results))
	for _, r := range results {
		if r.vi != len(v.Array) {
			continue
		}
		out = append(out, Match{Path: Path{v}, Captures: r.caps})
	}
	return out
}
func (p arrayPattern) String() string { return "array(...)" }

type seqState struct {
	vi   int
	caps Captures
}

// matchArraySeq greedily tries to consume as many elements as each spec's
// Max allows before moving to the next spec, backtracking to fewer
// repetitions when the remainder of the sequence cannot otherwise match.
func matchArraySeq(elements []ElementSpec, ei int, vals []dcbor.Value, vi int) []seqState {
	if ei == len(elements) {
		return []seqState{{vi: vi, caps: nil}}
	}
	spec := elements[ei]

	// Gather how many consecutive matches are possible from vi, up to Max.
	var matchedCaps []Captures
	cur := vi
	for spec.Max < 0 || len(matchedCaps) < spec.Max {
		if cur >= len(vals) {
			break
		}
		ms := spec.Pattern.matchValue(vals[cur])
		if len(ms) == 0 {
			break
		}
		matchedCaps = append(matchedCaps, ms[0].Captures)
		cur++
	}
	maxReps := len(matchedCaps)
	if maxReps < spec.Min {
		return nil
	}

	var out []seqState
	for reps := maxReps; reps >= spec.Min; reps-- {
		var caps Captures
		for i := 0; i < reps; i++ {
			caps = mergeCaptures(caps, matchedCaps[i])
		}
		rest := matchArraySeq(elements, ei+1, vals, vi+reps)
		for _, r := range rest {
			out = append(out, seqState{vi: r.vi, caps: mergeCaptures(cloneCaptures(caps), r.caps)})
		}
	}
	return out
}

func cloneCaptures(c Captures) Captures {
	if c == nil {
		return nil
	}
	out := make(Captures, len(c))
	for k, v := range c {
		out[k] = append([]Path(nil), v...)
	}
	return out
}
