package pattern

import "github.com/BlockchainCommons/bc-envelope-pattern-go/envelope"

// Path is an ordered sequence of envelopes from the root supplied to the
// matcher down to a matched sub-envelope (spec §3). Paths are values: callers
// may freely hold onto a Path returned from this package without fear of it
// mutating underneath them, since every extension allocates a new backing
// array rather than writing through a shared one.
type Path []*envelope.Envelope

// Tail returns the last envelope in the path, or nil for an empty path.
func (p Path) Tail() *envelope.Envelope {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// extend returns a new path with e appended, never aliasing p's backing
// array with the result (so two extensions of the same path never clobber
// each other).
func (p Path) extend(e *envelope.Envelope) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = e
	return out
}

// clone returns an independent copy of p.
func (p Path) clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Captures maps a capture name to the ordered list of sub-paths pinned by
// `@name(...)` during one match call (spec §3, "Capture map").
type Captures map[string][]Path

func mergeCaptures(dst, src Captures) Captures {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = Captures{}
	}
	for name, paths := range src {
		dst[name] = append(dst[name], paths...)
	}
	return dst
}
