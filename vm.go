package pattern

// Matcher is a compiled sub-pattern that can be run in isolation against a
// single starting path — the form `and`/`not`/`search`/`assertpred`/
// `assertobj` need to evaluate a nested pattern without threading it through
// the enclosing program's instruction stream (spec §4.4, "nested
// MatchPredicate with a shared snapshot").
type Matcher interface {
	run(path Path) ([]Path, Captures, error)
	String() string
}

// compiledMatcher is the only implementation of Matcher: an independent
// Program plus the source text of the node it was compiled from, kept only
// for diagnostics (String()).
type compiledMatcher struct {
	prog *Program
	repr string
}

func (m *compiledMatcher) run(path Path) ([]Path, Captures, error) {
	return execProgram(m.prog, DefaultConfig(), path)
}
func (m *compiledMatcher) String() string { return m.repr }

// Config bounds the VM's backtracking search (spec §5 "Concurrency &
// Resource Model", §7 ResourceExhausted). Matching is otherwise
// unconditionally safe against runaway patterns: a pathological `repeat`
// over a wide tree stops by raising resourceExhausted rather than running
// forever or exhausting memory.
type Config struct {
	// MaxSteps bounds the number of VM instructions executed for one
	// top-level match call.
	MaxSteps int
	// MaxThreads bounds how many backtracking threads (the fan-out from a
	// MatchPredicate with several successor paths, plus each Split
	// attempt) may be live across the whole search.
	MaxThreads int
}

// DefaultConfig returns the bounds applied when a caller doesn't supply its
// own Config: generous enough for any pattern this package expects to see
// in practice, small enough that a runaway pattern fails fast instead of
// hanging the process.
func DefaultConfig() Config {
	return Config{MaxSteps: 1_000_000, MaxThreads: 100_000}
}

// vmState carries the mutable bookkeeping shared across one execProgram
// call: the step/thread counters the resource bounds are checked against.
type vmState struct {
	cfg     Config
	steps   int
	threads int
}

func (st *vmState) step(pc int, path Path) error {
	st.steps++
	if st.steps > st.cfg.MaxSteps {
		return resourceExhausted(pc, len(path))
	}
	return nil
}

func (st *vmState) spawn(pc int, path Path) error {
	st.threads++
	if st.threads > st.cfg.MaxThreads {
		return resourceExhausted(pc, len(path))
	}
	return nil
}

// execProgram runs prog from instruction 0 against start, the shared entry
// point for both the public Pattern API (api.go) and compiledMatcher.run.
func execProgram(prog *Program, cfg Config, start Path) ([]Path, Captures, error) {
	st := &vmState{cfg: cfg}
	slots := make([]Path, len(prog.slotNames))
	if err := st.spawn(0, start); err != nil {
		return nil, nil, err
	}
	paths, caps, _, err := exec(prog, st, 0, start, slots, nil)
	return paths, caps, err
}

// exec is the recursive backtracking interpreter (spec §4.4 "VM"). It
// follows every successor path a MatchPredicate produces, but at a Split it
// returns only the preferred branch's paths whenever that branch yields
// any; the other branch is explored only when the preferred one yields
// nothing.
//
// The third return value, cutGroup, is 0 unless control has passed through
// an opCut: it then carries that Cut's group id back up the call stack so
// every opSplit belonging to the same possessive quantifier (tagged with
// the same group id at compile time) can tell "a Cut inside my own
// quantifier fired" apart from an unrelated failure, and refuse to retry
// its fallback branch in the former case (spec §4.4 "Cut": "Drop all
// alternative threads to the last Split (possessive semantics)").
func exec(prog *Program, st *vmState, pc int, path Path, slots []Path, caps Captures) ([]Path, Captures, int, error) {
	if err := st.step(pc, path); err != nil {
		return nil, nil, 0, err
	}
	in := prog.at(pc)
	switch in.op {
	case opMatch:
		nexts, subCaps, err := in.atom.extend(path)
		if err != nil {
			return nil, nil, 0, err
		}
		if len(nexts) == 0 {
			return nil, nil, 0, nil
		}
		merged := mergeCaptures(cloneCaptures(caps), subCaps)
		var outPaths []Path
		var outCaps Captures
		outCut := 0
		for _, np := range nexts {
			if err := st.spawn(pc, np); err != nil {
				return nil, nil, 0, err
			}
			rp, rc, rcut, err := exec(prog, st, pc+1, np, slots, merged)
			if err != nil {
				return nil, nil, 0, err
			}
			outPaths = append(outPaths, rp...)
			outCaps = mergeCaptures(outCaps, rc)
			if rcut != 0 {
				outCut = rcut
			}
		}
		return outPaths, outCaps, outCut, nil

	case opSplit:
		if err := st.spawn(pc, path); err != nil {
			return nil, nil, 0, err
		}
		preferred, preferredCaps, cut, err := exec(prog, st, in.a, path, slots, caps)
		if err != nil {
			return nil, nil, 0, err
		}
		if len(preferred) > 0 {
			return preferred, preferredCaps, cut, nil
		}
		if in.group != 0 && cut == in.group {
			// A Cut belonging to this Split's own possessive quantifier
			// already fired further down this branch; the fallback
			// (fewer-repetition) alternative must not be tried.
			return nil, nil, cut, nil
		}
		if err := st.spawn(pc, path); err != nil {
			return nil, nil, 0, err
		}
		return exec(prog, st, in.b, path, slots, caps)

	case opJump:
		return exec(prog, st, in.target, path, slots, caps)

	case opSave:
		newSlots := cloneSlots(slots)
		newSlots[in.slot] = path
		return exec(prog, st, pc+1, path, newSlots, caps)

	case opCaptureCommit:
		start := slots[in.slot]
		newCaps := cloneCaptures(caps)
		if newCaps == nil {
			newCaps = Captures{}
		}
		newCaps[in.name] = append(newCaps[in.name], capturedSubPath(start, path))
		return exec(prog, st, pc+1, path, slots, newCaps)

	case opCut:
		paths, caps, _, err := exec(prog, st, pc+1, path, slots, caps)
		return paths, caps, in.group, err

	case opAccept:
		return []Path{path}, caps, 0, nil
	}
	return nil, nil, 0, internalInvariant("unknown opcode %d at pc %d", in.op, pc)
}

// capturedSubPath computes the sub-path pinned by a `@name(...)` capture.
// When the captured sub-pattern advances the path (e.g. `obj(text)`, which
// appends the matched object), the capture is exactly the newly-added hops
// — spec §8 scenario S5's "single-element tails" for `@who(obj(text))`.
// When it never advances the path (e.g. `@x(bool)`, a pure case check on
// the envelope already at the path's tail), start and end have the same
// length and the capture falls back to that one matched envelope.
func capturedSubPath(start, end Path) Path {
	if len(start) == 0 {
		return end.clone()
	}
	if len(end) > len(start) {
		return end[len(start):].clone()
	}
	return end[len(start)-1:].clone()
}

func cloneSlots(s []Path) []Path {
	out := make([]Path, len(s))
	copy(out, s)
	return out
}

func cloneCaptures(c Captures) Captures {
	if c == nil {
		return nil
	}
	out := make(Captures, len(c))
	for name, paths := range c {
		cp := make([]Path, len(paths))
		copy(cp, paths)
		out[name] = cp
	}
	return out
}
